package component

import (
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-acoustics/internal/acoustics"
	"github.com/Faultbox/midgard-acoustics/internal/geometry"
)

// OnRegister is called when the component joins the world. It converts and
// sends the geometry, or defers the send until the engine is ready.
func (g *Geometry) OnRegister() {
	if g.state != Unregistered {
		return
	}
	g.state = Registered
	g.lastScale = g.worldTransform().Scale
	g.log.Debug("registered")
	g.sync()
}

// OnEngineReady replays a deferred send.
func (g *Geometry) OnEngineReady() {
	if !g.pendingSend || g.state == Unregistered {
		return
	}
	g.log.Debug("engine ready, replaying deferred send")
	g.sync()
}

// OnEngineReconnected sends the geometry again after the connection to the
// engine was re-established. Set and instance uploads replace by ID, so
// geometry the engine kept is overwritten in place.
func (g *Geometry) OnEngineReconnected() {
	if g.state == Unregistered {
		return
	}
	g.log.Debug("engine reconnected, resending", zap.Stringer("state", g.state))
	g.sync()
}

// BeginPlay sends the geometry if registration did not.
func (g *Geometry) BeginPlay() {
	if g.state == Registered && !g.pendingSend {
		g.sync()
	}
}

// EndPlay removes the remote geometry but keeps the component registered.
func (g *Geometry) EndPlay() {
	g.pendingSend = false
	if g.state >= Sent {
		_ = g.RemoveGeometry()
	}
}

// OnUnregister removes the remote geometry and cancels a deferred send.
func (g *Geometry) OnUnregister() {
	g.EndPlay()
	if g.state == Unregistered {
		return
	}
	g.state = Unregistered
	g.log.Debug("unregistered")
}

// OnDestroyed tears the component down.
func (g *Geometry) OnDestroyed() {
	g.OnUnregister()
	g.ClearOnRefreshDetails()
}

// OnRoomRemoved tears down a component synthesized by the removed room. It
// reports whether the component was torn down.
func (g *Geometry) OnRoomRemoved() bool {
	if !g.opts.AddedByRoom {
		return false
	}
	g.OnDestroyed()
	return true
}

// OnUpdateTransform pushes the new world transform. A scale change also
// refreshes the surface areas.
func (g *Geometry) OnUpdateTransform() {
	if g.state == Unregistered {
		return
	}

	scale := g.worldTransform().Scale
	if scale != g.lastScale {
		g.refreshAreas()
	}

	if g.state >= Sent {
		_ = g.UpdateGeometry()
	}
}

func (g *Geometry) refreshAreas() {
	scale := g.worldTransform().Scale
	g.lastScale = scale
	units := g.opts.UnitsPerMeter
	if units <= 0 {
		units = 1
	}
	geometry.ComputeAreas(g.data, scale, units)
	g.overrides.SetSurfaceAreas(g.data)
	g.refreshDetails()
}

// PostEditChangeProperty reacts to a property edited through EditOptions or
// the override store. It reports whether the property was handled.
func (g *Geometry) PostEditChangeProperty(property string) bool {
	if !g.opts.EditorFeaturesEnabled {
		return false
	}

	switch property {
	case PropMeshType, PropLOD, PropWeldingThreshold, PropSolid,
		PropEnableDiffraction, PropEnableDiffractionOnBoundaryEdges, PropBypassPortalSubtraction:
		g.resync()
	case PropUnitsPerMeter:
		g.refreshAreas()
	case PropAcousticPropertiesOverride:
		g.syncMaterials()
		g.overridesChanged()
	case PropTransform:
		g.OnUpdateTransform()
	default:
		return false
	}
	g.refreshDetails()
	return true
}

// PostEditUndo re-sends everything after an undo, since any property may
// have changed.
func (g *Geometry) PostEditUndo() bool {
	if !g.opts.EditorFeaturesEnabled {
		return false
	}
	g.overrides.SetMeshType(g.opts.MeshType)
	g.resync()
	g.refreshDetails()
	return true
}

// HandleObjectsReplaced swaps texture references after an asset reload. It
// reports whether any override referenced a replaced texture.
func (g *Geometry) HandleObjectsReplaced(replacements map[*acoustics.Texture]*acoustics.Texture) bool {
	if !g.opts.EditorFeaturesEnabled {
		return false
	}
	if !g.overrides.ReplaceTextures(replacements) {
		return false
	}
	g.log.Debug("texture references replaced", zap.Int("replacements", len(replacements)))
	g.overridesChanged()
	g.refreshDetails()
	return true
}

// OnMeshMaterialsChanged re-keys the static mesh overrides after the mesh's
// materials changed. It reports whether the key set changed.
func (g *Geometry) OnMeshMaterialsChanged() bool {
	if !g.opts.EditorFeaturesEnabled {
		return false
	}
	if !g.syncMaterials() {
		return false
	}
	g.resync()
	g.refreshDetails()
	return true
}

// Refresh re-converts and re-sends the geometry after its source mesh or
// properties changed outside the component.
func (g *Geometry) Refresh() {
	g.overrides.SetMeshType(g.opts.MeshType)
	g.syncMaterials()
	g.resync()
	g.refreshDetails()
}
