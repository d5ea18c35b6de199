package component

import (
	"github.com/Faultbox/midgard-acoustics/internal/mesh"
)

// SetMeshType switches between static mesh and collision geometry. The
// geometry set identity changes with it.
func (g *Geometry) SetMeshType(t mesh.Type) {
	if g.opts.MeshType == t {
		return
	}
	g.applyOptions(func(o *Options) { o.MeshType = t })
}

// SetLOD selects the static mesh LOD.
func (g *Geometry) SetLOD(lod int) {
	if g.opts.LOD == lod {
		return
	}
	g.applyOptions(func(o *Options) { o.LOD = lod })
}

// SetWeldingThreshold sets the welding distance in local units.
func (g *Geometry) SetWeldingThreshold(threshold float32) {
	if g.opts.WeldingThreshold == threshold {
		return
	}
	g.applyOptions(func(o *Options) { o.WeldingThreshold = threshold })
}

// SetSolid marks the geometry as closed.
func (g *Geometry) SetSolid(solid bool) {
	if g.opts.Solid == solid {
		return
	}
	g.applyOptions(func(o *Options) { o.Solid = solid })
}

// SetBypassPortalSubtraction excludes the geometry from portal subtraction.
func (g *Geometry) SetBypassPortalSubtraction(bypass bool) {
	if g.opts.BypassPortalSubtraction == bypass {
		return
	}
	g.applyOptions(func(o *Options) { o.BypassPortalSubtraction = bypass })
}

// SetEnableDiffraction sets edge diffraction and boundary edge diffraction.
func (g *Geometry) SetEnableDiffraction(diffraction, boundaryEdges bool) {
	if g.opts.EnableDiffraction == diffraction && g.opts.EnableDiffractionOnBoundaryEdges == boundaryEdges {
		return
	}
	g.applyOptions(func(o *Options) {
		o.EnableDiffraction = diffraction
		o.EnableDiffractionOnBoundaryEdges = boundaryEdges
	})
}

// applyOptions changes properties and re-sends the geometry. The old remote
// geometry is removed under its old identity first.
func (g *Geometry) applyOptions(fn func(*Options)) {
	changed := g.EditOptions(fn)
	if len(changed) == 0 {
		return
	}
	g.resync()
}

// EditOptions changes properties without syncing and returns the names of
// the changed properties. Callers follow up with PostEditChangeProperty or
// a property setter.
func (g *Geometry) EditOptions(fn func(*Options)) []string {
	prev := g.opts
	fn(&g.opts)
	g.opts.Name = prev.Name
	g.overrides.SetMeshType(g.opts.MeshType)
	return changedProperties(prev, g.opts)
}
