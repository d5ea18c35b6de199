package component

import (
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-acoustics/internal/acoustics"
	"github.com/Faultbox/midgard-acoustics/internal/geometry"
	"github.com/Faultbox/midgard-acoustics/internal/mesh"
	"github.com/Faultbox/midgard-acoustics/internal/spatial"
	"github.com/Faultbox/midgard-acoustics/pkg/math"
)

// Geometry is the acoustic geometry component of one scene object. It is not
// safe for concurrent use; all calls come from the owning update loop.
type Geometry struct {
	id       uuid.UUID
	host     Host
	engine   spatial.Engine
	resolver *acoustics.Resolver
	log      *zap.Logger

	opts      Options
	overrides *acoustics.Overrides
	data      *geometry.Data

	state          State
	pendingSend    bool
	remoteSet      uuid.UUID
	remoteInstance uuid.UUID
	lastScale      math.Vec3
	sentSurfaces   []spatial.SurfaceParams

	onRefreshDetails func()
}

// New creates an unregistered component. id must be unique per component.
func New(id uuid.UUID, host Host, engine spatial.Engine, resolver *acoustics.Resolver, opts Options, log *zap.Logger) *Geometry {
	if log == nil {
		log = zap.NewNop()
	}
	if resolver == nil {
		resolver = acoustics.NewResolver(nil, acoustics.DefaultTransmissionLoss)
	}
	g := &Geometry{
		id:        id,
		host:      host,
		engine:    engine,
		resolver:  resolver,
		opts:      opts,
		overrides: acoustics.NewOverrides(opts.MeshType),
		data:      &geometry.Data{},
	}
	g.log = log.With(zap.String("component", g.Name()))
	g.syncMaterials()
	return g
}

// ID returns the component identity.
func (g *Geometry) ID() uuid.UUID { return g.id }

// Name returns the component name, or its ID when unnamed.
func (g *Geometry) Name() string {
	if g.opts.Name != "" {
		return g.opts.Name
	}
	return g.id.String()
}

// State returns the sync state.
func (g *Geometry) State() State { return g.state }

// Options returns the current properties.
func (g *Geometry) Options() Options { return g.opts }

// Data returns the last converted geometry. It must not be modified.
func (g *Geometry) Data() *geometry.Data { return g.data }

// Overrides returns the override store.
func (g *Geometry) Overrides() *acoustics.Overrides { return g.overrides }

// PendingSend reports whether a send waits for engine readiness.
func (g *Geometry) PendingSend() bool { return g.pendingSend }

// GeometrySetID returns the identity the geometry set is sent under. It
// changes with the mesh type.
func (g *Geometry) GeometrySetID() uuid.UUID {
	return uuid.NewSHA1(g.id, []byte(g.opts.MeshType.String()))
}

// InstanceID returns the identity of the instance of the current set.
func (g *Geometry) InstanceID() uuid.UUID {
	return uuid.NewSHA1(g.GeometrySetID(), []byte("instance"))
}

// SetOnRefreshDetails registers the callback run after derived data such as
// surface areas change.
func (g *Geometry) SetOnRefreshDetails(fn func()) { g.onRefreshDetails = fn }

// ClearOnRefreshDetails removes the callback.
func (g *Geometry) ClearOnRefreshDetails() { g.onRefreshDetails = nil }

func (g *Geometry) refreshDetails() {
	if g.onRefreshDetails != nil {
		g.onRefreshDetails()
	}
}

func (g *Geometry) source() mesh.Source {
	if g.host == nil {
		return nil
	}
	return g.host.MeshSource()
}

func (g *Geometry) worldTransform() math.Transform {
	if g.host == nil {
		return math.IdentityTransform()
	}
	return g.host.WorldTransform()
}

// syncMaterials makes the static override keys match the mesh materials.
// It reports whether the key set changed.
func (g *Geometry) syncMaterials() bool {
	if g.opts.MeshType != mesh.TypeStaticMesh {
		return false
	}
	var names []string
	if src := g.source(); src != nil {
		if sm := src.StaticMesh(); sm != nil {
			names = sm.MaterialNames(g.opts.LOD)
		}
	}
	return g.overrides.SyncMaterials(names)
}

// ConvertMesh rebuilds the geometry data from the mesh source. On failure
// the data is empty and the error wraps geometry.ErrConversion.
func (g *Geometry) ConvertMesh() error {
	g.syncMaterials()

	scale := g.worldTransform().Scale
	data, err := geometry.ConvertSource(g.source(), g.opts.MeshType, g.opts.LOD, geometry.Options{
		WeldingThreshold: g.opts.WeldingThreshold,
		WorldScale:       scale,
		UnitsPerMeter:    g.opts.UnitsPerMeter,
	})
	g.data = data
	g.lastScale = scale

	g.resolver.Resolve(g.data, g.overrides)
	g.overrides.SetSurfaceAreas(g.data)
	g.refreshDetails()

	if err != nil {
		g.log.Warn("mesh conversion failed",
			zap.Stringer("mesh_type", g.opts.MeshType),
			zap.Int("lod", g.opts.LOD),
			zap.Error(err))
		return err
	}
	g.log.Debug("mesh converted",
		zap.Int("vertices", len(g.data.Vertices)),
		zap.Int("triangles", len(g.data.Triangles)),
		zap.Int("surfaces", len(g.data.Surfaces)))
	return nil
}

func (g *Geometry) geometrySet() spatial.GeometrySet {
	return spatial.GeometrySet{
		ID:                               g.GeometrySetID(),
		Vertices:                         g.data.Vertices,
		Triangles:                        g.data.Triangles,
		Surfaces:                         spatial.SurfacesFromData(g.data),
		Solid:                            g.opts.Solid,
		EnableDiffraction:                g.opts.EnableDiffraction,
		EnableDiffractionOnBoundaryEdges: g.opts.EnableDiffractionOnBoundaryEdges,
		BypassPortalSubtraction:          g.opts.BypassPortalSubtraction,
	}
}

func (g *Geometry) remoteError(op string, id uuid.UUID, err error) error {
	g.log.Warn("remote sync failed",
		zap.String("op", op),
		zap.Stringer("id", id),
		zap.Stringer("state", g.state),
		zap.Error(err))
	return fmt.Errorf("%w: %s %s: %w", ErrRemoteSync, op, id, err)
}

// SendGeometry uploads the geometry set. It does nothing when there is no
// converted geometry.
func (g *Geometry) SendGeometry() error {
	if g.state == Unregistered {
		g.log.Warn("send on unregistered component")
		return ErrNotRegistered
	}
	if g.data.Empty() {
		g.log.Debug("nothing to send")
		return nil
	}

	id := g.GeometrySetID()
	if g.state >= Sent && g.remoteSet != id {
		if err := g.RemoveGeometry(); err != nil {
			return err
		}
	}

	if err := g.engine.AddOrUpdateGeometrySet(g.geometrySet()); err != nil {
		return g.remoteError("AddOrUpdateGeometrySet", id, err)
	}

	g.remoteSet = id
	if g.state < Sent {
		g.state = Sent
	}
	g.sentSurfaces = spatial.SurfacesFromData(g.data)
	g.overrides.Commit()
	g.log.Debug("geometry set sent", zap.Stringer("set", id))
	return nil
}

// UpdateGeometry uploads the world transform as the instance of the sent
// geometry set.
func (g *Geometry) UpdateGeometry() error {
	if g.state < Sent {
		g.log.Warn("update before the geometry set was sent", zap.Stringer("state", g.state))
		return ErrStaleIdentity
	}

	inst := spatial.GeometryInstance{
		ID:          uuid.NewSHA1(g.remoteSet, []byte("instance")),
		GeometrySet: g.remoteSet,
		Transform:   g.worldTransform(),
	}
	if err := g.engine.AddOrUpdateGeometryInstance(inst); err != nil {
		return g.remoteError("AddOrUpdateGeometryInstance", inst.ID, err)
	}

	g.remoteInstance = inst.ID
	g.state = SentWithInstance
	return nil
}

// RemoveGeometry removes the instance and then the geometry set. Each
// successful call advances the state, so a failed set removal leaves the
// component in Sent.
func (g *Geometry) RemoveGeometry() error {
	if g.state < Sent {
		g.log.Warn("remove before the geometry set was sent", zap.Stringer("state", g.state))
		return ErrStaleIdentity
	}

	if g.state == SentWithInstance {
		if err := g.engine.RemoveGeometryInstance(g.remoteInstance); err != nil {
			return g.remoteError("RemoveGeometryInstance", g.remoteInstance, err)
		}
		g.remoteInstance = uuid.Nil
		g.state = Sent
	}

	if err := g.engine.RemoveGeometrySet(g.remoteSet); err != nil {
		return g.remoteError("RemoveGeometrySet", g.remoteSet, err)
	}
	g.log.Debug("geometry removed", zap.Stringer("set", g.remoteSet))
	g.remoteSet = uuid.Nil
	g.state = Registered
	return nil
}

// sync converts, sends and places the geometry, deferring when the engine
// is not ready yet.
func (g *Geometry) sync() {
	if g.state == Unregistered {
		return
	}
	if !spatial.IsReady(g.engine) {
		if !g.pendingSend {
			g.log.Debug("engine not ready, deferring send")
		}
		g.pendingSend = true
		return
	}
	g.pendingSend = false

	if err := g.ConvertMesh(); err != nil {
		return
	}
	if err := g.SendGeometry(); err != nil {
		return
	}
	if g.state >= Sent {
		_ = g.UpdateGeometry()
	}
}

// resync removes the remote geometry and sends it again from a fresh
// conversion.
func (g *Geometry) resync() {
	if g.state == Unregistered {
		g.syncMaterials()
		return
	}
	if g.state >= Sent {
		if err := g.RemoveGeometry(); err != nil {
			return
		}
	}
	g.sync()
}

// overridesChanged pushes override edits, with a surface-only update when
// the engine supports it and the topology is unchanged.
func (g *Geometry) overridesChanged() {
	g.resolver.Resolve(g.data, g.overrides)

	switch g.state {
	case Unregistered:
		return
	case Registered:
		g.resync()
		return
	}

	diff := g.overrides.Diff()
	if diff.Kind == acoustics.ChangeNone {
		return
	}

	updater, ok := g.engine.(spatial.SurfaceUpdater)
	if !ok || diff.Structural {
		g.resync()
		return
	}

	if err := g.pushSurfaces(updater); err != nil {
		return
	}
	g.overrides.Commit()
	g.log.Debug("surfaces updated",
		zap.Stringer("set", g.remoteSet),
		zap.Stringer("change", diff.Kind),
		zap.Int("materials", len(diff.Changes)))
}

func (g *Geometry) pushSurfaces(updater spatial.SurfaceUpdater) error {
	surfaces := spatial.SurfacesFromData(g.data)
	if err := updater.UpdateGeometrySetSurfaces(g.remoteSet, surfaces); err != nil {
		return g.remoteError("UpdateGeometrySetSurfaces", g.remoteSet, err)
	}
	g.sentSurfaces = surfaces
	return nil
}

// ResolveSurfaces re-resolves surface properties against the current
// physical material table and pushes them when they differ from what the
// engine holds. It reports whether anything was pushed.
func (g *Geometry) ResolveSurfaces() bool {
	g.resolver.Resolve(g.data, g.overrides)
	if g.state < Sent {
		return false
	}
	if slices.Equal(g.sentSurfaces, spatial.SurfacesFromData(g.data)) {
		return false
	}

	g.log.Debug("resolved surfaces changed", zap.Stringer("set", g.remoteSet))
	g.refreshDetails()
	if updater, ok := g.engine.(spatial.SurfaceUpdater); ok {
		_ = g.pushSurfaces(updater)
		return true
	}
	g.resync()
	return true
}

// GetSurfaceAreaSquaredMeters returns the area of a surface, or 0 for an
// invalid index.
func (g *Geometry) GetSurfaceAreaSquaredMeters(surface int) float64 {
	if surface < 0 || surface >= len(g.data.Surfaces) {
		return 0
	}
	return g.data.Surfaces[surface].Area
}

// TexturesAndSurfaceAreas returns the resolved texture and the area of
// every surface, in surface order. Surfaces without a texture report nil.
func (g *Geometry) TexturesAndSurfaceAreas() ([]*acoustics.Texture, []float64) {
	areas := g.data.SurfaceAreas()
	textures := make([]*acoustics.Texture, len(g.data.Surfaces))
	out := make([]float64, len(g.data.Surfaces))
	store := g.resolver.Store()
	for i, s := range g.data.Surfaces {
		textures[i], _ = store.TextureByID(acoustics.TextureID(s.Texture))
		out[i] = areas[i]
	}
	return textures, out
}

// MeanAbsorption returns the area-weighted absorption of the converted
// surfaces.
func (g *Geometry) MeanAbsorption() [4]float32 {
	return acoustics.MeanAbsorption(g.TexturesAndSurfaceAreas())
}

// UsesTexture reports whether an override or a converted surface
// references the texture.
func (g *Geometry) UsesTexture(id acoustics.TextureID) bool {
	if g.overrides.ContainsTexture(id) {
		return true
	}
	for _, s := range g.data.Surfaces {
		if acoustics.TextureID(s.Texture) == id {
			return true
		}
	}
	return false
}

// OnTextureChanged refreshes derived details when a texture used by the
// component changes. The engine holds texture definitions itself, so
// nothing is re-sent. It reports whether the component was affected.
func (g *Geometry) OnTextureChanged(t *acoustics.Texture) bool {
	if t == nil || !g.UsesTexture(t.ID) {
		return false
	}
	g.log.Debug("texture changed", zap.String("texture", t.Name))
	g.refreshDetails()
	return true
}

func (g *Geometry) overrideFailed(op, material string, err error) {
	level := g.log.Warn
	if errors.Is(err, acoustics.ErrUnknownMaterial) {
		level = g.log.Info
	}
	level("override rejected",
		zap.String("op", op),
		zap.String("material", material),
		zap.Stringer("mesh_type", g.opts.MeshType),
		zap.Error(err))
}
