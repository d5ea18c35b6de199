package scene

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Faultbox/midgard-acoustics/internal/acoustics"
	"github.com/Faultbox/midgard-acoustics/internal/component"
	"github.com/Faultbox/midgard-acoustics/internal/config"
	"github.com/Faultbox/midgard-acoustics/internal/mesh"
	"github.com/Faultbox/midgard-acoustics/pkg/math"
)

// ErrDuplicateObject is returned when two objects share an ID.
var ErrDuplicateObject = errors.New("duplicate object")

// objectNamespace derives object IDs from names.
var objectNamespace = uuid.MustParse("3b0f5c2e-8d44-4f1e-a6a1-6c2d9e7b5a10")

// Scene is a built scene: the texture store it populated and its objects.
type Scene struct {
	Store   *acoustics.Store
	Objects []*Object
}

// Override is a resolved override from the document.
type Override struct {
	Material         string
	Texture          *acoustics.Texture
	TransmissionLoss *float32
}

// Object is a scene object. It is the host of a geometry component and
// its mesh source.
type Object struct {
	ID        uuid.UUID
	Name      string
	Options   component.Options
	Overrides []Override

	transform math.Transform
	static    *mesh.StaticMesh
	collision *mesh.Collision
}

// WorldTransform implements component.Host.
func (o *Object) WorldTransform() math.Transform { return o.transform }

// MeshSource implements component.Host.
func (o *Object) MeshSource() mesh.Source { return o }

// StaticMesh implements mesh.Source.
func (o *Object) StaticMesh() *mesh.StaticMesh { return o.static }

// Collision implements mesh.Source.
func (o *Object) Collision() *mesh.Collision { return o.collision }

// OverrideMap returns the overrides keyed by material.
func (o *Object) OverrideMap() map[string]acoustics.SurfaceOverride {
	out := make(map[string]acoustics.SurfaceOverride, len(o.Overrides))
	for _, ov := range o.Overrides {
		v := acoustics.NewSurfaceOverride()
		v.Texture = ov.Texture
		if ov.TransmissionLoss != nil {
			v.EnableTransmissionLoss = true
			v.TransmissionLoss = *ov.TransmissionLoss
		}
		out[ov.Material] = v
	}
	return out
}

// Build registers the document's textures and physical materials in store
// and builds its objects. Entries store holds that the document no longer
// defines are dropped, so a reused store mirrors the latest document.
// Unset geometry settings take the defaults.
func (d *Document) Build(store *acoustics.Store, defaults config.GeometryConfig, editor bool) (*Scene, error) {
	if store == nil {
		store = acoustics.NewStore()
	}

	textures := make([]string, 0, len(d.Textures))
	for _, t := range d.Textures {
		var absorption [4]float32
		copy(absorption[:], t.Absorption)
		store.AddTexture(t.Name, absorption)
		textures = append(textures, t.Name)
	}
	physical := make([]string, 0, len(d.PhysicalMaterials))
	for _, pm := range d.PhysicalMaterials {
		if err := store.MapPhysicalMaterial(pm.Name, pm.Texture, pm.TransmissionLoss); err != nil {
			return nil, err
		}
		physical = append(physical, pm.Name)
	}
	store.Retain(textures, physical)

	sc := &Scene{Store: store}
	seen := make(map[uuid.UUID]string)
	for i := range d.Objects {
		obj, err := buildObject(&d.Objects[i], store, defaults, editor)
		if err != nil {
			return nil, fmt.Errorf("object %q: %w", d.Objects[i].Name, err)
		}
		if prev, ok := seen[obj.ID]; ok {
			return nil, fmt.Errorf("%w: %q and %q have ID %s", ErrDuplicateObject, prev, obj.Name, obj.ID)
		}
		seen[obj.ID] = obj.Name
		sc.Objects = append(sc.Objects, obj)
	}
	return sc, nil
}

// ObjectID returns the ID of a named object without an explicit ID.
func ObjectID(name string) uuid.UUID {
	return uuid.NewSHA1(objectNamespace, []byte(name))
}

func buildObject(d *ObjectDoc, store *acoustics.Store, defaults config.GeometryConfig, editor bool) (*Object, error) {
	obj := &Object{
		ID:        ObjectID(d.Name),
		Name:      d.Name,
		transform: d.Transform.build(),
	}
	if d.ID != "" {
		id, err := uuid.Parse(d.ID)
		if err != nil {
			return nil, fmt.Errorf("parsing id: %w", err)
		}
		obj.ID = id
	}

	opts, err := d.Geometry.options(defaults)
	if err != nil {
		return nil, err
	}
	opts.Name = d.Name
	opts.EditorFeaturesEnabled = editor
	opts.AddedByRoom = d.AddedByRoom
	obj.Options = opts

	if d.StaticMesh != nil {
		obj.static = d.StaticMesh.build()
	}
	if d.Collision != nil {
		obj.collision = d.Collision.build()
	}

	for _, o := range d.Overrides {
		ov := Override{Material: o.Material, TransmissionLoss: o.TransmissionLoss}
		if o.Texture != "" {
			t, ok := store.Texture(o.Texture)
			if !ok {
				return nil, fmt.Errorf("override %q: %w %q", o.Material, acoustics.ErrUnknownTexture, o.Texture)
			}
			ov.Texture = t
		}
		obj.Overrides = append(obj.Overrides, ov)
	}
	return obj, nil
}

func (g GeometryDoc) options(defaults config.GeometryConfig) (component.Options, error) {
	meshType := defaults.MeshType
	if g.MeshType != nil {
		meshType = *g.MeshType
	}
	t, err := mesh.ParseType(meshType)
	if err != nil {
		return component.Options{}, err
	}

	opts := component.Options{
		MeshType:                         t,
		LOD:                              defaults.LOD,
		WeldingThreshold:                 defaults.WeldingThreshold,
		UnitsPerMeter:                    defaults.UnitsPerMeter,
		Solid:                            defaults.Solid,
		EnableDiffraction:                defaults.EnableDiffraction,
		EnableDiffractionOnBoundaryEdges: defaults.EnableDiffractionOnBoundaryEdges,
		BypassPortalSubtraction:          defaults.BypassPortalSubtraction,
	}
	if g.LOD != nil {
		opts.LOD = *g.LOD
	}
	if g.WeldingThreshold != nil {
		opts.WeldingThreshold = *g.WeldingThreshold
	}
	if g.Solid != nil {
		opts.Solid = *g.Solid
	}
	if g.EnableDiffraction != nil {
		opts.EnableDiffraction = *g.EnableDiffraction
	}
	if g.EnableDiffractionOnBoundaryEdges != nil {
		opts.EnableDiffractionOnBoundaryEdges = *g.EnableDiffractionOnBoundaryEdges
	}
	if g.BypassPortalSubtraction != nil {
		opts.BypassPortalSubtraction = *g.BypassPortalSubtraction
	}
	return opts, nil
}

func vec3(v []float32, def math.Vec3) math.Vec3 {
	if len(v) != 3 {
		return def
	}
	return math.Vec3{X: v[0], Y: v[1], Z: v[2]}
}

func quat(v []float32) math.Quat {
	if len(v) != 4 {
		return math.QuatIdentity()
	}
	return math.Quat{X: v[0], Y: v[1], Z: v[2], W: v[3]}.Normalize()
}

func vec3s(in [][]float32) []math.Vec3 {
	out := make([]math.Vec3, len(in))
	for i, v := range in {
		out[i] = vec3(v, math.Vec3{})
	}
	return out
}

func (t TransformDoc) build() math.Transform {
	return math.Transform{
		Location: vec3(t.Location, math.Vec3{}),
		Rotation: quat(t.Rotation),
		Scale:    vec3(t.Scale, math.One()),
	}
}

func (s *StaticMeshDoc) build() *mesh.StaticMesh {
	sm := &mesh.StaticMesh{Name: s.Name}
	for _, m := range s.Materials {
		sm.Materials = append(sm.Materials, mesh.Material{Name: m.Name, PhysicalMaterial: m.PhysicalMaterial})
	}
	for _, l := range s.LODs {
		lod := mesh.LOD{Positions: vec3s(l.Positions)}
		for _, sec := range l.Sections {
			lod.Sections = append(lod.Sections, mesh.Section{Material: sec.Material, Indices: sec.Indices})
		}
		sm.LODs = append(sm.LODs, lod)
	}
	return sm
}

func (c *CollisionDoc) build() *mesh.Collision {
	col := &mesh.Collision{PhysicalMaterial: c.PhysicalMaterial}
	for _, h := range c.Hulls {
		col.Hulls = append(col.Hulls, mesh.Hull{
			PhysicalMaterial: h.PhysicalMaterial,
			Positions:        vec3s(h.Positions),
			Indices:          h.Indices,
		})
	}
	for _, b := range c.Boxes {
		col.Boxes = append(col.Boxes, mesh.Box{
			PhysicalMaterial: b.PhysicalMaterial,
			Center:           vec3(b.Center, math.Vec3{}),
			Extents:          vec3(b.Extents, math.Vec3{}),
			Rotation:         quat(b.Rotation),
		})
	}
	return col
}
