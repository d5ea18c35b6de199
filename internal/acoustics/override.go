package acoustics

import (
	"errors"
	gomath "math"
	"sort"

	"github.com/Faultbox/midgard-acoustics/internal/geometry"
	"github.com/Faultbox/midgard-acoustics/internal/mesh"
)

var (
	// ErrInvalidOverrideTarget is returned when a material reference does
	// not fit the mesh type: a material for collision geometry, or none for
	// a static mesh.
	ErrInvalidOverrideTarget = errors.New("material reference does not match mesh type")
	// ErrUnknownMaterial is returned for a material the static mesh does
	// not use.
	ErrUnknownMaterial = errors.New("material not used by the static mesh")
)

// DefaultTransmissionLoss is the transmission loss of a fresh override.
const DefaultTransmissionLoss float32 = 1.0

// ClampTransmissionLoss clamps v to [0, 1]. NaN becomes the default.
func ClampTransmissionLoss(v float32) float32 {
	switch {
	case gomath.IsNaN(float64(v)):
		return DefaultTransmissionLoss
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// SurfaceOverride overrides the acoustic properties of one surface group.
type SurfaceOverride struct {
	// Texture replaces the physical material's texture when non-nil.
	Texture *Texture
	// EnableTransmissionLoss makes TransmissionLoss take effect.
	EnableTransmissionLoss bool
	// TransmissionLoss in [0, 1].
	TransmissionLoss float32

	surfaceArea float64
}

// NewSurfaceOverride returns an override that changes nothing.
func NewSurfaceOverride() SurfaceOverride {
	return SurfaceOverride{TransmissionLoss: DefaultTransmissionLoss}
}

// SurfaceArea returns the area in m² of the surfaces this override applies
// to, as of the last conversion.
func (o SurfaceOverride) SurfaceArea() float64 {
	return o.surfaceArea
}

// OverrideMap maps static mesh material names to overrides.
type OverrideMap map[string]SurfaceOverride

// Clone returns an independent copy.
func (m OverrideMap) Clone() OverrideMap {
	out := make(OverrideMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Overrides holds the active override representation for a mesh type,
// together with the snapshot taken at the last successful sync.
type Overrides struct {
	meshType mesh.Type

	static     OverrideMap
	prevStatic OverrideMap

	collision     SurfaceOverride
	prevCollision SurfaceOverride
}

// NewOverrides creates empty overrides for the mesh type.
func NewOverrides(t mesh.Type) *Overrides {
	return &Overrides{
		meshType:      t,
		static:        make(OverrideMap),
		prevStatic:    make(OverrideMap),
		collision:     NewSurfaceOverride(),
		prevCollision: NewSurfaceOverride(),
	}
}

// MeshType returns the mesh type selecting the active representation.
func (o *Overrides) MeshType() mesh.Type {
	return o.meshType
}

// SetMeshType switches the active representation. Both representations keep
// their values.
func (o *Overrides) SetMeshType(t mesh.Type) {
	o.meshType = t
}

func (o *Overrides) check(material string) error {
	switch o.meshType {
	case mesh.TypeCollisionMesh:
		if material != "" {
			return ErrInvalidOverrideTarget
		}
	case mesh.TypeStaticMesh:
		if material == "" {
			return ErrInvalidOverrideTarget
		}
		if _, ok := o.static[material]; !ok {
			return ErrUnknownMaterial
		}
	}
	return nil
}

// Get returns the override for material ("" for collision geometry).
func (o *Overrides) Get(material string) (SurfaceOverride, error) {
	if err := o.check(material); err != nil {
		return SurfaceOverride{}, err
	}
	if o.meshType == mesh.TypeCollisionMesh {
		return o.collision, nil
	}
	return o.static[material], nil
}

// Set replaces the override for material and returns the stored value.
// The transmission loss is clamped and the surface area is kept.
func (o *Overrides) Set(material string, v SurfaceOverride) (SurfaceOverride, error) {
	return o.Update(material, func(cur *SurfaceOverride) {
		area := cur.surfaceArea
		*cur = v
		cur.surfaceArea = area
	})
}

// Update applies fn to the override for material and returns the stored
// value. Nothing changes when the material is rejected.
func (o *Overrides) Update(material string, fn func(*SurfaceOverride)) (SurfaceOverride, error) {
	if err := o.check(material); err != nil {
		return SurfaceOverride{}, err
	}

	var cur SurfaceOverride
	if o.meshType == mesh.TypeCollisionMesh {
		cur = o.collision
	} else {
		cur = o.static[material]
	}

	fn(&cur)
	cur.TransmissionLoss = ClampTransmissionLoss(cur.TransmissionLoss)

	if o.meshType == mesh.TypeCollisionMesh {
		o.collision = cur
	} else {
		o.static[material] = cur
	}
	return cur, nil
}

// For returns the override applying to a converted surface.
func (o *Overrides) For(key mesh.SurfaceKey) (SurfaceOverride, bool) {
	if o.meshType == mesh.TypeCollisionMesh {
		return o.collision, true
	}
	v, ok := o.static[key.Material]
	return v, ok
}

// SyncMaterials makes the static map's keys exactly the given materials:
// missing ones get a default override, stale ones are pruned. It reports
// whether the key set changed.
func (o *Overrides) SyncMaterials(materials []string) bool {
	changed := false
	want := make(map[string]bool, len(materials))
	for _, m := range materials {
		want[m] = true
		if _, ok := o.static[m]; !ok {
			o.static[m] = NewSurfaceOverride()
			changed = true
		}
	}
	for m := range o.static {
		if !want[m] {
			delete(o.static, m)
			changed = true
		}
	}
	return changed
}

// Materials returns the static map's keys, sorted.
func (o *Overrides) Materials() []string {
	out := make([]string, 0, len(o.static))
	for m := range o.static {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Static returns a copy of the static mesh overrides.
func (o *Overrides) Static() OverrideMap {
	return o.static.Clone()
}

// Collision returns the collision mesh override.
func (o *Overrides) Collision() SurfaceOverride {
	return o.collision
}

// SetSurfaceAreas writes the converted surface areas back into the
// overrides: per material for static meshes, the total for collision.
func (o *Overrides) SetSurfaceAreas(data *geometry.Data) {
	if o.meshType == mesh.TypeCollisionMesh {
		o.collision.surfaceArea = data.TotalArea()
		return
	}

	perMaterial := make(map[string]float64)
	if data != nil {
		for _, s := range data.Surfaces {
			perMaterial[s.Key.Material] += s.Area
		}
	}
	for m, v := range o.static {
		v.surfaceArea = perMaterial[m]
		o.static[m] = v
	}
}

// ReplaceTextures swaps texture references after an asset reload. It
// reports whether any reference changed.
func (o *Overrides) ReplaceTextures(replacements map[*Texture]*Texture) bool {
	changed := false
	swap := func(v *SurfaceOverride) {
		if v.Texture == nil {
			return
		}
		if r, ok := replacements[v.Texture]; ok {
			v.Texture = r
			changed = true
		}
	}

	for m, v := range o.static {
		swap(&v)
		o.static[m] = v
	}
	swap(&o.collision)
	return changed
}

// ContainsTexture reports whether any override references the texture.
func (o *Overrides) ContainsTexture(id TextureID) bool {
	if o.collision.Texture != nil && o.collision.Texture.ID == id {
		return true
	}
	for _, v := range o.static {
		if v.Texture != nil && v.Texture.ID == id {
			return true
		}
	}
	return false
}

// Diff compares the active representation with the last committed snapshot.
func (o *Overrides) Diff() Diff {
	if o.meshType == mesh.TypeCollisionMesh {
		kind := DiffOverride(o.prevCollision, o.collision)
		d := Diff{Kind: kind}
		if kind != ChangeNone {
			d.Changes = []MaterialChange{{Kind: kind}}
		}
		return d
	}
	return DiffMaps(o.prevStatic, o.static)
}

// Commit snapshots the current overrides as the synced state.
func (o *Overrides) Commit() {
	o.prevStatic = o.static.Clone()
	o.prevCollision = o.collision
}
