package mesh

import (
	"errors"
	"fmt"

	"github.com/Faultbox/midgard-acoustics/pkg/math"
)

var (
	ErrNoStaticMesh  = errors.New("object has no static mesh")
	ErrNoCollision   = errors.New("object has no simple collision")
	ErrInvalidLOD    = errors.New("lod out of range")
	ErrIndexOverflow = errors.New("triangle index out of range")
)

// SurfaceKey identifies the surface a triangle belongs to.
// Material is empty for collision geometry.
type SurfaceKey struct {
	Material         string
	PhysicalMaterial string
}

// Label returns a readable name for the surface.
func (k SurfaceKey) Label() string {
	if k.Material != "" {
		return k.Material
	}
	if k.PhysicalMaterial != "" {
		return k.PhysicalMaterial
	}
	return "Default"
}

// Triangle is a source triangle tagged with its surface identity.
type Triangle struct {
	Indices [3]uint32
	Key     SurfaceKey
}

// Buffers are the flattened local-space buffers handed to the converter.
type Buffers struct {
	Positions []math.Vec3
	Triangles []Triangle
}

// Gather flattens the source geometry selected by t into Buffers.
// lod is ignored for collision geometry.
func Gather(src Source, t Type, lod int) (Buffers, error) {
	if src == nil {
		if t == TypeStaticMesh {
			return Buffers{}, ErrNoStaticMesh
		}
		return Buffers{}, ErrNoCollision
	}
	switch t {
	case TypeStaticMesh:
		return gatherStatic(src.StaticMesh(), lod)
	case TypeCollisionMesh:
		return gatherCollision(src.Collision())
	default:
		return Buffers{}, fmt.Errorf("gather: %v", t)
	}
}

func gatherStatic(sm *StaticMesh, lod int) (Buffers, error) {
	if sm == nil || len(sm.LODs) == 0 {
		return Buffers{}, ErrNoStaticMesh
	}
	if lod < 0 || lod >= len(sm.LODs) {
		return Buffers{}, fmt.Errorf("%w: %d (mesh %q has %d)", ErrInvalidLOD, lod, sm.Name, len(sm.LODs))
	}

	l := sm.LODs[lod]
	buf := Buffers{Positions: l.Positions}
	for _, s := range l.Sections {
		key := SurfaceKey{Material: s.Material}
		if mat, ok := sm.Material(s.Material); ok {
			key.PhysicalMaterial = mat.PhysicalMaterial
		}
		if err := appendTriangles(&buf, s.Indices, 0, len(l.Positions), key); err != nil {
			return Buffers{}, fmt.Errorf("mesh %q section %q: %w", sm.Name, s.Material, err)
		}
	}
	return buf, nil
}

func gatherCollision(c *Collision) (Buffers, error) {
	if c == nil || (len(c.Hulls) == 0 && len(c.Boxes) == 0) {
		return Buffers{}, ErrNoCollision
	}

	hulls := make([]Hull, 0, len(c.Hulls)+len(c.Boxes))
	hulls = append(hulls, c.Hulls...)
	for _, b := range c.Boxes {
		hulls = append(hulls, b.Hull())
	}

	var buf Buffers
	for i, h := range hulls {
		key := SurfaceKey{PhysicalMaterial: h.PhysicalMaterial}
		if key.PhysicalMaterial == "" {
			key.PhysicalMaterial = c.PhysicalMaterial
		}
		base := uint32(len(buf.Positions))
		buf.Positions = append(buf.Positions, h.Positions...)
		if err := appendTriangles(&buf, h.Indices, base, len(h.Positions), key); err != nil {
			return Buffers{}, fmt.Errorf("hull %d: %w", i, err)
		}
	}
	return buf, nil
}

func appendTriangles(buf *Buffers, indices []uint32, base uint32, count int, key SurfaceKey) error {
	for i := 0; i+2 < len(indices); i += 3 {
		var tri Triangle
		for j := 0; j < 3; j++ {
			idx := indices[i+j]
			if int(idx) >= count {
				return fmt.Errorf("%w: %d >= %d", ErrIndexOverflow, idx, count)
			}
			tri.Indices[j] = base + idx
		}
		tri.Key = key
		buf.Triangles = append(buf.Triangles, tri)
	}
	return nil
}
