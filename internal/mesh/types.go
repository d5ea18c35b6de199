// Package mesh describes the source geometry a geometry component converts:
// static mesh LODs with per-section materials, and simple collision made of
// convex hulls and boxes tagged with physical materials.
package mesh

import (
	"fmt"
	"strings"

	"github.com/Faultbox/midgard-acoustics/pkg/math"
)

// Type selects which source geometry a component converts.
type Type uint8

const (
	// TypeCollisionMesh converts the simple collision of the object. It is
	// the zero value.
	TypeCollisionMesh Type = iota
	// TypeStaticMesh converts the render mesh at a given LOD, one surface
	// per material.
	TypeStaticMesh
)

// String returns the name used in config and scene files.
func (t Type) String() string {
	switch t {
	case TypeStaticMesh:
		return "static"
	case TypeCollisionMesh:
		return "collision"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// ParseType parses "static" or "collision".
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "static", "static_mesh", "staticmesh":
		return TypeStaticMesh, nil
	case "collision", "collision_mesh", "collisionmesh", "simple_collision":
		return TypeCollisionMesh, nil
	default:
		return 0, fmt.Errorf("unknown mesh type %q", s)
	}
}

// Material is a render material; its physical material drives the acoustic
// texture fallback.
type Material struct {
	Name             string
	PhysicalMaterial string
}

// Section is a run of triangles drawn with one material.
type Section struct {
	Material string
	Indices  []uint32 // 3 per triangle
}

// LOD is one level of detail of a static mesh in local space.
type LOD struct {
	Positions []math.Vec3
	Sections  []Section
}

// StaticMesh is a render mesh with one or more LODs.
type StaticMesh struct {
	Name      string
	Materials []Material
	LODs      []LOD
}

// Material returns the material with the given name.
func (m *StaticMesh) Material(name string) (Material, bool) {
	for _, mat := range m.Materials {
		if mat.Name == name {
			return mat, true
		}
	}
	return Material{}, false
}

// MaterialNames returns the names of the materials used by the given LOD, in
// first-use order.
func (m *StaticMesh) MaterialNames(lod int) []string {
	if lod < 0 || lod >= len(m.LODs) {
		return nil
	}
	seen := make(map[string]bool)
	var names []string
	for _, s := range m.LODs[lod].Sections {
		if !seen[s.Material] {
			seen[s.Material] = true
			names = append(names, s.Material)
		}
	}
	return names
}

// Hull is a convex collision hull in local space.
type Hull struct {
	PhysicalMaterial string // empty means the collision's default
	Positions        []math.Vec3
	Indices          []uint32 // 3 per triangle
}

// Box is an oriented box collision primitive.
type Box struct {
	PhysicalMaterial string
	Center           math.Vec3
	Extents          math.Vec3 // half sizes
	Rotation         math.Quat
}

// Collision is the simple collision of an object.
type Collision struct {
	PhysicalMaterial string
	Hulls            []Hull
	Boxes            []Box
}

// Source gives access to the geometry of the object a component is attached
// to. Either accessor may return nil when the object has no such geometry.
type Source interface {
	StaticMesh() *StaticMesh
	Collision() *Collision
}
