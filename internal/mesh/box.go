package mesh

import "github.com/Faultbox/midgard-acoustics/pkg/math"

// boxCorners are the unit cube corners, indexed by boxTriangles.
var boxCorners = [8]math.Vec3{
	{X: -1, Y: -1, Z: -1}, {X: 1, Y: -1, Z: -1}, {X: 1, Y: 1, Z: -1}, {X: -1, Y: 1, Z: -1},
	{X: -1, Y: -1, Z: 1}, {X: 1, Y: -1, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: -1, Y: 1, Z: 1},
}

// boxTriangles wind outward, two per face.
var boxTriangles = [36]uint32{
	0, 2, 1, 0, 3, 2, // -Z
	4, 5, 6, 4, 6, 7, // +Z
	0, 1, 5, 0, 5, 4, // -Y
	3, 6, 2, 3, 7, 6, // +Y
	0, 4, 7, 0, 7, 3, // -X
	1, 2, 6, 1, 6, 5, // +X
}

// Hull tessellates the box into a 12-triangle hull.
func (b Box) Hull() Hull {
	rot := b.Rotation
	if rot == (math.Quat{}) {
		rot = math.QuatIdentity()
	}

	positions := make([]math.Vec3, len(boxCorners))
	for i, c := range boxCorners {
		positions[i] = rot.Rotate(c.Mul(b.Extents)).Add(b.Center)
	}

	indices := make([]uint32, len(boxTriangles))
	copy(indices, boxTriangles[:])

	return Hull{
		PhysicalMaterial: b.PhysicalMaterial,
		Positions:        positions,
		Indices:          indices,
	}
}
