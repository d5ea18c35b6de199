package math

// Transform places an object in the world: scale first, then rotation, then
// translation.
type Transform struct {
	Location Vec3
	Rotation Quat
	Scale    Vec3
}

// IdentityTransform returns a transform at the origin with unit scale.
func IdentityTransform() Transform {
	return Transform{
		Rotation: QuatIdentity(),
		Scale:    One(),
	}
}

// Equal reports whether both transforms place an object identically within tol.
func (t Transform) Equal(other Transform, tol float32) bool {
	return t.Location.ApproxEqual(other.Location, tol) &&
		t.Scale.ApproxEqual(other.Scale, tol) &&
		t.Rotation.SameRotation(other.Rotation, tol)
}
