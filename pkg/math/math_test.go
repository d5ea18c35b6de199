package math

import (
	"math"
	"testing"
)

func TestVec3Cross(t *testing.T) {
	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}
	got := x.Cross(y)
	want := Vec3{0, 0, 1}
	if got != want {
		t.Errorf("Vec3.Cross() = %v, want %v", got, want)
	}
}

func TestVec3Mul(t *testing.T) {
	got := Vec3{1, 2, 3}.Mul(Vec3{2, 0.5, -1})
	want := Vec3{2, 1, -3}
	if got != want {
		t.Errorf("Vec3.Mul() = %v, want %v", got, want)
	}
}

func TestVec3Distance(t *testing.T) {
	a := Vec3{0, 0, 0}
	b := Vec3{3, 4, 0}
	if d := a.DistanceSquared(b); d != 25 {
		t.Errorf("DistanceSquared() = %v, want 25", d)
	}
	if l := b.Length(); l != 5 {
		t.Errorf("Length() = %v, want 5", l)
	}
}

func TestQuatIdentity(t *testing.T) {
	q := QuatIdentity()
	if q.X != 0 || q.Y != 0 || q.Z != 0 || q.W != 1 {
		t.Errorf("Identity quaternion should be (0,0,0,1), got (%v,%v,%v,%v)", q.X, q.Y, q.Z, q.W)
	}
}

func TestQuatNormalize(t *testing.T) {
	q := Quat{X: 1, Y: 2, Z: 3, W: 4}
	n := q.Normalize()

	length := float32(math.Sqrt(float64(n.X*n.X + n.Y*n.Y + n.Z*n.Z + n.W*n.W)))
	if math.Abs(float64(length-1.0)) > 0.0001 {
		t.Errorf("Normalized quaternion length should be 1, got %v", length)
	}
}

func TestQuatRotate(t *testing.T) {
	// 90 degrees around Z maps +X to +Y
	h := float32(math.Sqrt2 / 2)
	q := Quat{Z: h, W: h}
	got := q.Rotate(Vec3{1, 0, 0})
	if !got.ApproxEqual(Vec3{0, 1, 0}, 1e-5) {
		t.Errorf("Rotate() = %v, want (0,1,0)", got)
	}
}

func TestQuatSameRotation(t *testing.T) {
	q := Quat{Y: float32(math.Sin(0.5)), W: float32(math.Cos(0.5))}
	neg := Quat{-q.X, -q.Y, -q.Z, -q.W}
	if !q.SameRotation(neg, 1e-6) {
		t.Error("q and -q should describe the same rotation")
	}
	if q.SameRotation(QuatIdentity(), 1e-6) {
		t.Error("rotation by 1 rad should differ from identity")
	}
}

func TestTransformEqual(t *testing.T) {
	a := IdentityTransform()
	b := IdentityTransform()
	b.Location.X = 1e-7
	if !a.Equal(b, 1e-5) {
		t.Error("transforms within tolerance should be equal")
	}
	b.Scale = Vec3{2, 1, 1}
	if a.Equal(b, 1e-5) {
		t.Error("transforms with different scale should differ")
	}
}
