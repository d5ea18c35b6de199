// Package geometry converts source meshes into the welded vertex, triangle
// and surface representation uploaded to the spatial audio engine.
package geometry

import (
	"errors"
	"fmt"

	"github.com/Faultbox/midgard-acoustics/internal/mesh"
	"github.com/Faultbox/midgard-acoustics/pkg/math"
)

var (
	// ErrConversion is wrapped by every conversion failure. Conversion
	// failures are not fatal: the result is empty geometry.
	ErrConversion = errors.New("mesh conversion failed")

	ErrNoMesh      = fmt.Errorf("%w: no usable source mesh", ErrConversion)
	ErrNoTriangles = fmt.Errorf("%w: no valid triangles after welding", ErrConversion)
)

// Triangle references three welded vertices and the surface it belongs to.
type Triangle struct {
	Point0, Point1, Point2 uint32
	Surface                uint32
}

// Surface is a group of triangles sharing one material. Texture and
// TransmissionLoss are filled in by the acoustic property resolver.
type Surface struct {
	Key              mesh.SurfaceKey
	Name             string
	Texture          uint32
	TransmissionLoss float32
	Area             float64 // m², world scale
}

// Data is the converted geometry. It is rebuilt wholesale by every
// conversion; surface indices are dense in [0, len(Surfaces)).
type Data struct {
	Vertices  []math.Vec3
	Triangles []Triangle
	Surfaces  []Surface
}

// Empty reports whether there is nothing to send.
func (d *Data) Empty() bool {
	return d == nil || len(d.Triangles) == 0 || len(d.Vertices) == 0
}

// SurfaceAreas returns the area of each surface keyed by surface index.
func (d *Data) SurfaceAreas() map[int]float64 {
	areas := make(map[int]float64)
	if d == nil {
		return areas
	}
	for i, s := range d.Surfaces {
		areas[i] = s.Area
	}
	return areas
}

// TotalArea returns the summed area of every surface.
func (d *Data) TotalArea() float64 {
	var total float64
	if d == nil {
		return total
	}
	for _, s := range d.Surfaces {
		total += s.Area
	}
	return total
}

// Options controls a conversion.
type Options struct {
	// WeldingThreshold is the local-space distance under which two vertices
	// are merged. 0 merges exact duplicates only.
	WeldingThreshold float32
	// WorldScale is the component's world scale, applied when computing
	// surface areas. Zero value means unit scale.
	WorldScale math.Vec3
	// UnitsPerMeter converts world units to meters for areas. Zero value
	// means 1.
	UnitsPerMeter float32
}

func (o Options) scale() math.Vec3 {
	if o.WorldScale == (math.Vec3{}) {
		return math.One()
	}
	return o.WorldScale
}

func (o Options) unitsPerMeter() float32 {
	if o.UnitsPerMeter <= 0 {
		return 1
	}
	return o.UnitsPerMeter
}
