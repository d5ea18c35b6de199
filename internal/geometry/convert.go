package geometry

import (
	"fmt"
	gomath "math"

	"github.com/Faultbox/midgard-acoustics/internal/mesh"
	"github.com/Faultbox/midgard-acoustics/pkg/math"
)

// minDoubleArea is the local-space cross product length under which a
// triangle counts as degenerate.
const minDoubleArea = 1e-8

// ConvertSource gathers the geometry selected by t and converts it.
// On failure the returned Data is empty, never nil.
func ConvertSource(src mesh.Source, t mesh.Type, lod int, opts Options) (*Data, error) {
	buf, err := mesh.Gather(src, t, lod)
	if err != nil {
		return &Data{}, fmt.Errorf("%w: %v", ErrNoMesh, err)
	}
	return Convert(buf, opts)
}

// Convert welds buf, drops degenerate triangles, groups the rest into
// surfaces by surface key in first-seen order, and computes surface areas.
// Equal input always produces equal output.
func Convert(buf mesh.Buffers, opts Options) (*Data, error) {
	if len(buf.Positions) == 0 || len(buf.Triangles) == 0 {
		return &Data{}, ErrNoMesh
	}

	vertices, remap := Weld(buf.Positions, opts.WeldingThreshold)

	data := &Data{Vertices: vertices}
	surfaceIndex := make(map[mesh.SurfaceKey]uint32)

	for _, src := range buf.Triangles {
		a, b, c := remap[src.Indices[0]], remap[src.Indices[1]], remap[src.Indices[2]]
		if a == b || b == c || a == c {
			continue
		}
		if doubleArea(vertices[a], vertices[b], vertices[c]) < minDoubleArea {
			continue
		}

		s, ok := surfaceIndex[src.Key]
		if !ok {
			s = uint32(len(data.Surfaces))
			surfaceIndex[src.Key] = s
			data.Surfaces = append(data.Surfaces, Surface{
				Key:  src.Key,
				Name: src.Key.Label(),
			})
		}

		data.Triangles = append(data.Triangles, Triangle{
			Point0:  a,
			Point1:  b,
			Point2:  c,
			Surface: s,
		})
	}

	if len(data.Triangles) == 0 {
		return &Data{}, ErrNoTriangles
	}

	ComputeAreas(data, opts.scale(), opts.unitsPerMeter())
	return data, nil
}

// ComputeAreas recomputes every surface area for the given world scale.
func ComputeAreas(data *Data, scale math.Vec3, unitsPerMeter float32) {
	if data == nil {
		return
	}
	for i := range data.Surfaces {
		data.Surfaces[i].Area = 0
	}
	toSquareMeters := 1 / (float64(unitsPerMeter) * float64(unitsPerMeter))
	for _, t := range data.Triangles {
		a := TriangleArea(data.Vertices[t.Point0], data.Vertices[t.Point1], data.Vertices[t.Point2], scale)
		data.Surfaces[t.Surface].Area += a * toSquareMeters
	}
}

// TriangleArea returns the area of the triangle after scaling its vertices.
func TriangleArea(a, b, c, scale math.Vec3) float64 {
	ax, ay, az := float64(a.X*scale.X), float64(a.Y*scale.Y), float64(a.Z*scale.Z)
	e1x, e1y, e1z := float64(b.X*scale.X)-ax, float64(b.Y*scale.Y)-ay, float64(b.Z*scale.Z)-az
	e2x, e2y, e2z := float64(c.X*scale.X)-ax, float64(c.Y*scale.Y)-ay, float64(c.Z*scale.Z)-az

	cx := e1y*e2z - e1z*e2y
	cy := e1z*e2x - e1x*e2z
	cz := e1x*e2y - e1y*e2x
	return 0.5 * gomath.Sqrt(cx*cx+cy*cy+cz*cz)
}

func doubleArea(a, b, c math.Vec3) float32 {
	return b.Sub(a).Cross(c.Sub(a)).Length()
}
