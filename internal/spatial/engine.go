// Package spatial is the boundary to the remote spatial audio engine.
package spatial

import (
	"errors"

	"github.com/google/uuid"

	"github.com/Faultbox/midgard-acoustics/internal/geometry"
	"github.com/Faultbox/midgard-acoustics/internal/network/packets"
	"github.com/Faultbox/midgard-acoustics/pkg/math"
)

// ErrNotReady is returned when the engine cannot accept calls yet.
var ErrNotReady = errors.New("spatial audio engine not ready")

// SurfaceParams are the acoustic properties of one surface.
type SurfaceParams struct {
	Texture          uint32
	TransmissionLoss float32
	Name             string
}

// GeometrySet is an uploaded boundary mesh.
type GeometrySet struct {
	ID                               uuid.UUID
	Vertices                         []math.Vec3
	Triangles                        []geometry.Triangle
	Surfaces                         []SurfaceParams
	Solid                            bool
	EnableDiffraction                bool
	EnableDiffractionOnBoundaryEdges bool
	BypassPortalSubtraction          bool
}

// GeometryInstance places a geometry set in the world.
type GeometryInstance struct {
	ID          uuid.UUID
	GeometrySet uuid.UUID
	Transform   math.Transform
}

// Engine accepts geometry pushes. Calls are fire-and-forget: a nil error
// means the call was issued, not that the engine applied it.
type Engine interface {
	AddOrUpdateGeometrySet(set GeometrySet) error
	AddOrUpdateGeometryInstance(inst GeometryInstance) error
	RemoveGeometryInstance(id uuid.UUID) error
	RemoveGeometrySet(id uuid.UUID) error
}

// SurfaceUpdater is implemented by engines that can replace the surface
// properties of a set without re-uploading its topology.
type SurfaceUpdater interface {
	UpdateGeometrySetSurfaces(set uuid.UUID, surfaces []SurfaceParams) error
}

// Readiness is implemented by engines that become ready asynchronously.
// The channel is closed once.
type Readiness interface {
	Ready() <-chan struct{}
}

// Reconnector is implemented by engines that can lose their connection and
// dial again. A value is delivered after every successful redial; the
// remote engine may have dropped everything it held.
type Reconnector interface {
	Reconnected() <-chan struct{}
}

// IsReady reports whether e can take calls now. Engines without Readiness
// are always ready.
func IsReady(e Engine) bool {
	r, ok := e.(Readiness)
	if !ok {
		return true
	}
	select {
	case <-r.Ready():
		return true
	default:
		return false
	}
}

// SurfacesFromData builds the surface parameters of converted geometry.
func SurfacesFromData(data *geometry.Data) []SurfaceParams {
	if data == nil {
		return nil
	}
	out := make([]SurfaceParams, len(data.Surfaces))
	for i, s := range data.Surfaces {
		out[i] = SurfaceParams{
			Texture:          s.Texture,
			TransmissionLoss: s.TransmissionLoss,
			Name:             s.Name,
		}
	}
	return out
}

// Flags packs the set flags for the wire.
func (s *GeometrySet) Flags() uint8 {
	var f uint8
	if s.Solid {
		f |= packets.SetSolid
	}
	if s.EnableDiffraction {
		f |= packets.SetEnableDiffraction
	}
	if s.EnableDiffractionOnBoundaryEdges {
		f |= packets.SetEnableDiffractionOnBoundaryEdges
	}
	if s.BypassPortalSubtraction {
		f |= packets.SetBypassPortalSubtraction
	}
	return f
}

// Packet converts the set to its wire form.
func (s *GeometrySet) Packet() *packets.GeometrySet {
	p := &packets.GeometrySet{
		ID:        s.ID,
		Flags:     s.Flags(),
		Vertices:  s.Vertices,
		Triangles: make([]packets.Triangle, len(s.Triangles)),
		Surfaces:  surfacePackets(s.Surfaces),
	}
	for i, t := range s.Triangles {
		p.Triangles[i] = packets.Triangle{Point0: t.Point0, Point1: t.Point1, Point2: t.Point2, Surface: t.Surface}
	}
	return p
}

// GeometrySetFromPacket converts a decoded packet back.
func GeometrySetFromPacket(p *packets.GeometrySet) GeometrySet {
	s := GeometrySet{
		ID:                               p.ID,
		Vertices:                         p.Vertices,
		Triangles:                        make([]geometry.Triangle, len(p.Triangles)),
		Surfaces:                         surfacesFromPackets(p.Surfaces),
		Solid:                            p.Flags&packets.SetSolid != 0,
		EnableDiffraction:                p.Flags&packets.SetEnableDiffraction != 0,
		EnableDiffractionOnBoundaryEdges: p.Flags&packets.SetEnableDiffractionOnBoundaryEdges != 0,
		BypassPortalSubtraction:          p.Flags&packets.SetBypassPortalSubtraction != 0,
	}
	for i, t := range p.Triangles {
		s.Triangles[i] = geometry.Triangle{Point0: t.Point0, Point1: t.Point1, Point2: t.Point2, Surface: t.Surface}
	}
	return s
}

func surfacePackets(in []SurfaceParams) []packets.Surface {
	out := make([]packets.Surface, len(in))
	for i, s := range in {
		out[i] = packets.Surface{Texture: s.Texture, TransmissionLoss: s.TransmissionLoss, Name: s.Name}
	}
	return out
}

func surfacesFromPackets(in []packets.Surface) []SurfaceParams {
	out := make([]SurfaceParams, len(in))
	for i, s := range in {
		out[i] = SurfaceParams{Texture: s.Texture, TransmissionLoss: s.TransmissionLoss, Name: s.Name}
	}
	return out
}
