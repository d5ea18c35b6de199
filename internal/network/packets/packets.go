// Package packets defines the spatial audio engine geometry protocol.
//
// Every packet travels in a frame:
//
//	op      uint16  packet ID
//	flags   uint16  FlagZstd when the payload is compressed
//	length  uint32  payload length in bytes
//	payload
//
// All integers and floats are little-endian.
package packets

import (
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/Faultbox/midgard-acoustics/pkg/math"
)

// Packet IDs for geometry sync
const (
	AddOrUpdateGeometrySet      uint16 = 0x0A01 // Upload a geometry set
	AddOrUpdateGeometryInstance uint16 = 0x0A02 // Place a set in the world
	RemoveGeometryInstance      uint16 = 0x0A03 // Remove an instance
	RemoveGeometrySet           uint16 = 0x0A04 // Remove a set
	UpdateGeometrySetSurfaces   uint16 = 0x0A05 // Replace surface properties only
)

// OpName returns a readable name for a packet ID.
func OpName(op uint16) string {
	switch op {
	case AddOrUpdateGeometrySet:
		return "AddOrUpdateGeometrySet"
	case AddOrUpdateGeometryInstance:
		return "AddOrUpdateGeometryInstance"
	case RemoveGeometryInstance:
		return "RemoveGeometryInstance"
	case RemoveGeometrySet:
		return "RemoveGeometrySet"
	case UpdateGeometrySetSurfaces:
		return "UpdateGeometrySetSurfaces"
	default:
		return "Unknown"
	}
}

// Packet is anything that can be framed.
type Packet interface {
	Op() uint16
	Size() int
	Encode() []byte
}

// Geometry set flags
const (
	SetSolid uint8 = 1 << iota
	SetEnableDiffraction
	SetEnableDiffractionOnBoundaryEdges
	SetBypassPortalSubtraction
)

// Triangle references three vertices and a surface.
type Triangle struct {
	Point0, Point1, Point2 uint32
	Surface                uint32
}

// MaxNameLen is the longest surface name, in bytes, a packet carries.
// Longer names are cut.
const MaxNameLen = 1<<16 - 1

// Surface carries the acoustic properties of a surface.
type Surface struct {
	Texture          uint32
	TransmissionLoss float32
	Name             string
}

// wireName cuts name to MaxNameLen bytes without splitting a UTF-8
// sequence.
func wireName(name string) string {
	if len(name) <= MaxNameLen {
		return name
	}
	n := MaxNameLen
	for n > 0 && !utf8.RuneStart(name[n]) {
		n--
	}
	return name[:n]
}

func (s *Surface) size() int {
	return 4 + 4 + 2 + len(wireName(s.Name))
}

func surfacesSize(surfaces []Surface) int {
	n := 4
	for i := range surfaces {
		n += surfaces[i].size()
	}
	return n
}

// GeometrySet (AddOrUpdateGeometrySet 0x0A01)
type GeometrySet struct {
	ID        uuid.UUID
	Flags     uint8
	Vertices  []math.Vec3
	Triangles []Triangle
	Surfaces  []Surface
}

// Op returns the packet ID.
func (p *GeometrySet) Op() uint16 { return AddOrUpdateGeometrySet }

// Size returns payload size.
func (p *GeometrySet) Size() int {
	return 16 + 1 + 4 + len(p.Vertices)*12 + 4 + len(p.Triangles)*16 + surfacesSize(p.Surfaces)
}

// Encode encodes the payload.
func (p *GeometrySet) Encode() []byte {
	w := newWriter(p.Size())
	w.uuid(p.ID)
	w.u8(p.Flags)
	w.u32(uint32(len(p.Vertices)))
	for _, v := range p.Vertices {
		w.vec3(v)
	}
	w.u32(uint32(len(p.Triangles)))
	for _, t := range p.Triangles {
		w.u32(t.Point0)
		w.u32(t.Point1)
		w.u32(t.Point2)
		w.u32(t.Surface)
	}
	w.surfaces(p.Surfaces)
	return w.buf
}

func decodeGeometrySet(data []byte) (*GeometrySet, error) {
	r := newReader(data)
	p := &GeometrySet{}
	p.ID = r.uuid()
	p.Flags = r.u8()

	n := r.count(12)
	p.Vertices = make([]math.Vec3, 0, n)
	for i := 0; i < n; i++ {
		p.Vertices = append(p.Vertices, r.vec3())
	}

	n = r.count(16)
	p.Triangles = make([]Triangle, 0, n)
	for i := 0; i < n; i++ {
		p.Triangles = append(p.Triangles, Triangle{
			Point0:  r.u32(),
			Point1:  r.u32(),
			Point2:  r.u32(),
			Surface: r.u32(),
		})
	}

	p.Surfaces = r.surfaces()
	return p, r.finish()
}

// GeometryInstance (AddOrUpdateGeometryInstance 0x0A02)
type GeometryInstance struct {
	ID          uuid.UUID
	GeometrySet uuid.UUID
	Transform   math.Transform
}

// Op returns the packet ID.
func (p *GeometryInstance) Op() uint16 { return AddOrUpdateGeometryInstance }

// Size returns payload size.
func (p *GeometryInstance) Size() int {
	return 16 + 16 + 12 + 16 + 12
}

// Encode encodes the payload.
func (p *GeometryInstance) Encode() []byte {
	w := newWriter(p.Size())
	w.uuid(p.ID)
	w.uuid(p.GeometrySet)
	w.vec3(p.Transform.Location)
	q := p.Transform.Rotation
	w.f32(q.X)
	w.f32(q.Y)
	w.f32(q.Z)
	w.f32(q.W)
	w.vec3(p.Transform.Scale)
	return w.buf
}

func decodeGeometryInstance(data []byte) (*GeometryInstance, error) {
	r := newReader(data)
	p := &GeometryInstance{}
	p.ID = r.uuid()
	p.GeometrySet = r.uuid()
	p.Transform.Location = r.vec3()
	p.Transform.Rotation = math.Quat{X: r.f32(), Y: r.f32(), Z: r.f32(), W: r.f32()}
	p.Transform.Scale = r.vec3()
	return p, r.finish()
}

// Remove (RemoveGeometryInstance 0x0A03, RemoveGeometrySet 0x0A04)
type Remove struct {
	op uint16
	ID uuid.UUID
}

// NewRemoveInstance builds a RemoveGeometryInstance packet.
func NewRemoveInstance(id uuid.UUID) *Remove {
	return &Remove{op: RemoveGeometryInstance, ID: id}
}

// NewRemoveSet builds a RemoveGeometrySet packet.
func NewRemoveSet(id uuid.UUID) *Remove {
	return &Remove{op: RemoveGeometrySet, ID: id}
}

// Op returns the packet ID.
func (p *Remove) Op() uint16 { return p.op }

// Size returns payload size.
func (p *Remove) Size() int { return 16 }

// Encode encodes the payload.
func (p *Remove) Encode() []byte {
	w := newWriter(p.Size())
	w.uuid(p.ID)
	return w.buf
}

func decodeRemove(op uint16, data []byte) (*Remove, error) {
	r := newReader(data)
	p := &Remove{op: op, ID: r.uuid()}
	return p, r.finish()
}

// SurfaceUpdate (UpdateGeometrySetSurfaces 0x0A05)
type SurfaceUpdate struct {
	GeometrySet uuid.UUID
	Surfaces    []Surface
}

// Op returns the packet ID.
func (p *SurfaceUpdate) Op() uint16 { return UpdateGeometrySetSurfaces }

// Size returns payload size.
func (p *SurfaceUpdate) Size() int {
	return 16 + surfacesSize(p.Surfaces)
}

// Encode encodes the payload.
func (p *SurfaceUpdate) Encode() []byte {
	w := newWriter(p.Size())
	w.uuid(p.GeometrySet)
	w.surfaces(p.Surfaces)
	return w.buf
}

func decodeSurfaceUpdate(data []byte) (*SurfaceUpdate, error) {
	r := newReader(data)
	p := &SurfaceUpdate{GeometrySet: r.uuid()}
	p.Surfaces = r.surfaces()
	return p, r.finish()
}
