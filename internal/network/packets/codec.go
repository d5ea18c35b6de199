package packets

import (
	"encoding/binary"
	"errors"
	"fmt"
	gomath "math"

	"github.com/google/uuid"

	"github.com/Faultbox/midgard-acoustics/pkg/math"
)

var (
	// ErrTruncated is returned when a payload ends early.
	ErrTruncated = errors.New("packet truncated")
	// ErrTrailingData is returned when a payload is longer than its fields.
	ErrTrailingData = errors.New("trailing data after packet")
)

type writer struct {
	buf []byte
	off int
}

func newWriter(size int) *writer {
	return &writer{buf: make([]byte, size)}
}

func (w *writer) u8(v uint8) {
	w.buf[w.off] = v
	w.off++
}

func (w *writer) u16(v uint16) {
	binary.LittleEndian.PutUint16(w.buf[w.off:], v)
	w.off += 2
}

func (w *writer) u32(v uint32) {
	binary.LittleEndian.PutUint32(w.buf[w.off:], v)
	w.off += 4
}

func (w *writer) f32(v float32) {
	w.u32(gomath.Float32bits(v))
}

func (w *writer) vec3(v math.Vec3) {
	w.f32(v.X)
	w.f32(v.Y)
	w.f32(v.Z)
}

func (w *writer) uuid(id uuid.UUID) {
	copy(w.buf[w.off:], id[:])
	w.off += 16
}

func (w *writer) surfaces(surfaces []Surface) {
	w.u32(uint32(len(surfaces)))
	for _, s := range surfaces {
		w.u32(s.Texture)
		w.f32(s.TransmissionLoss)
		name := wireName(s.Name)
		w.u16(uint16(len(name)))
		copy(w.buf[w.off:], name)
		w.off += len(name)
	}
}

// reader decodes little-endian fields. The first short read sets err and
// every later read returns zero values.
type reader struct {
	buf []byte
	off int
	err error
}

func newReader(data []byte) *reader {
	return &reader{buf: data}
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || len(r.buf)-r.off < n {
		r.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncated, n, r.off, len(r.buf)-r.off)
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) u8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) u16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *reader) u32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *reader) f32() float32 {
	return gomath.Float32frombits(r.u32())
}

func (r *reader) vec3() math.Vec3 {
	return math.Vec3{X: r.f32(), Y: r.f32(), Z: r.f32()}
}

func (r *reader) uuid() uuid.UUID {
	var id uuid.UUID
	copy(id[:], r.take(16))
	return id
}

// count reads an element count and checks that count*elemSize bytes remain.
func (r *reader) count(elemSize int) int {
	n := int(r.u32())
	if r.err == nil && n > (len(r.buf)-r.off)/elemSize {
		r.err = fmt.Errorf("%w: %d elements of %d bytes at offset %d", ErrTruncated, n, elemSize, r.off)
	}
	if r.err != nil {
		return 0
	}
	return n
}

func (r *reader) surfaces() []Surface {
	n := r.count(10)
	out := make([]Surface, 0, n)
	for i := 0; i < n; i++ {
		s := Surface{Texture: r.u32(), TransmissionLoss: r.f32()}
		s.Name = string(r.take(int(r.u16())))
		out = append(out, s)
	}
	return out
}

func (r *reader) finish() error {
	if r.err != nil {
		return r.err
	}
	if r.off != len(r.buf) {
		return fmt.Errorf("%w: %d bytes", ErrTrailingData, len(r.buf)-r.off)
	}
	return nil
}
