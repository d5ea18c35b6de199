package packets

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// HeaderSize is the frame header length.
const HeaderSize = 8

// MaxPayload bounds the payload length accepted by ReadFrame.
const MaxPayload = 256 << 20

// Frame flags
const (
	FlagZstd uint16 = 1 << 0
)

var (
	// ErrUnknownOp is returned when decoding an unknown packet ID.
	ErrUnknownOp = errors.New("unknown packet op")
	// ErrFrameTooLarge is returned when a frame exceeds MaxPayload.
	ErrFrameTooLarge = errors.New("frame too large")
)

var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	decoder, _ = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxPayload))
)

// Header is a decoded frame header.
type Header struct {
	Op     uint16
	Flags  uint16
	Length uint32
}

// Frame encodes p into a frame. Payloads of at least compressThreshold bytes
// are zstd-compressed; a threshold of zero or less disables compression.
func Frame(p Packet, compressThreshold int) []byte {
	payload := p.Encode()
	var flags uint16
	if compressThreshold > 0 && len(payload) >= compressThreshold {
		compressed := encoder.EncodeAll(payload, make([]byte, 0, len(payload)/2))
		if len(compressed) < len(payload) {
			payload = compressed
			flags |= FlagZstd
		}
	}

	buf := make([]byte, HeaderSize+len(payload))
	binary.LittleEndian.PutUint16(buf[0:], p.Op())
	binary.LittleEndian.PutUint16(buf[2:], flags)
	binary.LittleEndian.PutUint32(buf[4:], uint32(len(payload)))
	copy(buf[HeaderSize:], payload)
	return buf
}

// ParseHeader decodes a frame header.
func ParseHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, fmt.Errorf("%w: header needs %d bytes, have %d", ErrTruncated, HeaderSize, len(buf))
	}
	return Header{
		Op:     binary.LittleEndian.Uint16(buf[0:]),
		Flags:  binary.LittleEndian.Uint16(buf[2:]),
		Length: binary.LittleEndian.Uint32(buf[4:]),
	}, nil
}

// ReadFrame reads one frame from a stream.
func ReadFrame(r io.Reader) ([]byte, error) {
	head := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, head); err != nil {
		return nil, err
	}
	h, _ := ParseHeader(head)
	if h.Length > MaxPayload {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, h.Length)
	}

	buf := make([]byte, HeaderSize+int(h.Length))
	copy(buf, head)
	if _, err := io.ReadFull(r, buf[HeaderSize:]); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("reading %s payload: %w", OpName(h.Op), err)
	}
	return buf, nil
}

// Decode decodes a complete frame into its packet.
func Decode(frame []byte) (Packet, error) {
	h, err := ParseHeader(frame)
	if err != nil {
		return nil, err
	}
	payload := frame[HeaderSize:]
	if uint32(len(payload)) != h.Length {
		return nil, fmt.Errorf("%w: frame says %d payload bytes, have %d", ErrTruncated, h.Length, len(payload))
	}

	if h.Flags&FlagZstd != 0 {
		payload, err = decoder.DecodeAll(payload, nil)
		if err != nil {
			return nil, fmt.Errorf("decompressing %s: %w", OpName(h.Op), err)
		}
	}

	switch h.Op {
	case AddOrUpdateGeometrySet:
		return decodeGeometrySet(payload)
	case AddOrUpdateGeometryInstance:
		return decodeGeometryInstance(payload)
	case RemoveGeometryInstance, RemoveGeometrySet:
		return decodeRemove(h.Op, payload)
	case UpdateGeometrySetSurfaces:
		return decodeSurfaceUpdate(payload)
	default:
		return nil, fmt.Errorf("%w: 0x%04X", ErrUnknownOp, h.Op)
	}
}
