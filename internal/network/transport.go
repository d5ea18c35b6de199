// Package network carries geometry packets to the spatial audio engine.
package network

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind selects a transport.
type Kind string

const (
	KindTCP       Kind = "tcp"
	KindWebSocket Kind = "websocket"
)

var (
	// ErrNotConnected is returned when sending on a closed transport.
	ErrNotConnected = errors.New("not connected")
	// ErrUnknownTransport is returned for an unsupported transport kind.
	ErrUnknownTransport = errors.New("unknown transport")
)

// ParseKind parses a transport name.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tcp", "":
		return KindTCP, nil
	case "websocket", "ws":
		return KindWebSocket, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTransport, s)
	}
}

// Transport sends complete frames.
type Transport interface {
	Send(frame []byte) error
	Close() error
}

// FrameHandler handles one received frame.
type FrameHandler func(frame []byte) error

// Dial connects a transport of the given kind.
func Dial(ctx context.Context, kind Kind, addr string, timeout time.Duration) (Transport, error) {
	switch kind {
	case KindTCP:
		return DialTCP(ctx, addr, timeout)
	case KindWebSocket:
		return DialWebSocket(ctx, addr, timeout)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransport, kind)
	}
}
