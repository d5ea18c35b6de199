package network

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"
)

// TCPTransport writes frames to a TCP stream.
type TCPTransport struct {
	conn net.Conn
	mu   sync.Mutex
}

// DialTCP connects to addr.
func DialTCP(ctx context.Context, addr string, timeout time.Duration) (*TCPTransport, error) {
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", addr, err)
	}
	return &TCPTransport{conn: conn}, nil
}

// Send writes one frame. A peer that stops reading fails the write after
// writeWait instead of blocking the caller.
func (t *TCPTransport) Send(frame []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return ErrNotConnected
	}
	if err := t.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	_, err := t.conn.Write(frame)
	return err
}

// Close closes the connection.
func (t *TCPTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}
