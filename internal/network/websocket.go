package network

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
)

// writeWait bounds every write so a stalled peer cannot block the sender.
var writeWait = 10 * time.Second

// WebSocketTransport sends each frame as one binary message.
type WebSocketTransport struct {
	conn *ws.Conn
	mu   sync.Mutex
}

// DialWebSocket connects to a ws:// or wss:// URL. A bare host:port gets
// the ws scheme.
func DialWebSocket(ctx context.Context, addr string, timeout time.Duration) (*WebSocketTransport, error) {
	u, err := url.Parse(addr)
	if err != nil || u.Scheme == "" || u.Host == "" {
		u = &url.URL{Scheme: "ws", Host: addr, Path: "/"}
	}

	dialer := ws.Dialer{HandshakeTimeout: timeout}
	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial %s: %w", u, err)
	}
	return &WebSocketTransport{conn: conn}, nil
}

// Send writes one frame.
func (t *WebSocketTransport) Send(frame []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return ErrNotConnected
	}
	if err := t.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return t.conn.WriteMessage(ws.BinaryMessage, frame)
}

// Close sends a close message and closes the connection.
func (t *WebSocketTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return nil
	}
	_ = t.conn.WriteControl(ws.CloseMessage,
		ws.FormatCloseMessage(ws.CloseNormalClosure, ""), time.Now().Add(writeWait))
	err := t.conn.Close()
	t.conn = nil
	return err
}
