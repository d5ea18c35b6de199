package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"

	ws "github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-acoustics/internal/network/packets"
)

// Receiver accepts geometry frames from senders. It is the engine side of
// the protocol and is used for debugging and tests.
type Receiver struct {
	handler FrameHandler
	log     *zap.Logger

	mu        sync.Mutex
	listeners []net.Listener
	conns     map[io.Closer]struct{}
	wg        sync.WaitGroup
}

// NewReceiver creates a receiver calling handler for each frame. Handler
// calls are serialized.
func NewReceiver(handler FrameHandler, log *zap.Logger) *Receiver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Receiver{
		handler: handler,
		log:     log,
		conns:   make(map[io.Closer]struct{}),
	}
}

// ListenTCP starts accepting TCP connections on addr and returns the bound
// address.
func (r *Receiver) ListenTCP(addr string) (net.Addr, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", addr, err)
	}
	r.mu.Lock()
	r.listeners = append(r.listeners, ln)
	r.mu.Unlock()

	r.wg.Add(1)
	go r.acceptLoop(ln)
	return ln.Addr(), nil
}

// ListenWebSocket serves WebSocket upgrades on addr and returns the bound
// address.
func (r *Receiver) ListenWebSocket(addr string) (net.Addr, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", addr, err)
	}
	r.mu.Lock()
	r.listeners = append(r.listeners, ln)
	r.mu.Unlock()

	srv := &http.Server{Handler: r}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, net.ErrClosed) {
			r.log.Warn("websocket server stopped", zap.Error(err))
		}
	}()
	return ln.Addr(), nil
}

var upgrader = ws.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// ServeHTTP upgrades the request and reads binary frames until the peer
// disconnects.
func (r *Receiver) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	if !r.track(conn) {
		conn.Close()
		return
	}
	defer r.untrack(conn)

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if !ws.IsCloseError(err, ws.CloseNormalClosure, ws.CloseGoingAway) && !errors.Is(err, net.ErrClosed) {
				r.log.Debug("websocket read ended", zap.Error(err))
			}
			return
		}
		if kind != ws.BinaryMessage {
			continue
		}
		r.dispatch(data)
	}
}

func (r *Receiver) acceptLoop(ln net.Listener) {
	defer r.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				r.log.Warn("accept failed", zap.Error(err))
			}
			return
		}
		if !r.track(conn) {
			conn.Close()
			return
		}
		r.wg.Add(1)
		go r.readLoop(conn)
	}
}

func (r *Receiver) readLoop(conn net.Conn) {
	defer r.wg.Done()
	defer r.untrack(conn)

	for {
		frame, err := packets.ReadFrame(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				r.log.Warn("read failed", zap.String("remote", conn.RemoteAddr().String()), zap.Error(err))
			}
			return
		}
		r.dispatch(frame)
	}
}

func (r *Receiver) dispatch(frame []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.handler(frame); err != nil {
		r.log.Warn("frame handler failed", zap.Error(err))
	}
}

func (r *Receiver) track(c io.Closer) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conns == nil {
		return false
	}
	r.conns[c] = struct{}{}
	return true
}

func (r *Receiver) untrack(c io.Closer) {
	r.mu.Lock()
	if r.conns != nil {
		delete(r.conns, c)
	}
	r.mu.Unlock()
	c.Close()
}

// Serve blocks until ctx is done, then closes the receiver.
func (r *Receiver) Serve(ctx context.Context) error {
	<-ctx.Done()
	r.Close()
	return ctx.Err()
}

// Close stops every listener and connection and waits for the read loops.
func (r *Receiver) Close() {
	r.mu.Lock()
	for _, ln := range r.listeners {
		ln.Close()
	}
	r.listeners = nil
	for c := range r.conns {
		c.Close()
	}
	r.conns = nil
	r.mu.Unlock()

	r.wg.Wait()
}
