package network

import (
	"context"
	"errors"
	"net"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Faultbox/midgard-acoustics/internal/network/packets"
)

func startReceiver(t *testing.T, kind Kind) (string, <-chan packets.Packet) {
	t.Helper()
	got := make(chan packets.Packet, 8)
	r := NewReceiver(func(frame []byte) error {
		p, err := packets.Decode(frame)
		if err != nil {
			return err
		}
		got <- p
		return nil
	}, nil)
	t.Cleanup(r.Close)

	var addr string
	switch kind {
	case KindTCP:
		a, err := r.ListenTCP("127.0.0.1:0")
		if err != nil {
			t.Fatalf("ListenTCP: %v", err)
		}
		addr = a.String()
	case KindWebSocket:
		a, err := r.ListenWebSocket("127.0.0.1:0")
		if err != nil {
			t.Fatalf("ListenWebSocket: %v", err)
		}
		addr = "ws://" + a.String() + "/"
	}
	return addr, got
}

func TestTransportsDeliverFrames(t *testing.T) {
	for _, kind := range []Kind{KindTCP, KindWebSocket} {
		t.Run(string(kind), func(t *testing.T) {
			addr, got := startReceiver(t, kind)

			tr, err := Dial(context.Background(), kind, addr, time.Second)
			if err != nil {
				t.Fatalf("Dial: %v", err)
			}
			defer tr.Close()

			ids := []uuid.UUID{uuid.New(), uuid.New()}
			for _, id := range ids {
				if err := tr.Send(packets.Frame(packets.NewRemoveSet(id), 0)); err != nil {
					t.Fatalf("Send: %v", err)
				}
			}

			for i, id := range ids {
				select {
				case p := <-got:
					rm, ok := p.(*packets.Remove)
					if !ok || rm.ID != id || rm.Op() != packets.RemoveGeometrySet {
						t.Errorf("frame %d = %+v, want RemoveGeometrySet %s", i, p, id)
					}
				case <-time.After(2 * time.Second):
					t.Fatalf("frame %d not received", i)
				}
			}
		})
	}
}

func TestSendAfterClose(t *testing.T) {
	addr, _ := startReceiver(t, KindTCP)
	tr, err := DialTCP(context.Background(), addr, time.Second)
	if err != nil {
		t.Fatalf("DialTCP: %v", err)
	}
	tr.Close()
	if err := tr.Send([]byte{1}); !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"tcp", KindTCP, false},
		{"", KindTCP, false},
		{"WS", KindWebSocket, false},
		{"websocket", KindWebSocket, false},
		{"udp", "", true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseKind(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestDialUnknownKind(t *testing.T) {
	if _, err := Dial(context.Background(), Kind("udp"), "127.0.0.1:1", time.Second); !errors.Is(err, ErrUnknownTransport) {
		t.Errorf("expected ErrUnknownTransport, got %v", err)
	}
}

func TestTCPSendTimesOutOnStalledPeer(t *testing.T) {
	old := writeWait
	writeWait = 200 * time.Millisecond
	defer func() { writeWait = old }()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	// Accept and never read.
	accepted := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err == nil {
			accepted <- c
		}
	}()

	tr, err := DialTCP(context.Background(), ln.Addr().String(), time.Second)
	if err != nil {
		t.Fatalf("DialTCP: %v", err)
	}
	defer tr.Close()
	defer func() {
		select {
		case c := <-accepted:
			c.Close()
		default:
		}
	}()

	done := make(chan error, 1)
	go func() {
		frame := make([]byte, 1<<20)
		for {
			if err := tr.Send(frame); err != nil {
				done <- err
				return
			}
		}
	}()

	select {
	case err := <-done:
		if !errors.Is(err, os.ErrDeadlineExceeded) {
			t.Errorf("expected deadline exceeded, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("send still blocked on a peer that stopped reading")
	}
}
