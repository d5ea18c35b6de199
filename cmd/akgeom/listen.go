package main

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-acoustics/internal/config"
	"github.com/Faultbox/midgard-acoustics/internal/logger"
	"github.com/Faultbox/midgard-acoustics/internal/network"
	"github.com/Faultbox/midgard-acoustics/internal/spatial"
)

func cmdListen(cfg *config.Config, args []string) int {
	addr := cfg.Engine.Address
	if len(args) > 0 {
		addr = args[0]
	}
	addr = hostPort(addr)

	transport := cfg.Engine.Transport
	if transport == "dry-run" {
		transport = "tcp"
	}
	kind, err := network.ParseKind(transport)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Frames are applied to a recorder so the live set count is tracked.
	engine := spatial.NewSurfaceRecorder(spatial.WithRecorderLogger(logger.Named("engine")))
	recv := network.NewReceiver(func(frame []byte) error {
		return spatial.Apply(engine, frame)
	}, logger.Named("receiver"))

	var bound net.Addr
	switch kind {
	case network.KindWebSocket:
		bound, err = recv.ListenWebSocket(addr)
	default:
		bound, err = recv.ListenTCP(addr)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	logger.Info("listening", zap.String("transport", string(kind)), zap.Stringer("address", bound))
	_ = recv.Serve(ctx)

	sets, instances := engine.Live()
	logger.Info("receiver stopped",
		zap.Int("calls", len(engine.Calls())),
		zap.Int("sets", sets),
		zap.Int("instances", instances))
	return 0
}

// hostPort strips the scheme and path from a ws:// address.
func hostPort(addr string) string {
	if !strings.Contains(addr, "://") {
		return addr
	}
	u, err := url.Parse(addr)
	if err != nil || u.Host == "" {
		return addr
	}
	return u.Host
}
