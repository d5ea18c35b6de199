package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-acoustics/internal/acoustics"
	"github.com/Faultbox/midgard-acoustics/internal/component"
	"github.com/Faultbox/midgard-acoustics/internal/config"
	"github.com/Faultbox/midgard-acoustics/internal/logger"
	"github.com/Faultbox/midgard-acoustics/internal/network"
	"github.com/Faultbox/midgard-acoustics/internal/scene"
	"github.com/Faultbox/midgard-acoustics/internal/spatial"
)

func cmdSync(cfg *config.Config, args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: akgeom sync <scene.yaml>")
		return 1
	}
	path := args[0]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, runEngine, err := newEngine(cfg)
	if err != nil {
		logger.Error("engine setup failed", zap.Error(err))
		return 1
	}

	// The engine outlives the world so teardown can remove remote geometry.
	engineCtx, stopEngine := context.WithCancel(context.Background())
	engineDone := make(chan struct{})
	go func() {
		defer close(engineDone)
		runEngine(engineCtx)
	}()
	defer func() {
		stopEngine()
		<-engineDone
	}()

	store := acoustics.NewStore()
	world := component.NewWorld(engine, acoustics.NewResolver(store, cfg.Acoustics.DefaultTransmissionLoss), logger.Named("world"))
	syncer := scene.NewSyncer(world, logger.Named("scene"))

	// Scenes are loaded on the world goroutine; the store is shared with
	// the resolver.
	load := func(*component.World) {
		doc, err := scene.LoadFile(path)
		if err != nil {
			logger.Warn("scene not loaded", zap.String("path", path), zap.Error(err))
			return
		}
		sc, err := doc.Build(store, cfg.Geometry, cfg.Editor.Enabled)
		if err != nil {
			logger.Warn("scene not built", zap.String("path", path), zap.Error(err))
			return
		}
		syncer.Apply(sc)
	}

	if _, err := scene.LoadFile(path); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	events := make(chan component.Event, 4)
	events <- load

	if cfg.Editor.Enabled && cfg.Editor.WatchScene {
		w, err := scene.NewWatcher(path, scene.DefaultDebounce, logger.Named("watcher"))
		if err != nil {
			logger.Error("scene watcher failed", zap.Error(err))
			return 1
		}
		go w.Run(ctx, func() {
			logger.Info("scene changed, reloading", zap.String("path", path))
			select {
			case events <- load:
			case <-ctx.Done():
			}
		})
	}

	logger.Info("syncing scene",
		zap.String("path", path),
		zap.String("transport", cfg.Engine.Transport),
		zap.String("address", cfg.Engine.Address),
		zap.Bool("editor", cfg.Editor.Enabled))

	if err := world.Run(ctx, events); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("world stopped", zap.Error(err))
		return 1
	}
	logger.Info("scene sync stopped")
	return 0
}

// newEngine returns the configured engine and the loop that keeps it
// connected.
func newEngine(cfg *config.Config) (spatial.Engine, func(context.Context), error) {
	if cfg.Engine.Transport == "dry-run" {
		rec := spatial.NewSurfaceRecorder(spatial.WithRecorderLogger(logger.Named("engine")))
		return rec, func(ctx context.Context) { <-ctx.Done() }, nil
	}

	kind, err := network.ParseKind(cfg.Engine.Transport)
	if err != nil {
		return nil, nil, err
	}
	addr, timeout := cfg.Engine.Address, cfg.Engine.ConnectTimeout
	dial := func(ctx context.Context) (network.Transport, error) {
		return network.Dial(ctx, kind, addr, timeout)
	}

	conn := spatial.NewConnector(dial, cfg.Engine.RetryInterval, cfg.Engine.CompressThreshold, logger.Named("connector"))
	return conn, func(ctx context.Context) { _ = conn.Run(ctx) }, nil
}
