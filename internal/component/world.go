package component

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-acoustics/internal/acoustics"
	"github.com/Faultbox/midgard-acoustics/internal/spatial"
)

// Event runs on the world loop.
type Event func(w *World)

// World owns the components of a scene and runs every component call on a
// single goroutine.
type World struct {
	engine   spatial.Engine
	resolver *acoustics.Resolver
	log      *zap.Logger

	components []*Geometry
	byID       map[uuid.UUID]*Geometry
}

// NewWorld creates an empty world.
func NewWorld(engine spatial.Engine, resolver *acoustics.Resolver, log *zap.Logger) *World {
	if log == nil {
		log = zap.NewNop()
	}
	w := &World{
		engine:   engine,
		resolver: resolver,
		log:      log,
		byID:     make(map[uuid.UUID]*Geometry),
	}
	if resolver != nil {
		resolver.Store().OnTextureChanged(func(t *acoustics.Texture) { w.TextureChanged(t) })
	}
	return w
}

// Engine returns the spatial audio engine.
func (w *World) Engine() spatial.Engine { return w.engine }

// Resolver returns the acoustic property resolver.
func (w *World) Resolver() *acoustics.Resolver { return w.resolver }

// Spawn creates a component for host and registers it.
func (w *World) Spawn(id uuid.UUID, host Host, opts Options) *Geometry {
	g := New(id, host, w.engine, w.resolver, opts, w.log)
	w.Add(g)
	return g
}

// Add registers a component. Adding an ID twice replaces the old component
// after tearing it down.
func (w *World) Add(g *Geometry) {
	if old, ok := w.byID[g.ID()]; ok {
		w.Remove(old.ID())
	}
	w.components = append(w.components, g)
	w.byID[g.ID()] = g
	g.OnRegister()
}

// Remove tears a component down. It reports whether the ID was known.
func (w *World) Remove(id uuid.UUID) bool {
	g, ok := w.byID[id]
	if !ok {
		return false
	}
	g.OnDestroyed()
	delete(w.byID, id)
	for i, c := range w.components {
		if c == g {
			w.components = append(w.components[:i], w.components[i+1:]...)
			break
		}
	}
	return true
}

// Get looks a component up.
func (w *World) Get(id uuid.UUID) (*Geometry, bool) {
	g, ok := w.byID[id]
	return g, ok
}

// Components returns the components in registration order.
func (w *World) Components() []*Geometry {
	return append([]*Geometry(nil), w.components...)
}

// RemoveRoom tears down every component synthesized by a room and returns
// how many were removed.
func (w *World) RemoveRoom() int {
	n := 0
	for _, g := range w.Components() {
		if g.Options().AddedByRoom {
			w.Remove(g.ID())
			n++
		}
	}
	return n
}

// TextureChanged notifies the components using t and returns how many
// were affected.
func (w *World) TextureChanged(t *acoustics.Texture) int {
	n := 0
	for _, g := range w.components {
		if g.OnTextureChanged(t) {
			n++
		}
	}
	w.log.Debug("texture changed", zap.String("texture", t.Name), zap.Int("components", n))
	return n
}

// NotifyReady replays deferred sends.
func (w *World) NotifyReady() {
	for _, g := range w.components {
		g.OnEngineReady()
	}
}

// Resync sends every component again after the engine reconnected.
func (w *World) Resync() {
	for _, g := range w.components {
		g.OnEngineReconnected()
	}
}

// Shutdown removes every component.
func (w *World) Shutdown() {
	for _, g := range w.Components() {
		w.Remove(g.ID())
	}
}

// Run processes events until ctx is done or events is closed, replaying
// deferred sends once the engine signals readiness and resending
// everything after it reconnects. Components are torn down on return.
func (w *World) Run(ctx context.Context, events <-chan Event) error {
	defer w.Shutdown()

	var ready, reconnected <-chan struct{}
	if r, ok := w.engine.(spatial.Readiness); ok {
		ready = r.Ready()
	}
	if r, ok := w.engine.(spatial.Reconnector); ok {
		reconnected = r.Reconnected()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ready:
			ready = nil
			w.log.Info("spatial audio engine ready", zap.Int("components", len(w.components)))
			w.NotifyReady()
		case <-reconnected:
			w.log.Info("spatial audio engine reconnected, resending", zap.Int("components", len(w.components)))
			w.Resync()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			ev(w)
		}
	}
}
