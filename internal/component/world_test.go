package component

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Faultbox/midgard-acoustics/internal/acoustics"
	"github.com/Faultbox/midgard-acoustics/internal/mesh"
	"github.com/Faultbox/midgard-acoustics/internal/network/packets"
	"github.com/Faultbox/midgard-acoustics/internal/spatial"
)

func TestWorldRunReplaysDeferredSends(t *testing.T) {
	rec := spatial.NewRecorder(spatial.WithDeferredReady())
	w := NewWorld(rec, testResolver(t), nil)

	events := make(chan Event)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, events) }()

	id := uuid.New()
	events <- func(w *World) { w.Spawn(id, wallHost(), Options{Name: "wall"}) }

	state := func() State {
		ch := make(chan State)
		events <- func(w *World) {
			g, _ := w.Get(id)
			ch <- g.State()
		}
		return <-ch
	}

	if s := state(); s != Registered {
		t.Fatalf("state before readiness = %v, want registered", s)
	}

	rec.MarkReady()
	deadline := time.Now().Add(2 * time.Second)
	for state() != SentWithInstance {
		if time.Now().After(deadline) {
			t.Fatal("deferred send never replayed")
		}
		time.Sleep(time.Millisecond)
	}

	cancel()
	<-done
	if sets, instances := rec.Live(); sets != 0 || instances != 0 {
		t.Errorf("shutdown left %d sets and %d instances", sets, instances)
	}
}

func TestWorldRemoveRoom(t *testing.T) {
	rec := spatial.NewRecorder()
	w := NewWorld(rec, testResolver(t), nil)

	w.Spawn(uuid.New(), wallHost(), Options{AddedByRoom: true})
	w.Spawn(uuid.New(), wallHost(), Options{AddedByRoom: true})
	kept := w.Spawn(uuid.New(), wallHost(), Options{})

	if n := w.RemoveRoom(); n != 2 {
		t.Errorf("RemoveRoom() = %d, want 2", n)
	}
	if c := w.Components(); len(c) != 1 || c[0] != kept {
		t.Errorf("remaining components = %v", c)
	}
	if sets, _ := rec.Live(); sets != 1 {
		t.Errorf("remote holds %d sets, want 1", sets)
	}
}

func TestWorldAddReplacesSameID(t *testing.T) {
	rec := spatial.NewRecorder()
	w := NewWorld(rec, testResolver(t), nil)

	id := uuid.New()
	first := w.Spawn(id, wallHost(), Options{})
	second := w.Spawn(id, wallHost(), Options{})

	if first.State() != Unregistered {
		t.Errorf("replaced component state = %v, want unregistered", first.State())
	}
	if g, _ := w.Get(id); g != second {
		t.Error("Get should return the new component")
	}
	if len(w.Components()) != 1 {
		t.Errorf("expected 1 component, got %d", len(w.Components()))
	}
	if !w.Remove(id) || w.Remove(id) {
		t.Error("Remove should succeed once")
	}
}

func TestWorldTextureChanged(t *testing.T) {
	rec := spatial.NewRecorder()
	r := testResolver(t)
	store := r.Store()
	w := NewWorld(rec, r, nil)

	wall := w.Spawn(uuid.New(), wallHost(), Options{Name: "wall", MeshType: mesh.TypeStaticMesh})
	box := w.Spawn(uuid.New(), wallHost(), Options{Name: "box", MeshType: mesh.TypeCollisionMesh})
	carpet, _ := store.Texture("Carpet")
	if _, ok := box.SetAcousticTextureOverride("", carpet); !ok {
		t.Fatal("collision override rejected")
	}

	refreshed := map[string]int{}
	wall.SetOnRefreshDetails(func() { refreshed["wall"]++ })
	box.SetOnRefreshDetails(func() { refreshed["box"]++ })

	rec.Reset()
	tests := []struct {
		texture string
		want    map[string]int
	}{
		{"Glass", map[string]int{"wall": 1}},
		{"Carpet", map[string]int{"wall": 1, "box": 1}},
		{"Brick", map[string]int{"wall": 2, "box": 1}},
	}

	for _, tt := range tests {
		store.AddTexture(tt.texture, [4]float32{90, 90, 90, 90})
		if !reflect.DeepEqual(refreshed, tt.want) {
			t.Errorf("after %s changed: refreshed %v, want %v", tt.texture, refreshed, tt.want)
		}
	}
	if calls := rec.Calls(); len(calls) != 0 {
		t.Errorf("texture changes made engine calls: %v", calls)
	}

	steel := &acoustics.Texture{Name: "Steel", ID: acoustics.ShortID("Steel")}
	if n := w.TextureChanged(steel); n != 0 {
		t.Errorf("unused texture affected %d components", n)
	}
}

// reconnectingEngine is a recorder whose connection can be bounced.
type reconnectingEngine struct {
	*spatial.Recorder
	reconnected chan struct{}
}

func (e *reconnectingEngine) Reconnected() <-chan struct{} { return e.reconnected }

func TestWorldRunResendsAfterReconnect(t *testing.T) {
	engine := &reconnectingEngine{Recorder: spatial.NewRecorder(), reconnected: make(chan struct{}, 1)}
	w := NewWorld(engine, testResolver(t), nil)

	events := make(chan Event)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, events) }()
	defer func() {
		cancel()
		<-done
	}()

	sent := uuid.New()
	failed := uuid.New()
	events <- func(w *World) {
		w.Spawn(sent, wallHost(), Options{Name: "sent", MeshType: mesh.TypeStaticMesh})
		// The engine drops this one's upload.
		engine.FailNext(packets.AddOrUpdateGeometrySet, errors.New("connection reset"))
		w.Spawn(failed, wallHost(), Options{Name: "failed", MeshType: mesh.TypeStaticMesh})
	}

	states := func() (State, State) {
		ch := make(chan [2]State)
		events <- func(w *World) {
			a, _ := w.Get(sent)
			b, _ := w.Get(failed)
			ch <- [2]State{a.State(), b.State()}
		}
		s := <-ch
		return s[0], s[1]
	}
	if a, b := states(); a != SentWithInstance || b != Registered {
		t.Fatalf("states before reconnect = %v, %v", a, b)
	}

	engine.Reset()
	engine.reconnected <- struct{}{}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if a, b := states(); a == SentWithInstance && b == SentWithInstance {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("components not resent after reconnect")
		}
		time.Sleep(time.Millisecond)
	}

	want := []uint16{
		packets.AddOrUpdateGeometrySet, packets.AddOrUpdateGeometryInstance,
		packets.AddOrUpdateGeometrySet, packets.AddOrUpdateGeometryInstance,
	}
	if got := engine.Ops(); !reflect.DeepEqual(got, want) {
		t.Errorf("ops after reconnect = %v", engine.Calls())
	}
	if sets, instances := engine.Live(); sets != 2 || instances != 2 {
		t.Errorf("remote holds %d sets and %d instances, want 2 and 2", sets, instances)
	}
}
