package spatial

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-acoustics/internal/network/packets"
)

// Call is one recorded engine call.
type Call struct {
	Op       uint16 // packets op code
	ID       uuid.UUID
	Set      *GeometrySet
	Instance *GeometryInstance
	Surfaces []SurfaceParams
	Err      error
}

func (c Call) String() string {
	return fmt.Sprintf("%s(%s)", packets.OpName(c.Op), c.ID)
}

// Recorder is an in-memory Engine. It records every call, tracks which
// sets and instances are live, and can be told to fail calls. It is the
// dry-run engine of the CLI and the fake engine of tests.
type Recorder struct {
	mu        sync.Mutex
	calls     []Call
	sets      map[uuid.UUID]GeometrySet
	instances map[uuid.UUID]GeometryInstance
	failures  map[uint16][]error
	ready     chan struct{}
	readyOnce sync.Once
	log       *zap.Logger
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithDeferredReady keeps the recorder not ready until MarkReady.
func WithDeferredReady() RecorderOption {
	return func(r *Recorder) { r.ready = make(chan struct{}) }
}

// WithRecorderLogger logs each call at info level.
func WithRecorderLogger(log *zap.Logger) RecorderOption {
	return func(r *Recorder) { r.log = log }
}

// NewRecorder creates a recorder that is ready immediately unless
// WithDeferredReady is given.
func NewRecorder(opts ...RecorderOption) *Recorder {
	r := &Recorder{
		sets:      make(map[uuid.UUID]GeometrySet),
		instances: make(map[uuid.UUID]GeometryInstance),
		failures:  make(map[uint16][]error),
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.ready == nil {
		r.MarkReady()
	}
	return r
}

func (r *Recorder) readyChan() chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ready == nil {
		r.ready = make(chan struct{})
	}
	return r.ready
}

// Ready implements Readiness.
func (r *Recorder) Ready() <-chan struct{} {
	return r.readyChan()
}

// MarkReady closes the ready channel.
func (r *Recorder) MarkReady() {
	ch := r.readyChan()
	r.readyOnce.Do(func() { close(ch) })
}

// FailNext makes the next call with the given op fail with err.
func (r *Recorder) FailNext(op uint16, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[op] = append(r.failures[op], err)
}

// record appends c and applies it unless a failure is queued for its op.
func (r *Recorder) record(c Call, apply func()) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if q := r.failures[c.Op]; len(q) > 0 {
		c.Err = q[0]
		r.failures[c.Op] = q[1:]
	} else {
		apply()
	}
	r.calls = append(r.calls, c)

	fields := []zap.Field{zap.String("op", packets.OpName(c.Op)), zap.Stringer("id", c.ID)}
	if c.Set != nil {
		fields = append(fields,
			zap.Int("vertices", len(c.Set.Vertices)),
			zap.Int("triangles", len(c.Set.Triangles)),
			zap.Int("surfaces", len(c.Set.Surfaces)))
	}
	if c.Err != nil {
		fields = append(fields, zap.Error(c.Err))
	}
	r.log.Info("engine call", fields...)
	return c.Err
}

// AddOrUpdateGeometrySet implements Engine.
func (r *Recorder) AddOrUpdateGeometrySet(set GeometrySet) error {
	return r.record(Call{Op: packets.AddOrUpdateGeometrySet, ID: set.ID, Set: &set}, func() {
		r.sets[set.ID] = set
	})
}

// AddOrUpdateGeometryInstance implements Engine.
func (r *Recorder) AddOrUpdateGeometryInstance(inst GeometryInstance) error {
	return r.record(Call{Op: packets.AddOrUpdateGeometryInstance, ID: inst.ID, Instance: &inst}, func() {
		r.instances[inst.ID] = inst
	})
}

// RemoveGeometryInstance implements Engine.
func (r *Recorder) RemoveGeometryInstance(id uuid.UUID) error {
	return r.record(Call{Op: packets.RemoveGeometryInstance, ID: id}, func() {
		delete(r.instances, id)
	})
}

// RemoveGeometrySet implements Engine.
func (r *Recorder) RemoveGeometrySet(id uuid.UUID) error {
	return r.record(Call{Op: packets.RemoveGeometrySet, ID: id}, func() {
		delete(r.sets, id)
	})
}

// Calls returns every recorded call, failed ones included.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Ops returns the op codes of every recorded call.
func (r *Recorder) Ops() []uint16 {
	r.mu.Lock()
	defer r.mu.Unlock()
	ops := make([]uint16, len(r.calls))
	for i, c := range r.calls {
		ops[i] = c.Op
	}
	return ops
}

// Reset forgets recorded calls but keeps live state.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

// Set returns a live geometry set.
func (r *Recorder) Set(id uuid.UUID) (GeometrySet, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sets[id]
	return s, ok
}

// Instance returns a live instance.
func (r *Recorder) Instance(id uuid.UUID) (GeometryInstance, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.instances[id]
	return i, ok
}

// Live returns the number of live sets and instances.
func (r *Recorder) Live() (sets, instances int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sets), len(r.instances)
}

// SurfaceRecorder is a Recorder that also supports partial surface updates.
type SurfaceRecorder struct {
	*Recorder
}

// NewSurfaceRecorder creates a SurfaceRecorder.
func NewSurfaceRecorder(opts ...RecorderOption) *SurfaceRecorder {
	return &SurfaceRecorder{Recorder: NewRecorder(opts...)}
}

// UpdateGeometrySetSurfaces implements SurfaceUpdater.
func (r *SurfaceRecorder) UpdateGeometrySetSurfaces(set uuid.UUID, surfaces []SurfaceParams) error {
	return r.record(Call{Op: packets.UpdateGeometrySetSurfaces, ID: set, Surfaces: surfaces}, func() {
		if s, ok := r.sets[set]; ok {
			s.Surfaces = surfaces
			r.sets[set] = s
		}
	})
}
