package scene

import (
	"reflect"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-acoustics/internal/component"
)

// transformTolerance absorbs float noise between reloads of the same
// document.
const transformTolerance = 1e-5

// Stats counts what Apply did.
type Stats struct {
	Added   int
	Updated int
	Removed int
}

// Syncer mirrors scene documents into a world. Objects are matched by ID
// across reloads, so an edited document only re-sends what changed.
type Syncer struct {
	world   *component.World
	objects map[uuid.UUID]*Object
	log     *zap.Logger
}

// NewSyncer creates a syncer for w.
func NewSyncer(w *component.World, log *zap.Logger) *Syncer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Syncer{
		world:   w,
		objects: make(map[uuid.UUID]*Object),
		log:     log,
	}
}

// Object returns the live host object with the given ID.
func (s *Syncer) Object(id uuid.UUID) (*Object, bool) {
	o, ok := s.objects[id]
	return o, ok
}

// Apply makes the world match sc. It must run on the world loop.
func (s *Syncer) Apply(sc *Scene) Stats {
	var st Stats
	keep := make(map[uuid.UUID]bool, len(sc.Objects))

	for _, next := range sc.Objects {
		keep[next.ID] = true
		cur, ok := s.objects[next.ID]
		g, live := s.world.Get(next.ID)
		if !ok || !live {
			s.add(next)
			st.Added++
			continue
		}
		changed := s.update(cur, next, g)
		// The physical material table may have changed under an
		// unchanged object.
		if g.ResolveSurfaces() {
			changed = true
		}
		if changed {
			st.Updated++
		}
	}

	for id := range s.objects {
		if keep[id] {
			continue
		}
		s.world.Remove(id)
		delete(s.objects, id)
		st.Removed++
	}

	s.log.Info("scene applied",
		zap.Int("added", st.Added),
		zap.Int("updated", st.Updated),
		zap.Int("removed", st.Removed))
	return st
}

func (s *Syncer) add(obj *Object) {
	g := component.New(obj.ID, obj, s.world.Engine(), s.world.Resolver(), obj.Options, s.log)
	g.SetOnRefreshDetails(func() {
		a := g.MeanAbsorption()
		s.log.Debug("details refreshed",
			zap.String("object", obj.Name),
			zap.Float32s("absorption", a[:]))
	})
	s.warnRejected(obj, g.ReplaceOverrides(obj.OverrideMap()))
	s.objects[obj.ID] = obj
	s.world.Add(g)
}

// update copies next into the live object cur and syncs what changed. A
// mesh or property change re-sends everything once with the new overrides;
// otherwise only the transform and the override diff are pushed.
func (s *Syncer) update(cur, next *Object, g *component.Geometry) bool {
	meshChanged := !reflect.DeepEqual(cur.static, next.static) || !reflect.DeepEqual(cur.collision, next.collision)
	transformChanged := !cur.transform.Equal(next.transform, transformTolerance)

	cur.Name = next.Name
	cur.Overrides = next.Overrides
	cur.Options = next.Options
	cur.transform = next.transform
	cur.static = next.static
	cur.collision = next.collision

	props := g.EditOptions(func(o *component.Options) { *o = next.Options })

	ov := g.Overrides()
	static, collision := ov.Static(), ov.Collision()

	if meshChanged || len(props) > 0 {
		s.log.Debug("object changed",
			zap.String("object", cur.Name),
			zap.Bool("mesh", meshChanged),
			zap.Strings("properties", props))
		s.warnRejected(cur, g.StageOverrides(cur.OverrideMap()))
		g.Refresh()
		return true
	}

	if transformChanged {
		g.OnUpdateTransform()
	}
	s.warnRejected(cur, g.ReplaceOverrides(cur.OverrideMap()))

	overridesChanged := !reflect.DeepEqual(static, ov.Static()) || collision != ov.Collision()
	return transformChanged || overridesChanged
}

func (s *Syncer) warnRejected(obj *Object, rejected []string) {
	if len(rejected) > 0 {
		s.log.Warn("overrides ignored", zap.String("object", obj.Name), zap.Strings("materials", rejected))
	}
}
