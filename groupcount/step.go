package groupcount

import (
	"context"

	apperrors "github.com/kbukum/graphstep/errors"
	"github.com/kbukum/graphstep/mapreduce"
	"github.com/kbukum/graphstep/sideeffect"
	"github.com/kbukum/graphstep/traversal"
	"github.com/kbukum/graphstep/traverser"
)

// Step counts traversers per key into a map[K]int64 side effect.
type Step[K comparable] struct {
	traversal.Base
	key string
	fn  *traversal.Lambda[K]
}

// New creates a group count step. An empty key stores the counts under the
// step ID; a nil fn classifies by payload.
func New[K comparable](key string, fn *traversal.Lambda[K]) *Step[K] {
	if fn == nil {
		fn = traversal.Identity[K]()
	}
	return &Step[K]{Base: traversal.NewBase(), key: key, fn: fn}
}

// SideEffectKey returns the key the counts are stored under.
func (s *Step[K]) SideEffectKey() string {
	if s.key == "" {
		return s.ID()
	}
	return s.key
}

// RegisterSideEffects registers an empty count map if none exists.
func (s *Step[K]) RegisterSideEffects(store *sideeffect.Store) {
	store.RegisterSupplierIfAbsent(s.SideEffectKey(), func() any {
		return make(map[K]int64)
	})
}

func (s *Step[K]) HasNext(ctx context.Context) (bool, error) { return s.Peek(ctx, s.produce) }

func (s *Step[K]) Next(ctx context.Context) (*traverser.Traverser, error) {
	return s.Pull(ctx, s.produce)
}

func (s *Step[K]) produce(ctx context.Context) (*traverser.Traverser, error) {
	start, err := s.Starts().Next(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.count(ctx, start); err != nil {
		return nil, err
	}
	return start, nil
}

// Execute counts one traverser and passes it through.
func (s *Step[K]) Execute(ctx context.Context, start *traverser.Traverser) ([]*traverser.Traverser, error) {
	if err := s.count(ctx, start); err != nil {
		return nil, err
	}
	return []*traverser.Traverser{start}, nil
}

func (s *Step[K]) count(ctx context.Context, t *traverser.Traverser) error {
	k, err := s.fn.Apply(ctx, t)
	if err != nil {
		return err
	}
	store := t.SideEffects()
	if store == nil && s.Traversal() != nil {
		store = s.Traversal().SideEffects()
	}
	if store == nil {
		return apperrors.Configuration("group count step " + s.ID() + ": no side-effect store")
	}
	s.RegisterSideEffects(store)
	counts, err := Counts[K](store, s.SideEffectKey())
	if err != nil {
		return err
	}
	counts[k] += t.Bulk()
	return nil
}

func (s *Step[K]) Reset() {
	s.Base.Reset()
	s.fn.Reset()
}

func (s *Step[K]) Clone() (traversal.Step, error) {
	fn, err := s.fn.Duplicate()
	if err != nil {
		return nil, err
	}
	return &Step[K]{Base: s.Fresh(), key: s.key, fn: fn}, nil
}

func (s *Step[K]) Requirements() traverser.Requirements {
	return s.fn.Requirements().Add(traverser.Bulk, traverser.SideEffects)
}

func (s *Step[K]) GlobalChildren() []*traversal.Traversal { return nil }
func (s *Step[K]) LocalChildren() []*traversal.Traversal  { return s.fn.LocalChildren() }

// MapReduce returns the job merging worker partitions of the counts.
func (s *Step[K]) MapReduce() mapreduce.Task {
	return mapreduce.Erase[K, int64, map[K]int64](Job[K]{Key: s.SideEffectKey()})
}

// Counts reads the count map stored under key.
func Counts[K comparable](store *sideeffect.Store, key string) (map[K]int64, error) {
	v, err := store.Get(key)
	if err != nil {
		return nil, err
	}
	counts, ok := v.(map[K]int64)
	if !ok {
		return nil, apperrors.TypeMismatch("side effect "+key, map[K]int64(nil), v)
	}
	return counts, nil
}
