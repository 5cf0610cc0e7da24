package mapreduce

import (
	"context"

	"github.com/kbukum/graphstep/sideeffect"
)

// Pair is one emitted key/value.
type Pair[K comparable, V any] struct {
	Key   K
	Value V
}

// Emitter receives the key/value pairs produced by Map.
type Emitter[K comparable, V any] func(key K, value V)

// Job reproduces a sequential aggregation over partitioned side effects.
type Job[K comparable, V any, R any] interface {
	// SideEffectKey is the key the final result is stored under.
	SideEffectKey() string
	// Map emits the pairs held by one worker partition.
	Map(partition *sideeffect.Store, emit Emitter[K, V]) error
	// Combine collapses the values of one key within a single partition.
	Combine(key K, values []V) V
	// Reduce merges the combined values of one key across partitions.
	Reduce(key K, values []V) V
	// Result builds the final side-effect value from the reduced pairs.
	Result(pairs []Pair[K, V]) R
}

// Task is a type-erased Job, so jobs of different key and value types can be
// collected from one pipeline and submitted together.
type Task interface {
	SideEffectKey() string
	Execute(ctx context.Context, partitions []*sideeffect.Store, opts ...Option) (any, error)
}

// Erase wraps a Job as a Task.
func Erase[K comparable, V any, R any](job Job[K, V, R]) Task {
	return erased[K, V, R]{job: job}
}

type erased[K comparable, V any, R any] struct {
	job Job[K, V, R]
}

func (e erased[K, V, R]) SideEffectKey() string { return e.job.SideEffectKey() }

func (e erased[K, V, R]) Execute(ctx context.Context, partitions []*sideeffect.Store, opts ...Option) (any, error) {
	return Run(ctx, e.job, partitions, opts...)
}
