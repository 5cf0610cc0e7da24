package mapreduce

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/kbukum/graphstep/sideeffect"
)

type options struct {
	workers int
}

// Option configures Run.
type Option func(*options)

// WithWorkers bounds the number of partitions mapped concurrently (0 = unlimited).
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// grouped collects values per key, remembering first-seen key order.
type grouped[K comparable, V any] struct {
	keys   []K
	values map[K][]V
}

func newGrouped[K comparable, V any]() *grouped[K, V] {
	return &grouped[K, V]{values: make(map[K][]V)}
}

func (g *grouped[K, V]) add(key K, value V) {
	if _, ok := g.values[key]; !ok {
		g.keys = append(g.keys, key)
	}
	g.values[key] = append(g.values[key], value)
}

// Run executes job over the partitions: map and combine per partition
// concurrently, then reduce across partitions in partition order.
func Run[K comparable, V any, R any](ctx context.Context, job Job[K, V, R], partitions []*sideeffect.Store, opts ...Option) (R, error) {
	var zero R
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	combined := make([][]Pair[K, V], len(partitions))
	g, gctx := errgroup.WithContext(ctx)
	if o.workers > 0 {
		g.SetLimit(o.workers)
	}
	for i, partition := range partitions {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			local := newGrouped[K, V]()
			if err := job.Map(partition, local.add); err != nil {
				return err
			}
			pairs := make([]Pair[K, V], 0, len(local.keys))
			for _, key := range local.keys {
				pairs = append(pairs, Pair[K, V]{Key: key, Value: job.Combine(key, local.values[key])})
			}
			combined[i] = pairs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return zero, err
	}

	global := newGrouped[K, V]()
	for _, pairs := range combined {
		for _, p := range pairs {
			global.add(p.Key, p.Value)
		}
	}
	reduced := make([]Pair[K, V], 0, len(global.keys))
	for _, key := range global.keys {
		reduced = append(reduced, Pair[K, V]{Key: key, Value: job.Reduce(key, global.values[key])})
	}
	return job.Result(reduced), nil
}
