package computer

import (
	"context"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/kbukum/graphstep/config"
	apperrors "github.com/kbukum/graphstep/errors"
	"github.com/kbukum/graphstep/logger"
	"github.com/kbukum/graphstep/mapreduce"
	"github.com/kbukum/graphstep/observability"
	"github.com/kbukum/graphstep/sideeffect"
	"github.com/kbukum/graphstep/traversal"
	"github.com/kbukum/graphstep/traverser"
)

// Executor runs traversals in computer mode.
type Executor struct {
	workers       int
	maxSupersteps int
	capabilities  traverser.Requirements
	log           *logger.Logger
	metrics       *observability.TraversalMetrics
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger. Defaults to logger.Get(logger.ComponentComputer).
func WithLogger(l *logger.Logger) Option {
	return func(e *Executor) { e.log = l }
}

// WithMetrics sets the metric instruments. Nil disables metrics.
func WithMetrics(m *observability.TraversalMetrics) Option {
	return func(e *Executor) { e.metrics = m }
}

// New creates an executor from cfg. Unset fields take their defaults.
func New(cfg config.EngineConfig, opts ...Option) (*Executor, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Executor{
		workers:       cfg.Workers,
		maxSupersteps: cfg.MaxSupersteps,
		capabilities:  cfg.Requirements(),
		log:           logger.Get(logger.ComponentComputer),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Engine returns the engine traversals are prepared for.
func (e *Executor) Engine() traversal.Engine {
	return traversal.Engine{Mode: traversal.ComputerMode, Capabilities: e.capabilities}
}

// Workers returns the size of the worker pool.
func (e *Executor) Workers() int { return e.workers }

// Result is the outcome of a computer-mode run.
type Result struct {
	// Traversers are the halted traversers.
	Traversers []*traverser.Traverser
	// SideEffects holds the reduced side effects.
	SideEffects *sideeffect.Store
	// Supersteps is the number of supersteps executed.
	Supersteps int
}

// Values returns the payloads of the halted traversers.
func (r *Result) Values() []any { return traverser.Values(r.Traversers) }

type worker struct {
	index     int
	traversal *traversal.Traversal
	steps     map[string]traversal.Step
}

// Submit runs t to completion. Seeds of a leading start step and the given
// starts enter at the first step; a start that already carries a location
// enters there. The submitted traversal is left untouched: it is cloned
// into a plan prepared for computer mode, and workers run on clones of the
// plan.
func (e *Executor) Submit(ctx context.Context, t *traversal.Traversal, starts ...*traverser.Traverser) (res *Result, err error) {
	op := observability.NewOperation("graphstep", "submit", traversal.ComputerMode.String(), e.workers, e.metrics)
	ctx, span := op.Start(ctx, observability.SpanSubmit)
	defer func() {
		if err != nil {
			e.log.WithError(err).Error("traversal failed")
		}
		op.End(ctx, span, err)
	}()

	if t.StartStep() == nil {
		return nil, apperrors.Configuration("cannot submit an empty traversal")
	}
	engine := e.Engine()
	plan, err := t.Clone()
	if err != nil {
		return nil, err
	}
	if err := plan.Prepare(engine); err != nil {
		return nil, err
	}

	workers, err := e.spawn(plan, engine)
	if err != nil {
		return nil, err
	}
	next := routes(plan)
	active := seed(plan, starts)
	e.log.Debug("traversal submitted", logger.Fields(
		logger.FieldMode, traversal.ComputerMode.String(),
		logger.FieldCount, len(active),
		logger.FieldWorker, e.workers,
	))

	var halted []*traverser.Traverser
	superstep := 0
	for len(active) > 0 {
		if superstep >= e.maxSupersteps {
			return nil, apperrors.Configuration(fmt.Sprintf("traversal did not halt within %d supersteps", e.maxSupersteps))
		}
		out, err := e.superstep(ctx, superstep, workers, next, active)
		if err != nil {
			return nil, err
		}
		active = nil
		for _, tr := range out {
			if tr.Halted() {
				halted = append(halted, tr)
			} else {
				active = append(active, tr)
			}
		}
		superstep++
	}

	store := plan.SideEffects()
	if err := e.reduce(ctx, plan, workers, store); err != nil {
		return nil, err
	}
	for _, tr := range halted {
		tr.SetSideEffects(store)
	}

	e.log.Info("traversal halted", logger.Fields(
		logger.FieldSuperstep, superstep,
		logger.FieldCount, len(halted),
		logger.FieldDuration, op.Duration().Milliseconds(),
	))
	return &Result{Traversers: halted, SideEffects: store, Supersteps: superstep}, nil
}

// spawn clones t once per worker. Routable steps of a clone are unlinked
// from their upstream so that a step only ever sees what it is handed.
func (e *Executor) spawn(t *traversal.Traversal, engine traversal.Engine) ([]*worker, error) {
	workers := make([]*worker, e.workers)
	for i := range workers {
		c, err := t.Clone()
		if err != nil {
			return nil, err
		}
		if err := c.Prepare(engine); err != nil {
			return nil, err
		}
		w := &worker{index: i, traversal: c, steps: make(map[string]traversal.Step)}
		for _, s := range routable(c) {
			s.SetPrevious(nil)
			w.steps[s.ID()] = s
		}
		workers[i] = w
	}
	return workers, nil
}

func seed(t *traversal.Traversal, starts []*traverser.Traverser) []*traverser.Traverser {
	first := t.StartStep()
	var out []*traverser.Traverser
	if s, ok := first.(*traversal.StartStep); ok {
		out = append(out, s.Seeds()...)
	}
	out = append(out, starts...)
	for _, tr := range out {
		if tr.Location() == "" {
			tr.SetLocation(first.ID())
		}
	}
	return out
}

// assign picks the worker for a traverser by payload hash.
func assign(tr *traverser.Traverser, workers int) int {
	return int(xxhash.Sum64String(fmt.Sprintf("%T:%v", tr.Get(), tr.Get())) % uint64(workers))
}

func (e *Executor) superstep(ctx context.Context, n int, workers []*worker, next map[string]string, active []*traverser.Traverser) ([]*traverser.Traverser, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanSuperstep)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrSuperstep, n)
	observability.SetSpanAttribute(ctx, observability.AttrTraversers, len(active))
	start := time.Now()

	buckets := make([][]*traverser.Traverser, len(workers))
	for _, tr := range active {
		i := assign(tr, len(workers))
		buckets[i] = append(buckets[i], tr)
	}

	outs := make([][]*traverser.Traverser, len(workers))
	g, gctx := errgroup.WithContext(ctx)
	for i, w := range workers {
		if len(buckets[i]) == 0 {
			continue
		}
		g.Go(func() error {
			out, err := w.run(gctx, buckets[i], next)
			if err != nil {
				return err
			}
			outs[i] = out
			e.metrics.RecordProcessed(gctx, i, int64(len(buckets[i])))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		observability.SetSpanError(ctx, err)
		return nil, err
	}

	var merged []*traverser.Traverser
	for _, out := range outs {
		merged = append(merged, out...)
	}
	d := time.Since(start)
	e.metrics.RecordSuperstep(ctx, n, d)
	e.log.Debug("superstep complete", logger.Fields(
		logger.FieldSuperstep, n,
		logger.FieldCount, len(merged),
		logger.FieldDuration, d.Milliseconds(),
	))
	return merged, nil
}

// run applies the step at each traverser's location. Outputs the step left
// in place advance to the next step; outputs it relocated keep their
// location.
func (w *worker) run(ctx context.Context, in []*traverser.Traverser, next map[string]string) ([]*traverser.Traverser, error) {
	store := w.traversal.SideEffects()
	var out []*traverser.Traverser
	for _, tr := range in {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		loc := tr.Location()
		step, ok := w.steps[loc]
		if !ok {
			return nil, apperrors.RoutingMismatch(loc)
		}
		tr.SetSideEffects(store)
		results, err := traversal.ExecuteStep(ctx, step, tr)
		if err != nil {
			return nil, err
		}
		for _, r := range results {
			if r.Location() == loc {
				r.SetLocation(next[loc])
			}
			out = append(out, r)
		}
	}
	return out, nil
}

// reduce merges the worker partitions of every side effect declared with a
// map/reduce job into store, including jobs of steps inside local children.
func (e *Executor) reduce(ctx context.Context, t *traversal.Traversal, workers []*worker, store *sideeffect.Store) error {
	partitions := make([]*sideeffect.Store, len(workers))
	for i, w := range workers {
		partitions[i] = w.traversal.SideEffects()
	}
	for _, task := range reducers(t) {
		key := task.SideEffectKey()
		start := time.Now()

		sctx, span := observability.StartSpan(ctx, observability.SpanMapReduce)
		observability.SetSpanAttribute(sctx, observability.AttrSideEffect, key)
		v, err := task.Execute(sctx, partitions, mapreduce.WithWorkers(e.workers))
		if err != nil {
			observability.SetSpanError(sctx, err)
			span.End()
			return err
		}
		span.End()

		store.Set(key, v)
		e.metrics.RecordMapReduce(ctx, key, time.Since(start))
		e.log.Debug("side effect reduced", logger.Fields(logger.FieldSideEffect, key))
	}
	return nil
}
