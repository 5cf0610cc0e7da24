// Package traversal provides the step contract and the dual-mode execution
// base of the engine.
//
// A Traversal is an ordered pipeline of Steps. Each Step pulls traversers
// from the step before it and emits zero or more traversers downstream.
// Pipelines are lazy: no work happens until the outermost traversal is
// pulled via Next, Collect, ForEach or Iterate.
//
// Steps run under one of two models:
//
//   - StandardMode: a single-threaded lazy-pull loop.
//   - ComputerMode: a single-shot transform of exactly one input traverser,
//     driven by a bulk-synchronous runtime (see package computer).
//
// ComputerAware lets one step implement both models while keeping its routing
// logic in one place.
//
// # Usage
//
//	t := traversal.New(
//	    traversal.NewStart(1, 2, 3),
//	    traversal.NewMap(func(_ context.Context, tr *traverser.Traverser) (any, error) {
//	        return tr.Get().(int) * 2, nil
//	    }),
//	)
//	values, err := traversal.Values(ctx, t)
package traversal
