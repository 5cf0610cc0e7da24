package traversal

import (
	"context"

	apperrors "github.com/kbukum/graphstep/errors"
	"github.com/kbukum/graphstep/traverser"
)

// StartStep injects seed values at the head of a traversal.
type StartStep struct {
	Base
	seeds  []any
	seeded bool
}

// NewStart creates a start step seeded with values, each with bulk 1.
func NewStart(values ...any) *StartStep {
	return &StartStep{Base: NewBase(), seeds: values}
}

// Seeds returns fresh traversers for the seed values.
func (s *StartStep) Seeds() []*traverser.Traverser {
	out := make([]*traverser.Traverser, len(s.seeds))
	for i, v := range s.seeds {
		out[i] = traverser.New(v, 1)
	}
	return out
}

func (s *StartStep) produce(ctx context.Context) (*traverser.Traverser, error) {
	if !s.seeded {
		s.seeded = true
		for _, t := range s.Seeds() {
			if s.traversal != nil {
				t.SetSideEffects(s.traversal.SideEffects())
			}
			s.starts.Add(t)
		}
	}
	return s.starts.Next(ctx)
}

func (s *StartStep) HasNext(ctx context.Context) (bool, error) { return s.Peek(ctx, s.produce) }

func (s *StartStep) Next(ctx context.Context) (*traverser.Traverser, error) {
	return s.Pull(ctx, s.produce)
}

// Execute passes the traverser through; seeds are injected by the runtime.
func (s *StartStep) Execute(_ context.Context, start *traverser.Traverser) ([]*traverser.Traverser, error) {
	return []*traverser.Traverser{start}, nil
}

func (s *StartStep) Reset() {
	s.Base.Reset()
	s.seeded = false
}

func (s *StartStep) Clone() (Step, error) {
	return &StartStep{Base: s.Fresh(), seeds: append([]any(nil), s.seeds...)}, nil
}

func (s *StartStep) Requirements() traverser.Requirements { return traverser.NewRequirements() }

// IdentityStep passes every traverser through unchanged.
type IdentityStep struct {
	Base
}

// NewIdentity creates an identity step.
func NewIdentity() *IdentityStep {
	return &IdentityStep{Base: NewBase()}
}

func (s *IdentityStep) HasNext(ctx context.Context) (bool, error) {
	return s.Peek(ctx, s.starts.Next)
}

func (s *IdentityStep) Next(ctx context.Context) (*traverser.Traverser, error) {
	return s.Pull(ctx, s.starts.Next)
}

func (s *IdentityStep) Clone() (Step, error) { return &IdentityStep{Base: s.Fresh()}, nil }

func (s *IdentityStep) Requirements() traverser.Requirements { return traverser.NewRequirements() }

// EndStep marks the exit of a child traversal. It passes traversers through.
type EndStep struct {
	IdentityStep
}

// NewEnd creates an end step.
func NewEnd() *EndStep {
	return &EndStep{IdentityStep: IdentityStep{Base: NewBase()}}
}

func (s *EndStep) Clone() (Step, error) {
	return &EndStep{IdentityStep: IdentityStep{Base: s.Fresh()}}, nil
}

// MapStep replaces each payload with the result of a function.
type MapStep struct {
	Base
	fn *Lambda[any]
}

// NewMap creates a map step from a plain function.
func NewMap(fn Func[any]) *MapStep {
	return NewMapLambda(NewLambda(fn))
}

// NewMapLambda creates a map step from any Lambda.
func NewMapLambda(fn *Lambda[any]) *MapStep {
	return &MapStep{Base: NewBase(), fn: fn}
}

func (s *MapStep) produce(ctx context.Context) (*traverser.Traverser, error) {
	start, err := s.starts.Next(ctx)
	if err != nil {
		return nil, err
	}
	v, err := s.fn.Apply(ctx, start)
	if err != nil {
		return nil, err
	}
	return start.SplitWith(v), nil
}

func (s *MapStep) HasNext(ctx context.Context) (bool, error) { return s.Peek(ctx, s.produce) }

func (s *MapStep) Next(ctx context.Context) (*traverser.Traverser, error) {
	return s.Pull(ctx, s.produce)
}

func (s *MapStep) Reset() {
	s.Base.Reset()
	s.fn.Reset()
}

func (s *MapStep) Clone() (Step, error) {
	fn, err := s.fn.Duplicate()
	if err != nil {
		return nil, err
	}
	return &MapStep{Base: s.Fresh(), fn: fn}, nil
}

func (s *MapStep) Requirements() traverser.Requirements {
	return s.fn.Requirements().Add(traverser.Object)
}

func (s *MapStep) GlobalChildren() []*Traversal { return nil }
func (s *MapStep) LocalChildren() []*Traversal  { return s.fn.LocalChildren() }

// FilterStep keeps traversers for which a predicate holds.
type FilterStep struct {
	Base
	predicate *Lambda[bool]
}

// NewFilter creates a filter step from a plain predicate.
func NewFilter(predicate Func[bool]) *FilterStep {
	return NewFilterLambda(NewLambda(predicate))
}

// NewFilterLambda creates a filter step from any Lambda.
func NewFilterLambda(predicate *Lambda[bool]) *FilterStep {
	return &FilterStep{Base: NewBase(), predicate: predicate}
}

func (s *FilterStep) produce(ctx context.Context) (*traverser.Traverser, error) {
	for {
		start, err := s.starts.Next(ctx)
		if err != nil {
			return nil, err
		}
		keep, err := s.predicate.Apply(ctx, start)
		if err != nil {
			return nil, err
		}
		if keep {
			return start, nil
		}
	}
}

func (s *FilterStep) HasNext(ctx context.Context) (bool, error) { return s.Peek(ctx, s.produce) }

func (s *FilterStep) Next(ctx context.Context) (*traverser.Traverser, error) {
	return s.Pull(ctx, s.produce)
}

func (s *FilterStep) Reset() {
	s.Base.Reset()
	s.predicate.Reset()
}

func (s *FilterStep) Clone() (Step, error) {
	p, err := s.predicate.Duplicate()
	if err != nil {
		return nil, err
	}
	return &FilterStep{Base: s.Fresh(), predicate: p}, nil
}

func (s *FilterStep) Requirements() traverser.Requirements {
	return s.predicate.Requirements().Add(traverser.Object)
}

func (s *FilterStep) GlobalChildren() []*Traversal { return nil }
func (s *FilterStep) LocalChildren() []*Traversal  { return s.predicate.LocalChildren() }

// ExecuteStep runs the single-shot transform of step for one traverser. Steps
// without a dedicated transform are fed the traverser and drained.
func ExecuteStep(ctx context.Context, step Step, start *traverser.Traverser) ([]*traverser.Traverser, error) {
	if e, ok := step.(Executable); ok {
		return e.Execute(ctx, start)
	}
	step.AddStart(start)
	var out []*traverser.Traverser
	for {
		t, err := step.Next(ctx)
		if apperrors.IsExhausted(err) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, t)
	}
}
