package traversal

import (
	"context"

	apperrors "github.com/kbukum/graphstep/errors"
	"github.com/kbukum/graphstep/traverser"
)

// LambdaKind tags how a Lambda computes its result.
type LambdaKind int

const (
	// PlainLambda is backed by a Go function.
	PlainLambda LambdaKind = iota
	// TraversalLambda is backed by a nested traversal.
	TraversalLambda
)

func (k LambdaKind) String() string {
	if k == TraversalLambda {
		return "traversal"
	}
	return "plain"
}

// Func computes a value from a traverser.
type Func[R any] func(ctx context.Context, t *traverser.Traverser) (R, error)

// Duplicator is a function with mutable internal state. Duplicate must return
// a fully independent copy.
type Duplicator[R any] interface {
	Apply(ctx context.Context, t *traverser.Traverser) (R, error)
	Duplicate() (Duplicator[R], error)
}

// Lambda is a classification or transformation function used by steps.
type Lambda[R any] struct {
	kind      LambdaKind
	fn        Func[R]
	stateful  Duplicator[R]
	traversal *Traversal
}

// NewLambda wraps a stateless function. Copies of the Lambda share fn.
func NewLambda[R any](fn Func[R]) *Lambda[R] {
	return &Lambda[R]{kind: PlainLambda, fn: fn}
}

// NewStatefulLambda wraps a function with internal state. A Duplicator that
// also exposes LocalTraversal is treated as traversal-backed.
func NewStatefulLambda[R any](d Duplicator[R]) *Lambda[R] {
	l := &Lambda[R]{kind: PlainLambda, stateful: d}
	if lt, ok := d.(interface{ LocalTraversal() *Traversal }); ok && lt.LocalTraversal() != nil {
		l.kind = TraversalLambda
		l.traversal = lt.LocalTraversal()
	}
	return l
}

// NewTraversalLambda computes its result as the first output of t.
func NewTraversalLambda[R any](t *Traversal) *Lambda[R] {
	return &Lambda[R]{kind: TraversalLambda, traversal: t}
}

// Identity returns the traverser payload as an R.
func Identity[R any]() *Lambda[R] {
	return NewLambda(func(_ context.Context, t *traverser.Traverser) (R, error) {
		return traverser.Value[R](t)
	})
}

// Kind returns the capability tag.
func (l *Lambda[R]) Kind() LambdaKind { return l.kind }

// Apply evaluates the function for t. A traversal-backed lambda is reset and
// fed an independent split of t; producing no output is an error.
func (l *Lambda[R]) Apply(ctx context.Context, t *traverser.Traverser) (R, error) {
	var zero R
	switch {
	case l.stateful != nil:
		return l.stateful.Apply(ctx, t)
	case l.kind == TraversalLambda:
		l.traversal.Reset()
		l.traversal.AddStart(t.Split())
		out, err := l.traversal.Next(ctx)
		if apperrors.IsExhausted(err) {
			return zero, apperrors.InvalidInput("lambda", "traversal produced no result")
		}
		if err != nil {
			return zero, err
		}
		v, ok := out.Get().(R)
		if !ok {
			return zero, apperrors.TypeMismatch("traversal lambda result", zero, out.Get())
		}
		return v, nil
	case l.fn != nil:
		return l.fn(ctx, t)
	default:
		return traverser.Value[R](t)
	}
}

// Duplicate returns an independent copy for a new execution context.
func (l *Lambda[R]) Duplicate() (*Lambda[R], error) {
	switch {
	case l.stateful != nil:
		d, err := l.stateful.Duplicate()
		if err != nil {
			return nil, apperrors.CloneFailure("stateful lambda", err)
		}
		if d == nil {
			return nil, apperrors.CloneFailure("stateful lambda", nil)
		}
		return NewStatefulLambda(d), nil
	case l.kind == TraversalLambda:
		t, err := l.traversal.Clone()
		if err != nil {
			return nil, apperrors.CloneFailure("traversal lambda", err)
		}
		return NewTraversalLambda[R](t), nil
	default:
		c := *l
		return &c, nil
	}
}

// LocalTraversal returns the backing traversal, or nil for a plain lambda.
func (l *Lambda[R]) LocalTraversal() *Traversal { return l.traversal }

// LocalChildren returns the backing traversal as a slice.
func (l *Lambda[R]) LocalChildren() []*Traversal {
	if l.traversal == nil {
		return nil
	}
	return []*Traversal{l.traversal}
}

// Reset discards progress of the backing traversal.
func (l *Lambda[R]) Reset() {
	if l.traversal != nil {
		l.traversal.Reset()
	}
}

// Requirements returns the needs of the backing traversal.
func (l *Lambda[R]) Requirements() traverser.Requirements {
	if l.traversal == nil {
		return traverser.NewRequirements()
	}
	return l.traversal.Requirements().Add(traverser.LocalTraversal)
}

// Compose returns a Lambda applying fn to the result of l. The result keeps
// the kind and backing traversal of l.
func Compose[R, S any](l *Lambda[R], fn func(R) S) *Lambda[S] {
	return NewStatefulLambda[S](composed[R, S]{inner: l, fn: fn})
}

type composed[R, S any] struct {
	inner *Lambda[R]
	fn    func(R) S
}

func (c composed[R, S]) Apply(ctx context.Context, t *traverser.Traverser) (S, error) {
	r, err := c.inner.Apply(ctx, t)
	if err != nil {
		var zero S
		return zero, err
	}
	return c.fn(r), nil
}

func (c composed[R, S]) Duplicate() (Duplicator[S], error) {
	inner, err := c.inner.Duplicate()
	if err != nil {
		return nil, err
	}
	return composed[R, S]{inner: inner, fn: c.fn}, nil
}

func (c composed[R, S]) LocalTraversal() *Traversal { return c.inner.LocalTraversal() }
