package traversal

import (
	"context"

	apperrors "github.com/kbukum/graphstep/errors"
	"github.com/kbukum/graphstep/traverser"
)

// ForEach pulls every output of t and calls fn for it. Iteration stops at the
// first error returned by t or fn.
func (t *Traversal) ForEach(ctx context.Context, fn func(*traverser.Traverser) error) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		tr, err := t.Next(ctx)
		if apperrors.IsExhausted(err) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(tr); err != nil {
			return err
		}
	}
}

// Collect drains t into a slice of traversers.
func (t *Traversal) Collect(ctx context.Context) ([]*traverser.Traverser, error) {
	var out []*traverser.Traverser
	err := t.ForEach(ctx, func(tr *traverser.Traverser) error {
		out = append(out, tr)
		return nil
	})
	return out, err
}

// Values drains t into a slice of payloads, one entry per traverser.
func (t *Traversal) Values(ctx context.Context) ([]any, error) {
	ts, err := t.Collect(ctx)
	if err != nil {
		return nil, err
	}
	return traverser.Values(ts), nil
}

// Iterate drains t for its side effects and returns the number of outputs.
func (t *Traversal) Iterate(ctx context.Context) (int, error) {
	n := 0
	err := t.ForEach(ctx, func(*traverser.Traverser) error {
		n++
		return nil
	})
	return n, err
}
