package traverser

import (
	"fmt"

	apperrors "github.com/kbukum/graphstep/errors"
	"github.com/kbukum/graphstep/sideeffect"
)

// Halt is the location of a traverser that has left the pipeline.
const Halt = "halt"

// Traverser is one logical unit of data with a multiplicity.
type Traverser struct {
	value       any
	bulk        int64
	location    string
	sideEffects *sideeffect.Store
}

// New creates a traverser. A bulk below 1 is clamped to 1.
func New(value any, bulk int64) *Traverser {
	if bulk < 1 {
		bulk = 1
	}
	return &Traverser{value: value, bulk: bulk}
}

// Get returns the payload.
func (t *Traverser) Get() any { return t.value }

// Bulk returns the number of logical copies this traverser represents.
func (t *Traverser) Bulk() int64 { return t.bulk }

// SetBulk changes the multiplicity. A bulk below 1 is clamped to 1.
func (t *Traverser) SetBulk(bulk int64) {
	if bulk < 1 {
		bulk = 1
	}
	t.bulk = bulk
}

// Location returns the ID of the step the traverser is routed to.
func (t *Traverser) Location() string { return t.location }

// SetLocation routes the traverser to the step with the given ID.
func (t *Traverser) SetLocation(stepID string) { t.location = stepID }

// Halted reports whether the traverser has left the pipeline.
func (t *Traverser) Halted() bool { return t.location == Halt }

// SideEffects returns the side-effect scope, or nil when detached.
func (t *Traverser) SideEffects() *sideeffect.Store { return t.sideEffects }

// SetSideEffects attaches the traverser to a side-effect scope.
func (t *Traverser) SetSideEffects(store *sideeffect.Store) { t.sideEffects = store }

// Split returns an independent copy carrying the same payload, bulk,
// location and side-effect scope.
func (t *Traverser) Split() *Traverser {
	clone := *t
	return &clone
}

// SplitWith returns an independent copy carrying a new payload.
func (t *Traverser) SplitWith(value any) *Traverser {
	clone := *t
	clone.value = value
	return &clone
}

func (t *Traverser) String() string {
	if t.bulk == 1 {
		return fmt.Sprintf("%v", t.value)
	}
	return fmt.Sprintf("%v[x%d]", t.value, t.bulk)
}

// Value returns the payload of t as a T.
func Value[T any](t *Traverser) (T, error) {
	v, ok := t.value.(T)
	if !ok {
		var zero T
		return zero, apperrors.TypeMismatch("traverser value", zero, t.value)
	}
	return v, nil
}

// Values extracts the payloads of a slice of traversers.
func Values(ts []*Traverser) []any {
	out := make([]any, len(ts))
	for i, t := range ts {
		out[i] = t.value
	}
	return out
}
