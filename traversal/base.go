package traversal

import (
	"context"

	"github.com/google/uuid"

	apperrors "github.com/kbukum/graphstep/errors"
	"github.com/kbukum/graphstep/traverser"
)

// NewStepID returns a fresh step identifier.
func NewStepID() string {
	return uuid.NewString()
}

// Starts is the upstream side of a step: explicitly added traversers are
// served first, then the previous step is pulled.
type Starts struct {
	queue    []*traverser.Traverser
	previous Step
}

// Add queues a traverser.
func (s *Starts) Add(t *traverser.Traverser) {
	s.queue = append(s.queue, t)
}

// Next returns the next upstream traverser or errors.ErrExhausted.
func (s *Starts) Next(ctx context.Context) (*traverser.Traverser, error) {
	if len(s.queue) > 0 {
		t := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		return t, nil
	}
	if s.previous == nil {
		return nil, apperrors.ErrExhausted
	}
	return s.previous.Next(ctx)
}

// HasNext reports whether upstream has another traverser.
func (s *Starts) HasNext(ctx context.Context) (bool, error) {
	if len(s.queue) > 0 {
		return true, nil
	}
	if s.previous == nil {
		return false, nil
	}
	return s.previous.HasNext(ctx)
}

// Reset drops queued traversers. The previous step is reset by its owner.
func (s *Starts) Reset() {
	s.queue = nil
}

// Base carries the state every step shares: identity, owner, upstream and a
// one-traverser lookahead used by HasNext.
type Base struct {
	id        string
	traversal *Traversal
	starts    Starts
	lookahead *traverser.Traverser
}

// NewBase returns a Base with a fresh ID.
func NewBase() Base {
	return Base{id: NewStepID()}
}

func (b *Base) ID() string                      { return b.id }
func (b *Base) SetID(id string)                 { b.id = id }
func (b *Base) Traversal() *Traversal           { return b.traversal }
func (b *Base) SetTraversal(t *Traversal)       { b.traversal = t }
func (b *Base) SetPrevious(prev Step)           { b.starts.previous = prev }
func (b *Base) Starts() *Starts                 { return &b.starts }
func (b *Base) AddStart(t *traverser.Traverser) { b.starts.Add(t) }

// Pull returns the buffered lookahead if any, otherwise the next result of produce.
func (b *Base) Pull(ctx context.Context, produce func(context.Context) (*traverser.Traverser, error)) (*traverser.Traverser, error) {
	if b.lookahead != nil {
		t := b.lookahead
		b.lookahead = nil
		return t, nil
	}
	return produce(ctx)
}

// Peek buffers the next result of produce and reports whether there was one.
func (b *Base) Peek(ctx context.Context, produce func(context.Context) (*traverser.Traverser, error)) (bool, error) {
	if b.lookahead != nil {
		return true, nil
	}
	t, err := produce(ctx)
	if apperrors.IsExhausted(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	b.lookahead = t
	return true, nil
}

// Reset drops queued starts and the lookahead.
func (b *Base) Reset() {
	b.starts.Reset()
	b.lookahead = nil
}

// Fresh returns a Base with the same ID and no owner, upstream or progress.
func (b *Base) Fresh() Base {
	return Base{id: b.id}
}
