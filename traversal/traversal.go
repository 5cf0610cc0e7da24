package traversal

import (
	"context"

	apperrors "github.com/kbukum/graphstep/errors"
	"github.com/kbukum/graphstep/sideeffect"
	"github.com/kbukum/graphstep/traverser"
)

// Traversal is an ordered pipeline of steps with a lazy-pull contract.
type Traversal struct {
	steps       []Step
	sideEffects *sideeffect.Store
	parent      Step
	engine      Engine
	prepared    bool
}

// New creates a traversal from the given steps.
func New(steps ...Step) *Traversal {
	t := &Traversal{}
	for _, s := range steps {
		t.AddStep(s)
	}
	return t
}

// AddStep appends a step, linking it to the current end step.
func (t *Traversal) AddStep(s Step) *Traversal {
	if end := t.EndStep(); end != nil {
		s.SetPrevious(end)
	} else {
		s.SetPrevious(nil)
	}
	s.SetTraversal(t)
	t.steps = append(t.steps, s)
	t.prepared = false
	return t
}

// Steps returns the steps in pipeline order.
func (t *Traversal) Steps() []Step { return t.steps }

// StartStep returns the first step, or nil for an empty traversal.
func (t *Traversal) StartStep() Step {
	if len(t.steps) == 0 {
		return nil
	}
	return t.steps[0]
}

// EndStep returns the last step, or nil for an empty traversal.
func (t *Traversal) EndStep() Step {
	if len(t.steps) == 0 {
		return nil
	}
	return t.steps[len(t.steps)-1]
}

// Parent returns the step that owns this traversal, or nil for a root.
func (t *Traversal) Parent() Step { return t.parent }

// SetParent records the owning step.
func (t *Traversal) SetParent(s Step) { t.parent = s }

// SideEffects returns the side-effect store of this traversal's scope.
func (t *Traversal) SideEffects() *sideeffect.Store {
	if t.sideEffects == nil {
		t.sideEffects = sideeffect.NewStore()
	}
	return t.sideEffects
}

// SetSideEffects replaces the side-effect scope.
func (t *Traversal) SetSideEffects(store *sideeffect.Store) { t.sideEffects = store }

// Prepared reports whether Prepare has run since the last structural change.
func (t *Traversal) Prepared() bool { return t.prepared }

// Engine returns the engine the traversal was prepared for.
func (t *Traversal) Engine() Engine { return t.engine }

// AddStart feeds a traverser into the first step. Traversers without a
// side-effect scope join this traversal's scope.
func (t *Traversal) AddStart(tr *traverser.Traverser) {
	if len(t.steps) == 0 {
		t.AddStep(NewIdentity())
	}
	if tr.SideEffects() == nil {
		tr.SetSideEffects(t.SideEffects())
	}
	t.steps[0].AddStart(tr)
}

// HasNext reports whether the traversal has more output.
func (t *Traversal) HasNext(ctx context.Context) (bool, error) {
	if err := t.ensurePrepared(); err != nil {
		return false, err
	}
	end := t.EndStep()
	if end == nil {
		return false, nil
	}
	return end.HasNext(ctx)
}

// Next returns the next output or errors.ErrExhausted.
func (t *Traversal) Next(ctx context.Context) (*traverser.Traverser, error) {
	if err := t.ensurePrepared(); err != nil {
		return nil, err
	}
	end := t.EndStep()
	if end == nil {
		return nil, apperrors.ErrExhausted
	}
	return end.Next(ctx)
}

// Reset discards all buffered progress in every step and child traversal.
func (t *Traversal) Reset() {
	for _, s := range t.steps {
		s.Reset()
	}
}

// Clone returns a deep copy. Step IDs are preserved, progress is not, and the
// copy gets its own side-effect partition. The copy must be prepared again.
func (t *Traversal) Clone() (*Traversal, error) {
	c := &Traversal{engine: t.engine}
	for _, s := range t.steps {
		cs, err := s.Clone()
		if err != nil {
			if apperrors.HasCode(err, apperrors.ErrCodeCloneFailure) {
				return nil, err
			}
			return nil, apperrors.CloneFailure("step "+s.ID(), err)
		}
		c.AddStep(cs)
	}
	if t.sideEffects != nil {
		c.sideEffects = t.sideEffects.Partition()
	}
	return c, nil
}

// Requirements composes the requirements of every step, including those
// contributed by child traversals.
func (t *Traversal) Requirements() traverser.Requirements {
	reqs := traverser.NewRequirements()
	for _, s := range t.steps {
		reqs.Union(s.Requirements())
	}
	return reqs
}

// Prepare validates the traversal against engine and binds it for
// execution: child traversals join this traversal's side-effect scope,
// side effects are registered, and global children adopt the engine mode
// while local children stay sequential. Nothing is bound when a requirement
// is unsupported.
func (t *Traversal) Prepare(engine Engine) error {
	if err := validate(t, engine); err != nil {
		return err
	}
	t.bind(t.SideEffects(), engine)
	return nil
}

// Invalidate marks t and every enclosing traversal as needing Prepare.
func (t *Traversal) Invalidate() {
	for cur := t; cur != nil; {
		cur.prepared = false
		if cur.parent == nil {
			return
		}
		cur = cur.parent.Traversal()
	}
}

func (t *Traversal) ensurePrepared() error {
	if t.prepared {
		return nil
	}
	engine := t.engine
	if engine.Capabilities == nil {
		engine = StandardEngine()
	}
	return t.Prepare(engine)
}

func validate(t *Traversal, engine Engine) error {
	for _, s := range t.steps {
		for _, req := range s.Requirements().Sorted() {
			if !engine.Supports(req) {
				return apperrors.UnsupportedRequirement(s.ID(), string(req))
			}
		}
	}
	return nil
}

func (t *Traversal) bind(store *sideeffect.Store, engine Engine) {
	t.sideEffects = store
	t.engine = engine
	for _, s := range t.steps {
		if r, ok := s.(Registrar); ok {
			r.RegisterSideEffects(store)
		}
		if m, ok := s.(Moded); ok {
			m.SetMode(engine.Mode)
		}
		p, ok := s.(Parent)
		if !ok {
			continue
		}
		for _, child := range p.GlobalChildren() {
			child.parent = s
			child.bind(store, engine)
		}
		local := engine
		local.Mode = StandardMode
		for _, child := range p.LocalChildren() {
			child.parent = s
			child.bind(store, local)
		}
	}
	t.prepared = true
}
