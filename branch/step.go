package branch

import (
	"context"

	apperrors "github.com/kbukum/graphstep/errors"
	"github.com/kbukum/graphstep/traversal"
	"github.com/kbukum/graphstep/traverser"
)

// State is the progress of the standard algorithm.
type State int

const (
	// NotStarted means no input has been routed since the last reset.
	NotStarted State = iota
	// Draining means activated options may hold pending output.
	Draining
	// UpstreamExhausted means upstream and every option were drained at
	// the last pull.
	UpstreamExhausted
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Draining:
		return "draining"
	case UpstreamExhausted:
		return "upstream_exhausted"
	default:
		return "unknown"
	}
}

// Step routes each traverser into the options selected by its pick function.
type Step[M comparable] struct {
	traversal.ComputerAware
	pick    *traversal.Lambda[Pick[M]]
	order   []Pick[M]
	options map[Pick[M]][]*traversal.Traversal
	state   State
	active  []*traversal.Traversal
	sealed  bool
}

// New creates a branch step with the given pick function.
func New[M comparable](pick *traversal.Lambda[Pick[M]]) *Step[M] {
	return &Step[M]{
		ComputerAware: traversal.NewComputerAware(),
		pick:          pick,
		options:       make(map[Pick[M]][]*traversal.Traversal),
	}
}

// SetFunction replaces the pick function. It fails once execution started.
func (s *Step[M]) SetFunction(pick *traversal.Lambda[Pick[M]]) error {
	if s.sealed {
		return apperrors.Configuration("branch step " + s.ID() + ": pick function set after execution started")
	}
	s.pick = pick
	return nil
}

// Function returns the pick function.
func (s *Step[M]) Function() *traversal.Lambda[Pick[M]] { return s.pick }

// AddOption registers an option under pick. An end step is appended to the
// option, and the option joins this step as a child. Options under the same
// pick run in registration order.
func (s *Step[M]) AddOption(pick Pick[M], option *traversal.Traversal) error {
	if s.sealed {
		return apperrors.Configuration("branch step " + s.ID() + ": option " + pick.String() + " added after execution started")
	}
	if option == nil {
		return apperrors.InvalidInput("option", "option traversal is nil")
	}
	option.AddStep(traversal.NewEnd())
	option.SetParent(s)
	s.register(pick, option)
	if t := s.Traversal(); t != nil {
		t.Invalidate()
	}
	return nil
}

func (s *Step[M]) register(pick Pick[M], option *traversal.Traversal) {
	if _, ok := s.options[pick]; !ok {
		s.order = append(s.order, pick)
	}
	s.options[pick] = append(s.options[pick], option)
}

// Options returns the options registered under pick.
func (s *Step[M]) Options(pick Pick[M]) []*traversal.Traversal { return s.options[pick] }

// Picks returns the registered picks in registration order.
func (s *Step[M]) Picks() []Pick[M] { return append([]Pick[M](nil), s.order...) }

// State returns the progress of the standard algorithm.
func (s *Step[M]) State() State { return s.state }

func (s *Step[M]) HasNext(ctx context.Context) (bool, error) {
	s.sealed = true
	return s.Peek(ctx, s.produce)
}

func (s *Step[M]) Next(ctx context.Context) (*traverser.Traverser, error) {
	s.sealed = true
	return s.Pull(ctx, s.produce)
}

func (s *Step[M]) produce(ctx context.Context) (*traverser.Traverser, error) {
	return s.Produce(ctx, s)
}

// Execute applies the computer algorithm to a single traverser.
func (s *Step[M]) Execute(ctx context.Context, start *traverser.Traverser) ([]*traverser.Traverser, error) {
	s.sealed = true
	return s.ComputerAlgorithm(ctx, start)
}

// activated returns the options start activates, in registration order.
func (s *Step[M]) activated(ctx context.Context, start *traverser.Traverser) ([]*traversal.Traversal, error) {
	if s.pick == nil {
		return nil, apperrors.Configuration("branch step " + s.ID() + ": no pick function")
	}
	choice, err := s.pick.Apply(ctx, start)
	if err != nil {
		return nil, err
	}
	matched := choice
	if _, ok := s.options[choice]; !ok {
		matched = None[M]()
	}
	var out []*traversal.Traversal
	for _, p := range s.order {
		switch {
		case p == matched:
			out = append(out, s.options[p]...)
		case p.IsAny() && !choice.IsAny():
			out = append(out, s.options[p]...)
		}
	}
	return out, nil
}

// StandardAlgorithm drains the active options before routing the next input.
// Exhaustion is not final: starts added afterwards are routed on the next
// pull.
func (s *Step[M]) StandardAlgorithm(ctx context.Context) (*traverser.Traverser, error) {
	for {
		for _, opt := range s.active {
			ok, err := opt.HasNext(ctx)
			if err != nil {
				return nil, err
			}
			if ok {
				return opt.Next(ctx)
			}
		}
		s.active = nil

		start, err := s.Starts().Next(ctx)
		if apperrors.IsExhausted(err) {
			s.state = UpstreamExhausted
			return nil, err
		}
		if err != nil {
			return nil, err
		}
		opts, err := s.activated(ctx, start)
		if err != nil {
			return nil, err
		}
		for _, opt := range opts {
			opt.Reset()
			opt.AddStart(start.Split())
		}
		s.active = opts
		s.state = Draining
	}
}

// ComputerAlgorithm returns one split per activated option, located at the
// option's start step.
func (s *Step[M]) ComputerAlgorithm(ctx context.Context, start *traverser.Traverser) ([]*traverser.Traverser, error) {
	opts, err := s.activated(ctx, start)
	if err != nil {
		return nil, err
	}
	out := make([]*traverser.Traverser, 0, len(opts))
	for _, opt := range opts {
		first := opt.StartStep()
		if first == nil {
			return nil, apperrors.RoutingMismatch("empty option of branch step " + s.ID())
		}
		split := start.Split()
		split.SetLocation(first.ID())
		out = append(out, split)
	}
	return out, nil
}

// Reset returns the step and every option to the initial state.
func (s *Step[M]) Reset() {
	s.ComputerAware.Reset()
	s.state = NotStarted
	s.active = nil
	for _, p := range s.order {
		for _, opt := range s.options[p] {
			opt.Reset()
		}
	}
	if s.pick != nil {
		s.pick.Reset()
	}
}

// Clone deep-clones the options and the pick function. The copy has no
// progress and accepts new options.
func (s *Step[M]) Clone() (traversal.Step, error) {
	c := &Step[M]{
		ComputerAware: s.Fresh(),
		options:       make(map[Pick[M]][]*traversal.Traversal, len(s.options)),
	}
	if s.pick != nil {
		pick, err := s.pick.Duplicate()
		if err != nil {
			return nil, err
		}
		c.pick = pick
	}
	for _, p := range s.order {
		for _, opt := range s.options[p] {
			oc, err := opt.Clone()
			if err != nil {
				return nil, err
			}
			oc.SetParent(c)
			c.register(p, oc)
		}
	}
	return c, nil
}

// Requirements composes the pick function and every option.
func (s *Step[M]) Requirements() traverser.Requirements {
	reqs := traverser.NewRequirements()
	if s.pick != nil {
		reqs.Union(s.pick.Requirements())
	}
	for _, opt := range s.GlobalChildren() {
		reqs.Union(opt.Requirements())
	}
	return reqs
}

// GlobalChildren returns every option in registration order.
func (s *Step[M]) GlobalChildren() []*traversal.Traversal {
	var out []*traversal.Traversal
	for _, p := range s.order {
		out = append(out, s.options[p]...)
	}
	return out
}

// LocalChildren returns the traversal backing the pick function, if any.
func (s *Step[M]) LocalChildren() []*traversal.Traversal {
	if s.pick == nil {
		return nil
	}
	return s.pick.LocalChildren()
}
