package branch

import (
	"context"

	"github.com/kbukum/graphstep/traversal"
	"github.com/kbukum/graphstep/traverser"
)

// Choose routes traversers for which predicate holds into onTrue and all
// others into onFalse.
func Choose(predicate traversal.Func[bool], onTrue, onFalse *traversal.Traversal) (*Step[bool], error) {
	s := New(ByValue(traversal.NewLambda(predicate)))
	if err := s.AddOption(Key(true), onTrue); err != nil {
		return nil, err
	}
	if err := s.AddOption(Key(false), onFalse); err != nil {
		return nil, err
	}
	return s, nil
}

// Union feeds every traverser to all options and merges their output in
// registration order.
func Union(options ...*traversal.Traversal) (*Step[struct{}], error) {
	s := New(traversal.NewLambda(func(context.Context, *traverser.Traverser) (Pick[struct{}], error) {
		return None[struct{}](), nil
	}))
	for _, opt := range options {
		if err := s.AddOption(Any[struct{}](), opt); err != nil {
			return nil, err
		}
	}
	return s, nil
}
