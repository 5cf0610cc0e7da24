package branch

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	apperrors "github.com/kbukum/graphstep/errors"
	"github.com/kbukum/graphstep/groupcount"
	"github.com/kbukum/graphstep/traversal"
	"github.com/kbukum/graphstep/traverser"
)

func tagged(name string) *traversal.Traversal {
	return traversal.New(traversal.NewMap(func(_ context.Context, t *traverser.Traverser) (any, error) {
		return fmt.Sprintf("%s%v", name, t.Get()), nil
	}))
}

func byParity() *traversal.Lambda[Pick[string]] {
	return traversal.NewLambda(func(_ context.Context, t *traverser.Traverser) (Pick[string], error) {
		v, err := traverser.Value[int](t)
		if err != nil {
			return Pick[string]{}, err
		}
		if v%2 == 0 {
			return Key("red"), nil
		}
		return Key("blue"), nil
	})
}

func constant(p Pick[string]) *traversal.Lambda[Pick[string]] {
	return traversal.NewLambda(func(context.Context, *traverser.Traverser) (Pick[string], error) {
		return p, nil
	})
}

func mustAdd[M comparable](t *testing.T, s *Step[M], p Pick[M], opt *traversal.Traversal) {
	t.Helper()
	if err := s.AddOption(p, opt); err != nil {
		t.Fatalf("AddOption(%v): %v", p, err)
	}
}

func colourStep(t *testing.T) (*Step[string], map[string]*traversal.Traversal) {
	t.Helper()
	opts := map[string]*traversal.Traversal{"A": tagged("A"), "B": tagged("B"), "C": tagged("C")}
	s := New(byParity())
	mustAdd(t, s, Key("red"), opts["A"])
	mustAdd(t, s, Key("blue"), opts["B"])
	mustAdd(t, s, Any[string](), opts["C"])
	return s, opts
}

func TestStep_StandardRouting(t *testing.T) {
	s, _ := colourStep(t)
	got, err := traversal.New(traversal.NewStart(1, 2, 3), s).Values(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []any{"B1", "C1", "A2", "C2", "B3", "C3"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("activations mismatch (-want +got):\n%s", diff)
	}
	if s.State() != UpstreamExhausted {
		t.Errorf("state = %v, want %v", s.State(), UpstreamExhausted)
	}
}

func TestStep_AcceptsStartsAfterExhaustion(t *testing.T) {
	ctx := context.Background()
	s, _ := colourStep(t)
	root := traversal.New(s)

	root.AddStart(traverser.New(1, 1))
	got, err := root.Values(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]any{"B1", "C1"}, got); diff != "" {
		t.Errorf("first batch mismatch (-want +got):\n%s", diff)
	}
	if s.State() != UpstreamExhausted {
		t.Errorf("state = %v, want %v", s.State(), UpstreamExhausted)
	}

	root.AddStart(traverser.New(2, 1))
	got, err = root.Values(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]any{"A2", "C2"}, got); diff != "" {
		t.Errorf("second batch mismatch (-want +got):\n%s", diff)
	}
	if s.State() != UpstreamExhausted {
		t.Errorf("state after second batch = %v, want %v", s.State(), UpstreamExhausted)
	}
}

func TestStep_ComputerRouting(t *testing.T) {
	s, opts := colourStep(t)
	loc := func(name string) string { return opts[name].StartStep().ID() }

	tests := []struct {
		in   int
		want []string
	}{
		{1, []string{loc("B"), loc("C")}},
		{2, []string{loc("A"), loc("C")}},
		{3, []string{loc("B"), loc("C")}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.in), func(t *testing.T) {
			in := traverser.New(tt.in, 2)
			out, err := s.Execute(context.Background(), in)
			if err != nil {
				t.Fatal(err)
			}
			var got []string
			for _, o := range out {
				if o == in {
					t.Error("output aliases the input traverser")
				}
				if o.Get() != tt.in || o.Bulk() != 2 {
					t.Errorf("split changed payload or bulk: %v", o)
				}
				got = append(got, o.Location())
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("locations mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStep_ComputerModePull(t *testing.T) {
	s, opts := colourStep(t)
	s.SetMode(traversal.ComputerMode)
	s.AddStart(traverser.New(2, 1))

	var got []string
	for {
		o, err := s.Next(context.Background())
		if apperrors.IsExhausted(err) {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, o.Location())
	}
	want := []string{opts["A"].StartStep().ID(), opts["C"].StartStep().ID()}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("locations mismatch (-want +got):\n%s", diff)
	}
}

func TestStep_NoneFallback(t *testing.T) {
	pick := traversal.NewLambda(func(_ context.Context, t *traverser.Traverser) (Pick[string], error) {
		v, err := traverser.Value[string](t)
		return Key(v), err
	})
	s := New(pick)
	mustAdd(t, s, Key("red"), tagged("R"))
	mustAdd(t, s, None[string](), tagged("N"))

	got, err := traversal.New(traversal.NewStart("red", "green"), s).Values(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []any{"Rred", "Ngreen"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("fallback mismatch (-want +got):\n%s", diff)
	}
}

func TestStep_UnmatchedIsDropped(t *testing.T) {
	s := New(constant(Key("green")))
	mustAdd(t, s, Key("red"), tagged("R"))

	got, err := traversal.New(traversal.NewStart(1, 2), s).Values(context.Background())
	if err != nil {
		t.Fatalf("unmatched input must not fail: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no output, got %v", got)
	}
}

func TestStep_AnyChoiceRunsOnce(t *testing.T) {
	s := New(constant(Any[string]()))
	mustAdd(t, s, Any[string](), tagged("C"))

	got, err := traversal.New(traversal.NewStart(1), s).Values(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]any{"C1"}, got); diff != "" {
		t.Errorf("any choice mismatch (-want +got):\n%s", diff)
	}
}

func TestStep_RegistrationAfterStart(t *testing.T) {
	s, _ := colourStep(t)
	root := traversal.New(traversal.NewStart(1), s)
	if _, err := root.Next(context.Background()); err != nil {
		t.Fatal(err)
	}
	err := s.AddOption(Key("green"), tagged("G"))
	if !apperrors.HasCode(err, apperrors.ErrCodeConfiguration) {
		t.Errorf("expected CONFIGURATION_ERROR, got %v", err)
	}
	if err := s.SetFunction(constant(Any[string]())); !apperrors.HasCode(err, apperrors.ErrCodeConfiguration) {
		t.Errorf("expected CONFIGURATION_ERROR from SetFunction, got %v", err)
	}
}

func TestStep_ResetMidDrain(t *testing.T) {
	ctx := context.Background()
	s, _ := colourStep(t)
	root := traversal.New(traversal.NewStart(1, 2, 3), s)
	first, err := root.Next(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if first.Get() != "B1" {
		t.Fatalf("got %v, want B1", first.Get())
	}

	root.Reset()
	if s.State() != NotStarted {
		t.Errorf("state after reset = %v", s.State())
	}
	got, err := root.Values(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []any{"B1", "C1", "A2", "C2", "B3", "C3"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("rerun mismatch (-want +got):\n%s", diff)
	}
}

func TestStep_ResetIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s, opts := colourStep(t)
	root := traversal.New(traversal.NewStart(1, 2, 3), s)
	first, err := root.Next(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if first.Get() != "B1" {
		t.Fatalf("got %v, want B1", first.Get())
	}

	root.Reset()
	root.Reset()
	if s.State() != NotStarted {
		t.Errorf("state after double reset = %v", s.State())
	}
	if len(s.active) != 0 {
		t.Errorf("%d options still active after reset", len(s.active))
	}
	for name, opt := range opts {
		ok, err := opt.HasNext(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			t.Errorf("option %s kept pending output across reset", name)
		}
	}

	got, err := root.Values(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []any{"B1", "C1", "A2", "C2", "B3", "C3"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("rerun mismatch (-want +got):\n%s", diff)
	}
}

func TestStep_CloneIsolation(t *testing.T) {
	ctx := context.Background()
	s := New(byParity())
	mustAdd(t, s, Key("red"), traversal.New(groupcount.New[int]("seen", nil)))
	mustAdd(t, s, Key("blue"), tagged("B"))

	orig := traversal.New(s)
	clone, err := orig.Clone()
	if err != nil {
		t.Fatal(err)
	}
	cs := clone.StartStep().(*Step[string])

	orig.AddStart(traverser.New(2, 1))
	clone.AddStart(traverser.New(4, 1))
	clone.AddStart(traverser.New(6, 1))

	if o, err := orig.Next(ctx); err != nil || o.Get() != 2 {
		t.Fatalf("original Next = %v, %v; want 2", o, err)
	}
	if o, err := clone.Next(ctx); err != nil || o.Get() != 4 {
		t.Fatalf("clone Next = %v, %v; want 4", o, err)
	}
	if s.State() != Draining || cs.State() != Draining {
		t.Errorf("states = %v, %v; want both draining", s.State(), cs.State())
	}

	orig.AddStart(traverser.New(3, 1))
	got, err := orig.Values(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]any{"B3"}, got); diff != "" {
		t.Errorf("original rest mismatch (-want +got):\n%s", diff)
	}
	if cs.State() != Draining {
		t.Errorf("draining the original moved the clone to %v", cs.State())
	}
	got, err = clone.Values(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]any{6}, got); diff != "" {
		t.Errorf("clone rest mismatch (-want +got):\n%s", diff)
	}

	for _, tt := range []struct {
		name string
		tr   *traversal.Traversal
		want map[int]int64
	}{
		{"original", orig, map[int]int64{2: 1}},
		{"clone", clone, map[int]int64{4: 1, 6: 1}},
	} {
		counts, err := groupcount.Counts[int](tt.tr.SideEffects(), "seen")
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(tt.want, counts); diff != "" {
			t.Errorf("%s counts mismatch (-want +got):\n%s", tt.name, diff)
		}
	}
}

func TestStep_Clone(t *testing.T) {
	ctx := context.Background()
	s, _ := colourStep(t)
	if _, err := traversal.New(traversal.NewStart(1), s).Next(ctx); err != nil {
		t.Fatal(err)
	}

	cs, err := s.Clone()
	if err != nil {
		t.Fatal(err)
	}
	c := cs.(*Step[string])
	if c.ID() != s.ID() {
		t.Errorf("clone id %s, want %s", c.ID(), s.ID())
	}
	if diff := cmp.Diff(s.Picks(), c.Picks(), cmp.Comparer(func(a, b Pick[string]) bool { return a == b })); diff != "" {
		t.Errorf("pick order mismatch:\n%s", diff)
	}
	for _, p := range s.Picks() {
		orig, cloned := s.Options(p), c.Options(p)
		if len(orig) != len(cloned) {
			t.Fatalf("%v: %d options, want %d", p, len(cloned), len(orig))
		}
		for i := range orig {
			if orig[i] == cloned[i] {
				t.Errorf("%v: option %d shared with clone", p, i)
			}
			if orig[i].StartStep().ID() != cloned[i].StartStep().ID() {
				t.Errorf("%v: option %d start id changed", p, i)
			}
			if cloned[i].Parent() != traversal.Step(c) {
				t.Errorf("%v: option %d not owned by clone", p, i)
			}
		}
	}

	if err := c.AddOption(Key("green"), tagged("G")); err != nil {
		t.Errorf("clone must accept options: %v", err)
	}
	got, err := traversal.New(traversal.NewStart(1, 2), c).Values(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]any{"B1", "C1", "A2", "C2"}, got); diff != "" {
		t.Errorf("clone output mismatch (-want +got):\n%s", diff)
	}
}

func TestStep_TraversalPickFunction(t *testing.T) {
	inner := traversal.New(traversal.NewMap(func(_ context.Context, t *traverser.Traverser) (any, error) {
		if t.Get().(int)%2 == 0 {
			return "red", nil
		}
		return "blue", nil
	}))
	s := New(ByValue(traversal.NewTraversalLambda[string](inner)))
	mustAdd(t, s, Key("red"), tagged("A"))
	mustAdd(t, s, Key("blue"), tagged("B"))

	if local := s.LocalChildren(); len(local) != 1 || local[0] != inner {
		t.Errorf("local children = %v, want the pick traversal", local)
	}
	if !s.Requirements().Has(traverser.LocalTraversal) {
		t.Error("requirements miss LOCAL_TRAVERSAL")
	}

	got, err := traversal.New(traversal.NewStart(1, 2), s).Values(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]any{"B1", "A2"}, got); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}

	cs, err := s.Clone()
	if err != nil {
		t.Fatal(err)
	}
	local := cs.(*Step[string]).LocalChildren()
	if len(local) != 1 || local[0] == inner {
		t.Error("clone must own a copy of the pick traversal")
	}
}

func TestChoose(t *testing.T) {
	s, err := Choose(func(_ context.Context, t *traverser.Traverser) (bool, error) {
		return t.Get().(int) > 1, nil
	}, tagged("big"), tagged("small"))
	if err != nil {
		t.Fatal(err)
	}
	got, err := traversal.New(traversal.NewStart(1, 2), s).Values(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]any{"small1", "big2"}, got); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestUnion(t *testing.T) {
	s, err := Union(tagged("A"), tagged("B"))
	if err != nil {
		t.Fatal(err)
	}
	got, err := traversal.New(traversal.NewStart(1, 2), s).Values(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]any{"A1", "B1", "A2", "B2"}, got); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}
