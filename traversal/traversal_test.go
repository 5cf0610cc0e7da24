package traversal

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	apperrors "github.com/kbukum/graphstep/errors"
	"github.com/kbukum/graphstep/traverser"
)

func times(n int) Func[any] {
	return func(_ context.Context, t *traverser.Traverser) (any, error) {
		v, err := traverser.Value[int](t)
		return v * n, err
	}
}

func greaterThan(n int) Func[bool] {
	return func(_ context.Context, t *traverser.Traverser) (bool, error) {
		v, err := traverser.Value[int](t)
		return v > n, err
	}
}

func TestTraversal_MapFilter(t *testing.T) {
	tr := New(NewStart(1, 2, 3), NewMap(times(10)), NewFilter(greaterThan(10)))
	got, err := tr.Values(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]any{20, 30}, got); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestTraversal_HasNextDoesNotConsume(t *testing.T) {
	ctx := context.Background()
	tr := New(NewStart("a", "b"))
	for i := 0; i < 3; i++ {
		ok, err := tr.HasNext(ctx)
		if err != nil || !ok {
			t.Fatalf("HasNext = %v, %v", ok, err)
		}
	}
	first, err := tr.Next(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if first.Get() != "a" {
		t.Errorf("got %v, want a", first.Get())
	}
}

func TestTraversal_NextAfterExhaustion(t *testing.T) {
	ctx := context.Background()
	tr := New(NewStart(1))
	if _, err := tr.Next(ctx); err != nil {
		t.Fatal(err)
	}
	_, err := tr.Next(ctx)
	if !apperrors.IsExhausted(err) {
		t.Errorf("expected exhaustion, got %v", err)
	}
	ok, err := tr.HasNext(ctx)
	if ok || err != nil {
		t.Errorf("HasNext after exhaustion = %v, %v", ok, err)
	}
}

func TestTraversal_ResetIsIdempotent(t *testing.T) {
	ctx := context.Background()
	tr := New(NewStart(1, 2, 3), NewMap(times(2)))
	first, err := tr.Values(ctx)
	if err != nil {
		t.Fatal(err)
	}
	tr.Reset()
	tr.Reset()
	second, err := tr.Values(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("rerun after reset differs (-first +second):\n%s", diff)
	}
}

func TestTraversal_CloneIsIndependent(t *testing.T) {
	ctx := context.Background()
	orig := New(NewStart(1, 2, 3), NewMap(times(1)))
	if _, err := orig.Next(ctx); err != nil {
		t.Fatal(err)
	}

	c, err := orig.Clone()
	if err != nil {
		t.Fatal(err)
	}
	for i, s := range c.Steps() {
		if s.ID() != orig.Steps()[i].ID() {
			t.Errorf("step %d: clone id %s, want %s", i, s.ID(), orig.Steps()[i].ID())
		}
	}
	if c.Prepared() {
		t.Error("clone must be prepared again")
	}

	cloned, err := c.Values(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]any{1, 2, 3}, cloned); diff != "" {
		t.Errorf("clone carried progress (-want +got):\n%s", diff)
	}
	rest, err := orig.Values(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]any{2, 3}, rest); diff != "" {
		t.Errorf("original disturbed by clone (-want +got):\n%s", diff)
	}
}

func TestTraversal_CloneGetsOwnSideEffects(t *testing.T) {
	orig := New(NewStart(1))
	orig.SideEffects().RegisterSupplierIfAbsent("k", func() any { return 0 })
	orig.SideEffects().Set("k", 42)

	c, err := orig.Clone()
	if err != nil {
		t.Fatal(err)
	}
	if c.SideEffects() == orig.SideEffects() {
		t.Fatal("clone shares the side-effect store")
	}
	v, err := c.SideEffects().Get("k")
	if err != nil {
		t.Fatal(err)
	}
	if v != 0 {
		t.Errorf("clone partition value = %v, want fresh supplier value 0", v)
	}
}

func TestTraversal_AddStartOnEmpty(t *testing.T) {
	tr := New()
	tr.AddStart(traverser.New("x", 3))
	got, err := tr.Collect(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Get() != "x" || got[0].Bulk() != 3 {
		t.Fatalf("got %v", got)
	}
	if got[0].SideEffects() != tr.SideEffects() {
		t.Error("start did not join the traversal scope")
	}
}

func TestTraversal_PrepareUnsupportedRequirement(t *testing.T) {
	tr := New(NewStart(1), NewMap(times(2)))
	err := tr.Prepare(Engine{Mode: StandardMode, Capabilities: traverser.NewRequirements()})
	if !apperrors.HasCode(err, apperrors.ErrCodeConfiguration) {
		t.Fatalf("expected CONFIGURATION_ERROR, got %v", err)
	}
	if tr.Prepared() {
		t.Error("traversal bound despite failed validation")
	}
}

func TestTraversal_Requirements(t *testing.T) {
	inner := New(NewMap(times(3)))
	tr := New(NewStart(1), NewMapLambda(NewTraversalLambda[any](inner)))
	reqs := tr.Requirements()
	want := []traverser.Requirement{traverser.LocalTraversal, traverser.Object}
	if diff := cmp.Diff(want, reqs.Sorted()); diff != "" {
		t.Errorf("requirements mismatch (-want +got):\n%s", diff)
	}
}

func TestTraversal_TraversalLambda(t *testing.T) {
	inner := New(NewMap(times(3)))
	step := NewMapLambda(NewTraversalLambda[any](inner))
	tr := New(NewStart(1, 2), step)

	got, err := tr.Values(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]any{3, 6}, got); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
	if inner.Parent() != Step(step) {
		t.Error("local child not bound to its parent step")
	}
	if inner.Engine().Mode != StandardMode {
		t.Errorf("local child mode = %v, want standard", inner.Engine().Mode)
	}
}

func TestTraversal_TraversalLambdaWithoutResult(t *testing.T) {
	inner := New(NewFilter(greaterThan(100)))
	tr := New(NewStart(1), NewMapLambda(NewTraversalLambda[any](inner)))
	_, err := tr.Values(context.Background())
	if !apperrors.HasCode(err, apperrors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestTraversal_FunctionErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	tr := New(NewStart(1, 2), NewMap(func(_ context.Context, t *traverser.Traverser) (any, error) {
		if t.Get() == 2 {
			return nil, boom
		}
		return t.Get(), nil
	}))
	got, err := tr.Collect(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected one output before the failure, got %d", len(got))
	}
}

type counter struct {
	n      int
	dupErr error
	dupNil bool
}

func (c *counter) Apply(_ context.Context, _ *traverser.Traverser) (any, error) {
	c.n++
	return c.n, nil
}

func (c *counter) Duplicate() (Duplicator[any], error) {
	if c.dupErr != nil {
		return nil, c.dupErr
	}
	if c.dupNil {
		return nil, nil
	}
	return &counter{}, nil
}

func TestLambda_StatefulDuplicate(t *testing.T) {
	ctx := context.Background()
	orig := New(NewStart("a", "b"), NewMapLambda(NewStatefulLambda[any](&counter{})))
	if _, err := orig.Values(ctx); err != nil {
		t.Fatal(err)
	}
	c, err := orig.Clone()
	if err != nil {
		t.Fatal(err)
	}
	got, err := c.Values(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]any{1, 2}, got); diff != "" {
		t.Errorf("clone shares function state (-want +got):\n%s", diff)
	}
}

func TestLambda_DuplicateFailure(t *testing.T) {
	tests := []struct {
		name string
		fn   *counter
	}{
		{"error", &counter{dupErr: errors.New("not copyable")}},
		{"nil copy", &counter{dupNil: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := New(NewStart(1), NewMapLambda(NewStatefulLambda[any](tt.fn)))
			_, err := tr.Clone()
			if !apperrors.HasCode(err, apperrors.ErrCodeCloneFailure) {
				t.Errorf("expected CLONE_FAILURE, got %v", err)
			}
		})
	}
}

func TestExecuteStep(t *testing.T) {
	ctx := context.Background()
	out, err := ExecuteStep(ctx, NewMap(times(5)), traverser.New(2, 4))
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].Get() != 10 || out[0].Bulk() != 4 {
		t.Fatalf("got %v", out)
	}

	start := NewStart(1, 2, 3)
	in := traverser.New(7, 1)
	out, err = ExecuteStep(ctx, start, in)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0] != in {
		t.Errorf("start step must pass the traverser through, got %v", out)
	}
}

func TestIterate(t *testing.T) {
	n, err := New(NewStart(1, 2, 3, 4), NewFilter(greaterThan(2))).Iterate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("got %d outputs, want 2", n)
	}
}
