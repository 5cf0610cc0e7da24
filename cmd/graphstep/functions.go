package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/kbukum/graphstep/errors"
	"github.com/kbukum/graphstep/traversal"
	"github.com/kbukum/graphstep/traverser"
)

// Classifier names usable by filter, branch and group_count steps.
var classifierNames = []string{"identity", "parity", "type", "length"}

// Transform names usable by map steps.
var transformNames = []string{"identity", "double", "increment", "negate", "upper", "string", "length"}

func classify(name string, v any) (string, error) {
	switch name {
	case "", "identity":
		return fmt.Sprint(v), nil
	case "parity":
		n, ok := asInt(v)
		if !ok {
			return "", apperrors.TypeMismatch("parity input", int64(0), v)
		}
		if n%2 == 0 {
			return "even", nil
		}
		return "odd", nil
	case "type":
		switch v.(type) {
		case int, int64:
			return "int", nil
		case float64:
			return "float", nil
		case string:
			return "string", nil
		case bool:
			return "bool", nil
		case nil:
			return "null", nil
		default:
			return fmt.Sprintf("%T", v), nil
		}
	case "length":
		n, err := length(v)
		if err != nil {
			return "", err
		}
		return strconv.Itoa(n), nil
	default:
		return "", apperrors.InvalidInput("classifier", fmt.Sprintf("unknown classifier %q", name))
	}
}

func transform(name string, v any) (any, error) {
	switch name {
	case "", "identity":
		return v, nil
	case "double":
		switch x := v.(type) {
		case float64:
			return x * 2, nil
		case string:
			return x + x, nil
		}
		if n, ok := asInt(v); ok {
			return n * 2, nil
		}
	case "increment":
		if x, ok := v.(float64); ok {
			return x + 1, nil
		}
		if n, ok := asInt(v); ok {
			return n + 1, nil
		}
	case "negate":
		switch x := v.(type) {
		case float64:
			return -x, nil
		case bool:
			return !x, nil
		}
		if n, ok := asInt(v); ok {
			return -n, nil
		}
	case "upper":
		if s, ok := v.(string); ok {
			return strings.ToUpper(s), nil
		}
	case "string":
		return fmt.Sprint(v), nil
	case "length":
		return length(v)
	default:
		return nil, apperrors.InvalidInput("transform", fmt.Sprintf("unknown transform %q", name))
	}
	return nil, apperrors.InvalidInput("transform", fmt.Sprintf("%s does not apply to %T", name, v))
}

func asInt(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int64:
		return x, true
	}
	return 0, false
}

func length(v any) (int, error) {
	switch x := v.(type) {
	case string:
		return len(x), nil
	case []any:
		return len(x), nil
	case map[string]any:
		return len(x), nil
	}
	return 0, apperrors.InvalidInput("length", fmt.Sprintf("no length for %T", v))
}

func classifierLambda(name string) *traversal.Lambda[string] {
	return traversal.NewLambda[string](func(_ context.Context, t *traverser.Traverser) (string, error) {
		return classify(name, t.Get())
	})
}

func transformFunc(name string) traversal.Func[any] {
	return func(_ context.Context, t *traverser.Traverser) (any, error) {
		return transform(name, t.Get())
	}
}

func predicate(classifier, equals string) traversal.Func[bool] {
	return func(_ context.Context, t *traverser.Traverser) (bool, error) {
		got, err := classify(classifier, t.Get())
		if err != nil {
			return false, err
		}
		return got == equals, nil
	}
}
