package branch

import (
	"fmt"

	"github.com/kbukum/graphstep/traversal"
)

type pickKind uint8

const (
	keyPick pickKind = iota
	anyPick
	nonePick
)

// Pick is a branch classification: a real key or one of the Any and None
// tokens. Tokens never compare equal to a key.
type Pick[M comparable] struct {
	kind pickKind
	key  M
}

// Key returns the pick for a real classification value.
func Key[M comparable](m M) Pick[M] { return Pick[M]{kind: keyPick, key: m} }

// Any returns the wildcard token.
func Any[M comparable]() Pick[M] { return Pick[M]{kind: anyPick} }

// None returns the fallback token.
func None[M comparable]() Pick[M] { return Pick[M]{kind: nonePick} }

// IsAny reports whether p is the wildcard token.
func (p Pick[M]) IsAny() bool { return p.kind == anyPick }

// IsNone reports whether p is the fallback token.
func (p Pick[M]) IsNone() bool { return p.kind == nonePick }

// Value returns the key and whether p is a real key.
func (p Pick[M]) Value() (M, bool) { return p.key, p.kind == keyPick }

func (p Pick[M]) String() string {
	switch p.kind {
	case anyPick:
		return "any"
	case nonePick:
		return "none"
	default:
		return fmt.Sprint(p.key)
	}
}

// ByValue lifts a Lambda producing keys into a pick function.
func ByValue[M comparable](fn *traversal.Lambda[M]) *traversal.Lambda[Pick[M]] {
	return traversal.Compose(fn, Key[M])
}
