// Package branch provides BranchStep, a conditional fan-out step that routes
// each traverser into zero or more option traversals chosen by a pick
// function.
//
// Options are registered under a Pick: a real key, the Any wildcard or the
// None fallback. For every input the options under the matching key run, or
// the None options when no key matches, and the Any options run in addition
// unless the pick is Any itself. An input with no match and no fallback is
// dropped.
//
// In standard mode activated options are drained depth-first before the next
// upstream pull. In computer mode each activation yields one traverser
// located at the option's start step, and the runtime routes it.
//
// Choose and Union build the two common shapes on top of BranchStep.
package branch
