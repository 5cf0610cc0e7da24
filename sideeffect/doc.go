// Package sideeffect provides the per-execution side-effect registry.
//
// A Store maps string keys to values that steps read and mutate while a
// traversal runs. Values are created lazily from registered suppliers, and
// registration never overwrites an existing entry. In distributed execution
// every worker owns its own Partition; partitions are merged afterwards by
// map/combine/reduce jobs rather than by mutating each other.
package sideeffect
