package computer

import (
	"github.com/kbukum/graphstep/mapreduce"
	"github.com/kbukum/graphstep/traversal"
	"github.com/kbukum/graphstep/traverser"
)

// routable returns every step a traverser can be located at: the steps of
// root and, recursively, of the global children of its steps. Local
// children run inside their parent and are never routed to.
func routable(root *traversal.Traversal) []traversal.Step {
	var out []traversal.Step
	var walk func(t *traversal.Traversal)
	walk = func(t *traversal.Traversal) {
		for _, s := range t.Steps() {
			out = append(out, s)
			if p, ok := s.(traversal.Parent); ok {
				for _, child := range p.GlobalChildren() {
					walk(child)
				}
			}
		}
	}
	walk(root)
	return out
}

// routes maps every routable step ID to the ID a traverser moves to once
// the step is done with it. The last step of a child traversal continues
// after its parent step; the last root step halts.
func routes(root *traversal.Traversal) map[string]string {
	next := make(map[string]string)
	var walk func(t *traversal.Traversal, after string)
	walk = func(t *traversal.Traversal, after string) {
		steps := t.Steps()
		for i, s := range steps {
			if i+1 < len(steps) {
				next[s.ID()] = steps[i+1].ID()
			} else {
				next[s.ID()] = after
			}
		}
		for _, s := range steps {
			if p, ok := s.(traversal.Parent); ok {
				for _, child := range p.GlobalChildren() {
					walk(child, next[s.ID()])
				}
			}
		}
	}
	walk(root, traverser.Halt)
	return next
}

// reducers returns the map/reduce job of every step under root, one per
// side-effect key. Unlike routing it also descends into local children:
// a step inside a traversal-backed function counts into the worker
// partitions too.
func reducers(root *traversal.Traversal) []mapreduce.Task {
	var out []mapreduce.Task
	seen := make(map[string]bool)
	var walk func(t *traversal.Traversal)
	walk = func(t *traversal.Traversal) {
		for _, s := range t.Steps() {
			if mr, ok := s.(traversal.MapReducer); ok {
				task := mr.MapReduce()
				if !seen[task.SideEffectKey()] {
					seen[task.SideEffectKey()] = true
					out = append(out, task)
				}
			}
			p, ok := s.(traversal.Parent)
			if !ok {
				continue
			}
			for _, child := range p.GlobalChildren() {
				walk(child)
			}
			for _, child := range p.LocalChildren() {
				walk(child)
			}
		}
	}
	walk(root)
	return out
}
