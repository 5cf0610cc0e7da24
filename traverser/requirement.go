package traverser

import "sort"

// Requirement is a capability a step needs from the runtime.
type Requirement string

const (
	// Bulk requires the runtime to preserve traverser bulk.
	Bulk Requirement = "BULK"
	// SideEffects requires a side-effect store to exist.
	SideEffects Requirement = "SIDE_EFFECTS"
	// Object requires access to the traverser payload.
	Object Requirement = "OBJECT"
	// LocalTraversal requires the runtime to execute nested traversals locally.
	LocalTraversal Requirement = "LOCAL_TRAVERSAL"
)

// AllRequirements lists every known requirement.
var AllRequirements = []Requirement{Bulk, SideEffects, Object, LocalTraversal}

// Requirements is a set of capability flags.
type Requirements map[Requirement]struct{}

// NewRequirements builds a set from the given flags.
func NewRequirements(reqs ...Requirement) Requirements {
	r := make(Requirements, len(reqs))
	for _, req := range reqs {
		r[req] = struct{}{}
	}
	return r
}

// Add inserts flags into the set and returns it.
func (r Requirements) Add(reqs ...Requirement) Requirements {
	for _, req := range reqs {
		r[req] = struct{}{}
	}
	return r
}

// Has reports whether req is in the set.
func (r Requirements) Has(req Requirement) bool {
	_, ok := r[req]
	return ok
}

// Union adds every flag of other into r and returns r.
func (r Requirements) Union(other Requirements) Requirements {
	for req := range other {
		r[req] = struct{}{}
	}
	return r
}

// Sorted returns the flags in lexical order.
func (r Requirements) Sorted() []Requirement {
	out := make([]Requirement, 0, len(r))
	for req := range r {
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
