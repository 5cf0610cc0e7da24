package traversal

import (
	"context"

	"github.com/kbukum/graphstep/mapreduce"
	"github.com/kbukum/graphstep/sideeffect"
	"github.com/kbukum/graphstep/traverser"
)

// Mode selects the execution model of a step.
type Mode int

const (
	// StandardMode is sequential lazy-pull execution.
	StandardMode Mode = iota
	// ComputerMode is bulk-synchronous one-input-one-invocation execution.
	ComputerMode
)

func (m Mode) String() string {
	switch m {
	case StandardMode:
		return "standard"
	case ComputerMode:
		return "computer"
	default:
		return "unknown"
	}
}

// Step is one node of a traversal.
type Step interface {
	// ID identifies the step. Clones keep the ID so that traverser locations
	// stay valid on every copy of a pipeline.
	ID() string
	SetID(id string)
	// Traversal returns the owning traversal.
	Traversal() *Traversal
	SetTraversal(t *Traversal)
	// SetPrevious links the upstream step; nil for the first step.
	SetPrevious(prev Step)
	// AddStart feeds a traverser directly into this step.
	AddStart(t *traverser.Traverser)
	// HasNext reports whether Next would return a traverser.
	HasNext(ctx context.Context) (bool, error)
	// Next returns the next output or errors.ErrExhausted.
	Next(ctx context.Context) (*traverser.Traverser, error)
	// Reset discards buffered output and returns the step to its initial state.
	Reset()
	// Clone returns a structurally independent copy without progress.
	Clone() (Step, error)
	// Requirements returns the capabilities the step needs.
	Requirements() traverser.Requirements
}

// Parent is implemented by steps that own child traversals.
type Parent interface {
	// GlobalChildren are traversals traversers are routed into.
	GlobalChildren() []*Traversal
	// LocalChildren are traversals evaluated inside the step, such as a
	// traversal-backed function.
	LocalChildren() []*Traversal
}

// Registrar is implemented by steps that declare side effects.
type Registrar interface {
	RegisterSideEffects(store *sideeffect.Store)
}

// Moded is implemented by steps whose behavior depends on the execution mode.
type Moded interface {
	SetMode(mode Mode)
}

// Executable is implemented by steps with a dedicated single-shot transform
// for ComputerMode.
type Executable interface {
	Execute(ctx context.Context, start *traverser.Traverser) ([]*traverser.Traverser, error)
}

// MapReducer is implemented by steps whose side effect must be merged across
// worker partitions after a distributed run.
type MapReducer interface {
	MapReduce() mapreduce.Task
}

// Engine describes the execution context a traversal is prepared for.
type Engine struct {
	Mode         Mode
	Capabilities traverser.Requirements
}

// StandardEngine returns a sequential engine supporting every requirement.
func StandardEngine() Engine {
	return Engine{
		Mode:         StandardMode,
		Capabilities: traverser.NewRequirements(traverser.AllRequirements...),
	}
}

// Supports reports whether the engine can guarantee req.
func (e Engine) Supports(req traverser.Requirement) bool {
	return e.Capabilities.Has(req)
}
