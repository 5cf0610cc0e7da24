package traversal

import (
	"context"

	"github.com/kbukum/graphstep/traverser"
)

// Algorithms is the pair of routines a dual-mode step implements.
type Algorithms interface {
	// StandardAlgorithm produces the next output by pulling upstream as
	// needed. It returns errors.ErrExhausted when upstream is drained and no
	// pending output remains.
	StandardAlgorithm(ctx context.Context) (*traverser.Traverser, error)
	// ComputerAlgorithm transforms exactly one input into a finite ordered
	// set of outputs without retaining state between calls.
	ComputerAlgorithm(ctx context.Context, start *traverser.Traverser) ([]*traverser.Traverser, error)
}

// ComputerAware drives Algorithms under the current Mode.
type ComputerAware struct {
	Base
	mode Mode
	ends []*traverser.Traverser
}

// NewComputerAware returns a standard-mode base with a fresh ID.
func NewComputerAware() ComputerAware {
	return ComputerAware{Base: NewBase()}
}

// SetMode switches the execution model.
func (c *ComputerAware) SetMode(mode Mode) { c.mode = mode }

// Mode returns the execution model.
func (c *ComputerAware) Mode() Mode { return c.mode }

// Produce returns the next output of algs under the current mode. In
// ComputerMode it applies ComputerAlgorithm to one start at a time and
// serves its outputs in order.
func (c *ComputerAware) Produce(ctx context.Context, algs Algorithms) (*traverser.Traverser, error) {
	if c.mode == StandardMode {
		return algs.StandardAlgorithm(ctx)
	}
	for {
		if len(c.ends) > 0 {
			t := c.ends[0]
			c.ends[0] = nil
			c.ends = c.ends[1:]
			return t, nil
		}
		start, err := c.starts.Next(ctx)
		if err != nil {
			return nil, err
		}
		ends, err := algs.ComputerAlgorithm(ctx, start)
		if err != nil {
			return nil, err
		}
		c.ends = ends
	}
}

// Reset drops queued starts, the lookahead and pending computer outputs.
func (c *ComputerAware) Reset() {
	c.Base.Reset()
	c.ends = nil
}

// Fresh returns a copy with the same ID and mode and no progress.
func (c *ComputerAware) Fresh() ComputerAware {
	return ComputerAware{Base: c.Base.Fresh(), mode: c.mode}
}
