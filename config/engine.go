package config

import (
	"github.com/kbukum/graphstep/traverser"
	"github.com/kbukum/graphstep/validation"
)

// Engine modes accepted by EngineConfig.Mode.
const (
	ModeStandard = "standard"
	ModeComputer = "computer"
)

// EngineConfig configures how traversals are executed.
type EngineConfig struct {
	Mode          string   `yaml:"mode" mapstructure:"mode" validate:"oneof=standard computer"`
	Workers       int      `yaml:"workers" mapstructure:"workers" validate:"gte=1,lte=1024"`
	MaxSupersteps int      `yaml:"max_supersteps" mapstructure:"max_supersteps" validate:"gte=1"`
	Capabilities  []string `yaml:"capabilities" mapstructure:"capabilities" validate:"dive,oneof=BULK SIDE_EFFECTS OBJECT LOCAL_TRAVERSAL"`
}

// ApplyDefaults fills unset fields. An empty capability list means the engine
// supports every requirement.
func (c *EngineConfig) ApplyDefaults() {
	if c.Mode == "" {
		c.Mode = ModeStandard
	}
	if c.Workers == 0 {
		c.Workers = 4
	}
	if c.MaxSupersteps == 0 {
		c.MaxSupersteps = 10000
	}
	if len(c.Capabilities) == 0 {
		for _, req := range traverser.AllRequirements {
			c.Capabilities = append(c.Capabilities, string(req))
		}
	}
}

// Validate checks the struct tags.
func (c *EngineConfig) Validate() error {
	return validation.Validate(c)
}

// Requirements returns the capability list as a requirement set.
func (c *EngineConfig) Requirements() traverser.Requirements {
	reqs := traverser.NewRequirements()
	for _, name := range c.Capabilities {
		reqs.Add(traverser.Requirement(name))
	}
	return reqs
}
