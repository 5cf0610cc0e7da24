package main

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/kbukum/graphstep/branch"
	apperrors "github.com/kbukum/graphstep/errors"
	"github.com/kbukum/graphstep/groupcount"
	"github.com/kbukum/graphstep/traversal"
	"github.com/kbukum/graphstep/traverser"
	"github.com/kbukum/graphstep/validation"
)

// Step types accepted in a scenario.
const (
	stepMap        = "map"
	stepFilter     = "filter"
	stepBranch     = "branch"
	stepGroupCount = "group_count"
)

var stepTypes = []string{stepMap, stepFilter, stepBranch, stepGroupCount}

// Reserved branch picks.
const (
	pickAny  = "any"
	pickNone = "none"
)

// Scenario describes a traversal and its inputs.
type Scenario struct {
	Name   string     `yaml:"name"`
	Inputs []Input    `yaml:"inputs"`
	Steps  []StepSpec `yaml:"steps"`
}

// Input is one start traverser. Bulk defaults to 1.
type Input struct {
	Value any   `yaml:"value"`
	Bulk  int64 `yaml:"bulk"`
}

// StepSpec describes one step. Which fields apply depends on Type.
type StepSpec struct {
	Type       string       `yaml:"type"`
	Transform  string       `yaml:"transform,omitempty"`
	Classifier string       `yaml:"classifier,omitempty"`
	Equals     string       `yaml:"equals,omitempty"`
	Key        string       `yaml:"key,omitempty"`
	Options    []OptionSpec `yaml:"options,omitempty"`
}

// OptionSpec is a branch option. Pick "any" matches every traverser and
// "none" matches those no other pick claims.
type OptionSpec struct {
	Pick  string     `yaml:"pick"`
	Steps []StepSpec `yaml:"steps"`
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.InvalidInput("file", "read scenario: "+err.Error()).WithCause(err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates a YAML scenario.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, apperrors.InvalidInput("scenario", "decode scenario: "+err.Error()).WithCause(err)
	}
	for i := range sc.Inputs {
		if sc.Inputs[i].Bulk == 0 {
			sc.Inputs[i].Bulk = 1
		}
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate reports every invalid field at once.
func (sc *Scenario) Validate() error {
	v := validation.New()
	for i, in := range sc.Inputs {
		v.Custom(in.Bulk > 0, fmt.Sprintf("inputs[%d].bulk", i), "must be positive")
	}
	validateSteps(v, "steps", sc.Steps)
	return v.Err()
}

func validateSteps(v *validation.Validator, prefix string, steps []StepSpec) {
	for i, s := range steps {
		field := fmt.Sprintf("%s[%d]", prefix, i)
		v.Required(field+".type", s.Type).OneOf(field+".type", s.Type, stepTypes)
		v.OneOf(field+".classifier", s.Classifier, classifierNames)
		switch s.Type {
		case stepMap:
			v.Required(field+".transform", s.Transform).OneOf(field+".transform", s.Transform, transformNames)
		case stepFilter:
			v.Required(field+".equals", s.Equals)
		case stepBranch:
			v.Custom(len(s.Options) > 0, field+".options", "at least one option is required")
			for j, opt := range s.Options {
				opField := fmt.Sprintf("%s.options[%d]", field, j)
				v.Required(opField+".pick", opt.Pick)
				validateSteps(v, opField+".steps", opt.Steps)
			}
		}
	}
}

// Build assembles the traversal and its start traversers.
func (sc *Scenario) Build() (*traversal.Traversal, []*traverser.Traverser, error) {
	steps, err := buildSteps(sc.Steps)
	if err != nil {
		return nil, nil, err
	}
	t := traversal.New(append([]traversal.Step{traversal.NewStart()}, steps...)...)
	starts := make([]*traverser.Traverser, len(sc.Inputs))
	for i, in := range sc.Inputs {
		starts[i] = traverser.New(in.Value, in.Bulk)
	}
	return t, starts, nil
}

func buildSteps(specs []StepSpec) ([]traversal.Step, error) {
	steps := make([]traversal.Step, 0, len(specs))
	for _, s := range specs {
		step, err := buildStep(s)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func buildStep(s StepSpec) (traversal.Step, error) {
	switch s.Type {
	case stepMap:
		return traversal.NewMap(transformFunc(s.Transform)), nil
	case stepFilter:
		return traversal.NewFilter(predicate(s.Classifier, s.Equals)), nil
	case stepGroupCount:
		return groupcount.New(s.Key, classifierLambda(s.Classifier)), nil
	case stepBranch:
		b := branch.New(branch.ByValue(classifierLambda(s.Classifier)))
		for _, opt := range s.Options {
			steps, err := buildSteps(opt.Steps)
			if err != nil {
				return nil, err
			}
			if err := b.AddOption(parsePick(opt.Pick), traversal.New(steps...)); err != nil {
				return nil, err
			}
		}
		return b, nil
	default:
		return nil, apperrors.InvalidInput("type", fmt.Sprintf("unknown step type %q", s.Type))
	}
}

func parsePick(p string) branch.Pick[string] {
	switch p {
	case pickAny:
		return branch.Any[string]()
	case pickNone:
		return branch.None[string]()
	default:
		return branch.Key(p)
	}
}
