package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/kbukum/graphstep/computer"
	"github.com/kbukum/graphstep/config"
	"github.com/kbukum/graphstep/logger"
	"github.com/kbukum/graphstep/observability"
	"github.com/kbukum/graphstep/sideeffect"
	"github.com/kbukum/graphstep/traversal"
	"github.com/kbukum/graphstep/traverser"
)

type runFlags struct {
	file       string
	configFile string
	mode       string
	workers    int
	output     string
}

// Report is the printed outcome of a run.
type Report struct {
	Scenario    string            `json:"scenario,omitempty" yaml:"scenario,omitempty"`
	Mode        string            `json:"mode" yaml:"mode"`
	Supersteps  int               `json:"supersteps,omitempty" yaml:"supersteps,omitempty"`
	Traversers  []TraverserReport `json:"traversers" yaml:"traversers"`
	SideEffects map[string]any    `json:"side_effects,omitempty" yaml:"side_effects,omitempty"`
}

// TraverserReport is one output traverser.
type TraverserReport struct {
	Value any   `json:"value" yaml:"value"`
	Bulk  int64 `json:"bulk" yaml:"bulk"`
}

func newRunCmd() *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a traversal scenario",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScenario(cmd, &flags)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&flags.file, "file", "f", "", "Scenario YAML file (required)")
	f.StringVarP(&flags.configFile, "config", "c", "", "Config file (default: config.yml next to the scenario, then ., ./config, ./cmd/graphstep)")
	f.StringVar(&flags.mode, "mode", "", "Engine mode: standard or computer (overrides config)")
	f.IntVar(&flags.workers, "workers", 0, "Computer-mode worker count (overrides config)")
	f.StringVarP(&flags.output, "output", "o", "json", "Output format: json or yaml")

	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runScenario(cmd *cobra.Command, flags *runFlags) error {
	cfg, err := loadConfig(flags.configFile, flags.file)
	if err != nil {
		return err
	}
	if flags.mode != "" {
		cfg.Engine.Mode = flags.mode
	}
	if flags.workers != 0 {
		cfg.Engine.Workers = flags.workers
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger.Init(cfg.Logging)

	sc, err := LoadScenario(flags.file)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	metrics, shutdown, err := setupTelemetry(ctx, cfg)
	if err != nil {
		return err
	}
	defer shutdown()

	report, err := Execute(ctx, sc, cfg.Engine, metrics)
	if err != nil {
		return err
	}
	return writeReport(cmd.OutOrStdout(), flags.output, report)
}

// Execute builds the scenario and runs it on the engine cfg selects.
func Execute(ctx context.Context, sc *Scenario, cfg config.EngineConfig, metrics *observability.TraversalMetrics) (*Report, error) {
	cfg.ApplyDefaults()
	t, starts, err := sc.Build()
	if err != nil {
		return nil, err
	}
	report := &Report{Scenario: sc.Name, Mode: cfg.Mode}

	if cfg.Mode == config.ModeComputer {
		engine, err := computer.New(cfg, computer.WithMetrics(metrics))
		if err != nil {
			return nil, err
		}
		res, err := engine.Submit(ctx, t, starts...)
		if err != nil {
			return nil, err
		}
		report.Supersteps = res.Supersteps
		report.Traversers = toReports(res.Traversers)
		report.SideEffects = res.SideEffects.Snapshot()
		return report, nil
	}

	out, store, err := collect(ctx, t, starts, cfg, metrics)
	if err != nil {
		return nil, err
	}
	report.Traversers = toReports(out)
	report.SideEffects = store.Snapshot()
	return report, nil
}

// collect drains t sequentially inside a traced operation.
func collect(ctx context.Context, t *traversal.Traversal, starts []*traverser.Traverser, cfg config.EngineConfig, metrics *observability.TraversalMetrics) (out []*traverser.Traverser, store *sideeffect.Store, err error) {
	log := logger.Get(logger.ComponentRun).WithFields(logger.Fields(logger.FieldMode, cfg.Mode))
	op := observability.NewOperation(serviceName, "collect", traversal.StandardMode.String(), 1, metrics)
	ctx, span := op.Start(ctx, observability.SpanCollect)
	defer func() {
		if err != nil {
			log.WithError(err).Error("traversal failed")
		}
		op.End(ctx, span, err)
	}()

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	if err := t.Prepare(traversal.Engine{Mode: traversal.StandardMode, Capabilities: cfg.Requirements()}); err != nil {
		return nil, nil, err
	}
	for _, s := range starts {
		t.AddStart(s)
	}
	out, err = t.Collect(ctx)
	if err != nil {
		return nil, nil, err
	}
	metrics.RecordProcessed(ctx, 0, int64(len(out)))
	log.Debug("scenario complete", logger.Fields(
		logger.FieldCount, len(out),
		logger.FieldDuration, op.Duration().Milliseconds(),
	))
	return out, t.SideEffects(), nil
}

func toReports(ts []*traverser.Traverser) []TraverserReport {
	out := make([]TraverserReport, len(ts))
	for i, t := range ts {
		out[i] = TraverserReport{Value: t.Get(), Bulk: t.Bulk()}
	}
	return out
}

func writeReport(w io.Writer, format string, r *Report) error {
	switch format {
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
