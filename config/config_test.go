package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	apperrors "github.com/kbukum/graphstep/errors"
	"github.com/kbukum/graphstep/traverser"
)

func TestServiceConfigApplyDefaults(t *testing.T) {
	t.Run("empty environment defaults to development", func(t *testing.T) {
		cfg := ServiceConfig{Name: "svc"}
		cfg.ApplyDefaults()
		if cfg.Environment != "development" {
			t.Errorf("expected 'development', got %q", cfg.Environment)
		}
		if !cfg.Debug {
			t.Error("expected debug=true for development")
		}
		if cfg.Logging.Level != "debug" {
			t.Errorf("expected debug logging in development, got %q", cfg.Logging.Level)
		}
	})

	t.Run("production environment keeps debug false", func(t *testing.T) {
		cfg := ServiceConfig{Name: "svc", Environment: "production"}
		cfg.ApplyDefaults()
		if cfg.Debug {
			t.Error("expected debug=false for production")
		}
		if cfg.Logging.Level != "info" {
			t.Errorf("expected info logging, got %q", cfg.Logging.Level)
		}
	})
}

func TestServiceConfigValidate(t *testing.T) {
	valid := func(env string) ServiceConfig {
		cfg := ServiceConfig{Name: "svc", Environment: env}
		cfg.ApplyDefaults()
		return cfg
	}
	badLogging := valid("staging")
	badLogging.Logging.Level = "loud"

	tests := []struct {
		name    string
		cfg     ServiceConfig
		wantErr bool
		errMsg  string
	}{
		{"valid development", valid("development"), false, ""},
		{"valid staging", valid("staging"), false, ""},
		{"valid production", valid("production"), false, ""},
		{"missing name", ServiceConfig{Environment: "production"}, true, "config.name is required"},
		{"invalid environment", ServiceConfig{Name: "svc", Environment: "invalid"}, true, "config.environment must be one of"},
		{"invalid logging", badLogging, true, "config.logging"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !strings.Contains(err.Error(), tc.errMsg) {
					t.Errorf("expected error containing %q, got %q", tc.errMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestEngineConfigDefaults(t *testing.T) {
	var cfg EngineConfig
	cfg.ApplyDefaults()
	if cfg.Mode != ModeStandard || cfg.Workers != 4 || cfg.MaxSupersteps != 10000 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	reqs := cfg.Requirements()
	for _, req := range traverser.AllRequirements {
		if !reqs.Has(req) {
			t.Errorf("default capabilities miss %s", req)
		}
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestEngineConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		cfg    EngineConfig
		errMsg string
	}{
		{"bad mode", EngineConfig{Mode: "parallel", Workers: 1, MaxSupersteps: 1, Capabilities: []string{"BULK"}}, "mode"},
		{"no workers", EngineConfig{Mode: ModeComputer, Workers: -1, MaxSupersteps: 1, Capabilities: []string{"BULK"}}, "workers"},
		{"unknown capability", EngineConfig{Mode: ModeComputer, Workers: 2, MaxSupersteps: 1, Capabilities: []string{"TELEPORT"}}, "capabilities"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if !apperrors.HasCode(err, apperrors.ErrCodeInvalidInput) {
				t.Fatalf("expected INVALID_INPUT, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.errMsg) {
				t.Errorf("expected error mentioning %q, got %q", tc.errMsg, err.Error())
			}
		})
	}
}

func TestEngineConfigRestrictedCapabilities(t *testing.T) {
	cfg := EngineConfig{Capabilities: []string{"OBJECT", "SIDE_EFFECTS"}}
	cfg.ApplyDefaults()
	reqs := cfg.Requirements()
	if reqs.Has(traverser.Bulk) {
		t.Error("explicit capability list must not be widened")
	}
	if !reqs.Has(traverser.Object) || !reqs.Has(traverser.SideEffects) {
		t.Errorf("unexpected requirements %v", reqs.Sorted())
	}
}

func TestLoadConfigWithYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")

	yamlContent := `
name: test-service
environment: staging
version: "1.0.0"
engine:
  mode: computer
  workers: 3
  capabilities: [BULK, OBJECT]
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	type TestConfig struct {
		ServiceConfig `yaml:",inline" mapstructure:",squash"`
		Engine        EngineConfig `yaml:"engine" mapstructure:"engine"`
	}

	var cfg TestConfig
	err := LoadConfig("test-service", &cfg, WithConfigFile(configPath))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Name != "test-service" {
		t.Errorf("expected name 'test-service', got %q", cfg.Name)
	}
	if cfg.Environment != "staging" {
		t.Errorf("expected environment 'staging', got %q", cfg.Environment)
	}
	if cfg.Engine.Mode != ModeComputer || cfg.Engine.Workers != 3 {
		t.Errorf("unexpected engine config %+v", cfg.Engine)
	}
	if len(cfg.Engine.Capabilities) != 2 {
		t.Errorf("expected two capabilities, got %v", cfg.Engine.Capabilities)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	type TestConfig struct {
		Engine EngineConfig `yaml:"engine" mapstructure:"engine"`
	}

	var cfg TestConfig
	// With no config file found, LoadConfig should still succeed (just empty config)
	err := LoadConfig("nonexistent-service", &cfg, WithConfigFile("/nonexistent/path.yml"))
	if err != nil {
		t.Fatalf("expected LoadConfig to succeed with missing file, got %v", err)
	}
}

func TestResolverWithMockFS(t *testing.T) {
	tests := []struct {
		name      string
		files     []string
		searchDir string
		want      ResolvedFiles
	}{
		{
			name:  "cmd directory",
			files: []string{"cmd/graphstep/config.yml"},
			want:  ResolvedFiles{ConfigFile: "cmd/graphstep/config.yml"},
		},
		{
			name:  "working directory wins over cmd",
			files: []string{"config.yml", "cmd/graphstep/config.yml", ".env"},
			want:  ResolvedFiles{ConfigFile: "config.yml", EnvFile: ".env"},
		},
		{
			name:      "scenario directory wins",
			files:     []string{"config.yml", "scenarios/config.yml", "scenarios/.env.graphstep", "scenarios/.env"},
			searchDir: "scenarios",
			want:      ResolvedFiles{ConfigFile: "scenarios/config.yml", EnvFile: "scenarios/.env.graphstep"},
		},
		{
			name:      "falls back when the scenario directory has none",
			files:     []string{"config/config.yml"},
			searchDir: "scenarios",
			want:      ResolvedFiles{ConfigFile: "config/config.yml"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fs := &mockFS{files: make(map[string]bool)}
			for _, f := range tc.files {
				fs.files[f] = true
			}
			resolver := &Resolver{FileSystem: fs}
			got := resolver.ResolveFiles("graphstep", LoaderConfig{SearchDir: tc.searchDir})
			if got != tc.want {
				t.Errorf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestResolverExplicitFiles(t *testing.T) {
	fs := &mockFS{files: map[string]bool{"config.yml": true}}
	resolver := &Resolver{FileSystem: fs}
	got := resolver.ResolveFiles("graphstep", LoaderConfig{ConfigFile: "/etc/g.yml", EnvFile: "/etc/g.env"})
	if got.ConfigFile != "/etc/g.yml" || got.EnvFile != "/etc/g.env" {
		t.Errorf("explicit paths not kept: %+v", got)
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool   { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }

func TestLoadConfigEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	yamlContent := `
name: from-file
engine:
  mode: standard
  workers: 2
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv("ENGINE_WORKERS", "7")
	t.Setenv("ENGINE_MAX_SUPERSTEPS", "12")
	t.Setenv("ENGINE_CAPABILITIES", "BULK,OBJECT")
	t.Setenv("TELEMETRY_ENDPOINT", "collector:4318")

	type telemetry struct {
		Endpoint string `mapstructure:"endpoint"`
	}
	type TestConfig struct {
		ServiceConfig `yaml:",inline" mapstructure:",squash"`
		Engine        EngineConfig `mapstructure:"engine"`
		Telemetry     telemetry    `mapstructure:"telemetry"`
	}

	var cfg TestConfig
	if err := LoadConfig("graphstep", &cfg, WithConfigFile(configPath), WithEnvKeys("telemetry.endpoint")); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Name != "from-file" || cfg.Engine.Mode != ModeStandard {
		t.Errorf("file values lost: %+v", cfg)
	}
	if cfg.Engine.Workers != 7 || cfg.Engine.MaxSupersteps != 12 {
		t.Errorf("env did not override engine: %+v", cfg.Engine)
	}
	if len(cfg.Engine.Capabilities) != 2 || cfg.Engine.Capabilities[1] != "OBJECT" {
		t.Errorf("capabilities = %v", cfg.Engine.Capabilities)
	}
	if cfg.Telemetry.Endpoint != "collector:4318" {
		t.Errorf("telemetry endpoint = %q", cfg.Telemetry.Endpoint)
	}
}

func TestLoadConfigSearchDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yml"), []byte("name: beside-scenario\n"), 0644); err != nil {
		t.Fatal(err)
	}
	var cfg ServiceConfig
	if err := LoadConfig("graphstep", &cfg, WithSearchDir(dir)); err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "beside-scenario" {
		t.Errorf("name = %q, want the file next to the scenario", cfg.Name)
	}
}

func TestEnvName(t *testing.T) {
	tests := map[string]string{
		"engine.max_supersteps": "ENGINE_MAX_SUPERSTEPS",
		"telemetry.enabled":     "TELEMETRY_ENABLED",
		"name":                  "NAME",
	}
	for key, want := range tests {
		if got := EnvName(key); got != want {
			t.Errorf("EnvName(%q) = %q, want %q", key, got, want)
		}
	}
}

func TestWithFileSystemOption(t *testing.T) {
	var lc LoaderConfig
	fs := &mockFS{}
	WithFileSystem(fs)(&lc)
	if lc.FileSystem == nil {
		t.Error("expected FileSystem to be set")
	}
}

func TestWithConfigFileOption(t *testing.T) {
	var lc LoaderConfig
	WithConfigFile("/path/to/config.yml")(&lc)
	if lc.ConfigFile != "/path/to/config.yml" {
		t.Errorf("expected config file path, got %q", lc.ConfigFile)
	}
}

func TestWithEnvFileOption(t *testing.T) {
	var lc LoaderConfig
	WithEnvFile("/path/to/.env")(&lc)
	if lc.EnvFile != "/path/to/.env" {
		t.Errorf("expected env file path, got %q", lc.EnvFile)
	}
}

func TestWithSearchDirAndEnvKeysOptions(t *testing.T) {
	var lc LoaderConfig
	WithSearchDir("scenarios")(&lc)
	WithEnvKeys("a.b")(&lc)
	WithEnvKeys("c")(&lc)
	if lc.SearchDir != "scenarios" {
		t.Errorf("search dir = %q", lc.SearchDir)
	}
	if len(lc.EnvKeys) != 2 || lc.EnvKeys[1] != "c" {
		t.Errorf("env keys = %v", lc.EnvKeys)
	}
}
