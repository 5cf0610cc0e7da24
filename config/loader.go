package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kbukum/graphstep/logger"
)

// EnvKeys are the configuration keys every binary reads from the
// environment. A key maps to its upper-cased form with dots replaced by
// underscores: engine.max_supersteps reads ENGINE_MAX_SUPERSTEPS. Keys not
// listed here or passed to WithEnvKeys are read from files only.
var EnvKeys = []string{
	"environment",
	"logging.level",
	"logging.format",
	"logging.output",
	"engine.mode",
	"engine.workers",
	"engine.max_supersteps",
	"engine.capabilities",
}

// FileSystem interface for file operations (useful for testing).
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// RealFileSystem implements FileSystem using actual file operations.
type RealFileSystem struct{}

func (rfs *RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (rfs *RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// Resolver finds the config.yml and .env files of a binary.
type Resolver struct {
	FileSystem FileSystem
}

// ResolvedFiles contains the resolved config and env file paths.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// ResolveFiles returns explicit paths if provided, otherwise the first
// match in SearchDirs.
func (cr *Resolver) ResolveFiles(serviceName string, opts LoaderConfig) ResolvedFiles {
	resolved := ResolvedFiles{
		ConfigFile: opts.ConfigFile,
		EnvFile:    opts.EnvFile,
	}
	dirs := SearchDirs(serviceName, opts.SearchDir)

	if resolved.ConfigFile == "" {
		resolved.ConfigFile = cr.first(dirs, "config.yml")
	}
	if resolved.EnvFile == "" {
		resolved.EnvFile = cr.first(dirs, ".env."+serviceName, ".env")
	}
	return resolved
}

func (cr *Resolver) first(dirs []string, names ...string) string {
	for _, dir := range dirs {
		for _, name := range names {
			path := filepath.Join(dir, name)
			if cr.FileSystem.Exists(path) {
				return path
			}
		}
	}
	return ""
}

// SearchDirs lists the directories searched for config files, in order:
// the extra directory (typically the one holding the scenario file), the
// working directory, ./config and ./cmd/<serviceName>.
func SearchDirs(serviceName, extra string) []string {
	var dirs []string
	if extra != "" {
		dirs = append(dirs, extra)
	}
	return append(dirs, ".", "config", filepath.Join("cmd", serviceName))
}

// LoaderConfig holds dependencies and optional file overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string   // Direct config file path (optional)
	EnvFile    string   // Direct env file path (optional)
	SearchDir  string   // Searched before the default locations (optional)
	EnvKeys    []string // Bound in addition to EnvKeys
}

// LoaderOption is a functional option for LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// WithSearchDir searches dir for config.yml and .env before the default
// locations.
func WithSearchDir(dir string) LoaderOption {
	return func(lc *LoaderConfig) { lc.SearchDir = dir }
}

// WithEnvKeys binds additional keys, such as a binary's own sections.
func WithEnvKeys(keys ...string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvKeys = append(lc.EnvKeys, keys...) }
}

// LoadConfig loads configuration for a binary into cfg. The config file
// provides the base values; the .env file and the process environment
// override the bound keys.
func LoadConfig(serviceName string, cfg any, opts ...LoaderOption) error {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.FileSystem == nil {
		lc.FileSystem = &RealFileSystem{}
	}

	resolver := &Resolver{FileSystem: lc.FileSystem}
	files := resolver.ResolveFiles(serviceName, lc)

	return loadFromResolvedFiles(serviceName, cfg, files, lc)
}

func loadFromResolvedFiles(serviceName string, cfg any, files ResolvedFiles, lc LoaderConfig) error {
	v := viper.New()

	if files.ConfigFile != "" && lc.FileSystem.Exists(files.ConfigFile) {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			logger.Warn("failed to load config file", logger.ErrorFields("config_load", err))
		}
	}

	// godotenv never overrides variables already set in the process.
	if files.EnvFile != "" && lc.FileSystem.Exists(files.EnvFile) {
		if err := lc.FileSystem.LoadEnv(files.EnvFile); err != nil {
			logger.Warn("failed to load env file", logger.ErrorFields("env_load", err))
		}
	}

	if err := bindEnv(v, append(append([]string(nil), EnvKeys...), lc.EnvKeys...)); err != nil {
		return err
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config for service %s: %w", serviceName, err)
	}
	return nil
}

// EnvName returns the environment variable bound to key.
func EnvName(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// bindEnv registers keys with v so that Unmarshal sees environment values
// even when the config file does not mention the key.
func bindEnv(v *viper.Viper, keys []string) error {
	for _, key := range keys {
		if err := v.BindEnv(key, EnvName(key)); err != nil {
			return fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	return nil
}
