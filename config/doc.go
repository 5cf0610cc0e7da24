// Package config loads and validates configuration for graphstep binaries.
//
// LoadConfig resolves a config.yml and an optional .env file for a named
// binary, reads them with Viper, binds the EnvKeys environment variables and
// unmarshals the result. ServiceConfig carries the fields every
// binary shares; EngineConfig configures traversal execution.
//
// # Usage
//
//	var cfg MyConfig
//	err := config.LoadConfig("graphstep", &cfg, config.WithConfigFile(path))
//
// Bound environment variables override file values using underscore-separated
// paths (e.g., ENGINE_WORKERS). A binary binds its own sections with
// WithEnvKeys, and WithSearchDir looks next to an input file first.
package config
