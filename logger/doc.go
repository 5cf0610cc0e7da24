// Package logger provides structured logging for graphstep using zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers carrying traversal fields (step, worker,
// superstep).
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get(logger.ComponentComputer)
//	log.Debug("superstep done", logger.Fields(logger.FieldSuperstep, 3))
package logger
