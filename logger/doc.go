// Package logger provides structured logging using zerolog.
//
// It supports JSON and console output, level configuration and
// component-scoped loggers kept in a named registry. Stage runnables fetch
// their logger with Get("link"); packet sinks may own stdout, so logs go to
// stderr unless configured otherwise.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//	  output: "stderr"
//
// # Usage
//
//	log := logger.Get("scheduler")
//	log.Info("pipeline started", logger.Fields(logger.FieldRunID, id))
package logger
