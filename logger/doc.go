// Package logger provides structured logging for tomoflow using zerolog.
//
// Loggers are scoped by component (driver, chain, storage, ...) and carry
// pipeline fields such as the stage identifier, dataset name and backing
// file. A run identifier placed on the context with ContextWithRunID is
// attached by WithContext.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("driver")
//	log.Info("stage resolved", logger.StageFields(id, 1))
package logger
