// Package logging provides structured logging configuration for oasgate.
//
// This package wraps log/slog to provide consistent logging across all
// oasgate components. It supports configurable log levels and output formats.
//
// # Usage
//
// Create a logger with desired configuration:
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelInfo,
//	    Format: logging.FormatText,
//	})
//
//	logger.Info("gateway started", "listen", ":8080")
//	logger.Error("upstream unreachable", "error", err)
//
// # Integration
//
// Components should accept a *slog.Logger in their constructor or via a
// setter. If no logger is provided, use logging.Nop() for a no-op logger.
// WithRequestID derives a per-request logger so validation failures can be
// correlated with the request that produced them.
package logging
