// SPDX-License-Identifier: MIT

// Package logging builds the logr.Logger injected into the engines.
//
// Engines log through logr; the sink is zap wrapped by zapr. Verbosity follows
// logr conventions: logger.V(logging.DEBUG).Info(msg, kv...).
package logging

import (
	"fmt"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Verbosity levels. logr has no warning severity: warnings are emitted at
// WARN (always on) and carry a "warning" key.
const (
	WARN  = 0
	DEBUG = 1
	TRACE = 2
)

// New returns a zap-backed logger. level is one of "error", "info", "debug"
// or "trace"; development switches to the console encoder.
func New(level string, development bool) (logr.Logger, error) {
	var zl zapcore.Level
	switch strings.ToLower(level) {
	case "error":
		zl = zapcore.ErrorLevel
	case "", "info":
		zl = zapcore.InfoLevel
	case "debug":
		zl = zapcore.Level(-DEBUG)
	case "trace":
		zl = zapcore.Level(-TRACE)
	default:
		return logr.Discard(), fmt.Errorf("logging: unknown level %q", level)
	}

	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(zl)
	z, err := cfg.Build()
	if err != nil {
		return logr.Discard(), fmt.Errorf("logging: %w", err)
	}

	return zapr.NewLogger(z), nil
}

// Discard returns the no-op logger used when none is injected.
func Discard() logr.Logger { return logr.Discard() }
