// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package log wraps log/slog with the run/step/strategy context fields
// the scheduler and resolver bridge attach to every line, so a host
// application can correlate a poll's log output with the run, step, and
// selector key it came from.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format represents the log output format.
type Format string

const (
	// FormatJSON outputs logs in JSON format for machine parsing.
	FormatJSON Format = "json"
	// FormatText outputs logs in human-readable text format.
	FormatText Format = "text"
)

// LevelTrace is more verbose than Debug. The wait scheduler uses it for
// per-poll detail (a predicate's raw snapshot on every tick) that would
// otherwise drown out Debug-level run/step lifecycle logging.
const LevelTrace = slog.Level(-8)

// Standard field keys, shared so a host application's log pipeline can
// index on them without coupling to this package's helper names.
const (
	// RunIDKey is the field key for workflow run identifiers.
	RunIDKey = "run_id"
	// StepIDKey is the field key for workflow step identifiers.
	StepIDKey = "step_id"
	// SelectorKeyKey is the field key for the logical selector key a
	// resolve() call or wait targets.
	SelectorKeyKey = "selector_key"
	// StrategyKey is the field key for the selector fallback strategy
	// that resolved a logical key (role, css, xpath, ...).
	StrategyKey = "strategy"
	// WorkflowKey is the field key for workflow definition IDs.
	WorkflowKey = "workflow"
)

// Config holds the logging configuration.
type Config struct {
	// Level sets the minimum log level (trace, debug, info, warn, error).
	// Default: info
	Level string

	// Format sets the output format (json, text).
	// Default: json
	Format Format

	// Output is the writer for log output.
	// Default: os.Stderr
	Output io.Writer

	// AddSource adds source file and line information to logs.
	// Default: false
	AddSource bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Level:     "info",
		Format:    FormatJSON,
		Output:    os.Stderr,
		AddSource: false,
	}
}

// FromEnv creates a Config from environment variables, the same
// WAITCORE_* convention internal/waitconfig.FromEnv uses for timing:
//   - WAITCORE_DEBUG: true/1 enables debug level and source logging (takes precedence)
//   - WAITCORE_LOG_LEVEL: trace, debug, info, warn, error (takes precedence over LOG_LEVEL)
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, text (default: json)
//   - LOG_SOURCE: 1 to enable source file/line (default: 0)
func FromEnv() *Config {
	cfg := DefaultConfig()

	debug := os.Getenv("WAITCORE_DEBUG")
	if debug == "true" || debug == "1" {
		cfg.Level = "debug"
		cfg.AddSource = true
	}

	if debug != "true" && debug != "1" {
		if level := os.Getenv("WAITCORE_LOG_LEVEL"); level != "" {
			cfg.Level = strings.ToLower(level)
		} else if level := os.Getenv("LOG_LEVEL"); level != "" {
			cfg.Level = strings.ToLower(level)
		}
	}

	if format := os.Getenv("LOG_FORMAT"); format != "" {
		cfg.Format = Format(strings.ToLower(format))
	}

	if os.Getenv("LOG_SOURCE") == "1" {
		cfg.AddSource = true
	}

	return cfg
}

// New creates a new structured logger from the given configuration.
func New(cfg *Config) *slog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	switch cfg.Format {
	case FormatText:
		handler = slog.NewTextHandler(cfg.Output, opts)
	case FormatJSON:
		fallthrough
	default:
		handler = slog.NewJSONHandler(cfg.Output, opts)
	}

	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithRunContext returns a new logger tagged with a run's id and the
// workflow definition it is executing.
func WithRunContext(logger *slog.Logger, runID, workflowName string) *slog.Logger {
	return logger.With(
		slog.String(RunIDKey, runID),
		slog.String(WorkflowKey, workflowName),
	)
}

// WithStepContext returns a new logger tagged with a step's run and
// step id, for lines emitted during one atomic step attempt.
func WithStepContext(logger *slog.Logger, runID, stepID string) *slog.Logger {
	return logger.With(
		slog.String(RunIDKey, runID),
		slog.String(StepIDKey, stepID),
	)
}

// WithSelectorKey returns a new logger tagged with the logical selector
// key a resolve() call is targeting, for resolver bridge log lines.
func WithSelectorKey(logger *slog.Logger, key string) *slog.Logger {
	return logger.With(slog.String(SelectorKeyKey, key))
}

// WithStrategy returns a new logger with the resolved fallback strategy
// attached, for resolver-bridge log lines that report which strategy
// satisfied a logical key.
func WithStrategy(logger *slog.Logger, strategy string) *slog.Logger {
	return logger.With(slog.String(StrategyKey, strategy))
}

// Trace logs a message at LevelTrace, for per-poll detail (a
// predicate's raw snapshot, a resolver attempt's element count) that
// would be too noisy at Debug.
func Trace(logger *slog.Logger, msg string, args ...any) {
	if logger == nil || !logger.Enabled(nil, LevelTrace) {
		return
	}
	logger.Log(nil, LevelTrace, msg, args...)
}
