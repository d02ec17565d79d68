// Package logger provides namespaced, stderr-only logging for just-mcp.
// Stdout is reserved for the JSON-RPC transport, so every logger writes to
// stderr. Namespaces are filtered the same way the `DEBUG`/`RUST_LOG`
// environment variables gate output in the tools this was modeled on: a
// comma-separated list of glob-style namespace patterns in JUST_MCP_LOG
// (falling back to RUST_LOG for compatibility with existing operator muscle
// memory) enables matching loggers at debug level.
package logger

import (
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"
	"sync"
)

var (
	mu         sync.RWMutex
	filters    []string
	baseLevel  = slog.LevelInfo
	jsonLogs   bool
	configured bool
)

// Configure sets the process-wide log level and output format. It must be
// called once at startup. New reads these settings when a Logger is
// created, so a Logger created before Configure runs keeps the defaults.
func Configure(level slog.Level, useJSON bool) {
	mu.Lock()
	defer mu.Unlock()
	baseLevel = level
	jsonLogs = useJSON
	if env := firstNonEmpty(os.Getenv("JUST_MCP_LOG"), os.Getenv("RUST_LOG")); env != "" {
		filters = strings.Split(env, ",")
	}
	configured = true
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// Logger is a namespaced wrapper around log/slog. It mirrors the call shape
// (New, Printf) used throughout the CLI that this server is modeled on.
type Logger struct {
	name   string
	slog   *slog.Logger
	debug  bool
}

// New creates a namespaced logger, e.g. logger.New("mcp:server").
func New(name string) *Logger {
	mu.RLock()
	level := baseLevel
	useJSON := jsonLogs
	enabled := namespaceEnabled(name)
	mu.RUnlock()
	if enabled {
		level = slog.LevelDebug
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if useJSON {
		handler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	return &Logger{
		name:  name,
		slog:  slog.New(handler).With("component", name),
		debug: enabled,
	}
}

func namespaceEnabled(name string) bool {
	mu.RLock()
	patterns := filters
	mu.RUnlock()
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if ok, _ := path.Match(p, name); ok {
			return true
		}
	}
	return false
}

// Printf logs a formatted message at info level (or debug level if the
// namespace was explicitly enabled via JUST_MCP_LOG/RUST_LOG).
func (l *Logger) Printf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if l.debug {
		l.slog.Debug(msg)
		return
	}
	l.slog.Info(msg)
}

// Warn logs a formatted message at warn level.
func (l *Logger) Warn(format string, args ...any) {
	l.slog.Warn(fmt.Sprintf(format, args...))
}

// Error logs a formatted message at error level.
func (l *Logger) Error(format string, args ...any) {
	l.slog.Error(fmt.Sprintf(format, args...))
}

// Debug logs a formatted message at debug level unconditionally.
func (l *Logger) Debug(format string, args ...any) {
	l.slog.Debug(fmt.Sprintf(format, args...))
}

// Slog returns the underlying *slog.Logger for libraries (like the MCP SDK)
// that want a standard logging interface rather than this package's Printf
// shape.
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}
