// Package resources enforces concurrency, timeout, and output-size limits
// on recipe execution (spec component C4).
package resources

import (
	"os/exec"
	"sync/atomic"
	"time"

	"github.com/toolprint/just-mcp/pkg/justerr"
	"github.com/toolprint/just-mcp/pkg/logger"
)

// Limits configures a Manager. The zero value is not usable; use
// DefaultLimits.
type Limits struct {
	// MaxExecutionTime bounds how long a single recipe may run.
	MaxExecutionTime time.Duration
	// MaxMemoryBytes, if set, is passed to the platform hook.
	MaxMemoryBytes *uint64
	// MaxCPUPercent, if set (0-100), is passed to the platform hook.
	MaxCPUPercent *uint8
	// MaxConcurrentExecutions bounds in-flight recipe runs.
	MaxConcurrentExecutions int
	// MaxOutputSize bounds combined stdout+stderr bytes.
	MaxOutputSize int
	// EnforceHardLimits, when true, makes an output-size overrun an error
	// rather than a warning.
	EnforceHardLimits bool
}

// DefaultLimits mirrors the reference implementation's defaults: a 5 minute
// timeout, no memory/CPU cap, 10 concurrent executions, a 10 MiB output
// cap, and hard enforcement on.
func DefaultLimits() Limits {
	return Limits{
		MaxExecutionTime:        300 * time.Second,
		MaxConcurrentExecutions: 10,
		MaxOutputSize:           10 * 1024 * 1024,
		EnforceHardLimits:       true,
	}
}

// Manager tracks in-flight execution count against Limits and validates
// output size. It never blocks: CanExecute is a fail-fast admission check,
// not a semaphore wait.
type Manager struct {
	limits  Limits
	current atomic.Int64
	log     *logger.Logger
}

// New builds a Manager with the given Limits.
func New(limits Limits) *Manager {
	return &Manager{limits: limits, log: logger.New("resources")}
}

// WithDefault builds a Manager using DefaultLimits.
func WithDefault() *Manager { return New(DefaultLimits()) }

// CanExecute reports whether a new execution may start. It performs no
// side effect; callers that proceed must call StartExecution immediately
// after to claim a slot.
func (m *Manager) CanExecute() error {
	if int(m.current.Load()) >= m.limits.MaxConcurrentExecutions {
		return justerr.New(justerr.KindTooManyExecutions,
			"maximum concurrent executions (%d) reached", m.limits.MaxConcurrentExecutions)
	}
	return nil
}

// StartExecution increments the in-flight counter and returns a guard whose
// Release (call via defer) decrements it. It does not re-check CanExecute;
// callers must have done so first, since the check-then-act window is
// accepted as non-atomic here, matching the reference fail-fast semantics.
func (m *Manager) StartExecution() *ExecutionGuard {
	n := m.current.Add(1)
	m.log.Debug("started execution, current count: %d", n)
	return &ExecutionGuard{manager: m}
}

// Timeout returns the configured execution timeout.
func (m *Manager) Timeout() time.Duration { return m.limits.MaxExecutionTime }

// CurrentExecutionCount returns the number of in-flight executions.
func (m *Manager) CurrentExecutionCount() int { return int(m.current.Load()) }

// CheckOutputSize validates combined stdout/stderr length against
// MaxOutputSize. In hard-limit mode an overrun is an error; otherwise it is
// only logged.
func (m *Manager) CheckOutputSize(stdoutLen, stderrLen int) error {
	total := stdoutLen + stderrLen
	if total <= m.limits.MaxOutputSize {
		return nil
	}
	if m.limits.EnforceHardLimits {
		return justerr.New(justerr.KindExecution,
			"output size (%d bytes) exceeds limit (%d bytes)", total, m.limits.MaxOutputSize)
	}
	m.log.Warn("output size (%d bytes) exceeds limit (%d bytes)", total, m.limits.MaxOutputSize)
	return nil
}

// ExecutionGuard decrements the in-flight counter exactly once, on Release.
// Callers should `defer guard.Release()` immediately after StartExecution,
// mirroring the reference implementation's Drop-based guard.
type ExecutionGuard struct {
	manager  *Manager
	released atomic.Bool
}

// Release ends the execution this guard tracks. It is safe to call more
// than once; only the first call has effect.
func (g *ExecutionGuard) Release() {
	if g.released.Swap(true) {
		return
	}
	n := g.manager.current.Add(-1)
	g.manager.log.Debug("finished execution, current count: %d", n)
}

// ApplyPlatformLimits adjusts cmd with best-effort resource constraints for
// the current platform. Implemented per-OS in manager_unix.go /
// manager_windows.go; on Windows, memory/CPU limits cannot be enforced and
// are only logged.
func ApplyPlatformLimits(cmd *exec.Cmd, limits Limits, log *logger.Logger) {
	applyPlatformLimits(cmd, limits, log)
}
