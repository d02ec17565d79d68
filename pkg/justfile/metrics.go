package justfile

import (
	"sync"
	"time"
)

// Method identifies which backend produced a successful parse.
type Method int

const (
	MethodAST Method = iota
	MethodCLI
	MethodRegex
	MethodMinimal
)

func (m Method) String() string {
	switch m {
	case MethodAST:
		return "ast"
	case MethodCLI:
		return "cli"
	case MethodRegex:
		return "regex"
	default:
		return "minimal"
	}
}

// Metrics accumulates per-backend attempt/success counters and cumulative
// parse time, exposed via the admin parser_doctor tool.
type Metrics struct {
	mu sync.Mutex

	ASTAttempts, ASTSuccesses         uint64
	CLIAttempts, CLISuccesses         uint64
	RegexAttempts, RegexSuccesses     uint64
	MinimalTaskCreations              uint64
	TotalParseTime                    time.Duration
	ASTParseTime, CLIParseTime        time.Duration
	RegexParseTime                    time.Duration
}

// RecordAttempt records an attempt at the given method, and whether it
// succeeded, along with the wall-clock time spent.
func (m *Metrics) RecordAttempt(method Method, success bool, elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalParseTime += elapsed
	switch method {
	case MethodAST:
		m.ASTAttempts++
		m.ASTParseTime += elapsed
		if success {
			m.ASTSuccesses++
		}
	case MethodCLI:
		m.CLIAttempts++
		m.CLIParseTime += elapsed
		if success {
			m.CLISuccesses++
		}
	case MethodRegex:
		m.RegexAttempts++
		m.RegexParseTime += elapsed
		if success {
			m.RegexSuccesses++
		}
	case MethodMinimal:
		if success {
			m.MinimalTaskCreations++
		}
	}
}

// Snapshot is an immutable copy of Metrics suitable for JSON serialization.
type Snapshot struct {
	ASTAttempts          uint64 `json:"ast_attempts"`
	ASTSuccesses         uint64 `json:"ast_successes"`
	CLIAttempts          uint64 `json:"cli_attempts"`
	CLISuccesses         uint64 `json:"cli_successes"`
	RegexAttempts        uint64 `json:"regex_attempts"`
	RegexSuccesses       uint64 `json:"regex_successes"`
	MinimalTaskCreations uint64 `json:"minimal_task_creations"`
	TotalParseTimeMs     int64  `json:"total_parse_time_ms"`
	ASTParseTimeMs       int64  `json:"ast_parse_time_ms"`
	CLIParseTimeMs       int64  `json:"cli_parse_time_ms"`
	RegexParseTimeMs     int64  `json:"regex_parse_time_ms"`
}

// Snapshot returns a point-in-time copy of the metrics.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		ASTAttempts:          m.ASTAttempts,
		ASTSuccesses:         m.ASTSuccesses,
		CLIAttempts:          m.CLIAttempts,
		CLISuccesses:         m.CLISuccesses,
		RegexAttempts:        m.RegexAttempts,
		RegexSuccesses:       m.RegexSuccesses,
		MinimalTaskCreations: m.MinimalTaskCreations,
		TotalParseTimeMs:     m.TotalParseTime.Milliseconds(),
		ASTParseTimeMs:       m.ASTParseTime.Milliseconds(),
		CLIParseTimeMs:       m.CLIParseTime.Milliseconds(),
		RegexParseTimeMs:     m.RegexParseTime.Milliseconds(),
	}
}
