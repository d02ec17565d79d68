// Package justerr defines the error taxonomy shared across just-mcp's
// components. Kinds are classified, not typed per-call-site, so the MCP
// adapter can map any error back to a client-visible shape without knowing
// which package produced it.
package justerr

import (
	"errors"
	"fmt"
)

// Kind classifies an Error for propagation and retry decisions.
type Kind int

const (
	// KindInternal covers bugs and unreachable states.
	KindInternal Kind = iota
	// KindIO covers filesystem or subprocess IO failures.
	KindIO
	// KindParse covers justfile syntax problems.
	KindParse
	// KindInvalidToolName covers malformed tool routing keys.
	KindInvalidToolName
	// KindTaskNotFound covers a tool name that routes to a justfile that
	// no longer contains the named recipe.
	KindTaskNotFound
	// KindInvalidParameter covers type/length/forbidden-pattern violations.
	KindInvalidParameter
	// KindAccessDenied covers a path outside allowed roots, or a forbidden
	// command pattern.
	KindAccessDenied
	// KindExecution covers a child process that exited non-zero.
	KindExecution
	// KindTimeout covers a child process that exceeded its deadline.
	KindTimeout
	// KindTooManyExecutions covers admission denied by the resource manager.
	KindTooManyExecutions
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindParse:
		return "parse"
	case KindInvalidToolName:
		return "invalid_tool_name"
	case KindTaskNotFound:
		return "task_not_found"
	case KindInvalidParameter:
		return "invalid_parameter"
	case KindAccessDenied:
		return "access_denied"
	case KindExecution:
		return "execution"
	case KindTimeout:
		return "timeout"
	case KindTooManyExecutions:
		return "too_many_executions"
	default:
		return "internal"
	}
}

// Retryable reports whether a client may reasonably retry an error of this
// kind; distinct attempts may succeed on transient conditions.
func (k Kind) Retryable() bool {
	switch k {
	case KindTimeout, KindTooManyExecutions, KindIO, KindExecution:
		return true
	default:
		return false
	}
}

// Error is a classified error carrying enough structure to reproduce and
// explain the failure without leaking internals like stack traces.
type Error struct {
	Kind Kind
	Msg  string
	// Line and Column are set for KindParse errors; zero otherwise.
	Line, Column int
	// Command, ExitCode, Stderr are set for KindExecution errors.
	Command  string
	ExitCode *int
	Stderr   string
	// Hint is a short, client-visible action suggestion.
	Hint string
	// Cause is the underlying error, if any.
	Cause error
}

func (e *Error) Error() string {
	if e.Line != 0 {
		return fmt.Sprintf("%s (line %d, col %d): %s", e.Kind, e.Line, e.Column, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error of the given kind, formatted message, wrapping cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Cause: cause}
}

// Parse builds a KindParse error with location information.
func Parse(line, column int, format string, args ...any) *Error {
	return &Error{Kind: KindParse, Msg: fmt.Sprintf(format, args...), Line: line, Column: column}
}

// Execution builds a KindExecution error describing a non-zero child exit.
func Execution(command string, exitCode *int, stderr string) *Error {
	return &Error{
		Kind:     KindExecution,
		Msg:      fmt.Sprintf("command %q failed", command),
		Command:  command,
		ExitCode: exitCode,
		Stderr:   stderr,
	}
}

// WithHint attaches a short action hint and returns the receiver for chaining.
func (e *Error) WithHint(hint string) *Error {
	e.Hint = hint
	return e
}

// As extracts a *Error from err, following the Unwrap chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsRecoverable classifies a parse error as recoverable (the pipeline should
// fall back to the next backend) or terminal. Initialization, IO, and
// internal errors are terminal; syntax/structure/traversal errors recover.
func IsRecoverable(err error) bool {
	e, ok := As(err)
	if !ok {
		return false
	}
	switch e.Kind {
	case KindParse:
		return true
	case KindIO, KindInternal:
		return false
	default:
		return true
	}
}
