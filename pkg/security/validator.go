// Package security implements path, task-name, and parameter validation
// plus injection-safe argument escaping (spec component C3).
package security

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/toolprint/just-mcp/pkg/justerr"
	"github.com/toolprint/just-mcp/pkg/sliceutil"
)

// Config holds the tunable limits and patterns for a Validator.
type Config struct {
	// AllowedPaths are the roots a justfile (or its parent, for
	// not-yet-existing files) must resolve under.
	AllowedPaths []string
	// MaxParameterLength caps a parameter value's length in bytes.
	MaxParameterLength int
	// MaxParameters caps the number of parameters in a single call.
	MaxParameters int
	// ForbiddenPatterns are checked against task names and, in strict
	// mode, parameter values.
	ForbiddenPatterns []*regexp.Regexp
	// StrictMode enables the additional parameter/command checks.
	StrictMode bool
}

// DefaultConfig returns the spec's default security configuration: current
// directory only, 1024-byte parameter cap, 50-parameter cap, strict mode
// on, with the three forbidden-pattern defaults (shell metacharacters, path
// traversal, variable expansion).
func DefaultConfig() Config {
	return Config{
		AllowedPaths:       []string{"."},
		MaxParameterLength: 1024,
		MaxParameters:      50,
		StrictMode:         true,
		ForbiddenPatterns: []*regexp.Regexp{
			regexp.MustCompile(`[;&|]|\$\(|` + "`"),
			regexp.MustCompile(`\.\.[\\/]`),
			regexp.MustCompile(`\$\{.*\}`),
		},
	}
}

// commandDenylist are substrings rejected (case-insensitively) in the
// command-to-run when StrictMode is enabled.
var commandDenylist = []string{"eval", "exec", "source", "bash", "sh", "zsh", "python", "perl", "ruby"}

// Validator validates paths, task names, and parameters, and escapes
// parameter values for safe argv placement.
type Validator struct {
	cfg Config
}

// New builds a Validator with the given Config.
func New(cfg Config) *Validator { return &Validator{cfg: cfg} }

// WithDefault builds a Validator using DefaultConfig.
func WithDefault() *Validator { return New(DefaultConfig()) }

// ValidatePath canonicalizes target (or its parent, for not-yet-existing
// files) and requires the canonical path to be a prefix of at least one
// canonicalized allowed root. Paths containing ".." or "~" anywhere are
// rejected outright, even if canonicalization would have absorbed them.
func (v *Validator) ValidatePath(target string) error {
	if strings.Contains(target, "..") || strings.Contains(target, "~") {
		return justerr.New(justerr.KindAccessDenied, "suspicious path pattern detected: %s", target)
	}

	toCheck, err := resolveForCheck(target)
	if err != nil {
		return justerr.Wrap(justerr.KindAccessDenied, err, "invalid path %s", target)
	}

	for _, allowed := range v.cfg.AllowedPaths {
		canonAllowed, err := filepath.EvalSymlinks(allowed)
		if err != nil {
			canonAllowed, err = filepath.Abs(allowed)
			if err != nil {
				continue
			}
		}
		rel, err := filepath.Rel(canonAllowed, toCheck)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil
		}
	}
	return justerr.New(justerr.KindAccessDenied, "access denied: path %s is outside allowed directories", target)
}

func resolveForCheck(target string) (string, error) {
	if _, err := os.Stat(target); err == nil {
		return filepath.EvalSymlinks(target)
	}
	parent := filepath.Dir(target)
	canonParent, err := filepath.EvalSymlinks(parent)
	if err != nil {
		canonParent, err = filepath.Abs(parent)
		if err != nil {
			return "", err
		}
	}
	return filepath.Join(canonParent, filepath.Base(target)), nil
}

var taskNameChars = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateTaskName enforces length 1..=100, characters in [A-Za-z0-9_-],
// and rejects names matching any forbidden pattern.
func (v *Validator) ValidateTaskName(name string) error {
	if len(name) == 0 || len(name) > 100 {
		return justerr.New(justerr.KindInvalidParameter, "task name must be between 1 and 100 characters")
	}
	if !taskNameChars.MatchString(name) {
		return justerr.New(justerr.KindInvalidParameter, "task name can only contain alphanumeric characters, underscores, and hyphens")
	}
	for _, pat := range v.cfg.ForbiddenPatterns {
		if pat.MatchString(name) {
			return justerr.New(justerr.KindInvalidParameter, "task name contains forbidden pattern: %s", name)
		}
	}
	return nil
}

// ValidateParameter enforces name length 1..=50, value length <=
// MaxParameterLength, and (in strict mode) forbidden-pattern and null-byte
// rejection.
func (v *Validator) ValidateParameter(name, value string) error {
	if len(name) == 0 || len(name) > 50 {
		return justerr.New(justerr.KindInvalidParameter, "parameter name must be between 1 and 50 characters")
	}
	if len(value) > v.cfg.MaxParameterLength {
		return justerr.New(justerr.KindInvalidParameter, "parameter value exceeds maximum length of %d characters", v.cfg.MaxParameterLength)
	}
	if v.cfg.StrictMode {
		for _, pat := range v.cfg.ForbiddenPatterns {
			if pat.MatchString(value) {
				return justerr.New(justerr.KindInvalidParameter, "parameter %q contains forbidden pattern", name)
			}
		}
		if strings.ContainsRune(value, '\x00') {
			return justerr.New(justerr.KindInvalidParameter, "parameter contains null byte")
		}
	}
	return nil
}

// ValidateParameters validates a full map of scalar values: only
// string/number/boolean JSON scalars are accepted; anything else is
// InvalidParameter. Total parameter count is capped by MaxParameters.
func (v *Validator) ValidateParameters(params map[string]any) error {
	if len(params) > v.cfg.MaxParameters {
		return justerr.New(justerr.KindInvalidParameter, "too many parameters: %d (max: %d)", len(params), v.cfg.MaxParameters)
	}
	for name, val := range params {
		s, err := scalarToString(val)
		if err != nil {
			return justerr.New(justerr.KindInvalidParameter, "parameter %q must be a string, number, or boolean", name)
		}
		if err := v.ValidateParameter(name, s); err != nil {
			return err
		}
	}
	return nil
}

func scalarToString(val any) (string, error) {
	switch t := val.(type) {
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	default:
		return "", justerr.New(justerr.KindInvalidParameter, "unsupported parameter value type")
	}
}

// Sanitize returns a form of value suitable as a single argv element: a
// value made only of shell-safe characters is returned unchanged, the empty
// string becomes a pair of single quotes, and anything else is
// POSIX-single-quoted. The caller
// passes the sanitized value as its own argv entry; it is never
// concatenated into a shell string.
func Sanitize(value string) string {
	if value == "" {
		return "''"
	}
	if isShellSafe(value) {
		return value
	}
	return "'" + strings.ReplaceAll(value, "'", `'\''`) + "'"
}

func isShellSafe(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_', r == '-', r == '.', r == '/', r == ':', r == ',', r == '@', r == '%', r == '+':
		default:
			return false
		}
	}
	return true
}

// ValidateCommand rejects a command string containing a denylisted
// substring when StrictMode is enabled (case-insensitive).
func (v *Validator) ValidateCommand(command string) error {
	if !v.cfg.StrictMode {
		return nil
	}
	lower := strings.ToLower(command)
	matched := sliceutil.Filter(commandDenylist, func(pat string) bool {
		return strings.Contains(lower, pat)
	})
	if len(matched) > 0 {
		return justerr.New(justerr.KindAccessDenied, "command contains potentially dangerous pattern: %s", matched[0])
	}
	return nil
}
