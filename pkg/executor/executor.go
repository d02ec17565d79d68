// Package executor runs a justfile recipe as a subprocess: resolving the
// tool-name routing key, validating inputs, spawning `just`, and collecting
// output under a timeout (spec component C5).
package executor

import (
	"context"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/toolprint/just-mcp/pkg/justerr"
	"github.com/toolprint/just-mcp/pkg/justfile"
	"github.com/toolprint/just-mcp/pkg/logger"
	"github.com/toolprint/just-mcp/pkg/resources"
	"github.com/toolprint/just-mcp/pkg/security"
	"golang.org/x/sync/singleflight"
)

// Request describes one tool invocation.
type Request struct {
	// ToolName is the internal routing key, just_<task>_<path>.
	ToolName string
	// Parameters are the validated-at-the-boundary JSON scalar arguments.
	Parameters map[string]any
	// WorkingDirectory overrides the justfile's own directory, if set.
	WorkingDirectory string
	// Environment is merged over the current process environment.
	Environment map[string]string
	// Timeout overrides the resource manager's default, if non-zero.
	Timeout time.Duration
}

// Result is the outcome of one execution.
type Result struct {
	// ExecutionID correlates this result with its log lines, a random
	// v4 UUID minted fresh per Execute call.
	ExecutionID string
	Success     bool
	ExitCode    int
	HasExit     bool
	Stdout      string
	Stderr      string
	Error       string
}

// Executor wires the parser, security validator, and resource manager
// together to run recipes named by tool routing keys.
type Executor struct {
	parser    *justfile.Parser
	validator *security.Validator
	resources *resources.Manager
	log       *logger.Logger

	cacheMu sync.RWMutex
	cache   map[string][]justfile.Recipe
	group   singleflight.Group
}

// New builds an Executor from its three collaborators.
func New(parser *justfile.Parser, validator *security.Validator, mgr *resources.Manager) *Executor {
	return &Executor{
		parser:    parser,
		validator: validator,
		resources: mgr,
		log:       logger.New("executor"),
		cache:     make(map[string][]justfile.Recipe),
	}
}

// Execute runs the task named in req.ToolName and returns its result. It
// never returns a justerr for a recipe that ran and merely exited
// non-zero; that case is reported as Result{Success: false, ExitCode: ...}
// so the MCP layer can surface stdout/stderr to the caller. justerr is
// returned for requests that never reached a subprocess (admission,
// validation, or lookup failures) and for a run whose combined output
// exceeds the resource manager's hard size limit.
func (e *Executor) Execute(ctx context.Context, req Request) (*Result, error) {
	execID := uuid.NewString()
	e.log.Printf("[%s] executing tool: %s", execID, req.ToolName)

	if err := e.resources.CanExecute(); err != nil {
		return nil, err
	}

	taskName, justfilePath, err := ParseToolName(req.ToolName)
	if err != nil {
		return nil, err
	}
	e.log.Debug("[%s] parsed task=%s justfile=%s", execID, taskName, justfilePath)

	if err := e.validator.ValidateTaskName(taskName); err != nil {
		return nil, err
	}
	if err := e.validator.ValidatePath(justfilePath); err != nil {
		return nil, err
	}
	if err := e.validator.ValidateParameters(req.Parameters); err != nil {
		return nil, err
	}

	recipes, err := e.getOrParse(ctx, justfilePath)
	if err != nil {
		return nil, err
	}
	task, ok := findRecipe(recipes, taskName)
	if !ok {
		return nil, justerr.New(justerr.KindTaskNotFound, "task %q not found in %s", taskName, justfilePath)
	}

	workingDir := req.WorkingDirectory
	if workingDir == "" {
		workingDir = filepath.Dir(justfilePath)
	}

	guard := e.resources.StartExecution()
	defer guard.Release()

	return e.run(ctx, execID, task, req, workingDir)
}

// ParseToolName splits an internal tool name (just_<task>_<path>) into its
// task name and justfile path. The separator is the first underscore
// immediately followed by a path separator, since both task names and
// directory components may themselves contain underscores.
func ParseToolName(toolName string) (taskName, justfilePath string, err error) {
	const prefix = "just_"
	if !strings.HasPrefix(toolName, prefix) {
		return "", "", justerr.New(justerr.KindInvalidToolName, "invalid tool name: %s", toolName)
	}
	rest := toolName[len(prefix):]

	for i := 0; i < len(rest)-1; i++ {
		if rest[i] == '_' && rest[i+1] == '/' {
			return rest[:i], rest[i+1:], nil
		}
	}
	return "", "", justerr.New(justerr.KindInvalidToolName, "invalid tool name format: %s", toolName)
}

func findRecipe(recipes []justfile.Recipe, name string) (justfile.Recipe, bool) {
	for _, r := range recipes {
		if r.Name == name {
			return r, true
		}
	}
	return justfile.Recipe{}, false
}

// getOrParse returns the parsed recipes for path, using a cache keyed by
// path and a singleflight group to collapse concurrent misses for the same
// file into one parse.
func (e *Executor) getOrParse(ctx context.Context, path string) ([]justfile.Recipe, error) {
	e.cacheMu.RLock()
	if recipes, ok := e.cache[path]; ok {
		e.cacheMu.RUnlock()
		return recipes, nil
	}
	e.cacheMu.RUnlock()

	v, err, _ := e.group.Do(path, func() (any, error) {
		recipes, err := e.parser.ParseFile(ctx, path)
		if err != nil {
			return nil, err
		}
		e.cacheMu.Lock()
		e.cache[path] = recipes
		e.cacheMu.Unlock()
		return recipes, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]justfile.Recipe), nil
}

// InvalidateCache drops a path's cached parse, forcing the next Execute
// for it to reparse. Called by the watcher on file change.
func (e *Executor) InvalidateCache(path string) {
	e.cacheMu.Lock()
	delete(e.cache, path)
	e.cacheMu.Unlock()
}

func (e *Executor) run(ctx context.Context, execID string, task justfile.Recipe, req Request, workingDir string) (*Result, error) {
	timeoutDuration := req.Timeout
	if timeoutDuration <= 0 {
		timeoutDuration = e.resources.Timeout()
	}

	runCtx, cancel := context.WithTimeout(ctx, timeoutDuration)
	defer cancel()

	args := []string{"--justfile", "justfile", task.Name}
	args = append(args, buildArgs(task, req.Parameters)...)

	cmd := exec.CommandContext(runCtx, "just", args...)
	cmd.Dir = workingDir
	cmd.Stdin = nil
	cmd.Env = mergeEnv(req.Environment)
	resources.ApplyPlatformLimits(cmd, resources.Limits{}, e.log)

	stdout, stderr, runErr := runCaptured(cmd)

	if runCtx.Err() == context.DeadlineExceeded {
		e.log.Error("[%s] task %s timed out after %s", execID, task.Name, timeoutDuration)
		return &Result{ExecutionID: execID, Error: "command timed out after " + timeoutDuration.String()}, nil
	}

	if err := e.resources.CheckOutputSize(len(stdout), len(stderr)); err != nil {
		return nil, err
	}

	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			code := exitErr.ExitCode()
			e.log.Warn("[%s] task %s failed with exit code %d: %s", execID, task.Name, code, stderr)
			return &Result{
				ExecutionID: execID,
				Success:     false,
				ExitCode:    code,
				HasExit:     true,
				Stdout:      stdout,
				Stderr:      stderr,
				Error:       "command failed with exit code " + strconv.Itoa(code),
			}, nil
		}
		e.log.Error("[%s] failed to execute command: %v", execID, runErr)
		return &Result{ExecutionID: execID, Error: "failed to execute command: " + runErr.Error()}, nil
	}

	return &Result{
		ExecutionID: execID,
		Success:     true,
		ExitCode:    0,
		HasExit:     true,
		Stdout:      stdout,
		Stderr:      stderr,
	}, nil
}

// buildArgs orders parameter values (or defaults) according to the task's
// declared parameter list, sanitizing each for safe argv placement.
func buildArgs(task justfile.Recipe, params map[string]any) []string {
	var args []string
	for _, p := range task.Parameters {
		if v, ok := params[p.Name]; ok {
			args = append(args, security.Sanitize(scalarToString(v)))
			continue
		}
		if p.Default != nil {
			args = append(args, security.Sanitize(*p.Default))
		}
	}
	return args
}

func scalarToString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}
