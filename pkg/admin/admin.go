// Package admin implements the built-in `_admin_*` tools: manual
// rescans, parser diagnostics, live watch reconfiguration, and recipe
// authoring (spec component C7). Admin tools run through the same
// security and resource checks as any other tool; nothing here bypasses
// the executor's validation.
package admin

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"
	"github.com/toolprint/just-mcp/pkg/justerr"
	"github.com/toolprint/just-mcp/pkg/justfile"
	"github.com/toolprint/just-mcp/pkg/logger"
	"github.com/toolprint/just-mcp/pkg/registry"
	"github.com/toolprint/just-mcp/pkg/security"
	"github.com/toolprint/just-mcp/pkg/watcher"
)

// Tools wires together the registry, watcher, parser, and validator to
// serve the admin surface.
type Tools struct {
	registry  *registry.Registry
	watcher   *watcher.Watcher
	parser    *justfile.Parser
	validator *security.Validator
	log       *logger.Logger

	watchPaths []string
}

// New builds an admin Tools set over the given watch paths (the initial
// --watch-dir list).
func New(reg *registry.Registry, w *watcher.Watcher, parser *justfile.Parser, validator *security.Validator, watchPaths []string) *Tools {
	return &Tools{
		registry:   reg,
		watcher:    w,
		parser:     parser,
		validator:  validator,
		log:        logger.New("admin"),
		watchPaths: watchPaths,
	}
}

// SyncResult is the response of _admin_sync.
type SyncResult struct {
	ScannedFiles int      `json:"scanned_files"`
	FoundRecipes int      `json:"found_recipes"`
	Errors       []string `json:"errors"`
	DurationMs   int64    `json:"duration_ms"`
}

// Sync clears every non-admin tool from the registry and rescans every
// configured watch root, republishing whatever is found. Roots are
// scanned concurrently since each root's justfile(s) are independent of
// the others; result aggregation is serialized under resMu.
func (t *Tools) Sync(ctx context.Context) (*SyncResult, error) {
	t.log.Printf("starting manual justfile sync")
	start := time.Now()

	for _, tool := range t.registry.List() {
		if !isAdminTool(tool.DisplayName) {
			t.registry.Remove(tool.DisplayName)
		}
	}
	// The registry was just cleared above; the watcher's unchanged-content
	// short-circuit must not suppress republishing files it already knew
	// about, or they'd vanish from the registry until next modified.
	t.watcher.ResetCache()

	result := &SyncResult{}
	if len(t.watchPaths) == 0 {
		result.DurationMs = time.Since(start).Milliseconds()
		return result, nil
	}
	var resMu sync.Mutex

	p := pool.New().WithMaxGoroutines(len(t.watchPaths))
	for _, root := range t.watchPaths {
		root := root
		p.Go(func() {
			t.syncRoot(ctx, root, result, &resMu)
		})
	}
	p.Wait()

	result.DurationMs = time.Since(start).Milliseconds()
	t.log.Printf("sync completed in %dms: %d files scanned, %d recipes found, %d errors",
		result.DurationMs, result.ScannedFiles, result.FoundRecipes, len(result.Errors))
	return result, nil
}

// syncRoot scans a single watch root's justfile(s), recording its
// findings into result under resMu.
func (t *Tools) syncRoot(ctx context.Context, root string, result *SyncResult, resMu *sync.Mutex) {
	info, err := os.Stat(root)
	if err != nil {
		t.log.Warn("watch path does not exist: %s", root)
		resMu.Lock()
		result.Errors = append(result.Errors, "path not found: "+root)
		resMu.Unlock()
		return
	}

	var candidates []string
	if info.IsDir() {
		candidates = []string{filepath.Join(root, "justfile"), filepath.Join(root, "Justfile")}
	} else if base := filepath.Base(root); base == "justfile" || base == "Justfile" {
		candidates = []string{root}
	}

	for _, jf := range candidates {
		if _, err := os.Stat(jf); err != nil {
			continue
		}
		t.log.Printf("found justfile: %s", jf)
		n, err := t.scanJustfile(ctx, jf)
		resMu.Lock()
		if err != nil {
			t.log.Warn("error scanning %s: %v", jf, err)
			result.Errors = append(result.Errors, jf+": "+err.Error())
		} else {
			result.ScannedFiles++
			result.FoundRecipes += n
		}
		resMu.Unlock()
	}
}

func (t *Tools) scanJustfile(ctx context.Context, path string) (int, error) {
	return t.watcher.UpdateJustfile(ctx, path)
}

func isAdminTool(name string) bool {
	return len(name) >= len("_admin_") && name[:len("_admin_")] == "_admin_"
}

// ParserDoctorResult is the response of _admin_parser_doctor.
type ParserDoctorResult struct {
	JustAvailable bool              `json:"just_available"`
	Metrics       justfile.Snapshot `json:"metrics"`
}

// ParserDoctor reports the parser pipeline's metrics and whether the `just`
// CLI is reachable on PATH.
func (t *Tools) ParserDoctor(verbose bool) *ParserDoctorResult {
	_, lookErr := exec.LookPath("just")
	result := &ParserDoctorResult{
		JustAvailable: lookErr == nil,
		Metrics:       t.parser.Metrics().Snapshot(),
	}
	if verbose {
		t.log.Debug("parser doctor: just_available=%v metrics=%+v", result.JustAvailable, result.Metrics)
	}
	return result
}

// SetWatchDirectoryResult is the response of _admin_set_watch_directory.
type SetWatchDirectoryResult struct {
	AbsolutePath    string `json:"absolute_path"`
	JustfileDetected bool  `json:"justfile_detected"`
}

// SetWatchDirectory validates path via the security validator, swaps it
// into the live watch configuration (waiting for any in-progress debounce
// flush first, per the watcher's Reconfigure contract), and triggers a
// synchronous rescan.
func (t *Tools) SetWatchDirectory(ctx context.Context, path string) (*SetWatchDirectoryResult, error) {
	if err := t.validator.ValidatePath(path); err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, justerr.Wrap(justerr.KindIO, err, "resolving %s", path)
	}

	t.watchPaths = append(t.watchPaths, abs)
	if err := t.watcher.Reconfigure(ctx, pathsToRoots(t.watchPaths)); err != nil {
		return nil, justerr.Wrap(justerr.KindIO, err, "reconfiguring watcher")
	}

	if _, err := t.Sync(ctx); err != nil {
		return nil, err
	}

	detected := false
	if info, statErr := os.Stat(abs); statErr == nil {
		if info.IsDir() {
			_, e1 := os.Stat(filepath.Join(abs, "justfile"))
			_, e2 := os.Stat(filepath.Join(abs, "Justfile"))
			detected = e1 == nil || e2 == nil
		} else {
			detected = true
		}
	}

	return &SetWatchDirectoryResult{AbsolutePath: abs, JustfileDetected: detected}, nil
}

func pathsToRoots(paths []string) []watcher.Root {
	roots := make([]watcher.Root, len(paths))
	for i, p := range paths {
		roots[i] = watcher.Root{Path: p}
	}
	return roots
}
