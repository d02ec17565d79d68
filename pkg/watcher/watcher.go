// Package watcher monitors justfile locations for changes and keeps the
// tool registry in sync, debouncing bursts of filesystem events and
// recomputing display names whenever the watch list grows past one root
// (spec component C6).
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/toolprint/just-mcp/pkg/executor"
	"github.com/toolprint/just-mcp/pkg/justfile"
	"github.com/toolprint/just-mcp/pkg/logger"
	"github.com/toolprint/just-mcp/pkg/registry"
)

const defaultDebounce = 500 * time.Millisecond

// Root is one configured watch target: a directory (containing a
// justfile/Justfile) or a direct path to one, with an optional label used
// for display-name disambiguation once more than one root is active.
type Root struct {
	Path  string
	Label string
}

// Watcher owns an fsnotify.Watcher, a debounce loop, and the bookkeeping
// needed to remove a justfile's tools when it disappears or is
// reconfigured away.
type Watcher struct {
	registry *registry.Registry
	parser   *justfile.Parser
	exec     *executor.Executor
	log      *logger.Logger

	debounce time.Duration

	mu              sync.Mutex // guards roots, labels, sourceMap, watched, hasMultipleDirs, lastHash, lastCount
	roots           []Root
	labels          map[string]string // justfile path -> label
	sourceMap       map[string]string // tool display name -> justfile path
	watched         map[string]bool
	hasMultipleDirs bool
	lastHash        map[string]string // justfile path -> content hash at last publish
	lastCount       map[string]int    // justfile path -> recipe count at last publish

	// tickMu serializes the debounce drain against reconfiguration, per
	// the decision recorded in doc.go.
	tickMu sync.Mutex

	fsw        *fsnotify.Watcher
	changeFeed chan<- struct{} // optional external "something changed" signal
}

// New builds a Watcher. exec may be nil if cache invalidation on change is
// not needed by the caller (e.g. in tests).
func New(reg *registry.Registry, parser *justfile.Parser, exec *executor.Executor) *Watcher {
	return &Watcher{
		registry:  reg,
		parser:    parser,
		exec:      exec,
		log:       logger.New("watcher"),
		debounce:  defaultDebounce,
		labels:    make(map[string]string),
		sourceMap: make(map[string]string),
		watched:   make(map[string]bool),
		lastHash:  make(map[string]string),
		lastCount: make(map[string]int),
	}
}

// WithDebounce overrides the default 500ms debounce window.
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	w.debounce = d
	return w
}

// NotifyOn wires a channel that receives a signal after every registry
// update the watcher makes. The send is non-blocking: a signal is dropped
// while the channel is full.
func (w *Watcher) NotifyOn(ch chan<- struct{}) *Watcher {
	w.changeFeed = ch
	return w
}

func (w *Watcher) notify() {
	if w.changeFeed == nil {
		return
	}
	select {
	case w.changeFeed <- struct{}{}:
	default:
	}
}

// Configure sets the full watch-root list and recomputes hasMultipleDirs
// from it. Call before Run, or via Reconfigure while running. Each root's
// path is absolutized first: tool internal names embed this path verbatim
// (see naming.go), and the executor's routing split requires an absolute
// path to find a separator.
func (w *Watcher) Configure(roots []Root) {
	abs := make([]Root, len(roots))
	for i, r := range roots {
		abs[i] = Root{Path: absPath(r.Path), Label: r.Label}
	}

	w.mu.Lock()
	w.roots = abs
	w.hasMultipleDirs = len(abs) > 1
	for _, r := range abs {
		jf, jfCap := justfilePaths(r.Path)
		w.labels[jf] = r.Label
		w.labels[jfCap] = r.Label
	}
	w.mu.Unlock()
}

// absPath resolves path to an absolute one, falling back to the original
// value if resolution fails (e.g. an already-bogus configured path) so a
// bad root still surfaces as a stat error later rather than panicking
// here.
func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

func justfilePaths(root string) (lower, upper string) {
	info, err := os.Stat(root)
	if err == nil && info.IsDir() {
		return filepath.Join(root, "justfile"), filepath.Join(root, "Justfile")
	}
	return root, root
}

// Run starts the fsnotify watch, performs the initial scan of every
// configured root, and blocks running the debounce loop until ctx is
// canceled.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.fsw = fsw
	defer fsw.Close()

	w.mu.Lock()
	roots := append([]Root(nil), w.roots...)
	w.mu.Unlock()

	for _, r := range roots {
		if err := w.addRoot(ctx, r); err != nil {
			w.log.Warn("failed to watch %s: %v", r.Path, err)
		}
	}

	return w.loop(ctx)
}

func (w *Watcher) addRoot(ctx context.Context, r Root) error {
	info, err := os.Stat(r.Path)
	if err != nil {
		return err
	}

	if info.IsDir() {
		if err := w.fsw.Add(r.Path); err != nil {
			return err
		}
		w.log.Printf("watching directory: %s", r.Path)
		w.markWatched(r.Path)

		jf := filepath.Join(r.Path, "justfile")
		if _, err := os.Stat(jf); err == nil {
			w.updateJustfile(ctx, jf)
		}
		jfCap := filepath.Join(r.Path, "Justfile")
		if _, err := os.Stat(jfCap); err == nil {
			w.updateJustfile(ctx, jfCap)
		}
		return nil
	}

	if filepath.Base(r.Path) == "justfile" || filepath.Base(r.Path) == "Justfile" {
		parent := filepath.Dir(r.Path)
		if err := w.fsw.Add(parent); err != nil {
			return err
		}
		w.log.Printf("watching justfile: %s", r.Path)
		w.markWatched(r.Path)
		w.updateJustfile(ctx, r.Path)
	}
	return nil
}

func (w *Watcher) markWatched(path string) {
	w.mu.Lock()
	w.watched[path] = true
	w.mu.Unlock()
}

// loop drains fsnotify events into a pending set, flushing it on every
// debounce tick. The tick acquires tickMu so Reconfigure can safely wait
// for an in-progress flush before swapping the watch list.
func (w *Watcher) loop(ctx context.Context) error {
	pending := make(map[string]bool)
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if path := extractJustfilePath(ev); path != "" {
				pending[path] = true
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Error("fsnotify error: %v", err)
		case <-ticker.C:
			if len(pending) == 0 {
				continue
			}
			w.tickMu.Lock()
			for path := range pending {
				w.handleChange(ctx, path)
			}
			w.tickMu.Unlock()
			pending = make(map[string]bool)
		}
	}
}

func extractJustfilePath(ev fsnotify.Event) string {
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return ""
	}
	base := filepath.Base(ev.Name)
	if base == "justfile" || base == "Justfile" {
		return ev.Name
	}
	return ""
}

func (w *Watcher) handleChange(ctx context.Context, path string) {
	if _, err := os.Stat(path); err == nil {
		w.log.Printf("justfile modified: %s", path)
		w.updateJustfile(ctx, path)
		return
	}
	w.log.Printf("justfile removed: %s", path)
	w.removeJustfileTools(path)
}

// updateJustfile reparses path, diffs against the previously published
// tools from that path, and updates the registry accordingly.
func (w *Watcher) updateJustfile(ctx context.Context, path string) {
	_, _ = w.UpdateJustfile(ctx, path)
}

// UpdateJustfile reparses path and republishes its tools, returning the
// number of recipes found. It is exported so the admin tools can drive a
// rescan through the same naming and source-map bookkeeping the watch loop
// uses, rather than duplicating it.
func (w *Watcher) UpdateJustfile(ctx context.Context, path string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		w.log.Error("reading %s: %v", path, err)
		return 0, err
	}
	hash := registry.SHA256Hex(content)

	w.mu.Lock()
	unchanged := w.lastHash[path] == hash
	count := w.lastCount[path]
	w.mu.Unlock()
	if unchanged {
		w.log.Debug("justfile unchanged, skipping reparse: %s", path)
		return count, nil
	}

	recipes, err := w.parser.ParseFile(ctx, path)
	if err != nil {
		w.log.Error("parsing %s: %v", path, err)
		return 0, err
	}

	if w.exec != nil {
		w.exec.InvalidateCache(path)
	}

	w.mu.Lock()
	hasMultipleDirs := w.hasMultipleDirs
	label := w.labels[path]
	previousNames := namesForPath(w.sourceMap, path)
	w.mu.Unlock()

	for _, name := range previousNames {
		w.registry.Remove(name)
		w.mu.Lock()
		delete(w.sourceMap, name)
		w.mu.Unlock()
	}

	seen := make([]string, 0, len(recipes))
	for _, r := range recipes {
		if r.Private {
			continue
		}
		tool := recipeToTool(r, path, hash, hasMultipleDirs, label)
		w.registry.Add(tool)
		seen = append(seen, tool.DisplayName)

		w.mu.Lock()
		w.sourceMap[tool.DisplayName] = path
		w.mu.Unlock()
	}

	w.mu.Lock()
	w.lastHash[path] = hash
	w.lastCount[path] = len(recipes)
	w.mu.Unlock()

	if len(seen) > 0 || len(previousNames) > 0 {
		w.notify()
	}
	return len(recipes), nil
}

// ResetCache forgets every path's last-published hash, forcing the next
// UpdateJustfile call for each to republish regardless of content. Used by
// a full admin resync, which clears the registry up front and therefore
// cannot rely on the unchanged-content short-circuit to leave existing
// tools in place.
func (w *Watcher) ResetCache() {
	w.mu.Lock()
	w.lastHash = make(map[string]string)
	w.lastCount = make(map[string]int)
	w.mu.Unlock()
}

func (w *Watcher) removeJustfileTools(path string) {
	w.mu.Lock()
	names := namesForPath(w.sourceMap, path)
	for _, n := range names {
		delete(w.sourceMap, n)
	}
	delete(w.lastHash, path)
	delete(w.lastCount, path)
	w.mu.Unlock()

	for _, n := range names {
		w.registry.Remove(n)
	}
	if len(names) > 0 {
		w.notify()
	}
}

func namesForPath(sourceMap map[string]string, path string) []string {
	var out []string
	for name, p := range sourceMap {
		if p == path {
			out = append(out, name)
		}
	}
	return out
}

// Reconfigure swaps the watch-root list at runtime. It waits for any
// in-progress debounce flush to finish (via tickMu) before applying the
// new roots, then re-adds fsnotify watches and rescans, so a caller never
// observes a half-applied configuration.
func (w *Watcher) Reconfigure(ctx context.Context, roots []Root) error {
	w.tickMu.Lock()
	defer w.tickMu.Unlock()

	w.mu.Lock()
	oldWatched := make([]string, 0, len(w.watched))
	for p := range w.watched {
		oldWatched = append(oldWatched, p)
	}
	w.watched = make(map[string]bool)
	w.mu.Unlock()

	for _, p := range oldWatched {
		_ = w.fsw.Remove(p)
	}

	w.Configure(roots)

	for _, r := range roots {
		if err := w.addRoot(ctx, r); err != nil {
			w.log.Warn("failed to watch %s: %v", r.Path, err)
		}
	}
	return nil
}

// Close releases the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	if w.fsw == nil {
		return nil
	}
	return w.fsw.Close()
}
