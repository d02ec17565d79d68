// Package cli builds the just-mcp cobra command tree: flag parsing,
// wiring the parser/registry/watcher/executor/admin/mcpserver stack
// together, and running it (spec's CLI entry, ambient stack section of
// SPEC_FULL.md).
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/toolprint/just-mcp/pkg/admin"
	"github.com/toolprint/just-mcp/pkg/console"
	"github.com/toolprint/just-mcp/pkg/executor"
	"github.com/toolprint/just-mcp/pkg/justfile"
	"github.com/toolprint/just-mcp/pkg/logger"
	"github.com/toolprint/just-mcp/pkg/mcpserver"
	"github.com/toolprint/just-mcp/pkg/registry"
	"github.com/toolprint/just-mcp/pkg/resources"
	"github.com/toolprint/just-mcp/pkg/security"
	"github.com/toolprint/just-mcp/pkg/watcher"
)

var serveLog = logger.New("cli:serve")

// watchRoot is one --watch-dir value, "path" or "path:label".
type watchRoot struct {
	path  string
	label string
}

func parseWatchRoot(raw string) watchRoot {
	if path, label, ok := strings.Cut(raw, ":"); ok {
		return watchRoot{path: path, label: label}
	}
	return watchRoot{path: raw}
}

// NewServeCommand builds the `serve` subcommand, also wired as the root
// command's default RunE so `just-mcp` with no subcommand serves.
func NewServeCommand() *cobra.Command {
	var (
		watchDirs []string
		admin_    bool
		parser    string
		logLevel  string
		jsonLogs  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server, exposing justfile recipes as tools",
		Long: `Run the just-mcp server over stdio.

Watches one or more directories (or direct justfile paths) for recipes and
publishes each as an MCP tool named just_<recipe>. Pass --watch-dir more
than once to watch multiple roots; once more than one root is active, tool
names are disambiguated as just_<recipe>@<label> (path:label form) or, for
a root without a label, just_<recipe>_<justfile path>.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), serveConfig{
				watchDirs: watchDirs,
				admin:     admin_,
				parser:    parser,
				logLevel:  logLevel,
				jsonLogs:  jsonLogs,
			})
		},
	}

	cmd.Flags().StringArrayVar(&watchDirs, "watch-dir", []string{"."}, "directory or justfile path to watch, optionally path:label; repeatable")
	cmd.Flags().BoolVar(&admin_, "admin", false, "enable _admin_* tools (sync, parser doctor, set watch directory, create recipe)")
	cmd.Flags().StringVar(&parser, "parser", "auto", "parser backend: auto, ast, cli, or regex (deprecated)")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, or error")
	cmd.Flags().BoolVar(&jsonLogs, "json-logs", false, "emit structured JSON logs instead of text")

	return cmd
}

type serveConfig struct {
	watchDirs []string
	admin     bool
	parser    string
	logLevel  string
	jsonLogs  bool
}

func runServe(ctx context.Context, cfg serveConfig) error {
	level, err := parseLogLevel(cfg.logLevel)
	if err != nil {
		return err
	}
	logger.Configure(level, cfg.jsonLogs)

	pref, err := justfile.ParsePreferenceFromString(cfg.parser)
	if err != nil {
		return err
	}
	if pref == justfile.PreferRegex {
		fmt.Fprintln(os.Stderr, console.FormatWarningMessage("--parser regex is deprecated; prefer auto or ast"))
	}

	console.PrintBanner("just-mcp", GetVersion())

	roots := make([]watcher.Root, 0, len(cfg.watchDirs))
	paths := make([]string, 0, len(cfg.watchDirs))
	for _, raw := range cfg.watchDirs {
		wr := parseWatchRoot(raw)
		abs, err := filepath.Abs(wr.path)
		if err != nil {
			return fmt.Errorf("resolving watch-dir %q: %w", wr.path, err)
		}
		roots = append(roots, watcher.Root{Path: abs, Label: wr.label})
		paths = append(paths, abs)
	}

	p := justfile.NewParser(pref)
	reg := registry.New()
	mgr := resources.WithDefault()
	secCfg := security.DefaultConfig()
	secCfg.AllowedPaths = paths
	validator := security.New(secCfg)
	exec := executor.New(p, validator, mgr)
	w := watcher.New(reg, p, exec)
	w.Configure(roots)

	var adminTools *admin.Tools
	if cfg.admin {
		adminTools = admin.New(reg, w, p, validator, paths)
	}

	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()
	go func() {
		if err := w.Run(watchCtx); err != nil {
			serveLog.Error("watcher stopped: %v", err)
		}
	}()
	defer w.Close()

	if cfg.admin {
		if _, err := adminTools.Sync(ctx); err != nil {
			serveLog.Warn("initial admin sync failed: %v", err)
		}
	}

	server := mcpserver.New("just-mcp", GetVersion(), reg, exec, adminTools)
	serveLog.Printf("ready on stdio, watching %d root(s), admin=%v, parser=%s", len(roots), cfg.admin, pref)
	return server.Serve(ctx)
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q: valid options are debug, info, warn, error", s)
	}
}
