// Package cli provides the just-mcp command-line interface: a cobra root
// command whose default action (also available as the explicit `serve`
// subcommand) starts the MCP server.
//
// # Basic usage
//
//	just-mcp --watch-dir . --admin
//	just-mcp serve --watch-dir ./services/api:api --watch-dir ./services/web:web
//
// # Flags
//
//	--watch-dir   directory or justfile path to watch, optionally path:label; repeatable
//	--admin       enable the _admin_* tools
//	--parser      parser backend: auto, ast, cli, or regex (deprecated)
//	--log-level   debug, info, warn, or error
//	--json-logs   emit structured JSON logs instead of text
//
// Output formatting for the CLI's own startup/status lines (not the MCP
// JSON-RPC stream) goes through pkg/console; logging goes through
// pkg/logger, which is namespace-filterable via JUST_MCP_LOG/RUST_LOG.
package cli
