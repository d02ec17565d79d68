package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand builds the just-mcp root command. serve is both a named
// subcommand and the root's own RunE, so `just-mcp` with no subcommand
// behaves like `just-mcp serve`.
func NewRootCommand() *cobra.Command {
	serve := NewServeCommand()

	root := &cobra.Command{
		Use:     "just-mcp",
		Short:   "Expose justfile recipes as MCP tools",
		Version: GetVersion(),
		RunE:    serve.RunE,
	}
	root.Flags().AddFlagSet(serve.Flags())
	root.AddCommand(serve)

	return root
}
