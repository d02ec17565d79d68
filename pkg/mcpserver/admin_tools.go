package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/toolprint/just-mcp/pkg/admin"
)

// registerAdminTools publishes the fixed _admin_* tool set. Their schemas
// are known at compile time, so (unlike recipe-backed tools) they're left
// to the SDK's own struct-tag reflection rather than built by hand.
func (s *Server) registerAdminTools() {
	type syncArgs struct{}

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "_admin_sync",
		Description: "Rescan every configured watch root and republish its recipes as tools.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ syncArgs) (*mcp.CallToolResult, any, error) {
		result, err := s.admin.Sync(ctx)
		if err != nil {
			return nil, nil, errToMCPError(err)
		}
		return jsonResult(result)
	})

	type parserDoctorArgs struct {
		Verbose bool `json:"verbose,omitempty" jsonschema:"Include a verbose diagnostic log line"`
	}

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "_admin_parser_doctor",
		Description: "Report parser pipeline metrics and whether the just CLI is reachable on PATH.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args parserDoctorArgs) (*mcp.CallToolResult, any, error) {
		return jsonResult(s.admin.ParserDoctor(args.Verbose))
	})

	type setWatchDirectoryArgs struct {
		Path string `json:"path" jsonschema:"Directory or justfile path to add to the watch list"`
	}

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "_admin_set_watch_directory",
		Description: "Add a directory or justfile path to the live watch list and rescan.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args setWatchDirectoryArgs) (*mcp.CallToolResult, any, error) {
		result, err := s.admin.SetWatchDirectory(ctx, args.Path)
		if err != nil {
			return nil, nil, errToMCPError(err)
		}
		return jsonResult(result)
	})

	type recipeParameterArgs struct {
		Name    string  `json:"name" jsonschema:"Parameter name"`
		Default *string `json:"default,omitempty" jsonschema:"Default value, if any"`
	}

	type createRecipeArgs struct {
		WatchName    string                `json:"watch_name,omitempty" jsonschema:"Which watch root's justfile to edit; required if more than one root is configured"`
		RecipeName   string                `json:"recipe_name" jsonschema:"Name of the recipe to create"`
		Description  string                `json:"description,omitempty" jsonschema:"Doc comment to place above the recipe"`
		Recipe       string                `json:"recipe" jsonschema:"Recipe body; one or more shell lines"`
		Parameters   []recipeParameterArgs `json:"parameters,omitempty" jsonschema:"Recipe parameters, in order"`
		Dependencies []string              `json:"dependencies,omitempty" jsonschema:"Names of recipes this one depends on"`
	}

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "_admin_create_recipe",
		Description: "Append a new recipe to a justfile, backing up the original first, then republish tools.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args createRecipeArgs) (*mcp.CallToolResult, any, error) {
		params := make([]admin.RecipeParameter, len(args.Parameters))
		for i, p := range args.Parameters {
			params[i] = admin.RecipeParameter{Name: p.Name, Default: p.Default}
		}

		result, err := s.admin.CreateRecipe(ctx, admin.CreateRecipeRequest{
			WatchName:    args.WatchName,
			RecipeName:   args.RecipeName,
			Description:  args.Description,
			Recipe:       args.Recipe,
			Parameters:   params,
			Dependencies: args.Dependencies,
		})
		if err != nil {
			return nil, nil, errToMCPError(err)
		}
		return jsonResult(result)
	})
}

// jsonResult marshals v as the sole text block of a successful tool result.
func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: mustJSON(v)}},
	}, nil, nil
}
