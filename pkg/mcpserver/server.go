// Package mcpserver adapts the tool registry, executor, and admin tools to
// the Model Context Protocol: it publishes registry.ToolDefinition values as
// MCP tools, keeps that set live as the registry changes (spec component
// C8), and routes tools/call through the executor or admin tools depending
// on the tool name.
package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/toolprint/just-mcp/pkg/admin"
	"github.com/toolprint/just-mcp/pkg/executor"
	"github.com/toolprint/just-mcp/pkg/logger"
	"github.com/toolprint/just-mcp/pkg/registry"
)

// Server wraps an *mcp.Server, keeping its published tool set synchronized
// with the registry and routing calls to the executor or admin tools.
type Server struct {
	mcp *mcp.Server

	registry *registry.Registry
	exec     *executor.Executor
	admin    *admin.Tools
	log      *logger.Logger
}

// New builds a Server. Admin may be nil, in which case no _admin_* tools
// are registered regardless of what the registry contains.
func New(name, version string, reg *registry.Registry, exec *executor.Executor, adminTools *admin.Tools) *Server {
	s := &Server{
		registry: reg,
		exec:     exec,
		admin:    adminTools,
		log:      logger.New("mcpserver"),
	}

	s.mcp = mcp.NewServer(&mcp.Implementation{
		Name:    name,
		Version: version,
	}, &mcp.ServerOptions{
		Capabilities: &mcp.ServerCapabilities{
			Tools: &mcp.ToolCapabilities{
				// Recipes come and go as justfiles are edited, so clients
				// must be told to re-fetch tools/list.
				ListChanged: true,
			},
		},
		Logger: s.log.Slog(),
	})

	return s
}

// Serve registers the current registry contents and admin tools, then runs
// the server over stdio until ctx is canceled or the transport closes. A
// goroutine watches the registry for changes for as long as Serve runs.
func (s *Server) Serve(ctx context.Context) error {
	for _, tool := range s.registry.List() {
		s.publish(tool)
	}
	if s.admin != nil {
		s.registerAdminTools()
	}

	changes := s.registry.Subscribe()
	defer s.registry.Unsubscribe(changes)
	go s.watchRegistry(ctx, changes)

	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) watchRegistry(ctx context.Context, changes <-chan registry.ChangeEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-changes:
			if !ok {
				return
			}
			switch ev.Kind {
			case registry.Removed:
				s.mcp.RemoveTools(ev.Name)
			default:
				tool, ok := s.registry.Get(ev.Name)
				if !ok {
					continue
				}
				s.publish(tool)
			}
		}
	}
}

// publish registers or re-registers a single recipe-backed tool. Calling
// AddTool again for an existing name replaces its definition and handler.
func (s *Server) publish(tool registry.ToolDefinition) {
	schema, err := convertSchema(tool.InputSchema)
	if err != nil {
		s.log.Error("dropping tool %s: invalid input schema: %v", tool.DisplayName, err)
		return
	}

	internalName := tool.InternalName
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        tool.DisplayName,
		Description: tool.Description,
		InputSchema: schema,
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args map[string]any) (*mcp.CallToolResult, any, error) {
		res, err := s.exec.Execute(ctx, executor.Request{
			ToolName:   internalName,
			Parameters: args,
		})
		if err != nil {
			return nil, nil, errToMCPError(err)
		}
		return resultToCallResult(res), nil, nil
	})
}

// convertSchema unmarshals the registry's JSON Schema draft-07 bytes into
// the jsonschema-go type mcp.Tool.InputSchema expects.
func convertSchema(raw json.RawMessage) (*jsonschema.Schema, error) {
	if len(raw) == 0 {
		return &jsonschema.Schema{Type: "object"}, nil
	}
	var schema jsonschema.Schema
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, err
	}
	return &schema, nil
}

// CallResultFor is exported for tests that want to exercise the
// executor-result-to-MCP-result mapping without a running server.
func CallResultFor(res *executor.Result) *mcp.CallToolResult {
	return resultToCallResult(res)
}

// mustJSON marshals v, falling back to its error text if marshaling itself
// fails (only admin-result types reach here, none of which can produce
// unmarshalable values in practice).
func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return err.Error()
	}
	return string(b)
}
