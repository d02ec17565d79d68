package mcpserver

import (
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/toolprint/just-mcp/pkg/executor"
	"github.com/toolprint/just-mcp/pkg/justerr"
)

// resultToCallResult converts an executor.Result (a recipe that actually
// ran, successfully or not) into an MCP tool result. Execution failures
// are reported as a text block with IsError set, never as a JSON-RPC
// error, matching the spec's "tool-result, not protocol error" rule for
// Execution/Timeout.
func resultToCallResult(res *executor.Result) *mcp.CallToolResult {
	if res.Success {
		return &mcp.CallToolResult{
			Content: textBlocks(res.Stdout, res.Stderr),
		}
	}

	var b strings.Builder
	if res.Error != "" {
		b.WriteString(res.Error)
		b.WriteByte('\n')
	}
	if res.HasExit {
		fmt.Fprintf(&b, "exit code: %d\n", res.ExitCode)
		b.WriteString(exitCodeHint(res.ExitCode))
		b.WriteByte('\n')
	}
	if res.Stderr != "" {
		b.WriteString("stderr:\n")
		b.WriteString(res.Stderr)
		b.WriteByte('\n')
	}
	if res.ExecutionID != "" {
		fmt.Fprintf(&b, "execution_id: %s\n", res.ExecutionID)
	}

	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: b.String()}},
	}
}

func textBlocks(stdout, stderr string) []mcp.Content {
	content := []mcp.Content{&mcp.TextContent{Text: stdout}}
	if stderr != "" {
		content = append(content, &mcp.TextContent{Text: stderr})
	}
	return content
}

// exitCodeHint gives a short, client-visible troubleshooting hint for a
// handful of well-known shell exit codes; other codes get a generic hint.
func exitCodeHint(code int) string {
	switch code {
	case 127:
		return "hint: command not found — check the recipe's shell and that its dependencies are on PATH"
	case 2:
		return "hint: bad usage — check the recipe's arguments"
	case 1:
		return "hint: generic failure — see stderr above for detail"
	default:
		return "hint: recipe exited non-zero; see stderr above for detail"
	}
}

// errToMCPError converts a justerr.Error (or any error) that prevented a
// tool call from reaching a subprocess — validation, routing, or
// admission failures — into a JSON-RPC error, the protocol-level failure
// path distinct from resultToCallResult's tool-result path.
func errToMCPError(err error) error {
	e, ok := justerr.As(err)
	if !ok {
		return &jsonrpc.Error{Code: jsonrpc.CodeInternalError, Message: err.Error()}
	}

	switch e.Kind {
	case justerr.KindInvalidToolName, justerr.KindTaskNotFound:
		return &jsonrpc.Error{Code: jsonrpc.CodeInvalidRequest, Message: e.Error()}
	case justerr.KindInvalidParameter:
		return &jsonrpc.Error{Code: jsonrpc.CodeInvalidParams, Message: e.Error()}
	case justerr.KindAccessDenied:
		return &jsonrpc.Error{Code: jsonrpc.CodeInvalidRequest, Message: e.Error()}
	case justerr.KindTooManyExecutions, justerr.KindIO, justerr.KindTimeout:
		return &jsonrpc.Error{Code: jsonrpc.CodeInternalError, Message: e.Error(), Data: retryableData()}
	default:
		return &jsonrpc.Error{Code: jsonrpc.CodeInternalError, Message: e.Error()}
	}
}

func retryableData() []byte {
	return []byte(`{"retryable":true}`)
}
