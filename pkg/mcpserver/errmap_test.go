package mcpserver

import (
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toolprint/just-mcp/pkg/executor"
	"github.com/toolprint/just-mcp/pkg/justerr"
)

func TestResultToCallResult_Success(t *testing.T) {
	res := &executor.Result{Success: true, Stdout: "built\n"}
	out := resultToCallResult(res)
	assert.False(t, out.IsError)
	require.Len(t, out.Content, 1)
	text, ok := out.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Equal(t, "built\n", text.Text)
}

func TestResultToCallResult_NonZeroExit(t *testing.T) {
	res := &executor.Result{
		Success:  false,
		HasExit:  true,
		ExitCode: 127,
		Stderr:   "bash: foo: command not found",
		Error:    "command failed with exit code 127",
	}
	out := resultToCallResult(res)
	assert.True(t, out.IsError)
	text, ok := out.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "command not found")
	assert.Contains(t, text.Text, "exit code: 127")
}

func TestResultToCallResult_IncludesExecutionID(t *testing.T) {
	res := &executor.Result{
		Success:     false,
		HasExit:     true,
		ExitCode:    1,
		ExecutionID: "abc-123",
	}
	out := resultToCallResult(res)
	text, ok := out.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "execution_id: abc-123")
}

func TestExitCodeHint_KnownCodes(t *testing.T) {
	assert.Contains(t, exitCodeHint(127), "command not found")
	assert.Contains(t, exitCodeHint(2), "bad usage")
	assert.Contains(t, exitCodeHint(1), "generic failure")
	assert.Contains(t, exitCodeHint(42), "non-zero")
}

func TestErrToMCPError_MapsKinds(t *testing.T) {
	asRPCErr := func(err error) *jsonrpc.Error {
		mapped := errToMCPError(err)
		rpcErr, ok := mapped.(*jsonrpc.Error)
		require.True(t, ok)
		return rpcErr
	}

	assert.Equal(t, jsonrpc.CodeInvalidRequest, asRPCErr(justerr.New(justerr.KindInvalidToolName, "boom")).Code)
	assert.Equal(t, jsonrpc.CodeInvalidRequest, asRPCErr(justerr.New(justerr.KindTaskNotFound, "boom")).Code)
	assert.Equal(t, jsonrpc.CodeInvalidParams, asRPCErr(justerr.New(justerr.KindInvalidParameter, "boom")).Code)
	assert.Equal(t, jsonrpc.CodeInvalidRequest, asRPCErr(justerr.New(justerr.KindAccessDenied, "boom")).Code)
	assert.Equal(t, jsonrpc.CodeInternalError, asRPCErr(justerr.New(justerr.KindTooManyExecutions, "boom")).Code)
	assert.Equal(t, jsonrpc.CodeInternalError, asRPCErr(justerr.New(justerr.KindInternal, "boom")).Code)
}

func TestErrToMCPError_PlainError(t *testing.T) {
	mapped := errToMCPError(errors.New("unclassified"))
	rpcErr, ok := mapped.(*jsonrpc.Error)
	require.True(t, ok)
	assert.Equal(t, jsonrpc.CodeInternalError, rpcErr.Code)
}

func TestConvertSchema_RoundTrips(t *testing.T) {
	raw := []byte(`{"type":"object","properties":{"name":{"type":"string"}},"required":["name"]}`)
	schema, err := convertSchema(raw)
	require.NoError(t, err)
	assert.Equal(t, "object", schema.Type)
}

func TestConvertSchema_EmptyDefaultsToObject(t *testing.T) {
	schema, err := convertSchema(nil)
	require.NoError(t, err)
	assert.Equal(t, "object", schema.Type)
}
