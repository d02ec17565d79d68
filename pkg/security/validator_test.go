package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePath_RejectsTraversal(t *testing.T) {
	v := WithDefault()
	err := v.ValidatePath("../etc/passwd")
	require.Error(t, err)
}

func TestValidatePath_RejectsTilde(t *testing.T) {
	v := WithDefault()
	err := v.ValidatePath("~/secrets")
	require.Error(t, err)
}

func TestValidatePath_AllowsWithinRoot(t *testing.T) {
	v := New(Config{AllowedPaths: []string{"."}})
	err := v.ValidatePath("justfile")
	assert.NoError(t, err)
}

func TestValidateTaskName_LengthBounds(t *testing.T) {
	v := WithDefault()
	assert.Error(t, v.ValidateTaskName(""))
	assert.Error(t, v.ValidateTaskName(strings.Repeat("a", 101)))
	assert.NoError(t, v.ValidateTaskName(strings.Repeat("a", 100)))
}

func TestValidateTaskName_RejectsBadCharacters(t *testing.T) {
	v := WithDefault()
	assert.Error(t, v.ValidateTaskName("build; rm -rf /"))
	assert.Error(t, v.ValidateTaskName("build/deploy"))
	assert.NoError(t, v.ValidateTaskName("build-deploy_2"))
}

func TestValidateParameter_ExactMaxLengthPasses(t *testing.T) {
	v := New(Config{MaxParameterLength: 1024, StrictMode: true})
	ok := strings.Repeat("a", 1024)
	assert.NoError(t, v.ValidateParameter("name", ok))

	tooLong := strings.Repeat("a", 1025)
	assert.Error(t, v.ValidateParameter("name", tooLong))
}

func TestValidateParameter_NameLengthBounds(t *testing.T) {
	v := WithDefault()
	assert.Error(t, v.ValidateParameter("", "x"))
	assert.Error(t, v.ValidateParameter(strings.Repeat("n", 51), "x"))
	assert.NoError(t, v.ValidateParameter(strings.Repeat("n", 50), "x"))
}

func TestValidateParameter_RejectsNullByte(t *testing.T) {
	v := WithDefault()
	err := v.ValidateParameter("name", "foo\x00bar")
	require.Error(t, err)
}

func TestValidateParameter_RejectsForbiddenPatternsInStrictMode(t *testing.T) {
	v := WithDefault()
	assert.Error(t, v.ValidateParameter("cmd", "foo; rm -rf /"))
	assert.Error(t, v.ValidateParameter("cmd", "$(whoami)"))
	assert.Error(t, v.ValidateParameter("path", "../../etc/passwd"))
}

func TestValidateParameter_StrictModeOffSkipsPatternCheck(t *testing.T) {
	v := New(Config{MaxParameterLength: 1024, StrictMode: false})
	assert.NoError(t, v.ValidateParameter("cmd", "foo; rm -rf /"))
}

func TestValidateParameters_CountCap(t *testing.T) {
	v := New(Config{MaxParameterLength: 1024, MaxParameters: 2, StrictMode: true})
	err := v.ValidateParameters(map[string]any{"a": "1", "b": "2", "c": "3"})
	require.Error(t, err)
}

func TestValidateParameters_RejectsNonScalar(t *testing.T) {
	v := WithDefault()
	err := v.ValidateParameters(map[string]any{"a": []string{"x"}})
	require.Error(t, err)
}

func TestSanitize_PassesThroughSafeValue(t *testing.T) {
	assert.Equal(t, "build-2", Sanitize("build-2"))
}

func TestSanitize_QuotesUnsafeValue(t *testing.T) {
	out := Sanitize("foo; rm -rf /")
	assert.Equal(t, "'foo; rm -rf /'", out)
}

func TestSanitize_EscapesEmbeddedSingleQuote(t *testing.T) {
	out := Sanitize("it's unsafe")
	assert.Equal(t, `'it'\''s unsafe'`, out)
}

func TestSanitize_EmptyString(t *testing.T) {
	assert.Equal(t, "''", Sanitize(""))
}

func TestValidateCommand_RejectsDenylistedSubstringInStrictMode(t *testing.T) {
	v := New(Config{StrictMode: true})
	assert.Error(t, v.ValidateCommand("eval $(cat foo)"))
	assert.Error(t, v.ValidateCommand("/usr/bin/bash -c foo"))
}

func TestValidateCommand_AllowsWhenNotStrict(t *testing.T) {
	v := New(Config{StrictMode: false})
	assert.NoError(t, v.ValidateCommand("bash script.sh"))
}
