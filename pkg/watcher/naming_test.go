package watcher

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toolprint/just-mcp/pkg/justfile"
)

func TestToolNames_SingleRootOmitsLabel(t *testing.T) {
	internal, display := toolNames("build", "/tmp/proj/justfile", false, "anything")
	assert.Equal(t, "just_build_/tmp/proj/justfile", internal)
	assert.Equal(t, "just_build", display)
}

func TestToolNames_MultiRootWithLabel(t *testing.T) {
	_, display := toolNames("build", "/tmp/proj/justfile", true, "backend")
	assert.Equal(t, "just_build@backend", display)
}

func TestToolNames_MultiRootWithoutLabelFallsBackToFullName(t *testing.T) {
	_, display := toolNames("build", "/tmp/proj/justfile", true, "")
	assert.Equal(t, "just_build_/tmp/proj/justfile", display)
}

func TestRecipeDescription_UsesDocWhenPresent(t *testing.T) {
	r := justfile.Recipe{Name: "build", Doc: "Compiles the project"}
	assert.Equal(t, "Compiles the project", recipeDescription(r, false, ""))
}

func TestRecipeDescription_DefaultWithLabel(t *testing.T) {
	r := justfile.Recipe{Name: "build"}
	assert.Equal(t, "Execute 'build' task from backend", recipeDescription(r, true, "backend"))
}

func TestRecipeDescription_DefaultWithoutLabel(t *testing.T) {
	r := justfile.Recipe{Name: "build"}
	assert.Equal(t, "Execute 'build' task", recipeDescription(r, false, ""))
}

func TestGenerateInputSchema_RequiredVsDefaulted(t *testing.T) {
	def := "world"
	params := []justfile.Parameter{
		{Name: "name", Description: "who to greet"},
		{Name: "greeting", Default: &def},
	}
	raw := generateInputSchema(params)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(raw, &schema))

	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, false, schema["additionalProperties"])

	required := schema["required"].([]any)
	require.Len(t, required, 1)
	assert.Equal(t, "name", required[0])

	props := schema["properties"].(map[string]any)
	require.Len(t, props, 2)
}

func TestRecipeDescription_AppendsConfirmMessage(t *testing.T) {
	r := justfile.Recipe{Name: "deploy", Doc: "Deploys to prod", ConfirmMessage: "this touches production"}
	desc := recipeDescription(r, false, "")
	assert.Contains(t, desc, "Deploys to prod")
	assert.Contains(t, desc, "⚠ requires confirmation: this touches production")
}

func TestRecipeToTool_PopulatesFields(t *testing.T) {
	r := justfile.Recipe{Name: "build", Dependencies: []string{"lint"}}
	tool := recipeToTool(r, "/tmp/justfile", "abc123", false, "")
	assert.Equal(t, "just_build", tool.DisplayName)
	assert.Equal(t, "just_build_/tmp/justfile", tool.InternalName)
	assert.Equal(t, "abc123", tool.SourceHash)
	assert.Equal(t, []string{"lint"}, tool.Dependencies)
}
