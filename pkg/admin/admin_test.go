package admin

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toolprint/just-mcp/pkg/justfile"
	"github.com/toolprint/just-mcp/pkg/registry"
	"github.com/toolprint/just-mcp/pkg/security"
	"github.com/toolprint/just-mcp/pkg/watcher"
)

func newTestTools(t *testing.T, watchPaths []string) (*Tools, *registry.Registry) {
	t.Helper()
	reg := registry.New()
	parser := justfile.NewParser(justfile.PreferRegex)
	w := watcher.New(reg, parser, nil)
	w.Configure(pathsToRoots(watchPaths))
	validator := security.New(security.Config{
		AllowedPaths:       watchPaths,
		MaxParameterLength: 1024,
		MaxParameters:      50,
		StrictMode:         true,
	})
	return New(reg, w, parser, validator, watchPaths), reg
}

func TestIsAdminTool(t *testing.T) {
	assert.True(t, isAdminTool("_admin_sync"))
	assert.False(t, isAdminTool("just_build"))
}

func TestSync_ScansConfiguredRoots(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "justfile"), []byte("# Test\ntest:\n    echo hi\n\n# Build\nbuild:\n    echo build\n"), 0o644))

	tools, reg := newTestTools(t, []string{dir})
	result, err := tools.Sync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.ScannedFiles)
	assert.Equal(t, 2, result.FoundRecipes)
	assert.Empty(t, result.Errors)
	assert.Len(t, reg.List(), 2)
}

func TestSync_SecondRunRepublishesUnchangedFile(t *testing.T) {
	// The registry is wiped at the top of every Sync; if the watcher's
	// unchanged-content short-circuit survived that wipe, a second Sync
	// over a byte-identical justfile would leave the registry empty.
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "justfile"), []byte("build:\n    echo hi\n"), 0o644))

	tools, reg := newTestTools(t, []string{dir})

	_, err := tools.Sync(context.Background())
	require.NoError(t, err)
	require.Len(t, reg.List(), 1)

	result, err := tools.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.FoundRecipes)
	assert.Len(t, reg.List(), 1)
}

func TestSync_MissingRootIsReportedAsError(t *testing.T) {
	tools, _ := newTestTools(t, []string{"/does/not/exist"})
	result, err := tools.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.ScannedFiles)
	assert.NotEmpty(t, result.Errors)
}

func TestSync_PreservesAdminTools(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "justfile"), []byte("build:\n    echo hi\n"), 0o644))

	tools, reg := newTestTools(t, []string{dir})
	reg.Add(registry.ToolDefinition{DisplayName: "_admin_sync"})

	_, err := tools.Sync(context.Background())
	require.NoError(t, err)

	_, ok := reg.Get("_admin_sync")
	assert.True(t, ok)
}

func TestParserDoctor_ReportsMetrics(t *testing.T) {
	tools, _ := newTestTools(t, []string{t.TempDir()})
	result := tools.ParserDoctor(false)
	assert.NotNil(t, result)
}

func TestCreateRecipe_AppendsAndBacksUp(t *testing.T) {
	dir := t.TempDir()
	justfilePath := filepath.Join(dir, "justfile")
	original := "build:\n    echo hi\n"
	require.NoError(t, os.WriteFile(justfilePath, []byte(original), 0o644))

	tools, reg := newTestTools(t, []string{dir})

	result, err := tools.CreateRecipe(context.Background(), CreateRecipeRequest{
		RecipeName:  "deploy",
		Description: "Deploy the app",
		Recipe:      "echo deploying",
	})
	require.NoError(t, err)
	assert.Equal(t, "deploy", result.RecipeName)
	assert.Equal(t, justfilePath, result.JustfilePath)

	backup, err := os.ReadFile(result.BackupPath)
	require.NoError(t, err)
	assert.Equal(t, original, string(backup))

	updated, err := os.ReadFile(justfilePath)
	require.NoError(t, err)
	assert.Contains(t, string(updated), "deploy:")
	assert.Contains(t, string(updated), "echo deploying")

	_, ok := reg.Get("just_deploy")
	assert.True(t, ok)
}

func TestCreateRecipe_RejectsDuplicateName(t *testing.T) {
	dir := t.TempDir()
	justfilePath := filepath.Join(dir, "justfile")
	require.NoError(t, os.WriteFile(justfilePath, []byte("build:\n    echo hi\n"), 0o644))

	tools, _ := newTestTools(t, []string{dir})
	_, err := tools.CreateRecipe(context.Background(), CreateRecipeRequest{RecipeName: "build", Recipe: "echo again"})
	assert.Error(t, err)
}

func TestCreateRecipe_RequiresWatchNameWithMultipleRoots(t *testing.T) {
	dirA, dirB := t.TempDir(), t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dirA, "justfile"), []byte("build:\n    echo hi\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dirB, "justfile"), []byte("build:\n    echo hi\n"), 0o644))

	tools, _ := newTestTools(t, []string{dirA, dirB})
	_, err := tools.CreateRecipe(context.Background(), CreateRecipeRequest{RecipeName: "deploy", Recipe: "echo deploy"})
	assert.Error(t, err)
}

func TestCreateRecipe_RejectsMalformedParameterName(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "justfile"), []byte("build:\n    echo hi\n"), 0o644))

	tools, _ := newTestTools(t, []string{dir})
	_, err := tools.CreateRecipe(context.Background(), CreateRecipeRequest{
		RecipeName: "deploy",
		Recipe:     "echo deploy",
		Parameters: []RecipeParameter{{Name: "2bad!"}},
	})
	assert.Error(t, err)
}

func TestAppendRecipe_RendersParametersAndDependencies(t *testing.T) {
	def := "world"
	out := appendRecipe([]byte("build:\n    echo hi\n"), CreateRecipeRequest{
		RecipeName:   "greet",
		Recipe:       "echo hi",
		Parameters:   []RecipeParameter{{Name: "name", Default: &def}},
		Dependencies: []string{"build"},
	})
	s := string(out)
	assert.Contains(t, s, "greet name=\"world\": build\n")
	assert.NotContains(t, s, "build:\n    echo hi\n\n\ngreet name=\"world\": build:")
	assert.Equal(t, 1, strings.Count(s, "greet name=\"world\":"))
}

func TestRequireRecipeParsed_MissingNameIsError(t *testing.T) {
	recipes := []justfile.Recipe{{Name: "build"}, {Name: "test"}}
	assert.NoError(t, requireRecipeParsed(recipes, "build"))
	assert.Error(t, requireRecipeParsed(recipes, "deploy"))
}

func TestRequireRecipeParsed_SynthesizedSentinelIsTreatedAsFailure(t *testing.T) {
	// PreferAuto can answer a broken file without an error: a totally
	// broken append may surface as a single synthesized recipe that doesn't
	// carry the requested name, which requireRecipeParsed must still catch.
	recipes := []justfile.Recipe{{Name: "parse_error_tmp_justfile"}}
	assert.Error(t, requireRecipeParsed(recipes, "deploy"))
}

