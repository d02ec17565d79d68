package justfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegexBackend_Trivial(t *testing.T) {
	content := "# Greet\nhello name=\"world\":\n    echo \"hi {{name}}\"\n"
	b := newRegexBackend()
	recipes, err := b.parseContent(content)
	require.NoError(t, err)
	require.Len(t, recipes, 1)

	r := recipes[0]
	assert.Equal(t, "hello", r.Name)
	assert.Equal(t, "Greet", r.Doc)
	require.Len(t, r.Parameters, 1)
	assert.Equal(t, "name", r.Parameters[0].Name)
	require.NotNil(t, r.Parameters[0].Default)
	assert.Equal(t, "world", *r.Parameters[0].Default)
}

func TestRegexBackend_DefaultDoc(t *testing.T) {
	content := "build:\n    cargo build\n"
	b := newRegexBackend()
	recipes, err := b.parseContent(content)
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	assert.Equal(t, DefaultDoc("build"), recipes[0].Doc)
}

func TestRegexBackend_DocAttributeWins(t *testing.T) {
	content := "# ignored comment\n[doc(\"Real doc\")]\nbuild:\n    cargo build\n"
	b := newRegexBackend()
	recipes, err := b.parseContent(content)
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	assert.Equal(t, "Real doc", recipes[0].Doc)
}

func TestRegexBackend_ParameterDescriptionComment(t *testing.T) {
	content := "# {{name}}: who to greet\nhello name:\n    echo {{name}}\n"
	b := newRegexBackend()
	recipes, err := b.parseContent(content)
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	require.Len(t, recipes[0].Parameters, 1)
	assert.Equal(t, "who to greet", recipes[0].Parameters[0].Description)
}

func TestRegexBackend_SpaceSeparatedParams(t *testing.T) {
	content := "greet name surname=\"doe\":\n    echo {{name}} {{surname}}\n"
	b := newRegexBackend()
	recipes, err := b.parseContent(content)
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	require.Len(t, recipes[0].Parameters, 2)
	assert.Equal(t, "name", recipes[0].Parameters[0].Name)
	assert.Nil(t, recipes[0].Parameters[0].Default)
	assert.Equal(t, "surname", recipes[0].Parameters[1].Name)
	require.NotNil(t, recipes[0].Parameters[1].Default)
	assert.Equal(t, "doe", *recipes[0].Parameters[1].Default)
}

func TestRegexBackend_VariadicParam(t *testing.T) {
	content := "build +FLAGS:\n    cargo build {{FLAGS}}\n"
	b := newRegexBackend()
	recipes, err := b.parseContent(content)
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	require.Len(t, recipes[0].Parameters, 1)
	assert.True(t, recipes[0].Parameters[0].Variadic)
	assert.Equal(t, "FLAGS", recipes[0].Parameters[0].Name)
}

func TestRegexBackend_Dependencies(t *testing.T) {
	content := "test: build lint\n    cargo test\n"
	b := newRegexBackend()
	recipes, err := b.parseContent(content)
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	assert.Equal(t, []string{"build", "lint"}, recipes[0].Dependencies)
}

func TestRegexBackend_ShebangNotComment(t *testing.T) {
	content := "run:\n    #!/usr/bin/env bash\n    echo hi\n"
	b := newRegexBackend()
	recipes, err := b.parseContent(content)
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	assert.Contains(t, recipes[0].Body, "#!/usr/bin/env bash")
}

func TestRegexBackend_VariableAssignmentNotRecipe(t *testing.T) {
	content := "VERSION := \"1.0\"\n\nbuild:\n    echo {{VERSION}}\n"
	b := newRegexBackend()
	recipes, err := b.parseContent(content)
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	assert.Equal(t, "build", recipes[0].Name)
}

func TestRegexBackend_EmptyFile(t *testing.T) {
	b := newRegexBackend()
	recipes, err := b.parseContent("")
	require.NoError(t, err)
	assert.Empty(t, recipes)
}

func TestRegexBackend_PrivateRecipe(t *testing.T) {
	content := "_helper:\n    echo helper\n"
	b := newRegexBackend()
	recipes, err := b.parseContent(content)
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	assert.True(t, recipes[0].Private)
}

func TestRegexBackend_ConfirmAttribute(t *testing.T) {
	content := "[confirm(\"Really deploy?\")]\ndeploy:\n    ./deploy.sh\n"
	b := newRegexBackend()
	recipes, err := b.parseContent(content)
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	assert.Equal(t, "Really deploy?", recipes[0].ConfirmMessage)
}
