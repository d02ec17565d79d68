package justfile

import (
	"context"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/toolprint/just-mcp/pkg/justerr"
)

// cliBackend shells out to `just --summary` (recipe names, imports resolved
// transparently by `just` itself) and `just -s <name>` (per-recipe source),
// then parses the header line with the same small header grammar the regex
// backend uses.
type cliBackend struct {
	regex *regexBackend
}

func newCLIBackend() *cliBackend {
	return &cliBackend{regex: newRegexBackend()}
}

func (b *cliBackend) available() bool {
	_, err := exec.LookPath("just")
	return err == nil
}

func (b *cliBackend) parseFile(ctx context.Context, path string) ([]Recipe, error) {
	dir := filepath.Dir(path)

	names, err := b.recipeNames(ctx, dir)
	if err != nil {
		return nil, err
	}

	recipes := make([]Recipe, 0, len(names))
	for _, name := range names {
		source, err := b.recipeSource(ctx, dir, name)
		if err != nil {
			// A single recipe we can't introspect still gets a minimal
			// entry so the client sees something callable.
			recipes = append(recipes, Recipe{
				Name:    name,
				Doc:     DefaultDoc(name),
				Body:    "just " + name,
				Private: strings.HasPrefix(name, "_"),
			})
			continue
		}
		recipe, _, ok := b.regex.parseRecipe(strings.Split(source, "\n"), 0)
		if !ok {
			recipes = append(recipes, Recipe{
				Name:    name,
				Doc:     DefaultDoc(name),
				Body:    "just " + name,
				Private: strings.HasPrefix(name, "_"),
			})
			continue
		}
		recipe.Name = name // the regex parse of `just -s` output may
		// disagree on name if `just` renders a qualified/imported name;
		// trust --summary's name since it is what `just <name>` expects.
		recipes = append(recipes, recipe)
	}
	return recipes, nil
}

func (b *cliBackend) recipeNames(ctx context.Context, dir string) ([]string, error) {
	cmd := exec.CommandContext(ctx, "just", "--summary")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return nil, justerr.Wrap(justerr.KindIO, err, "just --summary failed in %s", dir)
	}
	fields := strings.Fields(string(out))
	return fields, nil
}

func (b *cliBackend) recipeSource(ctx context.Context, dir, name string) (string, error) {
	cmd := exec.CommandContext(ctx, "just", "-s", name)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", justerr.Wrap(justerr.KindIO, err, "just -s %s failed in %s", name, dir)
	}
	return string(out), nil
}
