package admin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/toolprint/just-mcp/pkg/justerr"
	"github.com/toolprint/just-mcp/pkg/justfile"
)

// RecipeParameter is one parameter definition supplied to CreateRecipe.
type RecipeParameter struct {
	Name    string
	Default *string
}

// CreateRecipeRequest is the input to CreateRecipe.
type CreateRecipeRequest struct {
	// WatchName, if set, selects which configured watch root's justfile
	// to append to, matching the root's full path or its base name; empty
	// selects the sole watch root (an error if there is more than one).
	WatchName   string
	RecipeName  string
	Description string
	Recipe      string
	Parameters  []RecipeParameter
	Dependencies []string
}

// CreateRecipeResult is the response of _admin_create_recipe.
type CreateRecipeResult struct {
	RecipeName   string `json:"recipe_name"`
	JustfilePath string `json:"justfile_path"`
	BackupPath   string `json:"backup_path"`
}

// CreateRecipe resolves the target justfile, takes a byte-for-byte backup,
// appends the new recipe, and reparses. If the recipe name already exists,
// an error is returned before anything is written. If the file fails to
// parse after the append, the original content is written back and the
// parse error is returned wrapped.
func (t *Tools) CreateRecipe(ctx context.Context, req CreateRecipeRequest) (*CreateRecipeResult, error) {
	if err := t.validator.ValidateTaskName(req.RecipeName); err != nil {
		return nil, err
	}
	if err := validateParameterDefinitions(req.Parameters); err != nil {
		return nil, err
	}

	justfilePath, err := t.resolveJustfile(req.WatchName)
	if err != nil {
		return nil, err
	}
	if err := t.validator.ValidatePath(justfilePath); err != nil {
		return nil, err
	}

	existing, err := t.parser.ParseFile(ctx, justfilePath)
	if err != nil {
		return nil, err
	}
	for _, r := range existing {
		if r.Name == req.RecipeName {
			return nil, justerr.New(justerr.KindInvalidParameter, "recipe %q already exists in %s", req.RecipeName, justfilePath)
		}
	}

	original, err := os.ReadFile(justfilePath)
	if err != nil {
		return nil, justerr.Wrap(justerr.KindIO, err, "reading %s", justfilePath)
	}

	backupPath := justfilePath + ".bak"
	if err := os.WriteFile(backupPath, original, 0o644); err != nil {
		return nil, justerr.Wrap(justerr.KindIO, err, "writing backup %s", backupPath)
	}

	appended := appendRecipe(original, req)
	if err := atomicWrite(justfilePath, appended); err != nil {
		return nil, justerr.Wrap(justerr.KindIO, err, "writing %s", justfilePath)
	}

	reparsed, err := t.parser.ParseFile(ctx, justfilePath)
	if err == nil {
		err = requireRecipeParsed(reparsed, req.RecipeName)
	}
	if err != nil {
		// Reparse failed, or the shared PreferAuto parser silently
		// synthesized a diagnostic recipe instead of erroring (it does so
		// when its backends fail with recoverable errors): either way the
		// new recipe didn't actually parse. Restore the backup and surface
		// the failure.
		if restoreErr := atomicWrite(justfilePath, original); restoreErr != nil {
			t.log.Error("failed to restore backup for %s after bad recipe append: %v", justfilePath, restoreErr)
		}
		return nil, justerr.Wrap(justerr.KindParse, err, "new recipe %q left %s unparseable, reverted", req.RecipeName, justfilePath)
	}

	if _, err := t.scanJustfile(ctx, justfilePath); err != nil {
		t.log.Warn("recipe created but rescanning %s failed: %v", justfilePath, err)
	}

	return &CreateRecipeResult{
		RecipeName:   req.RecipeName,
		JustfilePath: justfilePath,
		BackupPath:   backupPath,
	}, nil
}

// requireRecipeParsed reports an error if name is not among recipes. Used
// to detect PreferAuto's silent "parse-error" sentinel synthesis after an
// append: a genuinely broken header leaves the new recipe absent (replaced
// by a single diagnostic recipe) even though ParseFile itself returns no
// error.
func requireRecipeParsed(recipes []justfile.Recipe, name string) error {
	for _, r := range recipes {
		if r.Name == name {
			return nil
		}
	}
	return justerr.New(justerr.KindParse, "recipe %q did not appear in the reparsed justfile", name)
}

// resolveJustfile picks the target justfile for a watchName, or the sole
// configured root if watchName is empty and exactly one root is watched.
func (t *Tools) resolveJustfile(watchName string) (string, error) {
	if watchName == "" {
		if len(t.watchPaths) != 1 {
			return "", justerr.New(justerr.KindInvalidParameter, "watch_name is required when more than one watch root is configured")
		}
		return justfileUnder(t.watchPaths[0]), nil
	}
	for _, p := range t.watchPaths {
		if filepath.Base(p) == watchName || p == watchName {
			return justfileUnder(p), nil
		}
	}
	return "", justerr.New(justerr.KindInvalidParameter, "no watch root named %q", watchName)
}

func justfileUnder(root string) string {
	if info, err := os.Stat(root); err == nil && info.IsDir() {
		return filepath.Join(root, "justfile")
	}
	return root
}

// appendRecipe renders req as a justfile recipe block and appends it to
// content, always separated by one blank line (after first adding a
// trailing newline if content lacks one).
func appendRecipe(content []byte, req CreateRecipeRequest) []byte {
	var b strings.Builder
	b.Write(content)
	if len(content) > 0 && content[len(content)-1] != '\n' {
		b.WriteByte('\n')
	}
	b.WriteByte('\n')

	if req.Description != "" {
		fmt.Fprintf(&b, "# %s\n", req.Description)
	}

	b.WriteString(req.RecipeName)
	for _, p := range req.Parameters {
		if p.Default != nil {
			fmt.Fprintf(&b, " %s=%q", p.Name, *p.Default)
		} else {
			fmt.Fprintf(&b, " %s", p.Name)
		}
	}
	b.WriteByte(':')
	if len(req.Dependencies) > 0 {
		fmt.Fprintf(&b, " %s", strings.Join(req.Dependencies, " "))
	}
	b.WriteByte('\n')

	for _, line := range strings.Split(req.Recipe, "\n") {
		b.WriteString("    ")
		b.WriteString(line)
		b.WriteByte('\n')
	}

	return []byte(b.String())
}

// atomicWrite writes content to path via a temp file in the same
// directory followed by rename, so a crash mid-write never leaves a
// half-written justfile.
func atomicWrite(path string, content []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".just-mcp-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
