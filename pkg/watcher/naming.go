package watcher

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/toolprint/just-mcp/pkg/justfile"
	"github.com/toolprint/just-mcp/pkg/registry"
)

// toolNames computes a recipe's internal routing key and its client-facing
// display name. internalName always embeds the full justfile path, so it
// is unique across every watched directory even when display names
// collide. displayName drops that path for a single watched root, and
// uses an @label suffix (falling back to the full path when no label was
// configured) once multiple roots are in play.
func toolNames(taskName, path string, hasMultipleDirs bool, label string) (internalName, displayName string) {
	internalName = fmt.Sprintf("just_%s_%s", taskName, path)

	if !hasMultipleDirs {
		return internalName, "just_" + taskName
	}
	if label != "" {
		return internalName, fmt.Sprintf("just_%s@%s", taskName, label)
	}
	return internalName, internalName
}

// recipeDescription mirrors the reference's comment-or-default precedence:
// the recipe's own doc comment if present, else a generated sentence that
// names the configured label when multiple roots are watched and a label
// exists.
func recipeDescription(r justfile.Recipe, hasMultipleDirs bool, label string) string {
	desc := r.Doc
	if desc == "" {
		if hasMultipleDirs && label != "" {
			desc = fmt.Sprintf("Execute '%s' task from %s", r.Name, label)
		} else {
			desc = fmt.Sprintf("Execute '%s' task", r.Name)
		}
	}
	if r.ConfirmMessage != "" {
		desc += fmt.Sprintf("\n\n⚠ requires confirmation: %s", r.ConfirmMessage)
	}
	return desc
}

// generateInputSchema builds a draft-07 JSON Schema object for a recipe's
// parameters: every parameter is a string property, parameters without a
// default are required, and additionalProperties is false. Schema shape is
// built directly as a map rather than through a reflection-driven library,
// since recipe parameters are discovered at runtime rather than declared
// on a Go struct that reflection could walk (see DESIGN.md).
func generateInputSchema(params []justfile.Parameter) json.RawMessage {
	properties := make(map[string]any, len(params))
	required := make([]string, 0, len(params))

	for _, p := range params {
		prop := map[string]any{"type": "string"}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if p.Default != nil {
			prop["default"] = *p.Default
		} else {
			required = append(required, p.Name)
		}
		properties[p.Name] = prop
	}

	schema := map[string]any{
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		// properties/required are built from plain maps/slices of JSON
		// scalars; Marshal cannot fail on them.
		panic(err)
	}
	return raw
}

// recipeToTool converts a parsed Recipe into a registry.ToolDefinition.
func recipeToTool(r justfile.Recipe, path, hash string, hasMultipleDirs bool, label string) registry.ToolDefinition {
	internalName, displayName := toolNames(r.Name, path, hasMultipleDirs, label)
	return registry.ToolDefinition{
		DisplayName:  displayName,
		InternalName: internalName,
		Description:  recipeDescription(r, hasMultipleDirs, label),
		InputSchema:  generateInputSchema(r.Parameters),
		Dependencies: r.Dependencies,
		SourceHash:   hash,
		LastModified: time.Now(),
	}
}
