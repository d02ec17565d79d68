package admin

import (
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/toolprint/just-mcp/pkg/justerr"
)

// parameterSchemaJSON constrains a recipe parameter definition to a name
// that just itself accepts as an identifier, using the same pattern the
// regex backend requires of a recipe name.
const parameterSchemaJSON = `{
	"type": "object",
	"properties": {
		"name": {"type": "string", "pattern": "^[A-Za-z_][A-Za-z0-9_-]*$"},
		"default": {"type": ["string", "null"]}
	},
	"required": ["name"]
}`

var parameterSchema = compileParameterSchema()

func compileParameterSchema() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("recipe-parameter.json", strings.NewReader(parameterSchemaJSON)); err != nil {
		panic("invalid embedded recipe parameter schema: " + err.Error())
	}
	sch, err := c.Compile("recipe-parameter.json")
	if err != nil {
		panic("invalid embedded recipe parameter schema: " + err.Error())
	}
	return sch
}

// validateParameterDefinitions validates each parameter definition in a
// _admin_create_recipe request against parameterSchema before the recipe
// is appended, so a malformed parameter name never gets baked into the
// justfile only to fail the post-append reparse.
func validateParameterDefinitions(params []RecipeParameter) error {
	for _, p := range params {
		instance := map[string]any{"name": p.Name}
		if p.Default != nil {
			instance["default"] = *p.Default
		} else {
			instance["default"] = nil
		}
		if err := parameterSchema.Validate(instance); err != nil {
			return justerr.New(justerr.KindInvalidParameter, "parameter %q failed validation: %v", p.Name, err)
		}
	}
	return nil
}
