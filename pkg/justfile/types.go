// Package justfile parses justfiles into Recipe values via three backends
// (AST, CLI, regex) selected by a Preference, with an auto-fallback
// pipeline that tries the strongest backend first.
package justfile

// Parameter is a single recipe parameter. Order within Recipe.Parameters is
// significant: it is the positional order used at invocation time.
type Parameter struct {
	Name        string
	Default     *string
	Description string
	// Variadic is true when the parameter was declared with a `+` or `*`
	// prefix, or a trailing `...`, meaning it captures the remaining
	// positional arguments.
	Variadic bool
}

// HasDefault reports whether the parameter has a default value.
func (p Parameter) HasDefault() bool { return p.Default != nil }

// Recipe is an immutable value produced by a parser backend.
type Recipe struct {
	// Name matches [A-Za-z_][A-Za-z0-9_-]*.
	Name string
	// Parameters is ordered; positional at invocation.
	Parameters []Parameter
	// Dependencies are other recipe names this recipe depends on, in
	// declaration order. A dependency may carry literal call arguments
	// (e.g. `build(release)`), preserved verbatim after the name.
	Dependencies []string
	// Doc is assembled from (1) a [doc("...")] attribute, else (2)
	// contiguous `# ...` comment lines immediately preceding the header,
	// else (3) "Execute '<name>' recipe".
	Doc string
	// Body is the raw recipe body text, used only by admin/introspection.
	Body string
	// SourceLine is the 1-based line of the recipe header.
	SourceLine int
	// Group is the recipe's [group('name')] attribute, if any.
	Group string
	// Private is true when the recipe name starts with '_'.
	Private bool
	// ConfirmMessage is the recipe's [confirm("...")] attribute, if any.
	ConfirmMessage string
}

// DefaultDoc returns the doc string the spec mandates when neither a
// [doc(...)] attribute nor preceding comments were found.
func DefaultDoc(name string) string {
	return "Execute '" + name + "' recipe"
}
