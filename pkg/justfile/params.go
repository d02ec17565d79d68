package justfile

import "strings"

// splitParameters splits a raw parameter-list string on commas, respecting
// single- and double-quote state so that a default value containing a comma
// is not split.
func splitParameters(s string) []string {
	var parts []string
	var cur strings.Builder
	inQuotes := false
	quoteChar := byte(0)

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inQuotes:
			cur.WriteByte(c)
			if c == quoteChar {
				inQuotes = false
			}
		case c == '"' || c == '\'':
			inQuotes = true
			quoteChar = c
			cur.WriteByte(c)
		case c == ',':
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	if cur.Len() > 0 || len(parts) > 0 {
		parts = append(parts, cur.String())
	}
	return parts
}

// parseParameter parses a single `name`, `name="default"`, `name='default'`,
// or `name=bareword` token (optionally prefixed with `+` or `*` for
// variadic, or with a trailing `...`) into a Parameter.
func parseParameter(tok string) (Parameter, bool) {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return Parameter{}, false
	}

	variadic := false
	if strings.HasPrefix(tok, "+") || strings.HasPrefix(tok, "*") {
		variadic = true
		tok = tok[1:]
	}
	if strings.HasSuffix(tok, "...") {
		variadic = true
		tok = strings.TrimSuffix(tok, "...")
	}
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return Parameter{}, false
	}

	name := tok
	var def *string
	if eq := strings.IndexByte(tok, '='); eq >= 0 {
		name = strings.TrimSpace(tok[:eq])
		raw := strings.TrimSpace(tok[eq+1:])
		raw = unquote(raw)
		def = &raw
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Parameter{}, false
	}
	return Parameter{Name: name, Default: def, Variadic: variadic}, true
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// parseParenthesizedParams parses `(p1, p2="v")` form parameter lists.
func parseParenthesizedParams(inner string) []Parameter {
	var params []Parameter
	for _, tok := range splitParameters(inner) {
		if p, ok := parseParameter(tok); ok {
			params = append(params, p)
		}
	}
	return params
}

// parseSpaceSeparatedParams parses `p1 p2="v"` form parameter lists,
// respecting quote state the same way splitParameters does for commas.
func parseSpaceSeparatedParams(s string) []Parameter {
	var params []Parameter
	var cur strings.Builder
	inQuotes := false
	quoteChar := byte(0)

	flush := func() {
		if cur.Len() > 0 {
			if p, ok := parseParameter(cur.String()); ok {
				params = append(params, p)
			}
			cur.Reset()
		}
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inQuotes:
			cur.WriteByte(c)
			if c == quoteChar {
				inQuotes = false
			}
		case c == '"' || c == '\'':
			inQuotes = true
			quoteChar = c
			cur.WriteByte(c)
		case c == ' ' || c == '\t':
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return params
}

// applyParamDescriptions fills in Description for parameters either from an
// explicit `# {{name}}: text` comment, or (when absent) a synthesized
// "(default: v)" hint for parameters that have a default.
func applyParamDescriptions(params []Parameter, descriptions map[string]string) {
	for i := range params {
		if d, ok := descriptions[params[i].Name]; ok {
			params[i].Description = d
			continue
		}
		if params[i].Default != nil {
			params[i].Description = "(default: " + *params[i].Default + ")"
		}
	}
}

// parseDependencies extracts dependency recipe names (with optional literal
// argument lists preserved verbatim) from the text following a recipe
// header's colon.
func parseDependencies(after string) []string {
	after = strings.TrimSpace(after)
	if after == "" {
		return nil
	}
	// Dependencies are whitespace-separated; a dependency may carry a
	// parenthesized argument list that itself contains spaces, so we scan
	// rather than blindly split on whitespace.
	var deps []string
	var cur strings.Builder
	depth := 0
	for i := 0; i < len(after); i++ {
		c := after[i]
		switch c {
		case '(':
			depth++
			cur.WriteByte(c)
		case ')':
			if depth > 0 {
				depth--
			}
			cur.WriteByte(c)
		case ' ', '\t':
			if depth > 0 {
				cur.WriteByte(c)
				continue
			}
			if cur.Len() > 0 {
				deps = append(deps, cur.String())
				cur.Reset()
			}
		case '#':
			// trailing comment
			i = len(after)
		default:
			cur.WriteByte(c)
		}
	}
	if cur.Len() > 0 {
		deps = append(deps, cur.String())
	}
	return deps
}
