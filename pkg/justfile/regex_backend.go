package justfile

import (
	"regexp"
	"strings"
)

// regexBackend is a pure line-scanning parser kept for fallback when `just`
// is absent from PATH. It is deprecated: prefer the AST or CLI backends.
type regexBackend struct {
	recipe    *regexp.Regexp
	attribute *regexp.Regexp
	paramDesc *regexp.Regexp
}

func newRegexBackend() *regexBackend {
	return &regexBackend{
		// Matches recipe definitions with optional parameters (with or
		// without parentheses).
		recipe: regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_-]*)(\s+[^:]+)?\s*:`),
		// Matches attributes like [private], [group('name')], [doc("...")].
		attribute: regexp.MustCompile(`^\s*\[([^\]]+)\]`),
		// Matches parameter descriptions in comments: # {{param}}: description
		paramDesc: regexp.MustCompile(`^\s*\{\{(\w+)\}\}\s*:\s*(.+)$`),
	}
}

func (b *regexBackend) parseContent(content string) ([]Recipe, error) {
	lines := strings.Split(content, "\n")
	var recipes []Recipe
	i := 0
	for i < len(lines) {
		recipe, consumed, ok := b.parseRecipe(lines, i)
		if !ok {
			i++
			continue
		}
		recipes = append(recipes, recipe)
		i = consumed
	}
	return recipes, nil
}

func (b *regexBackend) parseRecipe(lines []string, start int) (Recipe, int, bool) {
	i := start
	var comments []string
	var docString *string
	var group string
	var confirmMsg string
	paramDescs := map[string]string{}

	for i < len(lines) {
		line := strings.TrimSpace(lines[i])

		if line == "" {
			i++
			continue
		}
		if strings.HasPrefix(line, "#!") {
			i++
			continue
		}
		if strings.Contains(line, ":=") && !strings.HasSuffix(line, ":") {
			// Variable assignment, not a recipe.
			i++
			continue
		}

		if rest, ok := strings.CutPrefix(line, "#"); ok {
			if m := b.paramDesc.FindStringSubmatch(rest); m != nil {
				paramDescs[m[1]] = strings.TrimSpace(m[2])
			} else {
				comments = append(comments, strings.TrimSpace(rest))
			}
			i++
			continue
		}

		if m := b.attribute.FindStringSubmatch(line); m != nil {
			attr := m[1]
			switch {
			case strings.HasPrefix(attr, "doc(") && strings.HasSuffix(attr, ")"):
				inner := attr[4 : len(attr)-1]
				d := unquote(strings.TrimSpace(inner))
				docString = &d
			case strings.HasPrefix(attr, "group(") && strings.HasSuffix(attr, ")"):
				inner := attr[6 : len(attr)-1]
				group = unquote(strings.TrimSpace(inner))
			case strings.HasPrefix(attr, "confirm(") && strings.HasSuffix(attr, ")"):
				inner := attr[8 : len(attr)-1]
				confirmMsg = unquote(strings.TrimSpace(inner))
			}
			i++
			continue
		}

		if b.recipe.MatchString(line) {
			break
		}

		// Not a recipe start; this line wasn't part of a header run.
		return Recipe{}, start + 1, false
	}

	if i >= len(lines) {
		return Recipe{}, len(lines), false
	}

	headerLine := lines[i]
	m := b.recipe.FindStringSubmatchIndex(headerLine)
	if m == nil {
		return Recipe{}, i + 1, false
	}
	name := headerLine[m[2]:m[3]]
	var paramsStr string
	if m[4] >= 0 {
		paramsStr = strings.TrimSpace(headerLine[m[4]:m[5]])
	}

	var params []Parameter
	switch {
	case paramsStr == "":
	case strings.HasPrefix(paramsStr, "(") && strings.HasSuffix(paramsStr, ")"):
		params = parseParenthesizedParams(paramsStr[1 : len(paramsStr)-1])
	default:
		params = parseSpaceSeparatedParams(paramsStr)
	}
	applyParamDescriptions(params, paramDescs)

	colonIdx := m[1] // end of full match, which includes the trailing colon
	deps := parseDependencies(headerLine[colonIdx:])

	// Collect the recipe body: subsequent indented (or blank-within-body)
	// lines.
	bodyStart := i + 1
	j := bodyStart
	var bodyLines []string
	for j < len(lines) {
		line := lines[j]
		indented := strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")
		if indented || (j == bodyStart && strings.TrimSpace(line) == "") {
			bodyLines = append(bodyLines, line)
			j++
			continue
		}
		if strings.TrimSpace(line) == "" && len(bodyLines) > 0 {
			bodyLines = append(bodyLines, line)
			j++
			continue
		}
		break
	}

	doc := ""
	switch {
	case docString != nil:
		doc = *docString
	case len(comments) > 0:
		doc = strings.Join(comments, " ")
	default:
		doc = DefaultDoc(name)
	}

	recipe := Recipe{
		Name:           name,
		Parameters:     params,
		Dependencies:   deps,
		Doc:            doc,
		Body:           strings.TrimSpace(strings.Join(bodyLines, "\n")),
		SourceLine:     i + 1,
		Group:          group,
		Private:        strings.HasPrefix(name, "_"),
		ConfirmMessage: confirmMsg,
	}
	return recipe, j, true
}
