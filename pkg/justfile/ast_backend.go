package justfile

import (
	"strings"
	"sync"

	sitter "github.com/alexaandru/go-tree-sitter-bare"
	tsjust "github.com/alexaandru/go-sitter-forest/just"

	"github.com/toolprint/just-mcp/pkg/justerr"
)

// astBackend parses justfiles with the tree-sitter-just grammar. It is the
// preferred backend: a formal grammar means parameter/attribute/comment
// association does not depend on line-scanning heuristics.
//
// The compiled grammar is process-wide and reused across parses; only the
// per-call sitter.Parser (which holds mutable cursor state) is pooled.
type astBackend struct {
	lang sitter.Language

	mu   sync.Mutex
	pool []*sitter.Parser
}

func newASTBackend() (*astBackend, error) {
	lang, err := tsjust.GetLanguage()
	if err != nil {
		return nil, justerr.Wrap(justerr.KindInternal, err, "loading tree-sitter-just grammar")
	}
	return &astBackend{lang: lang}, nil
}

func (b *astBackend) getParser() (*sitter.Parser, error) {
	b.mu.Lock()
	if n := len(b.pool); n > 0 {
		p := b.pool[n-1]
		b.pool = b.pool[:n-1]
		b.mu.Unlock()
		return p, nil
	}
	b.mu.Unlock()

	p := sitter.NewParser()
	if err := p.SetLanguage(b.lang); err != nil {
		return nil, justerr.Wrap(justerr.KindInternal, err, "configuring tree-sitter parser")
	}
	return p, nil
}

func (b *astBackend) putParser(p *sitter.Parser) {
	b.mu.Lock()
	b.pool = append(b.pool, p)
	b.mu.Unlock()
}

func (b *astBackend) parseContent(content string) ([]Recipe, error) {
	parser, err := b.getParser()
	if err != nil {
		return nil, err
	}
	defer b.putParser(parser)

	src := []byte(content)
	tree, err := parser.ParseString(nil, src)
	if err != nil {
		return nil, justerr.Parse(0, 0, "tree-sitter parse failed: %v", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, justerr.Parse(int(root.EndPoint().Row)+1, 0, "justfile contains syntax errors")
	}

	var recipes []Recipe
	for i := uint32(0); i < root.NamedChildCount(); i++ {
		node := root.NamedChild(i)
		if node.Type() != "recipe" {
			continue
		}
		recipe, err := b.extractRecipe(node, src)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, recipe)
	}
	return recipes, nil
}

func (b *astBackend) extractRecipe(node sitter.Node, src []byte) (Recipe, error) {
	var name string
	var params []Parameter
	var deps []string
	var body strings.Builder
	var comments []string
	var docString, group, confirmMsg string
	paramDescs := map[string]string{}

	// Attributes and leading comments are attached to the recipe node as
	// preceding siblings in the grammar; tree-sitter-just instead nests
	// them as named children of the recipe node itself, so we walk those
	// first before falling back to the header/body fields.
	if n := node.ChildByFieldName("name"); !n.IsNull() {
		name = n.Content(src)
	}
	if n := node.ChildByFieldName("body"); !n.IsNull() {
		body.WriteString(n.Content(src))
	}

	for i := uint32(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "parameter":
			p := b.extractParameter(child, src)
			params = append(params, p)
		case "dependency", "dependency_expression":
			deps = append(deps, strings.TrimSpace(child.Content(src)))
		case "comment":
			text := strings.TrimSpace(strings.TrimPrefix(child.Content(src), "#"))
			if m := b.paramDescMatch(text); m != nil {
				paramDescs[m[0]] = m[1]
			} else if text != "" {
				comments = append(comments, text)
			}
		case "attribute":
			b.applyAttribute(child.Content(src), &docString, &group, &confirmMsg)
		}
	}

	applyParamDescriptions(params, paramDescs)

	doc := docString
	switch {
	case doc != "":
	case len(comments) > 0:
		doc = strings.Join(comments, " ")
	default:
		doc = DefaultDoc(name)
	}

	line := int(node.StartPoint().Row) + 1
	return Recipe{
		Name:           name,
		Parameters:     params,
		Dependencies:   deps,
		Doc:            doc,
		Body:           strings.TrimSpace(body.String()),
		SourceLine:     line,
		Group:          group,
		Private:        strings.HasPrefix(name, "_"),
		ConfirmMessage: confirmMsg,
	}, nil
}

func (b *astBackend) extractParameter(node sitter.Node, src []byte) Parameter {
	p := Parameter{}
	if n := node.ChildByFieldName("name"); !n.IsNull() {
		p.Name = n.Content(src)
	}
	if n := node.ChildByFieldName("default"); !n.IsNull() {
		d := unquote(n.Content(src))
		p.Default = &d
	}
	raw := node.Content(src)
	p.Variadic = strings.HasPrefix(raw, "+") || strings.HasPrefix(raw, "*") || strings.HasSuffix(raw, "...")
	return p
}

func (b *astBackend) paramDescMatch(comment string) []string {
	// `{{name}}: description`
	if !strings.HasPrefix(comment, "{{") {
		return nil
	}
	end := strings.Index(comment, "}}")
	if end < 0 {
		return nil
	}
	name := comment[2:end]
	rest := strings.TrimSpace(comment[end+2:])
	rest = strings.TrimPrefix(rest, ":")
	rest = strings.TrimSpace(rest)
	if name == "" || rest == "" {
		return nil
	}
	return []string{name, rest}
}

func (b *astBackend) applyAttribute(raw string, doc, group, confirm *string) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "[")
	raw = strings.TrimSuffix(raw, "]")
	switch {
	case strings.HasPrefix(raw, "doc(") && strings.HasSuffix(raw, ")"):
		*doc = unquote(strings.TrimSpace(raw[4 : len(raw)-1]))
	case strings.HasPrefix(raw, "group(") && strings.HasSuffix(raw, ")"):
		*group = unquote(strings.TrimSpace(raw[6 : len(raw)-1]))
	case strings.HasPrefix(raw, "confirm(") && strings.HasSuffix(raw, ")"):
		*confirm = unquote(strings.TrimSpace(raw[8 : len(raw)-1]))
	}
}
