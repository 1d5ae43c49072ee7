package compiler

import (
	"context"
	"strconv"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"

	"github.com/coldog/minipack/pkg/builderr"
)

const (
	nodeImportStatement = "import_statement"
	nodeExportStatement = "export_statement"
	nodeStringFragment  = "string_fragment"
	nodeEscapeSequence  = "escape_sequence"
	fieldSource         = "source"
)

// Analyzer parses JavaScript modules and lists their static imports. The
// zero value is ready to use and safe for concurrent use.
type Analyzer struct{}

// Parse parses source into a syntax tree. Sources with syntax errors are
// rejected.
func (a *Analyzer) Parse(ctx context.Context, source []byte) (*Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(javascript.GetLanguage())

	root, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, builderr.New(builderr.KindParse).Cause(err).Build()
	}
	tree := &Tree{Source: source, root: root}

	if program := tree.Root(); program.HasError() {
		defer tree.Close()
		bad := firstError(program)
		if bad == nil {
			bad = program
		}
		pos := bad.StartPoint()
		return nil, builderr.New(builderr.KindParse).
			Detail("syntax error at line %d, column %d", pos.Row+1, pos.Column+1).
			Build()
	}
	return tree, nil
}

// Imports returns the specifiers of the module's static imports and
// re-exports in source order, without duplicates. Dynamic import() and
// require() calls are not static imports and are not reported.
func (a *Analyzer) Imports(tree *Tree) []string {
	program := tree.Root()
	seen := map[string]bool{}
	var specs []string

	for i := 0; i < int(program.NamedChildCount()); i++ {
		stmt := program.NamedChild(i)
		if stmt.Type() != nodeImportStatement && stmt.Type() != nodeExportStatement {
			continue
		}
		source := stmt.ChildByFieldName(fieldSource)
		if source == nil {
			continue // export without "from"
		}
		spec := stringValue(source, tree.Source)
		if seen[spec] {
			continue
		}
		seen[spec] = true
		specs = append(specs, spec)
	}
	return specs
}

// stringValue decodes a string literal node.
func stringValue(node *sitter.Node, src []byte) string {
	var out []byte
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case nodeStringFragment:
			out = append(out, child.Content(src)...)
		case nodeEscapeSequence:
			out = append(out, unescape(child.Content(src))...)
		}
	}
	return string(out)
}

func unescape(seq string) string {
	switch seq {
	case `\'`:
		return "'"
	case `\"`:
		return `"`
	}
	if s, err := strconv.Unquote(`"` + seq + `"`); err == nil {
		return s
	}
	return seq[1:]
}

func firstError(node *sitter.Node) *sitter.Node {
	if node.IsError() || node.IsMissing() {
		return node
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.HasError() || child.IsMissing() {
			if bad := firstError(child); bad != nil {
				return bad
			}
		}
	}
	return nil
}
