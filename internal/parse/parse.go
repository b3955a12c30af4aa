// Package parse extracts structural records from Python source using
// tree-sitter.
package parse

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/autodoc/internal/lang"
	"github.com/phobologic/autodoc/internal/model"
)

// Parser turns source text into model.SourceFile records.
// A Parser is not safe for concurrent use; give each goroutine its own.
type Parser struct {
	ts *sitter.Parser
}

// New returns a Parser for Python source.
func New() *Parser {
	return &Parser{ts: lang.NewParser()}
}

// ParseFile reads and parses the file at path. Read errors are returned;
// syntax errors are not (see Parse).
func (p *Parser) ParseFile(path string) (model.SourceFile, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return model.SourceFile{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return p.Parse(path, source), nil
}

// Parse builds the structural record for source. Unparseable input yields a
// degraded record carrying only the source text.
func (p *Parser) Parse(path string, source []byte) model.SourceFile {
	sf := model.SourceFile{
		Path:      path,
		Source:    string(source),
		Imports:   []string{},
		Functions: []model.FunctionDef{},
		Classes:   []model.ClassDef{},
	}
	if len(source) == 0 {
		return sf
	}

	tree, err := p.ts.ParseCtx(context.Background(), nil, source)
	if err != nil {
		sf.ParseError = err.Error()
		return sf
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		sf.ParseError = describeError(root)
		return sf
	}
	if legacy := firstLegacy(root); legacy != nil {
		sf.ParseError = fmt.Sprintf("syntax error at line %d: Python 2 %s",
			legacy.StartPoint().Row+1, strings.ReplaceAll(legacy.Type(), "_", " "))
		return sf
	}

	imports := make(map[string]struct{})
	Walk(root, func(n Node) bool {
		switch n.Kind {
		case Import:
			for _, name := range plainImports(n.Node, source) {
				imports[name] = struct{}{}
			}
		case ImportFrom:
			for _, name := range fromImports(n.Node, source) {
				imports[name] = struct{}{}
			}
		case FunctionDef:
			sf.Functions = append(sf.Functions, functionDef(n.Node, source))
		case ClassDef:
			sf.Classes = append(sf.Classes, classDef(n.Node, source))
		}
		return true
	})

	for name := range imports {
		sf.Imports = append(sf.Imports, name)
	}
	sort.Strings(sf.Imports)
	return sf
}

// span returns the node whose text is the definition's snippet (the
// decorated_definition wrapper when present) and the decorators themselves.
func span(def *sitter.Node) (*sitter.Node, []*sitter.Node) {
	parent := def.Parent()
	if parent == nil || parent.Type() != "decorated_definition" {
		return def, nil
	}
	var decorators []*sitter.Node
	for i := 0; i < int(parent.NamedChildCount()); i++ {
		child := parent.NamedChild(i)
		if child.Type() == "decorator" {
			decorators = append(decorators, child)
		}
	}
	return parent, decorators
}

// lastStatement returns the node that ends def's body once trailing
// comments are set aside. tree-sitter attaches a comment after the final
// statement to the enclosing block; it is not part of the definition.
// Only nested definitions are descended into, so compound statements with
// trailing clauses (try/except, for/else) keep their full extent.
func lastStatement(def *sitter.Node) *sitter.Node {
	last := def
	for {
		if last.Type() == "decorated_definition" {
			if inner := last.ChildByFieldName("definition"); inner != nil {
				last = inner
			}
		}
		switch last.Type() {
		case "function_definition", "class_definition":
		default:
			return last
		}
		body := last.ChildByFieldName("body")
		if body == nil {
			return last
		}
		var next *sitter.Node
		for i := int(body.NamedChildCount()) - 1; i >= 0; i-- {
			if child := body.NamedChild(i); child.Type() != "comment" {
				next = child
				break
			}
		}
		if next == nil {
			return last
		}
		last = next
	}
}

func functionDef(def *sitter.Node, source []byte) model.FunctionDef {
	outer, decorators := span(def)
	end := lastStatement(def)
	return model.FunctionDef{
		Name:      definitionName(def, source),
		Start:     int(def.StartPoint().Row) + 1,
		End:       int(end.EndPoint().Row) + 1,
		StartByte: int(outer.StartByte()),
		EndByte:   int(end.EndByte()),
		Snippet:   string(source[outer.StartByte():end.EndByte()]),
		Signature: lang.PythonFunctionSignature(def, source),
		Calls:     extractCalls(def, decorators, source),
	}
}

func classDef(def *sitter.Node, source []byte) model.ClassDef {
	outer, _ := span(def)
	end := lastStatement(def)
	return model.ClassDef{
		Name:      definitionName(def, source),
		Start:     int(def.StartPoint().Row) + 1,
		End:       int(end.EndPoint().Row) + 1,
		StartByte: int(outer.StartByte()),
		EndByte:   int(end.EndByte()),
		Snippet:   string(source[outer.StartByte():end.EndByte()]),
		Signature: lang.PythonClassSignature(def, source),
	}
}

func definitionName(def *sitter.Node, source []byte) string {
	if name := def.ChildByFieldName("name"); name != nil {
		return lang.NodeText(name, source)
	}
	return ""
}

// plainImports handles "import a.b, c as d".
func plainImports(stmt *sitter.Node, source []byte) []string {
	var names []string
	for i := 0; i < int(stmt.NamedChildCount()); i++ {
		if name := importedName(stmt.NamedChild(i), source); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// fromImports handles "from m import x, y as z" as m.x, m.y. Relative
// prefixes are dropped; with no module left the bare names are used.
func fromImports(stmt *sitter.Node, source []byte) []string {
	var module string
	moduleNode := stmt.ChildByFieldName("module_name")
	switch {
	case stmt.Type() == "future_import_statement":
		module = "__future__"
	case moduleNode == nil:
	case moduleNode.Type() == "relative_import":
		for i := 0; i < int(moduleNode.NamedChildCount()); i++ {
			if child := moduleNode.NamedChild(i); child.Type() == "dotted_name" {
				module = dottedText(child, source)
			}
		}
	default:
		module = dottedText(moduleNode, source)
	}

	var names []string
	for i := 0; i < int(stmt.NamedChildCount()); i++ {
		child := stmt.NamedChild(i)
		if moduleNode != nil && sameNode(child, moduleNode) {
			continue
		}
		name := importedName(child, source)
		if child.Type() == "wildcard_import" {
			name = "*"
		}
		if name == "" {
			continue
		}
		if module != "" {
			name = module + "." + name
		}
		names = append(names, name)
	}
	return names
}

func importedName(n *sitter.Node, source []byte) string {
	switch n.Type() {
	case "dotted_name":
		return dottedText(n, source)
	case "aliased_import":
		if name := n.ChildByFieldName("name"); name != nil {
			return dottedText(name, source)
		}
	}
	return ""
}

// dottedText returns a dotted_name's text with any interior whitespace
// removed ("a . b" is legal Python).
func dottedText(n *sitter.Node, source []byte) string {
	return strings.Join(strings.Fields(lang.NodeText(n, source)), "")
}

func sameNode(a, b *sitter.Node) bool {
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

// describeError locates the first ERROR or MISSING node for the record's
// ParseError message.
func describeError(root *sitter.Node) string {
	bad := firstError(root)
	if bad == nil {
		return "syntax error"
	}
	return fmt.Sprintf("syntax error at line %d", bad.StartPoint().Row+1)
}

// firstLegacy finds Python 2 statement forms the grammar still accepts.
func firstLegacy(n *sitter.Node) *sitter.Node {
	switch n.Type() {
	case "print_statement", "exec_statement":
		return n
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if found := firstLegacy(n.NamedChild(i)); found != nil {
			return found
		}
	}
	return nil
}

func firstError(n *sitter.Node) *sitter.Node {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	if !n.HasError() {
		return nil
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if bad := firstError(n.Child(i)); bad != nil {
			return bad
		}
	}
	return nil
}
