package parse

import (
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/autodoc/internal/lang"
)

// extractCalls returns the deduplicated call-target names found anywhere in
// def's subtree. extra holds nodes that belong to the definition but sit
// outside it in the syntax tree (decorators).
func extractCalls(def *sitter.Node, extra []*sitter.Node, source []byte) []string {
	seen := make(map[string]struct{})
	visit := func(n Node) bool {
		if n.Kind != Call {
			return true
		}
		if name := callTarget(n.ChildByFieldName("function"), source); name != "" {
			seen[name] = struct{}{}
		}
		return true
	}
	for _, n := range extra {
		Walk(n, visit)
	}
	Walk(def, visit)

	calls := make([]string, 0, len(seen))
	for name := range seen {
		calls = append(calls, name)
	}
	sort.Strings(calls)
	return calls
}

// callTarget names the callee of a call expression. A bare identifier is
// used as-is. An attribute chain a.b.c is rebuilt innermost-out; when the
// innermost receiver is not a bare identifier (f().x, a[0].y) only the
// attribute names are kept. Anything else yields "".
func callTarget(fn *sitter.Node, source []byte) string {
	target := Classify(unwrapParens(fn))
	switch target.Kind {
	case Name:
		return lang.NodeText(target.Node, source)
	case Attribute:
		var chain []string
		cur := target
		for cur.Kind == Attribute {
			if attr := cur.ChildByFieldName("attribute"); attr != nil {
				chain = append(chain, lang.NodeText(attr, source))
			}
			cur = Classify(unwrapParens(cur.ChildByFieldName("object")))
		}
		if cur.Kind == Name {
			chain = append(chain, lang.NodeText(cur.Node, source))
		}
		for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
			chain[i], chain[j] = chain[j], chain[i]
		}
		return strings.Join(chain, ".")
	default:
		return ""
	}
}

// unwrapParens strips grouping parentheses, so (a).b() names a.b.
func unwrapParens(n *sitter.Node) *sitter.Node {
	for n != nil && n.Type() == "parenthesized_expression" && n.NamedChildCount() == 1 {
		n = n.NamedChild(0)
	}
	return n
}
