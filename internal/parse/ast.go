package parse

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Kind is the closed set of syntax node variants the analyzer distinguishes.
type Kind uint8

const (
	Other Kind = iota
	Import
	ImportFrom
	FunctionDef
	ClassDef
	Call
	Attribute
	Name
)

func (k Kind) String() string {
	switch k {
	case Import:
		return "Import"
	case ImportFrom:
		return "ImportFrom"
	case FunctionDef:
		return "FunctionDef"
	case ClassDef:
		return "ClassDef"
	case Call:
		return "Call"
	case Attribute:
		return "Attribute"
	case Name:
		return "Name"
	default:
		return "Other"
	}
}

// Node is a tree-sitter node tagged with its Kind.
type Node struct {
	Kind Kind
	*sitter.Node
}

var kindByType = map[string]Kind{
	"import_statement":        Import,
	"import_from_statement":   ImportFrom,
	"future_import_statement": ImportFrom,
	"function_definition":     FunctionDef,
	"class_definition":        ClassDef,
	"call":                    Call,
	"attribute":               Attribute,
	"identifier":              Name,
}

// Classify tags a tree-sitter node. A nil node classifies as Other.
func Classify(n *sitter.Node) Node {
	if n == nil {
		return Node{Kind: Other}
	}
	return Node{Kind: kindByType[n.Type()], Node: n}
}

// Visitor receives nodes in pre-order. Returning false skips the node's
// children.
type Visitor func(n Node) bool

// Walk visits n and its named descendants in pre-order (source order).
func Walk(n *sitter.Node, visit Visitor) {
	if n == nil {
		return
	}
	if !visit(Classify(n)) {
		return
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		Walk(n.NamedChild(i), visit)
	}
}
