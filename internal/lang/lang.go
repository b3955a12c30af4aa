// Package lang wraps the tree-sitter Python grammar and the small helpers
// the parser needs to render nodes as text.
package lang

import (
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// Python is the only analyzed language.
const Python = "python"

var whitespaceRe = regexp.MustCompile(`\s+`)

var grammar = python.GetLanguage()

// NewParser creates a fresh tree-sitter parser for Python.
// Each goroutine must use its own parser (not thread-safe).
func NewParser() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(grammar)
	return p
}

// ForExtension returns the language name for a file extension, or "" if unsupported.
func ForExtension(ext string) string {
	if ext == ".py" {
		return Python
	}
	return ""
}

// NodeText returns the source text of a tree-sitter node.
func NodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

// CollapseWhitespace replaces runs of whitespace with a single space and trims.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// PythonClassSignature renders a class_definition as "Name(bases)".
func PythonClassSignature(node *sitter.Node, source []byte) string {
	var name, args string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "identifier":
			if name == "" {
				name = NodeText(child, source)
			}
		case "argument_list":
			args = CollapseWhitespace(NodeText(child, source))
		}
	}
	return name + args
}

// PythonFunctionSignature renders a function_definition as
// "name(params) -> ret", with whitespace in the parameter list collapsed.
func PythonFunctionSignature(node *sitter.Node, source []byte) string {
	var name, params, returnType string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "identifier":
			if name == "" {
				name = NodeText(child, source)
			}
		case "parameters":
			params = CollapseWhitespace(NodeText(child, source))
		case "type":
			returnType = NodeText(child, source)
		}
	}
	sig := name + params
	if returnType != "" {
		sig += " -> " + returnType
	}
	return sig
}
