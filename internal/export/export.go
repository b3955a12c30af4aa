// Package export renders a graph as interactive HTML, Graphviz DOT or JSON.
package export

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/phobologic/autodoc/internal/graph"
)

// RankedNode is a graph node with its PageRank score.
type RankedNode struct {
	graph.Node `yaml:",inline"`
	Rank       float64 `json:"rank" yaml:"rank"`
}

// Document is the serialized form of a graph.
type Document struct {
	Nodes     []RankedNode       `json:"nodes" yaml:"nodes"`
	Edges     []graph.Edge       `json:"edges" yaml:"edges"`
	FileRanks map[string]float64 `json:"file_ranks,omitempty" yaml:"file_ranks,omitempty"`
}

// NewDocument snapshots g in deterministic order.
func NewDocument(g *graph.Graph) Document {
	ranks := graph.Rank(g)
	nodes := g.Nodes()
	doc := Document{
		Nodes:     make([]RankedNode, 0, len(nodes)),
		Edges:     g.Edges(),
		FileRanks: graph.FileRanks(g),
	}
	for _, n := range nodes {
		doc.Nodes = append(doc.Nodes, RankedNode{Node: n, Rank: ranks[n.ID]})
	}
	return doc
}

// JSON writes g as an indented JSON document.
func JSON(g *graph.Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(NewDocument(g))
}

// DOT writes g in Graphviz DOT syntax.
func DOT(g *graph.Graph, w io.Writer) error {
	var b strings.Builder
	b.WriteString("digraph autodoc {\n")
	b.WriteString("  rankdir=LR;\n")
	for _, n := range g.Nodes() {
		fmt.Fprintf(&b, "  %s [label=%s, shape=%s];\n", strconv.Quote(n.ID), strconv.Quote(n.Label), dotShape(n.Kind))
	}
	for _, e := range g.Edges() {
		fmt.Fprintf(&b, "  %s -> %s [label=%s];\n", strconv.Quote(e.From), strconv.Quote(e.To), strconv.Quote(string(e.Kind)))
	}
	b.WriteString("}\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func dotShape(k graph.NodeKind) string {
	switch k {
	case graph.FileNode:
		return "box"
	case graph.ModuleNode:
		return "folder"
	case graph.FunctionNode:
		return "ellipse"
	default:
		return "plaintext"
	}
}

type visNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Group string `json:"group"`
	Title string  `json:"title"`
	Value float64 `json:"value"`
}

type visEdge struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Title  string `json:"title"`
	Arrows string `json:"arrows"`
}

type page struct {
	Title string
	Nodes []visNode
	Edges []visEdge
}

var pageTemplate = template.Must(template.New("graph").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<script src="https://unpkg.com/vis-network@9.1.9/standalone/umd/vis-network.min.js"></script>
<style>
  body { margin: 0; font-family: sans-serif; }
  #graph { width: 100%; height: 800px; border: 1px solid lightgray; }
</style>
</head>
<body>
<div id="graph"></div>
<script>
  var nodes = new vis.DataSet({{.Nodes}});
  var edges = new vis.DataSet({{.Edges}});
  var container = document.getElementById("graph");
  var options = {
    physics: { enabled: true },
    nodes: { shape: "dot", scaling: { min: 8, max: 40 } },
    edges: { smooth: false }
  };
  new vis.Network(container, { nodes: nodes, edges: edges }, options);
</script>
</body>
</html>
`))

// HTML writes a self-contained interactive page for g to path, creating
// parent directories, and returns the path written.
func HTML(g *graph.Graph, path string) (string, error) {
	p := page{Title: "autodoc graph", Nodes: []visNode{}, Edges: []visEdge{}}
	for _, n := range NewDocument(g).Nodes {
		title := "type: " + string(n.Kind)
		if n.Path != "" {
			title += "\npath: " + n.Path
		}
		title += "\nrank: " + strconv.FormatFloat(n.Rank, 'f', 4, 64)
		p.Nodes = append(p.Nodes, visNode{ID: n.ID, Label: n.Label, Group: string(n.Kind), Title: title, Value: n.Rank})
	}
	for _, e := range g.Edges() {
		p.Edges = append(p.Edges, visEdge{From: e.From, To: e.To, Title: string(e.Kind), Arrows: "to"})
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	if err := pageTemplate.Execute(f, p); err != nil {
		f.Close()
		return "", fmt.Errorf("rendering %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
