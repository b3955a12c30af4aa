// Package graph builds the file/module/function/call graph and ranks files.
package graph

import (
	"path"
	"sort"
	"strings"

	"github.com/phobologic/autodoc/internal/model"
)

// NodeKind is the kind of a graph node.
type NodeKind string

const (
	FileNode     NodeKind = "file"
	ModuleNode   NodeKind = "module"
	FunctionNode NodeKind = "function"
	CallNode     NodeKind = "call"
)

// EdgeKind is the kind of a graph edge.
type EdgeKind string

const (
	Imports EdgeKind = "imports"
	Defines EdgeKind = "defines"
	Calls   EdgeKind = "calls"
)

// Node is a graph vertex. ID is unique across kinds.
type Node struct {
	ID    string   `json:"id" yaml:"id"`
	Label string   `json:"label" yaml:"label"`
	Kind  NodeKind `json:"type" yaml:"type"`
	Path  string   `json:"path,omitempty" yaml:"path,omitempty"`
}

// Edge is a directed, typed connection between two node IDs.
type Edge struct {
	From string   `json:"source" yaml:"source"`
	To   string   `json:"target" yaml:"target"`
	Kind EdgeKind `json:"kind" yaml:"kind"`
}

// Graph is a directed graph with idempotent insertion. The zero value is
// not usable; call New.
type Graph struct {
	nodes map[string]*Node
	edges map[Edge]struct{}
	out   map[string][]string
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
		edges: make(map[Edge]struct{}),
		out:   make(map[string][]string),
	}
}

// AddNode inserts n. If a node with the same ID exists, its attributes are
// kept and only empty ones are filled from n.
func (g *Graph) AddNode(n Node) {
	existing, ok := g.nodes[n.ID]
	if !ok {
		g.nodes[n.ID] = &n
		return
	}
	if existing.Label == "" {
		existing.Label = n.Label
	}
	if existing.Kind == "" {
		existing.Kind = n.Kind
	}
	if existing.Path == "" {
		existing.Path = n.Path
	}
}

// AddEdge inserts a from→to edge of the given kind once.
func (g *Graph) AddEdge(from, to string, kind EdgeKind) {
	e := Edge{From: from, To: to, Kind: kind}
	if _, dup := g.edges[e]; dup {
		return
	}
	g.edges[e] = struct{}{}
	g.out[from] = append(g.out[from], to)
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// HasEdge reports whether the from→to edge of kind exists.
func (g *Graph) HasEdge(from, to string, kind EdgeKind) bool {
	_, ok := g.edges[Edge{From: from, To: to, Kind: kind}]
	return ok
}

// Nodes returns all nodes sorted by ID.
func (g *Graph) Nodes() []Node {
	nodes := make([]Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		nodes = append(nodes, *n)
	}
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].ID < nodes[j].ID
	})
	return nodes
}

// Edges returns all edges sorted by source, target and kind.
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, len(g.edges))
	for e := range g.edges {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		if edges[i].To != edges[j].To {
			return edges[i].To < edges[j].To
		}
		return edges[i].Kind < edges[j].Kind
	})
	return edges
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Options tunes graph construction.
type Options struct {
	// KeyByPath identifies files by their full relative path instead of the
	// basename, so same-named files in different directories stay apart.
	KeyByPath bool
}

// FileKey returns the node ID for a file name.
func FileKey(name string) string { return "file:" + name }

// ModuleKey returns the node ID for an import; only the root package counts.
func ModuleKey(imp string) string { return "mod:" + ModuleRoot(imp) }

// FunctionKey returns the node ID for a function defined in a file.
func FunctionKey(file, fn string) string { return "func:" + file + "::" + fn }

// CallKey returns the node ID for a call target.
func CallKey(name string) string { return "call:" + name }

// ModuleRoot returns the text before the first "." of an import.
func ModuleRoot(imp string) string {
	root, _, _ := strings.Cut(imp, ".")
	return root
}

// Build creates the graph for files in a single pass. Call nodes are keyed
// by the raw call-target string and are never linked to function nodes.
func Build(files []model.SourceFile, opts Options) *Graph {
	g := New()
	for i := range files {
		sf := &files[i]
		name := path.Base(sf.Path)
		if opts.KeyByPath {
			name = sf.Path
		}

		fileID := FileKey(name)
		g.AddNode(Node{ID: fileID, Label: path.Base(sf.Path), Kind: FileNode, Path: sf.Path})

		for _, imp := range sf.Imports {
			modID := ModuleKey(imp)
			g.AddNode(Node{ID: modID, Label: imp, Kind: ModuleNode})
			g.AddEdge(fileID, modID, Imports)
		}

		for _, fn := range sf.Functions {
			fnID := FunctionKey(name, fn.Name)
			g.AddNode(Node{ID: fnID, Label: fn.Name, Kind: FunctionNode, Path: sf.Path})
			g.AddEdge(fileID, fnID, Defines)

			for _, call := range fn.Calls {
				callID := CallKey(call)
				g.AddNode(Node{ID: callID, Label: call, Kind: CallNode})
				g.AddEdge(fnID, callID, Calls)
			}
		}
	}
	return g
}
