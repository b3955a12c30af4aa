package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/autodoc/internal/graph"
	"github.com/phobologic/autodoc/internal/model"
)

func sampleGraph() *graph.Graph {
	return graph.Build([]model.SourceFile{{
		Path:    "pkg/app.py",
		Imports: []string{"os.path"},
		Functions: []model.FunctionDef{
			{Name: "main", Start: 1, End: 2, Calls: []string{"os.getcwd", "helper"}},
		},
	}}, graph.Options{})
}

func TestHTMLEmbedsEveryNode(t *testing.T) {
	t.Parallel()

	g := sampleGraph()
	out := filepath.Join(t.TempDir(), "nested", "dir", "graph.html")

	got, err := HTML(g, out)
	require.NoError(t, err)
	assert.Equal(t, out, got)

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	html := string(raw)
	assert.Contains(t, html, "vis-network")
	for _, n := range g.Nodes() {
		assert.Contains(t, html, `"id":"`+n.ID+`"`)
	}
	assert.Contains(t, html, `"group":"function"`)
	assert.Contains(t, html, `"arrows":"to"`)
	assert.Contains(t, html, `"value":`)
	assert.Contains(t, html, `rank: `)
}

func TestHTMLEmptyGraph(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "empty.html")
	_, err := HTML(graph.New(), out)
	require.NoError(t, err)

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "new vis.DataSet([])")
}

func TestDOT(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, DOT(sampleGraph(), &buf))
	dot := buf.String()

	assert.True(t, strings.HasPrefix(dot, "digraph autodoc {\n"))
	assert.Contains(t, dot, `"file:app.py" [label="app.py", shape=box];`)
	assert.Contains(t, dot, `"mod:os" [label="os.path", shape=folder];`)
	assert.Contains(t, dot, `"file:app.py" -> "func:app.py::main" [label="defines"];`)
	assert.Contains(t, dot, `"func:app.py::main" -> "call:helper" [label="calls"];`)
	assert.True(t, strings.HasSuffix(dot, "}\n"))
}

func TestJSON(t *testing.T) {
	t.Parallel()

	g := sampleGraph()
	var buf bytes.Buffer
	require.NoError(t, JSON(g, &buf))

	var doc Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Len(t, doc.Nodes, g.NodeCount())
	assert.Len(t, doc.Edges, g.EdgeCount())
	assert.Contains(t, buf.String(), `"type": "file"`)
	assert.Contains(t, buf.String(), `"source": "file:app.py"`)

	ranks := graph.Rank(g)
	var total float64
	for _, n := range doc.Nodes {
		assert.InDelta(t, ranks[n.ID], n.Rank, 1e-9, n.ID)
		assert.Greater(t, n.Rank, 0.0, n.ID)
		total += n.Rank
	}
	assert.InDelta(t, 1.0, total, 1e-6)
	fileRanks := graph.FileRanks(g)
	require.Len(t, doc.FileRanks, len(fileRanks))
	for path, r := range fileRanks {
		assert.InDelta(t, r, doc.FileRanks[path], 1e-9, path)
	}
	assert.Contains(t, doc.FileRanks, "pkg/app.py")
}
