package graph

import (
	"math"
	"path"
	"sort"
	"strings"

	"github.com/phobologic/autodoc/internal/model"
)

// FileDependencies links files by name: a call whose last dotted segment
// matches a function defined elsewhere, or an import whose root matches
// another file's module name. It is a ranking heuristic only.
func FileDependencies(files []model.SourceFile) []model.Dependency {
	// Build definition index: name → set of files that define it
	defines := make(map[string]map[string]struct{})
	addDef := func(name, file string) {
		if defines[name] == nil {
			defines[name] = make(map[string]struct{})
		}
		defines[name][file] = struct{}{}
	}
	for i := range files {
		sf := &files[i]
		for _, fn := range sf.Functions {
			addDef(fn.Name, sf.Path)
		}
		for _, cl := range sf.Classes {
			addDef(cl.Name, sf.Path)
		}
		addDef(moduleName(sf.Path), sf.Path)
	}

	type edgeKey struct{ src, tgt string }
	edgeSymbols := make(map[edgeKey][]string)

	link := func(src, symbol string) {
		defFiles := defines[symbol]
		if defFiles == nil {
			return
		}
		// Iterate in sorted order for determinism
		for _, defFile := range sortedKeys(defFiles) {
			if defFile == src {
				continue // no self-edges
			}
			key := edgeKey{src, defFile}
			if !contains(edgeSymbols[key], symbol) {
				edgeSymbols[key] = append(edgeSymbols[key], symbol)
			}
		}
	}

	for i := range files {
		sf := &files[i]
		for _, imp := range sf.Imports {
			link(sf.Path, ModuleRoot(imp))
		}
		for _, fn := range sf.Functions {
			for _, call := range fn.Calls {
				link(sf.Path, lastSegment(call))
			}
		}
	}

	var deps []model.Dependency
	for key, syms := range edgeSymbols {
		deps = append(deps, model.Dependency{
			Source:  key.src,
			Target:  key.tgt,
			Symbols: syms,
		})
	}

	// Sort for deterministic output
	sort.Slice(deps, func(i, j int) bool {
		if deps[i].Source != deps[j].Source {
			return deps[i].Source < deps[j].Source
		}
		return deps[i].Target < deps[j].Target
	})

	return deps
}

// RankFiles applies PageRank over FileDependencies and returns each file's
// rank keyed by path. Ranks sum to ~1.
func RankFiles(files []model.SourceFile) map[string]float64 {
	if len(files) == 0 {
		return nil
	}

	nodes := make(map[string]struct{}, len(files))
	for i := range files {
		nodes[files[i].Path] = struct{}{}
	}

	deps := FileDependencies(files)
	if len(deps) == 0 {
		uniform := 1.0 / float64(len(nodes))
		ranks := make(map[string]float64, len(nodes))
		for node := range nodes {
			ranks[node] = uniform
		}
		return ranks
	}

	// Edge from source to target means source references target.
	// Each symbol is an edge.
	outEdges := make(map[string][]string)
	outDegree := make(map[string]int)
	for _, d := range deps {
		for range d.Symbols {
			outEdges[d.Source] = append(outEdges[d.Source], d.Target)
			outDegree[d.Source]++
		}
	}

	return pageRank(nodes, outEdges, outDegree, 0.85, 100, 1e-6)
}

// Rank applies PageRank to the node graph itself. Call and module nodes
// referenced from many functions rank highest.
func Rank(g *Graph) map[string]float64 {
	nodes := make(map[string]struct{}, len(g.nodes))
	for id := range g.nodes {
		nodes[id] = struct{}{}
	}
	outDegree := make(map[string]int, len(g.out))
	for id, targets := range g.out {
		outDegree[id] = len(targets)
	}
	return pageRank(nodes, g.out, outDegree, 0.85, 100, 1e-6)
}

// FileRanks sums Rank over the nodes that belong to a file (the file node
// and its functions), keyed by path.
func FileRanks(g *Graph) map[string]float64 {
	ranks := Rank(g)
	if ranks == nil {
		return nil
	}
	files := make(map[string]float64)
	for id, r := range ranks {
		if p := g.nodes[id].Path; p != "" {
			files[p] += r
		}
	}
	return files
}

func pageRank(
	nodes map[string]struct{},
	outEdges map[string][]string,
	outDegree map[string]int,
	alpha float64,
	maxIter int,
	tol float64,
) map[string]float64 {
	n := len(nodes)
	if n == 0 {
		return nil
	}

	rank := make(map[string]float64, n)
	initial := 1.0 / float64(n)
	for node := range nodes {
		rank[node] = initial
	}

	teleport := (1.0 - alpha) / float64(n)

	for iter := 0; iter < maxIter; iter++ {
		newRank := make(map[string]float64, n)

		// Dangling node contribution (nodes with no outgoing edges)
		var danglingSum float64
		for node := range nodes {
			if outDegree[node] == 0 {
				danglingSum += rank[node]
			}
		}
		danglingContrib := alpha * danglingSum / float64(n)

		for node := range nodes {
			newRank[node] = teleport + danglingContrib
		}

		for src, targets := range outEdges {
			deg := float64(outDegree[src])
			contrib := alpha * rank[src] / deg
			for _, tgt := range targets {
				newRank[tgt] += contrib
			}
		}

		var diff float64
		for node := range nodes {
			diff += math.Abs(newRank[node] - rank[node])
		}

		rank = newRank

		if diff < tol {
			break
		}
	}

	return rank
}

// moduleName is the importable name of a file: "pkg/models.py" → "models".
func moduleName(p string) string {
	return strings.TrimSuffix(path.Base(p), path.Ext(p))
}

func lastSegment(call string) string {
	if i := strings.LastIndex(call, "."); i >= 0 {
		return call[i+1:]
	}
	return call
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
