// Package ranking orders analyzed files by PageRank and narrows reports
// to the files a reader should look at first.
package ranking

import (
	"sort"
	"strings"

	"github.com/phobologic/autodoc/internal/graph"
	"github.com/phobologic/autodoc/internal/model"
)

// NewReport ranks files and returns them highest rank first, ties broken
// by path.
func NewReport(repo string, files []model.SourceFile) *model.Report {
	ranks := graph.RankFiles(files)

	ranked := make([]model.RankedFile, len(files))
	for i := range files {
		ranked[i] = model.RankedFile{SourceFile: files[i], Rank: ranks[files[i].Path]}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Rank != ranked[j].Rank {
			return ranked[i].Rank > ranked[j].Rank
		}
		return ranked[i].Path < ranked[j].Path
	})

	return &model.Report{
		Repo:         repo,
		Files:        ranked,
		Dependencies: graph.FileDependencies(files),
	}
}

// SelectFiles returns a new Report with only the top-ranked files.
// If maxFiles is <= 0 or >= len(files), all files are returned.
func SelectFiles(rep *model.Report, maxFiles int) *model.Report {
	if maxFiles <= 0 || maxFiles >= len(rep.Files) {
		return rep
	}

	selected := rep.Files[:maxFiles]
	selectedPaths := make(map[string]struct{}, maxFiles)
	for i := range selected {
		selectedPaths[selected[i].Path] = struct{}{}
	}

	var deps []model.Dependency
	for i := range rep.Dependencies {
		d := &rep.Dependencies[i]
		_, srcOK := selectedPaths[d.Source]
		_, tgtOK := selectedPaths[d.Target]
		if srcOK && tgtOK {
			deps = append(deps, *d)
		}
	}

	return &model.Report{
		Repo:         rep.Repo,
		Files:        selected,
		Dependencies: deps,
	}
}

// FilterBySymbol returns a new Report containing only the functions and
// classes whose name contains substr (case-insensitive), the files that
// define them, and dependency edges touching those files.
func FilterBySymbol(rep *model.Report, substr string) *model.Report {
	lower := strings.ToLower(substr)
	match := func(name string) bool {
		return strings.Contains(strings.ToLower(name), lower)
	}

	matchedFiles := make(map[string]struct{})
	var files []model.RankedFile
	for i := range rep.Files {
		rf := rep.Files[i]

		var fns []model.FunctionDef
		for _, fn := range rf.Functions {
			if match(fn.Name) {
				fns = append(fns, fn)
			}
		}
		var classes []model.ClassDef
		for _, cl := range rf.Classes {
			if match(cl.Name) {
				classes = append(classes, cl)
			}
		}
		if len(fns) == 0 && len(classes) == 0 {
			continue
		}

		// Trim to the matched definitions so the symbols table stays focused.
		rf.Functions = fns
		rf.Classes = classes
		matchedFiles[rf.Path] = struct{}{}
		files = append(files, rf)
	}

	return &model.Report{
		Repo:         rep.Repo,
		Files:        files,
		Dependencies: touching(rep.Dependencies, matchedFiles),
	}
}

// FilterByFile returns a new Report containing only files whose path
// contains substr (case-insensitive), with all dependency edges touching
// those files.
func FilterByFile(rep *model.Report, substr string) *model.Report {
	lower := strings.ToLower(substr)

	matchedFiles := make(map[string]struct{})
	var files []model.RankedFile
	for i := range rep.Files {
		if strings.Contains(strings.ToLower(rep.Files[i].Path), lower) {
			matchedFiles[rep.Files[i].Path] = struct{}{}
			files = append(files, rep.Files[i])
		}
	}

	return &model.Report{
		Repo:         rep.Repo,
		Files:        files,
		Dependencies: touching(rep.Dependencies, matchedFiles),
	}
}

func touching(all []model.Dependency, files map[string]struct{}) []model.Dependency {
	var deps []model.Dependency
	for i := range all {
		d := &all[i]
		_, srcOK := files[d.Source]
		_, tgtOK := files[d.Target]
		if srcOK || tgtOK {
			deps = append(deps, *d)
		}
	}
	return deps
}
