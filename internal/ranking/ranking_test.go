package ranking

import (
	"testing"

	"github.com/phobologic/autodoc/internal/model"
)

func ranked(path string, rank float64, fns ...string) model.RankedFile {
	rf := model.RankedFile{SourceFile: model.SourceFile{Path: path}, Rank: rank}
	for _, fn := range fns {
		rf.Functions = append(rf.Functions, model.FunctionDef{Name: fn})
	}
	return rf
}

func makeReport() *model.Report {
	return &model.Report{
		Repo: "test",
		Files: []model.RankedFile{
			ranked("a.py", 0.5, "main"),
			ranked("b.py", 0.3, "load_user", "save_user"),
			ranked("c.py", 0.2, "helper"),
		},
		Dependencies: []model.Dependency{
			{Source: "a.py", Target: "b.py", Symbols: []string{"load_user"}},
			{Source: "a.py", Target: "c.py", Symbols: []string{"helper"}},
			{Source: "b.py", Target: "c.py", Symbols: []string{"helper"}},
		},
	}
}

func TestNewReportOrdersByRank(t *testing.T) {
	t.Parallel()

	files := []model.SourceFile{
		{Path: "app.py", Functions: []model.FunctionDef{{Name: "run", Calls: []string{"util.helper"}}}},
		{Path: "cli.py", Functions: []model.FunctionDef{{Name: "main", Calls: []string{"helper"}}}},
		{Path: "util.py", Functions: []model.FunctionDef{{Name: "helper"}}},
	}
	rep := NewReport("proj", files)

	if rep.Repo != "proj" {
		t.Errorf("Repo = %q", rep.Repo)
	}
	if len(rep.Files) != 3 {
		t.Fatalf("expected 3 files, got %d", len(rep.Files))
	}
	if rep.Files[0].Path != "util.py" {
		t.Errorf("most referenced file should rank first, got %s", rep.Files[0].Path)
	}
	// Ties are broken by path.
	if rep.Files[1].Path != "app.py" || rep.Files[2].Path != "cli.py" {
		t.Errorf("unexpected order: %s, %s", rep.Files[1].Path, rep.Files[2].Path)
	}
	if len(rep.Dependencies) != 2 {
		t.Errorf("expected 2 deps, got %+v", rep.Dependencies)
	}
}

func TestSelectFilesAll(t *testing.T) {
	t.Parallel()

	rep := makeReport()
	if got := SelectFiles(rep, 0); got != rep {
		t.Error("maxFiles=0 should return original")
	}
	if got := SelectFiles(rep, 5); got != rep {
		t.Error("maxFiles > len should return original")
	}
	if got := SelectFiles(rep, 3); got != rep {
		t.Error("maxFiles == len should return original")
	}
}

func TestSelectFilesSubset(t *testing.T) {
	t.Parallel()

	got := SelectFiles(makeReport(), 2)

	if len(got.Files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(got.Files))
	}
	if got.Files[0].Path != "a.py" || got.Files[1].Path != "b.py" {
		t.Errorf("expected a.py, b.py; got %s, %s", got.Files[0].Path, got.Files[1].Path)
	}

	// Only a.py→b.py dep should survive (c.py not in selected)
	if len(got.Dependencies) != 1 {
		t.Fatalf("expected 1 dep, got %d", len(got.Dependencies))
	}
	if got.Dependencies[0].Source != "a.py" || got.Dependencies[0].Target != "b.py" {
		t.Errorf("unexpected dep: %+v", got.Dependencies[0])
	}
}

func TestSelectFilesOne(t *testing.T) {
	t.Parallel()

	got := SelectFiles(makeReport(), 1)

	if len(got.Files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(got.Files))
	}
	if len(got.Dependencies) != 0 {
		t.Errorf("expected 0 deps, got %d", len(got.Dependencies))
	}
}

func TestFilterBySymbol(t *testing.T) {
	t.Parallel()

	got := FilterBySymbol(makeReport(), "USER")

	if len(got.Files) != 1 || got.Files[0].Path != "b.py" {
		t.Fatalf("expected only b.py, got %+v", got.Files)
	}
	if len(got.Files[0].Functions) != 2 {
		t.Errorf("expected both user functions, got %+v", got.Files[0].Functions)
	}
	// a.py→b.py and b.py→c.py touch b.py.
	if len(got.Dependencies) != 2 {
		t.Errorf("expected 2 deps, got %+v", got.Dependencies)
	}

	if got := FilterBySymbol(makeReport(), "nothing"); len(got.Files) != 0 {
		t.Errorf("expected no files, got %+v", got.Files)
	}
}

func TestFilterBySymbolTrimsDefinitions(t *testing.T) {
	t.Parallel()

	rep := makeReport()
	got := FilterBySymbol(rep, "load")
	if len(got.Files) != 1 || len(got.Files[0].Functions) != 1 || got.Files[0].Functions[0].Name != "load_user" {
		t.Fatalf("unexpected result: %+v", got.Files)
	}
	// The input report is not modified.
	if n := len(rep.Files[1].Functions); n != 2 {
		t.Errorf("input mutated: %d functions", n)
	}
}

func TestFilterByFile(t *testing.T) {
	t.Parallel()

	got := FilterByFile(makeReport(), "C.PY")
	if len(got.Files) != 1 || got.Files[0].Path != "c.py" {
		t.Fatalf("expected only c.py, got %+v", got.Files)
	}
	if len(got.Dependencies) != 2 {
		t.Errorf("expected 2 deps into c.py, got %+v", got.Dependencies)
	}
}
