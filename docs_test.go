package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/phobologic/autodoc/internal/model"
	"github.com/phobologic/autodoc/internal/store"
	"github.com/phobologic/autodoc/internal/summarize"
)

func sampleSummaries() []summarize.ChunkSummary {
	return []summarize.ChunkSummary{
		{
			Chunk:   model.Chunk{Kind: model.FunctionChunk, Name: "greet", OwnerPath: "pkg/main.py"},
			Summary: summarize.Summary{OneLiner: "Greets a user.", Description: "Builds a\ngreeting string.", Docstring: "Return a greeting."},
			Status:  summarize.Success,
		},
		{
			Chunk:   model.Chunk{Kind: model.ClassChunk, Name: "User", OwnerPath: "models.py"},
			Summary: summarize.Fallback("class User:\n    pass"),
			Status:  summarize.Degraded,
			Reason:  "boom",
		},
	}
}

// seedSummaries writes summaries.json into a fresh cache dir and returns it.
func seedSummaries(t *testing.T) string {
	t.Helper()
	cache := t.TempDir()
	st, err := store.NewFS(cache)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.Save(context.Background(), summariesDoc, sampleSummaries()); err != nil {
		t.Fatal(err)
	}
	return cache
}

// TestApplySectionCreate verifies that applySection on empty content wraps the
// section in sentinels with a trailing newline.
func TestApplySectionCreate(t *testing.T) {
	t.Parallel()
	section := sentinelStart + "\nbody\n" + sentinelEnd
	got := applySection("", section)
	if !strings.Contains(got, sentinelStart) {
		t.Error("missing sentinel start")
	}
	if !strings.Contains(got, sentinelEnd) {
		t.Error("missing sentinel end")
	}
	if !strings.Contains(got, "body") {
		t.Error("missing body")
	}
}

// TestApplySectionAppend verifies that existing content without a sentinel block
// is preserved and the section is appended.
func TestApplySectionAppend(t *testing.T) {
	t.Parallel()
	existing := "# My Project\n\nSome existing content.\n"
	section := sentinelStart + "\nnew content\n" + sentinelEnd
	got := applySection(existing, section)

	if !strings.HasPrefix(got, existing) {
		t.Errorf("existing content should be preserved at start:\n%s", got)
	}
	if !strings.Contains(got, "new content") {
		t.Error("new content missing")
	}
}

// TestApplySectionUpdate verifies that an existing sentinel block is replaced
// precisely, leaving surrounding content intact.
func TestApplySectionUpdate(t *testing.T) {
	t.Parallel()
	before := "# Project\n\n"
	after := "\n\n## Other Section\n"
	old := before + sentinelStart + "\nold content\n" + sentinelEnd + after

	section := sentinelStart + "\nnew content\n" + sentinelEnd
	got := applySection(old, section)

	if !strings.HasPrefix(got, before) {
		t.Errorf("content before sentinel should be preserved:\n%s", got)
	}
	if !strings.HasSuffix(got, after) {
		t.Errorf("content after sentinel should be preserved:\n%s", got)
	}
	if strings.Contains(got, "old content") {
		t.Error("old content should be replaced")
	}
	if !strings.Contains(got, "new content") {
		t.Error("new content missing")
	}
}

func TestGenerateSection(t *testing.T) {
	t.Parallel()
	got := generateSection(sampleSummaries())

	if !strings.HasPrefix(got, sentinelStart+"\n## Codebase summary") {
		t.Errorf("unexpected start:\n%s", got)
	}
	if !strings.HasSuffix(got, "\n"+sentinelEnd) {
		t.Errorf("unexpected end:\n%s", got)
	}
	// Files are listed in path order.
	if strings.Index(got, "### `models.py`") > strings.Index(got, "### `pkg/main.py`") {
		t.Errorf("files out of order:\n%s", got)
	}
	for _, want := range []string{
		"- **greet** (function): Greets a user.\n",
		"  Builds a greeting string.\n",
		"  Docstring: `Return a greeting.`\n",
		"- **User** (class): class User: _(fallback)_\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Auto-generated fallback summary.") {
		t.Error("fallback description should not be rendered")
	}
}

func TestDocsCreatesFile(t *testing.T) {
	t.Parallel()
	cache := seedSummaries(t)
	path := filepath.Join(t.TempDir(), "AUTODOC.md")

	var stdout, stderr bytes.Buffer
	if err := run([]string{"--cache-dir", cache, "docs", path}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr.String())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("file not created: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, sentinelStart) || !strings.Contains(content, sentinelEnd) {
		t.Errorf("missing sentinels:\n%s", content)
	}
	if !strings.Contains(content, "Greets a user.") {
		t.Errorf("missing summary:\n%s", content)
	}
	if !strings.Contains(stderr.String(), "wrote autodoc section") {
		t.Errorf("expected confirmation on stderr, got %q", stderr.String())
	}
}

func TestDocsDryRunNoPath(t *testing.T) {
	t.Parallel()
	cache := seedSummaries(t)

	var stdout, stderr bytes.Buffer
	if err := run([]string{"--cache-dir", cache, "docs", "--dry-run"}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}
	out := stdout.String()
	if !strings.HasPrefix(out, sentinelStart) {
		t.Errorf("dry-run should print the section, got:\n%s", out)
	}
}

func TestDocsDryRunShowsFullFile(t *testing.T) {
	t.Parallel()
	cache := seedSummaries(t)
	path := filepath.Join(t.TempDir(), "README.md")
	existing := "# Project\n\nIntro.\n"
	if err := os.WriteFile(path, []byte(existing), 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	if err := run([]string{"--cache-dir", cache, "docs", "--dry-run", path}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.HasPrefix(stdout.String(), existing) {
		t.Errorf("dry-run should show the whole updated file, got:\n%s", stdout.String())
	}
	data, _ := os.ReadFile(path)
	if string(data) != existing {
		t.Error("dry-run must not modify the file")
	}
}

func TestDocsIdempotent(t *testing.T) {
	t.Parallel()
	cache := seedSummaries(t)
	path := filepath.Join(t.TempDir(), "AUTODOC.md")

	for i := 0; i < 2; i++ {
		var stdout, stderr bytes.Buffer
		if err := run([]string{"--cache-dir", cache, "docs", path}, &stdout, &stderr); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	data, _ := os.ReadFile(path)
	if n := strings.Count(string(data), sentinelStart); n != 1 {
		t.Errorf("expected one section after two runs, got %d", n)
	}
}

func TestDocsWithoutSummaries(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	err := run([]string{"--cache-dir", t.TempDir(), "docs", "--dry-run"}, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), "autodoc summarize") {
		t.Errorf("expected hint to run summarize, got %v", err)
	}
}
