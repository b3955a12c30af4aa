package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phobologic/autodoc/internal/summarize"
)

const (
	sentinelStart = "<!-- autodoc:start -->"
	sentinelEnd   = "<!-- autodoc:end -->"
)

// docsCmd implements `autodoc docs`, which writes (or updates) a summary
// section in a markdown file from the persisted summaries.
func (a *app) docsCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "docs [path-to-markdown]",
		Short: "Write a codebase summary section into a markdown file",
		Long: `Write the summaries produced by 'autodoc summarize' into a markdown file.
The section is wrapped in sentinel comments so it can be updated in place on
subsequent runs without touching surrounding content. Creates the file if it
does not exist.

path-to-markdown defaults to ./AUTODOC.md.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.store()
			if err != nil {
				return err
			}
			var items []summarize.ChunkSummary
			found, err := st.Load(cmd.Context(), summariesDoc, &items)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("no summaries found in %s; run 'autodoc summarize' first", a.cfg.CacheDir)
			}

			section := generateSection(items)

			// --dry-run with no path: just print the section itself.
			if dryRun && len(args) == 0 {
				_, _ = fmt.Fprintln(a.stdout, section)
				return nil
			}

			path := "AUTODOC.md"
			if len(args) > 0 {
				path = args[0]
			}

			existing, _ := os.ReadFile(path)
			updated := applySection(string(existing), section)

			if dryRun {
				_, _ = fmt.Fprint(a.stdout, updated)
				return nil
			}

			if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}
			a.log.Info("wrote autodoc section", "path", path, "chunks", len(items))
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print what would be written without modifying the file")
	return cmd
}

// generateSection renders summaries grouped by file, files in path order
// and chunks in their original order.
func generateSection(items []summarize.ChunkSummary) string {
	byFile := make(map[string][]summarize.ChunkSummary)
	for _, it := range items {
		byFile[it.Chunk.OwnerPath] = append(byFile[it.Chunk.OwnerPath], it)
	}
	paths := make([]string, 0, len(byFile))
	for p := range byFile {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var b strings.Builder
	b.WriteString("## Codebase summary\n\n")
	b.WriteString("Generated by `autodoc summarize`; rerun `autodoc docs` to refresh.\n")
	for _, p := range paths {
		fmt.Fprintf(&b, "\n### `%s`\n\n", p)
		for _, it := range byFile[p] {
			fmt.Fprintf(&b, "- **%s** (%s): %s", it.Chunk.Name, it.Chunk.Kind, oneLine(it.Summary.OneLiner))
			if it.Status == summarize.Degraded {
				b.WriteString(" _(fallback)_")
			}
			b.WriteString("\n")
			if d := oneLine(it.Summary.Description); d != "" && !summarize.IsFallback(it.Summary) {
				fmt.Fprintf(&b, "  %s\n", d)
			}
			if doc := oneLine(it.Summary.Docstring); doc != "" {
				fmt.Fprintf(&b, "  Docstring: `%s`\n", doc)
			}
		}
	}

	return sentinelStart + "\n" + strings.TrimRight(b.String(), "\n") + "\n" + sentinelEnd
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// applySection inserts section into content, replacing an existing sentinel
// block if present or appending if not. It is a pure function for easy testing.
func applySection(content, section string) string {
	start := strings.Index(content, sentinelStart)
	end := strings.Index(content, sentinelEnd)

	if start >= 0 && end > start {
		return content[:start] + section + content[end+len(sentinelEnd):]
	}

	// Append, ensuring a blank line separator.
	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + "\n" + section + "\n"
}
