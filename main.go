// autodoc analyzes Python repositories: it parses sources into structural
// records, cuts them into chunks for summarization and builds a
// file/module/function/call graph.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/phobologic/autodoc/internal/analyze"
	"github.com/phobologic/autodoc/internal/chunk"
	"github.com/phobologic/autodoc/internal/config"
	"github.com/phobologic/autodoc/internal/export"
	"github.com/phobologic/autodoc/internal/graph"
	"github.com/phobologic/autodoc/internal/model"
	"github.com/phobologic/autodoc/internal/ranking"
	"github.com/phobologic/autodoc/internal/repo"
	"github.com/phobologic/autodoc/internal/store"
	"github.com/phobologic/autodoc/internal/summarize"
	"github.com/phobologic/autodoc/internal/toon"
)

var version = "dev"

// Document names inside the store.
const (
	parsedDoc    = "parsed.json"
	chunksDoc    = "chunks.json"
	summariesDoc = "summaries.json"
	graphHTML    = "autodoc_graph.html"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// app carries state shared by every subcommand for one invocation.
type app struct {
	v          *viper.Viper
	cfg        *config.Config
	log        *slog.Logger
	stdout     io.Writer
	stderr     io.Writer
	configFile string
	verbose    bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{v: config.New(), stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "autodoc",
		Short: "Analyze a Python repository into records, chunks, summaries and a graph",
		Long: `autodoc walks a Python repository, extracts imports, functions, classes
and call sites from every file, and builds on that structure:

  autodoc analyze [root]     ranked structural report
  autodoc chunks [root]      summarization chunks
  autodoc graph [root]       dependency graph (HTML, DOT or JSON)
  autodoc summarize [root]   language-model summaries per chunk
  autodoc clone <url>        shallow clone into the staging directory
  autodoc docs [file]        write a summary section into a markdown file`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetVersionTemplate("autodoc {{.Version}}\n")

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "config file (default ./autodoc.yaml if present)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	pf.String("cache-dir", ".autodoc_cache", "directory for persisted documents")
	pf.Int("workers", runtime.GOMAXPROCS(0), "parallel parse and summarize workers")
	pf.Int64("max-file-size", 1<<20, "skip files larger than this many bytes")
	pf.Bool("gitignore", false, "honor the root .gitignore during discovery")

	root.AddCommand(
		a.analyzeCmd(),
		a.chunksCmd(),
		a.graphCmd(),
		a.summarizeCmd(),
		a.cloneCmd(),
		a.docsCmd(),
	)
	return root
}

// flagKeys maps config keys to the flags that override them. Several
// subcommands define the same flag, so binding happens per invocation
// against the command that actually runs.
var flagKeys = map[string]string{
	"cache_dir":     "cache-dir",
	"workers":       "workers",
	"max_file_size": "max-file-size",
	"gitignore":     "gitignore",
	"max_chars":     "max-chars",
	"key_by_path":   "key-by-path",
	"model":         "model",
	"max_retries":   "max-retries",
	"retry_base":    "retry-base",
	"staging_dir":   "dir",
}

// bindFlags binds config keys to flags. A flag only overrides the key when
// it is set on the command line.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for key, name := range flagKeys {
		if f := fs.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("binding --%s: %w", name, err)
			}
		}
	}
	return nil
}

func (a *app) setup(cmd *cobra.Command) error {
	level := slog.LevelInfo
	if a.verbose {
		level = slog.LevelDebug
	}
	a.log = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))

	if err := bindFlags(a.v, cmd.Flags()); err != nil {
		return err
	}

	cfg, err := config.Load(a.v, a.configFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log.Debug("config loaded", "cache_dir", cfg.CacheDir, "workers", cfg.Workers, "model", cfg.Model)
	return nil
}

func (a *app) store() (store.Store, error) {
	return store.New(a.cfg.Store())
}

// resolveRoot makes root absolute and checks that it is a directory.
func resolveRoot(args []string) (string, error) {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("root path: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s: not a directory", root)
	}
	return root, nil
}

// analyzeRoot runs discovery and parsing and persists the records.
func (a *app) analyzeRoot(ctx context.Context, root string) ([]model.SourceFile, error) {
	files, err := analyze.Run(root, analyze.Options{
		Gitignore:   a.cfg.Gitignore,
		MaxFileSize: a.cfg.MaxFileSize,
		Workers:     a.cfg.Workers,
		Logger:      a.log,
	})
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no python files found under %s", root)
	}
	a.log.Debug("parsed files", "root", root, "count", len(files))

	st, err := a.store()
	if err != nil {
		return nil, err
	}
	if err := st.Save(ctx, parsedDoc, files); err != nil {
		return nil, fmt.Errorf("saving parsed records: %w", err)
	}
	return files, nil
}

func (a *app) analyzeCmd() *cobra.Command {
	var (
		maxFiles     int
		symbolFilter string
		fileFilter   string
	)
	cmd := &cobra.Command{
		Use:   "analyze [root]",
		Short: "Parse a repository and print a ranked structural report",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := resolveRoot(args)
			if err != nil {
				return err
			}
			files, err := a.analyzeRoot(cmd.Context(), root)
			if err != nil {
				return err
			}

			rep := ranking.NewReport(filepath.Base(root), files)
			if symbolFilter != "" {
				rep = ranking.FilterBySymbol(rep, symbolFilter)
			}
			if fileFilter != "" {
				rep = ranking.FilterByFile(rep, fileFilter)
			}
			if maxFiles > 0 {
				rep = ranking.SelectFiles(rep, maxFiles)
			}

			_, _ = fmt.Fprintln(a.stdout, toon.Encode(rep))
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVarP(&maxFiles, "max-files", "n", 0, "maximum number of files to include")
	f.StringVarP(&symbolFilter, "symbol", "s", "", "only include functions and classes whose name contains this")
	f.StringVarP(&fileFilter, "file", "f", "", "only include files whose path contains this")
	return cmd
}

// splitChunks replaces file chunks longer than maxChars with numbered
// pieces from chunk.SplitText.
func splitChunks(chunks []model.Chunk, maxChars int) []model.Chunk {
	var out []model.Chunk
	for _, c := range chunks {
		if c.Kind != model.FileChunk {
			out = append(out, c)
			continue
		}
		pieces := chunk.SplitText(c.Text, maxChars)
		if len(pieces) <= 1 {
			out = append(out, c)
			continue
		}
		for i, p := range pieces {
			piece := c
			piece.Name = fmt.Sprintf("%s#%d", c.Name, i+1)
			piece.Text = p
			out = append(out, piece)
		}
	}
	return out
}

// buildChunks analyzes root and returns its chunks, optionally split.
func (a *app) buildChunks(ctx context.Context, root string, split bool) ([]model.Chunk, error) {
	files, err := a.analyzeRoot(ctx, root)
	if err != nil {
		return nil, err
	}
	chunks := chunk.ForFiles(files)
	if split {
		chunks = splitChunks(chunks, a.cfg.MaxChars)
	}
	return chunks, nil
}

func (a *app) chunksCmd() *cobra.Command {
	var split bool
	cmd := &cobra.Command{
		Use:   "chunks [root]",
		Short: "Print the summarization chunks of a repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := resolveRoot(args)
			if err != nil {
				return err
			}
			chunks, err := a.buildChunks(cmd.Context(), root, split)
			if err != nil {
				return err
			}

			st, err := a.store()
			if err != nil {
				return err
			}
			if err := st.Save(cmd.Context(), chunksDoc, chunks); err != nil {
				return fmt.Errorf("saving chunks: %w", err)
			}
			_, _ = fmt.Fprintln(a.stdout, toon.EncodeChunks(chunks))
			return nil
		},
	}
	cmd.Flags().BoolVar(&split, "split", false, "split long file chunks at paragraph and line boundaries")
	cmd.Flags().Int("max-chars", chunk.DefaultMaxChars, "maximum characters per split piece")
	return cmd
}

func (a *app) graphCmd() *cobra.Command {
	var (
		out    string
		format string
	)
	cmd := &cobra.Command{
		Use:   "graph [root]",
		Short: "Build the file/module/function/call graph",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := resolveRoot(args)
			if err != nil {
				return err
			}
			files, err := a.analyzeRoot(cmd.Context(), root)
			if err != nil {
				return err
			}
			g := graph.Build(files, graph.Options{KeyByPath: a.cfg.KeyByPath})
			a.log.Debug("graph built", "nodes", g.NodeCount(), "edges", g.EdgeCount())

			switch strings.ToLower(format) {
			case "html":
				if out == "" {
					out = filepath.Join(a.cfg.CacheDir, graphHTML)
				}
				path, err := export.HTML(g, out)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(a.stdout, "graph exported to %s\n", path)
				return nil
			case "dot":
				return a.writeGraph(out, func(w io.Writer) error { return export.DOT(g, w) })
			case "json":
				return a.writeGraph(out, func(w io.Writer) error { return export.JSON(g, w) })
			default:
				return fmt.Errorf("unsupported graph format %q (want html, dot or json)", format)
			}
		},
	}
	f := cmd.Flags()
	f.StringVarP(&out, "out", "o", "", "output path (html defaults to <cache-dir>/autodoc_graph.html, others to stdout)")
	f.StringVar(&format, "format", "html", "output format: html, dot or json")
	f.Bool("key-by-path", false, "key file nodes by relative path instead of basename")
	return cmd
}

func (a *app) writeGraph(out string, write func(io.Writer) error) error {
	if out == "" {
		return write(a.stdout)
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(out), err)
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("creating %s: %w", out, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", out, err)
	}
	return f.Close()
}

func (a *app) summarizeCmd() *cobra.Command {
	var split bool
	cmd := &cobra.Command{
		Use:   "summarize [root]",
		Short: "Summarize every chunk of a repository with a language model",
		Long: `Summarize every chunk of a repository with a language model.

Summaries are cached under <cache-dir>/summaries, so repeated runs only call
the model for new chunks. The API key is read from api_key in the config,
AUTODOC_API_KEY or GEMINI_API_KEY.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			root, err := resolveRoot(args)
			if err != nil {
				return err
			}
			chunks, err := a.buildChunks(ctx, root, split)
			if err != nil {
				return err
			}

			st, err := a.store()
			if err != nil {
				return err
			}

			// Without a key only cached summaries can be served; the first
			// miss reports the missing backend.
			var backend summarize.Backend
			gem, err := summarize.NewGemini(ctx, a.cfg.APIKey, a.cfg.Model)
			switch {
			case err == nil:
				backend = gem
			case errors.Is(err, summarize.ErrMissingBackend):
				a.log.Debug("no API key configured; serving cached summaries only")
			default:
				return err
			}

			s, err := summarize.New(backend, st, summarize.Options{
				MaxRetries:      a.cfg.MaxRetries,
				RetryBase:       a.cfg.RetryBase,
				MemoryCacheSize: a.cfg.MemoryCacheSize,
				Workers:         a.cfg.Workers,
				Logger:          a.log,
			})
			if err != nil {
				return err
			}
			results, err := s.SummarizeChunks(ctx, filepath.Base(root), chunks)
			if err != nil {
				return err
			}
			if err := st.Save(ctx, summariesDoc, results); err != nil {
				return fmt.Errorf("saving summaries: %w", err)
			}

			_, _ = fmt.Fprintln(a.stdout, toon.EncodeSummaries(results))
			return nil
		},
	}
	f := cmd.Flags()
	f.BoolVar(&split, "split", false, "split long file chunks before summarizing")
	f.String("model", "gemini-2.5-flash", "Gemini model name")
	f.Int("max-retries", 3, "backend attempts per chunk before falling back")
	f.Duration("retry-base", time.Second, "base backoff between attempts")
	f.Int("max-chars", chunk.DefaultMaxChars, "maximum characters per split piece")
	return cmd
}

func (a *app) cloneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clone <url>",
		Short: "Shallow-clone a repository into the staging directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := a.cfg.StagingDir
			if err := repo.Clone(cmd.Context(), args[0], dir); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(a.stdout, "cloned %s into %s\n", args[0], dir)
			return nil
		},
	}
	cmd.Flags().String("dir", ".autodoc_cache/repo", "staging directory (an earlier checkout there is replaced)")
	return cmd
}
