package summarize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/phobologic/autodoc/internal/model"
	"github.com/phobologic/autodoc/internal/store"
)

// Options configures a Summarizer. Zero values pick defaults.
type Options struct {
	MaxRetries      int
	RetryBase       time.Duration
	MemoryCacheSize int
	Workers         int
	Logger          *slog.Logger
}

const (
	defaultMaxRetries = 3
	defaultRetryBase  = time.Second
	defaultCacheSize  = 1024
	defaultWorkers    = 4
)

// Summarizer summarizes text through a Backend. Results are cached in
// memory and, when a store is given, persisted under summaries/.
type Summarizer struct {
	backend Backend
	store   store.Store
	memory  *lru.Cache[string, Result]
	opts    Options
	log     *slog.Logger
}

// New returns a Summarizer. backend may be nil, in which case only cached
// summaries can be served. st may be nil to disable persistence.
func New(backend Backend, st store.Store, opts Options) (*Summarizer, error) {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = defaultRetryBase
	}
	if opts.MemoryCacheSize <= 0 {
		opts.MemoryCacheSize = defaultCacheSize
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	memory, err := lru.New[string, Result](opts.MemoryCacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating summary cache: %w", err)
	}
	return &Summarizer{backend: backend, store: st, memory: memory, opts: opts, log: logger}, nil
}

func documentName(key string) string {
	return "summaries/" + SanitizeKey(key) + ".json"
}

// Summarize returns the summary for text, cached under key. Backend
// failures are retried with exponential backoff; once retries run out the
// fallback summary is cached and returned as Degraded. The error return is
// reserved for a missing backend, a cancelled context and store failures.
func (s *Summarizer) Summarize(ctx context.Context, text, key string) (Result, error) {
	safe := SanitizeKey(key)
	if r, ok := s.memory.Get(safe); ok {
		return r, nil
	}

	name := documentName(key)
	if s.store != nil {
		var cached Summary
		found, err := s.store.Load(ctx, name, &cached)
		if err != nil {
			return Result{}, err
		}
		if found {
			r := Result{Summary: cached, Status: Success}
			if IsFallback(cached) {
				r.Status = Degraded
				r.Reason = "cached fallback"
			}
			s.memory.Add(safe, r)
			return r, nil
		}
	}

	if s.backend == nil {
		return Result{}, ErrMissingBackend
	}

	r, err := s.complete(ctx, text, key)
	if err != nil {
		return Result{}, err
	}
	if s.store != nil {
		if err := s.store.Save(ctx, name, r.Summary); err != nil {
			return Result{}, err
		}
	}
	s.memory.Add(safe, r)
	return r, nil
}

// backoff is the wait after the failed attempt numbered failed (from 0):
// base, 2*base, 4*base and so on.
func backoff(base time.Duration, failed int) time.Duration {
	return base * time.Duration(1<<failed)
}

func (s *Summarizer) complete(ctx context.Context, text, key string) (Result, error) {
	var lastErr error
	for attempt := 0; attempt < s.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return Result{}, ctx.Err()
			case <-time.After(backoff(s.opts.RetryBase, attempt-1)):
			}
		}

		raw, err := s.backend.Complete(ctx, SystemPrompt, text)
		if err == nil {
			summary, perr := parseSummary(raw)
			if perr == nil {
				return Result{Summary: summary, Status: Success}, nil
			}
			err = fmt.Errorf("invalid summary JSON: %w", perr)
		}
		if errors.Is(err, ErrMissingBackend) {
			return Result{}, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		lastErr = err
		s.log.Warn("summarization attempt failed", "key", key, "attempt", attempt+1, "err", err)
	}

	s.log.Warn("using fallback summary", "key", key, "err", lastErr)
	return Result{
		Summary: Fallback(text),
		Status:  Degraded,
		Reason:  lastErr.Error(),
	}, nil
}

// ChunkSummary is a chunk paired with its summary result.
type ChunkSummary struct {
	Chunk   model.Chunk `json:"chunk"`
	Summary Summary     `json:"summary"`
	Status  Status      `json:"status"`
	Reason  string      `json:"reason,omitempty"`
}

// ChunkKey is the cache key for the i-th chunk of a run.
func ChunkKey(repoPrefix string, c model.Chunk, i int) string {
	return fmt.Sprintf("%s_%s_%s_%d", repoPrefix, c.Kind, c.Name, i)
}

// SummarizeChunks summarizes chunks concurrently. The output is in input
// order. The first hard error cancels the remaining work.
func (s *Summarizer) SummarizeChunks(ctx context.Context, repoPrefix string, chunks []model.Chunk) ([]ChunkSummary, error) {
	out := make([]ChunkSummary, len(chunks))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)

	for i, c := range chunks {
		g.Go(func() error {
			r, err := s.Summarize(ctx, c.Text, ChunkKey(repoPrefix, c, i))
			if err != nil {
				return fmt.Errorf("summarizing %s %s: %w", c.Kind, c.Name, err)
			}
			out[i] = ChunkSummary{Chunk: c, Summary: r.Summary, Status: r.Status, Reason: r.Reason}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
