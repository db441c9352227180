// Package app wires configuration into a ready-to-use engine. Both the HTTP
// server and the CLI start from here.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"golang.org/x/time/rate"

	"github.com/agenthands/eventgov/internal/config"
	"github.com/agenthands/eventgov/internal/core"
	"github.com/agenthands/eventgov/internal/core/alias"
	"github.com/agenthands/eventgov/internal/core/extraction"
	"github.com/agenthands/eventgov/internal/core/merge"
	"github.com/agenthands/eventgov/internal/core/model"
	"github.com/agenthands/eventgov/internal/core/similarity"
	"github.com/agenthands/eventgov/internal/core/summary"
	"github.com/agenthands/eventgov/internal/core/taxonomy"
	"github.com/agenthands/eventgov/internal/driver"
	"github.com/agenthands/eventgov/internal/llm"
	"github.com/agenthands/eventgov/internal/logger"
	"github.com/agenthands/eventgov/internal/store"
)

type App struct {
	Config   *config.Config
	Store    *store.Store
	Engine   *core.Engine
	Taxonomy *taxonomy.Engine
	Aliases  *alias.Governor
	Log      *logger.Logger

	closers []func() error
}

// New opens the store, builds the oracle client and assembles the engine.
// The graph projection is optional: a Memgraph that cannot be reached is
// logged and skipped.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	a := &App{Config: cfg, Log: log}

	s, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	a.Store = s
	a.closers = append(a.closers, s.Close)

	client, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
	}
	if c, ok := client.(io.Closer); ok {
		a.closers = append(a.closers, c.Close)
	}
	if d, ok := client.(*llm.DisabledClient); ok {
		log.Warn("Extraction disabled, documents will yield no events", "reason", d.Reason)
	}

	knowledge, err := readOptional(cfg.Extraction.BusinessKnowledgePath)
	if err != nil {
		a.Close()
		return nil, err
	}
	if knowledge == "" {
		log.Warn("No business knowledge loaded", "path", cfg.Extraction.BusinessKnowledgePath)
	}

	p := cfg.GovernancePolicy()
	sim := similarity.Default()

	extractor := extraction.NewExtractor(
		client,
		extraction.NewPromptBuilder(knowledge, cfg.Extraction.UserPrefix),
		retryPolicy(cfg.Retry),
		limiter(cfg.Retry.RequestsPerMinute),
		log.With("component", "extraction"),
	)
	a.Taxonomy = taxonomy.NewEngine(s, sim, p, log.With("component", "taxonomy"))
	a.Aliases = alias.NewGovernor(s, sim, p, log.With("component", "alias"))
	a.Engine = core.NewEngine(s, extractor, merge.NewMerger(p), a.Taxonomy, a.Aliases, log)

	if cfg.Governance.DraftDefinitions {
		a.Engine.Summarizer = summary.NewSummarizer(client, log.With("component", "summary"))
	}

	if cfg.Memgraph.URI != "" {
		d, err := driver.NewMemgraphDriver(ctx, cfg.Memgraph.URI, cfg.Memgraph.User, cfg.Memgraph.Password, log)
		if err != nil {
			log.Warn("Graph projection disabled", "error", err)
		} else {
			a.closers = append(a.closers, func() error { return d.Close(context.Background()) })
			a.Engine.Projector = core.NewProjector(d, log.With("component", "projection"))
			if err := a.Engine.Projector.BuildIndices(ctx); err != nil {
				log.Warn("Failed to build graph indices", "error", err)
			}
		}
	}

	seeds, err := loadSeeds(cfg.Governance.SeedPath)
	if err != nil {
		a.Close()
		return nil, err
	}
	if err := a.Engine.Seed(ctx, seeds); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// Close releases everything New opened, in reverse order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func retryPolicy(c config.RetryConfig) extraction.RetryPolicy {
	return extraction.RetryPolicy{
		MaxAttempts: c.MaxAttempts,
		Delay:       time.Duration(c.DelayMS) * time.Millisecond,
		Multiplier:  c.Multiplier,
		Timeout:     time.Duration(c.TimeoutSeconds) * time.Second,
	}
}

func limiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
}

func loadSeeds(path string) ([]model.TaxonomyTag, error) {
	if path == "" {
		return taxonomy.DefaultSeeds(), nil
	}
	return taxonomy.LoadSeed(path)
}

// readOptional returns the file's content, or "" if it does not exist.
func readOptional(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}
