package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/crosscheck-health/labrecon/internal/consensus"
	"github.com/crosscheck-health/labrecon/internal/extract"
	"github.com/crosscheck-health/labrecon/internal/fetcher"
	"github.com/crosscheck-health/labrecon/internal/normalize"
	"github.com/crosscheck-health/labrecon/internal/ocr"
	"github.com/crosscheck-health/labrecon/internal/pipeline"
	"github.com/crosscheck-health/labrecon/internal/store"
	"github.com/crosscheck-health/labrecon/pkg/anthropic"
)

// pipelineEnv bundles everything a command needs to process reports.
type pipelineEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
	Fetcher  fetcher.Fetcher
	OCR      ocr.Extractor
}

func (e *pipelineEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		path := cfg.Store.SQLitePath
		if path == "" {
			path = "labrecon.db"
		}
		return store.NewSQLite(path)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initNormalizer() (*normalize.Normalizer, error) {
	tables := normalize.DefaultTables()
	if cfg.Normalize.TablesPath != "" {
		t, err := normalize.LoadTables(cfg.Normalize.TablesPath)
		if err != nil {
			return nil, err
		}
		tables = t
	}
	return normalize.New(tables)
}

func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	if cfg.Anthropic.Key == "" {
		return nil, eris.New("anthropic API key is required (LABRECON_ANTHROPIC_KEY)")
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "migrate store")
	}

	norm, err := initNormalizer()
	if err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}

	client := anthropic.NewClient(cfg.Anthropic.Key)

	enabled := cfg.EnabledSources()
	if len(enabled) == 0 {
		st.Close() //nolint:errcheck
		return nil, eris.New("no extraction sources enabled")
	}
	sources := make([]extract.Source, 0, len(enabled))
	for _, s := range enabled {
		sources = append(sources, extract.NewClaudeSource(s.ID, s.Model, cfg.Anthropic.MaxTokens, client))
	}

	var merger consensus.Merger
	if cfg.Merge.Enabled {
		merger = consensus.NewClaudeMerger(cfg.Merge.Model, cfg.Anthropic.MaxTokens, client)
	}

	timeout := time.Duration(cfg.Fetch.TimeoutSecs) * time.Second
	httpFetcher := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		Timeout:        timeout,
		RequestsPerSec: cfg.Fetch.RequestsPerSec,
	})
	multi := fetcher.NewMulti(httpFetcher, fetcher.NewFTPFetcher(fetcher.FTPOptions{Timeout: timeout}))

	extractor, err := ocr.NewExtractor(cfg.OCR)
	if err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}

	return &pipelineEnv{
		Store:    st,
		Pipeline: pipeline.New(sources, merger, norm, st, cfg.Pipeline.ConfidenceThreshold),
		Fetcher:  multi,
		OCR:      extractor,
	}, nil
}
