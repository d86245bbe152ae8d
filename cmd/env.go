package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/reka-labs/salesbot/internal/discovery"
	"github.com/reka-labs/salesbot/internal/extractor"
	"github.com/reka-labs/salesbot/internal/fetcher"
	"github.com/reka-labs/salesbot/internal/notify"
	"github.com/reka-labs/salesbot/internal/pipeline"
	"github.com/reka-labs/salesbot/internal/queries"
	"github.com/reka-labs/salesbot/internal/store"
	"github.com/reka-labs/salesbot/pkg/completion"
	"github.com/reka-labs/salesbot/pkg/websearch"
)

// pipelineEnv holds the initialized store, clients, and pipeline shared by
// the run/serve commands.
type pipelineEnv struct {
	Store    store.Store
	AI       completion.Client
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initStore opens the configured backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	case "sqlite", "":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// initEnv sets up the store, clients, and pipeline. Callers should defer
// env.Close().
func initEnv(ctx context.Context) (*pipelineEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	ai := completion.NewClient(cfg.Completion.Key)
	search := websearch.NewClient(cfg.Search.Key, websearch.WithBaseURL(cfg.Search.BaseURL))

	var notifier notify.Notifier = notify.Nop{}
	if cfg.SMTP.From != "" && cfg.SMTP.Password != "" {
		notifier = notify.NewEmailNotifier(ai, cfg.SMTP, cfg.Completion)
	} else {
		zap.L().Warn("smtp not configured, lead notifications disabled")
	}

	p := pipeline.New(
		st,
		queries.New(ai, cfg.Completion),
		discovery.New(search, cfg.Prospect.RequestSpacingSecs, cfg.Search.ResultsPerQuery),
		fetcher.New(time.Duration(cfg.Fetch.TimeoutSecs)*time.Second, fetcher.WithMaxContentLen(cfg.Fetch.MaxContentLen)),
		extractor.New(ai, cfg.Completion),
		pipeline.NewResearcher(ai, cfg.Completion),
		notifier,
		cfg.Prospect,
	)

	return &pipelineEnv{Store: st, AI: ai, Pipeline: p}, nil
}
