// Package app wires the engine's components from configuration. The api,
// worker and cli binaries share it.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/tech6-code/DocuFlow-AI-sub007/internal/category"
	"github.com/tech6-code/DocuFlow-AI-sub007/internal/config"
	"github.com/tech6-code/DocuFlow-AI-sub007/internal/currency"
	"github.com/tech6-code/DocuFlow-AI-sub007/internal/extraction"
	"github.com/tech6-code/DocuFlow-AI-sub007/internal/gcs"
	infraBQ "github.com/tech6-code/DocuFlow-AI-sub007/internal/infra/bigquery"
	"github.com/tech6-code/DocuFlow-AI-sub007/internal/jobs"
	"github.com/tech6-code/DocuFlow-AI-sub007/internal/ledger"
	"github.com/tech6-code/DocuFlow-AI-sub007/internal/pipeline"
	"github.com/tech6-code/DocuFlow-AI-sub007/internal/repair"
	"github.com/tech6-code/DocuFlow-AI-sub007/internal/retry"
)

// Options selects the optional cloud collaborators.
type Options struct {
	// Extraction connects to Gemini and GCS. Without it only the
	// text normalization entry points work.
	Extraction bool
}

// App holds the wired processors and the clients that must be closed.
type App struct {
	Statements    *pipeline.StatementProcessor
	Invoices      *pipeline.InvoiceProcessor
	TrialBalances *pipeline.TrialBalanceProcessor

	// Storage and Archive are nil unless configured.
	Storage *gcs.Client
	Archive *infraBQ.Repository

	log     zerolog.Logger
	closers []func() error
}

// New builds an App from cfg.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger, opts Options) (*App, error) {
	a := &App{log: log}

	rules, err := category.LoadRules(cfg.Rules.CategoryRulesFile)
	if err != nil {
		return nil, fmt.Errorf("app.New: %w", err)
	}

	policy := retry.NewPolicy(log).WithDelays(cfg.Retry.Attempts, cfg.Retry.BaseDelay, cfg.Retry.MaxJitter)

	var sink repair.FailureSink
	if cfg.ArchiveDataset != "" {
		repo, err := infraBQ.NewRepository(ctx, cfg.GCPProject, cfg.ArchiveDataset, cfg.GeminiModel)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("app.New: %w", err)
		}
		a.Archive = repo
		a.closers = append(a.closers, repo.Close)
		sink = repo
	}

	deps := pipeline.Deps{
		Parser:               repair.NewParser(log, sink),
		Deduplicator:         ledger.NewDeduplicator(cfg.Rules.PlaceholderDates),
		Validator:            ledger.NewValidator(cfg.Rules.SwapRejectionBias),
		Converter:            a.newConverter(cfg, policy),
		Categories:           category.NewNormalizer(rules, log),
		NameOverlapThreshold: cfg.Rules.NameOverlapThreshold,
		Log:                  log,
	}

	if opts.Extraction {
		client, err := extraction.NewGeminiClient(ctx)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("app.New: %w", err)
		}
		deps.Extractor = extraction.NewGeminiExtractor(client, cfg.GeminiModel, policy, log)

		storage, err := gcs.NewClient(ctx)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("app.New: %w", err)
		}
		a.Storage = storage
		a.closers = append(a.closers, storage.Close)
	}

	a.Statements = pipeline.NewStatementProcessor(deps, cfg.Batch.PageDelay)
	a.Invoices = pipeline.NewInvoiceProcessor(deps, cfg.Batch.Concurrency)
	a.TrialBalances = pipeline.NewTrialBalanceProcessor(deps, cfg.Batch.Concurrency)
	return a, nil
}

func (a *App) newConverter(cfg *config.Config, policy *retry.Policy) *currency.Converter {
	var store currency.RateStore
	if cfg.FX.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.FX.RedisAddr})
		a.closers = append(a.closers, client.Close)
		store = currency.NewRedisRateStore(client, cfg.FX.CacheTTL)
	}

	var provider currency.RateProvider
	if cfg.FX.APIKey != "" {
		provider = currency.WithRetry(currency.NewHTTPProvider(cfg.FX.BaseURL, cfg.FX.APIKey, nil, cfg.FX.Timeout), policy)
	} else {
		a.log.Warn().Msg("No FX API key configured, foreign amounts will not be converted")
	}

	return currency.NewConverter(store, provider, cfg.ReportingCurrency, a.log)
}

// Runner returns a job handler over the app's processors. It needs Options.Extraction.
func (a *App) Runner() (*jobs.Runner, error) {
	if a.Storage == nil {
		return nil, errors.New("app.Runner: extraction is not enabled")
	}
	r := &jobs.Runner{
		Storage:       a.Storage,
		Statements:    a.Statements,
		Invoices:      a.Invoices,
		TrialBalances: a.TrialBalances,
		Log:           a.log,
	}
	if a.Archive != nil {
		r.Runs = a.Archive
	}
	return r, nil
}

// Close releases every client in reverse order of creation.
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
