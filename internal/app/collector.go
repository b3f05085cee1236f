package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/seongsu-hq/popup-harvester/internal/config"
	"github.com/seongsu-hq/popup-harvester/internal/domain"
	"github.com/seongsu-hq/popup-harvester/internal/logger"
	"github.com/seongsu-hq/popup-harvester/internal/pipeline"
	"github.com/seongsu-hq/popup-harvester/internal/storage"
	"github.com/seongsu-hq/popup-harvester/pkg/extractor"
	"github.com/seongsu-hq/popup-harvester/pkg/httpclient"
	"github.com/seongsu-hq/popup-harvester/pkg/notify"
	"github.com/seongsu-hq/popup-harvester/pkg/retry"
	"github.com/seongsu-hq/popup-harvester/pkg/source"
	"github.com/seongsu-hq/popup-harvester/pkg/wordpress"
)

// Collector is the collector runtime. It wires config into the pipeline
// stages and executes the collection loop.
type Collector struct {
	cfg         *config.Config
	pipe        *pipeline.Service
	store       storage.Store
	runLog      *storage.RunLog
	runInterval time.Duration
	runOnce     bool
	log         *zap.SugaredLogger
}

// NewCollector builds a collector runtime from config.
func NewCollector(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (*Collector, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	queries, err := source.LoadQueries(cfg.QueriesFile)
	if err != nil {
		return nil, fmt.Errorf("load queries: %w", err)
	}
	keywords := make([]string, 0, len(queries))
	for _, q := range queries {
		keywords = append(keywords, q.Keyword)
	}
	logger.InfoObj("queries loaded", "queries_meta", map[string]any{
		"count":    len(keywords),
		"keywords": keywords,
	})

	store, err := storage.NewStore("bbolt", cfg.BBoltPath, storage.Options{
		RetryCeiling: cfg.RetryCeiling,
	})
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	recovered, err := store.RecoverStale()
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("recover stale records: %w", err)
	}
	if recovered > 0 {
		logger.WarnObj("recovered records left pending by a previous crash", "recovered_count", recovered)
	}

	runLog, err := storage.NewRunLog(cfg.DataDir)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("init run log: %w", err)
	}

	retryPolicy := retry.Policy{
		MaxAttempts: cfg.RetryCeiling,
		Base:        cfg.BackoffBase,
		Multiplier:  cfg.BackoffMultiplier,
	}

	searchClient, err := source.NewClient(httpclient.NewRestyClient(cfg.HTTPTimeout), source.Config{
		BaseURL:      cfg.NaverBaseURL,
		ClientID:     cfg.NaverClientID,
		ClientSecret: cfg.NaverClientSecret,
		PageDelay:    cfg.PageDelay,
		Retry:        retryPolicy,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("init source client: %w", err)
	}

	gemini, err := extractor.NewGemini(extractor.Config{
		BaseURL: cfg.GeminiBaseURL,
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		Timeout: cfg.HTTPTimeout,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("init extractor: %w", err)
	}

	publisher, err := wordpress.New(wordpress.Config{
		BaseURL:     cfg.WordPressBaseURL,
		Username:    cfg.WordPressUsername,
		AppPassword: cfg.WordPressAppPassword,
		Category:    cfg.WordPressCategory,
		Timeout:     cfg.HTTPTimeout,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("init publisher: %w", err)
	}

	fanout, err := buildNotifiers(ctx, cfg.NotifiersFile)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("build notifiers: %w", err)
	}

	pipe, err := pipeline.NewService(searchClient, gemini, publisher, store, fanout, pipeline.Options{
		Queries:     queries,
		Concurrency: cfg.Concurrency,
		Retry:       retryPolicy,
		Filter: func(l domain.Listing) bool {
			return extractor.LooksLikePopup(l.Title, l.Snippet)
		},
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("init pipeline: %w", err)
	}

	return &Collector{
		cfg:         cfg,
		pipe:        pipe,
		store:       store,
		runLog:      runLog,
		runInterval: cfg.RunInterval,
		runOnce:     cfg.RunOnce,
		log:         log,
	}, nil
}

// buildNotifiers loads the notifier registry when the file exists. A
// missing file just disables notifications.
func buildNotifiers(ctx context.Context, path string) (*notify.Fanout, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		logger.InfoObj("no notifiers file, notifications disabled", "notifiers_file", path)
		return nil, nil
	}

	reg, err := notify.LoadRegistry(path)
	if err != nil {
		return nil, err
	}

	enabled := reg.Enabled()
	if len(enabled) == 0 {
		logger.InfoObj("no enabled notifiers, notifications disabled", "notifiers_file", path)
		return nil, nil
	}

	sinks, err := notify.BuildAll(ctx, notify.DefaultRegistry(), enabled, notifyLogger{})
	if err != nil {
		return nil, err
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, cfg := range enabled {
		summaries = append(summaries, map[string]string{"id": cfg.ID, "type": cfg.Type})
	}
	logger.InfoObj("notifiers loaded", "notifiers_meta", map[string]any{
		"count":     len(summaries),
		"notifiers": summaries,
	})

	return notify.NewFanout(sinks), nil
}

// notifyLogger adapts the package-level logger to the notify.Logger surface.
type notifyLogger struct{}

func (notifyLogger) InfoObj(msg, key string, obj interface{})  { logger.InfoObj(msg, key, obj) }
func (notifyLogger) DebugObj(msg, key string, obj interface{}) { logger.DebugObj(msg, key, obj) }
func (notifyLogger) WarnObj(msg, key string, obj interface{})  { logger.WarnObj(msg, key, obj) }
func (notifyLogger) ErrorObj(msg, key string, obj interface{}) { logger.ErrorObj(msg, key, obj) }

// Run executes collection passes until the context is cancelled. In
// run-once mode a single pass is executed and its error returned.
func (c *Collector) Run(ctx context.Context) error {
	if c == nil || c.pipe == nil {
		return fmt.Errorf("collector is not initialized")
	}
	defer c.closeStore()

	if c.runOnce {
		return c.runPass(ctx)
	}

	if err := c.runPass(ctx); err != nil {
		logger.ErrorObj("initial run failed", "error", err)
	}

	ticker := time.NewTicker(c.runInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.InfoObj("collector loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if err := c.runPass(ctx); err != nil {
				logger.ErrorObj("scheduled run failed", "error", err)
			}
		}
	}
}

// runPass performs a single pipeline run and records its summary.
func (c *Collector) runPass(ctx context.Context) error {
	logger.InfoObj("run started", "started_at", time.Now().UTC())

	summary, runErr := c.pipe.Run(ctx)

	if err := c.runLog.Append(summary); err != nil {
		logger.ErrorObj("run summary append failed", "error", err)
	}
	logger.InfoObj("run completed", "run_summary", summary)

	return runErr
}

// closeStore safely closes the storage backend, logging any errors encountered.
func (c *Collector) closeStore() {
	if c == nil || c.store == nil {
		return
	}
	if err := c.store.Close(); err != nil {
		logger.ErrorObj("storage close failed", "error", err)
	}
}
