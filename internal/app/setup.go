package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/jackc/pgx/v5/pgxpool"
	"google.golang.org/api/option"

	"github.com/finch0/finch/db"
	"github.com/finch0/finch/internal/answer"
	"github.com/finch0/finch/internal/config"
	"github.com/finch0/finch/internal/drive"
	"github.com/finch0/finch/internal/index"
	"github.com/finch0/finch/internal/observability"
	"github.com/finch0/finch/internal/websearch"
)

// Setup creates and initializes the application.
// Returns an App with embedded cleanup; call Close() to release.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, retErr error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	a := &App{Config: cfg}

	// On error, clean up everything already initialized
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	// Tracing must come first so Genkit's TracerProvider has its span
	// processor before any span is created.
	a.otelCleanup = provideOtelShutdown(ctx, cfg, logger)

	pool, dbCleanup, err := provideDBPool(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.dbCleanup = dbCleanup
	a.DBPool = pool

	g, err := provideGenkit(ctx, logger)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	embedder := provideEmbedder(g, cfg)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found", cfg.EmbedderModel)
	}
	a.Embedder = embedder

	store, err := index.NewStore(pool, embedder, logger)
	if err != nil {
		return nil, fmt.Errorf("creating document index: %w", err)
	}
	a.Index = store
	a.Ingester = index.NewIngester(store, nil)

	files, driveStatus, err := provideDrive(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Drive = files
	a.DriveStatus = driveStatus

	web, fetcher, err := provideWebSearch(cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Web = web
	a.Fetcher = fetcher

	engine, err := provideEngine(g, cfg, store, files, web, logger)
	if err != nil {
		return nil, err
	}
	a.Engine = engine

	return a, nil
}

// provideOtelShutdown sets up OTLP tracing when enabled. Returns a no-op
// cleanup otherwise.
func provideOtelShutdown(ctx context.Context, cfg *config.Config, logger *slog.Logger) func() {
	if !cfg.Tracing.Enabled {
		return func() {}
	}

	shutdown, err := observability.SetupTracing(ctx, observability.Config{
		Endpoint:    cfg.Tracing.Endpoint,
		Environment: cfg.Tracing.Environment,
		ServiceName: cfg.Tracing.ServiceName,
	})
	if err != nil {
		logger.Warn("setting up tracing", "error", err)
		return func() {}
	}

	//nolint:contextcheck // Independent context: shutdown runs during teardown when parent is canceled
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Warn("shutting down tracer provider", "error", err)
		}
	}
}

// provideDBPool runs migrations and creates a PostgreSQL connection pool.
// Pool is configured with sensible defaults for connection management.
func provideDBPool(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, func(), error) {
	if err := db.Migrate(cfg.PostgresURL(), logger); err != nil {
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("pinging database: %w", err)
	}

	cleanup := func() {
		pool.Close()
	}

	return pool, cleanup, nil
}

// provideGenkit initializes Genkit with the GoogleAI plugin.
// Call ordering in Setup ensures tracing is set up first.
func provideGenkit(ctx context.Context, logger *slog.Logger) (*genkit.Genkit, error) {
	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	if g == nil {
		return nil, errors.New("initializing genkit with googleai plugin")
	}
	logger.Info("initialized Genkit with googleai plugin")
	return g, nil
}

// provideEmbedder looks up the embedder registered by the GoogleAI plugin.
func provideEmbedder(g *genkit.Genkit, cfg *config.Config) ai.Embedder {
	return googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
}

// provideDrive creates the Google Drive client, or the mock when no
// credentials are configured. The second return is the status string
// reported by /ready.
func provideDrive(ctx context.Context, cfg *config.Config, logger *slog.Logger) (answer.FileSearcher, string, error) {
	if cfg.Drive.CredentialsFile == "" {
		logger.Info("no Google Drive credentials configured, using mock client")
		return drive.Mock{}, "mock", nil
	}

	client, err := drive.NewClient(ctx, logger, option.WithCredentialsFile(cfg.Drive.CredentialsFile))
	if err != nil {
		return nil, "", fmt.Errorf("creating drive client: %w", err)
	}
	return client, "configured", nil
}

// provideWebSearch creates the web searcher (SearXNG primary, DuckDuckGo
// HTML fallback) and the page fetcher used by URL ingest.
func provideWebSearch(cfg *config.Config, logger *slog.Logger) (*websearch.Searcher, *websearch.Fetcher, error) {
	timeout := time.Duration(cfg.WebScraper.TimeoutMs) * time.Millisecond
	httpClient := &http.Client{Timeout: timeout}

	searxng, err := websearch.NewSearXNG(cfg.SearXNG.BaseURL, httpClient)
	if err != nil {
		return nil, nil, fmt.Errorf("creating searxng client: %w", err)
	}
	fallback := websearch.NewDuckDuckGo("", httpClient)

	searcher, err := websearch.NewSearcher(searxng, fallback, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("creating web searcher: %w", err)
	}

	fetcher := websearch.NewFetcher(websearch.FetcherConfig{
		Parallelism: cfg.WebScraper.Parallelism,
		Delay:       time.Duration(cfg.WebScraper.DelayMs) * time.Millisecond,
		Timeout:     timeout,
	}, logger)

	return searcher, fetcher, nil
}

// provideEngine assembles the answer pipeline from its evidence sources
// and the generative model.
func provideEngine(g *genkit.Genkit, cfg *config.Config, docs answer.DocumentSearcher, files answer.FileSearcher, web answer.WebSearcher, logger *slog.Logger) (*answer.Engine, error) {
	generator, err := answer.NewModelGenerator(g, answer.ModelGeneratorConfig{
		ModelName: cfg.FullModelName(),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("creating generator: %w", err)
	}

	aggregator := answer.NewAggregator(docs, files, web, answer.Thresholds{
		DocumentKeep:    cfg.Retrieval.DocumentKeep,
		ExternalTrigger: cfg.Retrieval.ExternalTrigger,
		ExternalKeep:    cfg.Retrieval.ExternalKeep,
		SearchK:         cfg.Retrieval.SearchK,
	}, logger)

	engine, err := answer.NewEngine(nil, aggregator, generator, logger)
	if err != nil {
		return nil, fmt.Errorf("creating answer engine: %w", err)
	}
	return engine, nil
}
