// Package app provides application initialization and dependency injection.
//
// App is the core container that wires the answer engine to its evidence
// sources: the pgvector document index, the Google Drive client (or its
// mock), and the web searcher. Setup initializes Genkit, runs database
// migrations, and builds the pipeline; Close releases everything.
package app

import (
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finch0/finch/internal/answer"
	"github.com/finch0/finch/internal/config"
	"github.com/finch0/finch/internal/index"
	"github.com/finch0/finch/internal/websearch"
)

// App is the core application container.
type App struct {
	// Configuration
	Config *config.Config

	// Core services
	Genkit   *genkit.Genkit
	Embedder ai.Embedder
	DBPool   *pgxpool.Pool
	Index    *index.Store
	Ingester *index.Ingester
	Drive    answer.FileSearcher
	Web      *websearch.Searcher
	Fetcher  *websearch.Fetcher
	Engine   *answer.Engine

	// DriveStatus is "configured" or "mock", reported by /ready.
	DriveStatus string

	// Cleanup hooks, run in Close
	otelCleanup func()
	dbCleanup   func()
}

// Close gracefully shuts down all resources.
func (a *App) Close() error {
	slog.Info("shutting down application")

	if a.dbCleanup != nil {
		a.dbCleanup()
		slog.Info("database pool closed")
	}

	// Flush pending trace spans last
	if a.otelCleanup != nil {
		a.otelCleanup()
	}

	return nil
}
