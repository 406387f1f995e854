package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/finch0/finch/internal/app"
	"github.com/finch0/finch/internal/config"
)

var indexURLs []string

var indexCmd = &cobra.Command{
	Use:   "index [PATH...]",
	Short: "Add documents to the local index",
	Long: `Index walks the given files or directories, chunks supported text
formats, and stores them in the document index. Re-indexing a file
replaces its previous chunks.

Pages fetched with --url are reduced to readable text before indexing.`,
	Args: cobra.ArbitraryArgs,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringSliceVar(&indexURLs, "url", nil, "fetch and index a web page (repeatable)")
	rootCmd.AddCommand(indexCmd)
}

// acquireIndexLock takes an exclusive lock so concurrent finch index runs
// don't interleave deletes and inserts for the same source.
func acquireIndexLock() (*flock.Flock, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}
	lockDir := filepath.Join(home, ".finch")
	if err := os.MkdirAll(lockDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}

	lock := flock.New(filepath.Join(lockDir, "index.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring index lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("another finch index is running (lock held at %s)", lock.Path())
	}
	return lock, nil
}

func runIndex(_ *cobra.Command, args []string) error {
	if len(args) == 0 && len(indexURLs) == 0 {
		return fmt.Errorf("nothing to index: pass at least one path or --url")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	lock, err := acquireIndexLock()
	if err != nil {
		return err
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			slog.Warn("releasing index lock", "error", unlockErr)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Setup(ctx, cfg, slog.Default())
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			slog.Warn("shutdown error", "error", closeErr)
		}
	}()

	for _, path := range args {
		result, err := a.Ingester.IngestPath(ctx, path)
		if err != nil {
			return fmt.Errorf("indexing %s: %w", path, err)
		}
		fmt.Printf("%s: %d files indexed, %d skipped, %d failed, %d chunks (%s)\n",
			path, result.FilesAdded, result.FilesSkipped, result.FilesFailed,
			result.ChunksAdded, result.Duration.Round(10*time.Millisecond))
	}

	if len(indexURLs) > 0 {
		if err := indexPages(ctx, a, indexURLs); err != nil {
			return err
		}
	}

	return nil
}

// indexPages fetches web pages and indexes their readable text, keyed by
// URL so a later fetch of the same page replaces the old chunks.
func indexPages(ctx context.Context, a *app.App, urls []string) error {
	pages, failed, err := a.Fetcher.Fetch(ctx, urls)
	if err != nil {
		return fmt.Errorf("fetching pages: %w", err)
	}

	for _, f := range failed {
		fmt.Fprintf(os.Stderr, "fetch failed: %s: %s\n", f.URL, f.Reason)
	}

	for _, p := range pages {
		chunks, err := a.Ingester.IngestText(ctx, p.URL, p.Content)
		if err != nil {
			return fmt.Errorf("indexing %s: %w", p.URL, err)
		}
		fmt.Printf("%s: %d chunks indexed\n", p.URL, chunks)
	}

	return nil
}
