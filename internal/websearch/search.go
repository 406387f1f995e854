// Package websearch implements the web evidence source: a SearXNG-backed
// search engine client with a DuckDuckGo HTML fallback, result relevance
// filtering, and an optional page-content fetcher.
package websearch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/finch0/finch/internal/relevance"
)

// MaxResults is the number of formatted results returned per search.
const MaxResults = 3

// MaxOutputLen caps the formatted search output in bytes.
const MaxOutputLen = 2000

// resultThreshold filters individual results before formatting. A result
// whose title+snippet shares less than a fifth of the query terms is noise.
const resultThreshold = 0.2

// NoResultsMessage is returned when every result fails the relevance filter.
const NoResultsMessage = "No relevant web search results found for this query."

// Result is one raw search engine hit.
type Result struct {
	Title   string
	Snippet string
	URL     string
}

// Engine performs a raw web search. Implemented by SearXNG and DuckDuckGo.
type Engine interface {
	Search(ctx context.Context, query string, limit int) ([]Result, error)
}

// Searcher runs web searches, filters hits by query relevance, and formats
// them into a single text block for the answer engine.
type Searcher struct {
	engine     Engine
	fallback   Engine
	logger     *slog.Logger
	maxResults int
}

// NewSearcher creates a web searcher. fallback may be nil; when set, it is
// tried if the primary engine fails or returns nothing.
func NewSearcher(engine Engine, fallback Engine, logger *slog.Logger) (*Searcher, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Searcher{
		engine:     engine,
		fallback:   fallback,
		logger:     logger,
		maxResults: MaxResults,
	}, nil
}

// Search returns formatted results relevant to the query, joined by blank
// lines. Each block is:
//
//	**title**
//	snippet
//	Source: url
func (s *Searcher) Search(ctx context.Context, query string) (string, error) {
	// Over-fetch so the relevance filter has room to drop weak hits.
	results, err := s.engine.Search(ctx, query, s.maxResults*2)
	if err != nil || len(results) == 0 {
		if s.fallback == nil {
			if err != nil {
				return "", fmt.Errorf("web search: %w", err)
			}
			return NoResultsMessage, nil
		}
		s.logger.Warn("primary search engine failed, trying fallback", "error", err)
		results, err = s.fallback.Search(ctx, query, s.maxResults*2)
		if err != nil {
			return "", fmt.Errorf("web search fallback: %w", err)
		}
	}

	var blocks []string
	for _, r := range results {
		combined := r.Title + " " + r.Snippet
		if relevance.Score(query, combined) <= resultThreshold {
			continue
		}

		block := fmt.Sprintf("**%s**\n%s", r.Title, r.Snippet)
		if r.URL != "" {
			block += fmt.Sprintf("\nSource: %s", r.URL)
		}
		blocks = append(blocks, block)
		if len(blocks) >= s.maxResults {
			break
		}
	}

	if len(blocks) == 0 {
		return NoResultsMessage, nil
	}

	out := strings.Join(blocks, "\n\n")
	if len(out) > MaxOutputLen {
		out = out[:MaxOutputLen] + "..."
	}
	return out, nil
}
