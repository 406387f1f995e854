package websearch

import (
	"log/slog"
)

// NewFetcherForTesting creates a Fetcher with SSRF protection disabled.
//
// SECURITY WARNING: This bypasses SSRF protection and MUST ONLY be used in
// tests, where fetch targets are httptest servers bound to loopback.
// Production code should ALWAYS use NewFetcher instead.
func NewFetcherForTesting(cfg FetcherConfig, logger *slog.Logger) *Fetcher {
	f := NewFetcher(cfg, logger)
	f.skipSSRFCheck = true
	return f
}
