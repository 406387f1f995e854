package answer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"
)

// Generator produces an answer from a rendered prompt. Implemented by
// ModelGenerator; tests substitute fakes.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// RetryConfig configures the retry behavior for model calls.
type RetryConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryConfig returns sensible defaults for LLM API calls.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
	}
}

// retryablePatterns groups error substrings by category. Matched
// case-insensitively against err.Error().
//
// NOTE: string matching is used because Genkit and LLM provider SDKs do not
// expose typed errors for transient failures. Re-evaluate if Genkit adds
// structured error types.
var retryablePatterns = [][]string{
	{"rate limit", "quota exceeded", "429"},      // rate limiting
	{"500", "502", "503", "504", "unavailable"},  // transient server errors
	{"connection reset", "timeout", "temporary"}, // network errors
}

// retryableError reports whether err is transient and should trigger a retry.
func retryableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	for _, group := range retryablePatterns {
		for _, pattern := range group {
			if strings.Contains(errStr, pattern) {
				return true
			}
		}
	}
	return false
}

// ModelGenerator generates answers through Genkit with retry, exponential
// backoff, and client-side rate limiting.
type ModelGenerator struct {
	g           *genkit.Genkit
	modelName   string
	retryConfig RetryConfig
	rateLimiter *rate.Limiter
	logger      *slog.Logger
}

// ModelGeneratorConfig configures a ModelGenerator. Zero values get
// defaults.
type ModelGeneratorConfig struct {
	// ModelName overrides the Genkit default model, e.g.
	// "googleai/gemini-2.5-flash".
	ModelName string
	// RateLimiter throttles outbound model calls. Defaults to 10 req/s
	// with a burst of 30.
	RateLimiter *rate.Limiter
	Retry       RetryConfig
}

// NewModelGenerator creates a generator backed by a Genkit instance.
func NewModelGenerator(g *genkit.Genkit, cfg ModelGeneratorConfig, logger *slog.Logger) (*ModelGenerator, error) {
	if g == nil {
		return nil, fmt.Errorf("genkit instance is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RateLimiter == nil {
		cfg.RateLimiter = rate.NewLimiter(10, 30)
	}
	if cfg.Retry == (RetryConfig{}) {
		cfg.Retry = DefaultRetryConfig()
	}
	return &ModelGenerator{
		g:           g,
		modelName:   cfg.ModelName,
		retryConfig: cfg.Retry,
		rateLimiter: cfg.RateLimiter,
		logger:      logger,
	}, nil
}

// Generate runs the prompt with exponential backoff retry. Each attempt is
// rate limited individually.
func (m *ModelGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	delay := m.retryConfig.InitialInterval
	start := time.Now()

	for attempt := 0; attempt <= m.retryConfig.MaxRetries; attempt++ {
		if err := m.rateLimiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit wait: %w", err)
		}

		opts := []ai.GenerateOption{ai.WithPrompt("%s", prompt)}
		if m.modelName != "" {
			opts = append(opts, ai.WithModelName(m.modelName))
		}

		resp, err := genkit.Generate(ctx, m.g, opts...)
		if err == nil {
			m.logger.Debug("generation succeeded",
				"attempts", attempt+1,
				"elapsed", time.Since(start))
			return strings.TrimSpace(resp.Text()), nil
		}
		lastErr = err

		if !retryableError(err) {
			return "", fmt.Errorf("generate: %w", err)
		}
		if attempt == m.retryConfig.MaxRetries {
			break
		}

		m.logger.Debug("retrying after error",
			"attempt", attempt+1,
			"delay", delay,
			"error", err)

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("context canceled during retry: %w", ctx.Err())
		case <-time.After(delay):
			delay = min(delay*2, m.retryConfig.MaxInterval)
		}
	}

	return "", fmt.Errorf("generate after %d retries (elapsed: %v): %w",
		m.retryConfig.MaxRetries, time.Since(start), lastErr)
}
