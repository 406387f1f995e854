package config

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"slices"
)

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	// 1. API key validation (required for generation and embedding)
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY environment variable is required\n"+
			"Get your API key at: https://ai.google.dev/gemini-api/docs/api-key",
			ErrMissingAPIKey)
	}

	// 2. Model configuration validation
	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name cannot be empty", ErrInvalidModelName)
	}

	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder_model cannot be empty", ErrInvalidEmbedderModel)
	}

	// 3. Evidence selection validation
	if c.Retrieval.SearchK <= 0 || c.Retrieval.SearchK > 10 {
		return fmt.Errorf("%w: retrieval.search_k must be between 1 and 10, got %d",
			ErrInvalidSearchK, c.Retrieval.SearchK)
	}

	thresholds := map[string]float64{
		"retrieval.document_keep":    c.Retrieval.DocumentKeep,
		"retrieval.external_trigger": c.Retrieval.ExternalTrigger,
		"retrieval.external_keep":    c.Retrieval.ExternalKeep,
	}
	for name, v := range thresholds {
		if v < 0.0 || v > 1.0 {
			return fmt.Errorf("%w: %s must be between 0.0 and 1.0, got %.2f",
				ErrInvalidThreshold, name, v)
		}
	}

	// 4. PostgreSQL configuration validation
	if c.PostgresHost == "" {
		return fmt.Errorf("%w: host cannot be empty", ErrInvalidPostgresHost)
	}

	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: must be between 1 and 65535, got %d", ErrInvalidPostgresPort, c.PostgresPort)
	}

	if c.PostgresDBName == "" {
		return fmt.Errorf("%w: database name cannot be empty", ErrInvalidPostgresDBName)
	}

	if c.PostgresPassword == "" {
		return fmt.Errorf("%w: postgres_password must be set in config.yaml",
			ErrInvalidPostgresPassword)
	}

	// Warn on the default dev password but don't block (user might be in dev)
	if c.PostgresPassword == "finch_dev_password" {
		slog.Warn("Using default development password for PostgreSQL",
			"warning", "Change postgres_password in config.yaml for production deployments")
	}

	if len(c.PostgresPassword) < 8 {
		return fmt.Errorf("%w: postgres_password must be at least 8 characters (got %d)",
			ErrInvalidPostgresPassword, len(c.PostgresPassword))
	}

	// Modern SSL modes only; 'allow' and 'prefer' are deprecated
	// (vulnerable to MITM attacks)
	// Reference: https://www.postgresql.org/docs/current/libpq-ssl.html
	validSSLModes := []string{"disable", "require", "verify-ca", "verify-full"}
	if !slices.Contains(validSSLModes, c.PostgresSSLMode) {
		return fmt.Errorf("%w: %q is not valid, must be one of: %v",
			ErrInvalidPostgresSSLMode, c.PostgresSSLMode, validSSLModes)
	}

	// 5. Web scraper validation
	if c.WebScraper.Parallelism < 1 {
		return fmt.Errorf("%w: parallelism must be at least 1, got %d",
			ErrInvalidWebScraper, c.WebScraper.Parallelism)
	}
	if c.WebScraper.DelayMs < 0 {
		return fmt.Errorf("%w: delay_ms cannot be negative, got %d",
			ErrInvalidWebScraper, c.WebScraper.DelayMs)
	}
	if c.WebScraper.TimeoutMs < 1 {
		return fmt.Errorf("%w: timeout_ms must be at least 1, got %d",
			ErrInvalidWebScraper, c.WebScraper.TimeoutMs)
	}

	// 6. Server address validation
	if _, _, err := net.SplitHostPort(c.ServerAddr); err != nil {
		return fmt.Errorf("%w: %q must be host:port: %v", ErrInvalidServerAddr, c.ServerAddr, err)
	}

	return nil
}
