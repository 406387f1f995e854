package config

import (
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

// setTestEnv prepares a clean environment for Load: a temp HOME with no
// config.yaml, a dummy API key, and no DATABASE_URL. Restores on cleanup.
func setTestEnv(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GEMINI_API_KEY", "test-api-key")
	t.Setenv("DATABASE_URL", "")
	if err := os.Unsetenv("DATABASE_URL"); err != nil {
		t.Fatalf("Failed to unset DATABASE_URL: %v", err)
	}
}

// TestLoadDefaults tests that default configuration values are loaded correctly
func TestLoadDefaults(t *testing.T) {
	setTestEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.ModelName != "gemini-2.5-flash" {
		t.Errorf("expected default ModelName 'gemini-2.5-flash', got %q", cfg.ModelName)
	}

	if cfg.EmbedderModel != DefaultGeminiEmbedderModel {
		t.Errorf("expected default EmbedderModel %q, got %q", DefaultGeminiEmbedderModel, cfg.EmbedderModel)
	}

	if cfg.PostgresHost != "localhost" || cfg.PostgresPort != 5432 {
		t.Errorf("expected default postgres localhost:5432, got %s:%d", cfg.PostgresHost, cfg.PostgresPort)
	}

	if cfg.Retrieval.SearchK != 5 {
		t.Errorf("expected default SearchK 5, got %d", cfg.Retrieval.SearchK)
	}
	if cfg.Retrieval.DocumentKeep != 0.2 {
		t.Errorf("expected default DocumentKeep 0.2, got %f", cfg.Retrieval.DocumentKeep)
	}
	if cfg.Retrieval.ExternalTrigger != 0.3 {
		t.Errorf("expected default ExternalTrigger 0.3, got %f", cfg.Retrieval.ExternalTrigger)
	}
	if cfg.Retrieval.ExternalKeep != 0.1 {
		t.Errorf("expected default ExternalKeep 0.1, got %f", cfg.Retrieval.ExternalKeep)
	}

	if cfg.SearXNG.BaseURL != "http://localhost:8888" {
		t.Errorf("expected default SearXNG base URL, got %q", cfg.SearXNG.BaseURL)
	}

	if cfg.WebScraper.Parallelism != 2 || cfg.WebScraper.DelayMs != 1000 || cfg.WebScraper.TimeoutMs != 30000 {
		t.Errorf("unexpected web scraper defaults: %+v", cfg.WebScraper)
	}

	if cfg.Drive.CredentialsFile != "" {
		t.Errorf("expected empty default Drive credentials file, got %q", cfg.Drive.CredentialsFile)
	}

	if cfg.Tracing.Enabled {
		t.Error("expected tracing disabled by default")
	}
	if cfg.Tracing.ServiceName != "finch" {
		t.Errorf("expected default tracing service name 'finch', got %q", cfg.Tracing.ServiceName)
	}

	if cfg.ServerAddr != "localhost:8080" {
		t.Errorf("expected default ServerAddr 'localhost:8080', got %q", cfg.ServerAddr)
	}

	if cfg.TrustProxy {
		t.Error("expected TrustProxy false by default")
	}
}

// TestLoadMissingAPIKey tests that Load fails without GEMINI_API_KEY
func TestLoadMissingAPIKey(t *testing.T) {
	setTestEnv(t)
	if err := os.Unsetenv("GEMINI_API_KEY"); err != nil {
		t.Fatalf("Failed to unset GEMINI_API_KEY: %v", err)
	}

	_, err := Load()
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
}

// TestLoadEnvOverride tests environment variable overrides
func TestLoadEnvOverride(t *testing.T) {
	setTestEnv(t)
	t.Setenv("FINCH_MODEL_NAME", "gemini-2.5-pro")
	t.Setenv("FINCH_SEARXNG_URL", "http://searxng:8080")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.ModelName != "gemini-2.5-pro" {
		t.Errorf("expected env override ModelName 'gemini-2.5-pro', got %q", cfg.ModelName)
	}
	if cfg.SearXNG.BaseURL != "http://searxng:8080" {
		t.Errorf("expected env override SearXNG URL, got %q", cfg.SearXNG.BaseURL)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			ModelName:        "gemini-2.5-flash",
			EmbedderModel:    DefaultGeminiEmbedderModel,
			PostgresHost:     "localhost",
			PostgresPort:     5432,
			PostgresUser:     "finch",
			PostgresPassword: "a-long-password",
			PostgresDBName:   "finch",
			PostgresSSLMode:  "disable",
			Retrieval: RetrievalConfig{
				SearchK:         5,
				DocumentKeep:    0.2,
				ExternalTrigger: 0.3,
				ExternalKeep:    0.1,
			},
			WebScraper: WebScraperConfig{Parallelism: 2, DelayMs: 1000, TimeoutMs: 30000},
			ServerAddr: "localhost:8080",
		}
	}

	t.Setenv("GEMINI_API_KEY", "test-api-key")

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"valid", func(*Config) {}, nil},
		{"empty model name", func(c *Config) { c.ModelName = "" }, ErrInvalidModelName},
		{"empty embedder model", func(c *Config) { c.EmbedderModel = "" }, ErrInvalidEmbedderModel},
		{"search k zero", func(c *Config) { c.Retrieval.SearchK = 0 }, ErrInvalidSearchK},
		{"search k too large", func(c *Config) { c.Retrieval.SearchK = 11 }, ErrInvalidSearchK},
		{"threshold negative", func(c *Config) { c.Retrieval.DocumentKeep = -0.1 }, ErrInvalidThreshold},
		{"threshold above one", func(c *Config) { c.Retrieval.ExternalTrigger = 1.5 }, ErrInvalidThreshold},
		{"empty postgres host", func(c *Config) { c.PostgresHost = "" }, ErrInvalidPostgresHost},
		{"postgres port out of range", func(c *Config) { c.PostgresPort = 70000 }, ErrInvalidPostgresPort},
		{"empty postgres db name", func(c *Config) { c.PostgresDBName = "" }, ErrInvalidPostgresDBName},
		{"empty postgres password", func(c *Config) { c.PostgresPassword = "" }, ErrInvalidPostgresPassword},
		{"short postgres password", func(c *Config) { c.PostgresPassword = "short" }, ErrInvalidPostgresPassword},
		{"deprecated ssl mode", func(c *Config) { c.PostgresSSLMode = "prefer" }, ErrInvalidPostgresSSLMode},
		{"scraper parallelism zero", func(c *Config) { c.WebScraper.Parallelism = 0 }, ErrInvalidWebScraper},
		{"scraper negative delay", func(c *Config) { c.WebScraper.DelayMs = -1 }, ErrInvalidWebScraper},
		{"scraper timeout zero", func(c *Config) { c.WebScraper.TimeoutMs = 0 }, ErrInvalidWebScraper},
		{"bad server addr", func(c *Config) { c.ServerAddr = "no-port" }, ErrInvalidServerAddr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateNilConfig(t *testing.T) {
	var cfg *Config
	if err := cfg.Validate(); !errors.Is(err, ErrConfigNil) {
		t.Errorf("expected ErrConfigNil, got %v", err)
	}
}

// TestMarshalJSONMasksPassword verifies sensitive fields never appear in JSON output
func TestMarshalJSONMasksPassword(t *testing.T) {
	cfg := Config{PostgresPassword: "super-secret-password"}

	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	if strings.Contains(string(data), "super-secret-password") {
		t.Error("marshaled config leaks postgres password")
	}
	if !strings.Contains(string(data), maskedValue) {
		t.Error("marshaled config should contain mask placeholder")
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"short fully masked", "secret", maskedValue},
		{"exactly eight fully masked", "12345678", maskedValue},
		{"long shows edges", "my_long_secret_key_123", "my<" + maskedValue + ">23"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := maskSecret(tt.input); got != tt.want {
				t.Errorf("maskSecret(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFullModelName(t *testing.T) {
	tests := []struct {
		name  string
		model string
		want  string
	}{
		{"bare name gets prefix", "gemini-2.5-flash", "googleai/gemini-2.5-flash"},
		{"qualified name unchanged", "googleai/gemini-2.5-pro", "googleai/gemini-2.5-pro"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{ModelName: tt.model}
			if got := cfg.FullModelName(); got != tt.want {
				t.Errorf("FullModelName() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestStringNoSecrets verifies Stringer output masks the password
func TestStringNoSecrets(t *testing.T) {
	cfg := Config{PostgresPassword: "super-secret-password"}
	if strings.Contains(cfg.String(), "super-secret-password") {
		t.Error("String() leaks postgres password")
	}
}
