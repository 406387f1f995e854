package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/finch0/finch/internal/answer"
)

// fakeEngine returns a canned result or error.
type fakeEngine struct {
	result *answer.Result
	err    error
}

func (f *fakeEngine) Answer(_ context.Context, query string) (*answer.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &answer.Result{Response: "answer to: " + query}, nil
}

// fakeIngester records the last ingested document.
type fakeIngester struct {
	source string
	text   string
	err    error
}

func (f *fakeIngester) IngestText(_ context.Context, source, text string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.source = source
	f.text = text
	return 3, nil
}

// fakePinger fails when down is set.
type fakePinger struct {
	down bool
}

func (f *fakePinger) Ping(context.Context) error {
	if f.down {
		return errors.New("connection refused")
	}
	return nil
}

func testServer(t *testing.T, cfg ServerConfig) *Server {
	t.Helper()
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Engine == nil {
		cfg.Engine = &fakeEngine{}
	}
	srv, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv
}

func TestNewServer(t *testing.T) {
	srv := testServer(t, ServerConfig{
		CORSOrigins: []string{"http://localhost:4200"},
		IsDev:       true,
	})

	if srv.Handler() == nil {
		t.Fatal("NewServer().Handler() returned nil")
	}
}

func TestNewServer_MissingEngine(t *testing.T) {
	_, err := NewServer(ServerConfig{Logger: slog.New(slog.DiscardHandler)})
	if err == nil {
		t.Fatal("NewServer(nil engine) expected error, got nil")
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := testServer(t, ServerConfig{IsDev: true})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	srv.Handler().ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Errorf("GET /health = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}

func TestReadyEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		index      Pinger
		wantStatus int
		wantIndex  string
	}{
		{"index up", &fakePinger{}, http.StatusOK, "connected"},
		{"index down", &fakePinger{down: true}, http.StatusServiceUnavailable, "unreachable"},
		{"index missing", nil, http.StatusServiceUnavailable, "not configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := testServer(t, ServerConfig{
				Index: tt.index,
				Services: ServiceStatus{
					Model:       "configured",
					GoogleDrive: "mock",
					WebSearch:   "searxng",
				},
			})

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/ready", nil)
			srv.Handler().ServeHTTP(w, r)

			if w.Code != tt.wantStatus {
				t.Errorf("GET /ready = %d, want %d", w.Code, tt.wantStatus)
			}

			var body struct {
				Status   string            `json:"status"`
				Services map[string]string `json:"services"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decoding body: %v", err)
			}
			if body.Services["document_index"] != tt.wantIndex {
				t.Errorf("document_index = %q, want %q", body.Services["document_index"], tt.wantIndex)
			}
			if body.Services["google_drive"] != "mock" {
				t.Errorf("google_drive = %q, want mock", body.Services["google_drive"])
			}
		})
	}
}

func TestQueryThroughStack(t *testing.T) {
	srv := testServer(t, ServerConfig{IsDev: true})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/query", strings.NewReader(`{"query":"what is finch"}`))
	r.Header.Set("Content-Type", "application/json")
	srv.Handler().ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("POST /api/v1/query = %d, body: %s", w.Code, w.Body.String())
	}

	var result answer.Result
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if result.Response != "answer to: what is finch" {
		t.Errorf("response = %q", result.Response)
	}

	if w.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing security headers")
	}
}

func TestDocumentUploadDisabledWithoutIngester(t *testing.T) {
	srv := testServer(t, ServerConfig{IsDev: true})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/documents", strings.NewReader(`{"name":"a.txt","content":"hi"}`))
	srv.Handler().ServeHTTP(w, r)

	if w.Code != http.StatusNotFound {
		t.Errorf("POST /api/v1/documents without ingester = %d, want 404", w.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := testServer(t, ServerConfig{
		CORSOrigins: []string{"http://localhost:4200"},
		IsDev:       true,
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodOptions, "/api/v1/query", nil)
	r.Header.Set("Origin", "http://localhost:4200")
	r.Header.Set("Access-Control-Request-Method", http.MethodPost)
	srv.Handler().ServeHTTP(w, r)

	if w.Code != http.StatusNoContent {
		t.Errorf("preflight = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:4200" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

func TestCORSUnknownOrigin(t *testing.T) {
	srv := testServer(t, ServerConfig{
		CORSOrigins: []string{"http://localhost:4200"},
		IsDev:       true,
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/query", strings.NewReader(`{"query":"q"}`))
	r.Header.Set("Origin", "http://evil.example.com")
	srv.Handler().ServeHTTP(w, r)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Allow-Origin leaked to unknown origin: %q", got)
	}
}

func TestRateLimitExceeded(t *testing.T) {
	srv := testServer(t, ServerConfig{IsDev: true, RateBurst: 2})

	var lastCode int
	for range 5 {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/api/v1/query", strings.NewReader(`{"query":"q"}`))
		r.RemoteAddr = "203.0.113.9:1234"
		srv.Handler().ServeHTTP(w, r)
		lastCode = w.Code
	}

	if lastCode != http.StatusTooManyRequests {
		t.Errorf("after burst exhaustion got %d, want 429", lastCode)
	}
}

func TestHealthBypassesRateLimit(t *testing.T) {
	srv := testServer(t, ServerConfig{IsDev: true, RateBurst: 1})

	for range 10 {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/health", nil)
		r.RemoteAddr = "203.0.113.9:1234"
		srv.Handler().ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Fatalf("health probe throttled: %d", w.Code)
		}
	}
}
