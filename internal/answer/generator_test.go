package answer

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryableError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "rate limit", err: errors.New("googleai: rate limit exceeded"), want: true},
		{name: "429 status", err: errors.New("HTTP 429 Too Many Requests"), want: true},
		{name: "quota", err: errors.New("Quota Exceeded for project"), want: true},
		{name: "503", err: errors.New("rpc error: 503 service unavailable"), want: true},
		{name: "connection reset", err: errors.New("read tcp: connection reset by peer"), want: true},
		{name: "timeout", err: errors.New("context deadline exceeded (Client.Timeout)"), want: true},
		{name: "invalid argument", err: errors.New("invalid argument: bad prompt"), want: false},
		{name: "auth failure", err: errors.New("API key not valid"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, retryableError(tt.err))
		})
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultRetryConfig()
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.InitialInterval)
	assert.Equal(t, 10*time.Second, cfg.MaxInterval)
}

func TestNewModelGeneratorRequiresGenkit(t *testing.T) {
	t.Parallel()

	_, err := NewModelGenerator(nil, ModelGeneratorConfig{}, nil)
	assert.Error(t, err)
}
