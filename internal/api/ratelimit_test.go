package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := newRateLimiter(1.0, 3)

	for i := range 3 {
		if !rl.allow("192.0.2.1") {
			t.Fatalf("request %d should be allowed within burst", i+1)
		}
	}
	if rl.allow("192.0.2.1") {
		t.Error("request beyond burst should be denied")
	}

	// Other IPs have their own bucket
	if !rl.allow("192.0.2.2") {
		t.Error("fresh IP should be allowed")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		realIP     string
		forwarded  string
		trustProxy bool
		want       string
	}{
		{
			name:       "remote addr only",
			remoteAddr: "198.51.100.7:4321",
			want:       "198.51.100.7",
		},
		{
			name:       "proxy headers ignored when untrusted",
			remoteAddr: "198.51.100.7:4321",
			realIP:     "203.0.113.1",
			want:       "198.51.100.7",
		},
		{
			name:       "x-real-ip preferred when trusted",
			remoteAddr: "10.0.0.1:80",
			realIP:     "203.0.113.1",
			forwarded:  "203.0.113.2",
			trustProxy: true,
			want:       "203.0.113.1",
		},
		{
			name:       "x-forwarded-for first ip",
			remoteAddr: "10.0.0.1:80",
			forwarded:  "203.0.113.2, 10.0.0.1",
			trustProxy: true,
			want:       "203.0.113.2",
		},
		{
			name:       "invalid header value falls back",
			remoteAddr: "10.0.0.1:80",
			realIP:     "not-an-ip",
			trustProxy: true,
			want:       "10.0.0.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}
			if tt.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tt.forwarded)
			}

			if got := clientIP(r, tt.trustProxy); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
