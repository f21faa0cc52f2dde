package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedirectServer(t *testing.T) {
	srv := createRedirectServer([]string{"app.example.com", "[::1]:8443"})

	tests := []struct {
		name          string
		host          string
		forwardedHost string
		target        string
		wantStatus    int
		wantLocation  string
	}{
		{
			name: "allowed host keeps the request URI", host: "app.example.com", target: "/api/accounts?limit=5",
			wantStatus: http.StatusMovedPermanently, wantLocation: "https://app.example.com/api/accounts?limit=5",
		},
		{
			name: "port is dropped", host: "app.example.com:80", target: "/health",
			wantStatus: http.StatusMovedPermanently, wantLocation: "https://app.example.com/health",
		},
		{
			name: "ipv6 literal stays bracketed", host: "[::1]:80", target: "/health",
			wantStatus: http.StatusMovedPermanently, wantLocation: "https://[::1]/health",
		},
		{
			name: "forwarded host wins", host: "10.0.0.5", forwardedHost: "app.example.com", target: "/webhooks/plaid",
			wantStatus: http.StatusMovedPermanently, wantLocation: "https://app.example.com/webhooks/plaid",
		},
		{
			name: "unknown host is refused", host: "evil.example", target: "/",
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "forwarded host is checked too", host: "app.example.com", forwardedHost: "evil.example", target: "/",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			req.Host = tt.host
			if tt.forwardedHost != "" {
				req.Header.Set("X-Forwarded-Host", tt.forwardedHost)
			}
			rr := httptest.NewRecorder()
			srv.Handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantLocation, rr.Header().Get("Location"))
		})
	}
}

func TestNewServerConfigFromConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = "8443"
	cfg.TLS.Enabled = true
	cfg.TLS.RedirectHTTP = true

	scfg := NewServerConfigFromConfig(http.NotFoundHandler(), cfg)
	assert.Equal(t, "0.0.0.0:8443", scfg.Addr)
	assert.True(t, scfg.TLSEnabled)
	assert.True(t, scfg.RedirectHTTP)
	assert.Equal(t, []string{"app.example.com"}, scfg.AllowedHosts)
}
