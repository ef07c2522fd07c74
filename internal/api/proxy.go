package api

import (
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hivehq/hive-bff/internal/auth"
	"github.com/hivehq/hive-bff/internal/metrics"
)

// requestHeaderAllowlist names the inbound headers forwarded upstream.
// Everything else (cookies in particular) is dropped.
var requestHeaderAllowlist = []string{
	"Authorization",
	"Content-Type",
	"Accept",
	"X-Request-Id",
}

// responseHeaderAllowlist names the upstream headers passed back to the
// client.
var responseHeaderAllowlist = []string{
	"Content-Type",
	"Content-Length",
	"Cache-Control",
}

// Proxy is a thin fetch-and-forward proxy from the BFF's /api surface to
// the upstream Hive API, with header allowlisting in both directions.
type Proxy struct {
	baseURL string
	client  *http.Client
	creds   auth.CredentialProvider
	logger  *slog.Logger
}

// NewProxy creates a Proxy for the given upstream base URL. The base URL
// already includes the upstream's /api prefix.
func NewProxy(baseURL string, timeout time.Duration, creds auth.CredentialProvider, logger *slog.Logger) *Proxy {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Proxy{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		creds:   creds,
		logger:  logger,
	}
}

// Forward relays the request upstream and the upstream's response back,
// preserving method, path (minus the local /api prefix), query, body, and
// status. Upstream unreachability maps to 502.
func (p *Proxy) Forward(w http.ResponseWriter, r *http.Request) {
	metrics.Inc(metrics.ProxyForwardTotal)

	path := strings.TrimPrefix(r.URL.Path, "/api")
	target := p.baseURL + path
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, target, r.Body)
	if err != nil {
		p.logger.Error("building proxy request", "path", path, "error", err)
		http.Error(w, "bad gateway", http.StatusBadGateway)
		return
	}

	for _, h := range requestHeaderAllowlist {
		if v := r.Header.Get(h); v != "" {
			req.Header.Set(h, v)
		}
	}

	// The client's own Authorization header wins; otherwise attach the
	// service credential.
	if req.Header.Get("Authorization") == "" {
		if token, tokenErr := p.creds.GetToken(); tokenErr == nil && token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Warn("upstream unreachable", "path", path, "error", err)
		http.Error(w, "bad gateway", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	for _, h := range responseHeaderAllowlist {
		if v := resp.Header.Get(h); v != "" {
			w.Header().Set(h, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		p.logger.Debug("copying proxy response", "path", path, "error", err)
	}

	p.logger.Debug("forwarded request", "method", r.Method, "path", path, "status", resp.StatusCode)
}
