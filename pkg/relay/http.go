package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/webshoptools/shopedit/pkg/idx"
	"github.com/webshoptools/shopedit/pkg/slogx"
)

// HTTPConfig defines the outbound limits for the HTTP relay.
type HTTPConfig struct {
	// RequestsPerWindow is the number of requests allowed in the time window
	RequestsPerWindow int
	// Window is the time window for rate limiting
	Window time.Duration
	// Burst allows for temporary bursts above the rate limit
	Burst int
	// Timeout bounds a single upstream call
	Timeout time.Duration
}

// DefaultHTTPConfig allows 60 upstream requests per minute. The backend
// throttles aggressively on its side, so staying under it avoids surfacing
// opaque 429s to the editing flow.
var DefaultHTTPConfig = HTTPConfig{
	RequestsPerWindow: 60,
	Window:            time.Minute,
	Burst:             10,
	Timeout:           10 * time.Second,
}

// HTTPRelay is the privileged peer: it performs the actual cross-origin
// calls the in-page logic is not allowed to make itself.
type HTTPRelay struct {
	client  *http.Client
	limiter *rate.Limiter
}

// NewHTTPRelay builds a relay with the given limits. Zero-value fields fall
// back to DefaultHTTPConfig.
func NewHTTPRelay(cfg HTTPConfig) *HTTPRelay {
	if cfg.RequestsPerWindow <= 0 {
		cfg.RequestsPerWindow = DefaultHTTPConfig.RequestsPerWindow
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultHTTPConfig.Window
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultHTTPConfig.Burst
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultHTTPConfig.Timeout
	}

	limit := rate.Limit(float64(cfg.RequestsPerWindow) / cfg.Window.Seconds())
	return &HTTPRelay{
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, cfg.Burst),
	}
}

// Do dispatches on the request action. Every outcome is an envelope; the
// caller never sees a transport error directly.
func (r *HTTPRelay) Do(ctx context.Context, req Request) Response {
	if req.ID.IsZero() {
		req.ID = idx.New()
	}
	l := slogx.FromContext(ctx).With(
		slog.String("relay_id", req.ID.String()),
		slog.String("action", string(req.Action)),
		slog.String("shop_id", req.ShopID),
	)

	if err := r.limiter.Wait(ctx); err != nil {
		return Fail("relay: %v", err)
	}

	var resp Response
	switch req.Action {
	case ActionOAuth:
		resp = r.doOAuth(ctx, req)
	case ActionGraphQL:
		resp = r.doGraphQL(ctx, req)
	default:
		resp = Fail("relay: unsupported action %q", req.Action)
	}

	if resp.Success {
		l.Debug("relay request completed")
	} else {
		l.Warn("relay request failed", slog.String("error", resp.Error))
	}
	return resp
}

// doOAuth performs a client_credentials token exchange against the shop's
// token endpoint.
func (r *HTTPRelay) doOAuth(ctx context.Context, req Request) Response {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {req.ClientID},
		"client_secret": {req.ClientSecret},
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		req.APIURL+"/auth/oauth2/token",
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return Fail("relay: failed to create request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return r.roundTrip(httpReq)
}

// doGraphQL posts the operation to the shop's GraphQL endpoint with the
// caller-supplied bearer token. The whole response body (data and errors)
// is passed through; interpreting GraphQL errors is the facade's job.
func (r *HTTPRelay) doGraphQL(ctx context.Context, req Request) Response {
	body, err := json.Marshal(map[string]any{
		"query":         req.Query,
		"variables":     req.Variables,
		"operationName": req.OperationName,
	})
	if err != nil {
		return Fail("relay: failed to encode operation: %v", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		req.APIURL+"/api/graphql",
		bytes.NewReader(body),
	)
	if err != nil {
		return Fail("relay: failed to create request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+req.AccessToken)

	return r.roundTrip(httpReq)
}

func (r *HTTPRelay) roundTrip(req *http.Request) Response {
	resp, err := r.client.Do(req)
	if err != nil {
		return Fail("relay: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return Fail("relay: failed to read response: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = resp.Status
		}
		return Fail("relay: upstream returned %d: %s", resp.StatusCode, truncate(msg, 512))
	}

	if !json.Valid(body) {
		return Fail("relay: upstream returned a non-JSON body")
	}

	return OK(json.RawMessage(body))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return fmt.Sprintf("%s... (%d bytes)", s[:n], len(s))
}
