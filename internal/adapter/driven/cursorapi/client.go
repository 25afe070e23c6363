// Package cursorapi implements the SubscriptionClient port over the editor
// vendor's HTTP endpoints.
package cursorapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"golang.org/x/time/rate"

	"github.com/ericfisherdev/cursorswitch/internal/domain/model"
	"github.com/ericfisherdev/cursorswitch/internal/domain/port/driven"
)

// Default endpoints and limits.
const (
	DefaultProfileURL = "https://api2.cursor.sh/auth/full_stripe_profile"
	DefaultUsageURL   = "https://www.cursor.com/api/usage"
	DefaultTimeout    = 10 * time.Second

	userAgent       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	sessionCookie   = "WorkosCursorSessionToken"
	sessionUserID   = "user_01OOOOOOOOOOOOOOOOOOOOOOOO"
	maxResponseSize = 1 << 20
)

// Compile-time interface satisfaction check.
var _ driven.SubscriptionClient = (*Client)(nil)

// Config holds the client settings.
type Config struct {
	ProfileURL string
	UsageURL   string
	Timeout    time.Duration
	// RequestsPerSecond paces outbound calls across all callers. Zero or
	// negative disables pacing.
	RequestsPerSecond float64
}

// Client implements driven.SubscriptionClient. It never retries: a failed
// call yields a nil result and retrying is up to the user.
type Client struct {
	http       *http.Client
	profileURL string
	usageURL   string
}

// NewClient creates a Client with the following transport stack:
//  1. proxy from HTTP_PROXY / HTTPS_PROXY, used for both schemes
//  2. rate limiter (x/time/rate) pacing outbound requests
//  3. overall per-request timeout
func NewClient(cfg Config) *Client {
	if cfg.ProfileURL == "" {
		cfg.ProfileURL = DefaultProfileURL
	}
	if cfg.UsageURL == "" {
		cfg.UsageURL = DefaultUsageURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	base := http.DefaultTransport.(*http.Transport).Clone()
	base.Proxy = proxyFromEnvironment

	var transport http.RoundTripper = base
	if cfg.RequestsPerSecond > 0 {
		transport = newRateLimitedTransport(base, cfg.RequestsPerSecond)
	}

	return &Client{
		http:       &http.Client{Transport: transport, Timeout: cfg.Timeout},
		profileURL: cfg.ProfileURL,
		usageURL:   cfg.UsageURL,
	}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and endpoints.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, profileURL, usageURL string) *Client {
	return &Client{
		http:       httpClient,
		profileURL: profileURL,
		usageURL:   usageURL,
	}
}

// FetchProfile retrieves the subscription profile for token using bearer
// authentication. Every failure returns nil and logs a warning.
func (c *Client) FetchProfile(ctx context.Context, token string) *model.Profile {
	if token == "" {
		return nil
	}

	req, err := c.newRequest(ctx, c.profileURL)
	if err != nil {
		slog.Warn("subscription: failed to create request", "error", err)
		return nil
	}
	req.Header.Set("Authorization", "Bearer "+token)

	var profile model.Profile
	if !c.getJSON(req, "subscription", &profile) {
		return nil
	}
	return &profile
}

// usageResponse is the shape of the legacy usage endpoint.
type usageResponse struct {
	GPT4 struct {
		NumRequestsTotal *int `json:"numRequestsTotal"`
		MaxRequestUsage  *int `json:"maxRequestUsage"`
	} `json:"gpt-4"`
	GPT35 struct {
		NumRequestsTotal *int `json:"numRequestsTotal"`
	} `json:"gpt-3.5-turbo"`
}

// FetchUsage retrieves request usage from the legacy cookie-authenticated
// endpoint. Every failure returns nil and logs a warning.
func (c *Client) FetchUsage(ctx context.Context, token string) *model.Usage {
	if token == "" {
		return nil
	}

	req, err := c.newRequest(ctx, c.usageURL)
	if err != nil {
		slog.Warn("usage: failed to create request", "error", err)
		return nil
	}
	req.Header.Set("Cookie", fmt.Sprintf("%s=%s%%3A%%3A%s", sessionCookie, sessionUserID, token))

	var body usageResponse
	if !c.getJSON(req, "usage", &body) {
		return nil
	}

	usage := &model.Usage{
		MaxPremiumUsage: model.DefaultMaxPremiumUsage,
		MaxBasicUsage:   model.UsageNoLimit,
	}
	if body.GPT4.NumRequestsTotal != nil {
		usage.PremiumUsage = *body.GPT4.NumRequestsTotal
	}
	if body.GPT4.MaxRequestUsage != nil {
		usage.MaxPremiumUsage = *body.GPT4.MaxRequestUsage
	}
	if body.GPT35.NumRequestsTotal != nil {
		usage.BasicUsage = *body.GPT35.NumRequestsTotal
	}
	return usage
}

func (c *Client) newRequest(ctx context.Context, endpoint string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// getJSON performs req and decodes a 2xx JSON body into dst. It reports
// whether dst was filled; all failures are logged under the given kind.
func (c *Client) getJSON(req *http.Request, kind string, dst any) bool {
	resp, err := c.http.Do(req)
	if err != nil {
		slog.Warn(kind+": request failed", "error", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Warn(kind+": unexpected status", "status", resp.StatusCode)
		if resp.StatusCode == http.StatusUnauthorized {
			slog.Warn(kind + ": authentication token may be invalid or expired, re-authenticate in the editor")
		}
		return false
	}

	var raw json.RawMessage
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&raw); err != nil {
		slog.Warn(kind+": failed to decode response", "error", err)
		return false
	}
	// null, arrays and scalars decode cleanly into a struct but carry no data.
	if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || trimmed[0] != '{' {
		slog.Warn(kind+": response body is not a JSON object", "body_prefix", prefix(trimmed, 32))
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		slog.Warn(kind+": failed to decode response", "error", err)
		return false
	}
	return true
}

// prefix returns at most n bytes of b as a string, for log attributes.
func prefix(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}

// proxyFromEnvironment returns the proxy named by HTTP_PROXY, else
// HTTPS_PROXY, for every request regardless of scheme. No proxy when neither
// is set.
func proxyFromEnvironment(_ *http.Request) (*url.URL, error) {
	for _, name := range []string{"HTTP_PROXY", "HTTPS_PROXY"} {
		if v := os.Getenv(name); v != "" {
			u, err := url.Parse(v)
			if err != nil {
				return nil, fmt.Errorf("parse %s: %w", name, err)
			}
			return u, nil
		}
	}
	return nil, nil
}

// rateLimitedTransport waits on a shared limiter before each request.
type rateLimitedTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

func newRateLimitedTransport(base http.RoundTripper, perSecond float64) *rateLimitedTransport {
	return &rateLimitedTransport{
		base:    base,
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
	}
}

// RoundTrip implements http.RoundTripper.
func (t *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	return t.base.RoundTrip(req)
}
