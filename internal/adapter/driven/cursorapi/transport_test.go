package cursorapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProxyFromEnvironment(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "https://api2.cursor.sh/auth/full_stripe_profile", nil)

	t.Run("none", func(t *testing.T) {
		t.Setenv("HTTP_PROXY", "")
		t.Setenv("HTTPS_PROXY", "")

		u, err := proxyFromEnvironment(req)
		require.NoError(t, err)
		assert.Nil(t, u)
	})

	t.Run("http proxy wins and applies to https", func(t *testing.T) {
		t.Setenv("HTTP_PROXY", "http://proxy.local:3128")
		t.Setenv("HTTPS_PROXY", "http://other.local:8080")

		u, err := proxyFromEnvironment(req)
		require.NoError(t, err)
		require.NotNil(t, u)
		assert.Equal(t, "proxy.local:3128", u.Host)
	})

	t.Run("https proxy fallback", func(t *testing.T) {
		t.Setenv("HTTP_PROXY", "")
		t.Setenv("HTTPS_PROXY", "http://other.local:8080")

		u, err := proxyFromEnvironment(req)
		require.NoError(t, err)
		require.NotNil(t, u)
		assert.Equal(t, "other.local:8080", u.Host)
	})

	t.Run("invalid", func(t *testing.T) {
		t.Setenv("HTTP_PROXY", "://bad")
		t.Setenv("HTTPS_PROXY", "")

		_, err := proxyFromEnvironment(req)
		assert.Error(t, err)
	})
}

type countingTransport struct{ calls int }

func (c *countingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	c.calls++
	return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
}

func TestRateLimitedTransport_CancelledWaitSkipsRequest(t *testing.T) {
	base := &countingTransport{}
	rt := newRateLimitedTransport(base, 0.001)

	req := httptest.NewRequest(http.MethodGet, "http://example.invalid", nil)
	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	_ = resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = rt.RoundTrip(req.WithContext(ctx))

	assert.Error(t, err)
	assert.Equal(t, 1, base.calls)
}
