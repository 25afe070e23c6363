package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAddr(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "", want: "127.0.0.1:8731"},
		{raw: "not-an-address", want: "127.0.0.1:8731"},
		{raw: "localhost:", want: "127.0.0.1:8731"},
		{raw: "0.0.0.0:9000", want: "127.0.0.1:9000"},
		{raw: ":9000", want: "127.0.0.1:9000"},
		{raw: "[::]:9000", want: "127.0.0.1:9000"},
		{raw: "localhost:9000", want: "localhost:9000"},
		{raw: "192.168.1.5:8731", want: "192.168.1.5:8731"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeAddr(tt.raw))
		})
	}
}

func TestHealthURL(t *testing.T) {
	assert.Equal(t, "http://127.0.0.1:9000/api/v1/health", healthURL("0.0.0.0:9000"))
}

func TestCheckHealth(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "healthy", status: http.StatusOK, body: `{"status":"ok","time":"2026-01-01T00:00:00Z"}`},
		{name: "server error", status: http.StatusInternalServerError, body: `{"error":"boom"}`, wantErr: "unexpected status 500"},
		{name: "degraded status", status: http.StatusOK, body: `{"status":"starting"}`, wantErr: `status "starting"`},
		{name: "not json", status: http.StatusOK, body: `<html>`, wantErr: "decode health response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/v1/health", r.URL.Path)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			err := checkHealth(context.Background(), srv.URL+"/api/v1/health")
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCheckHealth_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL + "/api/v1/health"
	srv.Close()

	assert.Error(t, checkHealth(context.Background(), url))
}
