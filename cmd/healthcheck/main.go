package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"
)

const (
	defaultAddr    = "127.0.0.1:8731"
	requestTimeout = 2 * time.Second
)

func main() {
	addr := flag.String("addr", os.Getenv("CURSORSWITCH_LISTEN_ADDR"), "address of the cursorswitch API")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if err := checkHealth(ctx, healthURL(*addr)); err != nil {
		fmt.Fprintln(os.Stderr, "healthcheck:", err)
		os.Exit(1)
	}
}

// healthURL builds the health endpoint for a listen address.
func healthURL(listenAddr string) string {
	return "http://" + normalizeAddr(listenAddr) + "/api/v1/health"
}

// checkHealth succeeds only on a 200 whose body reports status "ok".
func checkHealth(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := (&http.Client{Timeout: requestTimeout}).Do(req)
	if err != nil {
		return fmt.Errorf("request health: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body); err != nil {
		return fmt.Errorf("decode health response: %w", err)
	}
	if body.Status != "ok" {
		return fmt.Errorf("service reports status %q", body.Status)
	}
	return nil
}

// normalizeAddr maps an API listen address to one the check can dial.
// Unspecified hosts become loopback; empty or malformed values fall back to
// the default address.
func normalizeAddr(raw string) string {
	host, port, err := net.SplitHostPort(raw)
	if err != nil || port == "" {
		return defaultAddr
	}
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}
