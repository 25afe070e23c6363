package application

import (
	"context"
	"log/slog"

	"github.com/ericfisherdev/cursorswitch/internal/domain/model"
	"github.com/ericfisherdev/cursorswitch/internal/domain/port/driven"
)

// TokenLocator runs an ordered list of token sources and returns the first
// non-empty result. Source failures are logged and treated as "no candidate".
type TokenLocator struct {
	sources []driven.TokenSource
}

// NewTokenLocator creates a locator trying sources in the given order.
func NewTokenLocator(sources ...driven.TokenSource) *TokenLocator {
	return &TokenLocator{sources: sources}
}

// Locate returns the first non-empty token, or "" once every source is exhausted.
func (l *TokenLocator) Locate(ctx context.Context) string {
	for _, src := range l.sources {
		tok, err := src.Token(ctx)
		if err != nil {
			slog.Warn("token source failed", "source", src.Name(), "error", err)
			continue
		}
		if tok != "" {
			slog.Debug("token located", "source", src.Name(), "token", model.MaskToken(tok))
			return tok
		}
	}

	slog.Debug("no token found in any source", "sources", len(l.sources))
	return ""
}
