package driven

import "context"

// TokenSource is one strategy of the token fallback chain. It returns "" when
// it has no candidate, and an error only for diagnostics; the locator treats
// both the same way.
type TokenSource interface {
	Name() string
	Token(ctx context.Context) (string, error)
}

// TokenSourceFunc adapts a function to the TokenSource interface.
type TokenSourceFunc struct {
	SourceName string
	Fn         func(ctx context.Context) (string, error)
}

// Name returns the source name used in logs.
func (f TokenSourceFunc) Name() string { return f.SourceName }

// Token calls the wrapped function.
func (f TokenSourceFunc) Token(ctx context.Context) (string, error) { return f.Fn(ctx) }
