package tokensource

import (
	"context"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/ericfisherdev/cursorswitch/internal/domain/port/driven"
)

// candidateLister is the part of the key/value store the scan needs.
type candidateLister interface {
	TokenCandidates(ctx context.Context) ([]string, error)
}

// Compile-time interface satisfaction check.
var _ driven.TokenSource = (*StateDB)(nil)

// StateDB scans the state database for values stored under token-like keys.
type StateDB struct {
	store candidateLister
}

// NewStateDB creates a StateDB source over store.
func NewStateDB(store candidateLister) *StateDB {
	return &StateDB{store: store}
}

// Name returns the source name used in logs.
func (s *StateDB) Name() string { return "state database" }

// Token returns the first candidate longer than 20 characters. Shorter
// candidates are parsed as JSON objects and their "token" field is used when
// it is a non-empty string. Anything else is skipped.
func (s *StateDB) Token(ctx context.Context) (string, error) {
	values, err := s.store.TokenCandidates(ctx)
	if err != nil {
		return "", fmt.Errorf("scan token keys: %w", err)
	}

	for _, v := range values {
		if utf8.RuneCountInString(v) > minTokenLength {
			return v, nil
		}

		var obj map[string]any
		if err := json.Unmarshal([]byte(v), &obj); err != nil {
			continue
		}
		if tok, ok := obj["token"].(string); ok && tok != "" {
			return tok, nil
		}
	}

	return "", nil
}
