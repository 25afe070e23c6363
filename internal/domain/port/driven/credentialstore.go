package driven

import (
	"context"

	"github.com/ericfisherdev/cursorswitch/internal/domain/model"
)

// KeyValueStore is the driven port for the editor's single-table state store.
// Multi-key mutations are atomic: on any failure nothing is changed and the
// returned error wraps ErrTransaction.
type KeyValueStore interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)

	// GetMany returns the values of the given keys, omitting absent ones.
	GetMany(ctx context.Context, keys []string) (map[string]string, error)

	// UpsertMany inserts absent keys and updates present ones in one transaction.
	UpsertMany(ctx context.Context, entries []model.CredentialEntry) error

	// DeleteMany removes the given keys in one transaction. Absent keys are ignored.
	DeleteMany(ctx context.Context, keys []string) error

	// TokenCandidates returns the values of every entry whose key contains
	// "token", case-insensitively.
	TokenCandidates(ctx context.Context) ([]string, error)
}

// CredentialStore defines the driven port for the current credential set.
type CredentialStore interface {
	// ReadCurrent returns the recognized keys present in the store.
	ReadCurrent(ctx context.Context) (model.CredentialSet, error)

	// WriteAll upserts the recognized keys of set atomically.
	WriteAll(ctx context.Context, set model.CredentialSet) error

	// EraseAuth deletes the auth keys atomically, leaving other keys untouched.
	EraseAuth(ctx context.Context) error
}
