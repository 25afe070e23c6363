package sqlite

import (
	"context"
	"fmt"

	"github.com/ericfisherdev/cursorswitch/internal/domain/model"
	"github.com/ericfisherdev/cursorswitch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CredentialStore = (*CredentialRepo)(nil)

// CredentialRepo implements the CredentialStore port on top of a KeyValueStore.
// Only the recognized credential keys are ever read or written.
type CredentialRepo struct {
	kv driven.KeyValueStore
}

// NewCredentialRepo creates a new CredentialRepo backed by kv.
func NewCredentialRepo(kv driven.KeyValueStore) *CredentialRepo {
	return &CredentialRepo{kv: kv}
}

// ReadCurrent returns the recognized keys currently present in the store.
func (r *CredentialRepo) ReadCurrent(ctx context.Context) (model.CredentialSet, error) {
	values, err := r.kv.GetMany(ctx, model.RecognizedKeys())
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	return model.CredentialSet(values), nil
}

// WriteAll upserts the recognized entries of set in one transaction. Restore
// and manual login both go through here.
func (r *CredentialRepo) WriteAll(ctx context.Context, set model.CredentialSet) error {
	entries := set.Recognized().Entries()
	if len(entries) == 0 {
		return fmt.Errorf("write credentials: %w: no recognized keys", driven.ErrInvalidInput)
	}
	if err := r.kv.UpsertMany(ctx, entries); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

// EraseAuth deletes every auth key in one transaction.
func (r *CredentialRepo) EraseAuth(ctx context.Context) error {
	if err := r.kv.DeleteMany(ctx, model.AuthKeys()); err != nil {
		return fmt.Errorf("erase credentials: %w", err)
	}
	return nil
}
