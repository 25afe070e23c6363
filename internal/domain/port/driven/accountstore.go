package driven

import (
	"context"

	"github.com/ericfisherdev/cursorswitch/internal/domain/model"
)

// SavedAccountStore defines the driven port for durable account snapshots.
// It is the sole writer of the record collection.
type SavedAccountStore interface {
	// Save writes a new record and returns it with File set.
	Save(ctx context.Context, account model.SavedAccount) (model.SavedAccount, error)

	// List enumerates every record. Records that fail to parse are reported
	// in the listing's Skipped field and never abort the enumeration.
	List(ctx context.Context) (model.SavedAccountListing, error)

	// Rewrite replaces the record file named by account.File.
	Rewrite(ctx context.Context, account model.SavedAccount) error

	// Delete removes the record matching email and savedDate exactly.
	// Returns ErrNotFound if there is none.
	Delete(ctx context.Context, email, savedDate string) error
}

// ExportWriter writes an export document to a caller-chosen path.
type ExportWriter interface {
	WriteExport(ctx context.Context, path string, export model.Export) error
}
