package driven

import (
	"context"

	"github.com/ericfisherdev/cursorswitch/internal/domain/model"
)

// Journal defines the driven port for the operation journal.
type Journal interface {
	Record(ctx context.Context, entry model.JournalEntry) error
	Recent(ctx context.Context, limit int) ([]model.JournalEntry, error)
}
