package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/ericfisherdev/cursorswitch/internal/domain/model"
	"github.com/ericfisherdev/cursorswitch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Journal = (*JournalRepo)(nil)

// JournalRepo is the SQLite implementation of the Journal port.
type JournalRepo struct {
	db *DB
}

// NewJournalRepo creates a new JournalRepo backed by the given DB. The schema
// must already be migrated with RunJournalMigrations.
func NewJournalRepo(db *DB) *JournalRepo {
	return &JournalRepo{db: db}
}

// OpenJournal opens (creating if needed) the journal database at path and
// migrates it.
func OpenJournal(ctx context.Context, path string) (*JournalRepo, *DB, error) {
	db, err := NewOwnedDB(ctx, path)
	if err != nil {
		return nil, nil, fmt.Errorf("open journal: %w", err)
	}
	if err := RunJournalMigrations(db.Writer); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return NewJournalRepo(db), db, nil
}

// Record appends an entry. A zero Timestamp is replaced by the current time.
func (r *JournalRepo) Record(ctx context.Context, entry model.JournalEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	succeeded := 0
	if entry.Succeeded {
		succeeded = 1
	}

	const query = `INSERT INTO journal (created_at, action, email, succeeded, detail) VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.Writer.ExecContext(ctx, query,
		entry.Timestamp.UTC().Format(time.RFC3339Nano), string(entry.Action), entry.Email, succeeded, entry.Detail,
	)
	if err != nil {
		return fmt.Errorf("record journal entry %q: %w", entry.Action, err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (r *JournalRepo) Recent(ctx context.Context, limit int) ([]model.JournalEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	const query = `
		SELECT id, created_at, action, email, succeeded, detail
		FROM journal
		ORDER BY id DESC
		LIMIT ?
	`
	rows, err := r.db.Reader.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	entries := []model.JournalEntry{}
	for rows.Next() {
		var e model.JournalEntry
		var createdAt, action string
		var succeeded int
		if err := rows.Scan(&e.ID, &createdAt, &action, &e.Email, &succeeded, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		e.Timestamp, err = parseTime(createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		e.Action = model.JournalAction(action)
		e.Succeeded = succeeded != 0
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal: %w", err)
	}

	return entries, nil
}

func parseTime(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %q", s)
}
