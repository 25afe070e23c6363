package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/ericfisherdev/cursorswitch/internal/domain/model"
	"github.com/ericfisherdev/cursorswitch/internal/domain/port/driven"
)

// itemTable is the editor's single key/value table.
const itemTable = "ItemTable"

// Compile-time interface satisfaction check.
var _ driven.KeyValueStore = (*KVStore)(nil)

// KVStore is the SQLite implementation of the KeyValueStore port over the
// editor's ItemTable. The database is opened on first use so that a store
// that does not exist yet only fails the operations that need it, and is
// reopened when the editor deletes or replaces the file.
type KVStore struct {
	path string

	mu   sync.Mutex
	db   *DB
	file os.FileInfo // identity of the file db was opened on
}

// NewKVStore creates a KVStore for the database file at dbPath.
func NewKVStore(dbPath string) *KVStore {
	return &KVStore{path: dbPath}
}

// NewKVStoreWithDB creates a KVStore over an already-open DB.
func NewKVStoreWithDB(db *DB) *KVStore {
	return &KVStore{db: db, path: db.Path()}
}

// Connect opens the database if it is not open yet, or reopens it when the
// file on disk is no longer the one the open handle refers to. It fails with
// an error wrapping driven.ErrNotConnected when the file is missing or
// unopenable; a later call retries.
func (s *KVStore) Connect(ctx context.Context) (*DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		if !s.replacedLocked() {
			return s.db, nil
		}
		slog.Info("state database changed on disk, reconnecting", "path", s.path)
		if err := s.db.Close(); err != nil {
			slog.Warn("failed to close stale state database", "path", s.path, "error", err)
		}
		s.db, s.file = nil, nil
	}

	// Stat before opening: if the file is swapped in between, the next call
	// sees a mismatch and reopens.
	info, statErr := os.Stat(s.path)

	db, err := NewDB(ctx, s.path)
	if err != nil {
		return nil, err
	}
	s.db = db
	if statErr == nil {
		s.file = info
	}
	return db, nil
}

// replacedLocked reports whether the file at path was removed or replaced
// since the handle was opened. Stores built over existing connections are
// never checked.
func (s *KVStore) replacedLocked() bool {
	if s.file == nil {
		return false
	}
	info, err := os.Stat(s.path)
	if err != nil {
		return true
	}
	return !os.SameFile(s.file, info)
}

// Close closes the database if it was opened.
func (s *KVStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db, s.file = nil, nil
	return err
}

// Get returns the value stored under key.
func (s *KVStore) Get(ctx context.Context, key string) (string, bool, error) {
	db, err := s.Connect(ctx)
	if err != nil {
		return "", false, err
	}

	const query = `SELECT value FROM ` + itemTable + ` WHERE key = ?`
	var value sql.NullString
	err = db.Reader.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return value.String, true, nil
}

// GetMany returns the values for keys, omitting keys that are not stored.
func (s *KVStore) GetMany(ctx context.Context, keys []string) (map[string]string, error) {
	result := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	db, err := s.Connect(ctx)
	if err != nil {
		return nil, err
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	query := `SELECT key, value FROM ` + itemTable + ` WHERE key IN (` + placeholders + `)`

	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}

	rows, err := db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query keys: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var value sql.NullString
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		result[key] = value.String
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate keys: %w", err)
	}

	return result, nil
}

// UpsertMany updates every entry whose key exists and inserts the rest, all in
// a single transaction. Any failure rolls the whole call back.
func (s *KVStore) UpsertMany(ctx context.Context, entries []model.CredentialEntry) error {
	if len(entries) == 0 {
		return nil
	}

	db, err := s.Connect(ctx)
	if err != nil {
		return err
	}

	tx, err := db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return txError("begin transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op.

	const updateQuery = `UPDATE ` + itemTable + ` SET value = ? WHERE key = ?`
	const insertQuery = `INSERT INTO ` + itemTable + ` (key, value) VALUES (?, ?)`

	for _, e := range entries {
		res, err := tx.ExecContext(ctx, updateQuery, e.Value, e.Key)
		if err != nil {
			return txError(fmt.Sprintf("update %q", e.Key), err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return txError(fmt.Sprintf("update %q", e.Key), err)
		}
		if n > 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx, insertQuery, e.Key, e.Value); err != nil {
			return txError(fmt.Sprintf("insert %q", e.Key), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return txError("commit upsert", err)
	}
	return nil
}

// DeleteMany removes keys in a single transaction. Missing keys are ignored.
func (s *KVStore) DeleteMany(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	db, err := s.Connect(ctx)
	if err != nil {
		return err
	}

	tx, err := db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return txError("begin transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op.

	const deleteQuery = `DELETE FROM ` + itemTable + ` WHERE key = ?`
	for _, key := range keys {
		if _, err := tx.ExecContext(ctx, deleteQuery, key); err != nil {
			return txError(fmt.Sprintf("delete %q", key), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return txError("commit delete", err)
	}
	return nil
}

// TokenCandidates returns the values of entries whose key contains "token".
// LIKE is case-insensitive for ASCII in SQLite.
func (s *KVStore) TokenCandidates(ctx context.Context) ([]string, error) {
	db, err := s.Connect(ctx)
	if err != nil {
		return nil, err
	}

	const query = `SELECT value FROM ` + itemTable + ` WHERE key LIKE '%token%'`
	rows, err := db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query token keys: %w", err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var value sql.NullString
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("scan token value: %w", err)
		}
		if value.Valid {
			values = append(values, value.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate token keys: %w", err)
	}

	return values, nil
}

// txError wraps err so that it matches both driven.ErrTransaction and the
// underlying driver error.
func txError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, driven.ErrTransaction, err)
}
