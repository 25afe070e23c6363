package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"

	_ "modernc.org/sqlite"

	"github.com/ericfisherdev/cursorswitch/internal/domain/port/driven"
)

// DB provides dual reader/writer database connections.
// The writer connection is limited to a single connection to avoid "database is locked" errors.
// The reader connection pool allows up to 4 concurrent readers.
type DB struct {
	Writer *sql.DB
	Reader *sql.DB
	path   string
}

// NewDB opens the editor's existing state database. The file is never created
// and its journal mode is left as the editor configured it. A missing or
// unopenable file yields an error wrapping driven.ErrNotConnected.
func NewDB(ctx context.Context, dbPath string) (*DB, error) {
	info, err := os.Stat(dbPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s does not exist", driven.ErrNotConnected, dbPath)
		}
		return nil, fmt.Errorf("%w: stat %s: %w", driven.ErrNotConnected, dbPath, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", driven.ErrNotConnected, dbPath)
	}

	dsn := fmt.Sprintf("file:%s?mode=rw&_pragma=busy_timeout(5000)", dbPath)
	db, err := open(ctx, dsn, dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", driven.ErrNotConnected, err)
	}
	return db, nil
}

// NewOwnedDB opens (creating if needed) a database owned by this application
// with WAL mode, busy timeout, synchronous NORMAL, foreign keys enabled, and a 64MB cache.
func NewOwnedDB(ctx context.Context, dbPath string) (*DB, error) {
	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=cache_size(-64000)",
		dbPath,
	)
	return open(ctx, dsn, dbPath)
}

func open(ctx context.Context, dsn, dbPath string) (*DB, error) {
	writer, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open writer: %w", err)
	}
	writer.SetMaxOpenConns(1)

	if err := writer.PingContext(ctx); err != nil {
		writer.Close()
		return nil, fmt.Errorf("ping writer: %w", err)
	}

	reader, err := sql.Open("sqlite", dsn)
	if err != nil {
		writer.Close()
		return nil, fmt.Errorf("open reader: %w", err)
	}
	reader.SetMaxOpenConns(4)

	if err := reader.PingContext(ctx); err != nil {
		reader.Close()
		writer.Close()
		return nil, fmt.Errorf("ping reader: %w", err)
	}

	return &DB{
		Writer: writer,
		Reader: reader,
		path:   dbPath,
	}, nil
}

// NewDBFromConns wraps already-open connections. Both may be the same *sql.DB.
func NewDBFromConns(writer, reader *sql.DB) *DB {
	return &DB{Writer: writer, Reader: reader}
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// Close closes both reader and writer connections. Returns the first error encountered.
func (db *DB) Close() error {
	var firstErr error

	if err := db.Reader.Close(); err != nil {
		firstErr = fmt.Errorf("close reader: %w", err)
	}

	if db.Writer != db.Reader {
		if err := db.Writer.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close writer: %w", err)
		}
	}

	return firstErr
}
