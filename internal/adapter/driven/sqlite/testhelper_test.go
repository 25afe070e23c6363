package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// uniqueSchema mirrors the editor's table definition.
const uniqueSchema = `CREATE TABLE ItemTable (key TEXT UNIQUE ON CONFLICT REPLACE, value BLOB)`

// plainSchema has no uniqueness constraint, so duplicate keys would only be
// avoided by the store's own update-then-insert logic.
const plainSchema = `CREATE TABLE ItemTable (key TEXT, value TEXT)`

// setupStateDB creates a state database file in a temp dir with the given
// schema, seed rows and extra statements (triggers), and returns its path.
func setupStateDB(t *testing.T, schema string, seed map[string]string, extra ...string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "state.vscdb")
	createStateDBAt(t, path, schema, seed, extra...)
	return path
}

// createStateDBAt creates a state database file at path.
func createStateDBAt(t *testing.T, path, schema string, seed map[string]string, extra ...string) {
	t.Helper()

	raw, err := sql.Open("sqlite", "file:"+path)
	require.NoError(t, err)
	defer raw.Close()

	_, err = raw.Exec(schema)
	require.NoError(t, err)

	for k, v := range seed {
		_, err = raw.Exec(`INSERT INTO ItemTable (key, value) VALUES (?, ?)`, k, v)
		require.NoError(t, err)
	}
	for _, stmt := range extra {
		_, err = raw.Exec(stmt)
		require.NoError(t, err)
	}
}

// setupKVStore creates a state database and a connected KVStore over it.
func setupKVStore(t *testing.T, schema string, seed map[string]string, extra ...string) (*KVStore, string) {
	t.Helper()

	path := setupStateDB(t, schema, seed, extra...)
	store := NewKVStore(path)
	_, err := store.Connect(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store, path
}

// snapshotTable returns every row of ItemTable, reading through a fresh connection.
func snapshotTable(t *testing.T, path string) map[string]string {
	t.Helper()

	raw, err := sql.Open("sqlite", "file:"+path)
	require.NoError(t, err)
	defer raw.Close()

	rows, err := raw.Query(`SELECT key, value FROM ItemTable`)
	require.NoError(t, err)
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var k string
		var v sql.NullString
		require.NoError(t, rows.Scan(&k, &v))
		out[k] = v.String
	}
	require.NoError(t, rows.Err())
	return out
}

// countKey returns how many rows hold key.
func countKey(t *testing.T, path, key string) int {
	t.Helper()

	raw, err := sql.Open("sqlite", "file:"+path)
	require.NoError(t, err)
	defer raw.Close()

	var n int
	require.NoError(t, raw.QueryRow(`SELECT COUNT(*) FROM ItemTable WHERE key = ?`, key).Scan(&n))
	return n
}

// failOnInsert returns a trigger aborting any insert of key.
func failOnInsert(key string) string {
	return fmt.Sprintf(`CREATE TRIGGER fail_insert BEFORE INSERT ON ItemTable WHEN NEW.key = '%s'
		BEGIN SELECT RAISE(ABORT, 'forced insert failure'); END`, key)
}

// failOnDelete returns a trigger aborting any delete of key.
func failOnDelete(key string) string {
	return fmt.Sprintf(`CREATE TRIGGER fail_delete BEFORE DELETE ON ItemTable WHEN OLD.key = '%s'
		BEGIN SELECT RAISE(ABORT, 'forced delete failure'); END`, key)
}
