package filestore_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/cursorswitch/internal/adapter/driven/filestore"
	"github.com/ericfisherdev/cursorswitch/internal/domain/model"
	"github.com/ericfisherdev/cursorswitch/internal/domain/port/driven"
)

func sampleAccount(email, savedDate string) model.SavedAccount {
	return model.SavedAccount{
		Email:             email,
		AccountType:       "Auth_0",
		Membership:        "Pro",
		TrialStatus:       model.TrialNotOnTrial,
		ProTrialRemaining: model.TrialNotApplicable,
		SavedDate:         savedDate,
		RawData: model.CredentialSet{
			model.KeyCachedEmail:  email,
			model.KeyAccessToken:  "access-" + email,
			model.KeyRefreshToken: "refresh-" + email,
		},
	}
}

func readDirBytes(t *testing.T, dir string) map[string][]byte {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	out := make(map[string][]byte, len(entries))
	for _, e := range entries {
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		require.NoError(t, err)
		out[e.Name()] = data
	}
	return out
}

func TestAccountStore_SaveWritesNamedRecord(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cursor_account_data")
	store := filestore.NewAccountStore(dir)

	saved, err := store.Save(context.Background(), sampleAccount("dev.one@example.com", "2026-03-01T09:15:30.123456"))
	require.NoError(t, err)
	assert.Equal(t, "cursor_account_dev_one_example_com_20260301_091530.json", saved.File)

	data, err := os.ReadFile(filepath.Join(dir, saved.File))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "dev.one@example.com", doc["email"])
	assert.Equal(t, "2026-03-01T09:15:30.123456", doc["saved_date"])
	assert.Equal(t, "Not on trial", doc["trial_status"])
	assert.NotContains(t, doc, "File")
	assert.NotContains(t, doc, "refresh_outcome")
	raw, ok := doc["raw_data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "access-dev.one@example.com", raw[model.KeyAccessToken])
	assert.Contains(t, string(data), "\n  \"email\"")
}

func TestAccountStore_SaveAvoidsNameCollision(t *testing.T) {
	store := filestore.NewAccountStore(t.TempDir())
	ctx := context.Background()

	first, err := store.Save(ctx, sampleAccount("a@example.com", "2026-03-01T09:15:30.000001"))
	require.NoError(t, err)
	second, err := store.Save(ctx, sampleAccount("a@example.com", "2026-03-01T09:15:30.000002"))
	require.NoError(t, err)
	third, err := store.Save(ctx, sampleAccount("a@example.com", "2026-03-01T09:15:30.000003"))
	require.NoError(t, err)

	assert.Equal(t, "cursor_account_a_example_com_20260301_091530.json", first.File)
	assert.Equal(t, "cursor_account_a_example_com_20260301_091530_2.json", second.File)
	assert.Equal(t, "cursor_account_a_example_com_20260301_091530_3.json", third.File)

	listing, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, listing.Accounts, 3)
}

func TestAccountStore_SaveRejectsUnparseableSavedDate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "accounts")
	store := filestore.NewAccountStore(dir)

	_, err := store.Save(context.Background(), sampleAccount("a@example.com", "yesterday"))

	require.Error(t, err)
	assert.ErrorIs(t, err, driven.ErrInvalidInput)
	assert.NoDirExists(t, dir)
}

func TestAccountStore_SaveStampsMissingSavedDate(t *testing.T) {
	store := filestore.NewAccountStore(t.TempDir())
	ctx := context.Background()

	saved, err := store.Save(ctx, sampleAccount("a@example.com", ""))
	require.NoError(t, err)
	require.NotEmpty(t, saved.SavedDate)

	savedAt, err := time.ParseInLocation(model.SavedDateLayout, saved.SavedDate, time.Local)
	require.NoError(t, err)
	assert.Equal(t, "cursor_account_a_example_com_"+savedAt.Format("20060102_150405")+".json", saved.File)

	listing, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, listing.Accounts, 1)
	assert.Equal(t, saved.SavedDate, listing.Accounts[0].SavedDate)
}

func TestAccountStore_ListSkipsCorruptRecords(t *testing.T) {
	dir := t.TempDir()
	store := filestore.NewAccountStore(dir)
	ctx := context.Background()

	_, err := store.Save(ctx, sampleAccount("a@example.com", "2026-03-01T09:00:00.000000"))
	require.NoError(t, err)
	_, err = store.Save(ctx, sampleAccount("b@example.com", "2026-03-02T09:00:00.000000"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{"email": "x@`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(`ignored`), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.json"), 0o700))

	listing, err := store.List(ctx)
	require.NoError(t, err)

	require.Len(t, listing.Accounts, 2)
	assert.Equal(t, "a@example.com", listing.Accounts[0].Email)
	assert.Equal(t, "b@example.com", listing.Accounts[1].Email)
	assert.NotEmpty(t, listing.Accounts[0].File)

	require.Len(t, listing.Skipped, 1)
	assert.Equal(t, "broken.json", listing.Skipped[0].File)
	assert.ErrorIs(t, listing.Skipped[0].Err, driven.ErrRecordCorrupt)
}

func TestAccountStore_ListMissingDirectory(t *testing.T) {
	store := filestore.NewAccountStore(filepath.Join(t.TempDir(), "absent"))

	listing, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, listing.Accounts)
	assert.Empty(t, listing.Skipped)
}

func TestAccountStore_ListReadsNonStringRawValues(t *testing.T) {
	dir := t.TempDir()
	doc := `{
  "email": "c@example.com",
  "saved_date": "2026-03-01T09:00:00.000000",
  "raw_data": {"cursorAuth/cachedEmail": "c@example.com", "cursorAuth/accessToken": null, "extra": {"a": 1}}
}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cursor_account_c.json"), []byte(doc), 0o600))

	listing, err := filestore.NewAccountStore(dir).List(context.Background())
	require.NoError(t, err)
	require.Len(t, listing.Accounts, 1)

	raw := listing.Accounts[0].RawData
	assert.Equal(t, "c@example.com", raw.Email())
	assert.NotContains(t, raw, model.KeyAccessToken)
	assert.Equal(t, `{"a":1}`, raw["extra"])
}

func TestAccountStore_DeleteRemovesExactlyOneFile(t *testing.T) {
	dir := t.TempDir()
	store := filestore.NewAccountStore(dir)
	ctx := context.Background()

	_, err := store.Save(ctx, sampleAccount("a@example.com", "2026-03-01T09:00:00.000000"))
	require.NoError(t, err)
	target, err := store.Save(ctx, sampleAccount("a@example.com", "2026-03-01T10:00:00.000000"))
	require.NoError(t, err)
	_, err = store.Save(ctx, sampleAccount("b@example.com", "2026-03-01T10:00:00.000000"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`nope`), 0o600))

	before := readDirBytes(t, dir)

	require.NoError(t, store.Delete(ctx, "a@example.com", "2026-03-01T10:00:00.000000"))

	after := readDirBytes(t, dir)
	assert.Len(t, after, len(before)-1)
	assert.NotContains(t, after, target.File)
	for name, data := range after {
		assert.Equal(t, before[name], data, "file %s changed", name)
	}
}

func TestAccountStore_DeleteNotFoundChangesNothing(t *testing.T) {
	dir := t.TempDir()
	store := filestore.NewAccountStore(dir)
	ctx := context.Background()

	_, err := store.Save(ctx, sampleAccount("a@example.com", "2026-03-01T09:00:00.000000"))
	require.NoError(t, err)
	before := readDirBytes(t, dir)

	err = store.Delete(ctx, "a@example.com", "2026-03-01T09:00:00")
	assert.ErrorIs(t, err, driven.ErrNotFound)

	err = store.Delete(ctx, "A@example.com", "2026-03-01T09:00:00.000000")
	assert.ErrorIs(t, err, driven.ErrNotFound)

	assert.Equal(t, before, readDirBytes(t, dir))
}

func TestAccountStore_RewriteReplacesInPlace(t *testing.T) {
	dir := t.TempDir()
	store := filestore.NewAccountStore(dir)
	ctx := context.Background()

	saved, err := store.Save(ctx, sampleAccount("a@example.com", "2026-03-01T09:00:00.000000"))
	require.NoError(t, err)

	saved.Membership = "Team"
	saved.RefreshOutcome = model.RefreshSucceeded
	saved.LastRefreshed = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC).Format(model.SavedDateLayout)
	require.NoError(t, store.Rewrite(ctx, saved))

	listing, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, listing.Accounts, 1)
	assert.Equal(t, "Team", listing.Accounts[0].Membership)
	assert.Equal(t, model.RefreshSucceeded, listing.Accounts[0].RefreshOutcome)
	assert.Equal(t, saved.File, listing.Accounts[0].File)
}

func TestAccountStore_RewriteRequiresExistingFile(t *testing.T) {
	store := filestore.NewAccountStore(t.TempDir())
	ctx := context.Background()

	err := store.Rewrite(ctx, sampleAccount("a@example.com", "2026-03-01T09:00:00.000000"))
	assert.ErrorIs(t, err, driven.ErrInvalidInput)

	account := sampleAccount("a@example.com", "2026-03-01T09:00:00.000000")
	account.File = "cursor_account_gone.json"
	err = store.Rewrite(ctx, account)
	assert.ErrorIs(t, err, driven.ErrNotFound)
}

func TestWriteExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exports", "current.json")
	view := model.AccountView{
		Email:       "a@example.com",
		AccountType: "Google",
		Membership:  "Pro",
		TrialStatus: model.TrialNotOnTrial,
		Raw:         model.CredentialSet{model.KeyCachedEmail: "a@example.com"},
	}
	export := model.NewExport(view, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	require.NoError(t, filestore.Exporter{}.WriteExport(context.Background(), path, export))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "2026-03-01T09:00:00.000000", doc["export_date"])
	assert.Equal(t, "Google", doc["account_type"])
	assert.Equal(t, map[string]any{model.KeyCachedEmail: "a@example.com"}, doc["raw_data"])
}
