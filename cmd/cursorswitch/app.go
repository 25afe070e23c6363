package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ericfisherdev/cursorswitch/internal/adapter/driven/cursorapi"
	"github.com/ericfisherdev/cursorswitch/internal/adapter/driven/filestore"
	sqliteadapter "github.com/ericfisherdev/cursorswitch/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/cursorswitch/internal/adapter/driven/tokensource"
	"github.com/ericfisherdev/cursorswitch/internal/application"
	"github.com/ericfisherdev/cursorswitch/internal/config"
	"github.com/ericfisherdev/cursorswitch/internal/domain/port/driven"
)

// app is the composition root shared by every subcommand.
type app struct {
	svc      *application.AccountService
	accounts *filestore.AccountStore

	kv        *sqliteadapter.KVStore
	journalDB *sqliteadapter.DB
}

// newApp wires the adapters for c. The editor's state database is opened
// lazily, so commands that only touch saved records work without it. A
// journal that cannot be opened is logged and skipped.
func newApp(ctx context.Context, c *config.Config) *app {
	a := &app{
		kv:       sqliteadapter.NewKVStore(c.StateDBPath),
		accounts: filestore.NewAccountStore(c.AccountsDir),
	}

	locator := application.NewTokenLocator(
		tokensource.NewStorageJSON(c.StorageJSONPath),
		tokensource.NewStateDB(a.kv),
		tokensource.NewSessionLog(c.SessionDir),
	)

	client := cursorapi.NewClient(cursorapi.Config{
		ProfileURL:        c.ProfileURL,
		UsageURL:          c.UsageURL,
		Timeout:           c.HTTPTimeout,
		RequestsPerSecond: c.RequestsPerSecond,
	})

	var journal driven.Journal
	if repo, db, err := openJournal(ctx, c.JournalDBPath); err != nil {
		slog.Warn("operation journal unavailable", "path", c.JournalDBPath, "error", err)
	} else {
		journal = repo
		a.journalDB = db
	}

	a.svc = application.NewAccountService(
		sqliteadapter.NewCredentialRepo(a.kv),
		locator,
		client,
		a.accounts,
		filestore.Exporter{},
		journal,
	)
	return a
}

func openJournal(ctx context.Context, path string) (*sqliteadapter.JournalRepo, *sqliteadapter.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, nil, err
	}
	return sqliteadapter.OpenJournal(ctx, path)
}

// Close releases the database handles.
func (a *app) Close() {
	if err := a.kv.Close(); err != nil {
		slog.Error("error closing state database", "error", err)
	}
	if a.journalDB != nil {
		if err := a.journalDB.Close(); err != nil {
			slog.Error("error closing journal database", "error", err)
		}
	}
}

// withApp runs fn with a freshly wired app and closes it afterwards.
func withApp(ctx context.Context, fn func(a *app) error) error {
	a := newApp(ctx, cfg)
	defer a.Close()
	return fn(a)
}
