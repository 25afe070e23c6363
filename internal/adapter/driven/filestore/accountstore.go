// Package filestore implements the saved-account repository as one JSON
// document per snapshot inside a dedicated directory.
package filestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/natefinch/atomic"

	"github.com/ericfisherdev/cursorswitch/internal/domain/model"
	"github.com/ericfisherdev/cursorswitch/internal/domain/port/driven"
)

const (
	recordPrefix   = "cursor_account_"
	recordExt      = ".json"
	fileTimeLayout = "20060102_150405"
)

// Compile-time interface satisfaction check.
var _ driven.SavedAccountStore = (*AccountStore)(nil)

// AccountStore is the file-backed SavedAccountStore. Writes go through a
// temp file and rename so a crash never leaves a half-written record.
type AccountStore struct {
	dir string
	mu  sync.Mutex
}

// NewAccountStore creates an AccountStore rooted at dir. The directory is
// created on first save.
func NewAccountStore(dir string) *AccountStore {
	return &AccountStore{dir: dir}
}

// Dir returns the records directory.
func (s *AccountStore) Dir() string {
	return s.dir
}

// Save writes account as a new record named after its email and save time.
// An empty SavedDate is stamped with the current time; one that does not
// parse is rejected with ErrInvalidInput. An existing file with the same name
// is never overwritten: a numeric suffix is appended instead.
func (s *AccountStore) Save(_ context.Context, account model.SavedAccount) (model.SavedAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// The file name and saved_date must describe the same instant.
	var savedAt time.Time
	if account.SavedDate == "" {
		savedAt = time.Now()
		account.SavedDate = savedAt.Format(model.SavedDateLayout)
	} else {
		parsed, err := time.ParseInLocation(model.SavedDateLayout, account.SavedDate, time.Local)
		if err != nil {
			return model.SavedAccount{}, fmt.Errorf("save account %q: %w: saved date %q: %w",
				account.Email, driven.ErrInvalidInput, account.SavedDate, err)
		}
		savedAt = parsed
	}

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return model.SavedAccount{}, fmt.Errorf("create accounts dir: %w", err)
	}

	name, err := s.freeName(model.FileSafeEmail(account.Email), savedAt)
	if err != nil {
		return model.SavedAccount{}, err
	}
	account.File = name

	if err := s.write(name, account); err != nil {
		return model.SavedAccount{}, err
	}

	slog.Info("saved account record", "email", account.Email, "file", name)
	return account, nil
}

// freeName returns the first record name for email and t that is not taken.
func (s *AccountStore) freeName(email string, t time.Time) (string, error) {
	base := recordPrefix + email + "_" + t.Format(fileTimeLayout)
	name := base + recordExt
	for n := 2; ; n++ {
		_, err := os.Stat(filepath.Join(s.dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			return name, nil
		}
		if err != nil {
			return "", fmt.Errorf("check %s: %w", name, err)
		}
		name = fmt.Sprintf("%s_%d%s", base, n, recordExt)
	}
}

// List parses every *.json record in directory order. Records that fail to
// read or parse are logged and reported in Skipped; they never stop the
// enumeration. A missing directory is an empty listing.
func (s *AccountStore) List(ctx context.Context) (model.SavedAccountListing, error) {
	listing := model.SavedAccountListing{Accounts: []model.SavedAccount{}}

	names, err := s.recordNames()
	if err != nil {
		return listing, err
	}

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return listing, err
		}

		account, err := s.read(name)
		if err != nil {
			slog.Warn("skipping saved account record", "file", name, "error", err)
			listing.Skipped = append(listing.Skipped, model.SkippedRecord{File: name, Err: err})
			continue
		}
		listing.Accounts = append(listing.Accounts, account)
	}

	return listing, nil
}

// Rewrite replaces the record file named by account.File. The file must exist.
func (s *AccountStore) Rewrite(_ context.Context, account model.SavedAccount) error {
	if account.File == "" {
		return fmt.Errorf("rewrite record: %w: no file name", driven.ErrInvalidInput)
	}
	name := filepath.Base(account.File)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(filepath.Join(s.dir, name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("rewrite %s: %w", name, driven.ErrNotFound)
		}
		return fmt.Errorf("rewrite %s: %w", name, err)
	}

	account.File = name
	return s.write(name, account)
}

// Delete removes the one record whose email and saved date match exactly.
// Unparseable records are ignored while searching.
func (s *AccountStore) Delete(_ context.Context, email, savedDate string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := s.recordNames()
	if err != nil {
		return err
	}

	for _, name := range names {
		account, err := s.read(name)
		if err != nil {
			continue
		}
		if !account.Matches(email, savedDate) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
			return fmt.Errorf("delete %s: %w", name, err)
		}
		slog.Info("deleted account record", "email", email, "file", name)
		return nil
	}

	return fmt.Errorf("delete %s saved %s: %w", email, savedDate, driven.ErrNotFound)
}

func (s *AccountStore) recordNames() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list accounts dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), recordExt) {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

func (s *AccountStore) read(name string) (model.SavedAccount, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return model.SavedAccount{}, fmt.Errorf("read %s: %w", name, err)
	}

	var account model.SavedAccount
	if err := json.Unmarshal(data, &account); err != nil {
		return model.SavedAccount{}, fmt.Errorf("%w: %s: %w", driven.ErrRecordCorrupt, name, err)
	}
	account.File = name
	return account, nil
}

func (s *AccountStore) write(name string, account model.SavedAccount) error {
	return writeJSON(filepath.Join(s.dir, name), account)
}

// writeJSON atomically replaces path with v encoded as indented JSON.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
