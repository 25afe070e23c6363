// Package application contains use-case orchestration services.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ericfisherdev/cursorswitch/internal/domain/model"
	"github.com/ericfisherdev/cursorswitch/internal/domain/port/driven"
)

// AccountService orchestrates the account use cases: reading the current
// account, snapshotting, restoring, manual login, logout, export and the bulk
// refresh of saved records. Mutating use cases are recorded in the journal.
type AccountService struct {
	creds    driven.CredentialStore
	locator  *TokenLocator
	client   driven.SubscriptionClient
	accounts driven.SavedAccountStore
	exporter driven.ExportWriter
	journal  driven.Journal
	now      func() time.Time

	// refreshMu serializes bulk refreshes so two passes never rewrite the
	// same record concurrently.
	refreshMu sync.Mutex
}

// NewAccountService creates a new AccountService. journal may be nil, in
// which case nothing is recorded.
func NewAccountService(
	creds driven.CredentialStore,
	locator *TokenLocator,
	client driven.SubscriptionClient,
	accounts driven.SavedAccountStore,
	exporter driven.ExportWriter,
	journal driven.Journal,
) *AccountService {
	return &AccountService{
		creds:    creds,
		locator:  locator,
		client:   client,
		accounts: accounts,
		exporter: exporter,
		journal:  journal,
		now:      time.Now,
	}
}

// Current reads the credential set, locates a token and builds the account
// view. When the remote status cannot be fetched the view is still returned,
// unverified. Returns ErrNotConnected when the store is missing and
// ErrNoCredential when no token exists anywhere.
func (s *AccountService) Current(ctx context.Context) (model.AccountView, error) {
	creds, token, err := s.currentCredentials(ctx)
	if err != nil {
		return model.AccountView{}, err
	}

	profile := s.client.FetchProfile(ctx, token)
	if profile == nil {
		slog.Warn("subscription status could not be verified", "error", driven.ErrRemoteUnavailable)
	}
	return model.NewAccountView(creds, profile, s.now()), nil
}

// currentCredentials returns the stored credential set and the token to use
// for it: the located token first, then the set's own access/refresh token.
func (s *AccountService) currentCredentials(ctx context.Context) (model.CredentialSet, string, error) {
	creds, err := s.creds.ReadCurrent(ctx)
	if err != nil {
		return nil, "", err
	}

	token := s.locator.Locate(ctx)
	if token == "" {
		token = creds.Token()
	}
	if token == "" {
		return nil, "", driven.ErrNoCredential
	}
	return creds, token, nil
}

// Usage returns request usage for the current account. A nil usage with a
// nil error means the endpoint could not be reached.
func (s *AccountService) Usage(ctx context.Context) (*model.Usage, error) {
	_, token, err := s.currentCredentials(ctx)
	if err != nil {
		return nil, err
	}
	return s.client.FetchUsage(ctx, token), nil
}

// SaveCurrent snapshots the current account into a new saved record.
func (s *AccountService) SaveCurrent(ctx context.Context) (model.SavedAccount, error) {
	view, err := s.Current(ctx)
	if err != nil {
		s.record(ctx, model.ActionSave, "", err, "")
		return model.SavedAccount{}, err
	}

	saved, err := s.accounts.Save(ctx, model.NewSavedAccount(view, s.now()))
	if err != nil {
		err = fmt.Errorf("save account: %w", err)
		s.record(ctx, model.ActionSave, view.Email, err, "")
		return model.SavedAccount{}, err
	}

	s.record(ctx, model.ActionSave, saved.Email, nil, saved.File)
	return saved, nil
}

// List returns every saved record, with unparseable ones reported as skipped.
func (s *AccountService) List(ctx context.Context) (model.SavedAccountListing, error) {
	return s.accounts.List(ctx)
}

// Restore writes the raw credential set of the saved record identified by
// email and savedDate back into the store.
func (s *AccountService) Restore(ctx context.Context, email, savedDate string) error {
	err := s.restore(ctx, email, savedDate)
	s.record(ctx, model.ActionRestore, email, err, savedDate)
	return err
}

func (s *AccountService) restore(ctx context.Context, email, savedDate string) error {
	listing, err := s.accounts.List(ctx)
	if err != nil {
		return fmt.Errorf("list saved accounts: %w", err)
	}

	for _, account := range listing.Accounts {
		if !account.Matches(email, savedDate) {
			continue
		}
		if err := s.creds.WriteAll(ctx, account.RawData); err != nil {
			return fmt.Errorf("restore %s: %w", email, err)
		}
		slog.Info("account restored", "email", email, "saved_date", savedDate)
		return nil
	}

	return fmt.Errorf("restore %s saved %s: %w", email, savedDate, driven.ErrNotFound)
}

// ManualLogin validates user-entered credentials and writes them with the
// same transactional upsert used by Restore.
func (s *AccountService) ManualLogin(ctx context.Context, input model.ManualCredentials) error {
	input = input.Normalize()
	err := s.manualLogin(ctx, input)
	s.record(ctx, model.ActionManualLogin, input.Email, err, input.SignUpType)
	return err
}

func (s *AccountService) manualLogin(ctx context.Context, input model.ManualCredentials) error {
	if err := input.Validate(); err != nil {
		return fmt.Errorf("%w: %w", driven.ErrInvalidInput, err)
	}
	if err := s.creds.WriteAll(ctx, input.CredentialSet()); err != nil {
		return fmt.Errorf("manual login %s: %w", input.Email, err)
	}
	slog.Info("manual credentials applied", "email", input.Email, "signup_type", input.SignUpType)
	return nil
}

// Logout erases the auth keys from the store, leaving every other key intact.
func (s *AccountService) Logout(ctx context.Context) error {
	var email string
	if creds, err := s.creds.ReadCurrent(ctx); err == nil {
		email = creds.Email()
	}

	err := s.creds.EraseAuth(ctx)
	if err != nil {
		err = fmt.Errorf("logout: %w", err)
	} else {
		slog.Info("account logged out", "email", email)
	}
	s.record(ctx, model.ActionLogout, email, err, "")
	return err
}

// Delete removes the saved record identified by email and savedDate.
func (s *AccountService) Delete(ctx context.Context, email, savedDate string) error {
	err := s.accounts.Delete(ctx, email, savedDate)
	s.record(ctx, model.ActionDelete, email, err, savedDate)
	return err
}

// Export writes the current account's export document to path.
func (s *AccountService) Export(ctx context.Context, path string) (model.Export, error) {
	view, err := s.Current(ctx)
	if err != nil {
		s.record(ctx, model.ActionExport, "", err, path)
		return model.Export{}, err
	}

	export := model.NewExport(view, s.now())
	if err := s.exporter.WriteExport(ctx, path, export); err != nil {
		err = fmt.Errorf("export: %w", err)
		s.record(ctx, model.ActionExport, view.Email, err, path)
		return model.Export{}, err
	}

	s.record(ctx, model.ActionExport, view.Email, nil, path)
	return export, nil
}

// History returns up to limit journal entries, newest first.
func (s *AccountService) History(ctx context.Context, limit int) ([]model.JournalEntry, error) {
	if s.journal == nil {
		return []model.JournalEntry{}, nil
	}
	return s.journal.Recent(ctx, limit)
}

// record appends a journal entry. Journal failures are logged only.
func (s *AccountService) record(ctx context.Context, action model.JournalAction, email string, opErr error, detail string) {
	if s.journal == nil {
		return
	}

	entry := model.JournalEntry{
		Timestamp: s.now(),
		Action:    action,
		Email:     email,
		Succeeded: opErr == nil,
		Detail:    detail,
	}
	if opErr != nil {
		entry.Detail = opErr.Error()
	}

	if err := s.journal.Record(context.WithoutCancel(ctx), entry); err != nil {
		slog.Error("journal write failed", "action", action, "error", err)
	}
}

// IsUserError reports whether err is caused by the caller's input or the
// local state rather than an internal failure.
func IsUserError(err error) bool {
	return errors.Is(err, driven.ErrInvalidInput) ||
		errors.Is(err, driven.ErrNotFound) ||
		errors.Is(err, driven.ErrNoCredential) ||
		errors.Is(err, driven.ErrNotConnected)
}
