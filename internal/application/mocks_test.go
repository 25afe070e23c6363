package application_test

import (
	"context"
	"sync"

	"github.com/ericfisherdev/cursorswitch/internal/domain/model"
	"github.com/ericfisherdev/cursorswitch/internal/domain/port/driven"
)

// --- Mock implementations ---

type mockCredentialStore struct {
	mu       sync.Mutex
	current  model.CredentialSet
	readErr  error
	writeErr error
	eraseErr error
	written  []model.CredentialSet
	erased   int
}

func (m *mockCredentialStore) ReadCurrent(_ context.Context) (model.CredentialSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	out := model.CredentialSet{}
	for k, v := range m.current {
		out[k] = v
	}
	return out, nil
}

func (m *mockCredentialStore) WriteAll(_ context.Context, set model.CredentialSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.written = append(m.written, set)
	return nil
}

func (m *mockCredentialStore) EraseAuth(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.eraseErr != nil {
		return m.eraseErr
	}
	m.erased++
	m.current = nil
	return nil
}

// mockSubscriptionClient returns the profile registered for a token, or nil.
type mockSubscriptionClient struct {
	mu       sync.Mutex
	profiles map[string]*model.Profile
	usage    *model.Usage
	calls    []string
}

func (m *mockSubscriptionClient) FetchProfile(_ context.Context, token string) *model.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, token)
	return m.profiles[token]
}

func (m *mockSubscriptionClient) FetchUsage(_ context.Context, token string) *model.Usage {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "usage:"+token)
	return m.usage
}

// mockAccountStore is an in-memory SavedAccountStore keyed by file name.
type mockAccountStore struct {
	mu         sync.Mutex
	accounts   []model.SavedAccount
	skipped    []model.SkippedRecord
	listErr    error
	saveErr    error
	rewriteErr map[string]error
	rewrites   []model.SavedAccount
	deleted    []string
}

func (m *mockAccountStore) Save(_ context.Context, account model.SavedAccount) (model.SavedAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return model.SavedAccount{}, m.saveErr
	}
	account.File = "cursor_account_" + model.FileSafeEmail(account.Email) + ".json"
	m.accounts = append(m.accounts, account)
	return account, nil
}

func (m *mockAccountStore) List(_ context.Context) (model.SavedAccountListing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return model.SavedAccountListing{}, m.listErr
	}
	accounts := make([]model.SavedAccount, len(m.accounts))
	copy(accounts, m.accounts)
	return model.SavedAccountListing{Accounts: accounts, Skipped: m.skipped}, nil
}

func (m *mockAccountStore) Rewrite(_ context.Context, account model.SavedAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.rewriteErr[account.File]; err != nil {
		return err
	}
	m.rewrites = append(m.rewrites, account)
	for i := range m.accounts {
		if m.accounts[i].File == account.File {
			m.accounts[i] = account
		}
	}
	return nil
}

func (m *mockAccountStore) Delete(_ context.Context, email, savedDate string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, a := range m.accounts {
		if a.Matches(email, savedDate) {
			m.accounts = append(m.accounts[:i], m.accounts[i+1:]...)
			m.deleted = append(m.deleted, a.File)
			return nil
		}
	}
	return driven.ErrNotFound
}

type mockExporter struct {
	path    string
	written model.Export
	err     error
}

func (m *mockExporter) WriteExport(_ context.Context, path string, export model.Export) error {
	if m.err != nil {
		return m.err
	}
	m.path = path
	m.written = export
	return nil
}

type mockJournal struct {
	mu        sync.Mutex
	entries   []model.JournalEntry
	recordErr error
}

func (m *mockJournal) Record(_ context.Context, entry model.JournalEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recordErr != nil {
		return m.recordErr
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockJournal) Recent(_ context.Context, limit int) ([]model.JournalEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.JournalEntry{}
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

func (m *mockJournal) last() model.JournalEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.entries) == 0 {
		return model.JournalEntry{}
	}
	return m.entries[len(m.entries)-1]
}

// staticSource is a TokenSource returning a fixed token or error.
func staticSource(name, token string, err error) driven.TokenSource {
	return driven.TokenSourceFunc{
		SourceName: name,
		Fn: func(context.Context) (string, error) {
			return token, err
		},
	}
}

func strPtr(s string) *string { return &s }
func floatPtr(f float64) *float64 { return &f }

func activeProfile(membership string) *model.Profile {
	return &model.Profile{MembershipType: strPtr(membership), SubscriptionStatus: strPtr("active")}
}
