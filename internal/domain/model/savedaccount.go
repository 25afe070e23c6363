package model

import (
	"slices"
	"strings"
	"time"
	"unicode"
)

// SavedDateLayout is the ISO-8601 layout of SavedAccount.SavedDate.
const SavedDateLayout = "2006-01-02T15:04:05.000000"

// RefreshOutcome records how the last refresh of a saved account went.
type RefreshOutcome string

const (
	RefreshSucceeded     RefreshOutcome = "succeeded"
	RefreshNoToken       RefreshOutcome = "failed_no_token"
	RefreshRemoteError   RefreshOutcome = "failed_remote_error"
	RefreshStorageFailed RefreshOutcome = "failed_storage_error"
)

// Failed reports whether the outcome marks the account as failed.
func (o RefreshOutcome) Failed() bool {
	return o != "" && o != RefreshSucceeded
}

// SavedAccount is a durable snapshot of a credential set plus its last-known
// subscription status. File is the record's file name inside the accounts
// directory and is not serialized.
type SavedAccount struct {
	Email             string         `json:"email"`
	AccountType       string         `json:"account_type"`
	Membership        string         `json:"membership"`
	TrialStatus       string         `json:"trial_status"`
	ProTrialRemaining string         `json:"pro_trial_remaining"`
	SavedDate         string         `json:"saved_date"`
	RefreshOutcome    RefreshOutcome `json:"refresh_outcome,omitempty"`
	LastRefreshed     string         `json:"last_refreshed,omitempty"`
	RawData           CredentialSet  `json:"raw_data"`

	File string `json:"-"`
}

// ShortSavedDate returns the saved date truncated to second precision for display.
func (a SavedAccount) ShortSavedDate() string {
	if len(a.SavedDate) > 19 {
		return a.SavedDate[:19]
	}
	return a.SavedDate
}

// Matches reports whether the record has exactly the given identity.
func (a SavedAccount) Matches(email, savedDate string) bool {
	return a.Email == email && a.SavedDate == savedDate
}

// NewSavedAccount snapshots an account view taken at the given time.
func NewSavedAccount(view AccountView, savedAt time.Time) SavedAccount {
	raw := make(CredentialSet, len(view.Raw))
	for k, v := range view.Raw {
		raw[k] = v
	}
	return SavedAccount{
		Email:             view.Email,
		AccountType:       view.AccountType,
		Membership:        view.Membership,
		TrialStatus:       view.TrialStatus,
		ProTrialRemaining: view.TrialRemaining,
		SavedDate:         savedAt.Format(SavedDateLayout),
		RawData:           raw,
	}
}

// FileSafeEmail turns an email into a file-name-safe token: every run of
// characters other than letters, digits, '-' and '_' becomes a single '_'.
func FileSafeEmail(email string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.TrimSpace(email) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			b.WriteRune(r)
			lastUnderscore = r == '_'
			continue
		}
		if !lastUnderscore {
			b.WriteRune('_')
			lastUnderscore = true
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "unknown"
	}
	return out
}

// SavedAccountListing is the result of enumerating the accounts directory.
// Skipped names records that could not be parsed.
type SavedAccountListing struct {
	Accounts []SavedAccount
	Skipped  []SkippedRecord
}

// SkippedRecord names a record file that failed to parse.
type SkippedRecord struct {
	File string
	Err  error
}

// RefreshReport aggregates one bulk refresh pass over all saved accounts.
// Failed holds positions in Accounts, in order.
type RefreshReport struct {
	Accounts  []SavedAccount `json:"accounts"`
	Failed    []int          `json:"failed"`
	Skipped   []string       `json:"skipped,omitempty"`
	Total     int            `json:"total"`
	Processed int            `json:"processed"`
}

// IsFailed reports whether the account at position i failed to refresh.
func (r RefreshReport) IsFailed(i int) bool {
	for _, f := range r.Failed {
		if f == i {
			return true
		}
	}
	return false
}

// Masked returns a copy of the report whose raw credential sets have their
// tokens masked, for results that leave the process.
func (r RefreshReport) Masked() RefreshReport {
	out := r
	out.Accounts = make([]SavedAccount, len(r.Accounts))
	for i, a := range r.Accounts {
		a.RawData = a.RawData.Masked()
		out.Accounts[i] = a
	}
	out.Failed = slices.Clone(r.Failed)
	out.Skipped = slices.Clone(r.Skipped)
	return out
}
