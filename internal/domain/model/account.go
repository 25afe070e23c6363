package model

import "time"

// AccountView is the current account as presented to the user: identity,
// subscription summary and the raw credential set it came from.
type AccountView struct {
	Email          string        `json:"email"`
	AccountType    string        `json:"account_type"`
	Membership     string        `json:"membership"`
	TrialStatus    string        `json:"trial_status"`
	TrialRemaining string        `json:"pro_trial_remaining"`
	Verified       bool          `json:"verified"`
	LastUpdated    time.Time     `json:"last_updated"`
	Raw            CredentialSet `json:"-"`
}

// NewAccountView combines the stored credential set with a live profile.
// A nil profile means the remote status could not be verified and the stored
// membership type is shown instead.
func NewAccountView(creds CredentialSet, profile *Profile, now time.Time) AccountView {
	view := AccountView{
		Email:       orNotFound(creds.Email()),
		AccountType: orNotFound(creds.SignUpType()),
		LastUpdated: now,
		Raw:         creds,
	}

	if profile == nil {
		view.Membership = orNotFound(creds[KeyMembershipType])
		view.TrialStatus = TrialUnavailable
		view.TrialRemaining = TrialUnavailableShort
		return view
	}

	summary := Summarize(profile, FirstFetch)
	view.Membership = summary.Membership
	view.TrialStatus = summary.TrialStatus
	view.TrialRemaining = summary.TrialRemaining
	view.Verified = true
	return view
}

// Export is the document written when exporting the current account.
type Export struct {
	ExportDate  string        `json:"export_date"`
	Email       string        `json:"email"`
	AccountType string        `json:"account_type"`
	Membership  string        `json:"membership"`
	TrialStatus string        `json:"trial_status"`
	RawData     CredentialSet `json:"raw_data"`
}

// NewExport builds the export document for a view.
func NewExport(view AccountView, at time.Time) Export {
	return Export{
		ExportDate:  at.Format(SavedDateLayout),
		Email:       view.Email,
		AccountType: view.AccountType,
		Membership:  view.Membership,
		TrialStatus: view.TrialStatus,
		RawData:     view.Raw,
	}
}

func orNotFound(s string) string {
	if s == "" {
		return MembershipNotFound
	}
	return s
}
