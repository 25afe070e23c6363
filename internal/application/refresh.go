package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ericfisherdev/cursorswitch/internal/domain/model"
)

// RefreshAll re-fetches the subscription status of every saved record using
// the token stored in the record itself. Successful records are rewritten
// immediately; failed ones are flagged in the report and left unchanged on
// disk. One record's failure never stops the batch. Concurrent calls run one
// after the other.
func (s *AccountService) RefreshAll(ctx context.Context) (model.RefreshReport, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	start := time.Now()

	listing, err := s.accounts.List(ctx)
	if err != nil {
		err = fmt.Errorf("list saved accounts: %w", err)
		s.record(ctx, model.ActionRefreshAll, "", err, "")
		return model.RefreshReport{}, err
	}

	report := model.RefreshReport{
		Accounts: make([]model.SavedAccount, 0, len(listing.Accounts)),
		Failed:   []int{},
		Total:    len(listing.Accounts) + len(listing.Skipped),
	}
	for _, sk := range listing.Skipped {
		report.Skipped = append(report.Skipped, sk.File)
	}

	for i, account := range listing.Accounts {
		account = s.refreshOne(ctx, account)
		if account.RefreshOutcome.Failed() {
			report.Failed = append(report.Failed, i)
		} else {
			report.Processed++
		}
		report.Accounts = append(report.Accounts, account)
	}

	slog.Info("saved accounts refreshed",
		"total", report.Total,
		"processed", report.Processed,
		"failed", len(report.Failed),
		"skipped", len(report.Skipped),
		"duration", time.Since(start).Round(time.Millisecond),
	)

	s.record(ctx, model.ActionRefreshAll, "", nil,
		fmt.Sprintf("refreshed %d/%d saved accounts", report.Processed, report.Total))
	return report, nil
}

// refreshOne refreshes a single record and returns it with its outcome set.
func (s *AccountService) refreshOne(ctx context.Context, account model.SavedAccount) model.SavedAccount {
	token := account.RawData.Token()
	if token == "" {
		account.Membership = model.MembershipNoToken
		account.RefreshOutcome = model.RefreshNoToken
		slog.Warn("saved account has no token", "email", account.Email, "file", account.File)
		return account
	}

	profile := s.client.FetchProfile(ctx, token)
	if profile == nil {
		account.Membership = model.MembershipAPIError
		account.RefreshOutcome = model.RefreshRemoteError
		slog.Warn("saved account refresh failed", "email", account.Email, "file", account.File)
		return account
	}

	summary := model.Summarize(profile, model.RefreshPass)
	account.Membership = summary.Membership
	account.TrialStatus = summary.TrialStatus
	account.ProTrialRemaining = summary.TrialRemaining
	account.RefreshOutcome = model.RefreshSucceeded
	account.LastRefreshed = s.now().Format(model.SavedDateLayout)

	if err := s.accounts.Rewrite(ctx, account); err != nil {
		account.RefreshOutcome = model.RefreshStorageFailed
		slog.Error("saved account rewrite failed", "email", account.Email, "file", account.File, "error", err)
	}
	return account
}
