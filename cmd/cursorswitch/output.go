package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/ericfisherdev/cursorswitch/internal/domain/model"
)

func printAccountView(out io.Writer, view model.AccountView) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Email:\t%s\n", view.Email)
	fmt.Fprintf(w, "Account type:\t%s\n", view.AccountType)
	fmt.Fprintf(w, "Membership:\t%s\n", view.Membership)
	fmt.Fprintf(w, "Trial status:\t%s\n", view.TrialStatus)
	fmt.Fprintf(w, "Pro trial:\t%s\n", view.TrialRemaining)
	fmt.Fprintf(w, "Last updated:\t%s\n", view.LastUpdated.Format(time.DateTime))
	w.Flush()

	if !view.Verified {
		fmt.Fprintln(out, "\nSubscription status could not be verified; showing stored values.")
	}
}

func printUsage(out io.Writer, usage *model.Usage) {
	if usage == nil {
		fmt.Fprintln(out, "Usage information unavailable")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Premium requests:\t%d / %d\n", usage.PremiumUsage, usage.MaxPremiumUsage)
	fmt.Fprintf(w, "Basic requests:\t%d / %s\n", usage.BasicUsage, usage.MaxBasicUsage)
	w.Flush()
}

func printListing(out io.Writer, listing model.SavedAccountListing) {
	if len(listing.Accounts) == 0 {
		fmt.Fprintln(out, "No saved accounts")
	} else {
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, " \t#\tEMAIL\tTYPE\tMEMBERSHIP\tTRIAL\tSAVED")
		for i, a := range listing.Accounts {
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
				failedMark(a.RefreshOutcome.Failed()), i+1, a.Email, a.AccountType, a.Membership, a.ProTrialRemaining, a.SavedDate)
		}
		w.Flush()
	}
	printSkipped(out, listing.Skipped)
}

func printSkipped(out io.Writer, skipped []model.SkippedRecord) {
	for _, sk := range skipped {
		fmt.Fprintf(out, "skipped %s: %v\n", sk.File, sk.Err)
	}
}

func printRefreshReport(out io.Writer, report model.RefreshReport) {
	if report.Total == 0 {
		fmt.Fprintln(out, "No saved accounts")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, " \t#\tEMAIL\tMEMBERSHIP\tTRIAL\tRESULT")
	for i, a := range report.Accounts {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\n",
			failedMark(report.IsFailed(i)), i+1, a.Email, a.Membership, a.ProTrialRemaining, a.RefreshOutcome)
	}
	w.Flush()

	for _, file := range report.Skipped {
		fmt.Fprintf(out, "skipped %s: unreadable record\n", file)
	}
	fmt.Fprintf(out, "\nRefreshed %d/%d accounts", report.Processed, report.Total)
	if n := len(report.Failed); n > 0 {
		fmt.Fprintf(out, ", %d failed", n)
	}
	fmt.Fprintln(out)
}

func printHistory(out io.Writer, entries []model.JournalEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "No recorded operations")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tACTION\tEMAIL\tRESULT\tDETAIL")
	for _, e := range entries {
		result := "ok"
		if !e.Succeeded {
			result = "failed"
		}
		email := e.Email
		if email == "" {
			email = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.Timestamp.Local().Format(time.DateTime), e.Action, email, result, e.Detail)
	}
	w.Flush()
}

// failedMark is the marker column of account tables.
func failedMark(failed bool) string {
	if failed {
		return "!"
	}
	return " "
}
