package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/cursorswitch/internal/application"
	"github.com/ericfisherdev/cursorswitch/internal/domain/model"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List saved accounts",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			listing, err := a.svc.List(cmd.Context())
			if err != nil {
				return err
			}
			printListing(cmd.OutOrStdout(), listing)
			return nil
		})
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore (<index> | <email> <saved-date>)",
	Short: "Restore a saved account into the editor",
	Long: `Restore a saved account into the editor. The account is named either by
its index in "cursorswitch list" or by its email and full saved date.
Close the editor first; restart it afterwards.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			email, savedDate, err := resolveAccount(cmd.Context(), a.svc, args)
			if err != nil {
				return err
			}
			if err := a.svc.Restore(cmd.Context(), email, savedDate); err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %s. Restart the editor to apply.\n", email)
			return nil
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete (<index> | <email> <saved-date>)",
	Aliases: []string{"rm"},
	Short:   "Delete a saved account record",
	Args:    cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			email, savedDate, err := resolveAccount(cmd.Context(), a.svc, args)
			if err != nil {
				return err
			}
			if err := a.svc.Delete(cmd.Context(), email, savedDate); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s saved %s\n", email, savedDate)
			return nil
		})
	},
}

var refreshAllCmd = &cobra.Command{
	Use:   "refresh-all",
	Short: "Refresh the subscription status of every saved account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			report, err := a.svc.RefreshAll(cmd.Context())
			if err != nil {
				return err
			}
			printRefreshReport(cmd.OutOrStdout(), report)
			return nil
		})
	},
}

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent operations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			entries, err := a.svc.History(cmd.Context(), historyLimit)
			if err != nil {
				return err
			}
			printHistory(cmd.OutOrStdout(), entries)
			return nil
		})
	},
}

// resolveAccount turns either a 1-based list index or an email and saved
// date into the identity of a saved record.
func resolveAccount(ctx context.Context, svc *application.AccountService, args []string) (string, string, error) {
	if len(args) == 2 {
		return args[0], args[1], nil
	}

	index, err := strconv.Atoi(args[0])
	if err != nil {
		return "", "", fmt.Errorf("expected an index or an email and saved date, got %q", args[0])
	}

	listing, err := svc.List(ctx)
	if err != nil {
		return "", "", err
	}
	account, err := accountAt(listing, index)
	if err != nil {
		return "", "", err
	}
	return account.Email, account.SavedDate, nil
}

// accountAt returns the account shown at the 1-based index by "list".
func accountAt(listing model.SavedAccountListing, index int) (model.SavedAccount, error) {
	if index < 1 || index > len(listing.Accounts) {
		return model.SavedAccount{}, fmt.Errorf("no saved account at index %d (have %d)", index, len(listing.Accounts))
	}
	return listing.Accounts[index-1], nil
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of entries to show")

	rootCmd.AddCommand(listCmd, restoreCmd, deleteCmd, refreshAllCmd, historyCmd)
}
