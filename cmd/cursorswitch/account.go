package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ericfisherdev/cursorswitch/internal/config"
	"github.com/ericfisherdev/cursorswitch/internal/domain/model"
	"github.com/ericfisherdev/cursorswitch/internal/domain/port/driven"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the account the editor is currently logged in with",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			view, err := a.svc.Current(cmd.Context())
			if err != nil {
				return explain(err)
			}
			printAccountView(cmd.OutOrStdout(), view)
			return nil
		})
	},
}

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show request usage for the current account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			usage, err := a.svc.Usage(cmd.Context())
			if err != nil {
				return explain(err)
			}
			printUsage(cmd.OutOrStdout(), usage)
			return nil
		})
	},
}

var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save the current account so it can be restored later",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			saved, err := a.svc.SaveCurrent(cmd.Context())
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s) to %s\n", saved.Email, saved.Membership, saved.File)
			return nil
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the current account's credentials from the editor",
	Long:  "Remove the current account's credentials from the editor. Close the editor first; restart it afterwards.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			if err := a.svc.Logout(cmd.Context()); err != nil {
				return explain(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out. Restart the editor to apply.")
			return nil
		})
	},
}

var loginFlags struct {
	email        string
	signUpType   string
	accessToken  string
	refreshToken string
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Write credentials entered by hand into the editor",
	Long: `Write credentials entered by hand into the editor.
Tokens not given as flags are prompted for without echo.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		in := bufio.NewReader(cmd.InOrStdin())
		input := model.ManualCredentials{
			Email:        loginFlags.email,
			AccessToken:  loginFlags.accessToken,
			RefreshToken: loginFlags.refreshToken,
			SignUpType:   loginFlags.signUpType,
		}

		var err error
		if input.Email == "" {
			if input.Email, err = prompt(cmd.ErrOrStderr(), in, "Email: ", false); err != nil {
				return err
			}
		}
		if input.AccessToken == "" {
			if input.AccessToken, err = prompt(cmd.ErrOrStderr(), in, "Access token: ", true); err != nil {
				return err
			}
		}
		if input.RefreshToken == "" {
			if input.RefreshToken, err = prompt(cmd.ErrOrStderr(), in, "Refresh token: ", true); err != nil {
				return err
			}
		}

		return withApp(cmd.Context(), func(a *app) error {
			if err := a.svc.ManualLogin(cmd.Context(), input); err != nil {
				return explain(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Credentials applied. Restart the editor to apply.")
			return nil
		})
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <path>",
	Short: "Export the current account to a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			export, err := a.svc.Export(cmd.Context(), args[0])
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", export.Email, args[0])
			return nil
		})
	},
}

// prompt reads one line. Secrets are read without echo when stdin is a
// terminal.
func prompt(out io.Writer, in *bufio.Reader, label string, secret bool) (string, error) {
	fmt.Fprint(out, label)

	fd := int(os.Stdin.Fd())
	if secret && term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// explain adds a user-facing hint to well-known errors.
func explain(err error) error {
	switch {
	case errors.Is(err, driven.ErrNotConnected):
		return fmt.Errorf("%w (is the editor installed? set %s to override the path)", err, config.EnvStateDB)
	case errors.Is(err, driven.ErrNoCredential):
		return fmt.Errorf("%w (log in to the editor first)", err)
	case errors.Is(err, driven.ErrTransaction):
		return fmt.Errorf("%w (close the editor and try again)", err)
	default:
		return err
	}
}

func init() {
	loginCmd.Flags().StringVar(&loginFlags.email, "email", "", "account email")
	loginCmd.Flags().StringVar(&loginFlags.signUpType, "signup-type", model.SignUpAuth0, "sign-up type: Auth_0, Google or GitHub")
	loginCmd.Flags().StringVar(&loginFlags.accessToken, "access-token", "", "access token (prompted when omitted)")
	loginCmd.Flags().StringVar(&loginFlags.refreshToken, "refresh-token", "", "refresh token (prompted when omitted)")

	rootCmd.AddCommand(statusCmd, usageCmd, saveCmd, logoutCmd, loginCmd, exportCmd)
}
