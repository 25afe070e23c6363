package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for minimal images

	"github.com/ericfisherdev/cursorswitch/internal/config"
)

// cfg is loaded once by the root command before any subcommand runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:           "cursorswitch",
	Short:         "Save, restore and switch between editor accounts",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}

		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded

		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		slog.SetDefault(logger)

		slog.Debug("config loaded",
			"file", cfg.File,
			"state_db", cfg.StateDBPath,
			"accounts_dir", cfg.AccountsDir,
			"journal_db", cfg.JournalDBPath,
		)
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// newLogger builds the stderr logger for the configured level and format.
func newLogger(c *config.Config) (*slog.Logger, error) {
	level, err := c.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
}
