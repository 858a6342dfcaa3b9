package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"ledger/internal/cli"
)

var (
	overrides cli.Overrides
	timeNow   = time.Now
)

func main() {
	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "ledger",
		Short:        "Personal expense ledger",
		Long:         "Record expenses and report on them. Without a subcommand the interactive menu starts.",
		SilenceUsage: true,
		RunE:         runMenu,
	}

	rootCmd.PersistentFlags().StringVar(&overrides.Backend, "backend", "", "storage backend: json, sqlite or memory (env LEDGER_BACKEND)")
	rootCmd.PersistentFlags().StringVar(&overrides.DataFile, "file", "", "JSON data file (env LEDGER_DATA_FILE)")
	rootCmd.PersistentFlags().StringVar(&overrides.SQLiteDBPath, "db", "", "SQLite database path (env LEDGER_SQLITE_PATH)")
	rootCmd.PersistentFlags().StringVar(&overrides.LogLevel, "log-level", "", "debug, info, warn or error (env LOG_LEVEL)")

	rootCmd.AddCommand(menuCmd())
	rootCmd.AddCommand(addCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(updateCmd())
	rootCmd.AddCommand(deleteCmd())
	rootCmd.AddCommand(summaryCmd())

	return rootCmd
}

// withApp bootstraps the ledger for one command and closes it afterwards.
func withApp(cmd *cobra.Command, fn func(app *cli.App) error) error {
	app, err := cli.Bootstrap(cmd.Context(), overrides, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := app.Close(); cerr != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "close ledger: %v\n", cerr)
		}
	}()
	return fn(app)
}

func runMenu(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(app *cli.App) error {
		shell := cli.NewShell(app.Store, cmd.InOrStdin(), cmd.OutOrStdout(), app.Logger)
		return shell.Run(cmd.Context())
	})
}

func menuCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Start the interactive menu",
		Args:  cobra.NoArgs,
		RunE:  runMenu,
	}
}
