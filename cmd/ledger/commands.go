package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ledger/internal/cli"
	"ledger/internal/core"
	"ledger/internal/ident"
	"ledger/internal/ledger"
	"ledger/internal/query"
	"ledger/internal/report"
)

func addCmd() *cobra.Command {
	var amount, date, category, note string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an expense",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := core.ParseMoney(amount)
			if err != nil {
				return err
			}
			return withApp(cmd, func(app *cli.App) error {
				d := core.DateOf(timeNow())
				if date != "" {
					if d, err = core.ParseDate(date); err != nil {
						return err
					}
				}
				rec, err := app.Store.Insert(cmd.Context(), core.NewRecord{Amount: m, Date: d, Category: category, Note: strings.TrimSpace(note)})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added expense %s: %s on %s (%s)\n",
					ident.Short(rec.ID), rec.Amount, rec.Date, rec.Category)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&amount, "amount", "a", "", "positive amount, e.g. 250.50")
	cmd.Flags().StringVarP(&date, "date", "d", "", "date as YYYY-MM-DD (default today)")
	cmd.Flags().StringVarP(&category, "category", "c", "", "category (default "+core.DefaultCategory+")")
	cmd.Flags().StringVarP(&note, "note", "n", "", "free-text note")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func listCmd() *cobra.Command {
	var category, dateRange string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"view"},
		Short:   "List expenses, optionally filtered",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(app *cli.App) error {
				filter := query.Filter{Category: category}
				if dateRange != "" {
					if r, ok := query.ParseDateRange(dateRange); ok {
						filter.Range = &r
					} else {
						fmt.Fprintln(cmd.ErrOrStderr(), "Invalid date range, ignoring date filter.")
					}
				}
				res := query.Apply(app.Store.Records(), filter)
				cli.PrintExpenses(cmd.OutOrStdout(), res.Rows, res.Total)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "only this category (case-insensitive)")
	cmd.Flags().StringVarP(&dateRange, "range", "r", "", `inclusive range, e.g. "2024-01-01 to 2024-01-31"`)
	return cmd
}

func updateCmd() *cobra.Command {
	var amount, date, category, note string

	cmd := &cobra.Command{
		Use:   "update <id-prefix>",
		Short: "Change fields of an expense; omitted flags keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch core.Patch
			flags := cmd.Flags()
			if flags.Changed("amount") {
				m, err := core.ParseMoney(amount)
				if err != nil {
					return err
				}
				patch.Amount = &m
			}
			if flags.Changed("date") {
				d, err := core.ParseDate(date)
				if err != nil {
					return err
				}
				patch.Date = &d
			}
			if flags.Changed("category") {
				patch.Category = &category
			}
			if flags.Changed("note") {
				note = strings.TrimSpace(note)
				patch.Note = &note
			}
			if patch.IsEmpty() {
				return errors.New("nothing to update: pass at least one of --amount, --date, --category, --note")
			}

			return withApp(cmd, func(app *cli.App) error {
				rec, err := app.Store.UpdateByPrefix(cmd.Context(), args[0], patch)
				if errors.Is(err, ledger.ErrNotFound) {
					return fmt.Errorf("expense %s: %w", args[0], err)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated expense %s\n", ident.Short(rec.ID))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&amount, "amount", "a", "", "new amount")
	cmd.Flags().StringVarP(&date, "date", "d", "", "new date as YYYY-MM-DD")
	cmd.Flags().StringVarP(&category, "category", "c", "", "new category")
	cmd.Flags().StringVarP(&note, "note", "n", "", "new note (may be empty)")
	return cmd
}

func deleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id-prefix>",
		Short: "Delete an expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(app *cli.App) error {
				rec, ok := app.Store.FindByIDPrefix(args[0])
				if !ok {
					return fmt.Errorf("expense %s: %w", args[0], ledger.ErrNotFound)
				}
				if !yes {
					fmt.Fprintf(cmd.OutOrStdout(), "Delete expense %s [%s on %s] ? (y/N): ", ident.Short(rec.ID), rec.Amount, rec.Date)
					var answer string
					if _, err := fmt.Fscanln(cmd.InOrStdin(), &answer); err != nil {
						// EOF, a blank line or a read failure all cancel.
						fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
						return nil
					}
					if !strings.EqualFold(strings.TrimSpace(answer), "y") {
						fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
						return nil
					}
				}
				if _, err := app.Store.Delete(cmd.Context(), rec.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted expense %s\n", ident.Short(rec.ID))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show totals by category and by month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(app *cli.App) error {
				records := app.Store.Records()
				if len(records) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No expenses found.")
					return nil
				}
				cli.PrintSummary(cmd.OutOrStdout(), report.Build(records))
				return nil
			})
		},
	}
}
