package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"ledger/internal/core"
	"ledger/internal/ledger"
	applog "ledger/internal/log"
	"ledger/internal/query"
	"ledger/internal/report"
)

// Shell is the interactive text menu. It validates input, re-prompting on
// bad amounts and dates, and forwards typed values to the store.
type Shell struct {
	store  *ledger.Store
	in     *bufio.Scanner
	out    io.Writer
	now    func() time.Time
	logger *applog.Logger
}

func NewShell(store *ledger.Store, in io.Reader, out io.Writer, logger *applog.Logger) *Shell {
	if logger == nil {
		cfg := applog.DefaultConfig()
		cfg.Component = ""
		logger = applog.New(cfg)
	}
	return &Shell{
		store:  store,
		in:     bufio.NewScanner(in),
		out:    out,
		now:    time.Now,
		logger: logger.WithComponent(applog.ComponentShell),
	}
}

// Run shows the menu until the user exits, input ends or ctx is cancelled.
// Only persistence failures are returned.
func (s *Shell) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprintln(s.out, "\n=== Personal Expense Tracker ===")
		fmt.Fprintln(s.out, "1) Add expense")
		fmt.Fprintln(s.out, "2) View expenses")
		fmt.Fprintln(s.out, "3) Update expense")
		fmt.Fprintln(s.out, "4) Delete expense")
		fmt.Fprintln(s.out, "5) Summary report")
		fmt.Fprintln(s.out, "6) Exit")
		choice, err := s.prompt("Choose (1-6): ")
		if err != nil {
			return nil
		}

		switch choice {
		case "1":
			err = s.add(ctx)
		case "2":
			err = s.view()
		case "3":
			err = s.update(ctx)
		case "4":
			err = s.delete(ctx)
		case "5":
			s.summary()
		case "6":
			fmt.Fprintln(s.out, "Goodbye!")
			return nil
		default:
			fmt.Fprintln(s.out, "Invalid option. Choose 1-6.")
		}

		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (s *Shell) prompt(label string) (string, error) {
	fmt.Fprint(s.out, label)
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(s.in.Text()), nil
}

func (s *Shell) add(ctx context.Context) error {
	fmt.Fprintln(s.out, "\n-- Add Expense --")

	var amount core.Money
	for {
		raw, err := s.prompt("Amount: ")
		if err != nil {
			return err
		}
		if amount, err = core.ParseMoney(raw); err == nil {
			break
		}
		fmt.Fprintln(s.out, "Please enter a positive number (e.g., 250.50).")
	}

	var date core.Date
	for {
		raw, err := s.prompt("Date (YYYY-MM-DD) [leave blank = today]: ")
		if err != nil {
			return err
		}
		if raw == "" {
			date = core.DateOf(s.now())
			break
		}
		if date, err = core.ParseDate(raw); err == nil {
			break
		}
		fmt.Fprintln(s.out, "Date must be in YYYY-MM-DD format.")
	}

	category, err := s.prompt("Category (optional, e.g., Food, Travel): ")
	if err != nil {
		return err
	}
	note, err := s.prompt("Note (optional): ")
	if err != nil {
		return err
	}

	rec, err := s.store.Insert(ctx, core.NewRecord{Amount: amount, Date: date, Category: category, Note: note})
	if core.IsValidation(err) {
		fmt.Fprintf(s.out, "Rejected: %v\n", err)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Expense added successfully (%s).\n", shortID(rec))
	return nil
}

func (s *Shell) view() error {
	fmt.Fprintln(s.out, "\n-- View Expenses --")
	if s.store.Len() == 0 {
		fmt.Fprintln(s.out, "No expenses found.")
		return nil
	}

	category, err := s.prompt("Filter by category (leave blank to skip): ")
	if err != nil {
		return err
	}
	rawRange, err := s.prompt("Filter by date range (YYYY-MM-DD to YYYY-MM-DD) leave blank to skip: ")
	if err != nil {
		return err
	}

	filter := query.Filter{Category: category}
	if rawRange != "" {
		if r, ok := query.ParseDateRange(rawRange); ok {
			filter.Range = &r
		} else if strings.Count(rawRange, query.RangeSeparator) != 1 {
			fmt.Fprintln(s.out, "Invalid date range format, ignoring date filter.")
		} else {
			fmt.Fprintln(s.out, "Invalid date range, ignoring date filter.")
		}
	}

	res := query.Apply(s.store.Records(), filter)
	PrintExpenses(s.out, res.Rows, res.Total)
	return nil
}

// pick lists the expenses and asks for a short id. ok is false when the user
// cancelled or nothing matched; both cases are already reported.
func (s *Shell) pick(action string) (core.Record, bool, error) {
	if err := s.view(); err != nil {
		return core.Record{}, false, err
	}
	prefix, err := s.prompt(fmt.Sprintf("Enter ID (first 8 characters) of expense to %s (leave blank to cancel): ", action))
	if err != nil {
		return core.Record{}, false, err
	}
	if prefix == "" {
		fmt.Fprintln(s.out, "Cancelled.")
		return core.Record{}, false, nil
	}
	rec, ok := s.store.FindByIDPrefix(prefix)
	if !ok {
		fmt.Fprintln(s.out, "Expense not found.")
		return core.Record{}, false, nil
	}
	return rec, true, nil
}

func (s *Shell) update(ctx context.Context) error {
	fmt.Fprintln(s.out, "\n-- Update Expense --")
	if s.store.Len() == 0 {
		fmt.Fprintln(s.out, "No expenses found.")
		return nil
	}
	rec, ok, err := s.pick("update")
	if err != nil || !ok {
		return err
	}

	fmt.Fprintln(s.out, "Press Enter to keep current value.")
	var patch core.Patch

	for {
		raw, err := s.prompt(fmt.Sprintf("Amount [%s]: ", rec.Amount))
		if err != nil {
			return err
		}
		if raw == "" {
			break
		}
		if m, err := core.ParseMoney(raw); err == nil {
			patch.Amount = &m
			break
		}
		fmt.Fprintln(s.out, "Enter a positive number.")
	}

	for {
		raw, err := s.prompt(fmt.Sprintf("Date [%s]: ", rec.Date))
		if err != nil {
			return err
		}
		if raw == "" {
			break
		}
		if d, err := core.ParseDate(raw); err == nil {
			patch.Date = &d
			break
		}
		fmt.Fprintln(s.out, "Date must be YYYY-MM-DD.")
	}

	category, err := s.prompt(fmt.Sprintf("Category [%s]: ", rec.Category))
	if err != nil {
		return err
	}
	if category != "" {
		patch.Category = &category
	}
	note, err := s.prompt(fmt.Sprintf("Note [%s]: ", rec.Note))
	if err != nil {
		return err
	}
	if note != "" {
		patch.Note = &note
	}

	_, err = s.store.Update(ctx, rec.ID, patch)
	switch {
	case core.IsValidation(err):
		fmt.Fprintf(s.out, "Rejected: %v\n", err)
		return nil
	case errors.Is(err, ledger.ErrNotFound):
		fmt.Fprintln(s.out, "Expense not found.")
		return nil
	case err != nil:
		return err
	}
	fmt.Fprintln(s.out, "Expense updated.")
	return nil
}

func (s *Shell) delete(ctx context.Context) error {
	fmt.Fprintln(s.out, "\n-- Delete Expense --")
	if s.store.Len() == 0 {
		fmt.Fprintln(s.out, "No expenses found.")
		return nil
	}
	rec, ok, err := s.pick("delete")
	if err != nil || !ok {
		return err
	}

	answer, err := s.prompt(fmt.Sprintf("Delete expense %s [%s on %s] ? (y/N): ", shortID(rec), rec.Amount, rec.Date))
	if err != nil {
		return err
	}
	if !strings.EqualFold(answer, "y") {
		fmt.Fprintln(s.out, "Cancelled.")
		return nil
	}

	_, err = s.store.Delete(ctx, rec.ID)
	if errors.Is(err, ledger.ErrNotFound) {
		fmt.Fprintln(s.out, "Expense not found.")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Expense deleted.")
	return nil
}

func (s *Shell) summary() {
	fmt.Fprintln(s.out, "\n-- Summary Report --")
	records := s.store.Records()
	if len(records) == 0 {
		fmt.Fprintln(s.out, "No expenses found.")
		return
	}
	s.logger.Debug("Summary requested", applog.FieldOperation, applog.OpSummary, applog.FieldCount, len(records))
	PrintSummary(s.out, report.Build(records))
}
