package cli

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"ledger/internal/core"
	"ledger/internal/ident"
)

// ExpenseHeaders are the column titles of an expense listing.
var ExpenseHeaders = []string{"ID", "Date", "Amount", "Category", "Note"}

// PrintTable writes rows as left-aligned columns joined by " | " under a
// header and a "-+-" separator line.
func PrintTable(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, r := range rows {
		for i := range headers {
			if i < len(r) {
				if n := utf8.RuneCountInString(r[i]); n > widths[i] {
					widths[i] = n
				}
			}
		}
	}

	line := func(cells []string) string {
		parts := make([]string, len(headers))
		for i := range headers {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			parts[i] = pad(cell, widths[i])
		}
		return strings.Join(parts, " | ")
	}

	fmt.Fprintln(w, line(headers))
	seps := make([]string, len(headers))
	for i, n := range widths {
		seps[i] = strings.Repeat("-", n)
	}
	fmt.Fprintln(w, strings.Join(seps, "-+-"))
	for _, r := range rows {
		fmt.Fprintln(w, line(r))
	}
}

func pad(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// ExpenseRows formats records for PrintTable using short ids.
func ExpenseRows(records []core.Record) [][]string {
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string{ident.Short(r.ID), r.Date.String(), r.Amount.String(), r.Category, r.Note}
	}
	return rows
}

// PrintExpenses prints a listing followed by its total, or a notice when empty.
func PrintExpenses(w io.Writer, records []core.Record, total core.Money) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No expenses match the filters.")
		return
	}
	PrintTable(w, ExpenseHeaders, ExpenseRows(records))
	fmt.Fprintf(w, "\nTotal (shown): %s\n", total)
}

// PrintSummary prints the grand total and both breakdowns.
func PrintSummary(w io.Writer, s core.Summary) {
	fmt.Fprintf(w, "Total spent: %s\n\n", s.Total)

	fmt.Fprintln(w, "By category:")
	rows := make([][]string, len(s.ByCategory))
	for i, c := range s.ByCategory {
		rows[i] = []string{c.Name, c.Amount.String()}
	}
	PrintTable(w, []string{"Category", "Amount"}, rows)

	fmt.Fprintln(w, "\nBy month:")
	rows = make([][]string, len(s.ByMonth))
	for i, m := range s.ByMonth {
		rows[i] = []string{m.Month, m.Amount.String()}
	}
	PrintTable(w, []string{"Month", "Amount"}, rows)
}

func shortID(r core.Record) string {
	return ident.Short(r.ID)
}
