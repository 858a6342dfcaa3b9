package cli

import (
	"bytes"
	"strings"
	"testing"

	"ledger/internal/core"
)

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	PrintTable(&buf, []string{"Category", "Amount"}, [][]string{
		{"Travel", "20.00"},
		{"Food", "15.00"},
	})
	want := "Category | Amount\n" +
		"---------+-------\n" +
		"Travel   | 20.00 \n" +
		"Food     | 15.00 \n"
	if buf.String() != want {
		t.Fatalf("unexpected table\n got:\n%q\nwant:\n%q", buf.String(), want)
	}
}

func TestPrintExpenses(t *testing.T) {
	var buf bytes.Buffer
	recs := []core.Record{{
		ID:       "0123456789abcdef0123456789abcdef",
		Amount:   core.Money{Cents: 1550},
		Date:     core.NewDate(2024, 1, 5),
		Category: "Food",
		Note:     "café",
	}}
	PrintExpenses(&buf, recs, core.Money{Cents: 1550})
	out := buf.String()
	if !strings.Contains(out, "01234567 | 2024-01-05 | 15.50  | Food     | café") {
		t.Fatalf("unexpected row:\n%s", out)
	}
	if strings.Contains(out, "89abcdef") {
		t.Fatalf("full id should not be shown:\n%s", out)
	}
	if !strings.HasSuffix(out, "Total (shown): 15.50\n") {
		t.Fatalf("missing total:\n%s", out)
	}

	buf.Reset()
	PrintExpenses(&buf, nil, core.Money{})
	if buf.String() != "No expenses match the filters.\n" {
		t.Fatalf("unexpected empty output %q", buf.String())
	}
}
