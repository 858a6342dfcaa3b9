package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCommandsEndToEnd(t *testing.T) {
	file := filepath.Join(t.TempDir(), "expenses.json")
	base := []string{"--backend", "json", "--file", file}
	timeNow = func() time.Time { return time.Date(2024, 1, 20, 8, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { timeNow = time.Now })

	run := func(stdin string, args ...string) string {
		t.Helper()
		out, err := execute(t, stdin, append(append([]string{}, args...), base...)...)
		if err != nil {
			t.Fatalf("%v: %v\n%s", args, err, out)
		}
		return out
	}

	run("", "add", "--amount", "10", "--date", "2024-01-05", "--category", "Food", "--note", "lunch")
	run("", "add", "--amount", "5.50", "--category", "food")
	run("", "add", "-a", "20", "-d", "2024-02-01", "-c", "Travel")

	var stored []struct {
		ID     string  `json:"id"`
		Amount float64 `json:"amount"`
		Date   string  `json:"date"`
	}
	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := json.Unmarshal(data, &stored); err != nil || len(stored) != 3 {
		t.Fatalf("unexpected document (err=%v):\n%s", err, data)
	}
	if stored[1].Date != "2024-01-20" {
		t.Fatalf("date should default to today, got %s", stored[1].Date)
	}

	out := run("", "list", "--category", "FOOD", "--range", "2024-01-01 to 2024-01-31")
	if !strings.Contains(out, "Total (shown): 15.50") || strings.Contains(out, "Travel") {
		t.Fatalf("unexpected list output:\n%s", out)
	}

	out = run("", "summary")
	if !strings.Contains(out, "Total spent: 35.50") {
		t.Fatalf("unexpected summary:\n%s", out)
	}

	travel := stored[2].ID[:8]
	run("", "update", travel, "--amount", "25", "--note", "")
	out = run("", "list", "-c", "travel")
	if !strings.Contains(out, "25.00") {
		t.Fatalf("update not visible:\n%s", out)
	}

	out = run("n\n", "delete", travel)
	if !strings.Contains(out, "Cancelled.") {
		t.Fatalf("expected cancellation:\n%s", out)
	}
	for _, in := range []string{"", "\n"} {
		out = run(in, "delete", travel)
		if !strings.Contains(out, "Cancelled.") {
			t.Fatalf("expected cancellation on input %q:\n%s", in, out)
		}
	}
	if out = run("", "list"); !strings.Contains(out, travel) {
		t.Fatalf("cancelled delete removed the record:\n%s", out)
	}
	run("", "delete", travel, "--yes")
	out = run("", "list")
	if strings.Contains(out, travel) {
		t.Fatalf("deleted record still listed:\n%s", out)
	}
}

func TestCommandErrors(t *testing.T) {
	file := filepath.Join(t.TempDir(), "expenses.json")
	base := []string{"--backend", "json", "--file", file}

	cases := [][]string{
		{"add", "--amount", "0"},
		{"add", "--amount", "10", "--date", "2024-02-30"},
		{"update", "deadbeef", "--amount", "1"},
		{"update", "deadbeef"},
		{"delete", "deadbeef", "--yes"},
	}
	for _, args := range cases {
		if _, err := execute(t, "", append(args, base...)...); err == nil {
			t.Fatalf("%v: expected error", args)
		}
	}

	if _, err := execute(t, "", "list", "--backend", "nosuch"); err == nil {
		t.Fatalf("expected configuration error for unknown backend")
	}
}

func TestMenuCommand(t *testing.T) {
	file := filepath.Join(t.TempDir(), "expenses.json")
	out, err := execute(t, "1\n12\n2024-03-03\nBooks\n\n6\n", "--backend", "json", "--file", file)
	if err != nil {
		t.Fatalf("menu: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Expense added successfully") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	data, _ := os.ReadFile(file)
	if !strings.Contains(string(data), `"category": "Books"`) {
		t.Fatalf("menu add not persisted:\n%s", data)
	}
}
