// Package report aggregates the full collection by category and by month.
package report

import (
	"sort"

	"ledger/internal/core"
)

// ByCategory sums amounts per category, largest first. Equal sums keep the
// order in which the categories first appear.
func ByCategory(records []core.Record) []core.CategoryAmount {
	index := make(map[string]int)
	var out []core.CategoryAmount
	for _, r := range records {
		i, ok := index[r.Category]
		if !ok {
			i = len(out)
			index[r.Category] = i
			out = append(out, core.CategoryAmount{Name: r.Category})
		}
		out[i].Amount = out[i].Amount.Add(r.Amount)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount.Cents > out[j].Amount.Cents
	})
	return out
}

// ByMonth sums amounts per YYYY-MM, oldest month first.
func ByMonth(records []core.Record) []core.MonthAmount {
	index := make(map[string]int)
	var out []core.MonthAmount
	for _, r := range records {
		key := r.Date.MonthKey()
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, core.MonthAmount{Month: key})
		}
		out[i].Amount = out[i].Amount.Add(r.Amount)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Month < out[j].Month
	})
	return out
}

// Total sums every amount.
func Total(records []core.Record) core.Money {
	var total core.Money
	for _, r := range records {
		total = total.Add(r.Amount)
	}
	return total
}

// Build assembles the full summary report.
func Build(records []core.Record) core.Summary {
	return core.Summary{
		Total:      Total(records),
		Count:      len(records),
		ByCategory: ByCategory(records),
		ByMonth:    ByMonth(records),
	}
}
