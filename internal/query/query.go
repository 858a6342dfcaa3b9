// Package query filters a read-only view of the collection by category and
// date range and totals the result.
package query

import (
	"sort"
	"strings"

	"ledger/internal/core"
)

// RangeSeparator splits the two bounds of a textual date range.
const RangeSeparator = "to"

// DateRange is inclusive on both ends.
type DateRange struct {
	Start core.Date
	End   core.Date
}

// Contains reports whether start <= d <= end.
func (r DateRange) Contains(d core.Date) bool {
	return r.Start.Compare(d) <= 0 && d.Compare(r.End) <= 0
}

func (r DateRange) String() string {
	return r.Start.String() + " " + RangeSeparator + " " + r.End.String()
}

// ParseDateRange reads "YYYY-MM-DD to YYYY-MM-DD". ok is false when the input
// does not split into exactly two bounds or either bound is not a valid date;
// callers then drop the range filter instead of failing.
func ParseDateRange(s string) (DateRange, bool) {
	parts := strings.Split(s, RangeSeparator)
	if len(parts) != 2 {
		return DateRange{}, false
	}
	start, err := core.ParseDate(parts[0])
	if err != nil {
		return DateRange{}, false
	}
	end, err := core.ParseDate(parts[1])
	if err != nil {
		return DateRange{}, false
	}
	return DateRange{Start: start, End: end}, true
}

// Filter restricts a query. Zero values mean no restriction.
type Filter struct {
	Category string
	Range    *DateRange
}

// Matches reports whether r passes the filter.
func (f Filter) Matches(r core.Record) bool {
	if c := strings.TrimSpace(f.Category); c != "" && !strings.EqualFold(r.Category, c) {
		return false
	}
	if f.Range != nil && !f.Range.Contains(r.Date) {
		return false
	}
	return true
}

// Result holds the matching rows sorted by date and their total.
type Result struct {
	Rows  []core.Record
	Total core.Money
}

// Apply returns the records matching f, ordered by ascending date. Records on
// the same date keep their collection order. records is not modified.
func Apply(records []core.Record, f Filter) Result {
	rows := make([]core.Record, 0, len(records))
	var total core.Money
	for _, r := range records {
		if !f.Matches(r) {
			continue
		}
		rows = append(rows, r)
		total = total.Add(r.Amount)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Date.Compare(rows[j].Date) < 0
	})
	return Result{Rows: rows, Total: total}
}
