package core

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// MonthAmount represents an amount aggregated by calendar month (YYYY-MM).
type MonthAmount struct {
	Month  string
	Amount Money
}

// Summary is the whole-ledger report: grand total plus both breakdowns.
type Summary struct {
	Total      Money
	Count      int
	ByCategory []CategoryAmount
	ByMonth    []MonthAmount
}
