// Package worktime computes derived hour totals from work logs. Totals are
// never stored; callers recompute them from the current set of logs on
// every read. All arithmetic is exact decimal.
package worktime

import (
	"github.com/shopspring/decimal"

	"github.com/sumire/devtrack/internal/domain"
)

var (
	// Quarter is the smallest loggable amount of time.
	Quarter = decimal.New(25, -2)
	// Ceiling is the first value that no longer fits the hours column.
	Ceiling = decimal.New(1_000_000, 0)
)

// Sum returns the exact sum of the hours of logs. An empty set sums to zero.
func Sum(logs []domain.WorkLog) decimal.Decimal {
	total := decimal.Zero
	for _, l := range logs {
		total = total.Add(l.Hours)
	}
	return total
}

// ByIssue groups logs by issue and sums each group.
func ByIssue(logs []domain.WorkLog) map[int64]decimal.Decimal {
	totals := make(map[int64]decimal.Decimal)
	for _, l := range logs {
		totals[l.IssueID] = totals[l.IssueID].Add(l.Hours)
	}
	return totals
}

// ProjectTotal sums per-issue totals. It agrees with Sum over the same logs.
func ProjectTotal(issueTotals map[int64]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, t := range issueTotals {
		total = total.Add(t)
	}
	return total
}

// IssueTotal returns the total for issueID, zero when it has no logs.
func IssueTotal(issueTotals map[int64]decimal.Decimal, issueID int64) decimal.Decimal {
	if t, ok := issueTotals[issueID]; ok {
		return t
	}
	return decimal.Zero
}

// ValidateHours checks that h is at least a quarter hour and fits the
// storage column, which keeps two decimal places.
func ValidateHours(h decimal.Decimal) error {
	switch {
	case h.LessThan(Quarter):
		return &domain.ValidationError{Field: "hours", Message: "must be at least 0.25"}
	case !h.Truncate(2).Equal(h):
		return &domain.ValidationError{Field: "hours", Message: "must have at most two decimal places"}
	case !h.LessThan(Ceiling):
		return &domain.ValidationError{Field: "hours", Message: "is too large"}
	}
	return nil
}
