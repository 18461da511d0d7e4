// Package aggregate derives group totals from an expense list.
//
// Totals are always recomputed with a full fold over the current list.
// Callers never patch a previous total with a delta.
package aggregate

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/groupspend/groupspend/internal/model"
)

// Summary holds the derived totals for one group.
type Summary struct {
	Total     decimal.Decimal
	PerMember map[string]decimal.Decimal
}

// ParseAmount reads a stored amount for folding. Empty or non-numeric
// input yields zero. Form input is validated by the caller instead.
func ParseAmount(raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Total returns the sum of all expense amounts.
func Total(expenses []model.Expense) decimal.Decimal {
	total := decimal.Zero
	for i := range expenses {
		total = total.Add(expenses[i].Amount)
	}
	return total
}

// PerMember sums expense amounts grouped by creator.
func PerMember(expenses []model.Expense) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for i := range expenses {
		e := &expenses[i]
		totals[e.UserID] = totals[e.UserID].Add(e.Amount)
	}
	return totals
}

// Summarize computes the group total and the per-member totals.
func Summarize(expenses []model.Expense) Summary {
	return Summary{
		Total:     Total(expenses),
		PerMember: PerMember(expenses),
	}
}

// MemberTotal returns the total for userID, zero if the user has no expenses.
func (s Summary) MemberTotal(userID string) decimal.Decimal {
	if v, ok := s.PerMember[userID]; ok {
		return v
	}
	return decimal.Zero
}

// Convert multiplies an amount by an exchange rate, rounded to cents.
func Convert(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Round(2)
}
