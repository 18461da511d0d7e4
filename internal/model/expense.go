package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire and storage format for expense dates.
const DateLayout = "2006-01-02"

// Expense is a shared cost recorded in a group.
// Only the creator (UserID) may update or delete it.
type Expense struct {
	ID          string          `json:"id"`
	GroupID     string          `json:"group_id"`
	UserID      string          `json:"user_id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Date        time.Time       `json:"date"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// IsOwnedBy reports whether userID created the expense.
func (e *Expense) IsOwnedBy(userID string) bool {
	return userID != "" && e.UserID == userID
}

// DateString formats Date in DateLayout.
func (e *Expense) DateString() string {
	if e.Date.IsZero() {
		return ""
	}
	return e.Date.Format(DateLayout)
}
