package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/groupspend/groupspend/internal/aggregate"
	"github.com/groupspend/groupspend/internal/model"
)

// ExpenseRequest is the body for creating or updating an expense.
// Amount accepts a JSON number or a numeric string.
type ExpenseRequest struct {
	UserID      string           `json:"user_id,omitempty"`
	Description string           `json:"description"`
	Amount      *decimal.Decimal `json:"amount"`
	Category    string           `json:"category"`
	Date        string           `json:"date"`
}

// DeleteExpenseRequest is the optional body of an expense deletion.
type DeleteExpenseRequest struct {
	UserID string `json:"user_id,omitempty"`
}

// ExpenseResponse represents an expense in API responses.
type ExpenseResponse struct {
	ID          string          `json:"id"`
	GroupID     string          `json:"group_id"`
	UserID      string          `json:"user_id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Date        string          `json:"date"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ExpenseDataResponse wraps a single expense.
type ExpenseDataResponse struct {
	Data ExpenseResponse `json:"data"`
}

// ExpenseUpdatedResponse is returned by a successful update.
type ExpenseUpdatedResponse struct {
	Message string          `json:"message"`
	Data    ExpenseResponse `json:"data"`
}

// ExpenseListResponse lists a group's expenses with recomputed totals.
type ExpenseListResponse struct {
	Expenses  []ExpenseResponse          `json:"expenses"`
	Total     decimal.Decimal            `json:"total"`
	PerMember map[string]decimal.Decimal `json:"per_member"`
}

// TotalResponse is the group total converted into a display currency.
type TotalResponse struct {
	Currency       string          `json:"currency"`
	Rate           decimal.Decimal `json:"rate"`
	Total          decimal.Decimal `json:"total"`
	ConvertedTotal decimal.Decimal `json:"converted_total"`
}

// ToExpenseResponse converts an Expense model to ExpenseResponse DTO.
func ToExpenseResponse(e *model.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:          e.ID,
		GroupID:     e.GroupID,
		UserID:      e.UserID,
		Description: e.Description,
		Amount:      e.Amount,
		Category:    e.Category,
		Date:        e.DateString(),
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

// ToExpenseListResponse converts expenses and their summary to the list DTO.
func ToExpenseListResponse(expenses []model.Expense, summary aggregate.Summary) ExpenseListResponse {
	out := make([]ExpenseResponse, 0, len(expenses))
	for i := range expenses {
		out = append(out, ToExpenseResponse(&expenses[i]))
	}
	perMember := summary.PerMember
	if perMember == nil {
		perMember = map[string]decimal.Decimal{}
	}
	return ExpenseListResponse{
		Expenses:  out,
		Total:     summary.Total,
		PerMember: perMember,
	}
}

// ToModel converts a response back to the domain model. Used by API clients.
func (r ExpenseResponse) ToModel() (model.Expense, error) {
	date, err := time.Parse(model.DateLayout, r.Date)
	if err != nil {
		return model.Expense{}, err
	}
	return model.Expense{
		ID:          r.ID,
		GroupID:     r.GroupID,
		UserID:      r.UserID,
		Description: r.Description,
		Amount:      r.Amount,
		Category:    r.Category,
		Date:        date,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}, nil
}
