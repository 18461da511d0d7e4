package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/groupspend/groupspend/internal/aggregate"
	"github.com/groupspend/groupspend/internal/metrics"
	"github.com/groupspend/groupspend/internal/model"
	"github.com/groupspend/groupspend/internal/repository"
	"github.com/shopspring/decimal"
)

// RateSource quotes exchange rates against the ledger currency.
type RateSource interface {
	Rate(ctx context.Context, currency string) (decimal.Decimal, error)
}

// ExpenseService handles expense business logic.
type ExpenseService struct {
	expenses ExpenseStore
	groups   GroupStore
	rates    RateSource
	logger   *slog.Logger
	metrics  metrics.Recorder
}

// NewExpenseService creates a new ExpenseService. rates may be nil when
// currency conversion is not configured.
func NewExpenseService(expenses ExpenseStore, groups GroupStore, rates RateSource, logger *slog.Logger, recorder metrics.Recorder) *ExpenseService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &ExpenseService{
		expenses: expenses,
		groups:   groups,
		rates:    rates,
		logger:   logger.With("component", "expenses"),
		metrics:  recorder,
	}
}

// CreateExpense records an expense paid by the caller in a group they belong to.
func (s *ExpenseService) CreateExpense(ctx context.Context, caller model.Identity, groupID string, input ExpenseInput) (*model.Expense, error) {
	if _, _, err := loadMembership(ctx, s.groups, caller, groupID); err != nil {
		return nil, err
	}

	v, err := validateExpense(input)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	expense := &model.Expense{
		ID:          newID(),
		GroupID:     strings.TrimSpace(groupID),
		UserID:      caller.UserID,
		Description: v.description,
		Amount:      v.amount,
		Category:    v.category,
		Date:        v.date,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.expenses.CreateExpense(ctx, expense); err != nil {
		if errors.Is(err, repository.ErrInvalidAmount) {
			return nil, fmt.Errorf("%w: amount out of range", ErrInvalidExpense)
		}
		return nil, err
	}

	s.metrics.IncExpenseCreated()
	s.logger.Info("expense_created", "expense_id", expense.ID, "group_id", expense.GroupID, "user_id", caller.UserID)
	return expense, nil
}

// ListExpenses returns a group's expenses with totals recomputed from the
// full list.
func (s *ExpenseService) ListExpenses(ctx context.Context, caller model.Identity, groupID string) ([]model.Expense, aggregate.Summary, error) {
	if _, _, err := loadMembership(ctx, s.groups, caller, groupID); err != nil {
		return nil, aggregate.Summary{}, err
	}

	rows, err := s.expenses.ListExpensesByGroup(ctx, strings.TrimSpace(groupID))
	if err != nil {
		return nil, aggregate.Summary{}, err
	}

	expenses := make([]model.Expense, len(rows))
	for i, e := range rows {
		expenses[i] = *e
	}
	return expenses, aggregate.Summarize(expenses), nil
}

// UpdateExpenseInput defines input for updating an expense.
type UpdateExpenseInput struct {
	ExpenseInput
	// UserID is optional; when set it must be the caller.
	UserID string
}

// UpdateExpense replaces the fields of an expense the caller created.
// A non-creator gets ErrForbidden and nothing changes.
func (s *ExpenseService) UpdateExpense(ctx context.Context, caller model.Identity, expenseID string, input UpdateExpenseInput) (*model.Expense, error) {
	expense, err := s.ownedExpense(ctx, caller, expenseID, input.UserID, "expense_update")
	if err != nil {
		return nil, err
	}

	v, err := validateExpense(input.ExpenseInput)
	if err != nil {
		return nil, err
	}

	expense.Description = v.description
	expense.Amount = v.amount
	expense.Category = v.category
	expense.Date = v.date
	expense.UpdatedAt = time.Now().UTC()

	if err := s.expenses.UpdateExpense(ctx, expense); err != nil {
		switch {
		case errors.Is(err, repository.ErrExpenseNotFound):
			return nil, ErrExpenseNotFound
		case errors.Is(err, repository.ErrInvalidAmount):
			return nil, fmt.Errorf("%w: amount out of range", ErrInvalidExpense)
		}
		return nil, err
	}

	s.metrics.IncExpenseUpdated()
	s.logger.Info("expense_updated", "expense_id", expense.ID, "group_id", expense.GroupID, "user_id", caller.UserID)
	return expense, nil
}

// DeleteExpense removes an expense the caller created.
// claimedUserID is optional; when set it must be the caller.
func (s *ExpenseService) DeleteExpense(ctx context.Context, caller model.Identity, expenseID, claimedUserID string) error {
	expense, err := s.ownedExpense(ctx, caller, expenseID, claimedUserID, "expense_delete")
	if err != nil {
		return err
	}

	if err := s.expenses.DeleteExpense(ctx, expense.ID); err != nil {
		if errors.Is(err, repository.ErrExpenseNotFound) {
			return ErrExpenseNotFound
		}
		return err
	}

	s.metrics.IncExpenseDeleted()
	s.logger.Info("expense_deleted", "expense_id", expense.ID, "group_id", expense.GroupID, "user_id", caller.UserID)
	return nil
}

// ownedExpense fetches an expense and checks that the caller created it.
func (s *ExpenseService) ownedExpense(ctx context.Context, caller model.Identity, expenseID, claimedUserID, op string) (*model.Expense, error) {
	if caller.IsZero() {
		return nil, ErrUnauthenticated
	}
	if err := checkClaimedUser(caller, claimedUserID); err != nil {
		s.metrics.IncForbidden(op)
		return nil, err
	}

	expenseID = strings.TrimSpace(expenseID)
	if expenseID == "" {
		return nil, ErrExpenseNotFound
	}

	expense, err := s.expenses.GetExpenseByID(ctx, expenseID)
	if err != nil {
		if errors.Is(err, repository.ErrExpenseNotFound) {
			return nil, ErrExpenseNotFound
		}
		return nil, err
	}

	if !expense.IsOwnedBy(caller.UserID) {
		s.metrics.IncForbidden(op)
		s.logger.Warn("expense mutation rejected", "op", op, "expense_id", expense.ID, "user_id", caller.UserID)
		return nil, ErrForbidden
	}

	return expense, nil
}

// ConvertedTotal is a group total expressed in another currency.
type ConvertedTotal struct {
	Currency       string
	Rate           decimal.Decimal
	Total          decimal.Decimal
	ConvertedTotal decimal.Decimal
}

// GroupTotal returns the group total converted into currency. An empty
// currency means the ledger currency.
func (s *ExpenseService) GroupTotal(ctx context.Context, caller model.Identity, groupID, currency string) (*ConvertedTotal, error) {
	_, summary, err := s.ListExpenses(ctx, caller, groupID)
	if err != nil {
		return nil, err
	}

	code := strings.ToUpper(strings.TrimSpace(currency))
	rate := decimal.NewFromInt(1)
	if code == "" {
		code = LedgerCurrency
	}
	if code != LedgerCurrency {
		if s.rates == nil {
			return nil, ErrConversionUnavailable
		}
		if rate, err = s.rates.Rate(ctx, code); err != nil {
			return nil, err
		}
	}

	return &ConvertedTotal{
		Currency:       code,
		Rate:           rate,
		Total:          summary.Total,
		ConvertedTotal: aggregate.Convert(summary.Total, rate),
	}, nil
}
