package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/groupspend/groupspend/internal/model"
	"github.com/jackc/pgx/v5"
)

// Common errors for expense repository operations.
var (
	ErrExpenseNotFound = errors.New("expense not found")
	ErrInvalidAmount   = errors.New("amount violates constraint")
)

const expenseColumns = `id, group_id, user_id, description, amount, category, date, created_at, updated_at`

// CreateExpense inserts a new expense.
func (r *Repository) CreateExpense(ctx context.Context, e *model.Expense) error {
	query := `
		INSERT INTO expenses (` + expenseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		e.ID,
		e.GroupID,
		e.UserID,
		e.Description,
		e.Amount,
		e.Category,
		e.Date,
		e.CreatedAt,
		e.UpdatedAt,
	)
	if err != nil {
		switch {
		case isForeignKeyViolation(err):
			return ErrReferenceNotFound
		case isCheckViolation(err):
			return ErrInvalidAmount
		}
		return fmt.Errorf("failed to create expense: %w", err)
	}
	return nil
}

// GetExpenseByID retrieves an expense by its ID.
func (r *Repository) GetExpenseByID(ctx context.Context, id string) (*model.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = $1`

	e, err := scanExpense(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExpenseNotFound
		}
		return nil, fmt.Errorf("failed to get expense by ID: %w", err)
	}
	return e, nil
}

// ListExpensesByGroup returns a group's expenses, most recent date first.
func (r *Repository) ListExpensesByGroup(ctx context.Context, groupID string) ([]*model.Expense, error) {
	query := `
		SELECT ` + expenseColumns + `
		FROM expenses
		WHERE group_id = $1
		ORDER BY date DESC, created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	expenses := []*model.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expenses: %w", err)
	}
	return expenses, nil
}

// UpdateExpense replaces the mutable fields of an expense.
func (r *Repository) UpdateExpense(ctx context.Context, e *model.Expense) error {
	query := `
		UPDATE expenses
		SET description = $2, amount = $3, category = $4, date = $5, updated_at = $6
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		e.ID,
		e.Description,
		e.Amount,
		e.Category,
		e.Date,
		e.UpdatedAt,
	)
	if err != nil {
		if isCheckViolation(err) {
			return ErrInvalidAmount
		}
		return fmt.Errorf("failed to update expense: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrExpenseNotFound
	}
	return nil
}

// DeleteExpense removes an expense.
func (r *Repository) DeleteExpense(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrExpenseNotFound
	}
	return nil
}

func scanExpense(row pgx.Row) (*model.Expense, error) {
	var e model.Expense
	err := row.Scan(
		&e.ID,
		&e.GroupID,
		&e.UserID,
		&e.Description,
		&e.Amount,
		&e.Category,
		&e.Date,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
