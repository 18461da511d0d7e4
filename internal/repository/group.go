package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/groupspend/groupspend/internal/model"
	"github.com/jackc/pgx/v5"
)

// Common errors for group repository operations.
var (
	ErrGroupNotFound     = errors.New("group not found")
	ErrReferenceNotFound = errors.New("referenced row does not exist")
)

// CreateGroupWithAdmin inserts the group and the creator's admin membership
// in a single transaction.
func (r *Repository) CreateGroupWithAdmin(ctx context.Context, g *model.Group) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(ctx, `
		INSERT INTO groups (id, name, description, admin_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, g.ID, g.Name, g.Description, g.AdminID, g.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrReferenceNotFound
		}
		return fmt.Errorf("failed to create group: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO memberships (group_id, user_id, role, created_at)
		VALUES ($1, $2, $3, $4)
	`, g.ID, g.AdminID, model.RoleAdmin, g.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create admin membership: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit group: %w", err)
	}
	return nil
}

// GetGroupByID retrieves a group by its ID.
func (r *Repository) GetGroupByID(ctx context.Context, id string) (*model.Group, error) {
	query := `
		SELECT id, name, description, admin_id, created_at
		FROM groups
		WHERE id = $1
	`

	var g model.Group
	err := r.pool.QueryRow(ctx, query, id).Scan(&g.ID, &g.Name, &g.Description, &g.AdminID, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to get group by ID: %w", err)
	}
	return &g, nil
}

// ListGroupsForUser returns every group the user is a member of, newest first.
func (r *Repository) ListGroupsForUser(ctx context.Context, userID string) ([]*model.Group, error) {
	query := `
		SELECT g.id, g.name, g.description, g.admin_id, g.created_at
		FROM groups g
		JOIN memberships m ON m.group_id = g.id
		WHERE m.user_id = $1
		ORDER BY g.created_at DESC, g.id DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	groups := []*model.Group{}
	for rows.Next() {
		var g model.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.AdminID, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating groups: %w", err)
	}
	return groups, nil
}
