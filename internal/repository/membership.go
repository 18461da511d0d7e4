package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/groupspend/groupspend/internal/model"
	"github.com/jackc/pgx/v5"
)

// Common errors for membership repository operations.
var (
	ErrMembershipNotFound = errors.New("membership not found")
	ErrMembershipExists   = errors.New("membership already exists")
)

// CreateMembership adds a user to a group.
func (r *Repository) CreateMembership(ctx context.Context, m *model.Membership) error {
	query := `
		INSERT INTO memberships (group_id, user_id, role, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.pool.Exec(ctx, query, m.GroupID, m.UserID, m.Role, m.CreatedAt)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return ErrMembershipExists
		case isForeignKeyViolation(err):
			return ErrReferenceNotFound
		}
		return fmt.Errorf("failed to create membership: %w", err)
	}
	return nil
}

// GetMembership retrieves the membership of userID in groupID.
func (r *Repository) GetMembership(ctx context.Context, groupID, userID string) (*model.Membership, error) {
	query := `
		SELECT group_id, user_id, role, created_at
		FROM memberships
		WHERE group_id = $1 AND user_id = $2
	`

	var m model.Membership
	err := r.pool.QueryRow(ctx, query, groupID, userID).Scan(&m.GroupID, &m.UserID, &m.Role, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMembershipNotFound
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return &m, nil
}

// ListMemberships returns the memberships of a group in join order.
func (r *Repository) ListMemberships(ctx context.Context, groupID string) ([]*model.Membership, error) {
	query := `
		SELECT group_id, user_id, role, created_at
		FROM memberships
		WHERE group_id = $1
		ORDER BY created_at, user_id
	`

	rows, err := r.pool.Query(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer rows.Close()

	memberships := []*model.Membership{}
	for rows.Next() {
		var m model.Membership
		if err := rows.Scan(&m.GroupID, &m.UserID, &m.Role, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		memberships = append(memberships, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating memberships: %w", err)
	}
	return memberships, nil
}

// DeleteMembership removes userID from groupID. Removing a non-member is a no-op.
func (r *Repository) DeleteMembership(ctx context.Context, groupID, userID string) error {
	query := `DELETE FROM memberships WHERE group_id = $1 AND user_id = $2`

	if _, err := r.pool.Exec(ctx, query, groupID, userID); err != nil {
		return fmt.Errorf("failed to delete membership: %w", err)
	}
	return nil
}
