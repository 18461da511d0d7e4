package service

import (
	"context"

	"github.com/groupspend/groupspend/internal/cache"
	"github.com/groupspend/groupspend/internal/model"
)

// ProfileStore persists user profiles.
type ProfileStore interface {
	CreateProfile(ctx context.Context, p *model.Profile) error
	GetProfileByID(ctx context.Context, id string) (*model.Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (*model.Profile, error)
	GetProfilesByIDs(ctx context.Context, ids []string) ([]*model.Profile, error)
}

// GroupStore persists groups and memberships.
type GroupStore interface {
	CreateGroupWithAdmin(ctx context.Context, g *model.Group) error
	GetGroupByID(ctx context.Context, id string) (*model.Group, error)
	ListGroupsForUser(ctx context.Context, userID string) ([]*model.Group, error)
	CreateMembership(ctx context.Context, m *model.Membership) error
	GetMembership(ctx context.Context, groupID, userID string) (*model.Membership, error)
	ListMemberships(ctx context.Context, groupID string) ([]*model.Membership, error)
	DeleteMembership(ctx context.Context, groupID, userID string) error
}

// ExpenseStore persists expenses.
type ExpenseStore interface {
	CreateExpense(ctx context.Context, e *model.Expense) error
	GetExpenseByID(ctx context.Context, id string) (*model.Expense, error)
	ListExpensesByGroup(ctx context.Context, groupID string) ([]*model.Expense, error)
	UpdateExpense(ctx context.Context, e *model.Expense) error
	DeleteExpense(ctx context.Context, id string) error
}

// SessionStore keeps issued sessions so they can be revoked.
type SessionStore interface {
	PutSession(ctx context.Context, sessionID string, rec *cache.SessionRecord) error
	GetSession(ctx context.Context, sessionID string) (*cache.SessionRecord, error)
	DeleteSession(ctx context.Context, sessionID string) error
}
