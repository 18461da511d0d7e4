package model

import "time"

// Role is a member's role within a group.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// IsValid checks if the role is one of the known roles.
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleMember
}

// Group is a set of users sharing expenses.
// AdminID is set at creation and never changes.
type Group struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	AdminID     string    `json:"admin_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsAdmin returns true if userID owns the group.
func (g *Group) IsAdmin(userID string) bool {
	return g.AdminID == userID
}

// Membership links a user to a group. A user has at most one membership
// per group.
type Membership struct {
	GroupID   string    `json:"group_id"`
	UserID    string    `json:"user_id"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
