package dto

import (
	"time"

	"github.com/groupspend/groupspend/internal/model"
)

// CreateGroupRequest represents the request body for creating a group.
// AdminID is optional and must name the caller when present.
type CreateGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	AdminID     string `json:"admin_id,omitempty"`
}

// InviteRequest represents the request body for inviting a member.
type InviteRequest struct {
	Email string `json:"email"`
}

// GroupResponse represents a group in API responses.
type GroupResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	AdminID     string    `json:"admin_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// GroupDataResponse wraps a single group.
type GroupDataResponse struct {
	Data GroupResponse `json:"data"`
}

// GroupListResponse lists the caller's groups.
type GroupListResponse struct {
	Groups []GroupResponse `json:"groups"`
}

// MemberResponse is one membership row.
type MemberResponse struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// MemberListResponse lists a group's members.
type MemberListResponse struct {
	Members []MemberResponse `json:"members"`
}

// ToGroupResponse converts a Group model to GroupResponse DTO.
func ToGroupResponse(g *model.Group) GroupResponse {
	return GroupResponse{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		AdminID:     g.AdminID,
		CreatedAt:   g.CreatedAt,
	}
}

// ToGroupListResponse converts groups to the list DTO.
func ToGroupListResponse(groups []*model.Group) GroupListResponse {
	out := make([]GroupResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, ToGroupResponse(g))
	}
	return GroupListResponse{Groups: out}
}

// ToMemberListResponse converts memberships to the list DTO.
func ToMemberListResponse(members []*model.Membership) MemberListResponse {
	out := make([]MemberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, MemberResponse{UserID: m.UserID, Role: string(m.Role)})
	}
	return MemberListResponse{Members: out}
}
