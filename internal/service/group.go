package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/groupspend/groupspend/internal/metrics"
	"github.com/groupspend/groupspend/internal/model"
	"github.com/groupspend/groupspend/internal/repository"
)

// GroupService handles groups and their memberships.
type GroupService struct {
	groups   GroupStore
	profiles ProfileStore
	logger   *slog.Logger
	metrics  metrics.Recorder
}

// NewGroupService creates a new GroupService.
func NewGroupService(groups GroupStore, profiles ProfileStore, logger *slog.Logger, recorder metrics.Recorder) *GroupService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &GroupService{
		groups:   groups,
		profiles: profiles,
		logger:   logger.With("component", "groups"),
		metrics:  recorder,
	}
}

// CreateGroupInput defines input for creating a group.
type CreateGroupInput struct {
	Name        string
	Description string
	// AdminID is optional; when set it must be the caller.
	AdminID string
}

// CreateGroup creates a group administered by the caller together with the
// caller's admin membership.
func (s *GroupService) CreateGroup(ctx context.Context, caller model.Identity, input CreateGroupInput) (*model.Group, error) {
	if caller.IsZero() {
		return nil, ErrUnauthenticated
	}
	if err := checkClaimedUser(caller, input.AdminID); err != nil {
		return nil, err
	}

	name, description, err := validateGroupFields(input.Name, input.Description)
	if err != nil {
		return nil, err
	}

	group := &model.Group{
		ID:          newID(),
		Name:        name,
		Description: description,
		AdminID:     caller.UserID,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.groups.CreateGroupWithAdmin(ctx, group); err != nil {
		if errors.Is(err, repository.ErrReferenceNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}

	s.metrics.IncGroupCreated()
	s.logger.Info("group_created", "group_id", group.ID, "admin_id", group.AdminID)
	return group, nil
}

// GetGroup returns a group the caller belongs to.
func (s *GroupService) GetGroup(ctx context.Context, caller model.Identity, groupID string) (*model.Group, error) {
	group, _, err := s.requireMember(ctx, caller, groupID)
	return group, err
}

// ListGroups returns every group the caller is a member of.
func (s *GroupService) ListGroups(ctx context.Context, caller model.Identity) ([]*model.Group, error) {
	if caller.IsZero() {
		return nil, ErrUnauthenticated
	}
	return s.groups.ListGroupsForUser(ctx, caller.UserID)
}

// ListMembers returns the memberships of a group the caller belongs to.
func (s *GroupService) ListMembers(ctx context.Context, caller model.Identity, groupID string) ([]*model.Membership, error) {
	if _, _, err := s.requireMember(ctx, caller, groupID); err != nil {
		return nil, err
	}
	return s.groups.ListMemberships(ctx, groupID)
}

// InviteMember adds the profile registered under email as a member.
// Only the group admin may invite.
func (s *GroupService) InviteMember(ctx context.Context, caller model.Identity, groupID, email string) (*model.Membership, error) {
	groupID = strings.TrimSpace(groupID)
	email = model.NormalizeEmail(email)
	if groupID == "" || email == "" {
		return nil, ErrInviteFieldsRequired
	}

	if _, err := s.requireAdmin(ctx, caller, groupID, "member_invite"); err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetProfileByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	membership := &model.Membership{
		GroupID:   groupID,
		UserID:    profile.ID,
		Role:      model.RoleMember,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.groups.CreateMembership(ctx, membership); err != nil {
		if errors.Is(err, repository.ErrMembershipExists) {
			return nil, ErrAlreadyMember
		}
		return nil, err
	}

	s.metrics.IncMemberInvited()
	s.logger.Info("member_invited", "group_id", groupID, "user_id", profile.ID, "by", caller.UserID)
	return membership, nil
}

// RemoveMember deletes a membership. Only the group admin may remove
// members and the admin cannot be removed. Removing a non-member succeeds.
func (s *GroupService) RemoveMember(ctx context.Context, caller model.Identity, groupID, userID string) error {
	groupID = strings.TrimSpace(groupID)
	userID = strings.TrimSpace(userID)
	if groupID == "" || userID == "" {
		return ErrMemberFieldsRequired
	}

	group, err := s.requireAdmin(ctx, caller, groupID, "member_remove")
	if err != nil {
		return err
	}
	if group.IsAdmin(userID) {
		return ErrCannotRemoveAdmin
	}

	if err := s.groups.DeleteMembership(ctx, groupID, userID); err != nil {
		return err
	}

	s.metrics.IncMemberRemoved()
	s.logger.Info("member_removed", "group_id", groupID, "user_id", userID, "by", caller.UserID)
	return nil
}

// requireMember loads the group and the caller's membership in it.
func (s *GroupService) requireMember(ctx context.Context, caller model.Identity, groupID string) (*model.Group, *model.Membership, error) {
	return loadMembership(ctx, s.groups, caller, groupID)
}

func (s *GroupService) requireAdmin(ctx context.Context, caller model.Identity, groupID, op string) (*model.Group, error) {
	if caller.IsZero() {
		return nil, ErrUnauthenticated
	}
	group, err := s.groups.GetGroupByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, repository.ErrGroupNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	if !group.IsAdmin(caller.UserID) {
		s.metrics.IncForbidden(op)
		return nil, ErrNotAdmin
	}
	return group, nil
}

// loadMembership is shared by the group and expense services.
func loadMembership(ctx context.Context, groups GroupStore, caller model.Identity, groupID string) (*model.Group, *model.Membership, error) {
	if caller.IsZero() {
		return nil, nil, ErrUnauthenticated
	}
	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return nil, nil, ErrGroupIDRequired
	}

	group, err := groups.GetGroupByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, repository.ErrGroupNotFound) {
			return nil, nil, ErrGroupNotFound
		}
		return nil, nil, err
	}

	membership, err := groups.GetMembership(ctx, groupID, caller.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrMembershipNotFound) {
			return nil, nil, ErrNotMember
		}
		return nil, nil, err
	}

	return group, membership, nil
}
