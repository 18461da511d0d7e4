package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/groupspend/groupspend/internal/auth"
	"github.com/groupspend/groupspend/internal/handler/dto"
	"github.com/groupspend/groupspend/internal/service"
)

// GroupHandler handles HTTP requests for groups and memberships.
type GroupHandler struct {
	svc    *service.GroupService
	logger *slog.Logger
}

// NewGroupHandler creates a new GroupHandler.
func NewGroupHandler(svc *service.GroupService, logger *slog.Logger) *GroupHandler {
	return &GroupHandler{
		svc:    svc,
		logger: logger,
	}
}

// Create handles POST /groups.
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateGroupRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	group, err := h.svc.CreateGroup(r.Context(), auth.IdentityFromContext(r.Context()), service.CreateGroupInput{
		Name:        req.Name,
		Description: req.Description,
		AdminID:     req.AdminID,
	})
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.GroupDataResponse{Data: dto.ToGroupResponse(group)})
}

// List handles GET /groups.
func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	groups, err := h.svc.ListGroups(r.Context(), auth.IdentityFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToGroupListResponse(groups))
}

// Get handles GET /groups/{groupId}.
func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	group, err := h.svc.GetGroup(r.Context(), auth.IdentityFromContext(r.Context()), chi.URLParam(r, "groupId"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.GroupDataResponse{Data: dto.ToGroupResponse(group)})
}

// Members handles GET /groups/{groupId}/members.
func (h *GroupHandler) Members(w http.ResponseWriter, r *http.Request) {
	members, err := h.svc.ListMembers(r.Context(), auth.IdentityFromContext(r.Context()), chi.URLParam(r, "groupId"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToMemberListResponse(members))
}

// Invite handles POST /groups/{groupId}/invite.
func (h *GroupHandler) Invite(w http.ResponseWriter, r *http.Request) {
	var req dto.InviteRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	_, err := h.svc.InviteMember(r.Context(), auth.IdentityFromContext(r.Context()), chi.URLParam(r, "groupId"), req.Email)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "User invited successfully"})
}

// RemoveMember handles DELETE /groups/{groupId}/members/{userId}.
func (h *GroupHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	err := h.svc.RemoveMember(r.Context(), auth.IdentityFromContext(r.Context()),
		chi.URLParam(r, "groupId"), chi.URLParam(r, "userId"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Member removed successfully"})
}
