package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/groupspend/groupspend/internal/auth"
	"github.com/groupspend/groupspend/internal/handler/dto"
	"github.com/groupspend/groupspend/internal/service"
)

// signupErrorMessage is the only failure message signup exposes.
const signupErrorMessage = "Signup Error"

// AuthHandler handles signup, login, logout and profile lookups.
type AuthHandler struct {
	svc    *service.IdentityService
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.IdentityService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		svc:    svc,
		logger: logger,
	}
}

// Signup handles POST /auth/signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req dto.SignupRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "SIGNUP_ERROR", signupErrorMessage)
		return
	}

	result, err := h.svc.Signup(r.Context(), service.SignupInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		h.logger.Warn("signup_failed", "error", err)
		writeError(w, http.StatusBadRequest, "SIGNUP_ERROR", signupErrorMessage)
		return
	}

	writeJSON(w, http.StatusOK, toAuthResponse(result))
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	result, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toAuthResponse(result))
}

// Logout handles POST /auth/logout. Revocation failures are logged and
// the response still reports success.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	caller := auth.IdentityFromContext(r.Context())
	if err := h.svc.Logout(r.Context(), caller); err != nil {
		h.logger.Error("logout_failed", "user_id", caller.UserID, "error", err)
	}
	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Signed out"})
}

// Session handles GET /auth/session.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	profile, err := h.svc.Me(r.Context(), auth.IdentityFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SessionResponse{User: dto.ToProfileResponse(profile)})
}

// Profiles handles GET /profiles?ids=a,b.
func (h *AuthHandler) Profiles(w http.ResponseWriter, r *http.Request) {
	var ids []string
	if raw := r.URL.Query().Get("ids"); raw != "" {
		ids = strings.Split(raw, ",")
	}

	profiles, err := h.svc.Profiles(r.Context(), auth.IdentityFromContext(r.Context()), ids)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToProfileListResponse(profiles))
}

func toAuthResponse(result *service.AuthResult) dto.AuthResponse {
	return dto.AuthResponse{
		Token:     result.Session.Token,
		ExpiresAt: result.Session.ExpiresAt,
		User:      dto.ToProfileResponse(result.Profile),
	}
}

