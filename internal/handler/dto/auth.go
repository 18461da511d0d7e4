package dto

import (
	"time"

	"github.com/groupspend/groupspend/internal/model"
)

// SignupRequest represents the request body for signing up.
type SignupRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name,omitempty"`
}

// LoginRequest represents the request body for signing in.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfileResponse is the public view of a profile.
type ProfileResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// AuthResponse is returned by signup and login.
type AuthResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	User      ProfileResponse `json:"user"`
}

// SessionResponse describes the current session's user.
type SessionResponse struct {
	User ProfileResponse `json:"user"`
}

// ProfileListResponse lists profiles for display.
type ProfileListResponse struct {
	Profiles []ProfileResponse `json:"profiles"`
}

// ToProfileResponse converts a Profile model to ProfileResponse DTO.
func ToProfileResponse(p *model.Profile) ProfileResponse {
	return ProfileResponse{
		ID:          p.ID,
		Email:       p.Email,
		DisplayName: p.DisplayName,
	}
}

// ToProfileListResponse converts profiles to the list DTO.
func ToProfileListResponse(profiles []*model.Profile) ProfileListResponse {
	out := make([]ProfileResponse, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, ToProfileResponse(p))
	}
	return ProfileListResponse{Profiles: out}
}
