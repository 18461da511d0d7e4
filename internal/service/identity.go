package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/groupspend/groupspend/internal/auth"
	"github.com/groupspend/groupspend/internal/cache"
	"github.com/groupspend/groupspend/internal/metrics"
	"github.com/groupspend/groupspend/internal/model"
	"github.com/groupspend/groupspend/internal/repository"
)

// maxProfileLookup caps the ids accepted by Profiles.
const maxProfileLookup = 100

// IdentityService registers users and manages their sessions.
type IdentityService struct {
	profiles ProfileStore
	sessions SessionStore
	hasher   *auth.PasswordHasher
	tokens   *auth.TokenManager
	logger   *slog.Logger
	metrics  metrics.Recorder
}

// NewIdentityService creates a new IdentityService.
func NewIdentityService(profiles ProfileStore, sessions SessionStore, hasher *auth.PasswordHasher, tokens *auth.TokenManager, logger *slog.Logger, recorder metrics.Recorder) *IdentityService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &IdentityService{
		profiles: profiles,
		sessions: sessions,
		hasher:   hasher,
		tokens:   tokens,
		logger:   logger.With("component", "identity"),
		metrics:  recorder,
	}
}

// SignupInput defines input for registering a user.
type SignupInput struct {
	Email       string
	Password    string
	DisplayName string
}

// AuthResult is a freshly issued session and its owner.
type AuthResult struct {
	Session model.Session
	Profile *model.Profile
}

// Signup registers a profile and signs it in.
func (s *IdentityService) Signup(ctx context.Context, input SignupInput) (*AuthResult, error) {
	result, err := s.signup(ctx, input)
	if err != nil {
		s.metrics.IncSignUp(metrics.OutcomeFailure)
		return nil, err
	}
	s.metrics.IncSignUp(metrics.OutcomeSuccess)
	return result, nil
}

func (s *IdentityService) signup(ctx context.Context, input SignupInput) (*AuthResult, error) {
	email, err := validateEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	displayName := strings.TrimSpace(input.DisplayName)
	if displayName == "" {
		displayName = email[:strings.IndexByte(email, '@')]
	}

	profile := &model.Profile{
		ID:           newID(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.profiles.CreateProfile(ctx, profile); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	s.logger.Info("profile_created", "user_id", profile.ID)
	return s.startSession(ctx, profile)
}

// Login verifies credentials and issues a session. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *IdentityService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	profile, err := s.profiles.GetProfileByEmail(ctx, model.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			s.metrics.IncSignIn(metrics.OutcomeFailure)
			return nil, ErrWrongCredentials
		}
		return nil, err
	}

	ok, err := s.hasher.Verify(password, profile.PasswordHash)
	if err != nil || !ok {
		if err != nil {
			s.logger.Warn("stored password hash unreadable", "user_id", profile.ID, "error", err)
		}
		s.metrics.IncSignIn(metrics.OutcomeFailure)
		return nil, ErrWrongCredentials
	}

	result, err := s.startSession(ctx, profile)
	if err != nil {
		return nil, err
	}
	s.metrics.IncSignIn(metrics.OutcomeSuccess)
	return result, nil
}

func (s *IdentityService) startSession(ctx context.Context, profile *model.Profile) (*AuthResult, error) {
	sessionID := newID()
	token, expiresAt, err := s.tokens.Issue(sessionID, profile.ID, profile.Email)
	if err != nil {
		return nil, err
	}

	rec := &cache.SessionRecord{UserID: profile.ID, Email: profile.Email, ExpiresAt: expiresAt}
	if err := s.sessions.PutSession(ctx, sessionID, rec); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	s.logger.Info("session_started", "user_id", profile.ID, "session_id", sessionID)
	return &AuthResult{
		Session: model.Session{
			ID:        sessionID,
			UserID:    profile.ID,
			Email:     profile.Email,
			Token:     token,
			ExpiresAt: expiresAt,
		},
		Profile: profile,
	}, nil
}

// Logout revokes the caller's session. Revoking twice is not an error.
func (s *IdentityService) Logout(ctx context.Context, caller model.Identity) error {
	if caller.SessionID == "" {
		return nil
	}
	if err := s.sessions.DeleteSession(ctx, caller.SessionID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	s.logger.Info("session_ended", "user_id", caller.UserID, "session_id", caller.SessionID)
	return nil
}

// Verify resolves a bearer token to the caller identity. The token must be
// validly signed, unexpired and not revoked.
func (s *IdentityService) Verify(ctx context.Context, token string) (model.Identity, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return model.Identity{}, ErrUnauthenticated
	}

	rec, err := s.sessions.GetSession(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return model.Identity{}, ErrUnauthenticated
		}
		return model.Identity{}, fmt.Errorf("load session: %w", err)
	}
	if rec.UserID != claims.UserID {
		return model.Identity{}, ErrUnauthenticated
	}

	return model.Identity{UserID: claims.UserID, Email: claims.Email, SessionID: claims.ID}, nil
}

// Me returns the caller's profile.
func (s *IdentityService) Me(ctx context.Context, caller model.Identity) (*model.Profile, error) {
	if caller.IsZero() {
		return nil, ErrUnauthenticated
	}
	profile, err := s.profiles.GetProfileByID(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	return profile, nil
}

// Profiles looks up profiles by id for display. Unknown ids are skipped.
func (s *IdentityService) Profiles(ctx context.Context, caller model.Identity, ids []string) ([]*model.Profile, error) {
	if caller.IsZero() {
		return nil, ErrUnauthenticated
	}

	clean := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			clean = append(clean, id)
		}
	}
	if len(clean) > maxProfileLookup {
		clean = clean[:maxProfileLookup]
	}

	return s.profiles.GetProfilesByIDs(ctx, clean)
}
