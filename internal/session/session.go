// Package session tracks the client-side sign-in state. The manager moves
// between anonymous and authenticated and tells subscribers about every
// transition.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/groupspend/groupspend/internal/client"
	"github.com/groupspend/groupspend/internal/handler/dto"
)

var (
	// ErrWrongCredentials is returned when sign-in fails for any reason.
	ErrWrongCredentials = errors.New("Wrong Credentials")
	// ErrSignupFailed is returned when sign-up fails for any reason.
	ErrSignupFailed = errors.New("Signup Error")
)

// Status is the coarse sign-in state.
type Status string

const (
	StatusAnonymous     Status = "anonymous"
	StatusAuthenticated Status = "authenticated"
)

// Session is an active sign-in.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      dto.ProfileResponse
}

// State is a snapshot of the manager. Session is nil when anonymous.
type State struct {
	Status  Status
	Session *Session
}

// Authenticated reports whether a user is signed in.
func (s State) Authenticated() bool {
	return s.Status == StatusAuthenticated
}

// Token returns the bearer token, or "" when anonymous.
func (s State) Token() string {
	if s.Session == nil {
		return ""
	}
	return s.Session.Token
}

// API is the identity surface the manager needs.
type API interface {
	Login(ctx context.Context, email, password string) (*dto.AuthResponse, error)
	Signup(ctx context.Context, email, password, displayName string) (*dto.AuthResponse, error)
	Logout(ctx context.Context, token string) error
}

// Manager holds the current State. Safe for concurrent use.
type Manager struct {
	api    API
	logger *slog.Logger

	// notifyMu orders transitions with their delivery, so subscribers
	// see states in the order Current takes them.
	notifyMu sync.Mutex

	mu          sync.Mutex
	state       State
	nextID      int
	subscribers map[int]func(State)
}

// NewManager creates an anonymous Manager.
func NewManager(api API, logger *slog.Logger) *Manager {
	return &Manager{
		api:         api,
		logger:      logger.With("component", "session"),
		state:       State{Status: StatusAnonymous},
		subscribers: make(map[int]func(State)),
	}
}

// Current returns the current state.
func (m *Manager) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// OnChange registers fn to run after every transition. Transitions are
// delivered one at a time in order; fn may call Current but must not
// start another transition. The returned function unsubscribes it.
func (m *Manager) OnChange(fn func(State)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.subscribers[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subscribers, id)
	}
}

// Login signs in. On failure the state is unchanged.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	res, err := m.api.Login(ctx, email, password)
	if err != nil {
		m.logger.Warn("sign-in failed", "error", err)
		return ErrWrongCredentials
	}
	m.Notify(fromAuthResponse(res))
	return nil
}

// Signup registers and signs in. On failure the state is unchanged.
func (m *Manager) Signup(ctx context.Context, email, password string) error {
	res, err := m.api.Signup(ctx, email, password, "")
	if err != nil {
		m.logger.Warn("sign-up failed", "error", err)
		return ErrSignupFailed
	}
	m.Notify(fromAuthResponse(res))
	return nil
}

// Logout always ends anonymous. Revocation errors are logged.
func (m *Manager) Logout(ctx context.Context) {
	if token := m.Current().Token(); token != "" {
		if err := m.api.Logout(ctx, token); err != nil {
			m.logger.Warn("sign-out failed", "error", err)
		}
	}
	m.Notify(nil)
}

// Notify applies an external session change. nil means signed out.
func (m *Manager) Notify(s *Session) {
	next := State{Status: StatusAnonymous}
	if s != nil {
		copied := *s
		next = State{Status: StatusAuthenticated, Session: &copied}
	}

	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	m.mu.Lock()
	if sameState(m.state, next) {
		m.mu.Unlock()
		return
	}
	m.state = next
	subs := make([]func(State), 0, len(m.subscribers))
	for id := 0; id < m.nextID; id++ {
		if fn, ok := m.subscribers[id]; ok {
			subs = append(subs, fn)
		}
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
}

// HandleAPIError signs out when err is a 401 from the API. It reports
// whether it did.
func (m *Manager) HandleAPIError(err error) bool {
	if !errors.Is(err, client.ErrUnauthorized) {
		return false
	}
	m.Notify(nil)
	return true
}

func sameState(a, b State) bool {
	if a.Status != b.Status {
		return false
	}
	return a.Token() == b.Token()
}

func fromAuthResponse(res *dto.AuthResponse) *Session {
	return &Session{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		User:      res.User,
	}
}
