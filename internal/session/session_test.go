package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/groupspend/groupspend/internal/apitest"
	"github.com/groupspend/groupspend/internal/client"
	"github.com/groupspend/groupspend/internal/handler/dto"
)

type fakeAPI struct {
	loginErr  error
	signupErr error
	logoutErr error
	loggedOut []string
}

func (f *fakeAPI) Login(_ context.Context, email, _ string) (*dto.AuthResponse, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &dto.AuthResponse{Token: "tok-" + email, ExpiresAt: time.Now().Add(time.Hour), User: dto.ProfileResponse{ID: "u1", Email: email}}, nil
}

func (f *fakeAPI) Signup(_ context.Context, email, _, _ string) (*dto.AuthResponse, error) {
	if f.signupErr != nil {
		return nil, f.signupErr
	}
	return &dto.AuthResponse{Token: "new-" + email, User: dto.ProfileResponse{ID: "u2", Email: email}}, nil
}

func (f *fakeAPI) Logout(_ context.Context, token string) error {
	f.loggedOut = append(f.loggedOut, token)
	return f.logoutErr
}

func newTestManager(api API) *Manager {
	return NewManager(api, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type recorder struct {
	mu     sync.Mutex
	states []State
}

func (r *recorder) record(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *recorder) statuses() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Status, len(r.states))
	for i, s := range r.states {
		out[i] = s.Status
	}
	return out
}

func TestManager_LoginLogout(t *testing.T) {
	api := &fakeAPI{logoutErr: errors.New("network down")}
	m := newTestManager(api)
	rec := &recorder{}
	m.OnChange(rec.record)

	if m.Current().Authenticated() {
		t.Fatal("new manager is authenticated")
	}

	if err := m.Login(context.Background(), "a@example.com", "pw"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	cur := m.Current()
	if !cur.Authenticated() || cur.Token() != "tok-a@example.com" || cur.Session.User.Email != "a@example.com" {
		t.Fatalf("state after login = %+v", cur)
	}

	m.Logout(context.Background())
	if m.Current().Authenticated() {
		t.Fatal("still authenticated after logout")
	}
	if len(api.loggedOut) != 1 || api.loggedOut[0] != "tok-a@example.com" {
		t.Errorf("revoked tokens = %v", api.loggedOut)
	}

	got := rec.statuses()
	want := []Status{StatusAuthenticated, StatusAnonymous}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("transitions = %v, want %v", got, want)
	}
}

func TestManager_Failures(t *testing.T) {
	api := &fakeAPI{
		loginErr:  &client.APIError{Status: http.StatusUnauthorized, Message: "Wrong Credentials"},
		signupErr: errors.New("connection refused"),
	}
	m := newTestManager(api)
	rec := &recorder{}
	m.OnChange(rec.record)

	if err := m.Login(context.Background(), "a@example.com", "bad"); !errors.Is(err, ErrWrongCredentials) {
		t.Errorf("Login() error = %v, want ErrWrongCredentials", err)
	}
	if err := m.Signup(context.Background(), "a@example.com", "pw"); !errors.Is(err, ErrSignupFailed) {
		t.Errorf("Signup() error = %v, want ErrSignupFailed", err)
	}
	if m.Current().Status != StatusAnonymous {
		t.Errorf("status = %s, want anonymous", m.Current().Status)
	}
	if len(rec.statuses()) != 0 {
		t.Errorf("failed calls notified subscribers: %v", rec.statuses())
	}

	// Logout while anonymous neither calls the API nor notifies.
	m.Logout(context.Background())
	if len(api.loggedOut) != 0 || len(rec.statuses()) != 0 {
		t.Errorf("anonymous logout had effects: %v %v", api.loggedOut, rec.statuses())
	}
}

func TestManager_NotifyAndUnsubscribe(t *testing.T) {
	m := newTestManager(&fakeAPI{})
	rec := &recorder{}
	unsubscribe := m.OnChange(rec.record)

	s := &Session{Token: "t1", User: dto.ProfileResponse{ID: "u1"}}
	m.Notify(s)
	m.Notify(s) // no transition
	m.Notify(&Session{Token: "t2", User: dto.ProfileResponse{ID: "u1"}})

	if got := len(rec.statuses()); got != 2 {
		t.Fatalf("notifications = %d, want 2", got)
	}

	if !m.HandleAPIError(&client.APIError{Status: http.StatusUnauthorized}) {
		t.Error("HandleAPIError(401) = false")
	}
	if m.HandleAPIError(&client.APIError{Status: http.StatusForbidden}) {
		t.Error("HandleAPIError(403) = true")
	}
	if m.Current().Authenticated() {
		t.Error("401 did not sign out")
	}

	unsubscribe()
	m.Notify(s)
	if got := len(rec.statuses()); got != 3 {
		t.Errorf("notifications after unsubscribe = %d, want 3", got)
	}
}

func TestManager_AgainstAPI(t *testing.T) {
	env := apitest.NewServer(t)
	m := newTestManager(client.New(env.URL()))
	ctx := context.Background()

	if err := m.Signup(ctx, "a@example.com", "secret-pw"); err != nil {
		t.Fatalf("Signup() error = %v", err)
	}
	if err := m.Signup(ctx, "a@example.com", "secret-pw"); !errors.Is(err, ErrSignupFailed) {
		t.Errorf("duplicate Signup() error = %v, want ErrSignupFailed", err)
	}

	m.Logout(ctx)
	if err := m.Login(ctx, "a@example.com", "wrong"); !errors.Is(err, ErrWrongCredentials) {
		t.Errorf("Login(wrong) error = %v", err)
	}
	if err := m.Login(ctx, "a@example.com", "secret-pw"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if env.Store.SessionCount() != 1 {
		t.Errorf("sessions = %d, want 1 after logout and login", env.Store.SessionCount())
	}
}

func TestManager_ConcurrentNotifyDeliversInOrder(t *testing.T) {
	m := newTestManager(&fakeAPI{})

	var (
		mu        sync.Mutex
		last      State
		delivered int
		stale     int
	)
	m.OnChange(func(s State) {
		current := m.Current()
		mu.Lock()
		defer mu.Unlock()
		delivered++
		last = s
		if current.Status != s.Status || current.Token() != s.Token() {
			stale++
		}
	})

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%3 == 0 {
				m.Notify(nil)
				return
			}
			m.Notify(&Session{Token: "t" + strconv.Itoa(i), User: dto.ProfileResponse{ID: "u1"}})
		}(i)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if delivered == 0 {
		t.Fatal("no transitions delivered")
	}
	if stale != 0 {
		t.Errorf("%d deliveries did not match Current() at delivery time", stale)
	}
	cur := m.Current()
	if last.Status != cur.Status || last.Token() != cur.Token() {
		t.Errorf("last delivered = %s/%q, Current() = %s/%q", last.Status, last.Token(), cur.Status, cur.Token())
	}
}
