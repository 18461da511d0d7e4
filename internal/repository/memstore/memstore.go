// Package memstore is an in-memory stand-in for the PostgreSQL repository and
// the Redis session store. It returns the same sentinel errors as the real
// stores and is used by service, handler and client tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/groupspend/groupspend/internal/cache"
	"github.com/groupspend/groupspend/internal/model"
	"github.com/groupspend/groupspend/internal/repository"
)

type membershipKey struct {
	groupID string
	userID  string
}

// Store holds every table in maps guarded by one mutex.
type Store struct {
	mu          sync.RWMutex
	profiles    map[string]model.Profile
	groups      map[string]model.Group
	memberships map[membershipKey]model.Membership
	expenses    map[string]model.Expense
	sessions    map[string]cache.SessionRecord

	// FailWith, when set, is returned by every call. Used to simulate
	// storage faults.
	FailWith error
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		profiles:    make(map[string]model.Profile),
		groups:      make(map[string]model.Group),
		memberships: make(map[membershipKey]model.Membership),
		expenses:    make(map[string]model.Expense),
		sessions:    make(map[string]cache.SessionRecord),
	}
}

// CreateProfile inserts a profile; emails are unique.
func (s *Store) CreateProfile(_ context.Context, p *model.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	for _, existing := range s.profiles {
		if existing.Email == p.Email {
			return repository.ErrEmailExists
		}
	}
	s.profiles[p.ID] = *p
	return nil
}

// GetProfileByID retrieves a profile by id.
func (s *Store) GetProfileByID(_ context.Context, id string) (*model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	p, ok := s.profiles[id]
	if !ok {
		return nil, repository.ErrProfileNotFound
	}
	return &p, nil
}

// GetProfileByEmail retrieves a profile by normalized email.
func (s *Store) GetProfileByEmail(_ context.Context, email string) (*model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	email = model.NormalizeEmail(email)
	for _, p := range s.profiles {
		if p.Email == email {
			p := p
			return &p, nil
		}
	}
	return nil, repository.ErrProfileNotFound
}

// GetProfilesByIDs returns matching profiles ordered by email.
func (s *Store) GetProfilesByIDs(_ context.Context, ids []string) ([]*model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	out := []*model.Profile{}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		p, ok := s.profiles[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

// CreateGroupWithAdmin inserts a group and its admin membership atomically.
func (s *Store) CreateGroupWithAdmin(_ context.Context, g *model.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	if _, ok := s.profiles[g.AdminID]; !ok {
		return repository.ErrReferenceNotFound
	}
	s.groups[g.ID] = *g
	s.memberships[membershipKey{g.ID, g.AdminID}] = model.Membership{
		GroupID:   g.ID,
		UserID:    g.AdminID,
		Role:      model.RoleAdmin,
		CreatedAt: g.CreatedAt,
	}
	return nil
}

// GetGroupByID retrieves a group by id.
func (s *Store) GetGroupByID(_ context.Context, id string) (*model.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	g, ok := s.groups[id]
	if !ok {
		return nil, repository.ErrGroupNotFound
	}
	return &g, nil
}

// ListGroupsForUser returns the user's groups, newest first.
func (s *Store) ListGroupsForUser(_ context.Context, userID string) ([]*model.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	out := []*model.Group{}
	for key := range s.memberships {
		if key.userID != userID {
			continue
		}
		if g, ok := s.groups[key.groupID]; ok {
			out = append(out, &g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// CreateMembership adds a user to a group.
func (s *Store) CreateMembership(_ context.Context, m *model.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	key := membershipKey{m.GroupID, m.UserID}
	if _, ok := s.memberships[key]; ok {
		return repository.ErrMembershipExists
	}
	if _, ok := s.profiles[m.UserID]; !ok {
		return repository.ErrReferenceNotFound
	}
	if _, ok := s.groups[m.GroupID]; !ok {
		return repository.ErrReferenceNotFound
	}
	s.memberships[key] = *m
	return nil
}

// GetMembership retrieves one membership.
func (s *Store) GetMembership(_ context.Context, groupID, userID string) (*model.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	m, ok := s.memberships[membershipKey{groupID, userID}]
	if !ok {
		return nil, repository.ErrMembershipNotFound
	}
	return &m, nil
}

// ListMemberships returns a group's memberships in join order.
func (s *Store) ListMemberships(_ context.Context, groupID string) ([]*model.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	out := []*model.Membership{}
	for key, m := range s.memberships {
		if key.groupID == groupID {
			m := m
			out = append(out, &m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

// DeleteMembership removes a membership; missing rows are ignored.
func (s *Store) DeleteMembership(_ context.Context, groupID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	delete(s.memberships, membershipKey{groupID, userID})
	return nil
}

// CreateExpense inserts an expense.
func (s *Store) CreateExpense(_ context.Context, e *model.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	if _, ok := s.groups[e.GroupID]; !ok {
		return repository.ErrReferenceNotFound
	}
	if e.Amount.IsNegative() {
		return repository.ErrInvalidAmount
	}
	s.expenses[e.ID] = *e
	return nil
}

// GetExpenseByID retrieves an expense.
func (s *Store) GetExpenseByID(_ context.Context, id string) (*model.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	e, ok := s.expenses[id]
	if !ok {
		return nil, repository.ErrExpenseNotFound
	}
	return &e, nil
}

// ListExpensesByGroup returns a group's expenses, latest date first.
func (s *Store) ListExpensesByGroup(_ context.Context, groupID string) ([]*model.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	out := []*model.Expense{}
	for _, e := range s.expenses {
		if e.GroupID == groupID {
			e := e
			out = append(out, &e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return strings.Compare(out[i].ID, out[j].ID) > 0
	})
	return out, nil
}

// UpdateExpense replaces an expense's mutable fields.
func (s *Store) UpdateExpense(_ context.Context, e *model.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	cur, ok := s.expenses[e.ID]
	if !ok {
		return repository.ErrExpenseNotFound
	}
	if e.Amount.IsNegative() {
		return repository.ErrInvalidAmount
	}
	cur.Description = e.Description
	cur.Amount = e.Amount
	cur.Category = e.Category
	cur.Date = e.Date
	cur.UpdatedAt = e.UpdatedAt
	s.expenses[e.ID] = cur
	return nil
}

// DeleteExpense removes an expense.
func (s *Store) DeleteExpense(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	if _, ok := s.expenses[id]; !ok {
		return repository.ErrExpenseNotFound
	}
	delete(s.expenses, id)
	return nil
}

// PutSession stores a session record.
func (s *Store) PutSession(_ context.Context, sessionID string, rec *cache.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	s.sessions[sessionID] = *rec
	return nil
}

// GetSession retrieves a live session record.
func (s *Store) GetSession(_ context.Context, sessionID string) (*cache.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	rec, ok := s.sessions[sessionID]
	if !ok || time.Now().After(rec.ExpiresAt) {
		return nil, cache.ErrCacheMiss
	}
	return &rec, nil
}

// DeleteSession revokes a session.
func (s *Store) DeleteSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	delete(s.sessions, sessionID)
	return nil
}

// Fail sets FailWith under the store lock. Pass nil to recover.
func (s *Store) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FailWith = err
}

// Ping always succeeds unless FailWith is set.
func (s *Store) Ping(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.FailWith
}

// SessionCount returns the number of stored sessions.
func (s *Store) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
