// Package groupview is the headless view model of one group's page. It
// mirrors the group's members and expenses and recomputes every total from
// the full expense list after each change.
package groupview

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/groupspend/groupspend/internal/aggregate"
	"github.com/groupspend/groupspend/internal/handler/dto"
	"github.com/groupspend/groupspend/internal/model"
)

var (
	// ErrNotLoaded is returned by mutations before Load succeeded.
	ErrNotLoaded = errors.New("group view not loaded")
	// ErrInvalidAmount is returned when a form amount is missing, not a
	// plain decimal number, or negative. Nothing is sent to the API.
	ErrInvalidAmount = errors.New("amount must be a non-negative number")
)

// API is the part of the HTTP client the view uses.
type API interface {
	GetGroup(ctx context.Context, token, groupID string) (*dto.GroupResponse, error)
	ListMembers(ctx context.Context, token, groupID string) ([]dto.MemberResponse, error)
	ListExpenses(ctx context.Context, token, groupID string) (*dto.ExpenseListResponse, error)
	Profiles(ctx context.Context, token string, ids []string) ([]dto.ProfileResponse, error)
	CreateExpense(ctx context.Context, token, groupID string, req dto.ExpenseRequest) (*dto.ExpenseResponse, error)
	UpdateExpense(ctx context.Context, token, expenseID string, req dto.ExpenseRequest) (*dto.ExpenseResponse, error)
	DeleteExpense(ctx context.Context, token, expenseID string) error
	Invite(ctx context.Context, token, groupID, email string) error
	RemoveMember(ctx context.Context, token, groupID, userID string) error
	GroupTotal(ctx context.Context, token, groupID, currency string) (*dto.TotalResponse, error)
}

// ExpenseForm is the raw expense input. Amount must be a plain decimal
// such as "42.50"; separators like "1,000.50" are rejected.
type ExpenseForm struct {
	Description string
	Amount      string
	Category    string
	Date        string
}

// Member is a member row with its display data and spend.
type Member struct {
	UserID      string
	Role        model.Role
	Email       string
	DisplayName string
	Total       decimal.Decimal
}

// Snapshot is a consistent copy of the view.
type Snapshot struct {
	Group    dto.GroupResponse
	Members  []Member
	Expenses []model.Expense
	Total    decimal.Decimal
}

// Option customizes a View.
type Option func(*View)

// WithErrorHook calls fn with every API error, e.g. to sign out on 401.
func WithErrorHook(fn func(error)) Option {
	return func(v *View) { v.onError = fn }
}

// View holds one group's page state. Safe for concurrent use.
type View struct {
	api     API
	groupID string
	onError func(error)

	mu       sync.RWMutex
	loaded   bool
	group    dto.GroupResponse
	members  []dto.MemberResponse
	profiles map[string]dto.ProfileResponse
	expenses []model.Expense
	summary  aggregate.Summary
}

// New creates an empty view for groupID.
func New(api API, groupID string, opts ...Option) *View {
	v := &View{
		api:      api,
		groupID:  groupID,
		profiles: make(map[string]dto.ProfileResponse),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Load fetches the group, its members, their profiles and its expenses.
func (v *View) Load(ctx context.Context, token string) error {
	group, err := v.api.GetGroup(ctx, token, v.groupID)
	if err != nil {
		return v.fail(err)
	}
	members, err := v.api.ListMembers(ctx, token, v.groupID)
	if err != nil {
		return v.fail(err)
	}
	list, err := v.api.ListExpenses(ctx, token, v.groupID)
	if err != nil {
		return v.fail(err)
	}

	expenses := make([]model.Expense, 0, len(list.Expenses))
	for _, e := range list.Expenses {
		exp, err := e.ToModel()
		if err != nil {
			return fmt.Errorf("expense %s: %w", e.ID, err)
		}
		expenses = append(expenses, exp)
	}

	profiles, err := v.fetchProfiles(ctx, token, members)
	if err != nil {
		return v.fail(err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.loaded = true
	v.group = *group
	v.members = members
	v.profiles = profiles
	v.expenses = expenses
	v.recompute()
	return nil
}

// AddExpense records an expense by the caller.
func (v *View) AddExpense(ctx context.Context, token string, form ExpenseForm) (*model.Expense, error) {
	if !v.isLoaded() {
		return nil, ErrNotLoaded
	}
	req, err := toRequest(form)
	if err != nil {
		return nil, err
	}
	created, err := v.api.CreateExpense(ctx, token, v.groupID, req)
	if err != nil {
		return nil, v.fail(err)
	}
	exp, err := created.ToModel()
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.expenses = append(v.expenses, exp)
	v.recompute()
	return &exp, nil
}

// EditExpense replaces an expense's fields. Only its creator may.
func (v *View) EditExpense(ctx context.Context, token, expenseID string, form ExpenseForm) (*model.Expense, error) {
	if !v.isLoaded() {
		return nil, ErrNotLoaded
	}
	req, err := toRequest(form)
	if err != nil {
		return nil, err
	}
	updated, err := v.api.UpdateExpense(ctx, token, expenseID, req)
	if err != nil {
		return nil, v.fail(err)
	}
	exp, err := updated.ToModel()
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.expenses {
		if v.expenses[i].ID == exp.ID {
			v.expenses[i] = exp
		}
	}
	v.recompute()
	return &exp, nil
}

// DeleteExpense removes an expense. Only its creator may.
func (v *View) DeleteExpense(ctx context.Context, token, expenseID string) error {
	if !v.isLoaded() {
		return ErrNotLoaded
	}
	if err := v.api.DeleteExpense(ctx, token, expenseID); err != nil {
		return v.fail(err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	kept := v.expenses[:0]
	for _, e := range v.expenses {
		if e.ID != expenseID {
			kept = append(kept, e)
		}
	}
	v.expenses = kept
	v.recompute()
	return nil
}

// Invite adds a member by email and refreshes the member list.
func (v *View) Invite(ctx context.Context, token, email string) error {
	if err := v.api.Invite(ctx, token, v.groupID, email); err != nil {
		return v.fail(err)
	}
	return v.refreshMembers(ctx, token)
}

// RemoveMember removes a member and refreshes the member list.
func (v *View) RemoveMember(ctx context.Context, token, userID string) error {
	if err := v.api.RemoveMember(ctx, token, v.groupID, userID); err != nil {
		return v.fail(err)
	}
	return v.refreshMembers(ctx, token)
}

// ConvertedTotal asks the API for the group total in currency.
func (v *View) ConvertedTotal(ctx context.Context, token, currency string) (*dto.TotalResponse, error) {
	total, err := v.api.GroupTotal(ctx, token, v.groupID, currency)
	if err != nil {
		return nil, v.fail(err)
	}
	return total, nil
}

// IsAdmin reports whether userID administers the group.
func (v *View) IsAdmin(userID string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.loaded && v.group.AdminID == userID
}

// Snapshot returns a copy of the current state. Members are ordered by
// email; every member appears even with no expenses.
func (v *View) Snapshot() Snapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()

	members := make([]Member, 0, len(v.members))
	for _, m := range v.members {
		p := v.profiles[m.UserID]
		members = append(members, Member{
			UserID:      m.UserID,
			Role:        model.Role(m.Role),
			Email:       p.Email,
			DisplayName: p.DisplayName,
			Total:       v.summary.MemberTotal(m.UserID),
		})
	}
	sort.SliceStable(members, func(i, j int) bool { return members[i].Email < members[j].Email })

	expenses := make([]model.Expense, len(v.expenses))
	copy(expenses, v.expenses)

	return Snapshot{
		Group:    v.group,
		Members:  members,
		Expenses: expenses,
		Total:    v.summary.Total,
	}
}

func (v *View) refreshMembers(ctx context.Context, token string) error {
	members, err := v.api.ListMembers(ctx, token, v.groupID)
	if err != nil {
		return v.fail(err)
	}
	profiles, err := v.fetchProfiles(ctx, token, members)
	if err != nil {
		return v.fail(err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.members = members
	v.profiles = profiles
	return nil
}

func (v *View) fetchProfiles(ctx context.Context, token string, members []dto.MemberResponse) (map[string]dto.ProfileResponse, error) {
	out := make(map[string]dto.ProfileResponse, len(members))
	if len(members) == 0 {
		return out, nil
	}
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	profiles, err := v.api.Profiles(ctx, token, ids)
	if err != nil {
		return nil, err
	}
	for _, p := range profiles {
		out[p.ID] = p
	}
	return out, nil
}

// recompute restores the API's ordering, newest first, and rebuilds
// totals from the full expense list. Caller holds mu.
func (v *View) recompute() {
	sort.SliceStable(v.expenses, func(i, j int) bool {
		a, b := v.expenses[i], v.expenses[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	v.summary = aggregate.Summarize(v.expenses)
}

func (v *View) isLoaded() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.loaded
}

func (v *View) fail(err error) error {
	if v.onError != nil {
		v.onError(err)
	}
	return err
}

func toRequest(form ExpenseForm) (dto.ExpenseRequest, error) {
	amount, err := parseFormAmount(form.Amount)
	if err != nil {
		return dto.ExpenseRequest{}, err
	}
	return dto.ExpenseRequest{
		Description: strings.TrimSpace(form.Description),
		Amount:      &amount,
		Category:    strings.TrimSpace(form.Category),
		Date:        strings.TrimSpace(form.Date),
	}, nil
}

func parseFormAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, fmt.Errorf("%w: amount is required", ErrInvalidAmount)
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	return amount, nil
}
