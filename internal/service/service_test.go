package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/groupspend/groupspend/internal/auth"
	"github.com/groupspend/groupspend/internal/metrics"
	"github.com/groupspend/groupspend/internal/model"
	"github.com/groupspend/groupspend/internal/repository/memstore"
	"github.com/shopspring/decimal"
)

type testEnv struct {
	store    *memstore.Store
	metrics  *metrics.InMemoryRecorder
	identity *IdentityService
	groups   *GroupService
	expenses *ExpenseService
	rates    *fakeRates
}

type fakeRates struct {
	rates map[string]decimal.Decimal
	err   error
}

func (f *fakeRates) Rate(_ context.Context, currency string) (decimal.Decimal, error) {
	if f.err != nil {
		return decimal.Zero, f.err
	}
	return f.rates[currency], nil
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memstore.New()
	rec := metrics.NewInMemory()
	hasher := auth.NewPasswordHasher(auth.Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16})
	tokens := auth.NewTokenManager("0123456789abcdef0123456789abcdef", time.Hour)
	rates := &fakeRates{rates: map[string]decimal.Decimal{"EUR": decimal.RequireFromString("0.9134")}}

	return &testEnv{
		store:    store,
		metrics:  rec,
		identity: NewIdentityService(store, store, hasher, tokens, logger, rec),
		groups:   NewGroupService(store, store, logger, rec),
		expenses: NewExpenseService(store, store, rates, logger, rec),
		rates:    rates,
	}
}

// signup registers a user and returns the identity a verified token yields.
func (e *testEnv) signup(t *testing.T, email string) model.Identity {
	t.Helper()
	ctx := context.Background()
	res, err := e.identity.Signup(ctx, SignupInput{Email: email, Password: "secret-pw"})
	if err != nil {
		t.Fatalf("Signup(%s) failed: %v", email, err)
	}
	id, err := e.identity.Verify(ctx, res.Session.Token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	return id
}

func (e *testEnv) group(t *testing.T, caller model.Identity, name string) *model.Group {
	t.Helper()
	g, err := e.groups.CreateGroup(context.Background(), caller, CreateGroupInput{Name: name})
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	return g
}

func (e *testEnv) expense(t *testing.T, caller model.Identity, groupID, amount string) *model.Expense {
	t.Helper()
	exp, err := e.expenses.CreateExpense(context.Background(), caller, groupID, ExpenseInput{
		Description: "Taxi",
		Amount:      decimal.RequireFromString(amount),
		Category:    "Transport",
		Date:        "2024-01-01",
	})
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	return exp
}

func mustEqualDecimal(t *testing.T, label string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("%s = %s, want %s", label, got, want)
	}
}
