package groupview

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/groupspend/groupspend/internal/apitest"
	"github.com/groupspend/groupspend/internal/client"
)

func mustDecimal(t *testing.T, label string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("%s = %s, want %s", label, got, want)
	}
}

type fixture struct {
	api     *client.Client
	aToken  string
	aID     string
	bToken  string
	bID     string
	groupID string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	env := apitest.NewServer(t)
	api := client.New(env.URL())
	ctx := context.Background()

	a, err := api.Signup(ctx, "a@example.com", "secret-pw", "A")
	if err != nil {
		t.Fatalf("signup a: %v", err)
	}
	b, err := api.Signup(ctx, "b@example.com", "secret-pw", "B")
	if err != nil {
		t.Fatalf("signup b: %v", err)
	}
	g, err := api.CreateGroup(ctx, a.Token, "Trip", "")
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	return fixture{api: api, aToken: a.Token, aID: a.User.ID, bToken: b.Token, bID: b.User.ID, groupID: g.ID}
}

func TestView_TripScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view := New(f.api, f.groupID)
	if _, err := view.AddExpense(ctx, f.aToken, ExpenseForm{Description: "x", Amount: "1", Category: "y", Date: "2024-01-01"}); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("AddExpense before Load error = %v, want ErrNotLoaded", err)
	}

	if err := view.Load(ctx, f.aToken); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !view.IsAdmin(f.aID) || view.IsAdmin(f.bID) {
		t.Error("IsAdmin mismatch")
	}

	if err := view.Invite(ctx, f.aToken, "b@example.com"); err != nil {
		t.Fatalf("Invite() error = %v", err)
	}

	taxi, err := view.AddExpense(ctx, f.aToken, ExpenseForm{Description: "Taxi", Amount: "42.50", Category: "Transport", Date: "2024-03-01"})
	if err != nil {
		t.Fatalf("AddExpense() error = %v", err)
	}

	// B records through their own view of the same group.
	bView := New(f.api, f.groupID)
	if err := bView.Load(ctx, f.bToken); err != nil {
		t.Fatalf("B Load() error = %v", err)
	}
	if _, err := bView.AddExpense(ctx, f.bToken, ExpenseForm{Description: "Snacks", Amount: "10", Category: "Food", Date: "2024-03-01"}); err != nil {
		t.Fatalf("B AddExpense() error = %v", err)
	}

	snap := bView.Snapshot()
	mustDecimal(t, "B view total", snap.Total, "52.50")
	if len(snap.Members) != 2 || snap.Members[0].Email != "a@example.com" {
		t.Fatalf("members = %+v", snap.Members)
	}
	mustDecimal(t, "A spend", snap.Members[0].Total, "42.50")
	mustDecimal(t, "B spend", snap.Members[1].Total, "10")

	// B cannot edit A's taxi; the view keeps its totals.
	_, err = bView.EditExpense(ctx, f.bToken, taxi.ID, ExpenseForm{Description: "Taxi", Amount: "1", Category: "Transport", Date: "2024-03-01"})
	if client.StatusOf(err) != http.StatusForbidden {
		t.Fatalf("EditExpense by B error = %v, want 403", err)
	}
	mustDecimal(t, "total after rejected edit", bView.Snapshot().Total, "52.50")

	if _, err := view.EditExpense(ctx, f.aToken, taxi.ID, ExpenseForm{Description: "Taxi", Amount: "40", Category: "Transport", Date: "2024-03-01"}); err != nil {
		t.Fatalf("EditExpense() error = %v", err)
	}
	mustDecimal(t, "A view total after edit", view.Snapshot().Total, "40")

	if err := view.DeleteExpense(ctx, f.aToken, taxi.ID); err != nil {
		t.Fatalf("DeleteExpense() error = %v", err)
	}
	snap = view.Snapshot()
	mustDecimal(t, "A view total after delete", snap.Total, "0")
	if len(snap.Expenses) != 0 {
		t.Errorf("expenses = %d, want 0 in A's local view", len(snap.Expenses))
	}

	// A fresh load sees B's snack only.
	if err := view.Load(ctx, f.aToken); err != nil {
		t.Fatalf("reload error = %v", err)
	}
	snap = view.Snapshot()
	mustDecimal(t, "reloaded total", snap.Total, "10")
	for _, m := range snap.Members {
		if m.UserID == f.aID {
			mustDecimal(t, "A spend after delete", m.Total, "0")
		}
	}

	total, err := view.ConvertedTotal(ctx, f.aToken, "EUR")
	if err != nil {
		t.Fatalf("ConvertedTotal() error = %v", err)
	}
	mustDecimal(t, "converted", total.ConvertedTotal, "9.13")

	if err := view.RemoveMember(ctx, f.aToken, f.bID); err != nil {
		t.Fatalf("RemoveMember() error = %v", err)
	}
	if got := len(view.Snapshot().Members); got != 1 {
		t.Errorf("members after remove = %d, want 1", got)
	}
}

func TestView_RejectsInvalidAmount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var hooked []error
	view := New(f.api, f.groupID, WithErrorHook(func(err error) { hooked = append(hooked, err) }))
	if err := view.Load(ctx, f.aToken); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	taxi, err := view.AddExpense(ctx, f.aToken, ExpenseForm{Description: "Taxi", Amount: "42.50", Category: "Transport", Date: "2024-03-01"})
	if err != nil {
		t.Fatalf("AddExpense() error = %v", err)
	}

	tests := []struct {
		name   string
		amount string
	}{
		{"empty", ""},
		{"blank", "   "},
		{"thousands separator", "1,000.50"},
		{"decimal comma", "12,50"},
		{"trailing letters", "12abc"},
		{"not a number", "not a number"},
		{"negative", "-3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := ExpenseForm{Description: "Gift", Amount: tt.amount, Category: "Misc", Date: "2024-03-02"}
			if _, err := view.AddExpense(ctx, f.aToken, form); !errors.Is(err, ErrInvalidAmount) {
				t.Errorf("AddExpense(amount=%q) error = %v, want ErrInvalidAmount", tt.amount, err)
			}
			if _, err := view.EditExpense(ctx, f.aToken, taxi.ID, form); !errors.Is(err, ErrInvalidAmount) {
				t.Errorf("EditExpense(amount=%q) error = %v, want ErrInvalidAmount", tt.amount, err)
			}
		})
	}

	snap := view.Snapshot()
	if len(snap.Expenses) != 1 {
		t.Errorf("local expenses = %d, want 1", len(snap.Expenses))
	}
	mustDecimal(t, "local total", snap.Total, "42.50")

	stored, err := f.api.ListExpenses(ctx, f.aToken, f.groupID)
	if err != nil {
		t.Fatalf("ListExpenses() error = %v", err)
	}
	if len(stored.Expenses) != 1 {
		t.Fatalf("stored expenses = %d, want 1", len(stored.Expenses))
	}
	mustDecimal(t, "stored taxi", stored.Expenses[0].Amount, "42.50")
	if len(hooked) != 0 {
		t.Errorf("validation errors reached the error hook: %v", hooked)
	}
}

func TestView_ExpensesNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view := New(f.api, f.groupID)
	if err := view.Load(ctx, f.aToken); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	for _, date := range []string{"2024-03-02", "2024-01-15", "2024-05-20", "2024-03-02"} {
		if _, err := view.AddExpense(ctx, f.aToken, ExpenseForm{Description: "On " + date, Amount: "5", Category: "Food", Date: date}); err != nil {
			t.Fatalf("AddExpense(%s) error = %v", date, err)
		}
	}
	local := view.Snapshot().Expenses

	if err := view.Load(ctx, f.aToken); err != nil {
		t.Fatalf("reload error = %v", err)
	}
	reloaded := view.Snapshot().Expenses

	if len(local) != len(reloaded) {
		t.Fatalf("local has %d expenses, reload has %d", len(local), len(reloaded))
	}
	for i := range local {
		if local[i].ID != reloaded[i].ID {
			t.Errorf("position %d: local %s (%s), reload %s (%s)",
				i, local[i].ID, local[i].DateString(), reloaded[i].ID, reloaded[i].DateString())
		}
	}
	if got := local[0].DateString(); got != "2024-05-20" {
		t.Errorf("first expense date = %s, want 2024-05-20", got)
	}
	if got := local[len(local)-1].DateString(); got != "2024-01-15" {
		t.Errorf("last expense date = %s, want 2024-01-15", got)
	}
}

func TestView_ErrorHook(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var hooked []error
	view := New(f.api, f.groupID, WithErrorHook(func(err error) { hooked = append(hooked, err) }))

	if err := view.Load(ctx, "expired-token"); !errors.Is(err, client.ErrUnauthorized) {
		t.Fatalf("Load(bad token) error = %v, want ErrUnauthorized", err)
	}
	if len(hooked) != 1 || !errors.Is(hooked[0], client.ErrUnauthorized) {
		t.Errorf("hooked errors = %v", hooked)
	}

	outsider := New(f.api, f.groupID)
	if err := outsider.Load(ctx, f.bToken); client.StatusOf(err) != http.StatusForbidden {
		t.Errorf("non-member Load() error = %v, want 403", err)
	}
}
