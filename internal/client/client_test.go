package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/groupspend/groupspend/internal/apitest"
	"github.com/groupspend/groupspend/internal/handler/dto"
)

func TestClient_GroupLifecycle(t *testing.T) {
	env := apitest.NewServer(t)
	c := New(env.URL())
	ctx := context.Background()

	alice, err := c.Signup(ctx, "alice@example.com", "secret-pw", "Alice")
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}
	bob, err := c.Signup(ctx, "bob@example.com", "secret-pw", "")
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}

	group, err := c.CreateGroup(ctx, alice.Token, "Trip", "Lisbon")
	if err != nil {
		t.Fatalf("CreateGroup() error = %v", err)
	}
	if err := c.Invite(ctx, alice.Token, group.ID, "bob@example.com"); err != nil {
		t.Fatalf("Invite() error = %v", err)
	}

	members, err := c.ListMembers(ctx, bob.Token, group.ID)
	if err != nil {
		t.Fatalf("ListMembers() error = %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("members = %d, want 2", len(members))
	}

	amount := decimal.RequireFromString("42.50")
	exp, err := c.CreateExpense(ctx, alice.Token, group.ID, dto.ExpenseRequest{
		Description: "Taxi", Amount: &amount, Category: "Transport", Date: "2024-03-01",
	})
	if err != nil {
		t.Fatalf("CreateExpense() error = %v", err)
	}

	_, err = c.UpdateExpense(ctx, bob.Token, exp.ID, dto.ExpenseRequest{
		Description: "Taxi", Amount: &amount, Category: "Transport", Date: "2024-03-01",
	})
	if StatusOf(err) != http.StatusForbidden {
		t.Fatalf("UpdateExpense() by non-creator error = %v, want 403", err)
	}

	list, err := c.ListExpenses(ctx, bob.Token, group.ID)
	if err != nil {
		t.Fatalf("ListExpenses() error = %v", err)
	}
	if !list.Total.Equal(amount) {
		t.Errorf("total = %s, want %s", list.Total, amount)
	}

	total, err := c.GroupTotal(ctx, alice.Token, group.ID, "EUR")
	if err != nil {
		t.Fatalf("GroupTotal() error = %v", err)
	}
	if !total.ConvertedTotal.Equal(decimal.RequireFromString("38.82")) {
		t.Errorf("converted = %s, want 38.82", total.ConvertedTotal)
	}

	profiles, err := c.Profiles(ctx, alice.Token, []string{alice.User.ID, bob.User.ID})
	if err != nil {
		t.Fatalf("Profiles() error = %v", err)
	}
	if len(profiles) != 2 {
		t.Errorf("profiles = %d, want 2", len(profiles))
	}

	if err := c.DeleteExpense(ctx, alice.Token, exp.ID); err != nil {
		t.Fatalf("DeleteExpense() error = %v", err)
	}
	if err := c.RemoveMember(ctx, alice.Token, group.ID, bob.User.ID); err != nil {
		t.Fatalf("RemoveMember() error = %v", err)
	}
	groups, err := c.ListGroups(ctx, bob.Token)
	if err != nil {
		t.Fatalf("ListGroups() error = %v", err)
	}
	if len(groups) != 0 {
		t.Errorf("bob still sees %d groups", len(groups))
	}
}

func TestClient_Errors(t *testing.T) {
	env := apitest.NewServer(t)
	c := New(env.URL())
	ctx := context.Background()

	_, err := c.Login(ctx, "nobody@example.com", "whatever")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Login() error = %v, want ErrUnauthorized", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "Wrong Credentials" {
		t.Errorf("Login() error = %#v, want Wrong Credentials", err)
	}

	if _, err := c.Session(ctx, "bogus"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Session() error = %v, want ErrUnauthorized", err)
	}

	auth, err := c.Signup(ctx, "a@example.com", "secret-pw", "")
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}
	if err := c.Logout(ctx, auth.Token); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if _, err := c.ListGroups(ctx, auth.Token); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("ListGroups() after logout error = %v, want ErrUnauthorized", err)
	}
}

func TestClient_PublicKeyHeader(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("apikey")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"groups":[]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, WithPublicKey("anon"), WithHTTPClient(srv.Client()))
	if _, err := c.ListGroups(context.Background(), "token"); err != nil {
		t.Fatalf("ListGroups() error = %v", err)
	}
	if got != "anon" {
		t.Errorf("apikey header = %q, want anon", got)
	}
}

func TestAPIError_Message(t *testing.T) {
	err := &APIError{Status: http.StatusBadRequest, Message: "User not found"}
	if err.Error() != "api error: status 400: User not found" {
		t.Errorf("Error() = %q", err.Error())
	}
	if errors.Is(err, ErrUnauthorized) {
		t.Error("400 matched ErrUnauthorized")
	}
}
