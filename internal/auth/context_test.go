package auth

import (
	"context"
	"testing"

	"github.com/groupspend/groupspend/internal/model"
)

func TestIdentityContext(t *testing.T) {
	t.Parallel()

	if id := IdentityFromContext(context.Background()); !id.IsZero() {
		t.Errorf("empty context should yield zero identity, got %+v", id)
	}

	want := model.Identity{UserID: "u1", Email: "a@example.com", SessionID: "s1"}
	ctx := ContextWithIdentity(context.Background(), want)
	if got := IdentityFromContext(ctx); got != want {
		t.Errorf("IdentityFromContext = %+v, want %+v", got, want)
	}
	if got := UserIDFromContext(ctx); got != "u1" {
		t.Errorf("UserIDFromContext = %q, want u1", got)
	}
}
