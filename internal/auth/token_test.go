package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokenManager_IssueValidate(t *testing.T) {
	t.Parallel()

	m := NewTokenManager(testSecret, time.Hour)
	token, expiresAt, err := m.Issue("sess-1", "user-1", "a@example.com")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if time.Until(expiresAt) <= 59*time.Minute {
		t.Errorf("expiresAt too early: %v", expiresAt)
	}

	claims, err := m.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.ID != "sess-1" || claims.UserID != "user-1" || claims.Email != "a@example.com" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestTokenManager_Rejects(t *testing.T) {
	t.Parallel()

	m := NewTokenManager(testSecret, time.Hour)
	good, _, err := m.Issue("s", "u", "e@example.com")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	expired := NewTokenManager(testSecret, time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, err := expired.Issue("s", "u", "e@example.com")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	otherKey, _, err := NewTokenManager("another-secret-another-secret-xx", time.Hour).Issue("s", "u", "e@example.com")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "u"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", ErrMissingToken},
		{"garbage", "not-a-jwt", ErrInvalidToken},
		{"expired", old, ErrInvalidToken},
		{"wrong key", otherKey, ErrInvalidToken},
		{"alg none", none, ErrInvalidToken},
		{"tampered", good + "x", ErrInvalidToken},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := m.Validate(tt.token); !errors.Is(err, tt.want) {
				t.Errorf("Validate error = %v, want %v", err, tt.want)
			}
		})
	}
}
