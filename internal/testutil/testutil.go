package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/groupspend/groupspend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 731731

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// NewRedisClient connects to REDIS_URL or skips the test.
func NewRedisClient(t testing.TB) *redis.Client {
	t.Helper()
	opts, err := redis.ParseURL(RequireEnv(t, "REDIS_URL"))
	if err != nil {
		t.Fatalf("parse REDIS_URL: %v", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		t.Skipf("redis unavailable: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestProfile creates a test profile with sensible defaults.
func NewTestProfile(t testing.TB, email string) *model.Profile {
	t.Helper()
	return &model.Profile{
		ID:           ulid.Make().String(),
		Email:        model.NormalizeEmail(email),
		DisplayName:  email,
		PasswordHash: "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		CreatedAt:    time.Now().UTC(),
	}
}

// NewTestGroup creates a test group owned by adminID.
func NewTestGroup(t testing.TB, name, adminID string) *model.Group {
	t.Helper()
	return &model.Group{
		ID:        ulid.Make().String(),
		Name:      name,
		AdminID:   adminID,
		CreatedAt: time.Now().UTC(),
	}
}

// NewTestExpense creates a test expense dated today. amount must be a
// valid decimal literal.
func NewTestExpense(t testing.TB, groupID, userID, amount string) *model.Expense {
	t.Helper()
	now := time.Now().UTC()
	return &model.Expense{
		ID:          ulid.Make().String(),
		GroupID:     groupID,
		UserID:      userID,
		Description: "Test expense",
		Amount:      decimal.RequireFromString(amount),
		Category:    "Food",
		Date:        time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
