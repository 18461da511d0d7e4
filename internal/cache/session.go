package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// sessionKeyPrefix is the Redis key prefix for session records.
const sessionKeyPrefix = "session:"

// SessionRecord is the server-side state of an issued session token.
type SessionRecord struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PutSession stores a session record until its expiry.
func (c *Cache) PutSession(ctx context.Context, sessionID string, rec *SessionRecord) error {
	ttl := time.Until(rec.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", sessionID)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	return c.client.Set(ctx, sessionKeyPrefix+sessionID, data, ttl).Err()
}

// GetSession retrieves a session record.
// Returns ErrCacheMiss if the session does not exist or has expired.
func (c *Cache) GetSession(ctx context.Context, sessionID string) (*SessionRecord, error) {
	data, err := c.client.Get(ctx, sessionKeyPrefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	var rec SessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		// Corrupted entry - treat as revoked
		return nil, ErrCacheMiss
	}

	return &rec, nil
}

// DeleteSession revokes a session. Deleting an unknown session is a no-op.
func (c *Cache) DeleteSession(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, sessionKeyPrefix+sessionID).Err()
}
