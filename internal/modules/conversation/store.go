// README: Redis mirror of active sessions for inspection and recovery.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionKeyFmt = "conversation:session:%s"

// Store mirrors conversation contexts in Redis keyed by session ID. The
// client-carried token remains the source of truth; the mirror serves
// the session inspection API and survives client-side token loss.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func (s *Store) Save(ctx context.Context, c *Context) error {
	token, err := Encode(c)
	if err != nil {
		return err
	}
	key := fmt.Sprintf(sessionKeyFmt, c.SessionID)
	if err := s.rdb.Set(ctx, key, token, s.ttl).Err(); err != nil {
		return fmt.Errorf("conversation: save session: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, sessionID string) (*Context, bool, error) {
	token, ok, err := s.LoadToken(ctx, sessionID)
	if err != nil || !ok {
		return nil, false, err
	}
	c, err := Decode(token)
	if err != nil {
		return nil, false, err
	}
	return c, true, nil
}

// LoadToken returns the stored serialized context as-is, for callers that
// pass it straight back into a resolve turn.
func (s *Store) LoadToken(ctx context.Context, sessionID string) (string, bool, error) {
	key := fmt.Sprintf(sessionKeyFmt, sessionID)
	token, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("conversation: load session: %w", err)
	}
	return token, true, nil
}

func (s *Store) Delete(ctx context.Context, sessionID string) error {
	key := fmt.Sprintf(sessionKeyFmt, sessionID)
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("conversation: delete session: %w", err)
	}
	return nil
}
