package session

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps sessions in redis so several service instances share one
// validity set. Expiring tokens get a matching key TTL.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "pizza"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) sessionKey(tokenID string) string {
	return s.prefix + ":session:" + tokenID
}

func (s *RedisStore) userKey(userID uint) string {
	return s.prefix + ":user_sessions:" + strconv.FormatUint(uint64(userID), 10)
}

func (s *RedisStore) Add(ctx context.Context, tokenID string, userID uint, expiresAt *time.Time) error {
	var ttl time.Duration
	if expiresAt != nil {
		ttl = time.Until(*expiresAt)
		if ttl <= 0 {
			return nil
		}
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.sessionKey(tokenID), userID, ttl)
	pipe.SAdd(ctx, s.userKey(userID), tokenID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis store session: %w", err)
	}
	return nil
}

func (s *RedisStore) Active(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.sessionKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis load session: %w", err)
	}
	return n == 1, nil
}

func (s *RedisStore) Revoke(ctx context.Context, tokenID string) error {
	userID, err := s.client.Get(ctx, s.sessionKey(tokenID)).Uint64()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("redis revoke session: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.sessionKey(tokenID))
	pipe.SRem(ctx, s.userKey(uint(userID)), tokenID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis revoke session: %w", err)
	}
	return nil
}

func (s *RedisStore) RevokeUser(ctx context.Context, userID uint) error {
	ids, err := s.client.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("redis list user sessions: %w", err)
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, s.sessionKey(id))
	}
	keys = append(keys, s.userKey(userID))
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis revoke user sessions: %w", err)
	}
	return nil
}
