package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"pizza-service/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLStore(t *testing.T) *SQLStore {
	t.Helper()
	db, err := config.OpenDB(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	return NewSQLStore(db)
}

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, "test"), mr
}

// exerciseStore runs the lifecycle every Store implementation must honor.
func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, "tok-1", 1, nil))
	require.NoError(t, s.Add(ctx, "tok-2", 1, nil))
	require.NoError(t, s.Add(ctx, "tok-3", 2, nil))

	active, err := s.Active(ctx, "tok-1")
	require.NoError(t, err)
	assert.True(t, active)

	active, err = s.Active(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, active)

	require.NoError(t, s.Revoke(ctx, "tok-1"))
	active, err = s.Active(ctx, "tok-1")
	require.NoError(t, err)
	assert.False(t, active, "logout must invalidate the token")

	// revoking twice is harmless
	require.NoError(t, s.Revoke(ctx, "tok-1"))

	require.NoError(t, s.RevokeUser(ctx, 1))
	active, err = s.Active(ctx, "tok-2")
	require.NoError(t, err)
	assert.False(t, active)

	active, err = s.Active(ctx, "tok-3")
	require.NoError(t, err)
	assert.True(t, active, "other users keep their sessions")
}

func TestSQLStore(t *testing.T) {
	exerciseStore(t, newSQLStore(t))
}

func TestRedisStore(t *testing.T) {
	s, _ := newRedisStore(t)
	exerciseStore(t, s)
}

func TestSQLStore_Expiry(t *testing.T) {
	s := newSQLStore(t)
	ctx := context.Background()
	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Hour)

	require.NoError(t, s.Add(ctx, "old", 1, &past))
	require.NoError(t, s.Add(ctx, "new", 1, &future))

	active, err := s.Active(ctx, "old")
	require.NoError(t, err)
	assert.False(t, active)

	purged, err := s.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	active, err = s.Active(ctx, "new")
	require.NoError(t, err)
	assert.True(t, active)
}

func TestRedisStore_Expiry(t *testing.T) {
	s, mr := newRedisStore(t)
	ctx := context.Background()
	expires := time.Now().Add(time.Minute)

	require.NoError(t, s.Add(ctx, "tok", 5, &expires))
	active, err := s.Active(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, active)

	mr.FastForward(2 * time.Minute)

	active, err = s.Active(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, active)
}

func TestRedisStore_Errors(t *testing.T) {
	client, mock := redismock.NewClientMock()
	s := NewRedisStore(client, "")
	ctx := context.Background()

	mock.ExpectExists("pizza:session:tok").SetErr(errors.New("connection reset"))
	_, err := s.Active(ctx, "tok")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")

	// revoking an unknown token is a no-op
	mock.ExpectGet("pizza:session:unknown").RedisNil()
	assert.NoError(t, s.Revoke(ctx, "unknown"))

	mock.ExpectSMembers("pizza:user_sessions:3").SetErr(errors.New("timeout"))
	assert.Error(t, s.RevokeUser(ctx, 3))

	assert.NoError(t, mock.ExpectationsWereMet())
}
