package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRedis connects to REDIS_ADDR and skips when it is unset
func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisPersistence(t *testing.T) {
	client := newTestRedis(t)
	configManager := newTestConfigManager(t)

	persistence, err := NewRedisPersistence(client, configManager, time.Minute)
	require.NoError(t, err)

	gameConfig, err := configManager.LoadConfig("tiny")
	require.NoError(t, err)

	id := "rt" + time.Now().Format("150405")
	t.Cleanup(func() { client.Del(context.Background(), persistence.key(id)) })

	session := newTestSession(t, id, gameConfig)
	require.True(t, session.Engine.Move(firstOpenMove(t, session.Engine)))

	require.NoError(t, persistence.Save(session))
	assert.True(t, persistence.Exists(id))

	ttl := client.TTL(context.Background(), persistence.key(id)).Val()
	assert.Greater(t, ttl, time.Duration(0))

	loaded, err := persistence.Load(id)
	require.NoError(t, err)
	assert.Equal(t, session.Engine.GetPlayerPosition(), loaded.Engine.GetPlayerPosition())
	assert.Equal(t, session.Engine.GetState().Grid, loaded.Engine.GetState().Grid)
	assert.Len(t, loaded.Engine.GetMoveHistory(), 1)

	ids, err := persistence.ListAll()
	require.NoError(t, err)
	assert.Contains(t, ids, id)

	require.NoError(t, persistence.Delete(id))
	assert.False(t, persistence.Exists(id))
	assert.ErrorIs(t, persistence.Delete(id), ErrSessionNotFound)

	_, err = persistence.Load(id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisPersistence_WithManager(t *testing.T) {
	client := newTestRedis(t)
	configManager := newTestConfigManager(t)

	persistence, err := NewRedisPersistence(client, configManager, time.Minute)
	require.NoError(t, err)

	id := "rm" + time.Now().Format("150405")
	t.Cleanup(func() { client.Del(context.Background(), persistence.key(id)) })

	gameConfig, _ := configManager.LoadConfig("tiny")
	manager := NewManagerWithPersistence(persistence)
	_, err = manager.Create(id, gameConfig)
	require.NoError(t, err)

	loaded, err := NewManagerWithPersistence(persistence).Get(id)
	require.NoError(t, err)
	assert.Equal(t, id, loaded.ID)

	require.NoError(t, manager.Delete(id))
	assert.False(t, persistence.Exists(id))
}
