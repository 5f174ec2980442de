package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	"github.com/wricardo/mcp-training/mazegame/game/service"
)

const (
	// RedisKeyPrefix namespaces session keys in a shared Redis
	RedisKeyPrefix = "mazegame:session:"

	redisLockSuffix = ":lock"
)

// RedisPersistence implements SessionPersistence on top of Redis.
// Each session is one JSON string key with a TTL refreshed on every save;
// concurrent writers to the same key are serialized by a redsync mutex.
type RedisPersistence struct {
	client        *redis.Client
	locker        *redsync.Redsync
	configManager service.ConfigManager
	ttl           time.Duration
	timeout       time.Duration
}

// NewRedisPersistence creates a Redis-backed store and checks the connection.
// A zero ttl keeps sessions until they are deleted.
func NewRedisPersistence(client *redis.Client, configManager service.ConfigManager, ttl time.Duration) (*RedisPersistence, error) {
	rp := &RedisPersistence{
		client:        client,
		configManager: configManager,
		ttl:           ttl,
		timeout:       3 * time.Second,
	}

	ctx, cancel := rp.ctx()
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	rp.locker = redsync.New(goredis.NewPool(client))
	return rp, nil
}

func (rp *RedisPersistence) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), rp.timeout)
}

func (rp *RedisPersistence) key(id string) string {
	return RedisKeyPrefix + strings.ToLower(id)
}

// Save persists a session under its key
func (rp *RedisPersistence) Save(session *service.Session) error {
	jsonData, err := encodeSession(session, rp.configManager)
	if err != nil {
		return err
	}

	key := rp.key(session.ID)
	mutex := rp.locker.NewMutex(key+redisLockSuffix, redsync.WithExpiry(rp.timeout))
	if err := mutex.Lock(); err != nil {
		return fmt.Errorf("failed to lock session %s: %w", session.ID, err)
	}
	defer func() {
		_, _ = mutex.Unlock()
	}()

	ctx, cancel := rp.ctx()
	defer cancel()
	if err := rp.client.Set(ctx, key, jsonData, rp.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write session %s: %w", session.ID, err)
	}
	return nil
}

// Load retrieves a session from Redis
func (rp *RedisPersistence) Load(id string) (*service.Session, error) {
	ctx, cancel := rp.ctx()
	defer cancel()

	jsonData, err := rp.client.Get(ctx, rp.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read session %s: %w", id, err)
	}

	return decodeSession(jsonData, rp.configManager)
}

// Delete removes a session key
func (rp *RedisPersistence) Delete(id string) error {
	ctx, cancel := rp.ctx()
	defer cancel()

	removed, err := rp.client.Del(ctx, rp.key(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	if removed == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// ListAll returns all persisted session IDs
func (rp *RedisPersistence) ListAll() ([]string, error) {
	ctx, cancel := rp.ctx()
	defer cancel()

	var ids []string
	iter := rp.client.Scan(ctx, 0, RedisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if strings.HasSuffix(key, redisLockSuffix) {
			continue
		}
		ids = append(ids, strings.TrimPrefix(key, RedisKeyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan sessions: %w", err)
	}
	return ids, nil
}

// Exists checks if a session key exists
func (rp *RedisPersistence) Exists(id string) bool {
	ctx, cancel := rp.ctx()
	defer cancel()
	return rp.client.Exists(ctx, rp.key(id)).Val() > 0
}
