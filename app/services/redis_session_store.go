package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tercih-asistani/app/models"
)

// RedisSessionStore keeps conversation state in Redis so sessions survive
// restarts and can be shared across instances.
type RedisSessionStore struct {
	client *redis.Client
	logger *zap.Logger
	prefix string
	ttl    time.Duration
}

// NewRedisSessionStore connects to Redis and verifies the connection.
func NewRedisSessionStore(redisURL string, ttl time.Duration, logger *zap.Logger) (*RedisSessionStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis URL parse: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisSessionStore{
		client: client,
		logger: logger,
		prefix: "tercih:session:",
		ttl:    ttl,
	}, nil
}

// Get loads the stored state for a session. Expiry is handled by Redis TTL.
func (rss *RedisSessionStore) Get(ctx context.Context, sessionID string) (*models.ConversationState, bool, error) {
	key := rss.prefix + sessionID

	val, err := rss.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		rss.logger.Error("Redis get failed", zap.Error(err), zap.String("key", key))
		return nil, false, err
	}

	var state models.ConversationState
	if err := json.Unmarshal([]byte(val), &state); err != nil {
		rss.logger.Error("Session unmarshal failed", zap.Error(err), zap.String("key", key))
		return nil, false, err
	}
	return &state, true, nil
}

// Set stores the state and refreshes its TTL.
func (rss *RedisSessionStore) Set(ctx context.Context, state *models.ConversationState) error {
	state.UpdatedAt = time.Now()

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("session marshal: %w", err)
	}

	key := rss.prefix + state.SessionID
	if err := rss.client.Set(ctx, key, data, rss.ttl).Err(); err != nil {
		rss.logger.Error("Redis set failed", zap.Error(err), zap.String("key", key))
		return err
	}
	return nil
}

// Delete removes a session.
func (rss *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	return rss.client.Del(ctx, rss.prefix+sessionID).Err()
}

// Close closes the Redis connection.
func (rss *RedisSessionStore) Close() error {
	return rss.client.Close()
}
