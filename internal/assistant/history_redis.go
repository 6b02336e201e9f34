package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisHistory keeps session history in Redis lists so several processes can
// share one conversation. Each message is one JSON list element.
type RedisHistory struct {
	client   *redis.Client
	prefix   string
	maxTurns int
	ttl      time.Duration
}

// RedisHistoryConfig holds Redis connection and retention settings.
type RedisHistoryConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	MaxTurns  int
	TTL       time.Duration
}

// DefaultRedisHistoryConfig returns sensible defaults for the given address.
func DefaultRedisHistoryConfig(addr string) *RedisHistoryConfig {
	return &RedisHistoryConfig{
		Addr:      addr,
		KeyPrefix: "deskclerk:history:",
		MaxTurns:  DefaultHistoryTurns,
		TTL:       24 * time.Hour,
	}
}

// NewRedisHistory connects to Redis and returns a history store.
func NewRedisHistory(config *RedisHistoryConfig) *RedisHistory {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	return NewRedisHistoryFromClient(client, config)
}

// NewRedisHistoryFromClient wraps an existing Redis client. Useful for tests
// and for sharing one connection pool.
func NewRedisHistoryFromClient(client *redis.Client, config *RedisHistoryConfig) *RedisHistory {
	h := &RedisHistory{
		client:   client,
		prefix:   config.KeyPrefix,
		maxTurns: config.MaxTurns,
		ttl:      config.TTL,
	}
	if h.prefix == "" {
		h.prefix = "deskclerk:history:"
	}
	if h.maxTurns <= 0 {
		h.maxTurns = DefaultHistoryTurns
	}
	return h
}

// Append pushes messages onto the session list, trims it to the retention
// bound, and refreshes the TTL.
func (h *RedisHistory) Append(ctx context.Context, sessionID string, messages ...Message) error {
	if len(messages) == 0 {
		return nil
	}

	values := make([]interface{}, 0, len(messages))
	for _, m := range messages {
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("history marshal error: %w", err)
		}
		values = append(values, data)
	}

	key := h.key(sessionID)
	pipe := h.client.TxPipeline()
	pipe.RPush(ctx, key, values...)
	pipe.LTrim(ctx, key, int64(-h.maxTurns), -1)
	if h.ttl > 0 {
		pipe.Expire(ctx, key, h.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis append error: %w", err)
	}
	return nil
}

// Recent returns up to limit of the newest messages, oldest first. A missing
// session is an empty history, not an error.
func (h *RedisHistory) Recent(ctx context.Context, sessionID string, limit int) ([]Message, error) {
	start := int64(0)
	if limit > 0 {
		start = int64(-limit)
	}

	raw, err := h.client.LRange(ctx, h.key(sessionID), start, -1).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis lrange error: %w", err)
	}

	messages := make([]Message, 0, len(raw))
	for _, item := range raw {
		var m Message
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			return nil, fmt.Errorf("history unmarshal error: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, nil
}

// Clear deletes a session's history.
func (h *RedisHistory) Clear(ctx context.Context, sessionID string) error {
	if err := h.client.Del(ctx, h.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis del error: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (h *RedisHistory) Ping(ctx context.Context) error {
	return h.client.Ping(ctx).Err()
}

// Close closes the underlying Redis client.
func (h *RedisHistory) Close() error {
	return h.client.Close()
}

func (h *RedisHistory) key(sessionID string) string {
	return h.prefix + sessionID
}
