package call

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

const handoffEventsKey = "handoff_events"

// RedisStore keeps call state in Redis so any worker can serve any turn of
// a call. The one-shot handoff claim is a SETNX key with its own TTL,
// separate from the call record, so deleting a finished call cannot reopen
// the claim for a retried webhook.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, addr, password string, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client, ttl: ttl}, nil
}

func callKey(callerID string) string    { return "call:" + callerID }
func handoffKey(callerID string) string { return "call:" + callerID + ":handoff" }

func (s *RedisStore) Get(ctx context.Context, callerID string) (*Call, bool, error) {
	data, err := s.client.Get(ctx, callKey(callerID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load call %s: %w", callerID, err)
	}

	var c Call
	if err := sonic.Unmarshal(data, &c); err != nil {
		return nil, false, fmt.Errorf("failed to decode call %s: %w", callerID, err)
	}
	return &c, true, nil
}

func (s *RedisStore) Put(ctx context.Context, c *Call) error {
	data, err := sonic.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode call %s: %w", c.CallerID, err)
	}
	if err := s.client.Set(ctx, callKey(c.CallerID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store call %s: %w", c.CallerID, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, callerID string) error {
	if err := s.client.Del(ctx, callKey(callerID)).Err(); err != nil {
		return fmt.Errorf("failed to delete call %s: %w", callerID, err)
	}
	return nil
}

// ClaimHandoff is an atomic check-and-set: SETNX succeeds for exactly one
// claimer per caller within the TTL window.
func (s *RedisStore) ClaimHandoff(ctx context.Context, callerID string) (bool, error) {
	won, err := s.client.SetNX(ctx, handoffKey(callerID), time.Now().Format(time.RFC3339), s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim handoff for %s: %w", callerID, err)
	}
	return won, nil
}

func (s *RedisStore) RecordHandoff(ctx context.Context, ev HandoffEvent) error {
	data, err := sonic.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode handoff event: %w", err)
	}
	if err := s.client.LPush(ctx, handoffEventsKey, data).Err(); err != nil {
		return fmt.Errorf("failed to record handoff event: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
