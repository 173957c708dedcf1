package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "session:"

// Redis is a [Store] keeping sessions in Redis with a native TTL, for
// deployments that want session state in a store shared across restarts of
// the application database.
type Redis struct {
	client *redis.Client
}

// NewRedis builds a Redis-backed session store and verifies the server is
// reachable before returning.
func NewRedis(ctx context.Context, addr, password string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}
	return &Redis{client: client}, nil
}

// Create satisfies the [Store] interface.
func (r *Redis) Create(ctx context.Context, userID uint64) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}
	if err := r.client.Set(ctx, redisKeyPrefix+token,
		strconv.FormatUint(userID, 10), TTL).Err(); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}
	return token, nil
}

// Resolve satisfies the [Store] interface.
func (r *Redis) Resolve(ctx context.Context, token string) (uint64, bool, error) {
	val, err := r.client.Get(ctx, redisKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	} else if err != nil {
		return 0, false, fmt.Errorf("failed to look up session: %w", err)
	}
	userID, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("malformed session value: %w", err)
	}
	return userID, true, nil
}

// Destroy satisfies the [Store] interface.
func (r *Redis) Destroy(ctx context.Context, token string) error {
	if err := r.client.Del(ctx, redisKeyPrefix+token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Close satisfies the [Store] interface.
func (r *Redis) Close() error {
	return r.client.Close()
}

var _ Store = (*Redis)(nil)
