package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only when it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a Locker backed by Redis
type RedisLocker struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisLocker creates a locker that namespaces keys under prefix
func NewRedisLocker(client redis.UniversalClient, prefix string) *RedisLocker {
	return &RedisLocker{client: client, prefix: prefix}
}

// NewRedisClient parses url, connects and pings the server
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return client, nil
}

// TryLock acquires key for ttl or returns ErrLocked
func (r *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (ReleaseFunc, error) {
	fullKey := r.prefix + key
	token := uuid.NewString()

	ok, err := r.client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquiring %s: %w", fullKey, err)
	}
	if !ok {
		return nil, ErrLocked
	}

	return func(ctx context.Context) error {
		err := releaseScript.Run(ctx, r.client, []string{fullKey}, token).Err()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("releasing %s: %w", fullKey, err)
		}
		return nil
	}, nil
}
