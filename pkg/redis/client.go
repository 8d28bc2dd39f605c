package redis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// ErrNotInitialized is returned when a helper is used before Init/SetClient
var ErrNotInitialized = errors.New("redis client not initialized")

// releaseScript deletes the lease only when it is still held by the caller
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Init initializes the Redis client
func Init(url, password string) error {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return err
	}

	if password != "" {
		opts.Password = password
	}

	client = redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return err
	}

	return nil
}

// SetClient sets the Redis client (used for testing)
func SetClient(c *redis.Client) {
	client = c
}

// GetClient returns the Redis client
func GetClient() *redis.Client {
	return client
}

// Close closes the Redis client if one is set
func Close() error {
	if client == nil {
		return nil
	}
	return client.Close()
}

// Set stores a key-value pair with expiration
func Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if client == nil {
		return ErrNotInitialized
	}
	return client.Set(ctx, key, value, expiration).Err()
}

// Get retrieves a value by key
func Get(ctx context.Context, key string) (string, error) {
	if client == nil {
		return "", ErrNotInitialized
	}
	return client.Get(ctx, key).Result()
}

// Del removes a key
func Del(ctx context.Context, key string) error {
	if client == nil {
		return ErrNotInitialized
	}
	return client.Del(ctx, key).Err()
}

// SetNX sets a key only if it does not exist
func SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	if client == nil {
		return false, ErrNotInitialized
	}
	return client.SetNX(ctx, key, value, expiration).Result()
}

// PushCapped prepends value to a list and trims it to maxLen entries
func PushCapped(ctx context.Context, key string, value interface{}, maxLen int64) error {
	if client == nil {
		return ErrNotInitialized
	}
	pipe := client.TxPipeline()
	pipe.LPush(ctx, key, value)
	if maxLen > 0 {
		pipe.LTrim(ctx, key, 0, maxLen-1)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Range returns list entries between start and stop (inclusive)
func Range(ctx context.Context, key string, start, stop int64) ([]string, error) {
	if client == nil {
		return nil, ErrNotInitialized
	}
	return client.LRange(ctx, key, start, stop).Result()
}

// Lease is a Redis-backed mutual exclusion lease with an owner token
type Lease struct{}

// NewLease returns a lease helper bound to the package client
func NewLease() *Lease {
	return &Lease{}
}

// Acquire takes the lease for ttl. ok is false when another owner holds it.
func (l *Lease) Acquire(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error) {
	token = uuid.NewString()
	ok, err = SetNX(ctx, key, token, ttl)
	if err != nil || !ok {
		return "", false, err
	}
	return token, true, nil
}

// Release drops the lease if it is still owned by token
func (l *Lease) Release(ctx context.Context, key, token string) error {
	if client == nil {
		return ErrNotInitialized
	}
	return releaseScript.Run(ctx, client, []string{key}, token).Err()
}
