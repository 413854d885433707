package redis

import (
	"context"
	"sync"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"github.com/fakhrymubarak/gyeonggi-weather/internal/config"
)

var (
	client *redisv9.Client
	once   sync.Once
)

// GetClient returns the shared client for the observation slot cache.
func GetClient() *redisv9.Client {
	once.Do(func() {
		client = redisv9.NewClient(&redisv9.Options{
			Addr: config.GetRedisAddr(),
		})
	})
	return client
}

// Ping reports whether the cache is reachable. The widget keeps working
// without it, so callers only log the result.
func Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return GetClient().Ping(ctx).Err()
}

// ResetClientForTest resets the Redis client singleton. Use only in tests.
func ResetClientForTest() {
	if client != nil {
		_ = client.Close()
	}
	once = sync.Once{}
	client = nil
}
