package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/ManuelReschke/PlanPay/internal/pkg/env"
	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

var (
	client    *redis.Client
	available bool
	ctx       = context.Background()
)

// SetupCache initializes the connection to the Redis cache server
func SetupCache() {
	host := env.GetEnv("CACHE_HOST", "localhost")
	port := env.GetEnv("CACHE_PORT", "6379")

	client = redis.NewClient(&redis.Options{
		Addr:        fmt.Sprintf("%s:%s", host, port),
		Password:    env.GetEnv("CACHE_PASSWORD", ""),
		DB:          0,
		DialTimeout: 2 * time.Second,
	})

	// Test the connection
	pong, err := client.Ping(ctx).Result()
	if err != nil {
		available = false
		log.Warnf("Could not connect to cache: %v", err)
	} else {
		available = true
		log.Infof("Successfully connected to cache: %s", pong)
	}
}

// GetClient returns the Redis client instance
func GetClient() *redis.Client {
	if client == nil {
		SetupCache()
	}
	return client
}

// IsAvailable reports whether the last connection check succeeded
func IsAvailable() bool {
	return client != nil && available
}

// Address returns the configured cache host and port for components that
// keep their own connection pool.
func Address() (string, int) {
	host := env.GetEnv("CACHE_HOST", "localhost")
	port := env.GetEnvInt("CACHE_PORT", 6379)
	return host, port
}
