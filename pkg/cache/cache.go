// Package cache is the Redis fast path for the category resolver. Resolved
// category paths are immutable once created; the resolver only drops an
// entry when it finds the node soft-deleted. Everything here no-ops when
// Redis is down: imports just take the database path instead.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shashiranjanraj/vastra/config"
)

var (
	RDB *redis.Client
	Ctx = context.Background()
)

// Connect dials Redis and pings it. On failure RDB stays nil and every
// helper degrades to a miss.
func Connect() error {
	client := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr(),
		Password: config.RedisPassword(),
		DB:       0,
	})
	if err := client.Ping(Ctx).Err(); err != nil {
		return fmt.Errorf("cache: redis ping: %w", err)
	}
	RDB = client
	return nil
}

// Get unmarshals the value under key into dest. False on miss, error, or
// when Redis is not connected.
func Get(key string, dest interface{}) bool {
	if RDB == nil {
		return false
	}
	val, err := RDB.Get(Ctx, key).Result()
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(val), dest) == nil
}

// Set stores value under key for ttl. Zero ttl means no expiry.
func Set(key string, value interface{}, ttl time.Duration) error {
	if RDB == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: marshal %s: %w", key, err)
	}
	return RDB.Set(Ctx, key, data, ttl).Err()
}

// Del drops keys. Missing keys are not an error.
func Del(keys ...string) error {
	if RDB == nil || len(keys) == 0 {
		return nil
	}
	return RDB.Del(Ctx, keys...).Err()
}
