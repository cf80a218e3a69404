package config

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis creates a redis client from environment variables and
// verifies connectivity. Redis backs the role/name cache, the OTP store
// and the role-change pub/sub channel.
func ConnectRedis() (*redis.Client, error) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("unable to connect to redis at %s: %w", addr, err)
	}
	log.Printf("Successfully connected to Redis at %s", addr)
	return rdb, nil
}
