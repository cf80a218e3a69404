package cache

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned when a key is absent
var ErrCacheMiss = errors.New("cache: key not found")

// Store is the key-value and pub/sub surface the services depend on.
// Values are namespaced strings; all reads and writes are best-effort
// from the caller's point of view.
type Store interface {
	Set(ctx context.Context, namespace, key, value string, ttl time.Duration) error
	Get(ctx context.Context, namespace, key string) (string, error)
	Delete(ctx context.Context, namespace, key string) error
	IncrWithExpire(ctx context.Context, namespace, key string, window time.Duration) (int64, error)
	Publish(ctx context.Context, channel, message string) error
	Subscribe(ctx context.Context, channel string) <-chan string
}

type redisStore struct {
	client *redis.Client
}

// NewStore wraps a redis client
func NewStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

func (c *redisStore) Set(ctx context.Context, namespace, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, namespace+":"+key, value, ttl).Err()
}

func (c *redisStore) Get(ctx context.Context, namespace, key string) (string, error) {
	val, err := c.client.Get(ctx, namespace+":"+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	return val, err
}

func (c *redisStore) Delete(ctx context.Context, namespace, key string) error {
	return c.client.Del(ctx, namespace+":"+key).Err()
}

// IncrWithExpire increments a counter and starts its expiry window on
// first increment. Used to cap OTP resends per address.
func (c *redisStore) IncrWithExpire(ctx context.Context, namespace, key string, window time.Duration) (int64, error) {
	countKey := namespace + ":" + key

	cnt, err := c.client.Incr(ctx, countKey).Result()
	if err != nil {
		return 0, err
	}
	if cnt == 1 {
		_ = c.client.Expire(ctx, countKey, window).Err()
	}
	return cnt, nil
}

func (c *redisStore) Publish(ctx context.Context, channel, message string) error {
	return c.client.Publish(ctx, channel, message).Err()
}

// Subscribe returns a channel of message payloads. The subscription is
// closed when ctx is cancelled.
func (c *redisStore) Subscribe(ctx context.Context, channel string) <-chan string {
	sub := c.client.Subscribe(ctx, channel)
	out := make(chan string)

	go func() {
		defer close(out)
		defer func() {
			if err := sub.Close(); err != nil {
				log.Printf("Error closing subscription on %s: %v", channel, err)
			}
		}()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- msg.Payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}
