package cache

import (
	"context"
	"errors"
	"time"

	"github.com/gomodule/redigo/redis"
)

// Redis is a Cache backed by a redigo connection pool.
type Redis struct {
	pool *redis.Pool
}

// NewRedis creates a pooled Redis cache for a redis:// URL. Connections are
// dialed lazily, so an unreachable server only shows up as failed lookups.
func NewRedis(url string) *Redis {
	return &Redis{
		pool: &redis.Pool{
			MaxIdle:     10,
			MaxActive:   50,
			IdleTimeout: 5 * time.Minute,
			Dial: func() (redis.Conn, error) {
				return redis.DialURL(url,
					redis.DialConnectTimeout(2*time.Second),
					redis.DialReadTimeout(time.Second),
					redis.DialWriteTimeout(time.Second),
				)
			},
			TestOnBorrow: func(c redis.Conn, t time.Time) error {
				if time.Since(t) < time.Minute {
					return nil
				}
				_, err := c.Do("PING")
				return err
			},
		},
	}
}

func (r *Redis) Get(ctx context.Context, key string) Result {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return Failed(err)
	}
	defer conn.Close()

	v, err := redis.Bytes(conn.Do("GET", key))
	if errors.Is(err, redis.ErrNil) {
		return Miss()
	}
	if err != nil {
		return Failed(err)
	}
	return Hit(v)
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = conn.Do("SET", key, value, "PX", ttl.Milliseconds())
	return err
}

func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = conn.Do("DEL", redis.Args{}.AddFlat(keys)...)
	return err
}

// Ping checks that the server answers.
func (r *Redis) Ping(ctx context.Context) error {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	_, err = conn.Do("PING")
	return err
}

// Close releases pooled connections.
func (r *Redis) Close() error {
	return r.pool.Close()
}
