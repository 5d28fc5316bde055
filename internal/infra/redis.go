package infra

import (
	"fmt"
	"time"

	"github.com/garyburd/redigo/redis"
)

// NewRedisPool creates a redigo connection pool for the given redis:// URL
// and verifies it with a PING.
func NewRedisPool(url string) (*redis.Pool, error) {
	pool := &redis.Pool{
		MaxIdle:     5,
		MaxActive:   20,
		Wait:        true,
		IdleTimeout: 300 * time.Second,
		Dial: func() (redis.Conn, error) {
			return redis.DialURL(url,
				redis.DialConnectTimeout(3*time.Second),
				redis.DialReadTimeout(3*time.Second),
				redis.DialWriteTimeout(3*time.Second),
			)
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}

	conn := pool.Get()
	defer conn.Close()
	if _, err := conn.Do("PING"); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return pool, nil
}
