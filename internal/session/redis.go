package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/garyburd/redigo/redis"
	"github.com/google/uuid"
)

// RedisStore keeps sessions in Redis so they survive restarts and are shared
// between server instances. Expiry is delegated to Redis key TTLs.
type RedisStore struct {
	pool   *redis.Pool
	prefix string
}

// NewRedisStore wraps a redigo pool.
func NewRedisStore(pool *redis.Pool, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "portal"
	}
	return &RedisStore{pool: pool, prefix: prefix}
}

func (r *RedisStore) sessionKey(id string) string {
	return r.prefix + ":session:" + id
}

func (r *RedisStore) accountKey(accountID uuid.UUID) string {
	return r.prefix + ":account_sessions:" + accountID.String()
}

func (r *RedisStore) Save(_ context.Context, s *Session) error {
	ttl := int64(time.Until(s.ExpiresAt).Seconds())
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", s.ID)
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	conn := r.pool.Get()
	defer conn.Close()

	conn.Send("MULTI")
	conn.Send("SET", r.sessionKey(s.ID), raw, "EX", ttl)
	conn.Send("SADD", r.accountKey(s.AccountID), s.ID)
	conn.Send("EXPIRE", r.accountKey(s.AccountID), ttl)
	if _, err := conn.Do("EXEC"); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *RedisStore) Get(_ context.Context, id string) (*Session, error) {
	conn := r.pool.Get()
	defer conn.Close()

	raw, err := redis.Bytes(conn.Do("GET", r.sessionKey(id)))
	if errors.Is(err, redis.ErrNil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	s := &Session{}
	if err := json.Unmarshal(raw, s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if s.Expired(time.Now()) {
		return nil, nil
	}
	return s, nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	s, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	conn := r.pool.Get()
	defer conn.Close()

	conn.Send("MULTI")
	conn.Send("DEL", r.sessionKey(id))
	if s != nil {
		conn.Send("SREM", r.accountKey(s.AccountID), id)
	}
	if _, err := conn.Do("EXEC"); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *RedisStore) DeleteByAccount(_ context.Context, accountID uuid.UUID) (int, error) {
	conn := r.pool.Get()
	defer conn.Close()

	ids, err := redis.Strings(conn.Do("SMEMBERS", r.accountKey(accountID)))
	if err != nil {
		return 0, fmt.Errorf("list account sessions: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	args := redis.Args{}
	for _, id := range ids {
		args = args.Add(r.sessionKey(id))
	}
	n, err := redis.Int(conn.Do("DEL", args...))
	if err != nil {
		return 0, fmt.Errorf("delete account sessions: %w", err)
	}
	if _, err := conn.Do("DEL", r.accountKey(accountID)); err != nil {
		return n, fmt.Errorf("delete account session index: %w", err)
	}
	return n, nil
}

// Sweep is a no-op: Redis expires session keys on its own.
func (r *RedisStore) Sweep(context.Context) (int, error) {
	return 0, nil
}
