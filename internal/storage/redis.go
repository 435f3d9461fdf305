package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix    = "storage:v1:"
	defaultLockTTL    = 5 * time.Second
	defaultRetryDelay = 10 * time.Millisecond
)

// ErrLockLost is returned when the instance lock expired before commit.
var ErrLockLost = errors.New("storage: instance lock lost")

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStore keeps each instance in one Redis hash. Updates take a
// per-instance lock and apply their writes with MULTI/EXEC.
type RedisStore struct {
	client     redis.UniversalClient
	lockTTL    time.Duration
	retryDelay time.Duration
}

// RedisOption customises a RedisStore.
type RedisOption func(*RedisStore)

// WithLockTTL bounds how long an update may hold the instance lock.
func WithLockTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		if ttl > 0 {
			s.lockTTL = ttl
		}
	}
}

// NewRedis constructs a Redis-backed store.
func NewRedis(client redis.UniversalClient, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, lockTTL: defaultLockTTL, retryDelay: defaultRetryDelay}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func dataKey(instance string) string { return redisKeyPrefix + instance }
func lockKey(instance string) string { return redisKeyPrefix + instance + ":lock" }

func (s *RedisStore) Update(ctx context.Context, instance string, fn func(Tx) error) error {
	token := uuid.NewString()
	if err := s.acquire(ctx, instance, token); err != nil {
		return err
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		releaseScript.Run(releaseCtx, s.client, []string{lockKey(instance)}, token) // best effort
	}()

	tx := &redisTx{ctx: ctx, client: s.client, hash: dataKey(instance), pending: make(map[string][]byte)}
	if err := fn(tx); err != nil {
		return err
	}
	if len(tx.pending) == 0 {
		return nil
	}

	// The lock must still be ours when the writes land.
	err := s.client.Watch(ctx, func(rtx *redis.Tx) error {
		owner, err := rtx.Get(ctx, lockKey(instance)).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if owner != token {
			return ErrLockLost
		}
		_, err = rtx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			values := make(map[string]any, len(tx.pending))
			for k, v := range tx.pending {
				values[k] = v
			}
			pipe.HSet(ctx, tx.hash, values)
			return nil
		})
		return err
	}, lockKey(instance))
	if err != nil {
		return fmt.Errorf("commit instance %s: %w", instance, err)
	}
	return nil
}

func (s *RedisStore) View(ctx context.Context, instance string, fn func(Tx) error) error {
	return fn(&redisTx{ctx: ctx, client: s.client, hash: dataKey(instance), readOnly: true})
}

func (s *RedisStore) acquire(ctx context.Context, instance, token string) error {
	for {
		ok, err := s.client.SetNX(ctx, lockKey(instance), token, s.lockTTL).Result()
		if err != nil {
			return fmt.Errorf("lock instance %s: %w", instance, err)
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("lock instance %s: %w", instance, ctx.Err())
		case <-time.After(s.retryDelay):
		}
	}
}

type redisTx struct {
	ctx      context.Context
	client   redis.UniversalClient
	hash     string
	pending  map[string][]byte
	readOnly bool
}

func (t *redisTx) lookup(key Key) ([]byte, bool, error) {
	if raw, ok := t.pending[key.String()]; ok {
		return raw, true, nil
	}
	raw, err := t.client.HGet(t.ctx, t.hash, key.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return raw, true, nil
}

func (t *redisTx) Get(key Key, dst any) (bool, error) {
	raw, ok, err := t.lookup(key)
	if err != nil || !ok {
		return false, err
	}
	return true, decode(key, raw, dst)
}

func (t *redisTx) Set(key Key, value any) error {
	if t.readOnly {
		return ErrReadOnly
	}
	raw, err := encode(key, value)
	if err != nil {
		return err
	}
	t.pending[key.String()] = raw
	return nil
}

func (t *redisTx) Has(key Key) (bool, error) {
	_, ok, err := t.lookup(key)
	return ok, err
}
