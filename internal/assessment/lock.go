package assessment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Locker serializes state-changing calls per session.
type Locker interface {
	// Lock blocks until the lock for key is held or ctx is done.
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// LocalLocker is an in-process Locker for single-instance deployments.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*localLock
}

type localLock struct {
	ch   chan struct{}
	refs int
}

var _ Locker = (*LocalLocker)(nil)

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*localLock)}
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	lk, ok := l.locks[key]
	if !ok {
		lk = &localLock{ch: make(chan struct{}, 1)}
		l.locks[key] = lk
	}
	lk.refs++
	l.mu.Unlock()

	select {
	case lk.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, lk, false)
		return nil, fmt.Errorf("acquire session lock: %w", ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(key, lk, true) })
	}, nil
}

func (l *LocalLocker) release(key string, lk *localLock, held bool) {
	if held {
		<-lk.ch
	}
	l.mu.Lock()
	lk.refs--
	if lk.refs == 0 {
		delete(l.locks, key)
	}
	l.mu.Unlock()
}

// unlockScript deletes the key only when it still holds our token.
var unlockScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// RedisLocker is a distributed Locker so several API instances can share the
// same session store.
type RedisLocker struct {
	redis        *redis.Client
	ttl          time.Duration
	pollInterval time.Duration
	logger       zerolog.Logger
}

var _ Locker = (*RedisLocker)(nil)

// ErrLockHeld is returned when the lock could not be taken before ctx ended.
var ErrLockHeld = errors.New("session lock already held")

func NewRedisLocker(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLocker{
		redis:        client,
		ttl:          ttl,
		pollInterval: 25 * time.Millisecond,
		logger:       logger.With().Str("component", "session_lock").Logger(),
	}
}

// Lock retries SET NX until acquired. The lock expires after ttl so a crashed
// holder cannot wedge a session.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := fmt.Sprintf("session:lock:%s", key)
	token := uuid.NewString()

	ticker := time.NewTicker(l.pollInterval)
	defer ticker.Stop()

	for {
		acquired, err := l.redis.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("acquire lock: %w", ErrLockHeld)
			}
			return nil, fmt.Errorf("acquire lock: %w", err)
		}
		if acquired {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("acquire lock: %w", ErrLockHeld)
		case <-ticker.C:
		}
	}

	unlock := func() {
		// Fresh context: the request context may already be cancelled.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := unlockScript.Run(releaseCtx, l.redis, []string{redisKey}, token).Err(); err != nil {
			l.logger.Warn().Err(err).Str("key", redisKey).Msg("release session lock failed")
		}
	}
	return unlock, nil
}
