package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"nodemonitor/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	defaultTTL         = 30 * time.Second
	acquireTimeout     = 5 * time.Second
	renewInterval      = 10 * time.Second
	defaultMaxHoldTime = 5 * time.Minute
)

const unlockScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end`

const renewScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("expire", KEYS[1], ARGV[2])
else
	return 0
end`

// DistributedLock is a non-blocking mutual exclusion primitive shared
// between server instances.
type DistributedLock interface {
	TryLock(ctx context.Context) (bool, error)
	Unlock(ctx context.Context) error
	IsHeld() bool
}

// Option configures a RedisLock.
type Option func(*RedisLock)

// WithTTL overrides the key expiry.
func WithTTL(ttl time.Duration) Option {
	return func(l *RedisLock) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

// WithMaxHold bounds how long the lock is renewed for.
func WithMaxHold(d time.Duration) Option {
	return func(l *RedisLock) {
		if d > 0 {
			l.maxHold = d
		}
	}
}

// RedisLock implements DistributedLock with SET NX and a renewal goroutine.
// A nil client runs in single-instance mode and always acquires.
type RedisLock struct {
	client  *redis.Client
	key     string
	token   string
	ttl     time.Duration
	maxHold time.Duration

	mu         sync.Mutex
	held       bool
	acquiredAt time.Time
	stopRenew  chan struct{}
	stopped    bool
}

// NewRedisLock creates a lock on key.
func NewRedisLock(client *redis.Client, key string, opts ...Option) *RedisLock {
	l := &RedisLock{
		client:  client,
		key:     key,
		token:   fmt.Sprintf("%s-%s", key, uuid.NewString()),
		ttl:     defaultTTL,
		maxHold: defaultMaxHoldTime,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Key returns the redis key guarded by this lock.
func (l *RedisLock) Key() string {
	return l.key
}

// TryLock attempts to acquire the lock without waiting.
func (l *RedisLock) TryLock(ctx context.Context) (bool, error) {
	if l.client == nil {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.held {
			return false, nil
		}
		l.held = true
		return true, nil
	}

	acquireCtx, cancel := context.WithTimeout(ctx, acquireTimeout)
	defer cancel()

	ok, err := l.client.SetNX(acquireCtx, l.key, l.token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock %s: %w", l.key, err)
	}
	if !ok {
		logger.DebugCtx(ctx, "lock %s held by another instance", l.key)
		return false, nil
	}

	l.mu.Lock()
	l.held = true
	l.acquiredAt = time.Now()
	// fresh channel per acquisition so TryLock/Unlock can cycle
	l.stopRenew = make(chan struct{})
	l.stopped = false
	stop := l.stopRenew
	l.mu.Unlock()

	go l.renew(ctx, stop)

	logger.DebugCtx(ctx, "lock %s acquired", l.key)
	return true, nil
}

// Unlock releases the lock if this instance still owns it.
func (l *RedisLock) Unlock(ctx context.Context) error {
	l.mu.Lock()
	if !l.held && (l.stopRenew == nil || l.stopped) {
		l.mu.Unlock()
		return nil
	}
	if l.client == nil {
		l.held = false
		l.mu.Unlock()
		return nil
	}
	if !l.stopped && l.stopRenew != nil {
		l.stopped = true
		close(l.stopRenew)
	}
	l.mu.Unlock()

	res, err := l.client.Eval(ctx, unlockScript, []string{l.key}, l.token).Int64()
	if err != nil {
		return fmt.Errorf("failed to release lock %s: %w", l.key, err)
	}

	l.mu.Lock()
	l.held = false
	l.mu.Unlock()

	if res == 0 {
		logger.WarnCtx(ctx, "lock %s was already released or taken over", l.key)
	}
	return nil
}

// IsHeld reports whether this instance believes it owns the lock.
func (l *RedisLock) IsHeld() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held
}

func (l *RedisLock) renew(ctx context.Context, stop <-chan struct{}) {
	ticker := time.NewTicker(renewInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.mu.Lock()
			held := time.Since(l.acquiredAt)
			l.mu.Unlock()

			if held > l.maxHold {
				logger.WarnCtx(ctx, "lock %s held for %.0fs, no longer renewing", l.key, held.Seconds())
				l.markLost()
				return
			}

			res, err := l.client.Eval(ctx, renewScript, []string{l.key}, l.token, int(l.ttl.Seconds())).Int64()
			if err != nil {
				logger.WarnCtx(ctx, "failed to renew lock %s: %v", l.key, err)
				l.markLost()
				return
			}
			if res == 0 {
				logger.WarnCtx(ctx, "lock %s lost during renewal", l.key)
				l.markLost()
				return
			}
		}
	}
}

// markLost flags the lock as not held; Unlock still runs the release script.
func (l *RedisLock) markLost() {
	l.mu.Lock()
	l.held = false
	l.mu.Unlock()
}

// Factory creates RedisLocks sharing one client. Without a client, locks
// are kept per key so callers in this process still exclude each other.
type Factory struct {
	client *redis.Client
	opts   []Option
	local  sync.Map
}

// NewFactory creates a lock factory. client may be nil.
func NewFactory(client *redis.Client, opts ...Option) *Factory {
	return &Factory{client: client, opts: opts}
}

// NewLock returns a lock on key.
func (f *Factory) NewLock(key string) DistributedLock {
	if f.client == nil {
		l, _ := f.local.LoadOrStore(key, NewRedisLock(nil, key, f.opts...))
		return l.(*RedisLock)
	}
	return NewRedisLock(f.client, key, f.opts...)
}
