package pricing

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Locker serializes sync invocations. The engine itself needs no
// locking; the lock exists so two overlapping syncs can't both write
// the external price sheet.
type Locker interface {
	TryLock(ctx context.Context, name string) (bool, error)
	Unlock(ctx context.Context, name string) error
}

// RedisLocker implements Locker with SETNX and a TTL, so a crashed
// worker can't wedge syncing forever.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl}
}

func (l *RedisLocker) TryLock(ctx context.Context, name string) (bool, error) {
	return l.client.SetNX(ctx, "lock:"+name, time.Now().Unix(), l.ttl).Result()
}

func (l *RedisLocker) Unlock(ctx context.Context, name string) error {
	return l.client.Del(ctx, "lock:"+name).Err()
}

// LocalLocker is the single-binary fallback when no redis is configured.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]bool)}
}

func (l *LocalLocker) TryLock(_ context.Context, name string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held[name] {
		return false, nil
	}
	l.held[name] = true
	return true, nil
}

func (l *LocalLocker) Unlock(_ context.Context, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.held, name)
	return nil
}
