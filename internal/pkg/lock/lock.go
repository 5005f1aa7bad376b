// Package lock provides named, expiring mutual exclusion for maintenance jobs
// that may run on several replicas at once.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotHeld is returned by Release when the lock expired or was taken over
var ErrNotHeld = errors.New("lock not held")

// Locker acquires named locks without blocking
type Locker interface {
	// TryAcquire returns a Lease when the lock was free, nil when someone else holds it.
	TryAcquire(ctx context.Context, name string, ttl time.Duration) (*Lease, error)
}

// Lease is a held lock
type Lease struct {
	Name    string
	token   string
	release func(ctx context.Context, name, token string) error
}

// Release gives the lock back. Releasing an expired lease returns ErrNotHeld.
func (l *Lease) Release(ctx context.Context) error {
	return l.release(ctx, l.Name, l.token)
}

// releaseScript deletes the key only if it still carries our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements Locker with SET NX PX
type RedisLocker struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisLocker creates a RedisLocker. Keys are stored as prefix+name.
func NewRedisLocker(client redis.UniversalClient, prefix string) *RedisLocker {
	return &RedisLocker{client: client, prefix: prefix}
}

func (l *RedisLocker) TryAcquire(ctx context.Context, name string, ttl time.Duration) (*Lease, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.prefix+name, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", name, err)
	}
	if !ok {
		return nil, nil
	}
	return &Lease{Name: name, token: token, release: l.release}, nil
}

func (l *RedisLocker) release(ctx context.Context, name, token string) error {
	n, err := releaseScript.Run(ctx, l.client, []string{l.prefix + name}, token).Int()
	if err != nil {
		return fmt.Errorf("failed to release lock %s: %w", name, err)
	}
	if n == 0 {
		return ErrNotHeld
	}
	return nil
}

// LocalLocker is a process-local Locker used when Redis is not configured
type LocalLocker struct {
	mu    sync.Mutex
	held  map[string]localEntry
	clock func() time.Time
}

type localEntry struct {
	token   string
	expires time.Time
}

// NewLocalLocker creates an empty LocalLocker
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: map[string]localEntry{}, clock: time.Now}
}

func (l *LocalLocker) TryAcquire(_ context.Context, name string, ttl time.Duration) (*Lease, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	if e, ok := l.held[name]; ok && now.Before(e.expires) {
		return nil, nil
	}
	token := uuid.NewString()
	l.held[name] = localEntry{token: token, expires: now.Add(ttl)}
	return &Lease{Name: name, token: token, release: l.release}, nil
}

func (l *LocalLocker) release(_ context.Context, name, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.held[name]
	if !ok || e.token != token {
		return ErrNotHeld
	}
	delete(l.held, name)
	return nil
}
