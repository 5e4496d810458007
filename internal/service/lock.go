package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ClassLocker grants exclusive access to one classroom at a time.  The
// returned release function must be called exactly once.
type ClassLocker interface {
	Lock(ctx context.Context, classID uint64) (release func(), err error)
}

// ErrLockTimeout is returned when a classroom stays locked longer than the
// caller is willing to wait.
var ErrLockTimeout = errors.New("classroom is busy, try again")

// KeyedMutex is the in-process ClassLocker used by single-node deployments.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[uint64]*keyedEntry
}

type keyedEntry struct {
	ch   chan struct{} // buffered(1); holding the token means holding the lock
	refs int
}

// NewKeyedMutex returns an empty KeyedMutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[uint64]*keyedEntry)}
}

func (k *KeyedMutex) Lock(ctx context.Context, classID uint64) (func(), error) {
	k.mu.Lock()
	e, ok := k.locks[classID]
	if !ok {
		e = &keyedEntry{ch: make(chan struct{}, 1)}
		k.locks[classID] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		k.unref(classID, e)
		return nil, fmt.Errorf("lock class %d: %w", classID, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			k.unref(classID, e)
		})
	}, nil
}

func (k *KeyedMutex) unref(classID uint64, e *keyedEntry) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(k.locks, classID)
	}
}

// RedisLocker serializes access across processes with SET NX PX and a
// compare-and-delete release, so a holder never deletes a lock it lost
// through expiry.
type RedisLocker struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
	wait   time.Duration
	poll   time.Duration
}

var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// NewRedisLocker returns a locker whose locks expire after ttl and whose
// Lock gives up after wait.
func NewRedisLocker(rdb *redis.Client, prefix string, ttl, wait time.Duration) *RedisLocker {
	if prefix == "" {
		prefix = "seating"
	}
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if wait <= 0 {
		wait = 5 * time.Second
	}
	return &RedisLocker{rdb: rdb, prefix: prefix, ttl: ttl, wait: wait, poll: 50 * time.Millisecond}
}

func (l *RedisLocker) Lock(ctx context.Context, classID uint64) (func(), error) {
	key := l.prefix + ":lock:class:" + strconv.FormatUint(classID, 10)
	token := uuid.NewString()

	ctx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()
	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()
	for {
		ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("redis lock %s: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ErrLockTimeout
		case <-ticker.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = releaseScript.Run(rctx, l.rdb, []string{key}, token).Err()
		})
	}, nil
}
