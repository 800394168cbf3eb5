package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/turtacn/PatentCliff/pkg/errors"
)

var ErrLockNotHeld = errors.New(errors.ErrCodeConflict, "lock not held")

const lockPrefix = "patentcliff:lock:"

// Mutex is a single-owner lease in Redis.  Each instance carries a random
// token so only the holder can release or extend it.
type Mutex struct {
	client *Client
	key    string
	token  string
	ttl    time.Duration
}

// NewMutex returns an unlocked lease named name.
func NewMutex(client *Client, name string, ttl time.Duration) *Mutex {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Mutex{client: client, key: lockPrefix + name, token: uuid.NewString(), ttl: ttl}
}

var unlockScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	end
	return 0
`)

var extendScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("PEXPIRE", KEYS[1], ARGV[2])
	end
	return 0
`)

// TryLock reports whether the lease was acquired.  It never waits.
func (m *Mutex) TryLock(ctx context.Context) (bool, error) {
	ok, err := m.client.SetNX(ctx, m.key, m.token, m.ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeCacheError, "failed to acquire lock")
	}
	return ok, nil
}

func (m *Mutex) Unlock(ctx context.Context) error {
	if m.client.isClosed() {
		return ErrClientClosed
	}
	res, err := unlockScript.Run(ctx, m.client.rdb, []string{m.key}, m.token).Int64()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to release lock")
	}
	if res == 0 {
		return ErrLockNotHeld
	}
	return nil
}

// Extend pushes the expiry out by ttl if the lease is still ours.
func (m *Mutex) Extend(ctx context.Context, ttl time.Duration) (bool, error) {
	if m.client.isClosed() {
		return false, ErrClientClosed
	}
	res, err := extendScript.Run(ctx, m.client.rdb, []string{m.key}, m.token, ttl.Milliseconds()).Int64()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeCacheError, "failed to extend lock")
	}
	return res == 1, nil
}

//Personal.AI order the ending
