package cache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lockKeyPrefix = "planpay:lock:"

var ErrNoClient = errors.New("cache client not configured")

// releaseScript deletes the lock only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker hands out short-lived distributed locks backed by SET NX PX.
type Locker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLocker creates a locker; ttl bounds how long a crashed holder blocks others.
func NewLocker(client *redis.Client, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Locker{client: client, ttl: ttl}
}

// Lock tries once to take the lock for key. ok is false when another holder has it.
func (l *Locker) Lock(ctx context.Context, key string) (unlock func(), ok bool, err error) {
	if l == nil || l.client == nil {
		return nil, false, ErrNoClient
	}
	token := uuid.NewString()
	fullKey := lockKeyPrefix + key

	ok, err = l.client.SetNX(ctx, fullKey, token, l.ttl).Result()
	if err != nil || !ok {
		return nil, false, err
	}

	unlock = func() {
		// Use a fresh context: the caller's may already be done.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.client, []string{fullKey}, token).Err()
	}
	return unlock, true, nil
}
