package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// releaseScript deletes the lock only if it still carries our token.
// KEYS[1] = lock key, ARGV[1] = token
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`)

// RedisLocker is a Locker shared by every instance pointing at the same Redis.
type RedisLocker struct {
	Client *redis.Client
	Prefix string
	// TTL bounds how long a crashed holder can block others. It is not
	// renewed: holders must finish well within it. Stock updates hold the
	// lock for one read and one write.
	TTL  time.Duration
	Poll time.Duration
	Log  logrus.FieldLogger
}

func NewRedisLocker(client *redis.Client, log logrus.FieldLogger) *RedisLocker {
	return &RedisLocker{
		Client: client,
		Prefix: "lock:",
		TTL:    10 * time.Second,
		Poll:   25 * time.Millisecond,
		Log:    log,
	}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := l.Prefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.Poll)
	defer ticker.Stop()

	for {
		ok, err := l.Client.SetNX(ctx, lockKey, token, l.TTL).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, err
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(lockKey, token) })
	}, nil
}

// release drops the lock if it is still ours. A failed release leaves the key
// to expire after TTL.
func (l *RedisLocker) release(lockKey, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := releaseScript.Run(ctx, l.Client, []string{lockKey}, token).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		l.Log.WithError(err).WithFields(logrus.Fields{"key": lockKey, "ttl": l.TTL}).Error("release lock")
	}
}
