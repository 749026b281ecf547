package valkey

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	DefaultLockTTL = 2 * time.Minute
	lockRetryWait  = 100 * time.Millisecond
)

const releaseLockScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`

// ErrLockTimeout is returned when another holder kept the lock until the
// caller's context ended.
var ErrLockTimeout = errors.New("fill lock not acquired")

// FillLock serialises fills of the same artifact across server processes
// sharing one cache directory.
type FillLock struct {
	client *Client
	ttl    time.Duration
	owner  string
}

// NewFillLock creates a lock manager. ttl bounds how long a crashed holder
// can block others and must exceed the converter timeout. owner is stored
// in the lock value to show which server holds it.
func NewFillLock(client *Client, ttl time.Duration, owner string) *FillLock {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &FillLock{client: client, ttl: ttl, owner: owner}
}

// Lock spins on SET NX EX with jitter until the lock is taken or ctx ends.
// The returned unlock deletes the key only while it still holds our token.
func (l *FillLock) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := l.client.Key("lock", key)
	token := l.owner + "/" + uuid.New().String()
	inner := l.client.Inner()

	for attempt := 1; ; attempt++ {
		cmd := inner.B().Set().Key(lockKey).Value(token).Nx().Ex(l.ttl).Build()
		err := inner.Do(ctx, cmd).Error()
		if err == nil {
			logrus.Debugf("[FILL_LOCK] acquired %s after %d attempt(s)", key, attempt)
			return func() { l.release(lockKey, token) }, nil
		}
		if !IsNil(err) {
			logrus.Debugf("[FILL_LOCK] attempt %d for %s failed: %v", attempt, key, err)
		}

		sleep := lockRetryWait + time.Duration(rand.Intn(50))*time.Millisecond
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w for %s: %v", ErrLockTimeout, key, ctx.Err())
		case <-time.After(sleep):
		}
	}
}

func (l *FillLock) release(lockKey, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	inner := l.client.Inner()
	cmd := inner.B().Eval().Script(releaseLockScript).Numkeys(1).Key(lockKey).Arg(token).Build()
	if err := inner.Do(ctx, cmd).Error(); err != nil {
		logrus.Warnf("[FILL_LOCK] failed to release %s: %v", lockKey, err)
	}
}
