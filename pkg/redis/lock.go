package redis

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
)

// ErrLockNotAcquired is returned when a lock set cannot be claimed before the
// wait budget runs out.
var ErrLockNotAcquired = errors.New("lock not acquired")

const lockRetryInterval = 50 * time.Millisecond

// LockSet holds a group of keys claimed with a shared fencing token. Planning
// an order requires exclusive access to every product it touches, so the keys
// are always claimed in sorted order to avoid deadlocking with a competing
// claimer.
type LockSet struct {
	client *Client
	keys   []string
	token  string
}

// AcquireProductLocks claims one lock per product id, all or nothing. On
// contention it backs off and retries until wait elapses.
func (c *Client) AcquireProductLocks(ctx context.Context, productIDs []string, ttl, wait time.Duration) (*LockSet, error) {
	if len(productIDs) == 0 {
		return &LockSet{client: c}, nil
	}

	keys := make([]string, 0, len(productIDs))
	seen := make(map[string]struct{}, len(productIDs))
	for _, id := range productIDs {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		keys = append(keys, c.LockKey("product", id))
	}
	sort.Strings(keys)

	token := uuid.NewString()
	deadline := time.Now().Add(wait)

	for {
		acquired, err := c.tryAcquire(ctx, keys, token, ttl)
		if err != nil {
			return nil, err
		}
		if acquired {
			return &LockSet{client: c, keys: keys, token: token}, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrLockNotAcquired
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}
}

func (c *Client) tryAcquire(ctx context.Context, keys []string, token string, ttl time.Duration) (bool, error) {
	claimed := make([]string, 0, len(keys))
	for _, key := range keys {
		ok, err := c.SetNX(ctx, key, token, ttl)
		if err != nil {
			_ = c.Del(ctx, claimed...)
			return false, err
		}
		if !ok {
			if len(claimed) > 0 {
				_ = c.Del(ctx, claimed...)
			}
			return false, nil
		}
		claimed = append(claimed, key)
	}
	return true, nil
}

// Release frees every key in the set. Safe to call on an empty set.
func (ls *LockSet) Release(ctx context.Context) error {
	if ls == nil || ls.client == nil || len(ls.keys) == 0 {
		return nil
	}
	return ls.client.Del(ctx, ls.keys...)
}
