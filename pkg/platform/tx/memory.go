package tx

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

// numShards spreads unrelated aggregates across locks so a slow fund
// mutation does not serialize policy updates.
const numShards = 64

// InMemoryTx serializes operations per lock key with sharded mutexes.
// It is the transaction boundary for the in-memory stores.
type InMemoryTx struct {
	shards  [numShards]sync.Mutex
	timeout time.Duration
}

func NewInMemoryTx(timeout time.Duration) *InMemoryTx {
	return &InMemoryTx{timeout: timeout}
}

type lockKey struct{}

// WithLockKey scopes the next RunInTx to the shard owning key
// (an identity or fund id). Without a key every call shares shard 0.
func WithLockKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, lockKey{}, key)
}

func (t *InMemoryTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}

	ctx, cancel := WithTimeout(ctx, t.timeout)
	defer cancel()

	shard := t.selectShard(ctx)
	t.shards[shard].Lock()
	defer t.shards[shard].Unlock()

	if err := checkCtx(ctx); err != nil {
		return err
	}
	return fn(ctx)
}

func (t *InMemoryTx) selectShard(ctx context.Context) int {
	if key, ok := ctx.Value(lockKey{}).(string); ok && key != "" {
		return int(hashString(key) % numShards)
	}
	return 0
}

func hashString(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}
