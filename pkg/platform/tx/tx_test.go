package tx

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "fundops/pkg/domain-errors"
)

func TestInMemoryTx(t *testing.T) {
	t.Run("rejects cancelled context before running", func(t *testing.T) {
		runner := NewInMemoryTx(0)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		called := false
		err := runner.RunInTx(ctx, func(context.Context) error {
			called = true
			return nil
		})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
		assert.False(t, called)
	})

	t.Run("applies default deadline", func(t *testing.T) {
		runner := NewInMemoryTx(50 * time.Millisecond)
		err := runner.RunInTx(context.Background(), func(txCtx context.Context) error {
			_, ok := txCtx.Deadline()
			assert.True(t, ok)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("propagates callback error", func(t *testing.T) {
		runner := NewInMemoryTx(0)
		want := errors.New("boom")
		err := runner.RunInTx(context.Background(), func(context.Context) error { return want })
		assert.ErrorIs(t, err, want)
	})

	t.Run("serializes operations on the same key", func(t *testing.T) {
		runner := NewInMemoryTx(time.Second)
		ctx := WithLockKey(context.Background(), "fund-1")

		var inFlight, maxInFlight atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = runner.RunInTx(ctx, func(context.Context) error {
					n := inFlight.Add(1)
					for {
						cur := maxInFlight.Load()
						if n <= cur || maxInFlight.CompareAndSwap(cur, n) {
							break
						}
					}
					time.Sleep(time.Millisecond)
					inFlight.Add(-1)
					return nil
				})
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), maxInFlight.Load())
	})
}

func TestSelectShard(t *testing.T) {
	runner := NewInMemoryTx(0)

	assert.Equal(t, uint32(0xe40c292c), hashString("a"), "FNV-1a of \"a\"")
	assert.Equal(t, 0, runner.selectShard(context.Background()))

	for _, key := range []string{"fund-1", "administrator:a@x.com", "3f0c7a52-9d1e-4f6b-8a0e-2b7c1d5e9f40"} {
		ctx := WithLockKey(context.Background(), key)
		shard := runner.selectShard(ctx)
		assert.GreaterOrEqual(t, shard, 0)
		assert.Less(t, shard, numShards)
		assert.Equal(t, shard, runner.selectShard(WithLockKey(context.Background(), key)), key)
	}
}

func TestAsPersistence(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, AsPersistence(nil, "load"))
	})

	t.Run("deadline becomes timeout", func(t *testing.T) {
		err := AsPersistence(context.DeadlineExceeded, "load fund")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
		assert.True(t, dErrors.IsPersistence(err))
	})

	t.Run("raw error becomes persistence error", func(t *testing.T) {
		err := AsPersistence(errors.New("connection refused"), "load fund")
		assert.True(t, dErrors.HasCode(err, dErrors.CodePersistence))
	})

	t.Run("coded error passes through", func(t *testing.T) {
		in := dErrors.New(dErrors.CodeNotFound, "fund not found")
		assert.Same(t, in, AsPersistence(in, "load fund"))
	})
}
