package circuit

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// step is one recorded outcome: true for success, false for failure.
type step struct {
	ok           bool
	wantFallback bool
	wantOpened   bool
	wantClosed   bool
}

func TestBreakerSequences(t *testing.T) {
	cases := []struct {
		name  string
		opts  []Option
		steps []step
		final State
	}{
		{
			name: "stays closed below failure threshold",
			opts: []Option{WithFailureThreshold(3)},
			steps: []step{
				{ok: false},
				{ok: false},
				{ok: true},
				{ok: false},
				{ok: false},
			},
			final: StateClosed,
		},
		{
			name: "opens on the threshold failure and keeps serving fallback",
			opts: []Option{WithFailureThreshold(2)},
			steps: []step{
				{ok: false},
				{ok: false, wantFallback: true, wantOpened: true},
				{ok: false, wantFallback: true},
			},
			final: StateOpen,
		},
		{
			name: "closes after consecutive successes while open",
			opts: []Option{WithFailureThreshold(1), WithSuccessThreshold(2)},
			steps: []step{
				{ok: false, wantFallback: true, wantOpened: true},
				{ok: true, wantFallback: true},
				{ok: true, wantClosed: true},
			},
			final: StateClosed,
		},
		{
			name: "a failure while recovering restarts the success count",
			opts: []Option{WithFailureThreshold(1), WithSuccessThreshold(2)},
			steps: []step{
				{ok: false, wantFallback: true, wantOpened: true},
				{ok: true, wantFallback: true},
				{ok: false, wantFallback: true},
				{ok: true, wantFallback: true},
				{ok: true, wantClosed: true},
			},
			final: StateClosed,
		},
		{
			name: "non-positive thresholds keep defaults",
			opts: []Option{WithFailureThreshold(0), WithSuccessThreshold(-1)},
			steps: []step{
				{ok: false}, {ok: false}, {ok: false}, {ok: false},
				{ok: false, wantFallback: true, wantOpened: true},
			},
			final: StateOpen,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := New("lockout-redis", tc.opts...)
			for i, st := range tc.steps {
				var usePrimary bool
				var change StateChange
				if st.ok {
					usePrimary, change = b.RecordSuccess()
					assert.Equal(t, !st.wantFallback, usePrimary, "step %d", i)
				} else {
					var fallback bool
					fallback, change = b.RecordFailure()
					assert.Equal(t, st.wantFallback, fallback, "step %d", i)
				}
				assert.Equal(t, st.wantOpened, change.Opened, "step %d opened", i)
				assert.Equal(t, st.wantClosed, change.Closed, "step %d closed", i)
			}
			assert.Equal(t, tc.final, b.State())
		})
	}
}

func TestBreakerReset(t *testing.T) {
	b := New("lockout-redis", WithFailureThreshold(1))
	b.RecordFailure()
	require.True(t, b.IsOpen())
	assert.Equal(t, "open", b.State().String())

	b.Reset()
	assert.False(t, b.IsOpen())
	assert.Equal(t, "closed", b.State().String())
	assert.Equal(t, "lockout-redis", b.Name())
}

func TestBreakerConcurrentFailures(t *testing.T) {
	b := New("lockout-redis", WithFailureThreshold(50))

	var wg sync.WaitGroup
	opened := make(chan struct{}, 100)
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, change := b.RecordFailure(); change.Opened {
				opened <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(opened)

	assert.Len(t, opened, 1, "exactly one caller observes the transition")
	assert.True(t, b.IsOpen())
}
