package lockout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	dErrors "fundops/pkg/domain-errors"
	"fundops/pkg/platform/circuit"
)

type GuardSuite struct {
	suite.Suite
	store *MemoryStore
	now   time.Time
	guard *Guard
}

func TestGuardSuite(t *testing.T) {
	suite.Run(t, new(GuardSuite))
}

func (s *GuardSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.store = NewMemoryStore()
	s.store.now = func() time.Time { return s.now }
	s.guard = NewGuard(s.store, 3, 15*time.Minute)
}

func (s *GuardSuite) TestLocksAtThreshold() {
	ctx := context.Background()
	key := "a@x.com"

	for i := 1; i <= 2; i++ {
		locked, err := s.guard.Fail(ctx, key)
		s.Require().NoError(err)
		s.False(locked)
		s.NoError(s.guard.Check(ctx, key))
	}

	locked, err := s.guard.Fail(ctx, key)
	s.Require().NoError(err)
	s.True(locked)

	err = s.guard.Check(ctx, key)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeTooManyRequests))

	s.Run("other keys are unaffected", func() {
		s.NoError(s.guard.Check(ctx, "b@x.com"))
	})
}

func (s *GuardSuite) TestWindowExpiry() {
	ctx := context.Background()
	key := "a@x.com"
	for i := 0; i < 3; i++ {
		_, _ = s.guard.Fail(ctx, key)
	}
	s.Require().Error(s.guard.Check(ctx, key))

	s.now = s.now.Add(15 * time.Minute)
	s.NoError(s.guard.Check(ctx, key))
}

func (s *GuardSuite) TestResetClearsCounter() {
	ctx := context.Background()
	key := "a@x.com"
	_, _ = s.guard.Fail(ctx, key)
	_, _ = s.guard.Fail(ctx, key)
	s.guard.Reset(ctx, key)

	n, err := s.store.Failures(ctx, key)
	s.Require().NoError(err)
	s.Zero(n)
}

func (s *GuardSuite) TestDisabledGuard() {
	ctx := context.Background()
	g := NewGuard(s.store, 0, time.Minute)
	locked, err := g.Fail(ctx, "a@x.com")
	s.NoError(err)
	s.False(locked)
	s.NoError(g.Check(ctx, "a@x.com"))

	var nilGuard *Guard
	s.NoError(nilGuard.Check(ctx, "a@x.com"))
}

type brokenStore struct{}

func (brokenStore) Failures(context.Context, string) (int, error) {
	return 0, errors.New("connection refused")
}

func (brokenStore) RecordFailure(context.Context, string, time.Duration) (int, error) {
	return 0, errors.New("connection refused")
}

func (brokenStore) Clear(context.Context, string) error {
	return errors.New("connection refused")
}

func (s *GuardSuite) TestCheckFailsOpenOnStoreError() {
	g := NewGuard(brokenStore{}, 1, time.Minute)
	s.NoError(g.Check(context.Background(), "a@x.com"))
}

func (s *GuardSuite) TestFallbackStore() {
	ctx := context.Background()
	breaker := circuit.New("lockout-redis", circuit.WithFailureThreshold(2))
	fallback := NewMemoryStore()
	st := NewFallbackStore(brokenStore{}, fallback, breaker, nil)

	n, err := st.RecordFailure(ctx, "a@x.com", time.Minute)
	s.Require().NoError(err)
	s.Equal(1, n)
	s.False(breaker.IsOpen())

	n, err = st.RecordFailure(ctx, "a@x.com", time.Minute)
	s.Require().NoError(err)
	s.Equal(2, n)
	s.True(breaker.IsOpen())

	n, err = st.Failures(ctx, "a@x.com")
	s.Require().NoError(err)
	s.Equal(2, n)

	s.Require().NoError(st.Clear(ctx, "a@x.com"))
	n, _ = fallback.Failures(ctx, "a@x.com")
	s.Zero(n)
}
