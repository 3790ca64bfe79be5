package lockout

import (
	"context"
	"log/slog"
	"time"

	"fundops/pkg/platform/circuit"
)

// FallbackStore uses primary until its breaker opens, then serves from
// fallback until primary succeeds again.
type FallbackStore struct {
	primary  Store
	fallback Store
	breaker  *circuit.Breaker
	logger   *slog.Logger
}

func NewFallbackStore(primary, fallback Store, breaker *circuit.Breaker, logger *slog.Logger) *FallbackStore {
	return &FallbackStore{primary: primary, fallback: fallback, breaker: breaker, logger: logger}
}

func (s *FallbackStore) Failures(ctx context.Context, key string) (int, error) {
	return call(ctx, s, func(st Store) (int, error) { return st.Failures(ctx, key) })
}

func (s *FallbackStore) RecordFailure(ctx context.Context, key string, window time.Duration) (int, error) {
	return call(ctx, s, func(st Store) (int, error) { return st.RecordFailure(ctx, key, window) })
}

func (s *FallbackStore) Clear(ctx context.Context, key string) error {
	_, err := call(ctx, s, func(st Store) (int, error) { return 0, st.Clear(ctx, key) })
	return err
}

func call(ctx context.Context, s *FallbackStore, fn func(Store) (int, error)) (int, error) {
	n, err := fn(s.primary)
	if err == nil {
		usePrimary, change := s.breaker.RecordSuccess()
		s.logChange(ctx, change)
		if !usePrimary {
			// Breaker still open until enough consecutive successes.
			return fn(s.fallback)
		}
		return n, nil
	}

	_, change := s.breaker.RecordFailure()
	s.logChange(ctx, change)
	if s.logger != nil {
		s.logger.WarnContext(ctx, "lockout primary store failed, using fallback",
			"breaker", s.breaker.Name(),
			"error", err,
		)
	}
	return fn(s.fallback)
}

func (s *FallbackStore) logChange(ctx context.Context, change circuit.StateChange) {
	if s.logger == nil {
		return
	}
	switch {
	case change.Opened:
		s.logger.WarnContext(ctx, "circuit breaker opened", "breaker", s.breaker.Name())
	case change.Closed:
		s.logger.InfoContext(ctx, "circuit breaker closed", "breaker", s.breaker.Name())
	}
}
