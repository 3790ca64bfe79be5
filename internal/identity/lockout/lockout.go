// Package lockout counts failed logins per email address and locks the
// address once a threshold is reached within a sliding window.
package lockout

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	dErrors "fundops/pkg/domain-errors"
)

// Store keeps failure counters. Counters expire window after the first
// failure in the current window.
type Store interface {
	Failures(ctx context.Context, key string) (int, error)
	RecordFailure(ctx context.Context, key string, window time.Duration) (int, error)
	Clear(ctx context.Context, key string) error
}

// Guard applies the lockout threshold on top of a Store.
type Guard struct {
	store     Store
	threshold int
	window    time.Duration
	logger    *slog.Logger
}

type Option func(*Guard)

func WithLogger(logger *slog.Logger) Option {
	return func(g *Guard) {
		g.logger = logger
	}
}

// NewGuard builds a guard. A non-positive threshold disables lockout.
func NewGuard(store Store, threshold int, window time.Duration, opts ...Option) *Guard {
	g := &Guard{store: store, threshold: threshold, window: window}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Guard) enabled() bool {
	return g != nil && g.store != nil && g.threshold > 0
}

// Check returns CodeTooManyRequests when key is locked. Store errors fail
// open: lockout is a throttle, not an authentication factor.
func (g *Guard) Check(ctx context.Context, key string) error {
	if !g.enabled() {
		return nil
	}
	n, err := g.store.Failures(ctx, key)
	if err != nil {
		g.warn(ctx, "lockout check failed", err)
		return nil
	}
	if n >= g.threshold {
		return dErrors.New(dErrors.CodeTooManyRequests, "too many failed login attempts, try again later")
	}
	return nil
}

// Fail records a failed attempt and reports whether this attempt locked key.
func (g *Guard) Fail(ctx context.Context, key string) (bool, error) {
	if !g.enabled() {
		return false, nil
	}
	n, err := g.store.RecordFailure(ctx, key, g.window)
	if err != nil {
		return false, fmt.Errorf("record login failure: %w", err)
	}
	return n == g.threshold, nil
}

// Reset clears the counter after a successful login.
func (g *Guard) Reset(ctx context.Context, key string) {
	if !g.enabled() {
		return
	}
	if err := g.store.Clear(ctx, key); err != nil {
		g.warn(ctx, "lockout reset failed", err)
	}
}

func (g *Guard) warn(ctx context.Context, msg string, err error) {
	if g.logger != nil {
		g.logger.WarnContext(ctx, msg, "error", err)
	}
}
