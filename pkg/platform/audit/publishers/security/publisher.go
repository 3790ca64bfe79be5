// Package security publishes authentication and integrity events.
//
// Unlike compliance events, a failed security write never fails the caller:
// a login must not break because the audit sink is down. Failures are logged
// with the event so nothing is silently lost.
package security

import (
	"context"
	"log/slog"
	"time"

	audit "fundops/pkg/platform/audit"
)

type Publisher struct {
	store  audit.Store
	logger *slog.Logger
}

func New(store audit.Store, logger *slog.Logger) *Publisher {
	return &Publisher{store: store, logger: logger}
}

// Emit writes the event and logs, rather than returns, any failure.
func (p *Publisher) Emit(ctx context.Context, event audit.SecurityEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Severity == "" {
		event.Severity = audit.SeverityInfo
	}
	if err := p.store.Append(ctx, event.ToEvent()); err != nil && p.logger != nil {
		p.logger.ErrorContext(ctx, "security audit write failed",
			"action", event.Action,
			"subject", event.Subject,
			"severity", event.Severity,
			"error", err,
		)
	}
}
