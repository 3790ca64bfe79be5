package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "fundops/pkg/domain"
	audit "fundops/pkg/platform/audit"
	txcontext "fundops/pkg/platform/tx"
)

// Store implements audit.Store on the audit_events table. Writes join the
// caller's transaction when one is in the context, so a compliance event
// commits or rolls back together with the change it records.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	eventID := uuid.UUID(event.ID)
	if eventID == uuid.Nil {
		eventID = uuid.New()
	}
	category := event.Category
	if category == "" {
		category = audit.AuditEvent(event.Action).Category()
	}

	var actorID *uuid.UUID
	if !event.ActorID.IsNil() {
		a := uuid.UUID(event.ActorID)
		actorID = &a
	}

	query := `
		INSERT INTO audit_events (
			id, category, occurred_at, actor_id, subject, action,
			decision, reason, severity, ip, device, request_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		eventID,
		string(category),
		event.Timestamp,
		actorID,
		event.Subject,
		event.Action,
		event.Decision,
		event.Reason,
		string(event.Severity),
		event.IP,
		event.Device,
		event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListRecent returns the N most recent events.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	query := `
		SELECT id, category, occurred_at, actor_id, subject, action,
		       decision, reason, severity, ip, device, request_id
		FROM audit_events
		ORDER BY occurred_at DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			event    audit.Event
			eventID  uuid.UUID
			actorID  *uuid.UUID
			category string
			severity string
		)
		if err := rows.Scan(
			&eventID, &category, &event.Timestamp, &actorID, &event.Subject, &event.Action,
			&event.Decision, &event.Reason, &severity, &event.IP, &event.Device, &event.RequestID,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.ID = id.AuditEventID(eventID)
		event.Category = audit.EventCategory(category)
		event.Severity = audit.Severity(severity)
		if actorID != nil {
			event.ActorID = id.IdentityID(*actorID)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
