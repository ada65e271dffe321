package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Type names a lifecycle event consumed by the surrounding platform.
type Type string

const (
	TypeReportSubmitted           Type = "report.submitted"
	TypeReportValidated           Type = "report.validated"
	TypeReportInvalidated         Type = "report.invalidated"
	TypeRecategorizationRequested Type = "report.recategorization_requested"
	TypeReportRecategorized       Type = "report.recategorized"
	TypeReportReversed            Type = "report.reversed"
	TypeReportAmended             Type = "report.amended"
	TypeFeedbackCreated           Type = "feedback.created"
	TypeFeedbackEdited            Type = "feedback.edited"
	TypeFeedbackDeleted           Type = "feedback.deleted"
)

// Event is the payload published after a committed mutation. Events are
// informational: the audit tables, not the stream, are the record of truth.
type Event struct {
	ID         string         `json:"id"`
	Type       Type           `json:"type"`
	ReportID   uint           `json:"report_id"`
	ActorID    uint           `json:"actor_id"`
	OccurredAt time.Time      `json:"occurred_at"`
	Detail     map[string]any `json:"detail,omitempty"`
}

// Publisher delivers lifecycle events to interested consumers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// natsConn is the slice of *nats.Conn the publisher needs.
type natsConn interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher publishes events as JSON onto per-type NATS subjects.
type NATSPublisher struct {
	conn    natsConn
	base    string
	logger  zerolog.Logger
	eventID func() string
}

// NewNATSPublisher constructs a publisher rooted at the given subject base,
// e.g. base "taskcheck" yields subjects like "taskcheck.report.validated".
func NewNATSPublisher(conn *nats.Conn, base string, logger zerolog.Logger) *NATSPublisher {
	return &NATSPublisher{
		conn:    conn,
		base:    base,
		logger:  logger.With().Str("component", "event_publisher").Logger(),
		eventID: uuid.NewString,
	}
}

// Publish sends the event. The context is consulted for early cancellation
// only; NATS publishes are fire-and-forget.
func (p *NATSPublisher) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if event.ID == "" {
		event.ID = p.eventID()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	subject := SubjectFor(p.base, event.Type)
	if err := p.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}

	p.logger.Debug().Str("subject", subject).Str("event_id", event.ID).Msg("event published")

	return nil
}

// SubjectFor builds the NATS subject for an event type.
func SubjectFor(base string, eventType Type) string {
	if base == "" {
		return string(eventType)
	}

	return fmt.Sprintf("%s.%s", base, eventType)
}

// NoopPublisher discards events; used when no broker is configured.
type NoopPublisher struct{}

// Publish implements Publisher.
func (NoopPublisher) Publish(context.Context, Event) error { return nil }
