// Package sink fans committed audit events out to downstream consumers. The
// ledger stays the source of truth; the sink is best-effort and never blocks
// or fails an append.
package sink

import (
	"context"
	"encoding/json"
	"log/slog"

	"fleetaudit/internal/audit/models"
)

// Publisher sends one serialized event downstream.
type Publisher interface {
	Publish(ctx context.Context, key, value []byte) error
}

// Sink buffers committed events and publishes them from a background worker,
// keeping the append path free of broker latency.
type Sink struct {
	publisher Publisher
	logger    *slog.Logger
	inbox     chan models.AuditEvent
}

// New constructs a sink with a bounded inbox. When the inbox is full, events
// are dropped with a log line rather than blocking the append path; the
// ledger itself already holds them durably.
func New(publisher Publisher, logger *slog.Logger) *Sink {
	return &Sink{
		publisher: publisher,
		logger:    logger,
		inbox:     make(chan models.AuditEvent, 256),
	}
}

// Offer enqueues a committed event for fan-out.
func (s *Sink) Offer(event models.AuditEvent) {
	select {
	case s.inbox <- event:
	default:
		s.logger.Warn("audit sink inbox full, dropping fan-out event",
			"event_id", event.ID,
			"action", event.Action,
		)
	}
}

// Run consumes the inbox until the context is canceled.
func (s *Sink) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-s.inbox:
			s.publish(ctx, event)
		}
	}
}

func (s *Sink) publish(ctx context.Context, event models.AuditEvent) {
	value, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("failed to marshal fan-out event",
			"event_id", event.ID,
			"error", err,
		)
		return
	}
	if err := s.publisher.Publish(ctx, []byte(event.ID), value); err != nil {
		s.logger.Error("failed to publish fan-out event",
			"event_id", event.ID,
			"action", event.Action,
			"error", err,
		)
		return
	}
	s.logger.Debug("published fan-out event",
		"event_id", event.ID,
		"action", event.Action,
	)
}
