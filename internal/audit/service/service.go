// Package service implements the read and write operations of the audit
// trail: recording validated events, filtered queries, and windowed stats.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"fleetaudit/internal/audit/diff"
	"fleetaudit/internal/audit/metrics"
	"fleetaudit/internal/audit/models"
	"fleetaudit/internal/audit/store/ledger"
	dErrors "fleetaudit/pkg/domain-errors"
	"fleetaudit/pkg/requestcontext"
)

// EventSink receives committed events for downstream fan-out. Best-effort;
// must never block.
type EventSink interface {
	Offer(event models.AuditEvent)
}

type Service struct {
	store   ledger.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	sink    EventSink
	tracer  trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithSink(sink EventSink) Option {
	return func(s *Service) {
		s.sink = sink
	}
}

func New(store ledger.Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("ledger store is required")
	}

	svc := &Service{
		store:  store,
		logger: slog.Default(),
		tracer: otel.Tracer("fleetaudit/audit"),
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc, nil
}

// Record validates and appends one event to the ledger. Rejections surface to
// the producer untouched; they are never coerced into partial records.
func (s *Service) Record(ctx context.Context, event *models.AuditEvent) (string, error) {
	id, err := s.store.Append(ctx, event)
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncrementRejections(string(dErrors.CodeOf(err)))
		}
		s.logger.WarnContext(ctx, "audit append rejected",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return "", err
	}

	if s.metrics != nil {
		s.metrics.IncrementAppends()
		if event.BreakGlass != nil && event.BreakGlass.Used {
			s.metrics.IncrementBreakGlass()
		}
	}

	s.logger.InfoContext(ctx, "audit event recorded",
		"request_id", requestcontext.RequestID(ctx),
		"event_id", id,
		"action", event.Action,
		"resource_type", event.Resource.Type,
		"success", event.Success,
	)

	if s.sink != nil {
		// Re-read the committed copy so fan-out carries the store-assigned
		// fields, not the producer's input.
		if committed, err := s.store.Get(ctx, id); err == nil {
			s.sink.Offer(*committed)
		}
	}

	return id, nil
}

// GetEvent returns one event by id, computing its change set lazily when the
// snapshots exist but no diff was stored.
func (s *Service) GetEvent(ctx context.Context, id string) (*models.AuditEvent, error) {
	event, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ensureChanges(event)
	return event, nil
}

// ensureChanges computes the change set on demand. Idempotent: recomputing
// over the same snapshots yields the same result, and stored events are never
// mutated by it.
func ensureChanges(e *models.AuditEvent) {
	if e.Changes != nil || e.BeforeState == nil || e.AfterState == nil {
		return
	}
	e.Changes = diff.Compute(e.BeforeState, e.AfterState)
}
