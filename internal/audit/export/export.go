// Package export renders filtered result sets into interchange formats and
// parks them in the artifact store for download. Export only ever reads the
// ledger; cancellation abandons the artifact and nothing else.
package export

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"fleetaudit/internal/audit/export/artifact"
	"fleetaudit/internal/audit/metrics"
	"fleetaudit/internal/audit/models"
	dErrors "fleetaudit/pkg/domain-errors"
	"fleetaudit/pkg/requestcontext"
)

// EventSource supplies the full matching set for a filter. The audit service
// satisfies this.
type EventSource interface {
	FindAll(ctx context.Context, filter models.Filter) ([]models.AuditEvent, error)
}

// Result is the retrievable artifact reference returned to the caller.
type Result struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

type Exporter struct {
	source    EventSource
	artifacts artifact.Store
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
}

type Option func(*Exporter)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Exporter) {
		e.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Exporter) {
		e.metrics = m
	}
}

func New(source EventSource, artifacts artifact.Store, opts ...Option) (*Exporter, error) {
	if source == nil {
		return nil, fmt.Errorf("event source is required")
	}
	if artifacts == nil {
		return nil, fmt.Errorf("artifact store is required")
	}

	exp := &Exporter{
		source:    source,
		artifacts: artifacts,
		logger:    slog.Default(),
		tracer:    otel.Tracer("fleetaudit/export"),
	}
	for _, opt := range opts {
		opt(exp)
	}
	return exp, nil
}

// Export renders the full filtered set into the requested format. An empty
// result set still yields a valid, header-only artifact. Serialization
// failures surface as coded errors and leave no artifact behind.
func (e *Exporter) Export(ctx context.Context, filter models.Filter, format models.ExportFormat) (*Result, error) {
	ctx, span := e.tracer.Start(ctx, "audit.Export")
	defer span.End()
	span.SetAttributes(attribute.String("audit.format", string(format)))

	if !format.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown export format: %q", format)
	}

	events, err := e.source.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	data, err := render(ctx, events, format)
	if err != nil {
		// Cancellation is the caller abandoning the artifact, not a
		// serialization defect.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("export to %s failed", format))
	}

	now := requestcontext.Now(ctx)
	a := artifact.Artifact{
		ID:        uuid.NewString(),
		Filename:  fmt.Sprintf("audit-log-%s.%s", now.UTC().Format("2006-01-02"), format),
		Format:    format,
		Data:      data,
		CreatedAt: now,
	}
	if err := e.artifacts.Put(ctx, a); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("export to %s failed", format))
	}

	if e.metrics != nil {
		e.metrics.IncrementExports(string(format))
	}
	e.logger.InfoContext(ctx, "export artifact produced",
		"request_id", requestcontext.RequestID(ctx),
		"artifact_id", a.ID,
		"filename", a.Filename,
		"format", format,
		"events", len(events),
	)

	return &Result{
		URL:      "/audit/exports/" + a.ID,
		Filename: a.Filename,
	}, nil
}

// Artifact fetches a previously produced artifact by id.
func (e *Exporter) Artifact(ctx context.Context, id string) (*artifact.Artifact, error) {
	return e.artifacts.Get(ctx, id)
}

func render(ctx context.Context, events []models.AuditEvent, format models.ExportFormat) ([]byte, error) {
	switch format {
	case models.FormatCSV:
		return renderCSV(ctx, events)
	case models.FormatJSON:
		return renderJSON(events)
	case models.FormatPDF:
		return renderPDF(ctx, events)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}
