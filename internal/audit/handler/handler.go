package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mssola/useragent"

	"fleetaudit/internal/audit/export"
	"fleetaudit/internal/audit/export/artifact"
	"fleetaudit/internal/audit/models"
	"fleetaudit/internal/audit/reason"
	dErrors "fleetaudit/pkg/domain-errors"
	"fleetaudit/pkg/platform/httputil"
	"fleetaudit/pkg/requestcontext"
)

// Service defines the interface for audit event operations.
type Service interface {
	Record(ctx context.Context, event *models.AuditEvent) (string, error)
	GetEvent(ctx context.Context, id string) (*models.AuditEvent, error)
	Find(ctx context.Context, filter models.Filter, page models.Pagination) (*models.EventPage, error)
	Stats(ctx context.Context, window models.StatsWindow) (*models.StatsSummary, error)
}

// Exporter defines the interface for export artifact generation and retrieval.
type Exporter interface {
	Export(ctx context.Context, filter models.Filter, format models.ExportFormat) (*export.Result, error)
	Artifact(ctx context.Context, id string) (*artifact.Artifact, error)
}

// Handler wires audit trail endpoints to the audit service and exporter.
type Handler struct {
	service  Service
	exporter Exporter
	catalog  *reason.Catalog
	logger   *slog.Logger
}

// New constructs an audit handler with its dependencies.
func New(service Service, exporter Exporter, catalog *reason.Catalog, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		exporter: exporter,
		catalog:  catalog,
		logger:   logger,
	}
}

// Register mounts audit trail endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/audit", func(r chi.Router) {
		r.Post("/events", h.HandleRecordEvent)
		r.Get("/events", h.HandleListEvents)
		r.Get("/events/{eventID}", h.HandleGetEvent)
		r.Get("/stats", h.HandleStats)
		r.Post("/export", h.HandleExport)
		r.Get("/exports/{artifactID}", h.HandleDownloadArtifact)
		r.Get("/stream", h.HandleStream)
	})
}

// HandleRecordEvent handles POST /audit/events requests.
func (h *Handler) HandleRecordEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	event, ok := httputil.DecodeAndPrepare[models.AuditEvent](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	h.enrichProvenance(ctx, &event, requestID)

	eventID, err := h.service.Record(ctx, &event)
	if err != nil {
		h.logger.ErrorContext(ctx, "audit event rejected",
			"request_id", requestID,
			"action", event.Action,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "audit event recorded",
		"request_id", requestID,
		"event_id", eventID,
		"action", event.Action,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusCreated, recordResponse{EventID: eventID})
}

// HandleListEvents handles GET /audit/events requests.
func (h *Handler) HandleListEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	filter := filterFromQuery(r)
	page := paginationFromQuery(r)

	result, err := h.service.Find(ctx, filter, page)
	if err != nil {
		h.logger.ErrorContext(ctx, "audit query failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleGetEvent handles GET /audit/events/{eventID} requests.
func (h *Handler) HandleGetEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	eventID := chi.URLParam(r, "eventID")

	event, err := h.service.GetEvent(ctx, eventID)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			h.logger.ErrorContext(ctx, "audit event lookup failed",
				"request_id", requestID,
				"event_id", eventID,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, eventResponse{
		AuditEvent:  event,
		ReasonLabel: h.catalog.Lookup(event.ReasonCode).Label,
	})
}

// HandleStats handles GET /audit/stats requests.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	window, err := windowFromQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	summary, err := h.service.Stats(ctx, window)
	if err != nil {
		h.logger.ErrorContext(ctx, "audit stats failed",
			"request_id", requestID,
			"window", window,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, summary)
}

// HandleExport handles POST /audit/export requests.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[ExportRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	format, _ := models.ParseExportFormat(req.Format)
	result, err := h.exporter.Export(ctx, req.Filter, format)
	if err != nil {
		h.logger.ErrorContext(ctx, "audit export failed",
			"request_id", requestID,
			"format", format,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "audit export generated",
		"request_id", requestID,
		"format", format,
		"filename", result.Filename,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleDownloadArtifact handles GET /audit/exports/{artifactID} requests.
func (h *Handler) HandleDownloadArtifact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	artifactID := chi.URLParam(r, "artifactID")

	a, err := h.exporter.Artifact(ctx, artifactID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", a.Format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", a.Filename))
	w.WriteHeader(http.StatusOK)
	w.Write(a.Data)
}

// HandleStream handles GET /audit/stream requests. Live streaming is not
// implemented; events fan out to the configured broker instead.
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	httputil.WriteError(w, dErrors.New(dErrors.CodeNotImplemented, "live event streaming is not available"))
}

// enrichProvenance fills actor network details and request metadata from the
// transport layer. Client-supplied values for these fields are overwritten;
// provenance comes from the connection, not the payload.
func (h *Handler) enrichProvenance(ctx context.Context, event *models.AuditEvent, requestID string) {
	if ip := requestcontext.ClientIP(ctx); ip != "" {
		event.Actor.IPAddress = ip
	}
	rawUA := requestcontext.UserAgent(ctx)
	if rawUA != "" {
		event.Actor.UserAgent = rawUA
	}

	if event.Metadata == nil {
		event.Metadata = &models.Metadata{}
	}
	event.Metadata.RequestID = requestID
	if event.Metadata.ClientVersion == "" && rawUA != "" {
		ua := useragent.New(rawUA)
		name, version := ua.Browser()
		if name != "" {
			event.Metadata.ClientVersion = name + "/" + version
		}
	}
}
