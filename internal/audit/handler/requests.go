package handler

import (
	"net/http"
	"strconv"
	"time"

	"fleetaudit/internal/audit/models"
	dErrors "fleetaudit/pkg/domain-errors"
)

type recordResponse struct {
	EventID string `json:"event_id"`
}

// eventResponse decorates a stored event with the human-readable reason label
// resolved from the reason catalog.
type eventResponse struct {
	*models.AuditEvent
	ReasonLabel string `json:"reason_label,omitempty"`
}

// ExportRequest is the POST /audit/export body.
type ExportRequest struct {
	Format string        `json:"format"`
	Filter models.Filter `json:"filter"`
}

// Validate checks the requested format. The filter itself needs no
// validation; unknown predicate values simply match nothing.
func (r ExportRequest) Validate() error {
	if _, err := models.ParseExportFormat(r.Format); err != nil {
		return err
	}
	return nil
}

// filterFromQuery builds a Filter from GET query parameters. Query reads are
// non-destructive, so malformed values are corrected or ignored rather than
// rejected: bad timestamps drop the bound, unknown enum values become
// exact-match predicates that match nothing.
func filterFromQuery(r *http.Request) models.Filter {
	q := r.URL.Query()
	f := models.Filter{
		ActorID:      q.Get("actor_id"),
		Username:     q.Get("username"),
		Role:         models.Role(q.Get("role")),
		Action:       models.Action(q.Get("action")),
		ResourceType: models.ResourceType(q.Get("resource_type")),
		ResourceID:   q.Get("resource_id"),
		Search:       q.Get("q"),
	}

	if v := q.Get("start"); v != "" {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			f.Start = &ts
		}
	}
	if v := q.Get("end"); v != "" {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			f.End = &ts
		}
	}
	if v := q.Get("success"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			f.Success = &b
		}
	}
	return f
}

// paginationFromQuery builds a Pagination from query parameters. Parse
// failures yield zero values, which Clamp repairs.
func paginationFromQuery(r *http.Request) models.Pagination {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))
	return models.Pagination{Page: page, PageSize: pageSize}.Clamp()
}

// windowFromQuery parses the stats window, defaulting to 24h when absent.
func windowFromQuery(r *http.Request) (models.StatsWindow, error) {
	v := r.URL.Query().Get("window")
	if v == "" {
		return models.Window24h, nil
	}
	w, err := models.ParseStatsWindow(v)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid stats window")
	}
	return w, nil
}
