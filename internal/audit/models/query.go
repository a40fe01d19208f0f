package models

import (
	"strings"
	"time"

	dErrors "fleetaudit/pkg/domain-errors"
)

// Filter is a conjunction of independently-optional predicates over the
// ledger. Zero values mean "any".
type Filter struct {
	Start        *time.Time   `json:"start,omitempty"`
	End          *time.Time   `json:"end,omitempty"`
	ActorID      string       `json:"actor_id,omitempty"`
	Username     string       `json:"username,omitempty"` // case-insensitive substring
	Role         Role         `json:"role,omitempty"`
	Action       Action       `json:"action,omitempty"`
	ResourceType ResourceType `json:"resource_type,omitempty"`
	ResourceID   string       `json:"resource_id,omitempty"`
	Success      *bool        `json:"success,omitempty"`
	Search       string       `json:"search,omitempty"`
}

// Matches evaluates every present predicate against the event, AND-combined.
func (f Filter) Matches(e *AuditEvent) bool {
	if f.Start != nil && e.Timestamp.Before(*f.Start) {
		return false
	}
	if f.End != nil && e.Timestamp.After(*f.End) {
		return false
	}
	if f.ActorID != "" && e.Actor.UserID != f.ActorID {
		return false
	}
	if f.Username != "" && !strings.Contains(strings.ToLower(e.Actor.Username), strings.ToLower(f.Username)) {
		return false
	}
	if f.Role != "" && e.Actor.Role != f.Role {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.ResourceType != "" && e.Resource.Type != f.ResourceType {
		return false
	}
	if f.ResourceID != "" && e.Resource.ID != f.ResourceID {
		return false
	}
	if f.Success != nil && e.Success != *f.Success {
		return false
	}
	if f.Search != "" && !matchesSearch(e, f.Search) {
		return false
	}
	return true
}

// matchesSearch checks the free-text clause: case-insensitive OR over event
// id, actor username, resource id, resource label, and action name.
func matchesSearch(e *AuditEvent, query string) bool {
	q := strings.ToLower(query)
	for _, field := range []string{
		e.ID,
		e.Actor.Username,
		e.Resource.ID,
		e.Resource.Label,
		string(e.Action),
	} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// Pagination selects a page of a result set. Page and PageSize are 1-based.
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// Clamp corrects out-of-range values to the nearest valid ones. Queries are
// non-destructive, so malformed pagination is repaired rather than rejected.
func (p Pagination) Clamp() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	return p
}

// DefaultPageSize applies when the caller supplies no page size.
const DefaultPageSize = 20

// EventPage is one page of filtered results.
type EventPage struct {
	Items      []AuditEvent `json:"items"`
	Total      int          `json:"total"`
	Page       int          `json:"page"`
	PageSize   int          `json:"page_size"`
	TotalPages int          `json:"total_pages"`
}

// StatsWindow selects the half-open range [now - window, now] for aggregation.
type StatsWindow string

const (
	Window24h StatsWindow = "24h"
	Window7d  StatsWindow = "7d"
	Window30d StatsWindow = "30d"
	Window90d StatsWindow = "90d"
)

var windowDurations = map[StatsWindow]time.Duration{
	Window24h: 24 * time.Hour,
	Window7d:  7 * 24 * time.Hour,
	Window30d: 30 * 24 * time.Hour,
	Window90d: 90 * 24 * time.Hour,
}

// IsValid checks if the window is one of the supported enum values.
func (w StatsWindow) IsValid() bool {
	_, ok := windowDurations[w]
	return ok
}

// Duration returns the window length.
func (w StatsWindow) Duration() time.Duration {
	return windowDurations[w]
}

// ParseStatsWindow creates a StatsWindow from a string, validating it.
func ParseStatsWindow(s string) (StatsWindow, error) {
	w := StatsWindow(s)
	if !w.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown stats window: %q (want 24h, 7d, 30d or 90d)", s)
	}
	return w, nil
}

// StatsSummary aggregates ledger activity over one window.
type StatsSummary struct {
	TotalEvents        int            `json:"total_events"`
	SuccessfulActions  int            `json:"successful_actions"`
	FailedActions      int            `json:"failed_actions"`
	BreakGlassUsed     int            `json:"break_glass_used"`
	DualControlActions int            `json:"dual_control_actions"`
	ActionsByType      map[Action]int `json:"actions_by_type"`
	EventsByDay        map[string]int `json:"events_by_day"` // UTC calendar date, YYYY-MM-DD
}

// ExportFormat selects the interchange format for export artifacts.
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatJSON ExportFormat = "json"
	FormatPDF  ExportFormat = "pdf"
)

// IsValid checks if the format is one of the supported enum values.
func (f ExportFormat) IsValid() bool {
	switch f {
	case FormatCSV, FormatJSON, FormatPDF:
		return true
	}
	return false
}

// ParseExportFormat creates an ExportFormat from a string, validating it.
func ParseExportFormat(s string) (ExportFormat, error) {
	f := ExportFormat(s)
	if !f.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown export format: %q (want csv, json or pdf)", s)
	}
	return f, nil
}

// ContentType returns the MIME type served for artifact downloads.
func (f ExportFormat) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatJSON:
		return "application/json"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
