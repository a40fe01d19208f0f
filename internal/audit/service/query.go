package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"fleetaudit/internal/audit/models"
	"fleetaudit/internal/audit/store/ledger"
)

// Find applies the filter's predicates over the ledger, sorts newest-first
// and returns one page. Malformed pagination is clamped, never rejected;
// out-of-range pages return empty items with the correct totals.
func (s *Service) Find(ctx context.Context, filter models.Filter, page models.Pagination) (*models.EventPage, error) {
	ctx, span := s.tracer.Start(ctx, "audit.Find")
	defer span.End()

	if s.metrics != nil {
		s.metrics.IncrementQueries()
	}

	matched, err := s.findAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	page = page.Clamp()
	total := len(matched)
	totalPages := (total + page.PageSize - 1) / page.PageSize

	span.SetAttributes(
		attribute.Int("audit.total", total),
		attribute.Int("audit.page", page.Page),
	)

	// Check the page number against totalPages before deriving slice offsets:
	// with an arbitrarily large page the start multiplication would overflow.
	if page.Page > totalPages {
		return &models.EventPage{
			Items:      []models.AuditEvent{},
			Total:      total,
			Page:       page.Page,
			PageSize:   page.PageSize,
			TotalPages: totalPages,
		}, nil
	}

	start := (page.Page - 1) * page.PageSize
	end := start + page.PageSize
	if end > total {
		end = total
	}

	items := make([]models.AuditEvent, end-start)
	copy(items, matched[start:end])
	for i := range items {
		ensureChanges(&items[i])
	}

	return &models.EventPage{
		Items:      items,
		Total:      total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: totalPages,
	}, nil
}

// FindAll returns the full matching set without pagination, newest first.
// The export pipeline consumes this; interactive views use Find.
func (s *Service) FindAll(ctx context.Context, filter models.Filter) ([]models.AuditEvent, error) {
	matched, err := s.findAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	for i := range matched {
		ensureChanges(&matched[i])
	}
	return matched, nil
}

// findAll returns every event matching the filter, newest first. The time
// range is pushed down to the store scan; the remaining predicates run here.
func (s *Service) findAll(ctx context.Context, filter models.Filter) ([]models.AuditEvent, error) {
	events, err := s.store.Scan(ctx, ledger.ScanRange{Start: filter.Start, End: filter.End})
	if err != nil {
		return nil, err
	}

	matched := events[:0:0]
	for _, e := range events {
		if filter.Matches(&e) {
			matched = append(matched, e)
		}
	}
	return matched, nil
}
