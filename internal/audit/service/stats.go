package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"fleetaudit/internal/audit/models"
	"fleetaudit/internal/audit/store/ledger"
	"fleetaudit/pkg/requestcontext"
)

// Stats aggregates ledger activity over the window [now - window, now].
// Pure aggregation over a time-bounded scan; no side effects.
func (s *Service) Stats(ctx context.Context, window models.StatsWindow) (*models.StatsSummary, error) {
	ctx, span := s.tracer.Start(ctx, "audit.Stats")
	defer span.End()
	span.SetAttributes(attribute.String("audit.window", string(window)))

	if !window.IsValid() {
		if _, err := models.ParseStatsWindow(string(window)); err != nil {
			return nil, err
		}
	}

	now := requestcontext.Now(ctx)
	start := now.Add(-window.Duration())

	events, err := s.store.Scan(ctx, ledger.ScanRange{Start: &start, End: &now})
	if err != nil {
		return nil, err
	}

	summary := &models.StatsSummary{
		ActionsByType: make(map[models.Action]int),
		EventsByDay:   make(map[string]int),
	}

	for _, e := range events {
		summary.TotalEvents++
		if e.Success {
			summary.SuccessfulActions++
		} else {
			summary.FailedActions++
		}
		if e.BreakGlass != nil && e.BreakGlass.Used {
			summary.BreakGlassUsed++
		}
		if e.DualControlApprover != nil {
			summary.DualControlActions++
		}
		summary.ActionsByType[e.Action]++

		day := e.Timestamp.UTC().Format("2006-01-02")
		summary.EventsByDay[day]++
	}

	return summary, nil
}
