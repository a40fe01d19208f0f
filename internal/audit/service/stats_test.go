package service

import (
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetaudit/internal/audit/models"
	dErrors "fleetaudit/pkg/domain-errors"
	"fleetaudit/pkg/requestcontext"
)

func (s *ServiceSuite) TestStatsCounts() {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(s.ctx, now)

	for i := 0; i < 5; i++ {
		ev := baseEvent()
		ev.Timestamp = now.Add(-time.Duration(i) * time.Hour)
		if i == 0 {
			ev.Success = false
			ev.ErrorMessage = "geofence service timeout"
		}
		s.seed(ev)
	}

	stats, err := s.service.Stats(ctx, models.Window24h)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 5, stats.TotalEvents)
	assert.Equal(s.T(), 4, stats.SuccessfulActions)
	assert.Equal(s.T(), 1, stats.FailedActions)
	assert.Equal(s.T(), stats.TotalEvents, stats.SuccessfulActions+stats.FailedActions)
	assert.Equal(s.T(), 5, stats.ActionsByType[models.ActionUpdate])
}

func (s *ServiceSuite) TestStatsWindowExcludesOlderEvents() {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(s.ctx, now)

	inside := baseEvent()
	inside.Timestamp = now.Add(-23 * time.Hour)
	outside := baseEvent()
	outside.Timestamp = now.Add(-25 * time.Hour)
	s.seed(inside, outside)

	day, err := s.service.Stats(ctx, models.Window24h)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, day.TotalEvents)

	week, err := s.service.Stats(ctx, models.Window7d)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 2, week.TotalEvents)
}

func (s *ServiceSuite) TestStatsBreakGlassAndDualControl() {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(s.ctx, now)

	bg := baseEvent()
	bg.Timestamp = now.Add(-time.Hour)
	bg.Action = models.ActionBreakGlass
	bg.BreakGlass = &models.BreakGlassDetails{
		Used:          true,
		Justification: "after-hours lockout",
		ApprovedBy:    "usr-supervisor",
	}

	dc := baseEvent()
	dc.Timestamp = now.Add(-2 * time.Hour)
	dc.Action = models.ActionDualControl
	dc.DualControlApprover = &models.DualControlApprover{
		UserID:   "usr-2",
		Username: "fleet.omar",
		Role:     models.RoleFleetManager,
	}

	s.seed(bg, dc)

	stats, err := s.service.Stats(ctx, models.Window24h)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, stats.BreakGlassUsed)
	assert.Equal(s.T(), 1, stats.DualControlActions)
}

func (s *ServiceSuite) TestStatsEventsByDay() {
	now := time.Date(2026, 3, 10, 2, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(s.ctx, now)

	today := baseEvent()
	today.Timestamp = now.Add(-time.Hour)
	yesterday := baseEvent()
	yesterday.Timestamp = now.Add(-4 * time.Hour)
	s.seed(today, yesterday)

	stats, err := s.service.Stats(ctx, models.Window7d)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, stats.EventsByDay["2026-03-10"])
	assert.Equal(s.T(), 1, stats.EventsByDay["2026-03-09"])
}

func (s *ServiceSuite) TestStatsInvalidWindow() {
	_, err := s.service.Stats(s.ctx, models.StatsWindow("366d"))
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ServiceSuite) TestStatsEmptyLedger() {
	stats, err := s.service.Stats(s.ctx, models.Window30d)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 0, stats.TotalEvents)
	assert.NotNil(s.T(), stats.ActionsByType)
	assert.NotNil(s.T(), stats.EventsByDay)
}
