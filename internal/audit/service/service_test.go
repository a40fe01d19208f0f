package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"fleetaudit/internal/audit/models"
	"fleetaudit/internal/audit/policy"
	"fleetaudit/internal/audit/store/ledger"
	dErrors "fleetaudit/pkg/domain-errors"
)

// captureSink records offered events for assertions.
type captureSink struct {
	events []models.AuditEvent
}

func (c *captureSink) Offer(event models.AuditEvent) {
	c.events = append(c.events, event)
}

type ServiceSuite struct {
	suite.Suite
	ctx     context.Context
	store   *ledger.MemoryStore
	sink    *captureSink
	service *Service
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = ledger.NewMemory(policy.NewGuard())
	s.sink = &captureSink{}

	svc, err := New(s.store,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithSink(s.sink),
	)
	require.NoError(s.T(), err)
	s.service = svc
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func TestNewRequiresStore(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func baseEvent() *models.AuditEvent {
	return &models.AuditEvent{
		Timestamp: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		Actor: models.Actor{
			UserID:   "usr-1",
			Username: "dispatch.lena",
			Role:     models.RoleDispatcher,
		},
		Action: models.ActionUpdate,
		Resource: models.Resource{
			Type: models.ResourceVehicle,
			ID:   "veh-42",
		},
		Success: true,
	}
}

func (s *ServiceSuite) TestRecordAssignsID() {
	id, err := s.service.Record(s.ctx, baseEvent())
	require.NoError(s.T(), err)
	assert.NotEmpty(s.T(), id)
	assert.Equal(s.T(), 1, s.store.Len())
}

func (s *ServiceSuite) TestRecordRejectionCommitsNothing() {
	ev := baseEvent()
	ev.Actor.UserID = ""

	_, err := s.service.Record(s.ctx, ev)
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeValidation))
	assert.Equal(s.T(), 0, s.store.Len())
	assert.Empty(s.T(), s.sink.events)
}

func (s *ServiceSuite) TestRecordOffersCommittedCopyToSink() {
	ev := baseEvent()
	ev.ID = "" // store assigns

	id, err := s.service.Record(s.ctx, ev)
	require.NoError(s.T(), err)

	require.Len(s.T(), s.sink.events, 1)
	assert.Equal(s.T(), id, s.sink.events[0].ID)
	assert.NotZero(s.T(), s.sink.events[0].Seq)
}

func (s *ServiceSuite) TestRecordBreakGlass() {
	ev := baseEvent()
	ev.Action = models.ActionBreakGlass
	ev.BreakGlass = &models.BreakGlassDetails{
		Used:          true,
		Justification: "locked out during incident 7741",
		ApprovedBy:    "usr-supervisor",
	}

	_, err := s.service.Record(s.ctx, ev)
	assert.NoError(s.T(), err)
}

func (s *ServiceSuite) TestGetEventComputesChangesLazily() {
	ev := baseEvent()
	ev.BeforeState = map[string]any{"status": "pending", "driver": "d-1"}
	ev.AfterState = map[string]any{"status": "approved", "driver": "d-1"}

	id, err := s.service.Record(s.ctx, ev)
	require.NoError(s.T(), err)

	got, err := s.service.GetEvent(s.ctx, id)
	require.NoError(s.T(), err)
	require.Len(s.T(), got.Changes, 1)
	assert.Equal(s.T(), "status", got.Changes[0].Field)
	assert.Equal(s.T(), models.ChangeModified, got.Changes[0].ChangeType)

	// The stored record keeps its original form; recomputation happens per read.
	again, err := s.service.GetEvent(s.ctx, id)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), got.Changes, again.Changes)
}

func (s *ServiceSuite) TestGetEventPreservesStoredChanges() {
	ev := baseEvent()
	ev.BeforeState = map[string]any{"status": "pending"}
	ev.AfterState = map[string]any{"status": "approved"}
	ev.Changes = []models.ChangeDiff{{
		Field:      "status",
		OldValue:   "pending",
		NewValue:   "approved",
		ChangeType: models.ChangeModified,
	}}

	id, err := s.service.Record(s.ctx, ev)
	require.NoError(s.T(), err)

	got, err := s.service.GetEvent(s.ctx, id)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), ev.Changes, got.Changes)
}

func (s *ServiceSuite) TestGetEventNotFound() {
	_, err := s.service.GetEvent(s.ctx, "missing")
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeNotFound))
}
