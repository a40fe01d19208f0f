package service

import (
	"fmt"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetaudit/internal/audit/models"
)

func (s *ServiceSuite) seed(events ...*models.AuditEvent) []string {
	ids := make([]string, 0, len(events))
	for _, ev := range events {
		id, err := s.service.Record(s.ctx, ev)
		require.NoError(s.T(), err)
		ids = append(ids, id)
	}
	return ids
}

// seedMixed appends ten events: three failed driver assignments and seven
// successful vehicle updates, each one minute apart.
func (s *ServiceSuite) seedMixed() {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		ev := baseEvent()
		ev.Timestamp = base.Add(time.Duration(i) * time.Minute)
		if i < 3 {
			ev.Action = models.ActionAssign
			ev.Resource = models.Resource{Type: models.ResourceDriver, ID: fmt.Sprintf("drv-%d", i)}
			ev.Success = false
			ev.ErrorMessage = "driver unavailable"
		}
		s.seed(ev)
	}
}

func (s *ServiceSuite) TestFindNewestFirst() {
	s.seedMixed()

	page, err := s.service.Find(s.ctx, models.Filter{}, models.Pagination{})
	require.NoError(s.T(), err)
	require.Len(s.T(), page.Items, 10)
	for i := 1; i < len(page.Items); i++ {
		assert.False(s.T(), page.Items[i-1].Timestamp.Before(page.Items[i].Timestamp))
	}
}

func (s *ServiceSuite) TestFindFilterConjunction() {
	s.seedMixed()
	failed := false

	page, err := s.service.Find(s.ctx, models.Filter{
		ResourceType: models.ResourceDriver,
		Success:      &failed,
	}, models.Pagination{})
	require.NoError(s.T(), err)

	assert.Equal(s.T(), 3, page.Total)
	assert.Equal(s.T(), 1, page.TotalPages)
	for _, e := range page.Items {
		assert.Equal(s.T(), models.ResourceDriver, e.Resource.Type)
		assert.False(s.T(), e.Success)
	}
}

func (s *ServiceSuite) TestFindPaginationArithmetic() {
	s.seedMixed()

	page, err := s.service.Find(s.ctx, models.Filter{}, models.Pagination{Page: 2, PageSize: 4})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 10, page.Total)
	assert.Equal(s.T(), 3, page.TotalPages)
	assert.Equal(s.T(), 2, page.Page)
	assert.Len(s.T(), page.Items, 4)

	last, err := s.service.Find(s.ctx, models.Filter{}, models.Pagination{Page: 3, PageSize: 4})
	require.NoError(s.T(), err)
	assert.Len(s.T(), last.Items, 2)
}

func (s *ServiceSuite) TestFindPageBeyondRange() {
	s.seedMixed()

	page, err := s.service.Find(s.ctx, models.Filter{}, models.Pagination{Page: 9, PageSize: 4})
	require.NoError(s.T(), err)
	assert.Empty(s.T(), page.Items)
	assert.Equal(s.T(), 10, page.Total)
	assert.Equal(s.T(), 3, page.TotalPages)
	assert.Equal(s.T(), 9, page.Page)
}

func (s *ServiceSuite) TestFindHugePageNumber() {
	s.seedMixed()

	page, err := s.service.Find(s.ctx, models.Filter{}, models.Pagination{Page: 1 << 62, PageSize: 20})
	require.NoError(s.T(), err)
	assert.Empty(s.T(), page.Items)
	assert.Equal(s.T(), 10, page.Total)
	assert.Equal(s.T(), 1, page.TotalPages)
	assert.Equal(s.T(), 1<<62, page.Page)
}

func (s *ServiceSuite) TestFindHugePageSize() {
	s.seedMixed()

	page, err := s.service.Find(s.ctx, models.Filter{}, models.Pagination{Page: 1, PageSize: 1 << 62})
	require.NoError(s.T(), err)
	assert.Len(s.T(), page.Items, 10)
	assert.Equal(s.T(), 1, page.TotalPages)
}

func (s *ServiceSuite) TestFindClampsPagination() {
	s.seedMixed()

	page, err := s.service.Find(s.ctx, models.Filter{}, models.Pagination{Page: -3, PageSize: 0})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, page.Page)
	assert.Equal(s.T(), models.DefaultPageSize, page.PageSize)
	assert.Len(s.T(), page.Items, 10)
}

func (s *ServiceSuite) TestFindTimeBounds() {
	s.seedMixed()
	start := time.Date(2026, 3, 10, 9, 5, 0, 0, time.UTC)

	page, err := s.service.Find(s.ctx, models.Filter{Start: &start}, models.Pagination{})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 5, page.Total)
	for _, e := range page.Items {
		assert.False(s.T(), e.Timestamp.Before(start))
	}
}

func (s *ServiceSuite) TestFindUsernameSubstring() {
	s.seedMixed()

	page, err := s.service.Find(s.ctx, models.Filter{Username: "LENA"}, models.Pagination{})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 10, page.Total)
}

func (s *ServiceSuite) TestFindFreeTextSearch() {
	s.seedMixed()

	page, err := s.service.Find(s.ctx, models.Filter{Search: "drv-2"}, models.Pagination{})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, page.Total)
}

func (s *ServiceSuite) TestFindComputesChangesPerItem() {
	ev := baseEvent()
	ev.BeforeState = map[string]any{"status": "pending"}
	ev.AfterState = map[string]any{"status": "approved"}
	s.seed(ev)

	page, err := s.service.Find(s.ctx, models.Filter{}, models.Pagination{})
	require.NoError(s.T(), err)
	require.Len(s.T(), page.Items, 1)
	require.Len(s.T(), page.Items[0].Changes, 1)
	assert.Equal(s.T(), "status", page.Items[0].Changes[0].Field)
}

func (s *ServiceSuite) TestFindAllIgnoresPagination() {
	s.seedMixed()

	all, err := s.service.FindAll(s.ctx, models.Filter{})
	require.NoError(s.T(), err)
	assert.Len(s.T(), all, 10)
}
