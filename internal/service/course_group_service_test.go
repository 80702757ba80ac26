package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cesde/studentinfo-api/internal/models"
	"github.com/cesde/studentinfo-api/internal/repository"
	appErrors "github.com/cesde/studentinfo-api/pkg/errors"
)

type mockCourseGroupRepo struct {
	groups     map[string]*models.CourseGroup
	listed     []models.CourseGroup
	listCalls  int
	reserveErr error
	reserved   []string
	released   []string
}

func (m *mockCourseGroupRepo) FindByID(ctx context.Context, id string) (*models.CourseGroup, error) {
	if g, ok := m.groups[id]; ok {
		return g, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseGroupRepo) List(ctx context.Context, filter models.CourseGroupFilter) ([]models.CourseGroup, error) {
	m.listCalls++
	return m.listed, nil
}

func (m *mockCourseGroupRepo) ReserveSeat(ctx context.Context, id string) error {
	if m.reserveErr != nil {
		return m.reserveErr
	}
	m.reserved = append(m.reserved, id)
	return nil
}

func (m *mockCourseGroupRepo) ReleaseSeat(ctx context.Context, id string) error {
	m.released = append(m.released, id)
	return nil
}

type memoryCache struct {
	entries map[string][]byte
	deleted []string
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if m.entries == nil {
		m.entries = make(map[string][]byte)
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.deleted = append(m.deleted, pattern)
	m.entries = nil
	return nil
}

func TestCourseGroupServiceListAvailableCachesListing(t *testing.T) {
	repo := &mockCourseGroupRepo{listed: []models.CourseGroup{{ID: "g1", MaxStudents: 30, CurrentStudents: 12}}}
	cache := &memoryCache{}
	svc := NewCourseGroupService(repo, cache, time.Minute, nil, zap.NewNop())

	filter := models.CourseGroupFilter{CourseID: "c1", LevelID: "l1", AcademicPeriodID: "p1"}
	first, err := svc.ListAvailable(context.Background(), filter)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := svc.ListAvailable(context.Background(), filter)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, 1, repo.listCalls, "second listing must come from the cache")
}

func TestCourseGroupServiceListAvailableWithoutCache(t *testing.T) {
	repo := &mockCourseGroupRepo{listed: []models.CourseGroup{{ID: "g1"}}}
	svc := NewCourseGroupService(repo, nil, time.Minute, nil, zap.NewNop())

	groups, err := svc.ListAvailable(context.Background(), models.CourseGroupFilter{})
	require.NoError(t, err)
	assert.Len(t, groups, 1)
}

func TestCourseGroupServiceReserveSeatFull(t *testing.T) {
	repo := &mockCourseGroupRepo{
		groups:     map[string]*models.CourseGroup{"g1": {ID: "g1", MaxStudents: 30, CurrentStudents: 30}},
		reserveErr: repository.ErrNoSeat,
	}
	svc := NewCourseGroupService(repo, nil, time.Minute, nil, zap.NewNop())

	err := svc.ReserveSeat(context.Background(), "g1")
	assert.ErrorIs(t, err, appErrors.ErrGroupFull)
}

func TestCourseGroupServiceReserveSeatUnknownGroup(t *testing.T) {
	// A missing group is 404, not GROUP_FULL, even though the conditional
	// UPDATE would also match zero rows.
	repo := &mockCourseGroupRepo{reserveErr: repository.ErrNoSeat}
	svc := NewCourseGroupService(repo, nil, time.Minute, nil, zap.NewNop())

	err := svc.ReserveSeat(context.Background(), "ghost")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Empty(t, repo.reserved)
}

func TestCourseGroupServiceReleaseSeatUnknownGroup(t *testing.T) {
	repo := &mockCourseGroupRepo{}
	svc := NewCourseGroupService(repo, nil, time.Minute, nil, zap.NewNop())

	err := svc.ReleaseSeat(context.Background(), "ghost")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Empty(t, repo.released)
}

func TestCourseGroupServiceReserveReleaseCycle(t *testing.T) {
	repo := &mockCourseGroupRepo{
		groups: map[string]*models.CourseGroup{"g1": {ID: "g1", MaxStudents: 30, CurrentStudents: 10}},
	}
	svc := NewCourseGroupService(repo, nil, time.Minute, nil, zap.NewNop())

	require.NoError(t, svc.ReserveSeat(context.Background(), "g1"))
	require.NoError(t, svc.ReleaseSeat(context.Background(), "g1"))
	assert.Equal(t, []string{"g1"}, repo.reserved)
	assert.Equal(t, []string{"g1"}, repo.released)
}

func TestCourseGroupServiceInvalidateListings(t *testing.T) {
	repo := &mockCourseGroupRepo{listed: []models.CourseGroup{{ID: "g1"}}}
	cache := &memoryCache{}
	svc := NewCourseGroupService(repo, cache, time.Minute, nil, zap.NewNop())

	_, err := svc.ListAvailable(context.Background(), models.CourseGroupFilter{})
	require.NoError(t, err)
	svc.InvalidateListings(context.Background())

	_, err = svc.ListAvailable(context.Background(), models.CourseGroupFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.listCalls, "invalidation must force a database read")
	assert.NotEmpty(t, cache.deleted)
}

func TestCourseGroupAvailableSeats(t *testing.T) {
	group := models.CourseGroup{MaxStudents: 30, CurrentStudents: 28}
	assert.Equal(t, 2, group.AvailableSeats())
	full := models.CourseGroup{MaxStudents: 30, CurrentStudents: 30}
	assert.Equal(t, 0, full.AvailableSeats())
}
