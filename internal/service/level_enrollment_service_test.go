package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cesde/studentinfo-api/internal/models"
	"github.com/cesde/studentinfo-api/internal/repository"
	appErrors "github.com/cesde/studentinfo-api/pkg/errors"
)

type mockLevelEnrollmentRepo struct {
	enrollments map[string]models.LevelEnrollment
	createErr   error
	reserveErr  error
	created     *models.LevelEnrollment
	status      map[string]models.ProgressStatus
	completion  map[string]*time.Time
	released    []string
	reserved    []string
	deleted     []string
	averages    map[string]float64
}

func (m *mockLevelEnrollmentRepo) List(ctx context.Context, filter models.LevelEnrollmentFilter) ([]models.LevelEnrollmentDetail, int, error) {
	return nil, 0, nil
}

func (m *mockLevelEnrollmentRepo) FindByID(ctx context.Context, id string) (*models.LevelEnrollment, error) {
	if e, ok := m.enrollments[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockLevelEnrollmentRepo) Create(ctx context.Context, enrollment *models.LevelEnrollment) error {
	if m.createErr != nil {
		return m.createErr
	}
	if enrollment.ID == "" {
		enrollment.ID = "le-new"
	}
	if m.enrollments == nil {
		m.enrollments = make(map[string]models.LevelEnrollment)
	}
	m.enrollments[enrollment.ID] = *enrollment
	m.created = enrollment
	return nil
}

func (m *mockLevelEnrollmentRepo) UpdateStatus(ctx context.Context, id string, status models.ProgressStatus, completionDate *time.Time, groupID *string, seat repository.SeatAdjustment) error {
	if seat == repository.SeatReserve && m.reserveErr != nil {
		return m.reserveErr
	}
	if m.status == nil {
		m.status = make(map[string]models.ProgressStatus)
	}
	if m.completion == nil {
		m.completion = make(map[string]*time.Time)
	}
	m.status[id] = status
	m.completion[id] = completionDate
	if groupID != nil {
		switch seat {
		case repository.SeatRelease:
			m.released = append(m.released, *groupID)
		case repository.SeatReserve:
			m.reserved = append(m.reserved, *groupID)
		}
	}
	if e, ok := m.enrollments[id]; ok {
		e.Status = status
		e.CompletionDate = completionDate
		m.enrollments[id] = e
	}
	return nil
}

func (m *mockLevelEnrollmentRepo) SetFinalAverage(ctx context.Context, id string, finalAverage float64) error {
	if m.averages == nil {
		m.averages = make(map[string]float64)
	}
	m.averages[id] = finalAverage
	return nil
}

func (m *mockLevelEnrollmentRepo) Delete(ctx context.Context, id string, groupID *string) error {
	if _, ok := m.enrollments[id]; !ok {
		return sql.ErrNoRows
	}
	m.deleted = append(m.deleted, id)
	if groupID != nil {
		m.released = append(m.released, *groupID)
	}
	return nil
}

type mockGroupReader struct {
	groups map[string]*models.CourseGroup
}

func (m *mockGroupReader) FindByID(ctx context.Context, id string) (*models.CourseGroup, error) {
	if g, ok := m.groups[id]; ok {
		return g, nil
	}
	return nil, sql.ErrNoRows
}

type mockInvalidator struct {
	calls int
}

func (m *mockInvalidator) InvalidateListings(ctx context.Context) {
	m.calls++
}

func levelCatalog() *mockCatalog {
	c := activeCatalog()
	c.levels = map[string]*models.Level{
		"l1": {ID: "l1", CourseID: "c1", Name: "Nivel 1"},
		"l9": {ID: "l9", CourseID: "c9", Name: "Nivel 9"},
	}
	return c
}

func activeParents() *mockCourseEnrollmentRepo {
	return &mockCourseEnrollmentRepo{enrollments: map[string]models.CourseEnrollment{
		"ce1": {ID: "ce1", StudentID: "s1", CourseID: "c1", Status: models.CourseEnrollmentActive},
		"ce2": {ID: "ce2", StudentID: "s1", CourseID: "c1", Status: models.CourseEnrollmentWithdrawn},
	}}
}

func TestLevelEnrollmentServiceCreate(t *testing.T) {
	repo := &mockLevelEnrollmentRepo{}
	svc := NewLevelEnrollmentService(repo, activeParents(), levelCatalog(), &mockGroupReader{}, nil, validator.New(), zap.NewNop())

	enrollment, err := svc.Create(context.Background(), CreateLevelEnrollmentRequest{CourseEnrollmentID: "ce1", LevelID: "l1", AcademicPeriodID: "p1"})
	require.NoError(t, err)
	assert.Equal(t, models.ProgressInCourse, enrollment.Status)
	assert.Nil(t, enrollment.GroupID)
}

func TestLevelEnrollmentServiceCreateParentNotActive(t *testing.T) {
	svc := NewLevelEnrollmentService(&mockLevelEnrollmentRepo{}, activeParents(), levelCatalog(), &mockGroupReader{}, nil, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), CreateLevelEnrollmentRequest{CourseEnrollmentID: "ce2", LevelID: "l1", AcademicPeriodID: "p1"})
	assert.ErrorIs(t, err, appErrors.ErrCourseEnrollmentNotActive)
}

func TestLevelEnrollmentServiceCreateHierarchyMismatch(t *testing.T) {
	svc := NewLevelEnrollmentService(&mockLevelEnrollmentRepo{}, activeParents(), levelCatalog(), &mockGroupReader{}, nil, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), CreateLevelEnrollmentRequest{CourseEnrollmentID: "ce1", LevelID: "l9", AcademicPeriodID: "p1"})
	assert.ErrorIs(t, err, appErrors.ErrHierarchyMismatch)
}

func TestLevelEnrollmentServiceCreateInactivePeriod(t *testing.T) {
	svc := NewLevelEnrollmentService(&mockLevelEnrollmentRepo{}, activeParents(), levelCatalog(), &mockGroupReader{}, nil, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), CreateLevelEnrollmentRequest{CourseEnrollmentID: "ce1", LevelID: "l1", AcademicPeriodID: "p2"})
	assert.ErrorIs(t, err, appErrors.ErrInactivePeriod)
}

func TestLevelEnrollmentServiceCreateWithGroup(t *testing.T) {
	repo := &mockLevelEnrollmentRepo{}
	groups := &mockGroupReader{groups: map[string]*models.CourseGroup{
		"g1": {ID: "g1", CourseID: "c1", LevelID: "l1", MaxStudents: 30, CurrentStudents: 10},
	}}
	invalidator := &mockInvalidator{}
	svc := NewLevelEnrollmentService(repo, activeParents(), levelCatalog(), groups, invalidator, validator.New(), zap.NewNop())

	groupID := "g1"
	enrollment, err := svc.Create(context.Background(), CreateLevelEnrollmentRequest{CourseEnrollmentID: "ce1", LevelID: "l1", AcademicPeriodID: "p1", GroupID: &groupID})
	require.NoError(t, err)
	require.NotNil(t, enrollment.GroupID)
	assert.Equal(t, "g1", *enrollment.GroupID)
	assert.Equal(t, 1, invalidator.calls)
}

func TestLevelEnrollmentServiceCreateGroupScopeMismatch(t *testing.T) {
	groups := &mockGroupReader{groups: map[string]*models.CourseGroup{
		"g1": {ID: "g1", CourseID: "c1", LevelID: "l2"},
	}}
	svc := NewLevelEnrollmentService(&mockLevelEnrollmentRepo{}, activeParents(), levelCatalog(), groups, nil, validator.New(), zap.NewNop())

	groupID := "g1"
	_, err := svc.Create(context.Background(), CreateLevelEnrollmentRequest{CourseEnrollmentID: "ce1", LevelID: "l1", AcademicPeriodID: "p1", GroupID: &groupID})
	assert.ErrorIs(t, err, appErrors.ErrGroupScopeMismatch)
}

func TestLevelEnrollmentServiceCreateGroupFull(t *testing.T) {
	repo := &mockLevelEnrollmentRepo{createErr: repository.ErrNoSeat}
	groups := &mockGroupReader{groups: map[string]*models.CourseGroup{
		"g1": {ID: "g1", CourseID: "c1", LevelID: "l1", MaxStudents: 30, CurrentStudents: 30},
	}}
	svc := NewLevelEnrollmentService(repo, activeParents(), levelCatalog(), groups, nil, validator.New(), zap.NewNop())

	groupID := "g1"
	_, err := svc.Create(context.Background(), CreateLevelEnrollmentRequest{CourseEnrollmentID: "ce1", LevelID: "l1", AcademicPeriodID: "p1", GroupID: &groupID})
	assert.ErrorIs(t, err, appErrors.ErrGroupFull)
}

func TestLevelEnrollmentServiceUpdateStatusApprovedStampsDate(t *testing.T) {
	repo := &mockLevelEnrollmentRepo{enrollments: map[string]models.LevelEnrollment{
		"le1": {ID: "le1", Status: models.ProgressInCourse},
	}}
	svc := NewLevelEnrollmentService(repo, activeParents(), levelCatalog(), &mockGroupReader{}, nil, validator.New(), zap.NewNop())
	fixed := time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	enrollment, err := svc.UpdateStatus(context.Background(), "le1", UpdateLevelEnrollmentStatusRequest{Status: models.ProgressApproved})
	require.NoError(t, err)
	require.NotNil(t, enrollment.CompletionDate)
	assert.Equal(t, fixed, *enrollment.CompletionDate)
	assert.Empty(t, repo.released)
}

func TestLevelEnrollmentServiceUpdateStatusWithdrawnReleasesSeat(t *testing.T) {
	groupID := "g1"
	repo := &mockLevelEnrollmentRepo{enrollments: map[string]models.LevelEnrollment{
		"le1": {ID: "le1", Status: models.ProgressInCourse, GroupID: &groupID},
	}}
	invalidator := &mockInvalidator{}
	svc := NewLevelEnrollmentService(repo, activeParents(), levelCatalog(), &mockGroupReader{}, invalidator, validator.New(), zap.NewNop())

	_, err := svc.UpdateStatus(context.Background(), "le1", UpdateLevelEnrollmentStatusRequest{Status: models.ProgressWithdrawn})
	require.NoError(t, err)
	assert.Contains(t, repo.released, "g1")
	assert.Equal(t, 1, invalidator.calls)
}

func TestLevelEnrollmentServiceUpdateStatusWithdrawnTwiceReleasesOnce(t *testing.T) {
	groupID := "g1"
	repo := &mockLevelEnrollmentRepo{enrollments: map[string]models.LevelEnrollment{
		"le1": {ID: "le1", Status: models.ProgressWithdrawn, GroupID: &groupID},
	}}
	svc := NewLevelEnrollmentService(repo, activeParents(), levelCatalog(), &mockGroupReader{}, nil, validator.New(), zap.NewNop())

	_, err := svc.UpdateStatus(context.Background(), "le1", UpdateLevelEnrollmentStatusRequest{Status: models.ProgressWithdrawn})
	require.NoError(t, err)
	assert.Empty(t, repo.released)
}

func TestLevelEnrollmentServiceReactivationReservesSeat(t *testing.T) {
	groupID := "g1"
	repo := &mockLevelEnrollmentRepo{enrollments: map[string]models.LevelEnrollment{
		"le1": {ID: "le1", Status: models.ProgressWithdrawn, GroupID: &groupID},
	}}
	invalidator := &mockInvalidator{}
	svc := NewLevelEnrollmentService(repo, activeParents(), levelCatalog(), &mockGroupReader{}, invalidator, validator.New(), zap.NewNop())

	enrollment, err := svc.UpdateStatus(context.Background(), "le1", UpdateLevelEnrollmentStatusRequest{Status: models.ProgressInCourse})
	require.NoError(t, err)
	assert.Equal(t, models.ProgressInCourse, enrollment.Status)
	assert.Equal(t, []string{"g1"}, repo.reserved)
	assert.Empty(t, repo.released)
	assert.Equal(t, 1, invalidator.calls)
}

func TestLevelEnrollmentServiceReactivationIntoFullGroup(t *testing.T) {
	groupID := "g1"
	repo := &mockLevelEnrollmentRepo{
		enrollments: map[string]models.LevelEnrollment{
			"le1": {ID: "le1", Status: models.ProgressWithdrawn, GroupID: &groupID},
		},
		reserveErr: repository.ErrNoSeat,
	}
	svc := NewLevelEnrollmentService(repo, activeParents(), levelCatalog(), &mockGroupReader{}, nil, validator.New(), zap.NewNop())

	_, err := svc.UpdateStatus(context.Background(), "le1", UpdateLevelEnrollmentStatusRequest{Status: models.ProgressInCourse})
	assert.ErrorIs(t, err, appErrors.ErrGroupFull)
}

func TestLevelEnrollmentServiceWithdrawReactivateWithdrawBalances(t *testing.T) {
	// A full withdraw / re-activate / withdraw cycle must net exactly one
	// released seat, never two.
	groupID := "g1"
	repo := &mockLevelEnrollmentRepo{enrollments: map[string]models.LevelEnrollment{
		"le1": {ID: "le1", Status: models.ProgressInCourse, GroupID: &groupID},
	}}
	svc := NewLevelEnrollmentService(repo, activeParents(), levelCatalog(), &mockGroupReader{}, nil, validator.New(), zap.NewNop())

	_, err := svc.UpdateStatus(context.Background(), "le1", UpdateLevelEnrollmentStatusRequest{Status: models.ProgressWithdrawn})
	require.NoError(t, err)
	_, err = svc.UpdateStatus(context.Background(), "le1", UpdateLevelEnrollmentStatusRequest{Status: models.ProgressInCourse})
	require.NoError(t, err)
	_, err = svc.UpdateStatus(context.Background(), "le1", UpdateLevelEnrollmentStatusRequest{Status: models.ProgressWithdrawn})
	require.NoError(t, err)

	assert.Equal(t, []string{"g1", "g1"}, repo.released)
	assert.Equal(t, []string{"g1"}, repo.reserved)
}

func TestLevelEnrollmentServiceUpdateFinalAverage(t *testing.T) {
	repo := &mockLevelEnrollmentRepo{enrollments: map[string]models.LevelEnrollment{"le1": {ID: "le1"}}}
	svc := NewLevelEnrollmentService(repo, activeParents(), levelCatalog(), &mockGroupReader{}, nil, validator.New(), zap.NewNop())

	avg := 4.2
	enrollment, err := svc.Update(context.Background(), "le1", UpdateLevelEnrollmentRequest{FinalAverage: &avg})
	require.NoError(t, err)
	require.NotNil(t, enrollment.FinalAverage)
	assert.InDelta(t, 4.2, repo.averages["le1"], 0.0001)
}

func TestLevelEnrollmentServiceDeleteReleasesSeat(t *testing.T) {
	groupID := "g1"
	repo := &mockLevelEnrollmentRepo{enrollments: map[string]models.LevelEnrollment{
		"le1": {ID: "le1", GroupID: &groupID},
	}}
	invalidator := &mockInvalidator{}
	svc := NewLevelEnrollmentService(repo, activeParents(), levelCatalog(), &mockGroupReader{}, invalidator, validator.New(), zap.NewNop())

	require.NoError(t, svc.Delete(context.Background(), "le1"))
	assert.Contains(t, repo.deleted, "le1")
	assert.Contains(t, repo.released, "g1")
	assert.Equal(t, 1, invalidator.calls)
}
