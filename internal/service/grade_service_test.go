package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cesde/studentinfo-api/internal/models"
	appErrors "github.com/cesde/studentinfo-api/pkg/errors"
)

type mockGradeRepo struct {
	grades     map[string]models.Grade
	upserted   *models.Grade
	rows       []models.GradeRow
	periods    map[string]*models.GradePeriod
	components map[string]*models.GradeComponent
	updated    map[string]float64
}

func (m *mockGradeRepo) List(ctx context.Context, filter models.GradeFilter) ([]models.Grade, error) {
	return nil, nil
}

func (m *mockGradeRepo) FindByID(ctx context.Context, id string) (*models.Grade, error) {
	if g, ok := m.grades[id]; ok {
		return &g, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockGradeRepo) Upsert(ctx context.Context, grade *models.Grade) error {
	if grade.ID == "" {
		grade.ID = "g-new"
	}
	if m.grades == nil {
		m.grades = make(map[string]models.Grade)
	}
	m.grades[grade.ID] = *grade
	m.upserted = grade
	return nil
}

func (m *mockGradeRepo) UpdateValue(ctx context.Context, id string, value float64, comments *string) error {
	if m.updated == nil {
		m.updated = make(map[string]float64)
	}
	m.updated[id] = value
	return nil
}

func (m *mockGradeRepo) FetchRows(ctx context.Context, subjectEnrollmentID string) ([]models.GradeRow, error) {
	return m.rows, nil
}

func (m *mockGradeRepo) FindPeriodByID(ctx context.Context, id string) (*models.GradePeriod, error) {
	if p, ok := m.periods[id]; ok {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockGradeRepo) FindComponentByID(ctx context.Context, id string) (*models.GradeComponent, error) {
	if c, ok := m.components[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockGradeRepo) ListPeriods(ctx context.Context) ([]models.GradePeriod, error) {
	return nil, nil
}

func (m *mockGradeRepo) ListComponents(ctx context.Context) ([]models.GradeComponent, error) {
	return nil, nil
}

func gradeRepoWithCatalog() *mockGradeRepo {
	return &mockGradeRepo{
		periods:    map[string]*models.GradePeriod{"gp1": {ID: "gp1", PeriodNumber: 1}},
		components: map[string]*models.GradeComponent{"gc1": {ID: "gc1"}},
	}
}

func gradeRow(periodID string, periodNumber int, periodWeight, componentWeight, value float64) models.GradeRow {
	return models.GradeRow{
		Grade:           models.Grade{SubjectEnrollmentID: "se1", GradePeriodID: periodID, GradeValue: value},
		PeriodNumber:    periodNumber,
		PeriodWeight:    periodWeight,
		ComponentWeight: componentWeight,
	}
}

func TestGradeServiceRecord(t *testing.T) {
	repo := gradeRepoWithCatalog()
	enrollments := &mockSubjectEnrollmentRepo{enrollments: map[string]models.SubjectEnrollment{"se1": {ID: "se1"}}}
	svc := NewGradeService(repo, enrollments, validator.New(), zap.NewNop())

	grade, err := svc.Record(context.Background(), RecordGradeRequest{
		SubjectEnrollmentID: "se1", GradePeriodID: "gp1", GradeComponentID: "gc1",
		GradeValue: 4.5, AssignedByID: "prof1",
	})
	require.NoError(t, err)
	assert.InDelta(t, 4.5, grade.GradeValue, 0.0001)
	assert.NotNil(t, repo.upserted)
}

func TestGradeServiceRecordBoundaries(t *testing.T) {
	repo := gradeRepoWithCatalog()
	enrollments := &mockSubjectEnrollmentRepo{enrollments: map[string]models.SubjectEnrollment{"se1": {ID: "se1"}}}
	svc := NewGradeService(repo, enrollments, validator.New(), zap.NewNop())

	for _, value := range []float64{0.00, 5.00} {
		_, err := svc.Record(context.Background(), RecordGradeRequest{
			SubjectEnrollmentID: "se1", GradePeriodID: "gp1", GradeComponentID: "gc1",
			GradeValue: value, AssignedByID: "prof1",
		})
		assert.NoError(t, err, "boundary value %v must be accepted", value)
	}
	for _, value := range []float64{-0.01, 5.01} {
		_, err := svc.Record(context.Background(), RecordGradeRequest{
			SubjectEnrollmentID: "se1", GradePeriodID: "gp1", GradeComponentID: "gc1",
			GradeValue: value, AssignedByID: "prof1",
		})
		assert.ErrorIs(t, err, appErrors.ErrGradeOutOfRange, "value %v must be rejected", value)
	}
}

func TestGradeServiceRecordUnknownEnrollment(t *testing.T) {
	svc := NewGradeService(gradeRepoWithCatalog(), &mockSubjectEnrollmentRepo{}, validator.New(), zap.NewNop())

	_, err := svc.Record(context.Background(), RecordGradeRequest{
		SubjectEnrollmentID: "ghost", GradePeriodID: "gp1", GradeComponentID: "gc1",
		GradeValue: 3.0, AssignedByID: "prof1",
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestGradeServiceUpdateOutOfRange(t *testing.T) {
	repo := gradeRepoWithCatalog()
	repo.grades = map[string]models.Grade{"g1": {ID: "g1", GradeValue: 3.0}}
	svc := NewGradeService(repo, &mockSubjectEnrollmentRepo{}, validator.New(), zap.NewNop())

	_, err := svc.Update(context.Background(), "g1", UpdateGradeRequest{GradeValue: 5.5})
	assert.ErrorIs(t, err, appErrors.ErrGradeOutOfRange)
}

func TestGradeServiceComputeFinalWeighted(t *testing.T) {
	repo := gradeRepoWithCatalog()
	repo.rows = []models.GradeRow{
		// Period 1, weight 30: exam 4.0 (weight 60), quiz 3.0 (weight 40) -> 3.60
		gradeRow("gp1", 1, 30, 60, 4.0),
		gradeRow("gp1", 1, 30, 40, 3.0),
		// Period 2, weight 70: single grade 5.0 -> 5.00
		gradeRow("gp2", 2, 70, 100, 5.0),
	}
	enrollments := &mockSubjectEnrollmentRepo{enrollments: map[string]models.SubjectEnrollment{"se1": {ID: "se1"}}}
	svc := NewGradeService(repo, enrollments, validator.New(), zap.NewNop())

	summary, err := svc.ComputeFinal(context.Background(), "se1", false)
	require.NoError(t, err)
	require.Len(t, summary.PeriodScores, 2)
	assert.Equal(t, 1, summary.PeriodScores[0].PeriodNumber)
	assert.InDelta(t, 3.60, summary.PeriodScores[0].Score, 0.001)
	assert.InDelta(t, 5.00, summary.PeriodScores[1].Score, 0.001)
	// (3.60*30 + 5.00*70) / 100 = 4.58
	require.NotNil(t, summary.FinalGrade)
	assert.InDelta(t, 4.58, *summary.FinalGrade, 0.001)
}

func TestGradeServiceComputeFinalNoGrades(t *testing.T) {
	repo := gradeRepoWithCatalog()
	enrollments := &mockSubjectEnrollmentRepo{enrollments: map[string]models.SubjectEnrollment{"se1": {ID: "se1"}}}
	svc := NewGradeService(repo, enrollments, validator.New(), zap.NewNop())

	summary, err := svc.ComputeFinal(context.Background(), "se1", false)
	require.NoError(t, err)
	// Absence of grades is not a zero.
	assert.Nil(t, summary.FinalGrade)
	assert.Empty(t, summary.PeriodScores)
}

func TestGradeServiceComputeFinalPersists(t *testing.T) {
	repo := gradeRepoWithCatalog()
	repo.rows = []models.GradeRow{gradeRow("gp1", 1, 100, 100, 4.25)}
	enrollments := &mockSubjectEnrollmentRepo{enrollments: map[string]models.SubjectEnrollment{"se1": {ID: "se1"}}}
	svc := NewGradeService(repo, enrollments, validator.New(), zap.NewNop())

	summary, err := svc.ComputeFinal(context.Background(), "se1", true)
	require.NoError(t, err)
	require.NotNil(t, summary.FinalGrade)
	assert.InDelta(t, 4.25, enrollments.finalGrades["se1"], 0.0001)
}

func TestGradeServiceComputeFinalNoGradesDoesNotPersist(t *testing.T) {
	repo := gradeRepoWithCatalog()
	enrollments := &mockSubjectEnrollmentRepo{enrollments: map[string]models.SubjectEnrollment{"se1": {ID: "se1"}}}
	svc := NewGradeService(repo, enrollments, validator.New(), zap.NewNop())

	_, err := svc.ComputeFinal(context.Background(), "se1", true)
	require.NoError(t, err)
	assert.Empty(t, enrollments.finalGrades)
}
