package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/cesde/studentinfo-api/internal/models"
)

// GradeRepository handles grade entries and the period/component catalog.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository creates a new grade repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

const gradeColumns = `id, subject_enrollment_id, grade_period_id, grade_component_id, grade_value, comments, assignment_date, assigned_by_id, created_at, updated_at`

// List returns grade entries matching the filter.
func (r *GradeRepository) List(ctx context.Context, filter models.GradeFilter) ([]models.Grade, error) {
	query := fmt.Sprintf("SELECT %s FROM grades WHERE 1=1", gradeColumns)
	var args []interface{}
	if filter.SubjectEnrollmentID != "" {
		query += fmt.Sprintf(" AND subject_enrollment_id = $%d", len(args)+1)
		args = append(args, filter.SubjectEnrollmentID)
	}
	if filter.GradePeriodID != "" {
		query += fmt.Sprintf(" AND grade_period_id = $%d", len(args)+1)
		args = append(args, filter.GradePeriodID)
	}
	if filter.GradeComponentID != "" {
		query += fmt.Sprintf(" AND grade_component_id = $%d", len(args)+1)
		args = append(args, filter.GradeComponentID)
	}
	query += " ORDER BY assignment_date DESC"
	var grades []models.Grade
	if err := r.db.SelectContext(ctx, &grades, query, args...); err != nil {
		return nil, fmt.Errorf("list grades: %w", err)
	}
	return grades, nil
}

// FindByID returns a grade entry by its ID.
func (r *GradeRepository) FindByID(ctx context.Context, id string) (*models.Grade, error) {
	query := fmt.Sprintf("SELECT %s FROM grades WHERE id = $1", gradeColumns)
	var grade models.Grade
	if err := r.db.GetContext(ctx, &grade, query, id); err != nil {
		return nil, err
	}
	return &grade, nil
}

// Upsert inserts or updates the grade for its (enrollment, period, component)
// slot. Last write wins; the slot bindings never change on conflict.
func (r *GradeRepository) Upsert(ctx context.Context, grade *models.Grade) error {
	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if grade.AssignmentDate.IsZero() {
		grade.AssignmentDate = now
	}
	if grade.CreatedAt.IsZero() {
		grade.CreatedAt = now
	}
	grade.UpdatedAt = now
	const query = `INSERT INTO grades (id, subject_enrollment_id, grade_period_id, grade_component_id, grade_value, comments, assignment_date, assigned_by_id, created_at, updated_at)
        VALUES (:id, :subject_enrollment_id, :grade_period_id, :grade_component_id, :grade_value, :comments, :assignment_date, :assigned_by_id, :created_at, :updated_at)
        ON CONFLICT (subject_enrollment_id, grade_period_id, grade_component_id)
        DO UPDATE SET grade_value = EXCLUDED.grade_value, comments = EXCLUDED.comments, assignment_date = EXCLUDED.assignment_date, assigned_by_id = EXCLUDED.assigned_by_id, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, grade); err != nil {
		return fmt.Errorf("upsert grade: %w", err)
	}
	return nil
}

// UpdateValue mutates grade value and comments only.
func (r *GradeRepository) UpdateValue(ctx context.Context, id string, value float64, comments *string) error {
	const query = `UPDATE grades SET grade_value = $2, comments = $3, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, value, comments); err != nil {
		return fmt.Errorf("update grade value: %w", err)
	}
	return nil
}

// FetchRows returns the grades of a subject enrollment joined with the period
// and component weights needed for aggregation.
func (r *GradeRepository) FetchRows(ctx context.Context, subjectEnrollmentID string) ([]models.GradeRow, error) {
	const query = `SELECT g.id, g.subject_enrollment_id, g.grade_period_id, g.grade_component_id, g.grade_value, g.comments, g.assignment_date, g.assigned_by_id, g.created_at, g.updated_at,
        gp.period_number, gp.weight_percentage AS period_weight,
        gc.code AS component_code, gc.weight_percentage AS component_weight
        FROM grades g
        JOIN grade_periods gp ON gp.id = g.grade_period_id
        JOIN grade_components gc ON gc.id = g.grade_component_id
        WHERE g.subject_enrollment_id = $1
        ORDER BY gp.period_number, gc.code`
	var rows []models.GradeRow
	if err := r.db.SelectContext(ctx, &rows, query, subjectEnrollmentID); err != nil {
		return nil, fmt.Errorf("fetch grade rows: %w", err)
	}
	return rows, nil
}

// FindPeriodByID returns a grade period by its ID.
func (r *GradeRepository) FindPeriodByID(ctx context.Context, id string) (*models.GradePeriod, error) {
	const query = `SELECT id, period_number, name, weight_percentage, created_at, updated_at FROM grade_periods WHERE id = $1`
	var period models.GradePeriod
	if err := r.db.GetContext(ctx, &period, query, id); err != nil {
		return nil, err
	}
	return &period, nil
}

// FindComponentByID returns a grade component by its ID.
func (r *GradeRepository) FindComponentByID(ctx context.Context, id string) (*models.GradeComponent, error) {
	const query = `SELECT id, code, name, weight_percentage, created_at, updated_at FROM grade_components WHERE id = $1`
	var component models.GradeComponent
	if err := r.db.GetContext(ctx, &component, query, id); err != nil {
		return nil, err
	}
	return &component, nil
}

// ListPeriods returns the grading periods ordered by period number.
func (r *GradeRepository) ListPeriods(ctx context.Context) ([]models.GradePeriod, error) {
	const query = `SELECT id, period_number, name, weight_percentage, created_at, updated_at FROM grade_periods ORDER BY period_number`
	var periods []models.GradePeriod
	if err := r.db.SelectContext(ctx, &periods, query); err != nil {
		return nil, fmt.Errorf("list grade periods: %w", err)
	}
	return periods, nil
}

// ListComponents returns the grading components ordered by code.
func (r *GradeRepository) ListComponents(ctx context.Context) ([]models.GradeComponent, error) {
	const query = `SELECT id, code, name, weight_percentage, created_at, updated_at FROM grade_components ORDER BY code`
	var components []models.GradeComponent
	if err := r.db.SelectContext(ctx, &components, query); err != nil {
		return nil, fmt.Errorf("list grade components: %w", err)
	}
	return components, nil
}
