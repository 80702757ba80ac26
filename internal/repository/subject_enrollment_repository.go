package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/cesde/studentinfo-api/internal/models"
)

// SubjectEnrollmentRepository handles persistence of subject-tier enrollments.
type SubjectEnrollmentRepository struct {
	db *sqlx.DB
}

// NewSubjectEnrollmentRepository constructs the repository.
func NewSubjectEnrollmentRepository(db *sqlx.DB) *SubjectEnrollmentRepository {
	return &SubjectEnrollmentRepository{db: db}
}

const subjectEnrollmentColumns = `id, level_enrollment_id, subject_id, subject_assignment_id, enrollment_date, status, final_grade, created_at, updated_at`

// FindByID returns a subject enrollment by its ID.
func (r *SubjectEnrollmentRepository) FindByID(ctx context.Context, id string) (*models.SubjectEnrollment, error) {
	query := fmt.Sprintf("SELECT %s FROM subject_enrollments WHERE id = $1", subjectEnrollmentColumns)
	var enrollment models.SubjectEnrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// List returns subject enrollments with subject metadata.
func (r *SubjectEnrollmentRepository) List(ctx context.Context, filter models.SubjectEnrollmentFilter) ([]models.SubjectEnrollmentDetail, int, error) {
	base := `FROM subject_enrollments se
LEFT JOIN subjects s ON s.id = se.subject_id`
	var conditions []string
	var args []interface{}

	if filter.LevelEnrollmentID != "" {
		conditions = append(conditions, fmt.Sprintf("se.level_enrollment_id = $%d", len(args)+1))
		args = append(args, filter.LevelEnrollmentID)
	}
	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("se.subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if filter.SubjectAssignmentID != "" {
		conditions = append(conditions, fmt.Sprintf("se.subject_assignment_id = $%d", len(args)+1))
		args = append(args, filter.SubjectAssignmentID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("se.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT se.id, se.level_enrollment_id, se.subject_id, se.subject_assignment_id, se.enrollment_date, se.status, se.final_grade, se.created_at, se.updated_at,
        s.name AS subject_name, s.code AS subject_code
        %s ORDER BY se.enrollment_date DESC LIMIT %d OFFSET %d`, base+clause, size, offset)

	var enrollments []models.SubjectEnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list subject enrollments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count subject enrollments: %w", err)
	}
	return enrollments, total, nil
}

// Create persists a new subject enrollment.
func (r *SubjectEnrollmentRepository) Create(ctx context.Context, enrollment *models.SubjectEnrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if enrollment.EnrollmentDate.IsZero() {
		enrollment.EnrollmentDate = now
	}
	if enrollment.Status == "" {
		enrollment.Status = models.ProgressInCourse
	}
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now
	const query = `INSERT INTO subject_enrollments (id, level_enrollment_id, subject_id, subject_assignment_id, enrollment_date, status, final_grade, created_at, updated_at)
        VALUES (:id, :level_enrollment_id, :subject_id, :subject_assignment_id, :enrollment_date, :status, :final_grade, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("create subject enrollment: %w", err)
	}
	return nil
}

// UpdateStatus updates the subject enrollment status.
func (r *SubjectEnrollmentRepository) UpdateStatus(ctx context.Context, id string, status models.ProgressStatus) error {
	const query = `UPDATE subject_enrollments SET status = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status); err != nil {
		return fmt.Errorf("update subject enrollment status: %w", err)
	}
	return nil
}

// SetFinalGrade stores the computed final grade for the enrollment.
func (r *SubjectEnrollmentRepository) SetFinalGrade(ctx context.Context, id string, finalGrade float64) error {
	const query = `UPDATE subject_enrollments SET final_grade = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, finalGrade); err != nil {
		return fmt.Errorf("set final grade: %w", err)
	}
	return nil
}
