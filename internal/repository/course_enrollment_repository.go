package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/cesde/studentinfo-api/internal/models"
)

// CourseEnrollmentRepository handles persistence of course-tier enrollments.
type CourseEnrollmentRepository struct {
	db *sqlx.DB
}

// NewCourseEnrollmentRepository constructs the repository.
func NewCourseEnrollmentRepository(db *sqlx.DB) *CourseEnrollmentRepository {
	return &CourseEnrollmentRepository{db: db}
}

// List returns course enrollments filtered by the provided criteria.
func (r *CourseEnrollmentRepository) List(ctx context.Context, filter models.CourseEnrollmentFilter) ([]models.CourseEnrollmentDetail, int, error) {
	base := `FROM course_enrollments ce
LEFT JOIN students s ON s.id = ce.student_id
LEFT JOIN courses c ON c.id = ce.course_id`
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("ce.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("ce.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.AcademicPeriodID != "" {
		conditions = append(conditions, fmt.Sprintf("ce.academic_period_id = $%d", len(args)+1))
		args = append(args, filter.AcademicPeriodID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("ce.status = $%d", len(args)+1))
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

	query := fmt.Sprintf(`SELECT ce.id, ce.student_id, ce.course_id, ce.academic_period_id, ce.enrollment_date, ce.status, ce.completion_date, ce.created_at, ce.updated_at,
        s.first_name || ' ' || s.last_name AS student_name, c.name AS course_name, c.code AS course_code
        %s ORDER BY ce.enrollment_date DESC LIMIT %d OFFSET %d`, base+clause, size, offset)

	var enrollments []models.CourseEnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list course enrollments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count course enrollments: %w", err)
	}
	return enrollments, total, nil
}

const courseEnrollmentColumns = `id, student_id, course_id, academic_period_id, enrollment_date, status, completion_date, created_at, updated_at`

// FindByID returns a course enrollment by its ID.
func (r *CourseEnrollmentRepository) FindByID(ctx context.Context, id string) (*models.CourseEnrollment, error) {
	query := fmt.Sprintf("SELECT %s FROM course_enrollments WHERE id = $1", courseEnrollmentColumns)
	var enrollment models.CourseEnrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// Exists checks for an enrollment on the (student, course, period) key.
func (r *CourseEnrollmentRepository) Exists(ctx context.Context, studentID, courseID, periodID string) (bool, error) {
	const query = `SELECT 1 FROM course_enrollments WHERE student_id = $1 AND course_id = $2 AND academic_period_id = $3 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, courseID, periodID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check course enrollment: %w", err)
	}
	return true, nil
}

// Create persists a new course enrollment. The unique constraint on
// (student_id, course_id, academic_period_id) backs duplicate rejection under
// concurrent inserts; violations surface as ErrDuplicate.
func (r *CourseEnrollmentRepository) Create(ctx context.Context, enrollment *models.CourseEnrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if enrollment.EnrollmentDate.IsZero() {
		enrollment.EnrollmentDate = now
	}
	if enrollment.Status == "" {
		enrollment.Status = models.CourseEnrollmentActive
	}
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now
	const query = `INSERT INTO course_enrollments (id, student_id, course_id, academic_period_id, enrollment_date, status, completion_date, created_at, updated_at)
        VALUES (:id, :student_id, :course_id, :academic_period_id, :enrollment_date, :status, :completion_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create course enrollment: %w", err)
	}
	return nil
}

// UpdateStatus updates status and completion date for a course enrollment.
func (r *CourseEnrollmentRepository) UpdateStatus(ctx context.Context, id string, status models.CourseEnrollmentStatus, completionDate *time.Time) error {
	const query = `UPDATE course_enrollments SET status = $2, completion_date = $3, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, completionDate); err != nil {
		return fmt.Errorf("update course enrollment status: %w", err)
	}
	return nil
}

// HasLevelEnrollments reports whether any child level enrollment exists.
func (r *CourseEnrollmentRepository) HasLevelEnrollments(ctx context.Context, id string) (bool, error) {
	const query = `SELECT 1 FROM level_enrollments WHERE course_enrollment_id = $1 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check level enrollments: %w", err)
	}
	return true, nil
}

// Delete removes a course enrollment.
func (r *CourseEnrollmentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM course_enrollments WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete course enrollment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete course enrollment result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
