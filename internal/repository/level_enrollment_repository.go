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

// LevelEnrollmentRepository handles persistence of level-tier enrollments and
// the seat accounting tied to them.
type LevelEnrollmentRepository struct {
	db *sqlx.DB
}

// NewLevelEnrollmentRepository constructs the repository.
func NewLevelEnrollmentRepository(db *sqlx.DB) *LevelEnrollmentRepository {
	return &LevelEnrollmentRepository{db: db}
}

const levelEnrollmentColumns = `id, course_enrollment_id, level_id, academic_period_id, group_id, enrollment_date, status, final_average, completion_date, created_at, updated_at`

// FindByID returns a level enrollment by its ID.
func (r *LevelEnrollmentRepository) FindByID(ctx context.Context, id string) (*models.LevelEnrollment, error) {
	query := fmt.Sprintf("SELECT %s FROM level_enrollments WHERE id = $1", levelEnrollmentColumns)
	var enrollment models.LevelEnrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// List returns level enrollments with level metadata.
func (r *LevelEnrollmentRepository) List(ctx context.Context, filter models.LevelEnrollmentFilter) ([]models.LevelEnrollmentDetail, int, error) {
	base := `FROM level_enrollments le
LEFT JOIN levels l ON l.id = le.level_id
LEFT JOIN course_groups g ON g.id = le.group_id`
	var conditions []string
	var args []interface{}

	if filter.CourseEnrollmentID != "" {
		conditions = append(conditions, fmt.Sprintf("le.course_enrollment_id = $%d", len(args)+1))
		args = append(args, filter.CourseEnrollmentID)
	}
	if filter.LevelID != "" {
		conditions = append(conditions, fmt.Sprintf("le.level_id = $%d", len(args)+1))
		args = append(args, filter.LevelID)
	}
	if filter.AcademicPeriodID != "" {
		conditions = append(conditions, fmt.Sprintf("le.academic_period_id = $%d", len(args)+1))
		args = append(args, filter.AcademicPeriodID)
	}
	if filter.GroupID != "" {
		conditions = append(conditions, fmt.Sprintf("le.group_id = $%d", len(args)+1))
		args = append(args, filter.GroupID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("le.status = $%d", len(args)+1))
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

	query := fmt.Sprintf(`SELECT le.id, le.course_enrollment_id, le.level_id, le.academic_period_id, le.group_id, le.enrollment_date, le.status, le.final_average, le.completion_date, le.created_at, le.updated_at,
        l.name AS level_name, l.level_number, g.group_code
        %s ORDER BY le.enrollment_date DESC LIMIT %d OFFSET %d`, base+clause, size, offset)

	var enrollments []models.LevelEnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list level enrollments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count level enrollments: %w", err)
	}
	return enrollments, total, nil
}

const insertLevelEnrollmentQuery = `INSERT INTO level_enrollments (id, course_enrollment_id, level_id, academic_period_id, group_id, enrollment_date, status, final_average, completion_date, created_at, updated_at)
        VALUES (:id, :course_enrollment_id, :level_id, :academic_period_id, :group_id, :enrollment_date, :status, :final_average, :completion_date, :created_at, :updated_at)`

// Create persists a new level enrollment. When the enrollment references a
// group, the seat is reserved by conditional update inside the same
// transaction as the insert; a full group rolls everything back with ErrNoSeat.
func (r *LevelEnrollmentRepository) Create(ctx context.Context, enrollment *models.LevelEnrollment) error {
	prepareLevelEnrollment(enrollment)

	if enrollment.GroupID == nil {
		if _, err := r.db.NamedExecContext(ctx, insertLevelEnrollmentQuery, enrollment); err != nil {
			return fmt.Errorf("create level enrollment: %w", err)
		}
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin level enrollment tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := reserveSeat(ctx, tx, *enrollment.GroupID); err != nil {
		return err
	}
	if _, err := tx.NamedExecContext(ctx, insertLevelEnrollmentQuery, enrollment); err != nil {
		return fmt.Errorf("create level enrollment: %w", err)
	}
	return tx.Commit()
}

func prepareLevelEnrollment(enrollment *models.LevelEnrollment) {
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
}

// UpdateStatus updates status and completion date. A seat adjustment runs
// against the group in the same transaction: SeatRelease returns the seat,
// SeatReserve takes one back and fails the whole update with ErrNoSeat when
// the group is full.
func (r *LevelEnrollmentRepository) UpdateStatus(ctx context.Context, id string, status models.ProgressStatus, completionDate *time.Time, groupID *string, seat SeatAdjustment) error {
	const query = `UPDATE level_enrollments SET status = $2, completion_date = $3, updated_at = NOW() WHERE id = $1`

	if groupID == nil || seat == SeatKeep {
		if _, err := r.db.ExecContext(ctx, query, id, status, completionDate); err != nil {
			return fmt.Errorf("update level enrollment status: %w", err)
		}
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin status tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, query, id, status, completionDate); err != nil {
		return fmt.Errorf("update level enrollment status: %w", err)
	}
	switch seat {
	case SeatRelease:
		if err := releaseSeat(ctx, tx, *groupID); err != nil {
			return err
		}
	case SeatReserve:
		if err := reserveSeat(ctx, tx, *groupID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SetFinalAverage stores the aggregated average for the level.
func (r *LevelEnrollmentRepository) SetFinalAverage(ctx context.Context, id string, finalAverage float64) error {
	const query = `UPDATE level_enrollments SET final_average = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, finalAverage); err != nil {
		return fmt.Errorf("set final average: %w", err)
	}
	return nil
}

// Delete removes a level enrollment, releasing its seat when a group is set.
func (r *LevelEnrollmentRepository) Delete(ctx context.Context, id string, groupID *string) error {
	const query = `DELETE FROM level_enrollments WHERE id = $1`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete level enrollment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete level enrollment result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	if groupID != nil {
		if err := releaseSeat(ctx, tx, *groupID); err != nil {
			return err
		}
	}
	return tx.Commit()
}
