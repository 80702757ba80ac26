package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/cesde/studentinfo-api/internal/models"
)

// CourseGroupRepository handles course group persistence and seat accounting.
type CourseGroupRepository struct {
	db *sqlx.DB
}

// NewCourseGroupRepository constructs the repository.
func NewCourseGroupRepository(db *sqlx.DB) *CourseGroupRepository {
	return &CourseGroupRepository{db: db}
}

const courseGroupColumns = `id, course_id, level_id, academic_period_id, group_code, max_students, current_students, is_active, created_at, updated_at`

// FindByID returns a course group by its ID.
func (r *CourseGroupRepository) FindByID(ctx context.Context, id string) (*models.CourseGroup, error) {
	query := fmt.Sprintf("SELECT %s FROM course_groups WHERE id = $1", courseGroupColumns)
	var group models.CourseGroup
	if err := r.db.GetContext(ctx, &group, query, id); err != nil {
		return nil, err
	}
	return &group, nil
}

// List returns course groups matching the filter.
func (r *CourseGroupRepository) List(ctx context.Context, filter models.CourseGroupFilter) ([]models.CourseGroup, error) {
	query := fmt.Sprintf("SELECT %s FROM course_groups WHERE 1=1", courseGroupColumns)
	var args []interface{}
	if filter.CourseID != "" {
		query += fmt.Sprintf(" AND course_id = $%d", len(args)+1)
		args = append(args, filter.CourseID)
	}
	if filter.LevelID != "" {
		query += fmt.Sprintf(" AND level_id = $%d", len(args)+1)
		args = append(args, filter.LevelID)
	}
	if filter.AcademicPeriodID != "" {
		query += fmt.Sprintf(" AND academic_period_id = $%d", len(args)+1)
		args = append(args, filter.AcademicPeriodID)
	}
	if filter.OnlyAvailable {
		query += " AND is_active AND current_students < max_students"
	}
	query += " ORDER BY group_code"
	var groups []models.CourseGroup
	if err := r.db.SelectContext(ctx, &groups, query, args...); err != nil {
		return nil, fmt.Errorf("list course groups: %w", err)
	}
	return groups, nil
}

// reserveSeatQuery increments the seat counter only while capacity remains, so
// concurrent reservations cannot overshoot max_students.
const reserveSeatQuery = `UPDATE course_groups
        SET current_students = current_students + 1, updated_at = NOW()
        WHERE id = $1 AND current_students < max_students`

// releaseSeatQuery decrements the counter floored at zero.
const releaseSeatQuery = `UPDATE course_groups
        SET current_students = GREATEST(current_students - 1, 0), updated_at = NOW()
        WHERE id = $1`

// ReserveSeat consumes one seat. Returns ErrNoSeat when the group is full.
func (r *CourseGroupRepository) ReserveSeat(ctx context.Context, id string) error {
	return reserveSeat(ctx, r.db, id)
}

// ReleaseSeat returns one seat to the group.
func (r *CourseGroupRepository) ReleaseSeat(ctx context.Context, id string) error {
	return releaseSeat(ctx, r.db, id)
}

func reserveSeat(ctx context.Context, ex sqlx.ExtContext, id string) error {
	res, err := ex.ExecContext(ctx, reserveSeatQuery, id)
	if err != nil {
		return fmt.Errorf("reserve seat: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reserve seat result: %w", err)
	}
	if affected == 0 {
		return ErrNoSeat
	}
	return nil
}

func releaseSeat(ctx context.Context, ex sqlx.ExtContext, id string) error {
	if _, err := ex.ExecContext(ctx, releaseSeatQuery, id); err != nil {
		return fmt.Errorf("release seat: %w", err)
	}
	return nil
}
