package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/cesde/studentinfo-api/internal/models"
)

// CatalogRepository reads the static academic catalog: courses, levels,
// subjects and academic periods.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository constructs the repository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// FindCourseByID returns a course by its ID.
func (r *CatalogRepository) FindCourseByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT id, name, code, total_levels, is_active, created_at, updated_at FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// FindLevelByID returns a level by its ID.
func (r *CatalogRepository) FindLevelByID(ctx context.Context, id string) (*models.Level, error) {
	const query = `SELECT id, course_id, level_number, name, created_at, updated_at FROM levels WHERE id = $1`
	var level models.Level
	if err := r.db.GetContext(ctx, &level, query, id); err != nil {
		return nil, err
	}
	return &level, nil
}

// ListLevelsByCourse returns levels ordered by level number.
func (r *CatalogRepository) ListLevelsByCourse(ctx context.Context, courseID string) ([]models.Level, error) {
	const query = `SELECT id, course_id, level_number, name, created_at, updated_at FROM levels WHERE course_id = $1 ORDER BY level_number`
	var levels []models.Level
	if err := r.db.SelectContext(ctx, &levels, query, courseID); err != nil {
		return nil, fmt.Errorf("list levels: %w", err)
	}
	return levels, nil
}

// FindSubjectByID returns a subject joined with its owning level name.
func (r *CatalogRepository) FindSubjectByID(ctx context.Context, id string) (*models.SubjectDetail, error) {
	const query = `SELECT s.id, s.level_id, s.code, s.name, s.credits, s.hours_per_week, s.is_active, s.created_at, s.updated_at,
        l.name AS level_name
        FROM subjects s
        JOIN levels l ON l.id = s.level_id
        WHERE s.id = $1`
	var subject models.SubjectDetail
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		return nil, err
	}
	return &subject, nil
}

// ListSubjectsByLevel returns active subjects of a level.
func (r *CatalogRepository) ListSubjectsByLevel(ctx context.Context, levelID string) ([]models.Subject, error) {
	const query = `SELECT id, level_id, code, name, credits, hours_per_week, is_active, created_at, updated_at
        FROM subjects WHERE level_id = $1 AND is_active ORDER BY code`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, levelID); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// FindPeriodByID returns an academic period by its ID.
func (r *CatalogRepository) FindPeriodByID(ctx context.Context, id string) (*models.AcademicPeriod, error) {
	const query = `SELECT id, year, period_number, start_date, end_date, is_active, created_at, updated_at FROM academic_periods WHERE id = $1`
	var period models.AcademicPeriod
	if err := r.db.GetContext(ctx, &period, query, id); err != nil {
		return nil, err
	}
	return &period, nil
}

// FindStudentByID returns a student by its ID.
func (r *CatalogRepository) FindStudentByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, first_name, last_name, document_id, email, is_active, created_at, updated_at FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindAssignmentByID returns a subject assignment by its ID.
func (r *CatalogRepository) FindAssignmentByID(ctx context.Context, id string) (*models.SubjectAssignment, error) {
	const query = `SELECT id, subject_id, professor_id, academic_period_id, group_id, schedule, classroom, max_students, created_at, updated_at
        FROM subject_assignments WHERE id = $1`
	var assignment models.SubjectAssignment
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// FindProfessorByID returns a professor by its ID.
func (r *CatalogRepository) FindProfessorByID(ctx context.Context, id string) (*models.Professor, error) {
	const query = `SELECT id, first_name, last_name, email, is_active, created_at, updated_at FROM professors WHERE id = $1`
	var professor models.Professor
	if err := r.db.GetContext(ctx, &professor, query, id); err != nil {
		return nil, err
	}
	return &professor, nil
}
