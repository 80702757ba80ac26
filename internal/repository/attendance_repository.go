package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/cesde/studentinfo-api/internal/models"
)

// AttendanceRepository handles persistence of attendance facts.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

const attendanceColumns = `id, subject_enrollment_id, class_session_id, status, is_excused, reason, recorded_by_id, created_at, updated_at`

// Exists checks for a fact on the (enrollment, session) pair.
func (r *AttendanceRepository) Exists(ctx context.Context, subjectEnrollmentID, classSessionID string) (bool, error) {
	const query = `SELECT 1 FROM attendances WHERE subject_enrollment_id = $1 AND class_session_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, subjectEnrollmentID, classSessionID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check attendance: %w", err)
	}
	return true, nil
}

// Create persists a new attendance fact. The unique constraint on
// (subject_enrollment_id, class_session_id) makes duplicate rejection
// race-free; violations surface as ErrDuplicate.
func (r *AttendanceRepository) Create(ctx context.Context, attendance *models.Attendance) error {
	if attendance.ID == "" {
		attendance.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	attendance.CreatedAt = now
	attendance.UpdatedAt = now
	const query = `INSERT INTO attendances (id, subject_enrollment_id, class_session_id, status, is_excused, reason, recorded_by_id, created_at, updated_at)
        VALUES (:id, :subject_enrollment_id, :class_session_id, :status, :is_excused, :reason, :recorded_by_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, attendance); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create attendance: %w", err)
	}
	return nil
}

// ListByEnrollment returns the facts recorded for a subject enrollment.
func (r *AttendanceRepository) ListByEnrollment(ctx context.Context, subjectEnrollmentID string) ([]models.Attendance, error) {
	query := fmt.Sprintf("SELECT %s FROM attendances WHERE subject_enrollment_id = $1 ORDER BY created_at", attendanceColumns)
	var attendances []models.Attendance
	if err := r.db.SelectContext(ctx, &attendances, query, subjectEnrollmentID); err != nil {
		return nil, fmt.Errorf("list attendance by enrollment: %w", err)
	}
	return attendances, nil
}

// ListBySession returns the facts recorded for a class session.
func (r *AttendanceRepository) ListBySession(ctx context.Context, classSessionID string) ([]models.Attendance, error) {
	query := fmt.Sprintf("SELECT %s FROM attendances WHERE class_session_id = $1 ORDER BY created_at", attendanceColumns)
	var attendances []models.Attendance
	if err := r.db.SelectContext(ctx, &attendances, query, classSessionID); err != nil {
		return nil, fmt.Errorf("list attendance by session: %w", err)
	}
	return attendances, nil
}

// Summary aggregates the facts of a subject enrollment by status.
func (r *AttendanceRepository) Summary(ctx context.Context, subjectEnrollmentID string) (*models.AttendanceSummary, error) {
	const query = `SELECT
        COUNT(*) FILTER (WHERE status = 'PRESENTE') AS present,
        COUNT(*) FILTER (WHERE status = 'AUSENTE') AS absent,
        COUNT(*) FILTER (WHERE status = 'TARDANZA') AS late,
        COUNT(*) FILTER (WHERE status = 'EXCUSADO') AS excused,
        COUNT(*) AS total
        FROM attendances WHERE subject_enrollment_id = $1`
	var summary models.AttendanceSummary
	if err := r.db.GetContext(ctx, &summary, query, subjectEnrollmentID); err != nil {
		return nil, fmt.Errorf("attendance summary: %w", err)
	}
	if summary.Total > 0 {
		attended := summary.Present + summary.Late
		summary.Percent = float64(attended) / float64(summary.Total) * 100
	}
	return &summary, nil
}
