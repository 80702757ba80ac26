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

// ClassSessionRepository handles class session persistence.
type ClassSessionRepository struct {
	db *sqlx.DB
}

// NewClassSessionRepository constructs the repository.
func NewClassSessionRepository(db *sqlx.DB) *ClassSessionRepository {
	return &ClassSessionRepository{db: db}
}

const classSessionColumns = `id, subject_assignment_id, session_date, session_time, duration_minutes, topic, status, created_at, updated_at`

// FindByID returns a class session by its ID.
func (r *ClassSessionRepository) FindByID(ctx context.Context, id string) (*models.ClassSession, error) {
	query := fmt.Sprintf("SELECT %s FROM class_sessions WHERE id = $1", classSessionColumns)
	var session models.ClassSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// FindByAssignmentAndDate returns the session for the assignment on the given
// calendar date, ignoring time-of-day. sql.ErrNoRows when none exists.
func (r *ClassSessionRepository) FindByAssignmentAndDate(ctx context.Context, assignmentID string, date time.Time) (*models.ClassSession, error) {
	query := fmt.Sprintf("SELECT %s FROM class_sessions WHERE subject_assignment_id = $1 AND session_date = $2", classSessionColumns)
	var session models.ClassSession
	if err := r.db.GetContext(ctx, &session, query, assignmentID, date); err != nil {
		return nil, err
	}
	return &session, nil
}

// ListByAssignment returns the sessions of an assignment ordered by date.
func (r *ClassSessionRepository) ListByAssignment(ctx context.Context, assignmentID string) ([]models.ClassSession, error) {
	query := fmt.Sprintf("SELECT %s FROM class_sessions WHERE subject_assignment_id = $1 ORDER BY session_date", classSessionColumns)
	var sessions []models.ClassSession
	if err := r.db.SelectContext(ctx, &sessions, query, assignmentID); err != nil {
		return nil, fmt.Errorf("list class sessions: %w", err)
	}
	return sessions, nil
}

// Create persists a new class session. The unique constraint on
// (subject_assignment_id, session_date) keeps per-date idempotence race-free;
// violations surface as ErrDuplicate so callers can re-read the winner.
func (r *ClassSessionRepository) Create(ctx context.Context, session *models.ClassSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if session.SessionTime == "" {
		session.SessionTime = models.DefaultSessionTime
	}
	if session.DurationMinutes == 0 {
		session.DurationMinutes = models.DefaultSessionDurationMinutes
	}
	if session.Status == "" {
		session.Status = models.SessionScheduled
	}
	session.CreatedAt = now
	session.UpdatedAt = now
	const query = `INSERT INTO class_sessions (id, subject_assignment_id, session_date, session_time, duration_minutes, topic, status, created_at, updated_at)
        VALUES (:id, :subject_assignment_id, :session_date, :session_time, :duration_minutes, :topic, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create class session: %w", err)
	}
	return nil
}

// UpdateStatus updates the session status.
func (r *ClassSessionRepository) UpdateStatus(ctx context.Context, id string, status models.SessionStatus) error {
	const query = `UPDATE class_sessions SET status = $2, updated_at = NOW() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("update class session status: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
