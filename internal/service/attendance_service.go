package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/cesde/studentinfo-api/internal/models"
	"github.com/cesde/studentinfo-api/internal/repository"
	appErrors "github.com/cesde/studentinfo-api/pkg/errors"
)

type attendanceRepo interface {
	Exists(ctx context.Context, subjectEnrollmentID, classSessionID string) (bool, error)
	Create(ctx context.Context, attendance *models.Attendance) error
	ListByEnrollment(ctx context.Context, subjectEnrollmentID string) ([]models.Attendance, error)
	ListBySession(ctx context.Context, classSessionID string) ([]models.Attendance, error)
	Summary(ctx context.Context, subjectEnrollmentID string) (*models.AttendanceSummary, error)
}

type classSessionRepo interface {
	FindByID(ctx context.Context, id string) (*models.ClassSession, error)
	FindByAssignmentAndDate(ctx context.Context, assignmentID string, date time.Time) (*models.ClassSession, error)
	Create(ctx context.Context, session *models.ClassSession) error
	ListByAssignment(ctx context.Context, assignmentID string) ([]models.ClassSession, error)
	UpdateStatus(ctx context.Context, id string, status models.SessionStatus) error
}

// RecordAttendanceRequest describes an attendance fact payload. RecordedByID
// is the professor recording the fact.
type RecordAttendanceRequest struct {
	SubjectEnrollmentID string                  `json:"subject_enrollment_id" validate:"required"`
	ClassSessionID      string                  `json:"class_session_id" validate:"required"`
	Status              models.AttendanceStatus `json:"status" validate:"required"`
	IsExcused           bool                    `json:"is_excused"`
	Reason              *string                 `json:"reason,omitempty"`
	RecordedByID        string                  `json:"recorded_by_id" validate:"required"`
}

// FindOrCreateSessionRequest locates or schedules a class session for a date.
type FindOrCreateSessionRequest struct {
	SubjectAssignmentID string    `json:"subject_assignment_id" validate:"required"`
	SessionDate         time.Time `json:"session_date" validate:"required"`
	SessionTime         string    `json:"session_time,omitempty" validate:"omitempty,datetime=15:04"`
	Topic               *string   `json:"topic,omitempty"`
}

// AttendanceService keeps one attendance fact per enrollment and session.
type AttendanceService struct {
	attendances attendanceRepo
	sessions    classSessionRepo
	enrollments subjectEnrollmentReader
	catalog     catalogReader
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAttendanceService constructs AttendanceService.
func NewAttendanceService(attendances attendanceRepo, sessions classSessionRepo, enrollments subjectEnrollmentReader, catalog catalogReader, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{attendances: attendances, sessions: sessions, enrollments: enrollments, catalog: catalog, validator: validate, logger: logger}
}

// Record stores the attendance fact for an enrollment in a session. A second
// fact for the same pair is rejected; the unique constraint backs the check
// under concurrent writes.
func (s *AttendanceService) Record(ctx context.Context, req RecordAttendanceRequest) (*models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown attendance status")
	}
	professor, err := s.catalog.FindProfessorByID(ctx, req.RecordedByID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "recording professor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load professor")
	}
	if !professor.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "recording professor is not active")
	}
	if _, err := s.enrollments.FindByID(ctx, req.SubjectEnrollmentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject enrollment")
	}
	if _, err := s.sessions.FindByID(ctx, req.ClassSessionID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class session")
	}
	exists, err := s.attendances.Exists(ctx, req.SubjectEnrollmentID, req.ClassSessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check attendance")
	}
	if exists {
		return nil, appErrors.ErrDuplicateAttendance
	}

	attendance := &models.Attendance{
		SubjectEnrollmentID: req.SubjectEnrollmentID,
		ClassSessionID:      req.ClassSessionID,
		Status:              req.Status,
		IsExcused:           req.IsExcused,
		Reason:              req.Reason,
		RecordedByID:        req.RecordedByID,
	}
	if err := s.attendances.Create(ctx, attendance); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.ErrDuplicateAttendance
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}
	return attendance, nil
}

// FindOrCreateSession returns the session for (assignment, date), creating it
// with scheduling defaults when absent. Idempotence is per calendar date: a
// second call with a different time-of-day returns the original session.
func (s *AttendanceService) FindOrCreateSession(ctx context.Context, req FindOrCreateSessionRequest) (*models.ClassSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	if _, err := s.catalog.FindAssignmentByID(ctx, req.SubjectAssignmentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject assignment")
	}

	date := truncateToDate(req.SessionDate)
	session, err := s.sessions.FindByAssignmentAndDate(ctx, req.SubjectAssignmentID, date)
	if err == nil {
		return session, nil
	}
	if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up class session")
	}

	session = &models.ClassSession{
		SubjectAssignmentID: req.SubjectAssignmentID,
		SessionDate:         date,
		SessionTime:         req.SessionTime,
		Topic:               req.Topic,
		Status:              models.SessionScheduled,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		// A concurrent call won the insert; hand back its session.
		if errors.Is(err, repository.ErrDuplicate) {
			return s.rereadSession(ctx, req.SubjectAssignmentID, date)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class session")
	}
	s.logger.Info("class session created",
		zap.String("session_id", session.ID),
		zap.String("subject_assignment_id", session.SubjectAssignmentID),
		zap.Time("session_date", session.SessionDate))
	return session, nil
}

func (s *AttendanceService) rereadSession(ctx context.Context, assignmentID string, date time.Time) (*models.ClassSession, error) {
	session, err := s.sessions.FindByAssignmentAndDate(ctx, assignmentID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload class session")
	}
	return session, nil
}

// ListByEnrollment returns the facts recorded for a subject enrollment.
func (s *AttendanceService) ListByEnrollment(ctx context.Context, subjectEnrollmentID string) ([]models.Attendance, error) {
	attendances, err := s.attendances.ListByEnrollment(ctx, subjectEnrollmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return attendances, nil
}

// ListBySession returns the facts recorded for a class session.
func (s *AttendanceService) ListBySession(ctx context.Context, classSessionID string) ([]models.Attendance, error) {
	attendances, err := s.attendances.ListBySession(ctx, classSessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return attendances, nil
}

// ListSessions returns the sessions scheduled for a subject assignment.
func (s *AttendanceService) ListSessions(ctx context.Context, subjectAssignmentID string) ([]models.ClassSession, error) {
	if _, err := s.catalog.FindAssignmentByID(ctx, subjectAssignmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject assignment")
	}
	sessions, err := s.sessions.ListByAssignment(ctx, subjectAssignmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class sessions")
	}
	return sessions, nil
}

// UpdateSessionStatus transitions a class session status.
func (s *AttendanceService) UpdateSessionStatus(ctx context.Context, id string, status models.SessionStatus) (*models.ClassSession, error) {
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown session status")
	}
	if err := s.sessions.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class session")
	}
	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload class session")
	}
	return session, nil
}

// Summary aggregates the facts of a subject enrollment by status.
func (s *AttendanceService) Summary(ctx context.Context, subjectEnrollmentID string) (*models.AttendanceSummary, error) {
	summary, err := s.attendances.Summary(ctx, subjectEnrollmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to summarise attendance")
	}
	return summary, nil
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
