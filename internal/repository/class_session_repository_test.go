package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/cesde/studentinfo-api/internal/models"
)

func TestClassSessionRepositoryCreateDefaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewClassSessionRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO class_sessions")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	session := &models.ClassSession{
		SubjectAssignmentID: "a1",
		SessionDate:         time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Create(context.Background(), session))
	require.Equal(t, models.DefaultSessionTime, session.SessionTime)
	require.Equal(t, models.DefaultSessionDurationMinutes, session.DurationMinutes)
	require.Equal(t, models.SessionScheduled, session.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassSessionRepositoryCreateUniqueViolation(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewClassSessionRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO class_sessions")).
		WillReturnError(&pq.Error{Code: "23505"})

	session := &models.ClassSession{SubjectAssignmentID: "a1", SessionDate: time.Now()}
	err := repo.Create(context.Background(), session)
	require.ErrorIs(t, err, ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassSessionRepositoryFindByAssignmentAndDate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewClassSessionRepository(db)
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "subject_assignment_id", "session_date", "session_time", "duration_minutes", "topic", "status", "created_at", "updated_at"}).
		AddRow("cs1", "a1", date, "08:00", 120, nil, "PROGRAMADA", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM class_sessions")).
		WithArgs("a1", date).
		WillReturnRows(rows)

	session, err := repo.FindByAssignmentAndDate(context.Background(), "a1", date)
	require.NoError(t, err)
	require.Equal(t, "cs1", session.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
