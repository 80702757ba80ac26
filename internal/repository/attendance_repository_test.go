package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/cesde/studentinfo-api/internal/models"
)

func TestAttendanceRepositoryCreateUniqueViolation(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO attendances")).
		WillReturnError(&pq.Error{Code: "23505"})

	attendance := &models.Attendance{SubjectEnrollmentID: "se1", ClassSessionID: "cs1", Status: models.AttendancePresent, RecordedByID: "prof1"}
	err := repo.Create(context.Background(), attendance)
	require.ErrorIs(t, err, ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryExists(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM attendances")).
		WithArgs("se1", "cs1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.Exists(context.Background(), "se1", "cs1")
	require.NoError(t, err)
	require.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositorySummary(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	rows := sqlmock.NewRows([]string{"present", "absent", "late", "excused", "total"}).
		AddRow(8, 1, 1, 0, 10)
	mock.ExpectQuery(regexp.QuoteMeta("FROM attendances")).
		WithArgs("se1").
		WillReturnRows(rows)

	summary, err := repo.Summary(context.Background(), "se1")
	require.NoError(t, err)
	require.Equal(t, 10, summary.Total)
	// Late arrivals still attended; 9 of 10 sessions.
	require.InDelta(t, 90.0, summary.Percent, 0.001)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositorySummaryEmpty(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	rows := sqlmock.NewRows([]string{"present", "absent", "late", "excused", "total"}).
		AddRow(0, 0, 0, 0, 0)
	mock.ExpectQuery(regexp.QuoteMeta("FROM attendances")).
		WithArgs("se1").
		WillReturnRows(rows)

	summary, err := repo.Summary(context.Background(), "se1")
	require.NoError(t, err)
	require.Zero(t, summary.Percent)
	require.NoError(t, mock.ExpectationsWereMet())
}
