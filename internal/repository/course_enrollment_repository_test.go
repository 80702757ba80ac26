package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/cesde/studentinfo-api/internal/models"
)

func TestCourseEnrollmentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCourseEnrollmentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO course_enrollments")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	enrollment := &models.CourseEnrollment{StudentID: "s1", CourseID: "c1", AcademicPeriodID: "p1"}
	require.NoError(t, repo.Create(context.Background(), enrollment))
	require.NotEmpty(t, enrollment.ID)
	require.Equal(t, models.CourseEnrollmentActive, enrollment.Status)
	require.False(t, enrollment.EnrollmentDate.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseEnrollmentRepositoryCreateUniqueViolation(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCourseEnrollmentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO course_enrollments")).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.CourseEnrollment{StudentID: "s1", CourseID: "c1", AcademicPeriodID: "p1"})
	require.ErrorIs(t, err, ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseEnrollmentRepositoryExists(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCourseEnrollmentRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM course_enrollments")).
		WithArgs("s1", "c1", "p1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.Exists(context.Background(), "s1", "c1", "p1")
	require.NoError(t, err)
	require.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseEnrollmentRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCourseEnrollmentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM course_enrollments")).
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "ghost")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseEnrollmentRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCourseEnrollmentRepository(db)
	completion := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE course_enrollments")).
		WithArgs("e1", string(models.CourseEnrollmentGraduated), completion).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "e1", models.CourseEnrollmentGraduated, &completion))
	require.NoError(t, mock.ExpectationsWereMet())
}
