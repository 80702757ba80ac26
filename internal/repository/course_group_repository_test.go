package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/cesde/studentinfo-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestCourseGroupRepositoryReserveSeat(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCourseGroupRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE course_groups")).
		WithArgs("g1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.ReserveSeat(context.Background(), "g1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseGroupRepositoryReserveSeatFull(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCourseGroupRepository(db)
	// The guarded update touches no row once current_students hit the cap.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE course_groups")).
		WithArgs("g1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.ReserveSeat(context.Background(), "g1")
	require.ErrorIs(t, err, ErrNoSeat)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseGroupRepositoryReleaseSeat(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCourseGroupRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE course_groups")).
		WithArgs("g1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.ReleaseSeat(context.Background(), "g1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseGroupRepositoryListAvailable(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCourseGroupRepository(db)
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "course_id", "level_id", "academic_period_id", "group_code", "max_students", "current_students", "is_active", "created_at", "updated_at"}).
		AddRow("g1", "c1", "l1", "p1", "G-01", 30, 12, true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, course_id, level_id")).
		WithArgs("c1", "l1").
		WillReturnRows(rows)

	groups, err := repo.List(context.Background(), models.CourseGroupFilter{CourseID: "c1", LevelID: "l1", OnlyAvailable: true})
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Equal(t, 18, groups[0].AvailableSeats())
	require.NoError(t, mock.ExpectationsWereMet())
}
