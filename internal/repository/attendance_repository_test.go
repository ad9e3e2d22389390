package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zianad/idarati-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func attendanceColumns() []string {
	return []string{"id", "school_id", "student_id", "session_id", "date", "status", "notes", "created_at", "updated_at"}
}

func TestAttendanceRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	now := time.Now().UTC()
	rows := sqlmock.NewRows(attendanceColumns()).
		AddRow("rec-1", "school-1", "stu-1", "sess-1", date, "PRESENT", nil, now, now)
	mock.ExpectQuery("INSERT INTO attendance_records").
		WithArgs(sqlmock.AnyArg(), "school-1", "stu-1", "sess-1", date, models.AttendanceStatusPresent, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(rows)

	stored, err := repo.Upsert(context.Background(), &models.AttendanceRecord{
		SchoolID:  "school-1",
		StudentID: "stu-1",
		SessionID: "sess-1",
		Date:      date,
		Status:    models.AttendanceStatusPresent,
	})
	require.NoError(t, err)
	assert.Equal(t, "rec-1", stored.ID)
	assert.Equal(t, models.AttendanceStatusPresent, stored.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryListBySessionAndDate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(attendanceColumns()).
		AddRow("rec-1", "school-1", "stu-1", "sess-1", date, "ABSENT", nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM attendance_records WHERE school_id = $1 AND session_id = $2 AND date = $3")).
		WithArgs("school-1", "sess-1", date).
		WillReturnRows(rows)

	records, err := repo.List(context.Background(), "school-1", models.AttendanceFilter{SessionID: "sess-1", Date: &date})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.AttendanceStatusAbsent, records[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryExistsForSession(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("school-1", "sess-1", date).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsForSession(context.Background(), "school-1", "sess-1", date)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryStudentHistoryBounds(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(attendanceColumns()).
		AddRow("rec-1", "school-1", "stu-1", "sess-1", from.AddDate(0, 0, 9), "LATE", nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("WHERE school_id = $1 AND student_id = $2 AND date >= $3 AND date <= $4")).
		WithArgs("school-1", "stu-1", from, to).
		WillReturnRows(rows)

	records, err := repo.StudentHistory(context.Background(), "school-1", "stu-1", &from, &to)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
