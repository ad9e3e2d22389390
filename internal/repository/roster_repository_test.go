package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zianad/idarati-api/internal/models"
)

func TestRosterRepositoryListStudentsByGroup(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRosterRepository(db)

	rows := sqlmock.NewRows([]string{"id", "school_id", "group_id", "full_name", "active", "created_at"}).
		AddRow("stu-1", "school-1", "g1", "Amina B", true, time.Now()).
		AddRow("stu-2", "school-1", "g1", "Yassin K", true, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM students WHERE school_id = $1 AND group_id = $2 AND active = TRUE")).
		WithArgs("school-1", "g1").
		WillReturnRows(rows)

	students, err := repo.ListStudentsByGroup(context.Background(), "school-1", "g1")
	require.NoError(t, err)
	assert.Len(t, students, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRosterRepositoryResolveSubjectEntity(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRosterRepository(db)

	teacherID := "t-1"
	mock.ExpectQuery(regexp.QuoteMeta("FROM subjects WHERE school_id = $1 AND id = $2")).
		WithArgs("school-1", "subj-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "school_id", "name", "color", "default_classroom", "teacher_id"}).
			AddRow("subj-1", "school-1", "Mathematics", "#2266ff", nil, teacherID))
	mock.ExpectQuery(regexp.QuoteMeta("FROM teachers WHERE school_id = $1 AND id = $2")).
		WithArgs("school-1", teacherID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "school_id", "full_name"}).
			AddRow(teacherID, "school-1", "Mme Alaoui"))

	entity, err := repo.ResolveEntity(context.Background(), "school-1", models.SubjectRef("subj-1"))
	require.NoError(t, err)
	require.NotNil(t, entity)
	assert.Equal(t, "Mathematics", entity.Name)
	assert.Equal(t, "Mme Alaoui", entity.TeacherName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRosterRepositoryResolveUnknownEntityIsNil(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRosterRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM courses WHERE school_id = $1 AND id = $2")).
		WithArgs("school-1", "gone").
		WillReturnRows(sqlmock.NewRows([]string{"id", "school_id", "name", "color", "default_classroom", "teacher_id"}))

	entity, err := repo.ResolveEntity(context.Background(), "school-1", models.CourseRef("gone"))
	require.NoError(t, err)
	assert.Nil(t, entity, "stale references resolve to nil, not an error")
	assert.NoError(t, mock.ExpectationsWereMet())
}
