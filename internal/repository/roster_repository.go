package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/zianad/idarati-api/internal/models"
)

// RosterRepository reads students, groups, subjects and courses. The
// scheduling core does not own this data; everything here is read-only.
type RosterRepository struct {
	db *sqlx.DB
}

// NewRosterRepository constructs the repository.
func NewRosterRepository(db *sqlx.DB) *RosterRepository {
	return &RosterRepository{db: db}
}

// ListStudentsByGroup returns the active students currently enrolled in a
// group. Membership is resolved live, never cached.
func (r *RosterRepository) ListStudentsByGroup(ctx context.Context, schoolID, groupID string) ([]models.Student, error) {
	query := `SELECT id, school_id, group_id, full_name, active, created_at
FROM students WHERE school_id = $1 AND group_id = $2 AND active = TRUE ORDER BY full_name ASC`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, schoolID, groupID); err != nil {
		return nil, fmt.Errorf("list students by group: %w", err)
	}
	return students, nil
}

// FindGroup fetches one group scoped to the school.
func (r *RosterRepository) FindGroup(ctx context.Context, schoolID, id string) (*models.Group, error) {
	query := `SELECT id, school_id, name, level FROM groups WHERE school_id = $1 AND id = $2`
	var group models.Group
	if err := r.db.GetContext(ctx, &group, query, schoolID, id); err != nil {
		return nil, err
	}
	return &group, nil
}

// FindSubject fetches one subject scoped to the school.
func (r *RosterRepository) FindSubject(ctx context.Context, schoolID, id string) (*models.Subject, error) {
	query := `SELECT id, school_id, name, color, default_classroom, teacher_id
FROM subjects WHERE school_id = $1 AND id = $2`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, schoolID, id); err != nil {
		return nil, err
	}
	return &subject, nil
}

// FindCourse fetches one course scoped to the school.
func (r *RosterRepository) FindCourse(ctx context.Context, schoolID, id string) (*models.Course, error) {
	query := `SELECT id, school_id, name, color, default_classroom, teacher_id
FROM courses WHERE school_id = $1 AND id = $2`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, schoolID, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// ResolveEntity looks up the display metadata behind a session's
// subject-or-course reference. Unknown references resolve to nil rather than
// an error so a stale schedule still renders.
func (r *RosterRepository) ResolveEntity(ctx context.Context, schoolID string, ref models.SessionRef) (*models.SessionEntity, error) {
	var (
		name, color string
		teacherID   *string
	)
	switch ref.Kind {
	case models.SessionRefSubject:
		subject, err := r.FindSubject(ctx, schoolID, ref.ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, nil
			}
			return nil, fmt.Errorf("resolve subject: %w", err)
		}
		name, color, teacherID = subject.Name, subject.Color, subject.TeacherID
	case models.SessionRefCourse:
		course, err := r.FindCourse(ctx, schoolID, ref.ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, nil
			}
			return nil, fmt.Errorf("resolve course: %w", err)
		}
		name, color, teacherID = course.Name, course.Color, course.TeacherID
	default:
		return nil, nil
	}

	entity := &models.SessionEntity{Name: name, Color: color}
	if teacherID != nil && *teacherID != "" {
		teacher, err := r.findTeacher(ctx, schoolID, *teacherID)
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("resolve teacher: %w", err)
			}
		} else {
			entity.TeacherName = teacher.FullName
		}
	}
	return entity, nil
}

func (r *RosterRepository) findTeacher(ctx context.Context, schoolID, id string) (*models.Teacher, error) {
	query := `SELECT id, school_id, full_name FROM teachers WHERE school_id = $1 AND id = $2`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, schoolID, id); err != nil {
		return nil, err
	}
	return &teacher, nil
}
