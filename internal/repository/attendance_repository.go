package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/zianad/idarati-api/internal/models"
)

// AttendanceRepository persists attendance records. Records reference sessions
// weakly: deleting a session never cascades here.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Upsert inserts a record or, when the (student, session, date) triple already
// exists, overwrites only its status and notes. Re-submitting identical data
// is a no-op beyond the updated_at bump.
func (r *AttendanceRepository) Upsert(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error) {
	now := time.Now().UTC()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	query := `INSERT INTO attendance_records (id, school_id, student_id, session_id, date, status, notes, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (student_id, session_id, date)
DO UPDATE SET status = EXCLUDED.status, notes = EXCLUDED.notes, updated_at = EXCLUDED.updated_at
RETURNING id, school_id, student_id, session_id, date, status, notes, created_at, updated_at`
	var stored models.AttendanceRecord
	if err := r.db.GetContext(ctx, &stored, query,
		record.ID, record.SchoolID, record.StudentID, record.SessionID, record.Date,
		record.Status, record.Notes, record.CreatedAt, record.UpdatedAt); err != nil {
		return nil, fmt.Errorf("upsert attendance record: %w", err)
	}
	return &stored, nil
}

// List returns records for a school filtered by the provided criteria.
func (r *AttendanceRepository) List(ctx context.Context, schoolID string, filter models.AttendanceFilter) ([]models.AttendanceRecord, error) {
	where := []string{"school_id = $1"}
	args := []interface{}{schoolID}
	if filter.SessionID != "" {
		where = append(where, fmt.Sprintf("session_id = $%d", len(args)+1))
		args = append(args, filter.SessionID)
	}
	if filter.StudentID != "" {
		where = append(where, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Date != nil {
		where = append(where, fmt.Sprintf("date = $%d", len(args)+1))
		args = append(args, *filter.Date)
	}
	if filter.Status != nil && filter.Status.Valid() {
		where = append(where, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}

	query := fmt.Sprintf(`SELECT id, school_id, student_id, session_id, date, status, notes, created_at, updated_at
FROM attendance_records WHERE %s ORDER BY date DESC, student_id ASC`, strings.Join(where, " AND "))
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list attendance records: %w", err)
	}
	return records, nil
}

// ExistsForSession reports whether any record was taken for the session on the
// given date.
func (r *AttendanceRepository) ExistsForSession(ctx context.Context, schoolID, sessionID string, date time.Time) (bool, error) {
	query := `SELECT EXISTS (
SELECT 1 FROM attendance_records WHERE school_id = $1 AND session_id = $2 AND date = $3)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, schoolID, sessionID, date); err != nil {
		return false, fmt.Errorf("check attendance existence: %w", err)
	}
	return exists, nil
}

// StudentHistory lists a student's records, optionally bounded by dates.
func (r *AttendanceRepository) StudentHistory(ctx context.Context, schoolID, studentID string, from, to *time.Time) ([]models.AttendanceRecord, error) {
	where := []string{"school_id = $1", "student_id = $2"}
	args := []interface{}{schoolID, studentID}
	if from != nil {
		where = append(where, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, *from)
	}
	if to != nil {
		where = append(where, fmt.Sprintf("date <= $%d", len(args)+1))
		args = append(args, *to)
	}

	query := fmt.Sprintf(`SELECT id, school_id, student_id, session_id, date, status, notes, created_at, updated_at
FROM attendance_records WHERE %s ORDER BY date DESC`, strings.Join(where, " AND "))
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list student attendance history: %w", err)
	}
	return records, nil
}
