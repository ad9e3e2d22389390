package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zianad/idarati-api/internal/dto"
	"github.com/zianad/idarati-api/internal/models"
	appErrors "github.com/zianad/idarati-api/pkg/errors"
)

const attendanceDateLayout = "2006-01-02"

type attendanceStore interface {
	Upsert(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error)
	List(ctx context.Context, schoolID string, filter models.AttendanceFilter) ([]models.AttendanceRecord, error)
	ExistsForSession(ctx context.Context, schoolID, sessionID string, date time.Time) (bool, error)
	StudentHistory(ctx context.Context, schoolID, studentID string, from, to *time.Time) ([]models.AttendanceRecord, error)
}

type attendanceRosterReader interface {
	ListStudentsByGroup(ctx context.Context, schoolID, groupID string) ([]models.Student, error)
}

type sessionFinder interface {
	Find(ctx context.Context, schoolID, id string) (*models.Session, error)
}

// AttendanceService records per-date attendance marks against the schedule.
// The link to a session is deliberately weak: deleting a session leaves its
// attendance history intact.
type AttendanceService struct {
	store     attendanceStore
	roster    attendanceRosterReader
	schedule  sessionFinder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService wires the attendance flow. The attendance_status
// validation tag is registered on the shared validator.
func NewAttendanceService(store attendanceStore, roster attendanceRosterReader, schedule sessionFinder, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	_ = validate.RegisterValidation("attendance_status", func(fl validator.FieldLevel) bool {
		return models.AttendanceStatus(fl.Field().String()).Valid()
	})
	return &AttendanceService{
		store:     store,
		roster:    roster,
		schedule:  schedule,
		validator: validate,
		logger:    logger,
	}
}

// Record upserts a batch of marks. Re-submitting the same
// (student, session, date) triple overwrites its status and notes instead of
// duplicating the row, so the whole batch is safely retryable.
func (s *AttendanceService) Record(ctx context.Context, schoolID string, req dto.RecordAttendanceRequest) ([]models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}

	now := time.Now().UTC()
	saved := make([]models.AttendanceRecord, 0, len(req.Records))
	for _, item := range req.Records {
		date, err := time.Parse(attendanceDateLayout, item.Date)
		if err != nil {
			return saved, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", item.Date))
		}
		record, err := s.store.Upsert(ctx, &models.AttendanceRecord{
			ID:        uuid.NewString(),
			SchoolID:  schoolID,
			StudentID: item.StudentID,
			SessionID: item.SessionID,
			Date:      date,
			Status:    models.AttendanceStatus(item.Status),
			Notes:     item.Notes,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			s.logger.Error("attendance upsert failed",
				zap.String("school_id", schoolID),
				zap.String("student_id", item.StudentID),
				zap.Error(err))
			return saved, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
		}
		saved = append(saved, *record)
	}
	return saved, nil
}

// Eligible returns the students attendance can be taken for on a session:
// the current members of the session's group. Membership is read live, so a
// student who changed groups stops appearing here while their old records
// remain queryable.
func (s *AttendanceService) Eligible(ctx context.Context, schoolID, sessionID string) ([]models.Student, error) {
	session, err := s.schedule.Find(ctx, schoolID, sessionID)
	if err != nil {
		return nil, err
	}
	students, err := s.roster.ListStudentsByGroup(ctx, schoolID, session.GroupID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group members")
	}
	return students, nil
}

// RecordedOn reports whether any attendance exists for the session on the
// given date. Drives the "already taken" indicator.
func (s *AttendanceService) RecordedOn(ctx context.Context, schoolID, sessionID, dateRaw string) (bool, error) {
	date, err := time.Parse(attendanceDateLayout, dateRaw)
	if err != nil {
		return false, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", dateRaw))
	}
	exists, err := s.store.ExistsForSession(ctx, schoolID, sessionID, date)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check attendance")
	}
	return exists, nil
}

// List queries records by any combination of session, student, date and
// status. Session ids are matched as opaque strings, so history for deleted
// sessions stays reachable.
func (s *AttendanceService) List(ctx context.Context, schoolID string, filter models.AttendanceFilter) ([]models.AttendanceRecord, error) {
	records, err := s.store.List(ctx, schoolID, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return records, nil
}

// StudentHistory returns one student's records, optionally bounded by an
// inclusive date range given as YYYY-MM-DD strings.
func (s *AttendanceService) StudentHistory(ctx context.Context, schoolID, studentID, fromRaw, toRaw string) ([]models.AttendanceRecord, error) {
	var from, to *time.Time
	if fromRaw != "" {
		t, err := time.Parse(attendanceDateLayout, fromRaw)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", fromRaw))
		}
		from = &t
	}
	if toRaw != "" {
		t, err := time.Parse(attendanceDateLayout, toRaw)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", toRaw))
		}
		to = &t
	}
	records, err := s.store.StudentHistory(ctx, schoolID, studentID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance history")
	}
	return records, nil
}
