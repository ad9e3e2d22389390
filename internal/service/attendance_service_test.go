package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zianad/idarati-api/internal/dto"
	"github.com/zianad/idarati-api/internal/models"
	appErrors "github.com/zianad/idarati-api/pkg/errors"
)

type attendanceKey struct {
	student string
	session string
	date    string
}

type stubAttendanceStore struct {
	records   map[attendanceKey]models.AttendanceRecord
	upsertErr error
}

func newStubAttendanceStore() *stubAttendanceStore {
	return &stubAttendanceStore{records: make(map[attendanceKey]models.AttendanceRecord)}
}

func (s *stubAttendanceStore) Upsert(_ context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error) {
	if s.upsertErr != nil {
		return nil, s.upsertErr
	}
	key := attendanceKey{record.StudentID, record.SessionID, record.Date.Format("2006-01-02")}
	if existing, ok := s.records[key]; ok {
		existing.Status = record.Status
		existing.Notes = record.Notes
		existing.UpdatedAt = record.UpdatedAt
		s.records[key] = existing
		return &existing, nil
	}
	s.records[key] = *record
	return record, nil
}

func (s *stubAttendanceStore) List(_ context.Context, _ string, filter models.AttendanceFilter) ([]models.AttendanceRecord, error) {
	var out []models.AttendanceRecord
	for _, record := range s.records {
		if filter.SessionID != "" && record.SessionID != filter.SessionID {
			continue
		}
		if filter.StudentID != "" && record.StudentID != filter.StudentID {
			continue
		}
		out = append(out, record)
	}
	return out, nil
}

func (s *stubAttendanceStore) ExistsForSession(_ context.Context, _, sessionID string, date time.Time) (bool, error) {
	for key := range s.records {
		if key.session == sessionID && key.date == date.Format("2006-01-02") {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubAttendanceStore) StudentHistory(_ context.Context, _, studentID string, from, to *time.Time) ([]models.AttendanceRecord, error) {
	var out []models.AttendanceRecord
	for _, record := range s.records {
		if record.StudentID != studentID {
			continue
		}
		if from != nil && record.Date.Before(*from) {
			continue
		}
		if to != nil && record.Date.After(*to) {
			continue
		}
		out = append(out, record)
	}
	return out, nil
}

type stubMembership struct {
	byGroup map[string][]models.Student
}

func (s *stubMembership) ListStudentsByGroup(_ context.Context, _, groupID string) ([]models.Student, error) {
	return s.byGroup[groupID], nil
}

type stubSessionFinder struct {
	sessions map[string]models.Session
}

func (s *stubSessionFinder) Find(_ context.Context, _, id string) (*models.Session, error) {
	if session, ok := s.sessions[id]; ok {
		return &session, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
}

func newTestAttendanceService(t *testing.T) (*AttendanceService, *stubAttendanceStore, *stubMembership, *stubSessionFinder) {
	t.Helper()
	store := newStubAttendanceStore()
	roster := &stubMembership{byGroup: map[string][]models.Student{
		"g1": {{ID: "st1", FullName: "Amina"}, {ID: "st2", FullName: "Yassine"}},
	}}
	finder := &stubSessionFinder{sessions: map[string]models.Session{
		"s1": {ID: "s1", GroupID: "g1", Ref: models.SubjectRef("sub-math"), Day: models.DayMonday, StartMinutes: 60, Duration: 60, Classroom: "A1"},
	}}
	return NewAttendanceService(store, roster, finder, nil, nil), store, roster, finder
}

func markReq(student, session, date, status string) dto.RecordAttendanceRequest {
	return dto.RecordAttendanceRequest{Records: []dto.AttendanceItem{
		{StudentID: student, SessionID: session, Date: date, Status: status},
	}}
}

func TestAttendanceServiceRecord(t *testing.T) {
	ctx := context.Background()
	svc, store, _, _ := newTestAttendanceService(t)

	saved, err := svc.Record(ctx, "school-1", markReq("st1", "s1", "2026-09-07", "PRESENT"))
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, models.AttendanceStatusPresent, saved[0].Status)
	assert.NotEmpty(t, saved[0].ID)
	assert.Len(t, store.records, 1)
}

func TestAttendanceServiceRecordIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, store, _, _ := newTestAttendanceService(t)

	first, err := svc.Record(ctx, "school-1", markReq("st1", "s1", "2026-09-07", "ABSENT"))
	require.NoError(t, err)

	// Same triple again with a corrected status: overwritten, not duplicated.
	second, err := svc.Record(ctx, "school-1", markReq("st1", "s1", "2026-09-07", "LATE"))
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, models.AttendanceStatusLate, second[0].Status)
	assert.Len(t, store.records, 1)
}

func TestAttendanceServiceRecordValidation(t *testing.T) {
	ctx := context.Background()
	svc, store, _, _ := newTestAttendanceService(t)

	tests := []struct {
		name string
		req  dto.RecordAttendanceRequest
	}{
		{"unknown status", markReq("st1", "s1", "2026-09-07", "SLEEPING")},
		{"bad date", markReq("st1", "s1", "07/09/2026", "PRESENT")},
		{"empty batch", dto.RecordAttendanceRequest{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Record(ctx, "school-1", tt.req)
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
		})
	}
	assert.Empty(t, store.records)
}

func TestAttendanceServiceRecordStoreFailure(t *testing.T) {
	ctx := context.Background()
	svc, store, _, _ := newTestAttendanceService(t)

	store.upsertErr = errors.New("db down")
	_, err := svc.Record(ctx, "school-1", markReq("st1", "s1", "2026-09-07", "PRESENT"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestAttendanceServiceEligible(t *testing.T) {
	ctx := context.Background()
	svc, _, roster, _ := newTestAttendanceService(t)

	students, err := svc.Eligible(ctx, "school-1", "s1")
	require.NoError(t, err)
	assert.Len(t, students, 2)

	// Membership is read live: a transferred student disappears immediately.
	roster.byGroup["g1"] = roster.byGroup["g1"][:1]
	students, err = svc.Eligible(ctx, "school-1", "s1")
	require.NoError(t, err)
	assert.Len(t, students, 1)

	_, err = svc.Eligible(ctx, "school-1", "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAttendanceServiceRecordedOn(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestAttendanceService(t)

	taken, err := svc.RecordedOn(ctx, "school-1", "s1", "2026-09-07")
	require.NoError(t, err)
	assert.False(t, taken)

	_, err = svc.Record(ctx, "school-1", markReq("st1", "s1", "2026-09-07", "PRESENT"))
	require.NoError(t, err)

	taken, err = svc.RecordedOn(ctx, "school-1", "s1", "2026-09-07")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = svc.RecordedOn(ctx, "school-1", "s1", "2026-09-08")
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestAttendanceServiceHistorySurvivesSessionDeletion(t *testing.T) {
	ctx := context.Background()
	svc, _, _, finder := newTestAttendanceService(t)

	_, err := svc.Record(ctx, "school-1", markReq("st1", "s1", "2026-09-07", "ABSENT"))
	require.NoError(t, err)

	// The session is gone, the record remains queryable by its old id.
	delete(finder.sessions, "s1")

	records, err := svc.List(ctx, "school-1", models.AttendanceFilter{SessionID: "s1"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.AttendanceStatusAbsent, records[0].Status)

	history, err := svc.StudentHistory(ctx, "school-1", "st1", "2026-09-01", "2026-09-30")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}
