package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zianad/idarati-api/internal/dto"
	"github.com/zianad/idarati-api/internal/models"
	"github.com/zianad/idarati-api/internal/timegrid"
	appErrors "github.com/zianad/idarati-api/pkg/errors"
)

type stubSnapshots struct {
	stored    map[string][]models.Session
	saveCalls int
	failSave  error
	failLoad  error
}

func newStubSnapshots() *stubSnapshots {
	return &stubSnapshots{stored: make(map[string][]models.Session)}
}

func (s *stubSnapshots) Load(_ context.Context, schoolID string) ([]models.Session, error) {
	if s.failLoad != nil {
		return nil, s.failLoad
	}
	return append([]models.Session(nil), s.stored[schoolID]...), nil
}

func (s *stubSnapshots) Replace(_ context.Context, schoolID string, sessions []models.Session) error {
	s.saveCalls++
	if s.failSave != nil {
		return s.failSave
	}
	s.stored[schoolID] = append([]models.Session(nil), sessions...)
	return nil
}

type stubRoster struct {
	groups   map[string]*models.Group
	subjects map[string]*models.Subject
	courses  map[string]*models.Course
}

func newStubRoster() *stubRoster {
	return &stubRoster{
		groups:   map[string]*models.Group{"g1": {ID: "g1", Name: "Grade 1A"}, "g2": {ID: "g2", Name: "Grade 1B"}},
		subjects: map[string]*models.Subject{"sub-math": {ID: "sub-math", Name: "Math", Color: "#3b82f6"}},
		courses:  map[string]*models.Course{"crs-robotics": {ID: "crs-robotics", Name: "Robotics"}},
	}
}

func (r *stubRoster) FindGroup(_ context.Context, _, id string) (*models.Group, error) {
	if g, ok := r.groups[id]; ok {
		return g, nil
	}
	return nil, sql.ErrNoRows
}

func (r *stubRoster) FindSubject(_ context.Context, _, id string) (*models.Subject, error) {
	if s, ok := r.subjects[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func (r *stubRoster) FindCourse(_ context.Context, _, id string) (*models.Course, error) {
	if c, ok := r.courses[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func (r *stubRoster) ResolveEntity(_ context.Context, _ string, ref models.SessionRef) (*models.SessionEntity, error) {
	switch ref.Kind {
	case models.SessionRefSubject:
		if s, ok := r.subjects[ref.ID]; ok {
			return &models.SessionEntity{Name: s.Name, Color: s.Color}, nil
		}
	case models.SessionRefCourse:
		if c, ok := r.courses[ref.ID]; ok {
			return &models.SessionEntity{Name: c.Name, Color: c.Color}, nil
		}
	}
	return nil, nil
}

func newTestScheduleService(t *testing.T) (*ScheduleService, *stubSnapshots, *stubRoster) {
	t.Helper()
	snapshots := newStubSnapshots()
	roster := newStubRoster()
	return NewScheduleService(snapshots, roster, timegrid.Default(), nil, nil), snapshots, roster
}

func createReq(groupID, subjectID, day, start string, duration int, room string) dto.CreateSessionRequest {
	return dto.CreateSessionRequest{
		GroupID:   groupID,
		SubjectID: subjectID,
		Day:       day,
		Start:     start,
		Duration:  duration,
		Classroom: room,
	}
}

func TestScheduleServiceAdd(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestScheduleService(t)

	created, err := svc.Add(ctx, "school-1", createReq("g1", "sub-math", "MONDAY", "09:00", 60, "A1"))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.SessionRefSubject, created.Ref.Kind)
	assert.Equal(t, "09:00", created.StartClock)
	assert.Equal(t, "10:00", created.EndClock)

	list, err := svc.List(ctx, "school-1")
	require.NoError(t, err)
	assert.Len(t, list.Sessions, 1)
	assert.True(t, list.Dirty)
}

func TestScheduleServiceAddValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestScheduleService(t)

	tests := []struct {
		name string
		req  dto.CreateSessionRequest
	}{
		{"unknown group", createReq("missing", "sub-math", "MONDAY", "09:00", 60, "A1")},
		{"unknown subject", createReq("g1", "missing", "MONDAY", "09:00", 60, "A1")},
		{"invalid day", createReq("g1", "sub-math", "FUNDAY", "09:00", 60, "A1")},
		{"disallowed duration", createReq("g1", "sub-math", "MONDAY", "09:00", 50, "A1")},
		{"before day start", createReq("g1", "sub-math", "MONDAY", "07:00", 60, "A1")},
		{"runs past day end", createReq("g1", "sub-math", "MONDAY", "21:30", 60, "A1")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Add(ctx, "school-1", tt.req)
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
		})
	}

	list, err := svc.List(ctx, "school-1")
	require.NoError(t, err)
	assert.Empty(t, list.Sessions)
	assert.False(t, list.Dirty)
}

func TestScheduleServiceAddRejectsBothReferences(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestScheduleService(t)

	req := createReq("g1", "sub-math", "MONDAY", "09:00", 60, "A1")
	req.CourseID = "crs-robotics"
	_, err := svc.Add(ctx, "school-1", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	req = createReq("g1", "", "MONDAY", "09:00", 60, "A1")
	_, err = svc.Add(ctx, "school-1", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceAddConflict(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestScheduleService(t)

	_, err := svc.Add(ctx, "school-1", createReq("g1", "sub-math", "MONDAY", "09:00", 60, "A1"))
	require.NoError(t, err)

	// Same group, overlapping window, different room.
	_, err = svc.Add(ctx, "school-1", createReq("g1", "sub-math", "MONDAY", "09:30", 60, "B2"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	// Different group, same room by case-insensitive match.
	_, err = svc.Add(ctx, "school-1", createReq("g2", "sub-math", "MONDAY", "09:30", 60, " a1 "))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	// Back-to-back is fine.
	_, err = svc.Add(ctx, "school-1", createReq("g1", "sub-math", "MONDAY", "10:00", 60, "A1"))
	require.NoError(t, err)

	list, err := svc.List(ctx, "school-1")
	require.NoError(t, err)
	assert.Len(t, list.Sessions, 2)
}

func TestScheduleServiceAddWithOccurrences(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestScheduleService(t)

	req := dto.CreateWithOccurrencesRequest{
		CourseID: "crs-robotics",
		Occurrences: []dto.SessionOccurrence{
			{GroupID: "g1", Day: "MONDAY", Start: "09:00", Duration: 90, Classroom: "Lab"},
			{GroupID: "g1", Day: "WEDNESDAY", Start: "14:00", Duration: 90, Classroom: "Lab"},
		},
	}
	created, err := svc.AddWithOccurrences(ctx, "school-1", req)
	require.NoError(t, err)
	assert.Len(t, created, 2)
	assert.Equal(t, models.SessionRefCourse, created[0].Ref.Kind)
}

func TestScheduleServiceAddWithOccurrencesAtomic(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestScheduleService(t)

	// Second occurrence collides with the first sibling: nothing lands.
	req := dto.CreateWithOccurrencesRequest{
		SubjectID: "sub-math",
		Occurrences: []dto.SessionOccurrence{
			{GroupID: "g1", Day: "MONDAY", Start: "09:00", Duration: 60, Classroom: "A1"},
			{GroupID: "g1", Day: "MONDAY", Start: "09:30", Duration: 60, Classroom: "B2"},
		},
	}
	_, err := svc.AddWithOccurrences(ctx, "school-1", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	list, err := svc.List(ctx, "school-1")
	require.NoError(t, err)
	assert.Empty(t, list.Sessions)
	assert.False(t, list.Dirty)
}

func TestScheduleServiceUpdateSwitchesVariant(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestScheduleService(t)

	created, err := svc.Add(ctx, "school-1", createReq("g1", "sub-math", "MONDAY", "09:00", 60, "A1"))
	require.NoError(t, err)

	updated, err := svc.Update(ctx, "school-1", created.ID, dto.UpdateSessionRequest{
		GroupID:   "g1",
		CourseID:  "crs-robotics",
		Day:       "MONDAY",
		Start:     "09:00",
		Duration:  60,
		Classroom: "A1",
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, models.SessionRefCourse, updated.Ref.Kind)
	assert.Equal(t, "crs-robotics", updated.Ref.ID)
}

func TestScheduleServiceMove(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestScheduleService(t)

	first, err := svc.Add(ctx, "school-1", createReq("g1", "sub-math", "MONDAY", "09:00", 60, "A1"))
	require.NoError(t, err)
	second, err := svc.Add(ctx, "school-1", createReq("g1", "sub-math", "MONDAY", "11:00", 60, "A1"))
	require.NoError(t, err)

	// Rejected move leaves the session where it was.
	_, err = svc.Move(ctx, "school-1", second.ID, dto.MoveSessionRequest{Day: "MONDAY", Start: "09:30"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	kept, err := svc.Find(ctx, "school-1", second.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DayMonday, kept.Day)
	assert.Equal(t, 180, kept.StartMinutes)

	// Moving onto an adjacent boundary is allowed.
	moved, err := svc.Move(ctx, "school-1", second.ID, dto.MoveSessionRequest{Day: "MONDAY", Start: "10:00"})
	require.NoError(t, err)
	assert.Equal(t, "10:00", moved.StartClock)

	// Re-placing a session on its own slot is a no-op conflict-wise.
	_, err = svc.Move(ctx, "school-1", first.ID, dto.MoveSessionRequest{Day: "MONDAY", Start: "09:00"})
	require.NoError(t, err)
}

func TestScheduleServiceDuplicateSkipsConflictCheck(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestScheduleService(t)

	created, err := svc.Add(ctx, "school-1", createReq("g1", "sub-math", "MONDAY", "09:00", 60, "A1"))
	require.NoError(t, err)

	clone, err := svc.Duplicate(ctx, "school-1", created.ID)
	require.NoError(t, err)
	assert.NotEqual(t, created.ID, clone.ID)
	assert.Equal(t, created.Day, clone.Day)
	assert.Equal(t, created.StartMinutes, clone.StartMinutes)

	list, err := svc.List(ctx, "school-1")
	require.NoError(t, err)
	assert.Len(t, list.Sessions, 2)
}

func TestScheduleServiceRemove(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestScheduleService(t)

	created, err := svc.Add(ctx, "school-1", createReq("g1", "sub-math", "MONDAY", "09:00", 60, "A1"))
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, "school-1", created.ID))

	err = svc.Remove(ctx, "school-1", created.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceSave(t *testing.T) {
	ctx := context.Background()
	svc, snapshots, _ := newTestScheduleService(t)

	created, err := svc.Add(ctx, "school-1", createReq("g1", "sub-math", "MONDAY", "09:00", 60, "A1"))
	require.NoError(t, err)

	require.NoError(t, svc.Save(ctx, "school-1"))
	assert.Equal(t, 1, snapshots.saveCalls)
	require.Len(t, snapshots.stored["school-1"], 1)
	assert.Equal(t, created.ID, snapshots.stored["school-1"][0].ID)

	list, err := svc.List(ctx, "school-1")
	require.NoError(t, err)
	assert.False(t, list.Dirty)
}

func TestScheduleServiceSaveFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	svc, snapshots, _ := newTestScheduleService(t)

	created, err := svc.Add(ctx, "school-1", createReq("g1", "sub-math", "MONDAY", "09:00", 60, "A1"))
	require.NoError(t, err)

	snapshots.failSave = errors.New("redis down")
	err = svc.Save(ctx, "school-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPersistence.Code, appErrors.FromError(err).Code)

	// Unsaved edits survive, dirty stays set, a retry succeeds.
	list, err := svc.List(ctx, "school-1")
	require.NoError(t, err)
	assert.Len(t, list.Sessions, 1)
	assert.True(t, list.Dirty)

	snapshots.failSave = nil
	require.NoError(t, svc.Save(ctx, "school-1"))
	assert.Equal(t, created.ID, snapshots.stored["school-1"][0].ID)
}

func TestScheduleServiceLoadsSnapshotOnFirstAccess(t *testing.T) {
	ctx := context.Background()
	svc, snapshots, _ := newTestScheduleService(t)

	snapshots.stored["school-1"] = []models.Session{{
		ID:           "s1",
		GroupID:      "g1",
		Ref:          models.SubjectRef("sub-math"),
		Day:          models.DayTuesday,
		StartMinutes: 60,
		Duration:     60,
		Classroom:    "A1",
	}}

	list, err := svc.List(ctx, "school-1")
	require.NoError(t, err)
	require.Len(t, list.Sessions, 1)
	assert.Equal(t, "s1", list.Sessions[0].ID)
	assert.False(t, list.Dirty)
}

func TestScheduleServiceTenantIsolation(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestScheduleService(t)

	_, err := svc.Add(ctx, "school-1", createReq("g1", "sub-math", "MONDAY", "09:00", 60, "A1"))
	require.NoError(t, err)

	// An identical placement in another school never conflicts.
	_, err = svc.Add(ctx, "school-2", createReq("g1", "sub-math", "MONDAY", "09:00", 60, "A1"))
	require.NoError(t, err)

	list, err := svc.List(ctx, "school-2")
	require.NoError(t, err)
	assert.Len(t, list.Sessions, 1)
}

func TestScheduleServiceCheckPlacement(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestScheduleService(t)

	first, err := svc.Add(ctx, "school-1", createReq("g1", "sub-math", "MONDAY", "09:00", 60, "A1"))
	require.NoError(t, err)
	second, err := svc.Add(ctx, "school-1", createReq("g1", "sub-math", "MONDAY", "11:00", 60, "A1"))
	require.NoError(t, err)

	res, err := svc.CheckPlacement(ctx, "school-1", second.ID, "MONDAY", "09:30")
	require.NoError(t, err)
	assert.True(t, res.Conflict)
	assert.Equal(t, first.ID, res.WithSessionID)

	res, err = svc.CheckPlacement(ctx, "school-1", second.ID, "TUESDAY", "09:30")
	require.NoError(t, err)
	assert.False(t, res.Conflict)

	// Preview never mutates.
	kept, err := svc.Find(ctx, "school-1", second.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DayMonday, kept.Day)
}

func TestScheduleServiceTimetable(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestScheduleService(t)

	_, err := svc.Add(ctx, "school-1", createReq("g1", "sub-math", "MONDAY", "09:00", 60, "A1"))
	require.NoError(t, err)
	_, err = svc.Add(ctx, "school-1", createReq("g2", "sub-math", "MONDAY", "09:00", 60, "B2"))
	require.NoError(t, err)

	full, err := svc.Timetable(ctx, "school-1", "")
	require.NoError(t, err)
	require.Len(t, full.Days, 1)
	require.Len(t, full.Days[0].Cells, 2)
	assert.True(t, full.Dirty)
	// The two sessions overlap in time across groups: side-by-side columns.
	assert.Equal(t, 2, full.Days[0].Cells[0].Geometry.Columns)
	assert.Equal(t, "Math", full.Days[0].Cells[0].EntityName)

	filtered, err := svc.Timetable(ctx, "school-1", "g1")
	require.NoError(t, err)
	require.Len(t, filtered.Days, 1)
	require.Len(t, filtered.Days[0].Cells, 1)
	assert.Equal(t, "g1", filtered.Days[0].Cells[0].Session.GroupID)
	assert.Equal(t, 1, filtered.Days[0].Cells[0].Geometry.Columns)
}

func TestScheduleServicePrintableRows(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestScheduleService(t)

	_, err := svc.Add(ctx, "school-1", createReq("g1", "sub-math", "WEDNESDAY", "09:00", 60, "A1"))
	require.NoError(t, err)
	_, err = svc.Add(ctx, "school-1", createReq("g2", "sub-math", "MONDAY", "14:00", 90, "B2"))
	require.NoError(t, err)

	rows, err := svc.PrintableRows(ctx, "school-1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, models.DayMonday, rows[0].Day)
	assert.Equal(t, "14:00", rows[0].StartClock)
	assert.Equal(t, "15:30", rows[0].EndClock)
	assert.Equal(t, "Grade 1B", rows[0].GroupName)
	assert.Equal(t, models.DayWednesday, rows[1].Day)
	assert.Equal(t, "Math", rows[1].EntityName)
}
