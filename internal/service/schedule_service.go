package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zianad/idarati-api/internal/dto"
	"github.com/zianad/idarati-api/internal/models"
	"github.com/zianad/idarati-api/internal/schedule"
	"github.com/zianad/idarati-api/internal/timegrid"
	appErrors "github.com/zianad/idarati-api/pkg/errors"
)

type sessionSnapshotStore interface {
	Load(ctx context.Context, schoolID string) ([]models.Session, error)
	Replace(ctx context.Context, schoolID string, sessions []models.Session) error
}

type scheduleMetricsRecorder interface {
	RecordConflict(axis string)
	RecordSave(success bool)
}

type scheduleRosterReader interface {
	FindGroup(ctx context.Context, schoolID, id string) (*models.Group, error)
	FindSubject(ctx context.Context, schoolID, id string) (*models.Subject, error)
	FindCourse(ctx context.Context, schoolID, id string) (*models.Course, error)
	ResolveEntity(ctx context.Context, schoolID string, ref models.SessionRef) (*models.SessionEntity, error)
}

// ScheduleService owns each school's weekly session collection. Every mutation
// runs to completion under the tenant's lock (one logical writer per school);
// reads hand out copies so callers never alias internal state.
type ScheduleService struct {
	snapshots sessionSnapshotStore
	roster    scheduleRosterReader
	detector  schedule.Detector
	grid      *timegrid.Grid
	validator *validator.Validate
	logger    *zap.Logger
	metrics   scheduleMetricsRecorder

	mu      sync.Mutex
	tenants map[string]*tenantSchedule
}

// tenantSchedule is one school's in-memory working copy. dirty flips on every
// local mutation and clears only after a successful save; a failed save keeps
// both the state and the flag so the caller can retry.
type tenantSchedule struct {
	mu       sync.Mutex
	sessions []models.Session
	dirty    bool
	loaded   bool
}

// NewScheduleService wires the schedule core.
func NewScheduleService(snapshots sessionSnapshotStore, roster scheduleRosterReader, grid *timegrid.Grid, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if grid == nil {
		grid = timegrid.Default()
	}
	return &ScheduleService{
		snapshots: snapshots,
		roster:    roster,
		grid:      grid,
		validator: validate,
		logger:    logger,
		tenants:   make(map[string]*tenantSchedule),
	}
}

// WithMetrics attaches an optional conflict/save recorder.
func (s *ScheduleService) WithMetrics(metrics scheduleMetricsRecorder) *ScheduleService {
	s.metrics = metrics
	return s
}

// List returns the school's sessions plus the unsaved-changes flag.
func (s *ScheduleService) List(ctx context.Context, schoolID string) (*dto.SessionListResponse, error) {
	tenant, err := s.tenant(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	tenant.mu.Lock()
	defer tenant.mu.Unlock()

	views := make([]dto.SessionView, len(tenant.sessions))
	for i, session := range tenant.sessions {
		views[i] = s.view(session)
	}
	return &dto.SessionListResponse{Sessions: views, Dirty: tenant.dirty}, nil
}

// Find returns one session by id.
func (s *ScheduleService) Find(ctx context.Context, schoolID, id string) (*models.Session, error) {
	tenant, err := s.tenant(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	tenant.mu.Lock()
	defer tenant.mu.Unlock()

	idx := findSession(tenant.sessions, id)
	if idx < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
	}
	session := tenant.sessions[idx]
	return &session, nil
}

// Add validates and appends a new session, assigning a fresh identity.
// Conflicting placements are rejected before any state changes.
func (s *ScheduleService) Add(ctx context.Context, schoolID string, req dto.CreateSessionRequest) (*dto.SessionView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	candidate, err := s.buildSession(ctx, schoolID, req.GroupID, req.SubjectID, req.CourseID, req.Day, req.Start, req.Duration, req.Classroom)
	if err != nil {
		return nil, err
	}

	tenant, err := s.tenant(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	tenant.mu.Lock()
	defer tenant.mu.Unlock()

	working := append(copySessions(tenant.sessions), *candidate)
	if conflict := s.detector.Check(candidate.ID, candidate.Day, candidate.StartMinutes, working); conflict != nil {
		return nil, s.conflictError(conflict)
	}
	tenant.sessions = working
	tenant.dirty = true

	view := s.view(*candidate)
	return &view, nil
}

// AddWithOccurrences creates the initial sessions bound to a new subject or
// course in one logical operation. The whole batch is rejected when any
// occurrence conflicts, including with its siblings.
func (s *ScheduleService) AddWithOccurrences(ctx context.Context, schoolID string, req dto.CreateWithOccurrencesRequest) ([]dto.SessionView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid occurrences payload")
	}

	tenant, err := s.tenant(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	tenant.mu.Lock()
	defer tenant.mu.Unlock()

	working := copySessions(tenant.sessions)
	created := make([]dto.SessionView, 0, len(req.Occurrences))
	for _, occ := range req.Occurrences {
		candidate, err := s.buildSession(ctx, schoolID, occ.GroupID, req.SubjectID, req.CourseID, occ.Day, occ.Start, occ.Duration, occ.Classroom)
		if err != nil {
			return nil, err
		}
		working = append(working, *candidate)
		if conflict := s.detector.Check(candidate.ID, candidate.Day, candidate.StartMinutes, working); conflict != nil {
			return nil, s.conflictError(conflict)
		}
		created = append(created, s.view(*candidate))
	}
	tenant.sessions = working
	tenant.dirty = true
	return created, nil
}

// Update replaces a session's fields. Switching the subject/course variant
// swaps the tagged reference, so the previous one can never go stale.
func (s *ScheduleService) Update(ctx context.Context, schoolID, id string, req dto.UpdateSessionRequest) (*dto.SessionView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	replacement, err := s.buildSession(ctx, schoolID, req.GroupID, req.SubjectID, req.CourseID, req.Day, req.Start, req.Duration, req.Classroom)
	if err != nil {
		return nil, err
	}

	tenant, err := s.tenant(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	tenant.mu.Lock()
	defer tenant.mu.Unlock()

	idx := findSession(tenant.sessions, id)
	if idx < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
	}
	replacement.ID = id

	working := copySessions(tenant.sessions)
	working[idx] = *replacement
	if conflict := s.detector.Check(id, replacement.Day, replacement.StartMinutes, working); conflict != nil {
		return nil, s.conflictError(conflict)
	}
	tenant.sessions = working
	tenant.dirty = true

	view := s.view(*replacement)
	return &view, nil
}

// Move relocates a session after the conflict detector approves the target
// placement. A rejected move leaves the schedule untouched.
func (s *ScheduleService) Move(ctx context.Context, schoolID, id string, req dto.MoveSessionRequest) (*dto.SessionView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid move payload")
	}
	day, start, err := s.parsePlacement(req.Day, req.Start)
	if err != nil {
		return nil, err
	}

	tenant, err := s.tenant(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	tenant.mu.Lock()
	defer tenant.mu.Unlock()

	idx := findSession(tenant.sessions, id)
	if idx < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
	}
	if !s.grid.InBounds(start, tenant.sessions[idx].Duration) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "placement falls outside the school day")
	}
	if conflict := s.detector.Check(id, day, start, tenant.sessions); conflict != nil {
		return nil, s.conflictError(conflict)
	}

	tenant.sessions[idx].Day = day
	tenant.sessions[idx].StartMinutes = start
	tenant.dirty = true

	view := s.view(tenant.sessions[idx])
	return &view, nil
}

// Duplicate clones a session under a new identity. The clone lands on the
// exact same slot and is deliberately not conflict-checked: repositioning the
// copy is the caller's next step.
func (s *ScheduleService) Duplicate(ctx context.Context, schoolID, id string) (*dto.SessionView, error) {
	tenant, err := s.tenant(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	tenant.mu.Lock()
	defer tenant.mu.Unlock()

	idx := findSession(tenant.sessions, id)
	if idx < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
	}
	clone := tenant.sessions[idx]
	clone.ID = uuid.NewString()
	tenant.sessions = append(copySessions(tenant.sessions), clone)
	tenant.dirty = true

	view := s.view(clone)
	return &view, nil
}

// Remove deletes a session. Attendance history referencing the id is kept.
func (s *ScheduleService) Remove(ctx context.Context, schoolID, id string) error {
	tenant, err := s.tenant(ctx, schoolID)
	if err != nil {
		return err
	}
	tenant.mu.Lock()
	defer tenant.mu.Unlock()

	idx := findSession(tenant.sessions, id)
	if idx < 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "session not found")
	}
	tenant.sessions = append(copySessions(tenant.sessions[:idx]), tenant.sessions[idx+1:]...)
	tenant.dirty = true
	return nil
}

// Save persists the whole session list. On failure the in-memory state and
// the dirty flag survive so the caller can retry the save; there is no
// rollback. Last writer wins across callers.
func (s *ScheduleService) Save(ctx context.Context, schoolID string) error {
	tenant, err := s.tenant(ctx, schoolID)
	if err != nil {
		return err
	}
	tenant.mu.Lock()
	defer tenant.mu.Unlock()

	if err := s.snapshots.Replace(ctx, schoolID, tenant.sessions); err != nil {
		s.logger.Warn("schedule snapshot save failed", zap.String("school_id", schoolID), zap.Error(err))
		if s.metrics != nil {
			s.metrics.RecordSave(false)
		}
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to save schedule, changes kept in memory")
	}
	tenant.dirty = false
	if s.metrics != nil {
		s.metrics.RecordSave(true)
	}
	return nil
}

// CheckPlacement previews whether moving a session to (day, start) would be
// legal, without mutating anything. Used during drag interactions.
func (s *ScheduleService) CheckPlacement(ctx context.Context, schoolID, id, dayRaw, startRaw string) (*dto.ConflictCheckResponse, error) {
	day, start, err := s.parsePlacement(dayRaw, startRaw)
	if err != nil {
		return nil, err
	}

	tenant, err := s.tenant(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	tenant.mu.Lock()
	defer tenant.mu.Unlock()

	if findSession(tenant.sessions, id) < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
	}
	conflict := s.detector.Check(id, day, start, tenant.sessions)
	if conflict == nil {
		return &dto.ConflictCheckResponse{Conflict: false}, nil
	}
	return &dto.ConflictCheckResponse{
		Conflict:      true,
		Axis:          string(conflict.Axis),
		WithSessionID: conflict.With.ID,
	}, nil
}

// Timetable computes the weekly render model: per-day overlap columns plus
// resolved display metadata. groupID optionally restricts the view to one
// class section.
func (s *ScheduleService) Timetable(ctx context.Context, schoolID, groupID string) (*dto.TimetableResponse, error) {
	tenant, err := s.tenant(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	tenant.mu.Lock()
	sessions := copySessions(tenant.sessions)
	dirty := tenant.dirty
	tenant.mu.Unlock()

	if groupID != "" {
		filtered := sessions[:0]
		for _, session := range sessions {
			if session.GroupID == groupID {
				filtered = append(filtered, session)
			}
		}
		sessions = filtered
	}

	byID := make(map[string]models.Session, len(sessions))
	for _, session := range sessions {
		byID[session.ID] = session
	}
	entities := map[models.SessionRef]*models.SessionEntity{}

	layouts := schedule.Layout(sessions, s.grid.PxPerMinute())
	days := make([]dto.TimetableDay, len(layouts))
	for i, layout := range layouts {
		cells := make([]dto.TimetableCell, len(layout.Sessions))
		for j, geometry := range layout.Sessions {
			session := byID[geometry.SessionID]
			cell := dto.TimetableCell{Session: s.view(session), Geometry: geometry}
			entity, err := s.entity(ctx, schoolID, session.Ref, entities)
			if err != nil {
				return nil, err
			}
			if entity != nil {
				cell.EntityName = entity.Name
				cell.EntityColor = entity.Color
				cell.TeacherName = entity.TeacherName
			}
			cells[j] = cell
		}
		days[i] = dto.TimetableDay{Day: layout.Day, Cells: cells}
	}
	return &dto.TimetableResponse{Days: days, Dirty: dirty}, nil
}

// PrintableRows flattens the schedule into day-sorted, time-sorted rows with
// resolved entity, teacher and group names for print/export rendering.
func (s *ScheduleService) PrintableRows(ctx context.Context, schoolID string) ([]dto.PrintRow, error) {
	tenant, err := s.tenant(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	tenant.mu.Lock()
	sessions := copySessions(tenant.sessions)
	tenant.mu.Unlock()

	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].Day != sessions[j].Day {
			return sessions[i].Day.Order() < sessions[j].Day.Order()
		}
		if sessions[i].StartMinutes != sessions[j].StartMinutes {
			return sessions[i].StartMinutes < sessions[j].StartMinutes
		}
		return sessions[i].ID < sessions[j].ID
	})

	entities := map[models.SessionRef]*models.SessionEntity{}
	groups := map[string]string{}
	rows := make([]dto.PrintRow, len(sessions))
	for i, session := range sessions {
		start, end := session.Interval()
		row := dto.PrintRow{
			Day:        session.Day,
			StartClock: s.grid.FromMinutes(start),
			EndClock:   s.grid.FromMinutes(end),
			Classroom:  session.Classroom,
		}
		entity, err := s.entity(ctx, schoolID, session.Ref, entities)
		if err != nil {
			return nil, err
		}
		if entity != nil {
			row.EntityName = entity.Name
			row.Teacher = entity.TeacherName
		}
		if name, ok := groups[session.GroupID]; ok {
			row.GroupName = name
		} else {
			group, err := s.roster.FindGroup(ctx, schoolID, session.GroupID)
			if err != nil {
				if !errors.Is(err, sql.ErrNoRows) {
					return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve group")
				}
				groups[session.GroupID] = ""
			} else {
				groups[session.GroupID] = group.Name
				row.GroupName = group.Name
			}
		}
		rows[i] = row
	}
	return rows, nil
}

// --- internals ---

// tenant returns the school's working copy, loading the stored snapshot on
// first access.
func (s *ScheduleService) tenant(ctx context.Context, schoolID string) (*tenantSchedule, error) {
	if schoolID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "school id is required")
	}
	s.mu.Lock()
	tenant, ok := s.tenants[schoolID]
	if !ok {
		tenant = &tenantSchedule{}
		s.tenants[schoolID] = tenant
	}
	s.mu.Unlock()

	tenant.mu.Lock()
	defer tenant.mu.Unlock()
	if !tenant.loaded {
		sessions, err := s.snapshots.Load(ctx, schoolID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load schedule")
		}
		tenant.sessions = sessions
		tenant.loaded = true
	}
	return tenant, nil
}

func (s *ScheduleService) buildSession(ctx context.Context, schoolID, groupID, subjectID, courseID, dayRaw, startRaw string, duration int, classroom string) (*models.Session, error) {
	ref, err := buildRef(subjectID, courseID)
	if err != nil {
		return nil, err
	}
	day, start, err := s.parsePlacement(dayRaw, startRaw)
	if err != nil {
		return nil, err
	}
	if !timegrid.ValidDuration(duration) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duration %d is not an allowed session length", duration))
	}
	if !s.grid.InBounds(start, duration) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "placement falls outside the school day")
	}
	if strings.TrimSpace(classroom) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "classroom is required")
	}

	if _, err := s.roster.FindGroup(ctx, schoolID, groupID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown group")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify group")
	}
	switch ref.Kind {
	case models.SessionRefSubject:
		if _, err := s.roster.FindSubject(ctx, schoolID, ref.ID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "unknown subject")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify subject")
		}
	case models.SessionRefCourse:
		if _, err := s.roster.FindCourse(ctx, schoolID, ref.ID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "unknown course")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify course")
		}
	}

	return &models.Session{
		ID:           uuid.NewString(),
		GroupID:      groupID,
		Ref:          ref,
		Day:          day,
		StartMinutes: start,
		Duration:     duration,
		Classroom:    strings.TrimSpace(classroom),
	}, nil
}

func (s *ScheduleService) parsePlacement(dayRaw, startRaw string) (models.Day, int, error) {
	day := models.Day(strings.ToUpper(strings.TrimSpace(dayRaw)))
	if !day.Valid() {
		return "", 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown day %q", dayRaw))
	}
	start, err := s.grid.ToMinutes(startRaw)
	if err != nil {
		return "", 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid start time")
	}
	return day, start, nil
}

func (s *ScheduleService) view(session models.Session) dto.SessionView {
	start, end := session.Interval()
	return dto.SessionView{
		Session:    session,
		StartClock: s.grid.FromMinutes(start),
		EndClock:   s.grid.FromMinutes(end),
	}
}

func (s *ScheduleService) entity(ctx context.Context, schoolID string, ref models.SessionRef, cache map[models.SessionRef]*models.SessionEntity) (*models.SessionEntity, error) {
	if entity, ok := cache[ref]; ok {
		return entity, nil
	}
	entity, err := s.roster.ResolveEntity(ctx, schoolID, ref)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve session entity")
	}
	cache[ref] = entity
	return entity, nil
}

func buildRef(subjectID, courseID string) (models.SessionRef, error) {
	switch {
	case subjectID != "" && courseID != "":
		return models.SessionRef{}, appErrors.Clone(appErrors.ErrValidation, "session must reference either a subject or a course, not both")
	case subjectID != "":
		return models.SubjectRef(subjectID), nil
	case courseID != "":
		return models.CourseRef(courseID), nil
	default:
		return models.SessionRef{}, appErrors.Clone(appErrors.ErrValidation, "session must reference a subject or a course")
	}
}

func (s *ScheduleService) conflictError(conflict *schedule.Conflict) error {
	if s.metrics != nil {
		s.metrics.RecordConflict(string(conflict.Axis))
	}
	return appErrors.Clone(appErrors.ErrConflict,
		fmt.Sprintf("placement overlaps session %s on the %s axis", conflict.With.ID, strings.ToLower(string(conflict.Axis))))
}

func findSession(sessions []models.Session, id string) int {
	for i := range sessions {
		if sessions[i].ID == id {
			return i
		}
	}
	return -1
}

func copySessions(sessions []models.Session) []models.Session {
	out := make([]models.Session, len(sessions))
	copy(out, sessions)
	return out
}
