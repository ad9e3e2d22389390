package dto

import (
	"github.com/zianad/idarati-api/internal/models"
	"github.com/zianad/idarati-api/internal/schedule"
)

// CreateSessionRequest adds one session to a school's weekly schedule.
// Exactly one of SubjectID/CourseID must be set; the service converts the
// pair into the tagged reference.
type CreateSessionRequest struct {
	GroupID   string `json:"groupId" validate:"required"`
	SubjectID string `json:"subjectId"`
	CourseID  string `json:"courseId"`
	Day       string `json:"day" validate:"required"`
	Start     string `json:"start" validate:"required"`
	Duration  int    `json:"duration" validate:"required"`
	Classroom string `json:"classroom" validate:"required"`
}

// SessionOccurrence is one placement created together with a new
// subject/course.
type SessionOccurrence struct {
	GroupID   string `json:"groupId" validate:"required"`
	Day       string `json:"day" validate:"required"`
	Start     string `json:"start" validate:"required"`
	Duration  int    `json:"duration" validate:"required"`
	Classroom string `json:"classroom" validate:"required"`
}

// CreateWithOccurrencesRequest creates the initial sessions bound to a
// freshly created subject or course in one logical operation.
type CreateWithOccurrencesRequest struct {
	SubjectID   string              `json:"subjectId"`
	CourseID    string              `json:"courseId"`
	Occurrences []SessionOccurrence `json:"occurrences" validate:"required,min=1,dive"`
}

// UpdateSessionRequest replaces a session's fields. Switching between
// subject and course clears the other reference.
type UpdateSessionRequest struct {
	GroupID   string `json:"groupId" validate:"required"`
	SubjectID string `json:"subjectId"`
	CourseID  string `json:"courseId"`
	Day       string `json:"day" validate:"required"`
	Start     string `json:"start" validate:"required"`
	Duration  int    `json:"duration" validate:"required"`
	Classroom string `json:"classroom" validate:"required"`
}

// MoveSessionRequest relocates a session to a new day/time.
type MoveSessionRequest struct {
	Day   string `json:"day" validate:"required"`
	Start string `json:"start" validate:"required"`
}

// SessionListResponse returns the schedule plus its unsaved-changes flag.
type SessionListResponse struct {
	Sessions []SessionView `json:"sessions"`
	Dirty    bool          `json:"dirty"`
}

// SessionView augments a stored session with its clock-form times.
type SessionView struct {
	models.Session
	StartClock string `json:"start_clock"`
	EndClock   string `json:"end_clock"`
}

// ConflictCheckResponse previews drag validity before a move commits.
type ConflictCheckResponse struct {
	Conflict      bool   `json:"conflict"`
	Axis          string `json:"axis,omitempty"`
	WithSessionID string `json:"with_session_id,omitempty"`
}

// TimetableCell couples a session with its computed render geometry and
// resolved display metadata.
type TimetableCell struct {
	Session     SessionView       `json:"session"`
	Geometry    schedule.Geometry `json:"geometry"`
	EntityName  string            `json:"entity_name,omitempty"`
	EntityColor string            `json:"entity_color,omitempty"`
	TeacherName string            `json:"teacher_name,omitempty"`
}

// TimetableDay is one rendered weekday.
type TimetableDay struct {
	Day   models.Day      `json:"day"`
	Cells []TimetableCell `json:"cells"`
}

// TimetableResponse is the full weekly render model.
type TimetableResponse struct {
	Days  []TimetableDay `json:"days"`
	Dirty bool           `json:"dirty"`
}

// PrintRow is one line of the flattened, day-sorted printable view.
type PrintRow struct {
	Day        models.Day `json:"day"`
	StartClock string     `json:"start_clock"`
	EndClock   string     `json:"end_clock"`
	EntityName string     `json:"entity_name"`
	Teacher    string     `json:"teacher"`
	GroupName  string     `json:"group_name"`
	Classroom  string     `json:"classroom"`
}
