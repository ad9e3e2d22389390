package models

// Day identifies a weekday in the recurring weekly grid.
type Day string

const (
	DayMonday    Day = "MONDAY"
	DayTuesday   Day = "TUESDAY"
	DayWednesday Day = "WEDNESDAY"
	DayThursday  Day = "THURSDAY"
	DayFriday    Day = "FRIDAY"
	DaySaturday  Day = "SATURDAY"
	DaySunday    Day = "SUNDAY"
)

var dayOrder = map[Day]int{
	DayMonday:    1,
	DayTuesday:   2,
	DayWednesday: 3,
	DayThursday:  4,
	DayFriday:    5,
	DaySaturday:  6,
	DaySunday:    7,
}

// Valid reports whether the day is one of the seven weekday tags.
func (d Day) Valid() bool {
	_, ok := dayOrder[d]
	return ok
}

// Order returns the 1-based weekday position, 0 for unknown days.
func (d Day) Order() int {
	return dayOrder[d]
}

// SessionRefKind discriminates the entity a session teaches.
type SessionRefKind string

const (
	SessionRefSubject SessionRefKind = "SUBJECT"
	SessionRefCourse  SessionRefKind = "COURSE"
)

// SessionRef is the tagged subject-or-course reference. Exactly one entity id
// is carried; the kind tells which collection it resolves against.
type SessionRef struct {
	Kind SessionRefKind `json:"kind"`
	ID   string         `json:"id"`
}

// SubjectRef builds a subject-backed reference.
func SubjectRef(id string) SessionRef {
	return SessionRef{Kind: SessionRefSubject, ID: id}
}

// CourseRef builds a course-backed reference.
func CourseRef(id string) SessionRef {
	return SessionRef{Kind: SessionRefCourse, ID: id}
}

// Valid reports whether the reference carries a known kind and a non-empty id.
func (r SessionRef) Valid() bool {
	if r.ID == "" {
		return false
	}
	return r.Kind == SessionRefSubject || r.Kind == SessionRefCourse
}

// Session is one recurring weekly class occurrence owned by a school's
// schedule. StartMinutes counts from the configured day start.
type Session struct {
	ID           string     `json:"id"`
	GroupID      string     `json:"group_id"`
	Ref          SessionRef `json:"ref"`
	Day          Day        `json:"day"`
	StartMinutes int        `json:"start_minutes"`
	Duration     int        `json:"duration"`
	Classroom    string     `json:"classroom"`
}

// Interval returns the half-open [start, end) occupied by the session.
func (s Session) Interval() (start, end int) {
	return s.StartMinutes, s.StartMinutes + s.Duration
}
