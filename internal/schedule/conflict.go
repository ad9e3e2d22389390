// Package schedule holds the pure timetable algorithms: placement conflict
// detection and the overlap column layout used for rendering.
package schedule

import (
	"strings"

	"github.com/zianad/idarati-api/internal/models"
)

// Axis identifies the resource dimension that is double-booked.
type Axis string

const (
	AxisGroup     Axis = "GROUP"
	AxisClassroom Axis = "CLASSROOM"
	AxisTeacher   Axis = "TEACHER"
)

// Conflict describes why a placement is illegal.
type Conflict struct {
	With models.Session `json:"with"`
	Axis Axis           `json:"axis"`
}

// Detector decides whether a candidate placement collides with existing
// sessions. It is a pure predicate over the session set it is handed.
type Detector struct {
	// TeacherAxis additionally treats a shared teacher as a double booking.
	// Off by default: two different groups in two different rooms at the same
	// time are legal even with the same teacher on record.
	TeacherAxis bool

	// TeacherOf resolves the teacher behind a session's subject/course
	// reference. Only consulted when TeacherAxis is set.
	TeacherOf func(models.SessionRef) string
}

// Check evaluates moving the session identified by candidateID to
// (day, startMinutes). The candidate keeps its current duration, group and
// classroom; its own existing entry is never compared against itself. A nil
// result means the placement is legal.
func (d Detector) Check(candidateID string, day models.Day, startMinutes int, sessions []models.Session) *Conflict {
	var candidate *models.Session
	for i := range sessions {
		if sessions[i].ID == candidateID {
			candidate = &sessions[i]
			break
		}
	}
	if candidate == nil {
		return nil
	}

	newStart := startMinutes
	newEnd := startMinutes + candidate.Duration
	candidateRoom := normalizeRoom(candidate.Classroom)

	for i := range sessions {
		other := sessions[i]
		if other.ID == candidateID || other.Day != day {
			continue
		}
		otherStart, otherEnd := other.Interval()
		if newStart >= otherEnd || newEnd <= otherStart {
			continue
		}
		if other.GroupID == candidate.GroupID {
			return &Conflict{With: other, Axis: AxisGroup}
		}
		if candidateRoom != "" && normalizeRoom(other.Classroom) == candidateRoom {
			return &Conflict{With: other, Axis: AxisClassroom}
		}
		if d.TeacherAxis && d.TeacherOf != nil {
			if teacher := d.TeacherOf(candidate.Ref); teacher != "" && teacher == d.TeacherOf(other.Ref) {
				return &Conflict{With: other, Axis: AxisTeacher}
			}
		}
	}
	return nil
}

// HasConflict is the boolean form of Check.
func (d Detector) HasConflict(candidateID string, day models.Day, startMinutes int, sessions []models.Session) bool {
	return d.Check(candidateID, day, startMinutes, sessions) != nil
}

func normalizeRoom(room string) string {
	return strings.ToLower(strings.TrimSpace(room))
}
