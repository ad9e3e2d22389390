package models

import "time"

// Student belongs to exactly one group within a school.
type Student struct {
	ID        string    `db:"id" json:"id"`
	SchoolID  string    `db:"school_id" json:"school_id"`
	GroupID   string    `db:"group_id" json:"group_id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Group is a class section of students sharing a level.
type Group struct {
	ID       string `db:"id" json:"id"`
	SchoolID string `db:"school_id" json:"school_id"`
	Name     string `db:"name" json:"name"`
	Level    string `db:"level" json:"level"`
}

// Subject is a recurring school subject taught to groups.
type Subject struct {
	ID               string  `db:"id" json:"id"`
	SchoolID         string  `db:"school_id" json:"school_id"`
	Name             string  `db:"name" json:"name"`
	Color            string  `db:"color" json:"color"`
	DefaultClassroom *string `db:"default_classroom" json:"default_classroom,omitempty"`
	TeacherID        *string `db:"teacher_id" json:"teacher_id,omitempty"`
}

// Course is a standalone paid course; scheduling treats it like a subject but
// it resolves against its own collection.
type Course struct {
	ID               string  `db:"id" json:"id"`
	SchoolID         string  `db:"school_id" json:"school_id"`
	Name             string  `db:"name" json:"name"`
	Color            string  `db:"color" json:"color"`
	DefaultClassroom *string `db:"default_classroom" json:"default_classroom,omitempty"`
	TeacherID        *string `db:"teacher_id" json:"teacher_id,omitempty"`
}

// Teacher holds the display identity of a staff member who teaches sessions.
type Teacher struct {
	ID       string `db:"id" json:"id"`
	SchoolID string `db:"school_id" json:"school_id"`
	FullName string `db:"full_name" json:"full_name"`
}

// SessionEntity is the resolved display metadata behind a session's
// subject-or-course reference, used by timetable and print views.
type SessionEntity struct {
	Name        string
	Color       string
	TeacherName string
}
