package dto

// AttendanceItem is one incoming attendance mark.
type AttendanceItem struct {
	StudentID string  `json:"studentId" validate:"required"`
	SessionID string  `json:"sessionId" validate:"required"`
	Date      string  `json:"date" validate:"required"`
	Status    string  `json:"status" validate:"required,attendance_status"`
	Notes     *string `json:"notes"`
}

// RecordAttendanceRequest upserts a batch of attendance marks. Re-submitting
// the same (student, session, date) triple overwrites its status instead of
// duplicating the row.
type RecordAttendanceRequest struct {
	Records []AttendanceItem `json:"records" validate:"required,min=1,dive"`
}
