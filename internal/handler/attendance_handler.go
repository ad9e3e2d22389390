package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zianad/idarati-api/internal/dto"
	"github.com/zianad/idarati-api/internal/models"
	"github.com/zianad/idarati-api/internal/service"
	appErrors "github.com/zianad/idarati-api/pkg/errors"
	"github.com/zianad/idarati-api/pkg/response"
)

// AttendanceHandler manages attendance endpoints.
type AttendanceHandler struct {
	service *service.AttendanceService
}

// NewAttendanceHandler constructs handler.
func NewAttendanceHandler(svc *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: svc}
}

// Record godoc
// @Summary Record a batch of attendance marks
// @Tags Attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param schoolId path string true "School ID"
// @Param payload body dto.RecordAttendanceRequest true "Marks"
// @Success 200 {object} response.Envelope
// @Router /schools/{schoolId}/attendance [post]
func (h *AttendanceHandler) Record(c *gin.Context) {
	var req dto.RecordAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	saved, err := h.service.Record(c.Request.Context(), c.Param("schoolId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, saved)
}

// List godoc
// @Summary List attendance records
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param schoolId path string true "School ID"
// @Param sessionId query string false "Filter by session"
// @Param studentId query string false "Filter by student"
// @Param date query string false "Filter by date (YYYY-MM-DD)"
// @Param status query string false "Filter by status"
// @Success 200 {object} response.Envelope
// @Router /schools/{schoolId}/attendance [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	filter := models.AttendanceFilter{
		SessionID: c.Query("sessionId"),
		StudentID: c.Query("studentId"),
	}
	if raw := c.Query("date"); raw != "" {
		date, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid date, expected YYYY-MM-DD"))
			return
		}
		filter.Date = &date
	}
	if raw := c.Query("status"); raw != "" {
		status := models.AttendanceStatus(raw)
		if !status.Valid() {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown attendance status"))
			return
		}
		filter.Status = &status
	}
	records, err := h.service.List(c.Request.Context(), c.Param("schoolId"), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records)
}

// Eligible godoc
// @Summary Students attendance can be taken for on a session
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param schoolId path string true "School ID"
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /schools/{schoolId}/sessions/{id}/attendance/eligible [get]
func (h *AttendanceHandler) Eligible(c *gin.Context) {
	students, err := h.service.Eligible(c.Request.Context(), c.Param("schoolId"), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students)
}

// Status godoc
// @Summary Whether attendance was already taken for a session on a date
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param schoolId path string true "School ID"
// @Param id path string true "Session ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /schools/{schoolId}/sessions/{id}/attendance/status [get]
func (h *AttendanceHandler) Status(c *gin.Context) {
	taken, err := h.service.RecordedOn(c.Request.Context(), c.Param("schoolId"), c.Param("id"), c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"recorded": taken})
}

// StudentHistory godoc
// @Summary One student's attendance history
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param schoolId path string true "School ID"
// @Param id path string true "Student ID"
// @Param from query string false "Range start (YYYY-MM-DD)"
// @Param to query string false "Range end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /schools/{schoolId}/students/{id}/attendance [get]
func (h *AttendanceHandler) StudentHistory(c *gin.Context) {
	records, err := h.service.StudentHistory(c.Request.Context(), c.Param("schoolId"), c.Param("id"), c.Query("from"), c.Query("to"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records)
}
