package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zianad/idarati-api/internal/dto"
	"github.com/zianad/idarati-api/internal/service"
	appErrors "github.com/zianad/idarati-api/pkg/errors"
	"github.com/zianad/idarati-api/pkg/response"
)

// ScheduleHandler manages the weekly schedule endpoints of one school.
type ScheduleHandler struct {
	service *service.ScheduleService
}

// NewScheduleHandler constructs handler.
func NewScheduleHandler(svc *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

// List godoc
// @Summary List sessions
// @Tags Schedule
// @Produce json
// @Security BearerAuth
// @Param schoolId path string true "School ID"
// @Success 200 {object} response.Envelope
// @Router /schools/{schoolId}/sessions [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	res, err := h.service.List(c.Request.Context(), c.Param("schoolId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// Create godoc
// @Summary Add a session
// @Tags Schedule
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param schoolId path string true "School ID"
// @Param payload body dto.CreateSessionRequest true "Session"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schools/{schoolId}/sessions [post]
func (h *ScheduleHandler) Create(c *gin.Context) {
	var req dto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	created, err := h.service.Add(c.Request.Context(), c.Param("schoolId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// CreateWithOccurrences godoc
// @Summary Add the initial sessions of a new subject or course
// @Tags Schedule
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param schoolId path string true "School ID"
// @Param payload body dto.CreateWithOccurrencesRequest true "Occurrences"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schools/{schoolId}/sessions/batch [post]
func (h *ScheduleHandler) CreateWithOccurrences(c *gin.Context) {
	var req dto.CreateWithOccurrencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	created, err := h.service.AddWithOccurrences(c.Request.Context(), c.Param("schoolId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// Update godoc
// @Summary Update a session
// @Tags Schedule
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param schoolId path string true "School ID"
// @Param id path string true "Session ID"
// @Param payload body dto.UpdateSessionRequest true "Session"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schools/{schoolId}/sessions/{id} [put]
func (h *ScheduleHandler) Update(c *gin.Context) {
	var req dto.UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	updated, err := h.service.Update(c.Request.Context(), c.Param("schoolId"), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updated)
}

// Move godoc
// @Summary Move a session to another slot
// @Tags Schedule
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param schoolId path string true "School ID"
// @Param id path string true "Session ID"
// @Param payload body dto.MoveSessionRequest true "Target slot"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schools/{schoolId}/sessions/{id}/move [post]
func (h *ScheduleHandler) Move(c *gin.Context) {
	var req dto.MoveSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	moved, err := h.service.Move(c.Request.Context(), c.Param("schoolId"), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, moved)
}

// Duplicate godoc
// @Summary Duplicate a session onto its own slot
// @Tags Schedule
// @Produce json
// @Security BearerAuth
// @Param schoolId path string true "School ID"
// @Param id path string true "Session ID"
// @Success 201 {object} response.Envelope
// @Router /schools/{schoolId}/sessions/{id}/duplicate [post]
func (h *ScheduleHandler) Duplicate(c *gin.Context) {
	clone, err := h.service.Duplicate(c.Request.Context(), c.Param("schoolId"), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, clone)
}

// Delete godoc
// @Summary Remove a session
// @Tags Schedule
// @Security BearerAuth
// @Param schoolId path string true "School ID"
// @Param id path string true "Session ID"
// @Success 204
// @Router /schools/{schoolId}/sessions/{id} [delete]
func (h *ScheduleHandler) Delete(c *gin.Context) {
	if err := h.service.Remove(c.Request.Context(), c.Param("schoolId"), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Save godoc
// @Summary Persist the in-memory schedule
// @Tags Schedule
// @Produce json
// @Security BearerAuth
// @Param schoolId path string true "School ID"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /schools/{schoolId}/sessions/save [post]
func (h *ScheduleHandler) Save(c *gin.Context) {
	if err := h.service.Save(c.Request.Context(), c.Param("schoolId")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"saved": true})
}

// CheckConflict godoc
// @Summary Preview a placement without committing it
// @Tags Schedule
// @Produce json
// @Security BearerAuth
// @Param schoolId path string true "School ID"
// @Param id path string true "Session ID"
// @Param day query string true "Target day"
// @Param start query string true "Target start (HH:MM)"
// @Success 200 {object} response.Envelope
// @Router /schools/{schoolId}/sessions/{id}/conflict-check [get]
func (h *ScheduleHandler) CheckConflict(c *gin.Context) {
	res, err := h.service.CheckPlacement(c.Request.Context(), c.Param("schoolId"), c.Param("id"), c.Query("day"), c.Query("start"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// Timetable godoc
// @Summary Weekly timetable render model
// @Tags Schedule
// @Produce json
// @Security BearerAuth
// @Param schoolId path string true "School ID"
// @Param groupId query string false "Restrict to one group"
// @Success 200 {object} response.Envelope
// @Router /schools/{schoolId}/timetable [get]
func (h *ScheduleHandler) Timetable(c *gin.Context) {
	res, err := h.service.Timetable(c.Request.Context(), c.Param("schoolId"), c.Query("groupId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// PrintableTimetable godoc
// @Summary Flattened printable timetable rows
// @Tags Schedule
// @Produce json
// @Security BearerAuth
// @Param schoolId path string true "School ID"
// @Success 200 {object} response.Envelope
// @Router /schools/{schoolId}/timetable/print [get]
func (h *ScheduleHandler) PrintableTimetable(c *gin.Context) {
	rows, err := h.service.PrintableRows(c.Request.Context(), c.Param("schoolId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows)
}
