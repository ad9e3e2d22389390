package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zianad/idarati-api/internal/service"
	"github.com/zianad/idarati-api/pkg/response"
)

// ExportHandler manages timetable export endpoints.
type ExportHandler struct {
	service *service.ExportService
	metrics *service.MetricsService
}

// NewExportHandler constructs handler.
func NewExportHandler(svc *service.ExportService, metrics *service.MetricsService) *ExportHandler {
	return &ExportHandler{service: svc, metrics: metrics}
}

// Export godoc
// @Summary Render the timetable synchronously
// @Tags Exports
// @Produce text/csv,application/pdf
// @Security BearerAuth
// @Param schoolId path string true "School ID"
// @Param format query string true "csv or pdf"
// @Success 200 {file} byte
// @Router /schools/{schoolId}/timetable/export [get]
func (h *ExportHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", service.ExportFormatCSV)
	body, contentType, filename, err := h.service.Render(c.Request.Context(), c.Param("schoolId"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordExport(format)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, body)
}

// Enqueue godoc
// @Summary Queue a background timetable export
// @Tags Exports
// @Produce json
// @Security BearerAuth
// @Param schoolId path string true "School ID"
// @Param format query string true "csv or pdf"
// @Success 202 {object} response.Envelope
// @Router /schools/{schoolId}/timetable/export/async [post]
func (h *ExportHandler) Enqueue(c *gin.Context) {
	status, err := h.service.Enqueue(c.Request.Context(), c.Param("schoolId"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, status)
}

// Status godoc
// @Summary Background export status
// @Tags Exports
// @Produce json
// @Security BearerAuth
// @Param schoolId path string true "School ID"
// @Param id path string true "Export ID"
// @Success 200 {object} response.Envelope
// @Router /schools/{schoolId}/timetable/export/{id} [get]
func (h *ExportHandler) Status(c *gin.Context) {
	status, err := h.service.Status(c.Param("schoolId"), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status)
}

// Download godoc
// @Summary Download a finished export by signed token
// @Tags Exports
// @Produce application/octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} byte
// @Router /downloads/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	body, filename, err := h.service.Download(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/octet-stream", body)
}
