package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zianad/idarati-api/internal/models"
	"github.com/zianad/idarati-api/internal/service"
	"github.com/zianad/idarati-api/internal/timegrid"
	"github.com/zianad/idarati-api/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memorySnapshots struct {
	stored map[string][]models.Session
}

func (m *memorySnapshots) Load(_ context.Context, schoolID string) ([]models.Session, error) {
	return append([]models.Session(nil), m.stored[schoolID]...), nil
}

func (m *memorySnapshots) Replace(_ context.Context, schoolID string, sessions []models.Session) error {
	m.stored[schoolID] = append([]models.Session(nil), sessions...)
	return nil
}

type memoryRoster struct{}

func (memoryRoster) FindGroup(_ context.Context, _, id string) (*models.Group, error) {
	if id == "g1" {
		return &models.Group{ID: "g1", Name: "Grade 1A"}, nil
	}
	return nil, sql.ErrNoRows
}

func (memoryRoster) FindSubject(_ context.Context, _, id string) (*models.Subject, error) {
	if id == "sub-math" {
		return &models.Subject{ID: "sub-math", Name: "Math"}, nil
	}
	return nil, sql.ErrNoRows
}

func (memoryRoster) FindCourse(_ context.Context, _, _ string) (*models.Course, error) {
	return nil, sql.ErrNoRows
}

func (memoryRoster) ResolveEntity(_ context.Context, _ string, ref models.SessionRef) (*models.SessionEntity, error) {
	if ref.Kind == models.SessionRefSubject && ref.ID == "sub-math" {
		return &models.SessionEntity{Name: "Math", Color: "#3b82f6"}, nil
	}
	return nil, nil
}

func newScheduleRouter() *gin.Engine {
	svc := service.NewScheduleService(&memorySnapshots{stored: map[string][]models.Session{}}, memoryRoster{}, timegrid.Default(), nil, nil)
	h := NewScheduleHandler(svc)

	router := gin.New()
	school := router.Group("/schools/:schoolId")
	school.GET("/sessions", h.List)
	school.POST("/sessions", h.Create)
	school.PUT("/sessions/:id", h.Update)
	school.DELETE("/sessions/:id", h.Delete)
	school.POST("/sessions/:id/move", h.Move)
	school.POST("/sessions/:id/duplicate", h.Duplicate)
	school.POST("/sessions/save", h.Save)
	school.GET("/sessions/:id/conflict-check", h.CheckConflict)
	school.GET("/timetable", h.Timetable)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

const sessionBody = `{"groupId":"g1","subjectId":"sub-math","day":"MONDAY","start":"09:00","duration":60,"classroom":"A1"}`

func TestScheduleHandlerCreateAndList(t *testing.T) {
	router := newScheduleRouter()

	rec := doJSON(t, router, http.MethodPost, "/schools/school-1/sessions", sessionBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	envelope := decodeEnvelope(t, rec)
	require.Nil(t, envelope.Error)

	rec = doJSON(t, router, http.MethodGet, "/schools/school-1/sessions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"dirty":true`)
	assert.Contains(t, rec.Body.String(), `"start_clock":"09:00"`)
}

func TestScheduleHandlerCreateConflict(t *testing.T) {
	router := newScheduleRouter()

	rec := doJSON(t, router, http.MethodPost, "/schools/school-1/sessions", sessionBody)
	require.Equal(t, http.StatusCreated, rec.Code)

	overlapping := `{"groupId":"g1","subjectId":"sub-math","day":"MONDAY","start":"09:30","duration":60,"classroom":"B2"}`
	rec = doJSON(t, router, http.MethodPost, "/schools/school-1/sessions", overlapping)
	require.Equal(t, http.StatusConflict, rec.Code)
	envelope := decodeEnvelope(t, rec)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "CONFLICT", envelope.Error.Code)
}

func TestScheduleHandlerCreateValidation(t *testing.T) {
	router := newScheduleRouter()

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"unknown group", `{"groupId":"missing","subjectId":"sub-math","day":"MONDAY","start":"09:00","duration":60,"classroom":"A1"}`},
		{"bad duration", `{"groupId":"g1","subjectId":"sub-math","day":"MONDAY","start":"09:00","duration":55,"classroom":"A1"}`},
		{"both refs", `{"groupId":"g1","subjectId":"sub-math","courseId":"c1","day":"MONDAY","start":"09:00","duration":60,"classroom":"A1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/schools/school-1/sessions", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestScheduleHandlerMoveAndConflictCheck(t *testing.T) {
	router := newScheduleRouter()

	rec := doJSON(t, router, http.MethodPost, "/schools/school-1/sessions", sessionBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		Data models.Session `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doJSON(t, router, http.MethodGet, "/schools/school-1/sessions/"+created.Data.ID+"/conflict-check?day=TUESDAY&start=10:00", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"conflict":false`)

	rec = doJSON(t, router, http.MethodPost, "/schools/school-1/sessions/"+created.Data.ID+"/move", `{"day":"TUESDAY","start":"10:00"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"TUESDAY"`)

	rec = doJSON(t, router, http.MethodPost, "/schools/school-1/sessions/missing/move", `{"day":"TUESDAY","start":"10:00"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScheduleHandlerSaveAndTimetable(t *testing.T) {
	router := newScheduleRouter()

	rec := doJSON(t, router, http.MethodPost, "/schools/school-1/sessions", sessionBody)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/schools/school-1/sessions/save", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/schools/school-1/sessions", "")
	assert.Contains(t, rec.Body.String(), `"dirty":false`)

	rec = doJSON(t, router, http.MethodGet, "/schools/school-1/timetable", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"entity_name":"Math"`)
	assert.Contains(t, rec.Body.String(), `"width_pct":100`)
}
