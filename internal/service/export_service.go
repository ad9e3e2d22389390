package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zianad/idarati-api/internal/dto"
	appErrors "github.com/zianad/idarati-api/pkg/errors"
	"github.com/zianad/idarati-api/pkg/export"
	"github.com/zianad/idarati-api/pkg/jobs"
	"github.com/zianad/idarati-api/pkg/storage"
)

// Export formats and lifecycle states.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"

	ExportStatusPending = "PENDING"
	ExportStatusReady   = "READY"
	ExportStatusFailed  = "FAILED"
)

var printableHeaders = []string{"Day", "Start", "End", "Subject/Course", "Teacher", "Group", "Classroom"}

type printableSource interface {
	PrintableRows(ctx context.Context, schoolID string) ([]dto.PrintRow, error)
}

type exportMetricsRecorder interface {
	RecordExport(format string)
}

type exportJob struct {
	ExportID string
	SchoolID string
	Format   string
}

type exportState struct {
	SchoolID    string
	Format      string
	Status      string
	DownloadURL string
	ExpiresAt   *time.Time
	Err         string
}

// ExportService renders the printable timetable to CSV or PDF, either
// synchronously or as a background job with a signed download link.
type ExportService struct {
	schedule printableSource
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	store    *storage.LocalStorage
	signer   *storage.SignedURLSigner
	logger   *zap.Logger
	metrics  exportMetricsRecorder

	queue *jobs.Queue[exportJob]

	mu     sync.RWMutex
	states map[string]*exportState
}

// ExportQueueConfig sizes the background rendering pool.
type ExportQueueConfig struct {
	Workers    int
	MaxRetries int
}

// NewExportService wires the export pipeline.
func NewExportService(schedule printableSource, store *storage.LocalStorage, signer *storage.SignedURLSigner, cfg ExportQueueConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ExportService{
		schedule: schedule,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		store:    store,
		signer:   signer,
		logger:   logger,
		states:   make(map[string]*exportState),
	}
	s.queue = jobs.NewQueue[exportJob]("timetable-export", s.process, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		Logger:     logger,
	})
	return s
}

// WithMetrics attaches an optional render counter. Only completed renders are
// counted, so queued jobs that fail never inflate the total.
func (s *ExportService) WithMetrics(metrics exportMetricsRecorder) *ExportService {
	s.metrics = metrics
	return s
}

// Start launches the background workers.
func (s *ExportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *ExportService) Stop() {
	s.queue.Stop()
}

// Render produces the export synchronously and returns the document bytes
// with their content type and a suggested filename.
func (s *ExportService) Render(ctx context.Context, schoolID, format string) ([]byte, string, string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	data, title, err := s.dataset(ctx, schoolID)
	if err != nil {
		return nil, "", "", err
	}
	switch format {
	case ExportFormatCSV:
		body, err := s.csv.Render(data)
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return body, "text/csv", exportFilename(schoolID, ExportFormatCSV), nil
	case ExportFormatPDF:
		body, err := s.pdf.Render(data, title)
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return body, "application/pdf", exportFilename(schoolID, ExportFormatPDF), nil
	default:
		return nil, "", "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

// Enqueue schedules a background export and returns its tracking id.
func (s *ExportService) Enqueue(_ context.Context, schoolID, format string) (*dto.ExportStatusResponse, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	exportID := uuid.NewString()
	s.mu.Lock()
	s.states[exportID] = &exportState{SchoolID: schoolID, Format: format, Status: ExportStatusPending}
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job[exportJob]{
		ID:      exportID,
		Payload: exportJob{ExportID: exportID, SchoolID: schoolID, Format: format},
	}); err != nil {
		s.setFailed(exportID, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue export")
	}
	return s.Status(schoolID, exportID)
}

// Status reports the lifecycle of a queued export. Exports belong to the
// school that queued them; other tenants get a not-found, never a hint that
// the id exists.
func (s *ExportService) Status(schoolID, exportID string) (*dto.ExportStatusResponse, error) {
	s.mu.RLock()
	state, ok := s.states[exportID]
	s.mu.RUnlock()
	if !ok || state.SchoolID != schoolID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export not found")
	}
	return &dto.ExportStatusResponse{
		ExportID:    exportID,
		Status:      state.Status,
		Format:      state.Format,
		DownloadURL: state.DownloadURL,
		ExpiresAt:   state.ExpiresAt,
		Error:       state.Err,
	}, nil
}

// Download validates a signed token and returns the stored document.
func (s *ExportService) Download(token string) ([]byte, string, error) {
	_, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}
	body, err := s.store.Read(relPath)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export file not found")
	}
	return body, relPath, nil
}

// CleanupExpired removes stored export files older than the signer TTL and
// forgets their tracking state.
func (s *ExportService) CleanupExpired(ttl time.Duration) {
	removed, err := s.store.CleanupOlderThan(ttl)
	if err != nil {
		s.logger.Warn("export cleanup failed", zap.Error(err))
		return
	}
	if len(removed) == 0 {
		return
	}
	s.mu.Lock()
	now := time.Now()
	for id, state := range s.states {
		if state.ExpiresAt != nil && now.After(*state.ExpiresAt) {
			delete(s.states, id)
		}
	}
	s.mu.Unlock()
	s.logger.Info("expired exports removed", zap.Int("count", len(removed)))
}

func (s *ExportService) process(ctx context.Context, job jobs.Job[exportJob]) error {
	body, _, filename, err := s.Render(ctx, job.Payload.SchoolID, job.Payload.Format)
	if err != nil {
		s.setFailed(job.Payload.ExportID, err)
		return err
	}
	stored := job.Payload.ExportID + "-" + filename
	if _, err := s.store.Save(stored, body); err != nil {
		s.setFailed(job.Payload.ExportID, err)
		return err
	}
	token, expiresAt, err := s.signer.Generate(job.Payload.ExportID, stored)
	if err != nil {
		s.setFailed(job.Payload.ExportID, err)
		return err
	}

	s.mu.Lock()
	if state, ok := s.states[job.Payload.ExportID]; ok {
		state.Status = ExportStatusReady
		state.DownloadURL = "/downloads/" + token
		state.ExpiresAt = &expiresAt
		state.Err = ""
	}
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.RecordExport(job.Payload.Format)
	}
	return nil
}

func (s *ExportService) setFailed(exportID string, err error) {
	s.mu.Lock()
	if state, ok := s.states[exportID]; ok {
		state.Status = ExportStatusFailed
		state.Err = err.Error()
	}
	s.mu.Unlock()
}

func (s *ExportService) dataset(ctx context.Context, schoolID string) (export.Dataset, string, error) {
	rows, err := s.schedule.PrintableRows(ctx, schoolID)
	if err != nil {
		return export.Dataset{}, "", err
	}
	data := export.Dataset{Headers: printableHeaders, Rows: make([]map[string]string, len(rows))}
	for i, row := range rows {
		data.Rows[i] = map[string]string{
			"Day":            string(row.Day),
			"Start":          row.StartClock,
			"End":            row.EndClock,
			"Subject/Course": row.EntityName,
			"Teacher":        row.Teacher,
			"Group":          row.GroupName,
			"Classroom":      row.Classroom,
		}
	}
	return data, "Weekly Timetable", nil
}

func exportFilename(schoolID, format string) string {
	return fmt.Sprintf("timetable-%s-%s.%s", schoolID, time.Now().UTC().Format("20060102"), format)
}
