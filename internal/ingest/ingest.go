// Package ingest drives the upload pipeline: detect, classify, map rows
// into canonical records, persist. Each file runs to completion inside its
// own transaction and yields exactly one Outcome; a bad file never aborts
// the rest of the batch.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/yangkidd/socialdw/internal/classify"
	"github.com/yangkidd/socialdw/internal/sniff"
	"github.com/yangkidd/socialdw/internal/store"
)

// SourceTag is the provenance tag written on every metric point this
// pipeline produces.
const SourceTag = "csv_v3"

// Store is the persistence surface the pipeline needs. Implemented by
// the pgx-backed store; faked in tests.
type Store interface {
	Begin(ctx context.Context) (Batch, error)
	LastSuccessfulUpload(ctx context.Context, filename, platform string) (time.Time, bool, error)
	AppendUploadLog(ctx context.Context, e store.UploadLogEntry) error
}

// Batch is one file's transactional write scope.
type Batch interface {
	UpsertMetric(ctx context.Context, p store.MetricPoint) error
	UpsertContent(ctx context.Context, c store.ContentItem) error
	UpsertSnapshot(ctx context.Context, sn store.Snapshot) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context)
}

// File is one uploaded file: raw bytes plus the original filename.
type File struct {
	Name string
	Data []byte
}

// Status is the terminal state of one file's processing.
type Status string

const (
	StatusSaved   Status = "saved"
	StatusSkipped Status = "skipped"
	StatusWarning Status = "warning"
	StatusFailed  Status = "failed"
)

// Outcome reports how one file ended up. Every submitted file gets one.
type Outcome struct {
	Filename string            `json:"filename"`
	Status   Status            `json:"status"`
	FileType classify.FileType `json:"file_type"`
	Rows     int               `json:"rows"`
	Message  string            `json:"message,omitempty"`
}

// Service is the upload pipeline.
type Service struct {
	store Store
	log   *slog.Logger
	now   func() time.Time
}

func New(st Store, log *slog.Logger) *Service {
	return &Service{store: st, log: log, now: time.Now}
}

// ProcessBatch runs every file through the pipeline sequentially. Files
// share the platform label and force flag; outcomes are independent.
func (s *Service) ProcessBatch(ctx context.Context, files []File, platform string, force bool) []Outcome {
	batchID := uuid.NewString()
	s.log.Info("processing upload batch",
		"batch_id", batchID,
		"files", len(files),
		"platform", platform,
		"force", force,
	)

	outcomes := make([]Outcome, 0, len(files))
	for _, f := range files {
		o := s.processFile(ctx, f, platform, force)
		s.log.Info("file processed",
			"batch_id", batchID,
			"file", o.Filename,
			"status", string(o.Status),
			"type", string(o.FileType),
			"rows", o.Rows,
			"message", o.Message,
		)
		outcomes = append(outcomes, o)
	}
	return outcomes
}

func (s *Service) processFile(ctx context.Context, f File, platform string, force bool) Outcome {
	o := Outcome{Filename: f.Name}

	t, err := sniff.Detect(f.Data, f.Name)
	if err != nil {
		o.Status = StatusFailed
		o.Message = err.Error()
		s.appendLog(ctx, f.Name, platform, "ERROR - "+err.Error())
		return o
	}

	o.FileType = classify.Detect(t.Columns, f.Name)

	if !force {
		when, found, err := s.store.LastSuccessfulUpload(ctx, f.Name, platform)
		if err != nil {
			o.Status = StatusFailed
			o.Message = err.Error()
			return o
		}
		if found {
			o.Status = StatusSkipped
			o.Message = fmt.Sprintf("already uploaded on %s", when.Format("2006-01-02"))
			return o
		}
	}

	rows, warn, err := s.save(ctx, t, o.FileType, platform)
	switch {
	case err != nil:
		o.Status = StatusFailed
		o.Message = err.Error()
		s.appendLog(ctx, f.Name, platform, "ERROR - "+err.Error())
	case rows == 0:
		o.Status = StatusWarning
		if warn == "" {
			warn = "no rows could be processed"
		}
		o.Message = warn
		s.appendLog(ctx, f.Name, platform, "WARNING - "+warn)
	default:
		o.Status = StatusSaved
		o.Rows = rows
		o.Message = fmt.Sprintf("%d rows saved", rows)
		s.appendLog(ctx, f.Name, platform,
			fmt.Sprintf("OK - %d rows - %s", rows, o.FileType))
	}
	return o
}

// save maps and persists one classified table inside a single transaction.
func (s *Service) save(ctx context.Context, t *sniff.Table, ft classify.FileType, platform string) (int, string, error) {
	b, err := s.store.Begin(ctx)
	if err != nil {
		return 0, "", err
	}
	defer b.Rollback(ctx)

	today := s.now().Format("2006-01-02")

	var rows int
	var warn string
	switch {
	case ft == classify.AdCampaign:
		rows, warn, err = s.saveAdCampaign(ctx, b, t, today)
	case ft == classify.Content:
		rows, warn, err = s.saveContent(ctx, b, t, platform, today)
	case ft == classify.DemographicGender:
		rows, warn, err = s.saveGender(ctx, b, t, platform, today)
	case ft == classify.DemographicGeo:
		rows, warn, err = s.saveGeo(ctx, b, t, platform, today)
	case ft.IsTimeSeries():
		rows, warn, err = s.saveTimeSeries(ctx, b, t, ft, platform)
	default:
		return 0, "unrecognized file format", nil
	}
	if err != nil {
		return 0, "", err
	}

	if err := b.Commit(ctx); err != nil {
		return 0, "", err
	}
	return rows, warn, nil
}

// appendLog records the outcome in the upload audit trail. A log write
// failure must not change the file's outcome, so it is only logged.
func (s *Service) appendLog(ctx context.Context, filename, platform, status string) {
	err := s.store.AppendUploadLog(ctx, store.UploadLogEntry{
		Filename: filename,
		Platform: platform,
		Status:   status,
	})
	if err != nil {
		s.log.Error("upload log write failed", "file", filename, "error", err)
	}
}
