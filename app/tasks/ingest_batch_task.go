package tasks

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hann12-34/discovr-ingest/app/batch"
	"github.com/hann12-34/discovr-ingest/app/clock"
	"github.com/hann12-34/discovr-ingest/app/database"
	"github.com/hann12-34/discovr-ingest/app/event"
	"github.com/hann12-34/discovr-ingest/app/source"
)

type IngestBatchTask struct {
	Task
	Path         string
	SourceConfig *source.Config
	ingestor     BatchIngestor
	sourceRepo   database.SourceRepositoryInterface
	inbox        *Inbox
	release      func()
}

func NewIngestBatchTask(path string, sourceConfig *source.Config, ingestor BatchIngestor, sourceRepo database.SourceRepositoryInterface, inbox *Inbox) *IngestBatchTask {
	return &IngestBatchTask{
		Task:         NewTask(TaskTypeIngestBatch, sourceConfig.Name, path),
		Path:         path,
		SourceConfig: sourceConfig,
		ingestor:     ingestor,
		sourceRepo:   sourceRepo,
		inbox:        inbox,
		release:      func() {},
	}
}

func (t *IngestBatchTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	data, err := os.ReadFile(t.Path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Debug("Batch file gone, skipping", "source", t.SourceName, "file", t.Path)
		t.release()
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read batch file: %w", err)
	}

	records, err := t.decode(data)
	if err != nil {
		// A malformed batch will not get better by retrying.
		slog.Error("Task failed", "type", "IngestBatch", "source", t.SourceName, "file", t.Path, "error", err)
		t.Abandon(err)
		return nil
	}

	result, err := t.ingestor.IngestFrom(ctx, t.SourceName, filepath.Base(t.Path), records)
	if err != nil {
		return fmt.Errorf("failed to ingest batch: %w", err)
	}

	if err := t.sourceRepo.MarkIngested(ctx, t.SourceName, clock.UTC()); err != nil {
		slog.Warn("Failed to mark source ingested", "source", t.SourceName, "error", err)
	}

	if _, err := t.inbox.Complete(t.Path); err != nil {
		return err
	}
	t.release()

	slog.Info("Task completed",
		"type", "IngestBatch",
		"source", t.SourceName,
		"file", filepath.Base(t.Path),
		"accepted", result.Summary.Accepted,
		"inserted", result.Summary.InsertedNew,
		"rejected", len(result.Rejected),
		"duration", t.Elapsed())

	return nil
}

func (t *IngestBatchTask) decode(data []byte) ([]event.CandidateRecord, error) {
	envelope, err := batch.Decode(data)
	if err != nil {
		return nil, err
	}
	return envelope.Records(t.SourceName, t.SourceConfig.Settings.MaxCandidates)
}

// Abandon moves the batch file to failed/ so it is not picked up again.
func (t *IngestBatchTask) Abandon(err error) {
	defer t.release()

	target, moveErr := t.inbox.Fail(t.Path)
	if moveErr != nil {
		slog.Error("Failed to move batch file to failed", "source", t.SourceName, "file", t.Path, "error", moveErr)
		return
	}
	slog.Warn("Batch file moved to failed", "source", t.SourceName, "file", target, "reason", err)
}
