package tasks

import (
	"context"

	"github.com/hann12-34/discovr-ingest/app/event"
	"github.com/hann12-34/discovr-ingest/app/pipeline"
)

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application to manage background batch ingestion.
// Example usage:
//
//	scheduler := NewScheduler(configCache, sourceRepo, ingestor)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewSyncSourceConfigTask(...))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

// BatchIngestor runs one batch through the pipeline. *pipeline.Ingestor
// satisfies it.
type BatchIngestor interface {
	IngestFrom(ctx context.Context, sourceID, origin string, candidates []event.CandidateRecord) (*pipeline.Result, error)
}
