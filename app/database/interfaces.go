package database

import (
	"context"
	"time"

	"github.com/hann12-34/discovr-ingest/app/dedup"
	"github.com/hann12-34/discovr-ingest/app/event"
)

type EventRepositoryInterface interface {
	dedup.Store

	GetEvent(ctx context.Context, id string) (*event.CanonicalEvent, error)
	GetEventCount(ctx context.Context) (int, error)
	GetEventCountsByCity(ctx context.Context) ([]CityCount, error)
}

type SourceRepositoryInterface interface {
	UpsertSource(ctx context.Context, name, configFile, cityHint string, enabled bool) (string, error)
	GetSource(ctx context.Context, name string) (*Source, error)
	ListSources(ctx context.Context) ([]Source, error)
	SetSourceActive(ctx context.Context, name string, active bool) error
	MarkIngested(ctx context.Context, name string, at time.Time) error
	GetSourceCount(ctx context.Context) (int, error)
	GetActiveSourceCount(ctx context.Context) (int, error)
}

type RunRepositoryInterface interface {
	StartRun(ctx context.Context, sourceName, origin string, at time.Time) (string, error)
	FinishRun(ctx context.Context, runID string, summary event.Summary, runErr error, at time.Time) error
	AddRejections(ctx context.Context, runID, sourceName string, rejections []event.Rejection, at time.Time) error
	GetRecentRejections(ctx context.Context, sourceName string, limit int) ([]StoredRejection, error)
	GetRecentRuns(ctx context.Context, sourceName string, limit int) ([]Run, error)
}
