package pipeline

import (
	"context"
	"time"

	"github.com/hann12-34/discovr-ingest/app/datetext"
	"github.com/hann12-34/discovr-ingest/app/event"
	"github.com/hann12-34/discovr-ingest/app/source"
)

const (
	OriginInline = "inline"
	OriginAPI    = "api"
)

type Result struct {
	RunID    string
	Accepted []*event.CanonicalEvent // one entry per accepted record, in batch order
	Rejected []event.Rejection
	Summary  event.Summary
}

type Options struct {
	MinTitleLength   int
	MaxTitleLength   int
	Window           datetext.Window
	RejectSampleSize int
	Workers          int
	Now              func() time.Time
}

// ConfigProvider resolves per-source settings. *source.ConfigCache
// satisfies it.
type ConfigProvider interface {
	GetConfig(sourceName string) (*source.Config, error)
}

// RunRecorder persists run bookkeeping. *database.RunRepository satisfies it.
type RunRecorder interface {
	StartRun(ctx context.Context, sourceName, origin string, at time.Time) (string, error)
	FinishRun(ctx context.Context, runID string, summary event.Summary, runErr error, at time.Time) error
	AddRejections(ctx context.Context, runID, sourceName string, rejections []event.Rejection, at time.Time) error
}
