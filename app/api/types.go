package api

import (
	"github.com/hann12-34/discovr-ingest/app/database"
	"github.com/hann12-34/discovr-ingest/app/metrics"
	"github.com/hann12-34/discovr-ingest/app/source"
	"github.com/hann12-34/discovr-ingest/app/tasks"
)

const (
	defaultRejectionLimit = 20
	maxRejectionLimit     = 500
	maxBatchBodyBytes     = 10 << 20
)

type Handler struct {
	configCache *source.ConfigCache
	eventRepo   database.EventRepositoryInterface
	sourceRepo  database.SourceRepositoryInterface
	runRepo     database.RunRepositoryInterface
	ingestor    tasks.BatchIngestor
	scheduler   tasks.TaskSchedulerInterface
	metrics     *metrics.Metrics
}

type rejectionView struct {
	Reason string `json:"reason"`
	Detail string `json:"detail,omitempty"`
	Title  string `json:"title"`
}
