package database

import (
	"time"

	"github.com/hann12-34/discovr-ingest/app/event"
)

type Source struct {
	ID             string // Database UUID
	Name           string // Source identifier derived from the config filename
	ConfigFile     string
	CityHint       string
	Enabled        bool
	LastIngestedAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Run is one ingestion of one batch.
type Run struct {
	ID         string
	SourceName string
	Origin     string // batch file name or "api"
	Status     string
	Total      int
	Accepted   int
	Summary    event.Summary
	Error      string
	StartedAt  time.Time
	FinishedAt *time.Time
}

const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// StoredRejection is a rejection sample kept for the admin API.
type StoredRejection struct {
	ID         int64
	RunID      string
	SourceName string
	Reason     event.Reason
	Detail     string
	Record     event.CandidateRecord
	CreatedAt  time.Time
}

// CityCount is one row of the per-city event breakdown.
type CityCount struct {
	City  string `json:"city"`
	Count int    `json:"count"`
}
