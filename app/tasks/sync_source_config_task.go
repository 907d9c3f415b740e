package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hann12-34/discovr-ingest/app/database"
	"github.com/hann12-34/discovr-ingest/app/source"
)

type SyncSourceConfigTask struct {
	Task
	SourceConfig *source.Config
	ConfigFile   string
	sourceRepo   database.SourceRepositoryInterface
}

func NewSyncSourceConfigTask(sourceConfig *source.Config, configFile string, sourceRepo database.SourceRepositoryInterface) *SyncSourceConfigTask {
	return &SyncSourceConfigTask{
		Task:         NewTask(TaskTypeSyncSourceConfig, sourceConfig.Name, configFile),
		SourceConfig: sourceConfig,
		ConfigFile:   configFile,
		sourceRepo:   sourceRepo,
	}
}

func (t *SyncSourceConfigTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	_, err := t.sourceRepo.UpsertSource(ctx,
		t.SourceConfig.Name,
		t.ConfigFile,
		t.SourceConfig.Settings.CityHint,
		t.SourceConfig.Settings.Enabled)
	if err != nil {
		slog.Error("Task failed", "type", "SyncSourceConfig", "source", t.SourceName, "error", err)
		return fmt.Errorf("failed to sync source config to database: %w", err)
	}

	slog.Info("Task completed",
		"type", "SyncSourceConfig",
		"source", t.SourceName,
		"duration", t.Elapsed())

	return nil
}
