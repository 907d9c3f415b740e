package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hann12-34/discovr-ingest/app/batch"
	"github.com/hann12-34/discovr-ingest/app/cfg"
	"github.com/hann12-34/discovr-ingest/app/database"
	"github.com/hann12-34/discovr-ingest/app/metrics"
	"github.com/hann12-34/discovr-ingest/app/pipeline"
	"github.com/hann12-34/discovr-ingest/app/source"
	"github.com/hann12-34/discovr-ingest/app/tasks"
)

func NewHandler(configCache *source.ConfigCache, eventRepo database.EventRepositoryInterface,
	sourceRepo database.SourceRepositoryInterface, runRepo database.RunRepositoryInterface,
	ingestor tasks.BatchIngestor, scheduler tasks.TaskSchedulerInterface, m *metrics.Metrics) *Handler {
	return &Handler{
		configCache: configCache,
		eventRepo:   eventRepo,
		sourceRepo:  sourceRepo,
		runRepo:     runRepo,
		ingestor:    ingestor,
		scheduler:   scheduler,
		metrics:     m,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   cfg.GetVersion(),
	}

	if eventCount, err := h.eventRepo.GetEventCount(c.Request.Context()); err == nil {
		health["events"] = eventCount
	} else {
		slog.Error("Database error", "operation", "get_event_count", "error", err)
		health["status"] = "degraded"
	}

	health["loaded_configurations"] = h.configCache.GetConfigCount()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	ctx := c.Request.Context()

	eventCount, err := h.eventRepo.GetEventCount(ctx)
	if err != nil {
		slog.Error("Database error", "operation", "get_event_count", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	byCity, err := h.eventRepo.GetEventCountsByCity(ctx)
	if err != nil {
		slog.Error("Database error", "operation", "get_event_counts_by_city", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	stats := gin.H{
		"events":         eventCount,
		"events_by_city": byCity,
		"configurations": gin.H{
			"loaded":  h.configCache.GetConfigCount(),
			"enabled": len(h.configCache.GetEnabledConfigs()),
		},
	}

	if sourceCount, err := h.sourceRepo.GetSourceCount(ctx); err == nil {
		stats["sources"] = sourceCount
	}
	if activeCount, err := h.sourceRepo.GetActiveSourceCount(ctx); err == nil {
		stats["active_sources"] = activeCount
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) APIListSources(c *gin.Context) {
	configs := h.configCache.GetConfigs()

	sources := make([]map[string]interface{}, 0, len(configs))

	for _, sourceConfig := range configs {
		sourceInfo := map[string]interface{}{
			"name":           sourceConfig.Name,
			"enabled":        sourceConfig.Settings.Enabled,
			"city_hint":      sourceConfig.Settings.CityHint,
			"date_order":     sourceConfig.Order().String(),
			"max_candidates": sourceConfig.Settings.MaxCandidates,
			"filters":        len(sourceConfig.Filters),
		}

		if src, err := h.sourceRepo.GetSource(c.Request.Context(), sourceConfig.Name); err == nil && src != nil {
			sourceInfo["last_ingested_at"] = src.LastIngestedAt
			sourceInfo["updated_at"] = src.UpdatedAt
		}

		sources = append(sources, sourceInfo)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"sources": sources,
		"total":   len(sources),
	})
}

func (h *Handler) APIGetSourceDetails(c *gin.Context) {
	name := c.Param("name")

	sourceConfig, err := h.configCache.GetConfig(name)
	if err != nil {
		slog.Error("Source configuration not found", "source", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Source configuration not found"})
		return
	}

	details := map[string]interface{}{
		"name":           name,
		"enabled":        sourceConfig.Settings.Enabled,
		"city_hint":      sourceConfig.Settings.CityHint,
		"date_order":     sourceConfig.Order().String(),
		"max_candidates": sourceConfig.Settings.MaxCandidates,
		"filters":        sourceConfig.Filters,
	}

	src, err := h.sourceRepo.GetSource(c.Request.Context(), name)
	if err != nil {
		slog.Error("Database error", "operation", "get_source", "source", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if src != nil {
		details["database"] = map[string]interface{}{
			"id":               src.ID,
			"config_file":      src.ConfigFile,
			"last_ingested_at": src.LastIngestedAt,
			"created_at":       src.CreatedAt,
			"updated_at":       src.UpdatedAt,
		}
	}

	runs, err := h.runRepo.GetRecentRuns(c.Request.Context(), name, 10)
	if err != nil {
		slog.Error("Database error", "operation", "get_recent_runs", "source", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	recent := make([]gin.H, 0, len(runs))
	for _, run := range runs {
		recent = append(recent, gin.H{
			"id":          run.ID,
			"origin":      run.Origin,
			"status":      run.Status,
			"summary":     run.Summary,
			"error":       run.Error,
			"started_at":  run.StartedAt,
			"finished_at": run.FinishedAt,
		})
	}
	details["recent_runs"] = recent

	c.JSON(http.StatusOK, details)
}

// APIIngestBatch runs a batch posted in the request body through the
// pipeline and answers with its accounting.
func (h *Handler) APIIngestBatch(c *gin.Context) {
	name := c.Param("name")

	sourceConfig, err := h.configCache.GetConfig(name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Source configuration not found"})
		return
	}
	if !sourceConfig.Settings.Enabled {
		c.JSON(http.StatusConflict, gin.H{"error": "Source is disabled"})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBatchBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Batch too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	envelope, err := batch.Decode(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid batch", "details": err.Error()})
		return
	}

	records, err := envelope.Records(name, sourceConfig.Settings.MaxCandidates)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid batch", "details": err.Error()})
		return
	}

	result, err := h.ingestor.IngestFrom(c.Request.Context(), name, pipeline.OriginAPI, records)
	if err != nil {
		slog.Error("Batch ingestion failed", "source", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Batch ingestion failed", "details": err.Error()})
		return
	}

	if err := h.sourceRepo.MarkIngested(c.Request.Context(), name, time.Now().UTC()); err != nil {
		slog.Warn("Failed to mark source ingested", "source", name, "error", err)
	}

	rejected := make([]rejectionView, 0, len(result.Rejected))
	for _, r := range result.Rejected {
		rejected = append(rejected, rejectionView{Reason: string(r.Reason), Detail: r.Detail, Title: r.Record.Title})
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id":   result.RunID,
		"summary":  result.Summary,
		"rejected": rejected,
	})
}

func (h *Handler) APIGetRejections(c *gin.Context) {
	name := c.Param("name")

	limit := defaultRejectionLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxRejectionLimit)
	}

	rejections, err := h.runRepo.GetRecentRejections(c.Request.Context(), name, limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_recent_rejections", "source", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	samples := make([]gin.H, 0, len(rejections))
	for _, r := range rejections {
		samples = append(samples, gin.H{
			"run_id":     r.RunID,
			"reason":     r.Reason,
			"detail":     r.Detail,
			"record":     r.Record,
			"created_at": r.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"source":     name,
		"rejections": samples,
		"total":      len(samples),
	})
}

func (h *Handler) APIGetEvent(c *gin.Context) {
	id := c.Param("id")

	ev, err := h.eventRepo.GetEvent(c.Request.Context(), id)
	if err != nil {
		slog.Error("Database error", "operation", "get_event", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if ev == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}

	c.JSON(http.StatusOK, ev)
}

func (h *Handler) APIReloadSource(c *gin.Context) {
	name := c.Param("name")

	if _, err := h.configCache.GetConfig(name); err != nil {
		slog.Error("Source configuration not found", "source", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Source configuration not found"})
		return
	}

	sourceConfig, err := h.configCache.LoadConfig(name)
	if err != nil {
		slog.Error("Error reloading configuration", "source", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to reload configuration",
			"details": err.Error(),
		})
		return
	}

	syncTask := tasks.NewSyncSourceConfigTask(sourceConfig, h.configCache.GetConfigFilePath(name), h.sourceRepo)
	if err := h.scheduler.EnqueueTask(syncTask); err != nil {
		slog.Error("Error enqueueing sync task", "source", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue sync task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Configuration reloaded and sync task enqueued successfully",
		"source": gin.H{
			"name":      name,
			"enabled":   sourceConfig.Settings.Enabled,
			"city_hint": sourceConfig.Settings.CityHint,
		},
		"tasks": []gin.H{
			{
				"id":   syncTask.ID,
				"type": syncTask.Type,
			},
		},
	})
}
