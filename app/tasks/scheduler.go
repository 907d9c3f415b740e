package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hann12-34/discovr-ingest/app/cfg"
	"github.com/hann12-34/discovr-ingest/app/database"
	"github.com/hann12-34/discovr-ingest/app/source"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	sourceRepo  database.SourceRepositoryInterface
	configCache *source.ConfigCache
	ingestor    BatchIngestor
	inbox       *Inbox
	interval    time.Duration
	workerCount int
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface

	claimedMu sync.Mutex
	claimed   map[string]bool // batch files queued or in flight
}

func NewScheduler(configCache *source.ConfigCache, sourceRepo database.SourceRepositoryInterface, ingestor BatchIngestor) TaskSchedulerInterface {
	cfg := cfg.Get()

	return newScheduler(configCache, sourceRepo, ingestor, NewInbox(cfg.InboxDir),
		time.Duration(cfg.SchedulerInterval)*time.Second, cfg.WorkerCount)
}

func newScheduler(configCache *source.ConfigCache, sourceRepo database.SourceRepositoryInterface, ingestor BatchIngestor,
	inbox *Inbox, interval time.Duration, workerCount int) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		sourceRepo:  sourceRepo,
		configCache: configCache,
		ingestor:    ingestor,
		inbox:       inbox,
		interval:    interval,
		workerCount: workerCount,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, 300),
		claimed:     make(map[string]bool),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueStartupTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()
}

// Stop cancels the workers and pending retries and waits for them. The
// queue is left open so late senders get an error instead of a panic.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	if err := s.ctx.Err(); err != nil {
		return err
	}

	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) enqueueStartupTasks() {
	sourceConfigs := s.configCache.GetConfigs()
	if len(sourceConfigs) == 0 {
		slog.Debug("No source configurations found")
		return
	}

	slog.Debug("Processing source configurations", "count", len(sourceConfigs))

	for _, sourceConfig := range sourceConfigs {
		syncTask := NewSyncSourceConfigTask(sourceConfig, s.configCache.GetConfigFilePath(sourceConfig.Name), s.sourceRepo)
		if err := s.EnqueueTask(syncTask); err != nil {
			slog.Warn("Failed to enqueue SyncSourceConfigTask", "source", sourceConfig.Name, "error", err)
		}
	}

	s.enqueueTasks()
}

// enqueueTasks queues every unclaimed batch file of every enabled source.
func (s *Scheduler) enqueueTasks() {
	sourceConfigs := s.configCache.GetEnabledConfigs()
	if len(sourceConfigs) == 0 {
		slog.Debug("No enabled source configurations found")
		return
	}

	for _, sourceConfig := range sourceConfigs {
		files, err := s.inbox.Pending(sourceConfig.Name)
		if err != nil {
			slog.Warn("Failed to scan inbox, skipping", "source", sourceConfig.Name, "error", err)
			continue
		}

		for _, path := range files {
			if !s.claim(path) {
				continue
			}

			task := NewIngestBatchTask(path, sourceConfig, s.ingestor, s.sourceRepo, s.inbox)
			task.release = func() { s.unclaim(path) }

			if err := s.EnqueueTask(task); err != nil {
				s.unclaim(path)
				slog.Warn("Failed to enqueue IngestBatchTask", "source", sourceConfig.Name, "file", path, "error", err)
				return
			}
		}
	}
}

func (s *Scheduler) claim(path string) bool {
	s.claimedMu.Lock()
	defer s.claimedMu.Unlock()

	if s.claimed[path] {
		return false
	}
	s.claimed[path] = true
	return true
}

func (s *Scheduler) unclaim(path string) {
	s.claimedMu.Lock()
	defer s.claimedMu.Unlock()
	delete(s.claimed, path)
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Begin()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		return
	}

	slog.Error("Worker task execution failed", append([]any{"worker_id", workerID, "error", err}, task.Info().LogAttrs()...)...)

	delay, ok := task.Retry()
	if !ok {
		slog.Error("Task failed after maximum retries", append([]any{"last_error", err}, task.Info().LogAttrs()...)...)
		if a, ok := task.(Abandoner); ok {
			a.Abandon(err)
		}
		return
	}

	slog.Warn("Task retry scheduled", append([]any{"delay", delay.String()}, task.Info().LogAttrs()...)...)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", task.Info().LogAttrs()...)
			return
		case <-timer.C:
		}

		if retryErr := s.EnqueueTask(task); retryErr != nil {
			if s.ctx.Err() != nil {
				slog.Debug("Scheduler stopped, skipping task retry", task.Info().LogAttrs()...)
				return
			}
			slog.Error("Failed to re-enqueue task for retry", append([]any{"error", retryErr}, task.Info().LogAttrs()...)...)
			if a, ok := task.(Abandoner); ok {
				a.Abandon(retryErr)
			}
		}
	}()
}
