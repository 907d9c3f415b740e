package tasks

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

type failingTask struct {
	Task
	abandoned error
}

func (f *failingTask) Execute(ctx context.Context) error {
	return errors.New("always fails")
}

func (f *failingTask) Abandon(err error) {
	f.abandoned = err
}

func TestNewScheduler(t *testing.T) {
	cache := newConfigCache(t, nil)
	scheduler := newScheduler(cache, NewMockSourceRepository(), &MockIngestor{}, NewInbox(t.TempDir()), time.Second, 2)

	if scheduler.workerCount != 2 {
		t.Errorf("Expected worker count 2, got %d", scheduler.workerCount)
	}
	if scheduler.interval != time.Second {
		t.Errorf("Expected interval 1s, got %v", scheduler.interval)
	}
	if cap(scheduler.taskQueue) != 300 {
		t.Errorf("Expected queue capacity 300, got %d", cap(scheduler.taskQueue))
	}
}

func TestSchedulerEnqueueTask_QueueFull(t *testing.T) {
	cache := newConfigCache(t, nil)
	scheduler := newScheduler(cache, NewMockSourceRepository(), &MockIngestor{}, NewInbox(t.TempDir()), time.Second, 1)

	for i := 0; i < cap(scheduler.taskQueue); i++ {
		task := NewTask(TaskTypeIngestBatch, "blogto", "batch.json")
		if err := scheduler.EnqueueTask(&failingTask{Task: task}); err != nil {
			t.Fatalf("Unexpected error at %d: %v", i, err)
		}
	}

	task := NewTask(TaskTypeIngestBatch, "blogto", "batch.json")
	if err := scheduler.EnqueueTask(&failingTask{Task: task}); err == nil {
		t.Error("Expected error when queue is full")
	}
}

func TestSchedulerEnqueueTasks_ClaimsFiles(t *testing.T) {
	inboxDir := t.TempDir()
	writeBatch(t, inboxDir, "blogto", "one.json", validBatch)
	writeBatch(t, inboxDir, "blogto", "two.json", validBatch)
	writeBatch(t, inboxDir, "paused", "three.json", validBatch)

	cache := newConfigCache(t, map[string]string{
		"blogto": "settings:\n  enabled: true\n",
		"paused": "settings:\n  enabled: false\n",
	})
	scheduler := newScheduler(cache, NewMockSourceRepository(), &MockIngestor{}, NewInbox(inboxDir), time.Second, 1)

	scheduler.enqueueTasks()
	scheduler.enqueueTasks()

	if len(scheduler.taskQueue) != 2 {
		t.Fatalf("Expected 2 queued tasks, got %d", len(scheduler.taskQueue))
	}

	task := (<-scheduler.taskQueue).(*IngestBatchTask)
	task.release()

	scheduler.enqueueTasks()
	if len(scheduler.taskQueue) != 2 {
		t.Errorf("Expected released file to be queued again, got %d tasks", len(scheduler.taskQueue))
	}
}

func TestSchedulerExecuteTask_AbandonsAfterMaxRetries(t *testing.T) {
	cache := newConfigCache(t, nil)
	scheduler := newScheduler(cache, NewMockSourceRepository(), &MockIngestor{}, NewInbox(t.TempDir()), time.Second, 1)

	task := &failingTask{Task: NewTask(TaskTypeIngestBatch, "blogto", "batch.json")}
	task.Retries = DefaultRetryPolicy.MaxRetries

	scheduler.executeTask(0, task)

	if task.abandoned == nil {
		t.Error("Expected task to be abandoned after maximum retries")
	}
}

func TestSchedulerLifecycle(t *testing.T) {
	inboxDir := t.TempDir()
	writeBatch(t, inboxDir, "blogto", "batch.json", validBatch)

	cache := newConfigCache(t, map[string]string{
		"blogto": "settings:\n  enabled: true\n  city_hint: Toronto\n",
	})
	repo := NewMockSourceRepository()
	ingestor := &MockIngestor{}

	scheduler := newScheduler(cache, repo, ingestor, NewInbox(inboxDir), 50*time.Millisecond, 1)
	scheduler.Start()

	processed := filepath.Join(inboxDir, "blogto", "processed", "batch.json")
	deadline := time.Now().Add(2 * time.Second)
	for !fileExists(processed) && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}

	scheduler.Stop()

	if !fileExists(processed) {
		t.Fatal("Expected batch file to be processed")
	}
	if ingestor.batchCount() != 1 {
		t.Errorf("Expected 1 ingested batch, got %d", ingestor.batchCount())
	}
	if repo.upsertCount() != 1 {
		t.Errorf("Expected source config to be synced, got %d upserts", repo.upsertCount())
	}
}

func TestSchedulerStop_PendingRetryAndLateEnqueue(t *testing.T) {
	cache := newConfigCache(t, nil)
	scheduler := newScheduler(cache, NewMockSourceRepository(), &MockIngestor{}, NewInbox(t.TempDir()), time.Hour, 1)
	scheduler.Start()

	task := &failingTask{Task: NewTask(TaskTypeIngestBatch, "blogto", "batch.json")}
	scheduler.executeTask(0, task)
	if task.Info().Retries != 1 {
		t.Fatalf("Expected a retry to be scheduled, got %d retries", task.Info().Retries)
	}

	done := make(chan struct{})
	go func() {
		scheduler.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Expected Stop to return without waiting for the retry delay")
	}

	if task.abandoned != nil {
		t.Errorf("Expected skipped retry to leave the task alone, got %v", task.abandoned)
	}

	late := &failingTask{Task: NewTask(TaskTypeIngestBatch, "blogto", "batch.json")}
	if err := scheduler.EnqueueTask(late); err == nil {
		t.Error("Expected enqueue after Stop to fail")
	}
	if len(scheduler.taskQueue) != 0 {
		t.Errorf("Expected nothing queued after Stop, got %d", len(scheduler.taskQueue))
	}
}
