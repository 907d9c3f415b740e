package tasks

import (
	"context"
	"testing"
	"time"
)

func TestNewTask(t *testing.T) {
	first := NewTask(TaskTypeIngestBatch, "blogto", "inbox/blogto/one.json")
	second := NewTask(TaskTypeIngestBatch, "blogto", "inbox/blogto/two.json")

	if first.ID == "" || first.ID == second.ID {
		t.Errorf("Expected unique task ids, got '%s' and '%s'", first.ID, second.ID)
	}

	info := first.Info()
	if info.Type != TaskTypeIngestBatch {
		t.Errorf("Expected type %s, got %s", TaskTypeIngestBatch, info.Type)
	}
	if info.SourceName != "blogto" || info.Subject != "inbox/blogto/one.json" {
		t.Errorf("Expected blogto task for one.json, got %+v", info)
	}
	if first.Elapsed() != 0 {
		t.Errorf("Expected zero elapsed time before begin, got %v", first.Elapsed())
	}
}

func TestTaskRetry(t *testing.T) {
	task := NewTask(TaskTypeIngestBatch, "blogto", "one.json")

	expected := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	for i, want := range expected {
		delay, ok := task.Retry()
		if !ok {
			t.Fatalf("Expected retry %d to be allowed", i+1)
		}
		if delay != want {
			t.Errorf("Retry %d: expected delay %v, got %v", i+1, want, delay)
		}
	}

	if _, ok := task.Retry(); ok {
		t.Error("Expected no retries left")
	}
	if task.Info().Retries != DefaultRetryPolicy.MaxRetries {
		t.Errorf("Expected %d retries, got %d", DefaultRetryPolicy.MaxRetries, task.Info().Retries)
	}
}

func TestRetryPolicyDelay(t *testing.T) {
	tests := []struct {
		retry    int
		expected time.Duration
	}{
		{0, time.Second},
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{6, 30 * time.Second},
		{40, 30 * time.Second},
	}

	for _, tt := range tests {
		if got := DefaultRetryPolicy.Delay(tt.retry); got != tt.expected {
			t.Errorf("Delay(%d): expected %v, got %v", tt.retry, tt.expected, got)
		}
	}
}

func TestSyncSourceConfigTask(t *testing.T) {
	cache := newConfigCache(t, map[string]string{
		"blogto": "settings:\n  enabled: true\n  city_hint: Toronto\n",
	})
	sourceConfig, err := cache.GetConfig("blogto")
	if err != nil {
		t.Fatal(err)
	}

	repo := NewMockSourceRepository()
	task := NewSyncSourceConfigTask(sourceConfig, cache.GetConfigFilePath("blogto"), repo)
	task.Begin()

	if err := task.Execute(context.Background()); err != nil {
		t.Fatal(err)
	}

	stored, _ := repo.GetSource(context.Background(), "blogto")
	if stored == nil {
		t.Fatal("Expected source to be upserted")
	}
	if stored.CityHint != "Toronto" || !stored.Enabled {
		t.Errorf("Expected enabled Toronto source, got %+v", stored)
	}
	if stored.ConfigFile != cache.GetConfigFilePath("blogto") {
		t.Errorf("Expected config file '%s', got '%s'", cache.GetConfigFilePath("blogto"), stored.ConfigFile)
	}
}

func TestSyncSourceConfigTask_Cancelled(t *testing.T) {
	cache := newConfigCache(t, map[string]string{"blogto": "settings:\n  enabled: true\n"})
	sourceConfig, _ := cache.GetConfig("blogto")

	repo := NewMockSourceRepository()
	task := NewSyncSourceConfigTask(sourceConfig, "blogto.yml", repo)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := task.Execute(ctx); err == nil {
		t.Error("Expected error for cancelled context")
	}
	if repo.upsertCount() != 0 {
		t.Error("Expected no upsert after cancellation")
	}
}
