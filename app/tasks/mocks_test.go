package tasks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/hann12-34/discovr-ingest/app/database"
	"github.com/hann12-34/discovr-ingest/app/event"
	"github.com/hann12-34/discovr-ingest/app/pipeline"
	"github.com/hann12-34/discovr-ingest/app/source"
)

// MockSourceRepository implements database.SourceRepositoryInterface for tests
type MockSourceRepository struct {
	mu       sync.Mutex
	upserted map[string]database.Source
	ingested []string
	err      error
}

var _ database.SourceRepositoryInterface = (*MockSourceRepository)(nil)

func NewMockSourceRepository() *MockSourceRepository {
	return &MockSourceRepository{upserted: make(map[string]database.Source)}
}

func (m *MockSourceRepository) UpsertSource(ctx context.Context, name, configFile, cityHint string, enabled bool) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.upserted[name] = database.Source{ID: "id-" + name, Name: name, ConfigFile: configFile, CityHint: cityHint, Enabled: enabled}
	return "id-" + name, nil
}

func (m *MockSourceRepository) GetSource(ctx context.Context, name string) (*database.Source, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.upserted[name]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *MockSourceRepository) ListSources(ctx context.Context) ([]database.Source, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sources []database.Source
	for _, s := range m.upserted {
		sources = append(sources, s)
	}
	return sources, nil
}

func (m *MockSourceRepository) SetSourceActive(ctx context.Context, name string, active bool) error {
	return nil
}

func (m *MockSourceRepository) MarkIngested(ctx context.Context, name string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ingested = append(m.ingested, name)
	return nil
}

func (m *MockSourceRepository) GetSourceCount(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.upserted), nil
}

func (m *MockSourceRepository) GetActiveSourceCount(ctx context.Context) (int, error) {
	return m.GetSourceCount(ctx)
}

func (m *MockSourceRepository) upsertCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.upserted)
}

// MockIngestor records the batches it is handed
type MockIngestor struct {
	mu      sync.Mutex
	batches [][]event.CandidateRecord
	origins []string
	err     error
}

var _ BatchIngestor = (*MockIngestor)(nil)

func (m *MockIngestor) IngestFrom(ctx context.Context, sourceID, origin string, candidates []event.CandidateRecord) (*pipeline.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, candidates)
	m.origins = append(m.origins, origin)
	if m.err != nil {
		return nil, m.err
	}
	return &pipeline.Result{Summary: event.Summary{Total: len(candidates), Accepted: len(candidates), InsertedNew: len(candidates)}}, nil
}

func (m *MockIngestor) batchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.batches)
}

var errMockIngest = errors.New("mock ingest error")

func newConfigCache(t *testing.T, configs map[string]string) *source.ConfigCache {
	t.Helper()

	dir := t.TempDir()
	for name, content := range configs {
		if err := os.WriteFile(filepath.Join(dir, name+".yml"), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	cache := source.NewConfigCache(dir)
	if err := cache.Run(); err != nil {
		t.Fatal(err)
	}
	return cache
}

func writeBatch(t *testing.T, inboxDir, sourceName, fileName, content string) string {
	t.Helper()

	dir := filepath.Join(inboxDir, sourceName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, fileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

const validBatch = `{
	"city_hint": "Toronto",
	"candidates": [
		{"title": "Live Jazz Night", "raw_date_text": "Jan 15", "venue": "The Blue Room"},
		{"title": "Gallery Opening Night", "raw_date_text": "Feb 2", "venue": {"name": "AGO"}}
	]
}`
