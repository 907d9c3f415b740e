package testsupport

import (
	"context"
	"testing"
	"time"

	"github.com/hann12-34/discovr-ingest/app/dedup"
	"github.com/hann12-34/discovr-ingest/app/event"
)

// NewEvent builds a keyed, persistable event for tests.
func NewEvent(url, title, venue, source string, start time.Time) *event.CanonicalEvent {
	keys := dedup.ComputeKeys(url, title, venue, start)
	now := start.Add(-30 * 24 * time.Hour)
	return &event.CanonicalEvent{
		ID:         dedup.StableID(keys.DedupKey),
		DedupKey:   keys.DedupKey,
		ContentKey: keys.ContentKey,
		URLBase:    keys.URLBase,
		Title:      title,
		StartDate:  start,
		Venue:      event.Venue{Name: venue, City: "Toronto"},
		City:       "Toronto",
		URL:        url,
		SourceID:   source,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// MustInsert stores ev and fails the test on error.
func MustInsert(t testing.TB, store dedup.Store, ev *event.CanonicalEvent) {
	t.Helper()

	if err := store.Insert(context.Background(), ev); err != nil {
		t.Fatalf("store.Insert: %v", err)
	}
}
