package dedup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hann12-34/discovr-ingest/app/event"
)

type Action int

const (
	ActionInsert Action = iota
	ActionMerge
	ActionDiscard
)

func (a Action) String() string {
	switch a {
	case ActionInsert:
		return "insert"
	case ActionMerge:
		return "merge"
	case ActionDiscard:
		return "discard"
	default:
		return "unknown"
	}
}

type Outcome struct {
	Action     Action
	Event      *event.CanonicalEvent // the stored record after the write
	ExistingID string
	Changed    bool
	Conflict   bool // the insert raced another writer
}

type Deduplicator struct {
	store Store
	now   func() time.Time
}

func NewDeduplicator(store Store, now func() time.Time) *Deduplicator {
	if now == nil {
		now = time.Now
	}
	return &Deduplicator{store: store, now: now}
}

// Apply writes candidate as a new event or merges it into the record that
// already owns its identity. candidate must carry its keys. Errors are store
// failures only; a lost race is reported as ActionDiscard.
func (d *Deduplicator) Apply(ctx context.Context, candidate *event.CanonicalEvent) (Outcome, error) {
	existing, err := d.findExisting(ctx, candidate)
	if err != nil {
		return Outcome{}, err
	}
	if existing != nil {
		return d.merge(ctx, existing, candidate)
	}

	now := d.now().UTC()
	candidate.ID = StableID(candidate.DedupKey)
	candidate.CreatedAt = now
	candidate.UpdatedAt = now

	err = d.store.Insert(ctx, candidate)
	if err == nil {
		return Outcome{Action: ActionInsert, Event: candidate, Changed: true}, nil
	}
	if !errors.Is(err, event.ErrConflict) {
		return Outcome{}, fmt.Errorf("failed to insert event: %w", err)
	}

	// Another writer won the key between lookup and insert. Merge into the
	// winner once; if that fails too the write is dropped.
	winner, err := d.store.FindByDedupKey(ctx, candidate.DedupKey)
	if err != nil || winner == nil {
		slog.Warn("Discarding event after conflict", "dedup_key", candidate.DedupKey, "source", candidate.SourceID, "error", err)
		return Outcome{Action: ActionDiscard, Conflict: true}, nil
	}

	outcome, err := d.merge(ctx, winner, candidate)
	if err != nil {
		slog.Warn("Discarding event after conflict", "dedup_key", candidate.DedupKey, "source", candidate.SourceID, "error", err)
		return Outcome{Action: ActionDiscard, ExistingID: winner.ID, Conflict: true}, nil
	}
	outcome.Conflict = true
	return outcome, nil
}

// findExisting looks up the record owning candidate's identity: the full
// key first, then the query-less URL from another source, then the content
// key. A candidate without a URL matches any record by content key; one with
// a URL only matches records that have none, so the pairing does not depend
// on which of the two arrived first.
func (d *Deduplicator) findExisting(ctx context.Context, candidate *event.CanonicalEvent) (*event.CanonicalEvent, error) {
	existing, err := d.store.FindByDedupKey(ctx, candidate.DedupKey)
	if err != nil {
		return nil, fmt.Errorf("failed to look up dedup key: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	if candidate.URLBase != "" {
		existing, err = d.store.FindByURLBase(ctx, candidate.URLBase, candidate.SourceID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up url base: %w", err)
		}
		if existing != nil {
			return existing, nil
		}

		existing, err = d.store.FindURLLessByContentKey(ctx, candidate.ContentKey)
		if err != nil {
			return nil, fmt.Errorf("failed to look up content key: %w", err)
		}
		return existing, nil
	}

	existing, err = d.store.FindByContentKey(ctx, candidate.ContentKey)
	if err != nil {
		return nil, fmt.Errorf("failed to look up content key: %w", err)
	}
	return existing, nil
}

func (d *Deduplicator) merge(ctx context.Context, existing, candidate *event.CanonicalEvent) (Outcome, error) {
	outcome := Outcome{Action: ActionMerge, Event: existing, ExistingID: existing.ID}

	patch := PatchFor(existing, candidate)
	if patch.IsEmpty() {
		return outcome, nil
	}

	now := d.now().UTC()
	changed, err := d.store.FillMissing(ctx, existing.ID, patch, now)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to merge into %s: %w", existing.ID, err)
	}

	if changed {
		merged := *existing
		patch.Fill(&merged)
		merged.UpdatedAt = now
		outcome.Event = &merged
		outcome.Changed = true
	}

	return outcome, nil
}
