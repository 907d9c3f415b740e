package dedup

import (
	"context"
	"time"

	"github.com/hann12-34/discovr-ingest/app/event"
)

// Store is the persisted key index the deduplicator consults. Finders return
// (nil, nil) when nothing matches. Insert returns event.ErrConflict when the
// dedup key is already taken.
type Store interface {
	FindByDedupKey(ctx context.Context, dedupKey string) (*event.CanonicalEvent, error)
	FindByURLBase(ctx context.Context, urlBase, excludeSource string) (*event.CanonicalEvent, error)
	FindByContentKey(ctx context.Context, contentKey string) (*event.CanonicalEvent, error)
	FindURLLessByContentKey(ctx context.Context, contentKey string) (*event.CanonicalEvent, error)
	Insert(ctx context.Context, ev *event.CanonicalEvent) error
	FillMissing(ctx context.Context, id string, patch Patch, at time.Time) (bool, error)
}

// Patch carries the optional fields a merge may copy into an existing
// record. Fields are only written where the stored value is empty.
type Patch struct {
	Description string
	EndDate     *time.Time
	Address     string
}

// IsEmpty reports whether applying the patch could change anything.
func (p Patch) IsEmpty() bool {
	return p.Description == "" && p.EndDate == nil && p.Address == ""
}

// PatchFor returns the subset of candidate's optional fields that existing
// lacks.
func PatchFor(existing, candidate *event.CanonicalEvent) Patch {
	var p Patch
	if existing.Description == "" && candidate.Description != "" {
		p.Description = candidate.Description
	}
	if existing.EndDate == nil && candidate.EndDate != nil {
		end := *candidate.EndDate
		p.EndDate = &end
	}
	if existing.Venue.Address == "" && candidate.Venue.Address != "" {
		p.Address = candidate.Venue.Address
	}
	return p
}

// Fill copies the patch into ev's empty fields. The pipeline uses it to fold
// same-key candidates inside one batch before anything is written.
func (p Patch) Fill(ev *event.CanonicalEvent) {
	if ev.Description == "" {
		ev.Description = p.Description
	}
	if ev.EndDate == nil && p.EndDate != nil {
		end := *p.EndDate
		ev.EndDate = &end
	}
	if ev.Venue.Address == "" {
		ev.Venue.Address = p.Address
	}
}
