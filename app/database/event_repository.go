package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hann12-34/discovr-ingest/app/dedup"
	"github.com/hann12-34/discovr-ingest/app/event"
)

// EventRepository handles database operations for canonical events
type EventRepository struct {
	db *DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `id, dedup_key, content_key, url_base, title, start_date, end_date,
	venue_name, address, city, url, description, source_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*event.CanonicalEvent, error) {
	var (
		ev                  event.CanonicalEvent
		start, created, upd string
		end                 sql.NullString
	)

	err := row.Scan(
		&ev.ID, &ev.DedupKey, &ev.ContentKey, &ev.URLBase, &ev.Title, &start, &end,
		&ev.Venue.Name, &ev.Venue.Address, &ev.City, &ev.URL, &ev.Description, &ev.SourceID,
		&created, &upd,
	)
	if err != nil {
		return nil, err
	}

	if ev.StartDate, err = parseTime(start); err != nil {
		return nil, err
	}
	if ev.EndDate, err = parseNullTime(end); err != nil {
		return nil, err
	}
	if ev.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if ev.UpdatedAt, err = parseTime(upd); err != nil {
		return nil, err
	}
	ev.Venue.City = ev.City

	return &ev, nil
}

func (r *EventRepository) findOne(ctx context.Context, what, where string, args ...any) (*event.CanonicalEvent, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE `+where+` ORDER BY created_at, id LIMIT 1`, args...)
	ev, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event by %s: %w", what, err)
	}
	return ev, nil
}

// GetEvent retrieves an event by its stable id
func (r *EventRepository) GetEvent(ctx context.Context, id string) (*event.CanonicalEvent, error) {
	return r.findOne(ctx, "id", `id = ?`, id)
}

// FindByDedupKey retrieves the event owning a dedup key
func (r *EventRepository) FindByDedupKey(ctx context.Context, dedupKey string) (*event.CanonicalEvent, error) {
	return r.findOne(ctx, "dedup key", `dedup_key = ?`, dedupKey)
}

// FindByURLBase retrieves the earliest event from another source sharing a query-less URL
func (r *EventRepository) FindByURLBase(ctx context.Context, urlBase, excludeSource string) (*event.CanonicalEvent, error) {
	if urlBase == "" {
		return nil, nil
	}
	return r.findOne(ctx, "url base", `url_base = ? AND source_id <> ?`, urlBase, excludeSource)
}

// FindByContentKey retrieves the earliest event sharing a title/venue/day key
func (r *EventRepository) FindByContentKey(ctx context.Context, contentKey string) (*event.CanonicalEvent, error) {
	return r.findOne(ctx, "content key", `content_key = ?`, contentKey)
}

// FindURLLessByContentKey retrieves the earliest event without a URL sharing a title/venue/day key
func (r *EventRepository) FindURLLessByContentKey(ctx context.Context, contentKey string) (*event.CanonicalEvent, error) {
	return r.findOne(ctx, "content key", `content_key = ? AND url = ''`, contentKey)
}

// Insert stores a new event. A taken dedup key is reported as event.ErrConflict.
func (r *EventRepository) Insert(ctx context.Context, ev *event.CanonicalEvent) error {
	_, err := r.db.execWithRetry(ctx, `
		INSERT INTO events (
			id, dedup_key, content_key, url_base, title, start_date, end_date,
			venue_name, address, city, url, description, source_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, ev.ID, ev.DedupKey, ev.ContentKey, ev.URLBase, ev.Title, formatTime(ev.StartDate), formatNullTime(ev.EndDate),
		ev.Venue.Name, ev.Venue.Address, ev.City, ev.URL, ev.Description, ev.SourceID,
		formatTime(ev.CreatedAt), formatTime(ev.UpdatedAt))

	if isUniqueViolation(err) {
		return fmt.Errorf("insert %s: %w", ev.DedupKey, event.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	return nil
}

// FillMissing copies patch values into empty columns of one event in a
// single statement. It reports whether any column changed.
func (r *EventRepository) FillMissing(ctx context.Context, id string, patch dedup.Patch, at time.Time) (bool, error) {
	end := formatNullTime(patch.EndDate)

	res, err := r.db.execWithRetry(ctx, `
		UPDATE events
		SET description = COALESCE(NULLIF(description, ''), ?),
		    end_date    = COALESCE(end_date, ?),
		    address     = COALESCE(NULLIF(address, ''), ?),
		    updated_at  = ?
		WHERE id = ?
		  AND ((description = '' AND ? <> '')
		    OR (end_date IS NULL AND ? IS NOT NULL)
		    OR (address = '' AND ? <> ''))
	`, patch.Description, end, patch.Address, formatTime(at), id,
		patch.Description, end, patch.Address)
	if err != nil {
		return false, fmt.Errorf("failed to merge event fields: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read merge result: %w", err)
	}

	return n > 0, nil
}

// GetEventCount returns the total number of events
func (r *EventRepository) GetEventCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM events").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get event count: %w", err)
	}
	return count, nil
}

// GetEventCountsByCity returns how many events each city holds
func (r *EventRepository) GetEventCountsByCity(ctx context.Context) ([]CityCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT city, COUNT(*) FROM events
		GROUP BY city
		ORDER BY COUNT(*) DESC, city
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get event counts by city: %w", err)
	}
	defer rows.Close()

	var counts []CityCount
	for rows.Next() {
		var c CityCount
		if err := rows.Scan(&c.City, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan city count: %w", err)
		}
		counts = append(counts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating city counts: %w", err)
	}

	return counts, nil
}
