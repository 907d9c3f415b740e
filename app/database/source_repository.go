package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SourceRepository handles database operations for sources
type SourceRepository struct {
	db  *DB
	now func() time.Time
}

// NewSourceRepository creates a new source repository
func NewSourceRepository(db *DB) *SourceRepository {
	return &SourceRepository{db: db, now: time.Now}
}

const sourceColumns = `id, name, config_file, city_hint, enabled, last_ingested_at, created_at, updated_at`

func scanSource(row rowScanner) (*Source, error) {
	var (
		s                Source
		last             sql.NullString
		created, updated string
	)

	if err := row.Scan(&s.ID, &s.Name, &s.ConfigFile, &s.CityHint, &s.Enabled, &last, &created, &updated); err != nil {
		return nil, err
	}

	var err error
	if s.LastIngestedAt, err = parseNullTime(last); err != nil {
		return nil, err
	}
	if s.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if s.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}

	return &s, nil
}

// UpsertSource inserts or updates a source configuration and returns its id
func (r *SourceRepository) UpsertSource(ctx context.Context, name, configFile, cityHint string, enabled bool) (string, error) {
	existing, err := r.GetSource(ctx, name)
	if err != nil {
		return "", fmt.Errorf("failed to check existing source: %w", err)
	}

	now := formatTime(r.now())

	if existing != nil {
		_, err = r.db.execWithRetry(ctx, `
			UPDATE sources
			SET config_file = ?, city_hint = ?, enabled = ?, updated_at = ?
			WHERE name = ?
		`, configFile, cityHint, enabled, now, name)
		if err != nil {
			return "", fmt.Errorf("failed to upsert source: %w", err)
		}
		return existing.ID, nil
	}

	id := uuid.NewString()
	_, err = r.db.execWithRetry(ctx, `
		INSERT INTO sources (id, name, config_file, city_hint, enabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			config_file = excluded.config_file,
			city_hint = excluded.city_hint,
			enabled = excluded.enabled,
			updated_at = excluded.updated_at
	`, id, name, configFile, cityHint, enabled, now, now)
	if err != nil {
		return "", fmt.Errorf("failed to upsert source: %w", err)
	}

	// A concurrent upsert may have created the row first.
	stored, err := r.GetSource(ctx, name)
	if err != nil {
		return "", err
	}
	if stored == nil {
		return "", fmt.Errorf("source %s missing after upsert", name)
	}

	return stored.ID, nil
}

// GetSource retrieves a source by name
func (r *SourceRepository) GetSource(ctx context.Context, name string) (*Source, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sourceColumns+` FROM sources WHERE name = ?`, name)
	s, err := scanSource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source: %w", err)
	}
	return s, nil
}

// ListSources returns all sources ordered by name
func (r *SourceRepository) ListSources(ctx context.Context) ([]Source, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+sourceColumns+` FROM sources ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		s, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating source rows: %w", err)
	}

	return sources, nil
}

// SetSourceActive sets the enabled status of a source
func (r *SourceRepository) SetSourceActive(ctx context.Context, name string, active bool) error {
	_, err := r.db.execWithRetry(ctx, `
		UPDATE sources
		SET enabled = ?, updated_at = ?
		WHERE name = ?
	`, active, formatTime(r.now()), name)

	if err != nil {
		return fmt.Errorf("failed to set source active status: %w", err)
	}

	return nil
}

// MarkIngested records when a source last had a batch ingested
func (r *SourceRepository) MarkIngested(ctx context.Context, name string, at time.Time) error {
	_, err := r.db.execWithRetry(ctx, `
		UPDATE sources
		SET last_ingested_at = ?, updated_at = ?
		WHERE name = ?
	`, formatTime(at), formatTime(at), name)

	if err != nil {
		return fmt.Errorf("failed to mark source ingested: %w", err)
	}

	return nil
}

// GetSourceCount returns the total number of sources
func (r *SourceRepository) GetSourceCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sources").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get source count: %w", err)
	}
	return count, nil
}

// GetActiveSourceCount returns the count of enabled sources
func (r *SourceRepository) GetActiveSourceCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sources WHERE enabled = 1").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get active source count: %w", err)
	}
	return count, nil
}
