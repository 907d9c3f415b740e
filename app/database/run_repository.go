package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hann12-34/discovr-ingest/app/event"
)

// RunRepository records ingestion runs and their rejection samples
type RunRepository struct {
	db *DB
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

// StartRun opens a run in the running state and returns its id
func (r *RunRepository) StartRun(ctx context.Context, sourceName, origin string, at time.Time) (string, error) {
	id := uuid.NewString()
	_, err := r.db.execWithRetry(ctx, `
		INSERT INTO ingest_runs (id, source_name, origin, status, started_at)
		VALUES (?, ?, ?, ?, ?)
	`, id, sourceName, origin, RunStatusRunning, formatTime(at))
	if err != nil {
		return "", fmt.Errorf("failed to start run: %w", err)
	}
	return id, nil
}

// FinishRun stores the run summary. A non-nil runErr marks the run failed.
func (r *RunRepository) FinishRun(ctx context.Context, runID string, summary event.Summary, runErr error, at time.Time) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode run summary: %w", err)
	}

	status := RunStatusCompleted
	errText := ""
	if runErr != nil {
		status = RunStatusFailed
		errText = runErr.Error()
	}

	_, err = r.db.execWithRetry(ctx, `
		UPDATE ingest_runs
		SET status = ?, total = ?, accepted = ?, summary = ?, error = ?, finished_at = ?
		WHERE id = ?
	`, status, summary.Total, summary.Accepted, string(data), errText, formatTime(at), runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	return nil
}

// AddRejections stores rejection samples for a run in one transaction
func (r *RunRepository) AddRejections(ctx context.Context, runID, sourceName string, rejections []event.Rejection, at time.Time) error {
	if len(rejections) == 0 {
		return nil
	}

	return retryOnBusy(ctx, func() error {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer tx.Rollback()

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO run_rejections (run_id, source_name, reason, detail, record, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare rejection insert: %w", err)
		}
		defer stmt.Close()

		createdAt := formatTime(at)
		for _, rej := range rejections {
			record, err := json.Marshal(rej.Record)
			if err != nil {
				return fmt.Errorf("failed to encode rejected record: %w", err)
			}
			if _, err := stmt.ExecContext(ctx, runID, sourceName, string(rej.Reason), rej.Detail, string(record), createdAt); err != nil {
				return fmt.Errorf("failed to store rejection: %w", err)
			}
		}

		return tx.Commit()
	})
}

// GetRecentRejections returns the newest rejection samples for a source
func (r *RunRepository) GetRecentRejections(ctx context.Context, sourceName string, limit int) ([]StoredRejection, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, run_id, source_name, reason, detail, record, created_at
		FROM run_rejections
		WHERE source_name = ?
		ORDER BY id DESC
		LIMIT ?
	`, sourceName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get rejections: %w", err)
	}
	defer rows.Close()

	var rejections []StoredRejection
	for rows.Next() {
		var (
			rej            StoredRejection
			reason, record string
			created        string
		)
		if err := rows.Scan(&rej.ID, &rej.RunID, &rej.SourceName, &reason, &rej.Detail, &record, &created); err != nil {
			return nil, fmt.Errorf("failed to scan rejection row: %w", err)
		}
		rej.Reason = event.Reason(reason)
		if err := json.Unmarshal([]byte(record), &rej.Record); err != nil {
			return nil, fmt.Errorf("failed to decode rejected record: %w", err)
		}
		if rej.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		rejections = append(rejections, rej)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rejection rows: %w", err)
	}

	return rejections, nil
}

// GetRecentRuns returns the newest runs for a source
func (r *RunRepository) GetRecentRuns(ctx context.Context, sourceName string, limit int) ([]Run, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, source_name, origin, status, total, accepted, summary, error, started_at, finished_at
		FROM ingest_runs
		WHERE source_name = ?
		ORDER BY started_at DESC
		LIMIT ?
	`, sourceName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run      Run
			summary  string
			started  string
			finished sql.NullString
		)
		if err := rows.Scan(&run.ID, &run.SourceName, &run.Origin, &run.Status, &run.Total, &run.Accepted,
			&summary, &run.Error, &started, &finished); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		if err := json.Unmarshal([]byte(summary), &run.Summary); err != nil {
			return nil, fmt.Errorf("failed to decode run summary: %w", err)
		}
		if run.StartedAt, err = parseTime(started); err != nil {
			return nil, err
		}
		if run.FinishedAt, err = parseNullTime(finished); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run rows: %w", err)
	}

	return runs, nil
}
