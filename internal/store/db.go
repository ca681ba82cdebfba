package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"go-batch-generator/internal/model"
)

// RunRecord is one row of the run history
type RunRecord struct {
	ID             string            `json:"id"`
	Corpus         string            `json:"corpus"`
	Seed           int64             `json:"seed"`
	Workers        int               `json:"workers"`
	Status         string            `json:"status"`
	TotalGenerated int               `json:"total_generated"`
	Errors         int               `json:"errors"`
	LostItems      int               `json:"lost_items"`
	Error          string            `json:"error,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
	Request        *model.RunRequest `json:"request,omitempty"`
	Summary        *model.RunSummary `json:"summary,omitempty"`
}

// DB is the SQLite run history
type DB struct {
	db   *sql.DB
	path string
	Now  func() time.Time
}

// Open connects to the history database and creates tables if not exists
func Open(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer
	conn.SetMaxOpenConns(1)

	runTable := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		corpus TEXT,
		seed INTEGER,
		workers INTEGER,
		status TEXT,
		request TEXT,
		summary TEXT,
		total_generated INTEGER DEFAULT 0,
		errors INTEGER DEFAULT 0,
		lost_items INTEGER DEFAULT 0,
		error_message TEXT DEFAULT '',
		created_at DATETIME,
		updated_at DATETIME
	);
	`
	workerTable := `
	CREATE TABLE IF NOT EXISTS worker_stats (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT,
		phase TEXT,
		worker_id INTEGER,
		range_start INTEGER,
		range_end INTEGER,
		items_completed INTEGER,
		items_failed INTEGER,
		lost BOOLEAN,
		stats TEXT
	);
	`

	for _, stmt := range []string{runTable, workerTable} {
		if _, err := conn.Exec(stmt); err != nil {
			conn.Close()
			return nil, fmt.Errorf("init history schema: %w", err)
		}
	}

	return &DB{db: conn, path: dbPath, Now: time.Now}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) now() time.Time {
	if d.Now != nil {
		return d.Now().UTC()
	}
	return time.Now().UTC()
}

// MarkStarted records a run as running before any worker is launched
func (d *DB) MarkStarted(ctx context.Context, runID string, req model.RunRequest) error {
	reqJSON, err := json.Marshal(req)
	if err != nil {
		return err
	}
	var seed int64
	if req.Seed != nil {
		seed = *req.Seed
	}

	now := d.now()
	_, err = d.db.ExecContext(ctx, `
		INSERT INTO runs (id, corpus, seed, workers, status, request, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET status = excluded.status, request = excluded.request, updated_at = excluded.updated_at`,
		runID, req.Corpus, seed, req.Workers, StatusRunning, string(reqJSON), now, now)
	return err
}

// MarkFailed records the error that aborted a run
func (d *DB) MarkFailed(ctx context.Context, runID string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	_, err := d.db.ExecContext(ctx, `UPDATE runs SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		StatusFailed, msg, d.now(), runID)
	return err
}

// Save stores the final summary of a run together with its worker stats
func (d *DB) Save(ctx context.Context, summary model.RunSummary) (string, error) {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return "", err
	}

	status := StatusCompleted
	if summary.Degraded() {
		status = StatusDegraded
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	now := d.now()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, corpus, seed, workers, status, summary, total_generated, errors, lost_items, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			corpus = excluded.corpus,
			seed = excluded.seed,
			workers = excluded.workers,
			status = excluded.status,
			summary = excluded.summary,
			total_generated = excluded.total_generated,
			errors = excluded.errors,
			lost_items = excluded.lost_items,
			updated_at = excluded.updated_at`,
		summary.RunID, summary.Corpus, summary.Seed, summary.WorkerCount, status, string(summaryJSON),
		summary.TotalGenerated, summary.Errors, summary.LostItems, now, now)
	if err != nil {
		return "", fmt.Errorf("save run %s: %w", summary.RunID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM worker_stats WHERE run_id = ?`, summary.RunID); err != nil {
		return "", err
	}
	for _, ws := range summary.WorkerStats {
		statsJSON, err := json.Marshal(ws)
		if err != nil {
			return "", err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO worker_stats (run_id, phase, worker_id, range_start, range_end, items_completed, items_failed, lost, stats)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			summary.RunID, string(ws.Phase), ws.WorkerID, ws.Start, ws.End, ws.ItemsCompleted, ws.ItemsFailed, ws.Lost, string(statsJSON))
		if err != nil {
			return "", fmt.Errorf("save worker stats %s#%d: %w", ws.Phase, ws.WorkerID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s#%s", d.path, summary.RunID), nil
}

// LoadLatest returns the summary of the most recently finished run
func (d *DB) LoadLatest(ctx context.Context) (*model.RunSummary, error) {
	var summaryJSON string
	err := d.db.QueryRowContext(ctx, `
		SELECT summary FROM runs
		WHERE summary IS NOT NULL AND summary != ''
		ORDER BY updated_at DESC, rowid DESC LIMIT 1`).Scan(&summaryJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rs model.RunSummary
	if err := json.Unmarshal([]byte(summaryJSON), &rs); err != nil {
		return nil, err
	}
	return &rs, nil
}

const runColumns = `id, corpus, seed, workers, status, total_generated, errors, lost_items, error_message, created_at, updated_at`

// List returns runs with basic info, newest first
func (d *DB) List(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []RunRecord{}
	for rows.Next() {
		var r RunRecord
		if err := scanRun(rows, &r); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Get fetches a run with its request and summary
func (d *DB) Get(ctx context.Context, runID string) (*RunRecord, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+runColumns+`, COALESCE(request, ''), COALESCE(summary, '') FROM runs WHERE id = ?`, runID)

	var r RunRecord
	var reqJSON, summaryJSON string
	err := row.Scan(&r.ID, &r.Corpus, &r.Seed, &r.Workers, &r.Status, &r.TotalGenerated, &r.Errors, &r.LostItems,
		&r.Error, &r.CreatedAt, &r.UpdatedAt, &reqJSON, &summaryJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	if err != nil {
		return nil, err
	}

	if reqJSON != "" {
		r.Request = &model.RunRequest{}
		if err := json.Unmarshal([]byte(reqJSON), r.Request); err != nil {
			return nil, err
		}
	}
	if summaryJSON != "" {
		r.Summary = &model.RunSummary{}
		if err := json.Unmarshal([]byte(summaryJSON), r.Summary); err != nil {
			return nil, err
		}
	}
	return &r, nil
}

// WorkerStats returns the per-worker summaries of a run ordered by phase and worker id
func (d *DB) WorkerStats(ctx context.Context, runID string) ([]model.WorkerSummary, error) {
	if _, err := d.Get(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT stats FROM worker_stats WHERE run_id = ?
		ORDER BY CASE phase WHEN 'positive' THEN 0 ELSE 1 END, worker_id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := []model.WorkerSummary{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var ws model.WorkerSummary
		if err := json.Unmarshal([]byte(raw), &ws); err != nil {
			return nil, err
		}
		stats = append(stats, ws)
	}
	return stats, rows.Err()
}

func scanRun(rows *sql.Rows, r *RunRecord) error {
	return rows.Scan(&r.ID, &r.Corpus, &r.Seed, &r.Workers, &r.Status, &r.TotalGenerated, &r.Errors, &r.LostItems,
		&r.Error, &r.CreatedAt, &r.UpdatedAt)
}
