package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/codebuildervaibhav/lecture-assistant/internal/types"
)

// RunLog journals pipeline runs in SQLite for after-the-fact diagnostics.
// Failures here are advisory: callers log them and carry on.
type RunLog struct {
	db *sql.DB
}

// NewRunLog opens (or creates) the run journal database
func NewRunLog(dbPath string) (*RunLog, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open run journal: %v", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS pipeline_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL UNIQUE,
		video_name TEXT NOT NULL,
		status TEXT NOT NULL,
		failed_step TEXT,
		error TEXT,
		started_at DATETIME NOT NULL,
		finished_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON pipeline_runs(started_at);
	`

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create run journal table: %v", err)
	}

	return &RunLog{db: db}, nil
}

// StartRun records the beginning of a pipeline run
func (rl *RunLog) StartRun(runID, videoName string) error {
	query := `
	INSERT INTO pipeline_runs (run_id, video_name, status, started_at)
	VALUES (?, ?, ?, ?)
	`
	_, err := rl.db.Exec(query, runID, videoName, types.RunStatusRunning, time.Now())
	if err != nil {
		return fmt.Errorf("failed to record run start: %v", err)
	}
	return nil
}

// FinishRun records the outcome of a run. An empty failedStep and errMsg mark
// the run completed; anything else marks it failed at that step.
func (rl *RunLog) FinishRun(runID, failedStep, errMsg string) error {
	status := types.RunStatusCompleted
	if failedStep != "" || errMsg != "" {
		status = types.RunStatusFailed
	}

	query := `
	UPDATE pipeline_runs
	SET status = ?, failed_step = ?, error = ?, finished_at = ?
	WHERE run_id = ?
	`
	_, err := rl.db.Exec(query, status, failedStep, errMsg, time.Now(), runID)
	if err != nil {
		return fmt.Errorf("failed to record run finish: %v", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first
func (rl *RunLog) ListRuns(limit int) ([]types.RunRecord, error) {
	query := `
	SELECT run_id, video_name, status, failed_step, error, started_at, finished_at
	FROM pipeline_runs ORDER BY started_at DESC, id DESC LIMIT ?
	`

	rows, err := rl.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %v", err)
	}
	defer rows.Close()

	var runs []types.RunRecord
	for rows.Next() {
		var (
			rec        types.RunRecord
			failedStep sql.NullString
			errMsg     sql.NullString
			finishedAt sql.NullTime
		)
		if err := rows.Scan(&rec.RunID, &rec.VideoName, &rec.Status,
			&failedStep, &errMsg, &rec.StartedAt, &finishedAt); err != nil {
			continue
		}
		rec.FailedStep = failedStep.String
		rec.Error = errMsg.String
		if finishedAt.Valid {
			t := finishedAt.Time
			rec.FinishedAt = &t
		}
		runs = append(runs, rec)
	}

	return runs, nil
}

// Close closes the journal database
func (rl *RunLog) Close() error {
	return rl.db.Close()
}
