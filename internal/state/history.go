package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/nao1215/redditcorpus/internal/model"
)

// runTimeLayout is a fixed-width UTC layout, so that started_at sorts
// lexically in time order.
const runTimeLayout = "2006-01-02T15:04:05.000000000Z"

// History records finished runs in the runs table.
type History struct {
	db *DB
}

// NewHistory returns the run history stored in db.
func NewHistory(db *DB) *History {
	return &History{db: db}
}

// RunSummary is one row of the runs table, without the full result.
type RunSummary struct {
	RunID      string
	Mode       string
	StartedAt  time.Time
	FinishedAt time.Time
	StopReason model.StopReason
	Totals     model.RunningTotals
}

// Elapsed returns the wall-clock duration of the run.
func (s RunSummary) Elapsed() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// Save stores a finished run. Saving the same run id again replaces it.
func (h *History) Save(ctx context.Context, result *model.RunResult) error {
	if result.RunID == "" {
		return errors.New("run result has no run id")
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to serialize run result: %w", err)
	}

	query := `
	INSERT OR REPLACE INTO runs
		(run_id, mode, started_at, finished_at, stop_reason, posts, comments, words, result_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = h.db.db.ExecContext(ctx, query,
		result.RunID,
		result.Mode,
		result.StartedAt.UTC().Format(runTimeLayout),
		result.FinishedAt.UTC().Format(runTimeLayout),
		string(result.StopReason),
		result.Totals.Posts,
		result.Totals.Comments,
		result.Totals.Words,
		string(resultJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// List returns up to limit runs, newest first. A limit of zero or less
// returns every run.
func (h *History) List(ctx context.Context, limit int) ([]RunSummary, error) {
	query := `
	SELECT run_id, mode, started_at, finished_at, stop_reason, posts, comments, words
	FROM runs
	ORDER BY started_at DESC, rowid DESC
	`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := h.db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var results []RunSummary
	for rows.Next() {
		var (
			s          RunSummary
			startedAt  string
			finishedAt string
			stopReason string
		)
		err := rows.Scan(
			&s.RunID,
			&s.Mode,
			&startedAt,
			&finishedAt,
			&stopReason,
			&s.Totals.Posts,
			&s.Totals.Comments,
			&s.Totals.Words,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		s.StartedAt = parseTimestamp(startedAt)
		s.FinishedAt = parseTimestamp(finishedAt)
		s.StopReason = model.StopReason(stopReason)
		results = append(results, s)
	}

	return results, rows.Err()
}

// Latest returns the most recent run, or nil if no run was saved yet.
func (h *History) Latest(ctx context.Context) (*model.RunResult, error) {
	query := `
	SELECT result_json FROM runs
	ORDER BY started_at DESC, rowid DESC
	LIMIT 1
	`

	var resultJSON string
	err := h.db.db.QueryRowContext(ctx, query).Scan(&resultJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	return decodeRun(resultJSON)
}

// Get returns the run with the given id.
func (h *History) Get(ctx context.Context, runID string) (*model.RunResult, error) {
	var resultJSON string
	err := h.db.db.QueryRowContext(ctx, `SELECT result_json FROM runs WHERE run_id = ?`, runID).Scan(&resultJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return decodeRun(resultJSON)
}

func decodeRun(resultJSON string) (*model.RunResult, error) {
	var result model.RunResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, fmt.Errorf("failed to parse run result: %w", err)
	}
	return &result, nil
}

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	runTimeLayout,
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp tries each of timestampFormats and returns the zero
// time if none matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
