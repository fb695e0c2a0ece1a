package model

import "time"

// StopReason tells why a run ended.
type StopReason string

const (
	// StopTargetsReached means every configured target was met.
	StopTargetsReached StopReason = "targets_reached"

	// StopExhausted means the whole search space was visited.
	StopExhausted StopReason = "exhausted"

	// StopCancelled means the run was interrupted.
	StopCancelled StopReason = "cancelled"
)

// RunResult summarizes one crawl run.
type RunResult struct {
	RunID      string        `json:"run_id"`
	Mode       string        `json:"mode"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	StopReason StopReason    `json:"stop_reason"`
	Totals     RunningTotals `json:"totals"`

	// Searches is the number of search requests issued.
	Searches int `json:"searches"`

	// Candidates is the number of posts that passed the comment-count and
	// already-checked filters.
	Candidates int `json:"candidates"`

	// Classified and Approved count relevance gate decisions.
	Classified int `json:"classified"`
	Approved   int `json:"approved"`

	// Fetched and FetchFailures count thread detail requests.
	Fetched       int `json:"fetched"`
	FetchFailures int `json:"fetch_failures"`

	// Records is the number of comment records written this run.
	Records int `json:"records"`

	// RecordsBySubreddit breaks Records down per subreddit.
	RecordsBySubreddit map[string]int `json:"records_by_subreddit,omitempty"`
}

// Elapsed returns the wall-clock duration of the run.
func (r *RunResult) Elapsed() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
