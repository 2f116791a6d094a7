package model

import "time"

// Run kinds.
const (
	KindDemo  = "demo"
	KindCount = "count"
)

// Run statuses.
const (
	StatusRunning = "running"
	StatusOK      = "ok"
	StatusFailed  = "failed"
	StatusStopped = "stopped"
)

// Run represents one execution of a demo or of the vehicle counter.
type Run struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Name       string    `json:"name"`
	Input      string    `json:"input"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	Total      int       `json:"total"`
}

// Duration returns how long the run took, or zero while it is still running.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// RunFilter contains filtering options for listing runs.
type RunFilter struct {
	Kind   string
	Name   string
	Status string
	Limit  int
}
