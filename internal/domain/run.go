package domain

import "time"

// RunStatus is the lifecycle state of an archive run.
type RunStatus string

const (
	RunStatusInProgress RunStatus = "in_progress"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusPartial    RunStatus = "partial"
	RunStatusFailed     RunStatus = "failed"
)

// Run is the manifest record for one archive run.
type Run struct {
	ID         string     `json:"id"`
	Org        string     `json:"org"`
	Dest       string     `json:"dest"`
	Status     RunStatus  `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Teams      int        `json:"teams"`
	Repos      int        `json:"repos"`
	Issues     int        `json:"issues"`
	Failures   int        `json:"failures"`
	Error      string     `json:"error,omitempty"`
}

// RepoRecord is the per-repository outcome within a run.
type RepoRecord struct {
	RunID        string    `json:"run_id"`
	Name         string    `json:"name"`
	FullName     string    `json:"full_name"`
	MirrorAction string    `json:"mirror_action"` // cloned, pulled, failed
	WikiAction   string    `json:"wiki_action"`   // cloned, pulled, failed, none
	Issues       int       `json:"issues"`
	Error        string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
