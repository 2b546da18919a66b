package database

import (
	"time"
)

const (
	RunStatusRunning = "running"
	RunStatusDone    = "done"
	RunStatusFailed  = "failed"
)

const (
	PostStatusPending  = "pending"
	PostStatusComplete = "complete"
	PostStatusFailed   = "failed"
)

// Run is one harvest invocation.
type Run struct {
	ID         string     `json:"id"`
	Chat       string     `json:"chat"`
	Target     int        `json:"target"`
	Archived   int        `json:"archived"`
	Skipped    int        `json:"skipped"`
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Post tracks one archive entry written by a run.
type Post struct {
	RunID       string    `json:"run_id"`
	DirName     string    `json:"dir_name"`
	DateKey     string    `json:"date_key"`
	Status      string    `json:"status"`
	Stage       string    `json:"stage,omitempty"`
	ImageCount  int       `json:"image_count"`
	ContentHash string    `json:"content_hash,omitempty"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
