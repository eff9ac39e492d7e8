package db

import (
	"time"

	"github.com/google/uuid"
)

// DefaultListLimit caps ListRuns when no limit is given.
const DefaultListLimit = 20

// Run status values
const (
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

// Step status values
const (
	StepStatusCompleted = "completed"
	StepStatusFailed    = "failed"
	StepStatusSkipped   = "skipped"
)

// Artifact step names
const (
	StepStory      = "story"
	StepCriteria   = "criteria"
	StepCandidates = "candidates"
	StepAdvisor    = "advisor"
	StepDedup      = "dedup"
	StepAccepted   = "accepted"
	StepRejections = "rejections"
	StepPublish    = "publish"
	StepSummary    = "summary"
)

// RunInput describes a run at creation time.
type RunInput struct {
	ID      uuid.UUID
	StoryID int
	Mode    string
	DryRun  bool
}

// RunCounts are the totals recorded when a run completes.
type RunCounts struct {
	Criteria int `json:"criteria"`
	Created  int `json:"created"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
	Rejected int `json:"rejected"`
	Errors   int `json:"errors"`
}

// Run represents a generation run record
type Run struct {
	ID          uuid.UUID  `json:"id"`
	StoryID     int        `json:"story_id"`
	Mode        string     `json:"mode"`
	DryRun      bool       `json:"dry_run"`
	Status      string     `json:"status"`
	Counts      RunCounts  `json:"counts"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// RunFilters holds optional filters for listing runs
type RunFilters struct {
	StoryID int
	Status  string
	Limit   int
}

// RunStepInput represents the outcome of one pipeline stage
type RunStepInput struct {
	Step       string
	Status     string
	Duration   time.Duration
	Error      string
	Parameters map[string]any
}

// RunStep represents a recorded pipeline stage
type RunStep struct {
	ID           uuid.UUID      `json:"id"`
	RunID        uuid.UUID      `json:"run_id"`
	Step         string         `json:"step"`
	Status       string         `json:"status"`
	DurationMs   *int           `json:"duration_ms,omitempty"`
	ErrorMessage *string        `json:"error_message,omitempty"`
	Parameters   map[string]any `json:"parameters,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}
