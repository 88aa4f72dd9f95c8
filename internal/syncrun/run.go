package syncrun

import (
	"context"
	"time"

	"webshopsync/internal/entity"
)

type Status string

const (
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusCanceled  Status = "CANCELED"
)

// Run is one batch synchronization. Since is the watermark the run read
// changes after; the next run starts from this run's StartedAt.
type Run struct {
	ID         string     `json:"id" db:"id"`
	StartedAt  time.Time  `json:"started_at" db:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty" db:"finished_at"`
	Status     Status     `json:"status" db:"status"`
	Since      time.Time  `json:"since" db:"since"`
	Pushed     int        `json:"pushed" db:"pushed"`
	Failed     int        `json:"failed" db:"failed"`
	Error      string     `json:"error,omitempty" db:"error"`
}

// Failure is one entity the webshop or the asset store refused. The next
// run reads it again whatever its timestamps.
type Failure struct {
	RunID  string      `db:"run_id"`
	Kind   entity.Kind `db:"kind"`
	Key    string      `db:"entity_key"`
	Reason string      `db:"reason"`
}

// Changes selects the local records of one kind a run pushes: everything
// changed after Since plus the keys listed in Retry.
type Changes struct {
	Since time.Time
	Retry []int64
}

type RunStore interface {
	CreateRun(ctx context.Context, run *Run) error
	UpdateRun(ctx context.Context, run *Run) error
	RecordFailure(ctx context.Context, f Failure) error
	// LastCompletedRun returns nil when no run has completed yet.
	LastCompletedRun(ctx context.Context) (*Run, error)
	Failures(ctx context.Context, runID string) ([]Failure, error)
}
