// Package store persists reconciliation runs and their per-stage outputs.
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/crosscheck-health/labrecon/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status   model.RunStatus `json:"status,omitempty"`
	Document string          `json:"document,omitempty"`
	Limit    int             `json:"limit,omitempty"`
	Offset   int             `json:"offset,omitempty"`
}

// StageOutput is one persisted stage snapshot of a run.
type StageOutput struct {
	RunID     string          `json:"run_id"`
	Stage     string          `json:"stage"`
	Output    json.RawMessage `json:"output"`
	CreatedAt time.Time       `json:"created_at"`
}

// Store defines the persistence interface for the reconciliation pipeline.
// Writes during a run are fire-and-forget from the pipeline's point of view:
// the caller logs failures and keeps going.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, document string) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	CompleteRun(ctx context.Context, runID string, result *model.RunResult) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Stage snapshots
	SaveStageOutput(ctx context.Context, runID, stage string, output any) error
	StageOutputs(ctx context.Context, runID string) ([]StageOutput, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
