package pipeline

import (
	"context"
	"errors"

	"github.com/crosscheck-health/labrecon/internal/model"
	"github.com/crosscheck-health/labrecon/internal/store"
)

// recordingStore captures persistence calls so tests can assert on the
// lifecycle without a real database.
type recordingStore struct {
	fail      bool
	created   bool
	statuses  []model.RunStatus
	stages    []string
	completed *model.RunResult
}

var errStore = errors.New("store unavailable")

func (r *recordingStore) CreateRun(ctx context.Context, document string) (*model.Run, error) {
	if r.fail {
		return nil, errStore
	}
	r.created = true
	return &model.Run{ID: "run-1", Document: document, Status: model.RunStatusStarted}, nil
}

func (r *recordingStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	if r.fail {
		return errStore
	}
	r.statuses = append(r.statuses, status)
	return nil
}

func (r *recordingStore) CompleteRun(ctx context.Context, runID string, result *model.RunResult) error {
	if r.fail {
		return errStore
	}
	r.completed = result
	return nil
}

func (r *recordingStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	return nil, errStore
}

func (r *recordingStore) ListRuns(ctx context.Context, filter store.RunFilter) ([]model.Run, error) {
	return nil, errStore
}

func (r *recordingStore) SaveStageOutput(ctx context.Context, runID, stage string, output any) error {
	if r.fail {
		return errStore
	}
	r.stages = append(r.stages, stage)
	return nil
}

func (r *recordingStore) StageOutputs(ctx context.Context, runID string) ([]store.StageOutput, error) {
	return nil, errStore
}

func (r *recordingStore) Migrate(ctx context.Context) error { return nil }
func (r *recordingStore) Close() error                      { return nil }
