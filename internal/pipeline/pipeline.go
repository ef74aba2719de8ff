// Package pipeline orchestrates one reconciliation run as a linear state
// machine: extract, consensus, validate, normalize. Each stage either advances
// the run's status or moves it to failed with an appended error message;
// stages never execute once the run has failed.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/crosscheck-health/labrecon/internal/consensus"
	"github.com/crosscheck-health/labrecon/internal/extract"
	"github.com/crosscheck-health/labrecon/internal/model"
	"github.com/crosscheck-health/labrecon/internal/normalize"
	"github.com/crosscheck-health/labrecon/internal/reconcile"
	"github.com/crosscheck-health/labrecon/internal/store"
)

// Pipeline runs reconciliation over one document at a time. The components it
// holds are stateless, so a single Pipeline is safe for concurrent runs.
type Pipeline struct {
	sources   []extract.Source
	merger    consensus.Merger // nil disables the external merge
	norm      *normalize.Normalizer
	store     store.Store // nil disables persistence
	threshold float64
}

// New creates a Pipeline. merger and st may be nil; a nil merger skips the
// external merge (the statistical consensus is used directly), and a nil
// store disables persistence.
func New(sources []extract.Source, merger consensus.Merger, norm *normalize.Normalizer, st store.Store, threshold float64) *Pipeline {
	if threshold <= 0 {
		threshold = reconcile.DefaultConfidenceThreshold
	}
	return &Pipeline{
		sources:   sources,
		merger:    merger,
		norm:      norm,
		store:     st,
		threshold: threshold,
	}
}

// Run executes the full pipeline for one document. It never returns an error:
// the result always carries an explicit status, and on failure a non-empty
// ordered error log naming the stage that failed.
func (p *Pipeline) Run(ctx context.Context, doc extract.Document) *model.RunResult {
	log := zap.L().With(zap.String("document", doc.Name))
	log.Info("pipeline: starting run", zap.Int("sources", len(p.sources)))

	result := &model.RunResult{
		Status:   model.RunStatusStarted,
		Document: doc.Name,
		Metadata: model.RunMetadata{
			StartTime:    time.Now().UTC(),
			TotalSources: len(p.sources),
		},
	}

	runID := p.createRun(ctx, doc.Name)
	defer p.completeRun(ctx, runID, result)

	stages := []struct {
		name   string
		run    func(context.Context, *model.RunResult, extract.Document) bool
		output func(*model.RunResult) any
	}{
		{"extract", p.extractStage, func(r *model.RunResult) any { return r.Extractions }},
		{"consensus", p.consensusStage, func(r *model.RunResult) any { return r.Merged }},
		{"validate", p.validateStage, func(r *model.RunResult) any {
			return map[string]any{"validated": r.Validated, "confidence": r.ValidatedConfidence}
		}},
		{"normalize", p.normalizeStage, func(r *model.RunResult) any { return r.Normalized }},
	}

	for _, stage := range stages {
		if !stage.run(ctx, result, doc) {
			log.Warn("pipeline: run failed",
				zap.String("stage", stage.name),
				zap.Strings("errors", result.Errors),
			)
			return result
		}
		p.saveStage(ctx, runID, stage.name, stage.output(result))
		p.setStatus(ctx, runID, result.Status)
	}

	log.Info("pipeline: run completed",
		zap.Int("records", len(result.Normalized.Records)),
		zap.Int("successful_sources", result.Metadata.SuccessfulSources),
	)
	return result
}

// fail marks the run failed and appends a stage-naming message to the error log.
func fail(result *model.RunResult, msg string) bool {
	result.Errors = append(result.Errors, msg)
	result.Status = model.RunStatusFailed
	return false
}

// store helpers; persistence is fire-and-forget, failures only log.

func (p *Pipeline) createRun(ctx context.Context, document string) string {
	if p.store == nil {
		return ""
	}
	run, err := p.store.CreateRun(ctx, document)
	if err != nil {
		zap.L().Warn("pipeline: create run record", zap.Error(err))
		return ""
	}
	return run.ID
}

func (p *Pipeline) setStatus(ctx context.Context, runID string, status model.RunStatus) {
	if p.store == nil || runID == "" {
		return
	}
	if err := p.store.UpdateRunStatus(ctx, runID, status); err != nil {
		zap.L().Warn("pipeline: update run status", zap.Error(err))
	}
}

func (p *Pipeline) saveStage(ctx context.Context, runID, stage string, output any) {
	if p.store == nil || runID == "" {
		return
	}
	if err := p.store.SaveStageOutput(ctx, runID, stage, output); err != nil {
		zap.L().Warn("pipeline: save stage output", zap.String("stage", stage), zap.Error(err))
	}
}

func (p *Pipeline) completeRun(ctx context.Context, runID string, result *model.RunResult) {
	if p.store == nil || runID == "" {
		return
	}
	if err := p.store.CompleteRun(ctx, runID, result); err != nil {
		zap.L().Warn("pipeline: complete run record", zap.Error(err))
	}
}
