package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/crosscheck-health/labrecon/internal/extract"
	"github.com/crosscheck-health/labrecon/internal/model"
	"github.com/crosscheck-health/labrecon/internal/reconcile"
)

// Each stage returns true to advance the state machine. A false return means
// the stage called fail() and the run halts.

func (p *Pipeline) extractStage(ctx context.Context, result *model.RunResult, doc extract.Document) bool {
	if strings.TrimSpace(doc.Text) == "" {
		return fail(result, fmt.Sprintf("extraction failed: document is empty: %s", doc.Name))
	}
	if len(p.sources) == 0 {
		return fail(result, "extraction failed: no sources configured")
	}

	payloads := extract.RunAll(ctx, p.sources, doc)
	result.Extractions = payloads

	for _, pl := range payloads {
		switch {
		case pl.Usable():
			result.Metadata.SuccessfulSources++
		case pl.Status == model.ExtractionFailed:
			result.Metadata.FailedSources++
		}
	}

	if result.Metadata.SuccessfulSources == 0 {
		return fail(result, "extraction failed: no successful extractions with valid records")
	}

	result.Status = model.RunStatusExtracted
	return true
}

func (p *Pipeline) consensusStage(ctx context.Context, result *model.RunResult, _ extract.Document) bool {
	successful := extract.Successful(result.Extractions)
	result.Statistical = reconcile.Statistical(successful, p.norm, p.threshold)

	if p.merger == nil {
		if result.Statistical.Empty() {
			return fail(result, "consensus failed: no records survived statistical consensus")
		}
		result.Merged = result.Statistical
		result.Status = model.RunStatusConsensusAnalyzed
		return true
	}

	external, err := p.merger.Merge(ctx, successful)
	switch {
	case err != nil:
		result.Errors = append(result.Errors, fmt.Sprintf("consensus merge error: %v", err))
		if result.Statistical.Empty() {
			return fail(result, "consensus failed: no records from either consensus")
		}
		zap.L().Warn("pipeline: external merge failed, using statistical consensus", zap.Error(err))
		result.Merged = result.Statistical
		result.Status = model.RunStatusConsensusWithErrors

	case external.Empty():
		if result.Statistical.Empty() {
			return fail(result, "consensus failed: no records from either consensus")
		}
		zap.L().Warn("pipeline: external merge produced no records, using statistical consensus")
		result.Merged = result.Statistical
		result.Status = model.RunStatusConsensusWithFallback

	default:
		result.Merged = reconcile.MergeSecondary(result.Statistical, external)
		result.Status = model.RunStatusConsensusAnalyzed
	}
	return true
}

func (p *Pipeline) validateStage(_ context.Context, result *model.RunResult, _ extract.Document) bool {
	successful := extract.Successful(result.Extractions)
	// Re-checked defensively; the extraction gate should make this unreachable.
	if len(successful) == 0 {
		return fail(result, "validation failed: no successful extractions to validate")
	}

	fields := make([]map[string]string, 0, len(successful))
	for _, pl := range successful {
		fields = append(fields, pl.Meta)
	}

	result.Validated, result.ValidatedConfidence = reconcile.ValidateFields(fields)
	result.Status = model.RunStatusValidated
	return true
}

func (p *Pipeline) normalizeStage(_ context.Context, result *model.RunResult, _ extract.Document) bool {
	if result.Merged.Empty() && len(result.Validated) == 0 {
		return fail(result, "normalization failed: no validated data to normalize")
	}

	result.Normalized = &model.NormalizedSet{
		Records:        p.norm.Records(result.Merged),
		Meta:           p.norm.Meta(result.Validated),
		MetaConfidence: result.ValidatedConfidence,
	}
	result.Status = model.RunStatusCompleted
	return true
}
