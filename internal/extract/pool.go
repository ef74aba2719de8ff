package extract

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/crosscheck-health/labrecon/internal/model"
)

// RunAll runs every source against the document concurrently, one worker per
// source. Each worker is fault-isolated: an error or panic in one source
// becomes a failed-status payload for that source and never cancels the rest.
// All results are collected before returning; there is no partial mode.
func RunAll(ctx context.Context, sources []Source, doc Document) []model.ExtractionPayload {
	results := make([]model.ExtractionPayload, len(sources))

	g := new(errgroup.Group)
	g.SetLimit(len(sources))

	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					zap.L().Error("extract: source panicked",
						zap.String("source", src.ID()),
						zap.Any("panic", r),
					)
					results[i] = model.FailedPayload(src.ID(), eris.Errorf("source panic: %v", r))
				}
			}()

			payload, err := src.Extract(ctx, doc)
			if err != nil {
				zap.L().Warn("extract: source failed",
					zap.String("source", src.ID()),
					zap.Error(err),
				)
				if payload.Status != model.ExtractionFailed {
					payload = model.FailedPayload(src.ID(), err)
				}
			}
			results[i] = payload
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Successful filters payloads down to those usable for consensus.
func Successful(payloads []model.ExtractionPayload) []model.ExtractionPayload {
	var out []model.ExtractionPayload
	for _, p := range payloads {
		if p.Usable() {
			out = append(out, p)
		}
	}
	return out
}
