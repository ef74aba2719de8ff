// Package consensus produces an externally merged record set from multiple
// extractions by asking a reviewing model to reconcile them. Its output is a
// secondary opinion layered over the statistical consensus; a failure here is
// reported to the caller so the pipeline can fall back.
package consensus

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/crosscheck-health/labrecon/internal/model"
	"github.com/crosscheck-health/labrecon/internal/resilience"
	"github.com/crosscheck-health/labrecon/pkg/anthropic"
)

// Merger reconciles multiple extractions into one consensus set.
type Merger interface {
	Merge(ctx context.Context, payloads []model.ExtractionPayload) (model.ConsensusSet, error)
}

const mergePrompt = `You are a medical data validation expert. Analyze multiple extractions of the same lab report and determine the most accurate value for each test.

IMPORTANT: Return ONLY a valid JSON object. No other text, explanations or markdown formatting.

Step 1: Review all provided extractions. Identify common patterns, discrepancies and outliers.

Step 2: For each test, compare values across extractions, consider units and reference ranges, and pick the most reliable value with a confidence between 0 and 1.

Step 3: Return exactly this structure:

{
  "records": [
    {
      "test_name": "Hemoglobin",
      "value": 13.5,
      "unit": "g/dL",
      "reference_range": "13.0 - 17.0",
      "confidence": 0.95,
      "source_models": ["model1", "model2"]
    }
  ],
  "notes": [
    "Discrepancy in WBC count resolved by majority vote"
  ]
}`

const defaultMergeMaxTokens = 4096

// ClaudeMerger implements Merger using one reviewing Claude model.
type ClaudeMerger struct {
	model     string
	maxTokens int64
	client    anthropic.Client
}

// NewClaudeMerger creates a merger backed by the given reviewing model.
func NewClaudeMerger(modelName string, maxTokens int64, client anthropic.Client) *ClaudeMerger {
	if maxTokens <= 0 {
		maxTokens = defaultMergeMaxTokens
	}
	return &ClaudeMerger{model: modelName, maxTokens: maxTokens, client: client}
}

// mergeInput is the JSON document sent to the reviewing model.
type mergeInput struct {
	Extractions []model.ExtractionPayload `json:"extractions"`
	TotalModels int                       `json:"total_models"`
	ModelNames  []string                  `json:"model_names"`
}

// Merge sends every usable extraction to the reviewing model and parses its
// reconciled record set. Any failure, including an empty or structurally
// invalid response, is returned as an error; this merger never silently
// substitutes a partial result.
func (m *ClaudeMerger) Merge(ctx context.Context, payloads []model.ExtractionPayload) (model.ConsensusSet, error) {
	usable := make([]model.ExtractionPayload, 0, len(payloads))
	names := make([]string, 0, len(payloads))
	for _, p := range payloads {
		if p.Usable() {
			usable = append(usable, p)
			names = append(names, p.SourceID)
		}
	}
	if len(usable) == 0 {
		return model.ConsensusSet{}, eris.New("consensus: no usable extractions to merge")
	}

	input, err := json.MarshalIndent(mergeInput{
		Extractions: usable,
		TotalModels: len(usable),
		ModelNames:  names,
	}, "", "  ")
	if err != nil {
		return model.ConsensusSet{}, eris.Wrap(err, "consensus: encode merge input")
	}

	temp := 0.0
	resp, err := resilience.DoVal(ctx, resilience.DefaultRetryConfig("consensus:merge"),
		func(ctx context.Context) (*anthropic.MessageResponse, error) {
			return m.client.CreateMessage(ctx, anthropic.MessageRequest{
				Model:       m.model,
				MaxTokens:   m.maxTokens,
				System:      mergePrompt,
				Temperature: &temp,
				Messages: []anthropic.Message{
					{Role: "user", Content: string(input)},
				},
			})
		})
	if err != nil {
		return model.ConsensusSet{}, eris.Wrap(err, "consensus: merge request")
	}

	set, err := parseMerge(resp.Text())
	if err != nil {
		return model.ConsensusSet{}, err
	}
	set.SourceCount = len(usable)

	zap.L().Debug("consensus: merge done",
		zap.String("model", m.model),
		zap.Int("records", len(set.Records)),
		zap.Int64("input_tokens", resp.Usage.InputTokens),
		zap.Int64("output_tokens", resp.Usage.OutputTokens),
	)
	return set, nil
}
