package extract

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/crosscheck-health/labrecon/internal/model"
	"github.com/crosscheck-health/labrecon/internal/resilience"
	"github.com/crosscheck-health/labrecon/pkg/anthropic"
)

const extractionPrompt = `You are a medical data extraction assistant. Extract every biomarker lab test result from the lab report text provided by the user.

IMPORTANT: Return ONLY a valid JSON object. No other text, explanations or markdown formatting.

Rules:
- Extract all available test results as structured data.
- Use standard English medical terminology.
- Include units and reference ranges exactly as printed.
- Convert commas used as decimal separators into periods.
- Put report-level facts (test date, lab name, patient fields) into "meta".

Return exactly this structure:

{
  "records": [
    {
      "test_name": "Hemoglobin",
      "value": 13.5,
      "unit": "g/dL",
      "reference_range": "13.0 - 17.0"
    }
  ],
  "meta": {
    "test_date": "2024-03-15",
    "lab_name": "Acme Diagnostics"
  },
  "notes": [
    "Converted commas to periods"
  ]
}`

// maxDocumentChars bounds how much report text is sent per request.
const maxDocumentChars = 32000

// ClaudeSource extracts lab records using one Claude model.
type ClaudeSource struct {
	id        string
	model     string
	maxTokens int64
	client    anthropic.Client
}

// NewClaudeSource creates a Claude-backed extraction source.
func NewClaudeSource(id, modelName string, maxTokens int64, client anthropic.Client) *ClaudeSource {
	if maxTokens <= 0 {
		maxTokens = 8192
	}
	return &ClaudeSource{id: id, model: modelName, maxTokens: maxTokens, client: client}
}

func (s *ClaudeSource) ID() string { return s.id }

// Extract calls the model once (with per-call retry on transient API errors)
// and parses its JSON into a sanitized payload tagged with this source's ID.
func (s *ClaudeSource) Extract(ctx context.Context, doc Document) (model.ExtractionPayload, error) {
	text := doc.Text
	if len(text) > maxDocumentChars {
		text = text[:maxDocumentChars]
	}

	temp := 0.0
	resp, err := resilience.DoVal(ctx, resilience.DefaultRetryConfig("extract:"+s.id),
		func(ctx context.Context) (*anthropic.MessageResponse, error) {
			return s.client.CreateMessage(ctx, anthropic.MessageRequest{
				Model:       s.model,
				MaxTokens:   s.maxTokens,
				System:      extractionPrompt,
				Temperature: &temp,
				Messages: []anthropic.Message{
					{Role: "user", Content: "Lab report text:\n\n" + text},
				},
			})
		})
	if err != nil {
		return model.FailedPayload(s.id, err), eris.Wrapf(err, "extract: source %s", s.id)
	}

	payload, err := s.parse(resp.Text())
	if err != nil {
		return model.FailedPayload(s.id, err), eris.Wrapf(err, "extract: source %s", s.id)
	}

	zap.L().Debug("extract: source done",
		zap.String("source", s.id),
		zap.Int("records", len(payload.Records)),
		zap.Int64("input_tokens", resp.Usage.InputTokens),
		zap.Int64("output_tokens", resp.Usage.OutputTokens),
	)
	return payload, nil
}

func (s *ClaudeSource) parse(content string) (model.ExtractionPayload, error) {
	raw, err := ExtractJSON(content)
	if err != nil {
		return model.ExtractionPayload{}, err
	}

	var decoded struct {
		Records []model.FieldRecord `json:"records"`
		Meta    map[string]string   `json:"meta"`
		Notes   []string            `json:"notes"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return model.ExtractionPayload{}, eris.Wrap(err, "extract: decode response")
	}

	payload := model.ExtractionPayload{
		SourceID: s.id,
		Records:  decoded.Records,
		Meta:     decoded.Meta,
		Notes:    decoded.Notes,
		Status:   model.ExtractionSuccess,
	}
	return payload.Sanitize(), nil
}
