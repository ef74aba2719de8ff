// Package extract runs independent structured extractions of one lab report
// document across multiple sources.
package extract

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/crosscheck-health/labrecon/internal/model"
)

// Document is the text content of a lab report handed to every source.
type Document struct {
	Name string // path or URL the report came from
	Text string
}

// Source is one independent producer of a structured extraction. Extract may
// return an error or a failed-status payload; either way every record in a
// returned payload is tagged with the source's ID.
type Source interface {
	ID() string
	Extract(ctx context.Context, doc Document) (model.ExtractionPayload, error)
}

// ExtractJSON pulls the first JSON object out of model output, tolerating
// markdown fences and surrounding prose.
func ExtractJSON(content string) ([]byte, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end < start {
		return nil, eris.New("extract: no JSON object in response")
	}
	return []byte(content[start : end+1]), nil
}
