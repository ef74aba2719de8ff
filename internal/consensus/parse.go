package consensus

import (
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"

	"github.com/crosscheck-health/labrecon/internal/extract"
	"github.com/crosscheck-health/labrecon/internal/model"
	"github.com/crosscheck-health/labrecon/internal/normalize"
)

// parseMerge decodes the reviewing model's output into a consensus set.
// Records missing a test name are dropped; confidences are clamped to [0, 1].
// A response with no JSON, undecodable JSON, or zero surviving records is an
// error so the caller can fall back to the statistical consensus.
func parseMerge(content string) (model.ConsensusSet, error) {
	raw, err := extract.ExtractJSON(content)
	if err != nil {
		return model.ConsensusSet{}, eris.Wrap(err, "consensus: merge response")
	}

	var decoded struct {
		Records []model.ConsensusRecord `json:"records"`
		Notes   []string                `json:"notes"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return model.ConsensusSet{}, eris.Wrap(err, "consensus: decode merge response")
	}

	set := model.ConsensusSet{
		Notes:           decoded.Notes,
		ConfidenceByKey: make(map[string]float64, len(decoded.Records)),
		Timestamp:       time.Now().UTC(),
	}
	for _, rec := range decoded.Records {
		if rec.TestName == "" {
			continue
		}
		if rec.Confidence < 0 {
			rec.Confidence = 0
		}
		if rec.Confidence > 1 {
			rec.Confidence = 1
		}
		set.Records = append(set.Records, rec)
		set.ConfidenceByKey[normalize.Fold(rec.TestName)] = rec.Confidence
	}
	if len(set.Records) == 0 {
		return model.ConsensusSet{}, eris.New("consensus: merge produced no records")
	}
	return set, nil
}
