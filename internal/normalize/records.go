package normalize

import (
	"strings"

	"github.com/crosscheck-health/labrecon/internal/model"
)

// Records produces the final canonical record set from a merged consensus:
// display names alias-resolved, numeric values recovered from loosely
// formatted strings, units taken from the record or from the value string.
func (n *Normalizer) Records(set model.ConsensusSet) []model.NormalizedRecord {
	out := make([]model.NormalizedRecord, 0, len(set.Records))
	for _, rec := range set.Records {
		nr := model.NormalizedRecord{
			TestName:       n.Standardize(rec.TestName),
			Value:          rec.Value,
			Unit:           rec.Unit,
			ReferenceRange: rec.ReferenceRange,
			Confidence:     rec.Confidence,
			SourceModels:   rec.SourceModels,
		}

		if !rec.Value.IsNum() {
			raw := rec.Value.String()
			if f, ok := ExtractNumeric(raw); ok {
				nr.Value = model.NumValue(f)
				nr.OriginalValue = raw
			}
			if nr.Unit == "" {
				if u, ok := n.ExtractUnit(raw); ok {
					nr.Unit = u
				}
			}
		}

		out = append(out, nr)
	}
	return out
}

// Meta normalizes validated flat fields: any key that looks like a date field
// is reformatted to ISO 8601 when it parses. Other values pass through.
func (n *Normalizer) Meta(meta map[string]string) map[string]string {
	if len(meta) == 0 {
		return nil
	}
	out := make(map[string]string, len(meta))
	for k, v := range meta {
		if strings.Contains(Fold(k), "date") {
			if iso, ok := n.NormalizeDate(v); ok {
				out[k] = iso
				continue
			}
		}
		out[k] = v
	}
	return out
}
