package reconcile

import (
	"time"

	"github.com/crosscheck-health/labrecon/internal/model"
	"github.com/crosscheck-health/labrecon/internal/normalize"
)

// MergeSecondary combines the statistical consensus A with an independently
// produced consensus B, keyed by case-insensitive test name. B replaces an A
// record only when B's confidence is strictly greater; ties keep A. Keys only
// present in B are appended after A's, in B's order.
//
// The merged set's notes come entirely from B: A's notes are discarded even
// when B supplies none. That is deliberate policy carried over from the
// original merge, not an oversight.
func MergeSecondary(a, b model.ConsensusSet) model.ConsensusSet {
	byKey := make(map[string]model.ConsensusRecord, len(a.Records))
	var keyOrder []string

	for _, rec := range a.Records {
		key := normalize.Fold(rec.TestName)
		if _, seen := byKey[key]; !seen {
			keyOrder = append(keyOrder, key)
		}
		byKey[key] = rec
	}

	for _, rec := range b.Records {
		key := normalize.Fold(rec.TestName)
		existing, seen := byKey[key]
		if !seen {
			keyOrder = append(keyOrder, key)
			byKey[key] = rec
			continue
		}
		if rec.Confidence > existing.Confidence {
			byKey[key] = rec
		}
	}

	out := model.ConsensusSet{
		Notes:           b.Notes,
		ConfidenceByKey: make(map[string]float64, len(keyOrder)),
		SourceCount:     a.SourceCount,
		Timestamp:       time.Now().UTC(),
	}
	for _, key := range keyOrder {
		rec := byKey[key]
		out.Records = append(out.Records, rec)
		out.ConfidenceByKey[key] = rec.Confidence
	}
	return out
}
