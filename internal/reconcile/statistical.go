// Package reconcile merges N noisy, independently produced extractions of the
// same lab report into one confidence-scored record set. All functions are
// pure with respect to shared state and safe to call concurrently across runs.
package reconcile

import (
	"math"
	"strings"
	"time"

	"github.com/crosscheck-health/labrecon/internal/model"
	"github.com/crosscheck-health/labrecon/internal/normalize"
)

// DefaultConfidenceThreshold gates which multi-source groups are admitted to
// the statistical consensus.
const DefaultConfidenceThreshold = 0.7

// Statistical computes a deterministic consensus over the given extraction
// payloads. Records are grouped across sources by canonical key; numeric
// groups are averaged with agreement-based confidence, and only groups at or
// above threshold are admitted. Single-record groups are copied verbatim at
// confidence 0.5. Empty input yields an empty set, not an error.
func Statistical(payloads []model.ExtractionPayload, n *normalize.Normalizer, threshold float64) model.ConsensusSet {
	out := model.ConsensusSet{
		ConfidenceByKey: make(map[string]float64),
		SourceCount:     len(payloads),
		Timestamp:       time.Now().UTC(),
	}
	if len(payloads) == 0 {
		return out
	}

	// Group records across all payloads by canonical key, preserving arrival
	// order of both keys and records within a group.
	groups := make(map[string][]model.FieldRecord)
	var keyOrder []string
	for _, p := range payloads {
		p = p.Sanitize()
		for _, rec := range p.Records {
			key := n.CanonicalKey(rec.TestName)
			if key == "" {
				continue
			}
			if _, seen := groups[key]; !seen {
				keyOrder = append(keyOrder, key)
			}
			groups[key] = append(groups[key], rec)
		}
	}

	for _, key := range keyOrder {
		recs := groups[key]

		if len(recs) < 2 {
			only := recs[0]
			out.Records = append(out.Records, model.ConsensusRecord{
				TestName:       only.TestName,
				Value:          only.Value,
				Unit:           only.Unit,
				ReferenceRange: only.ReferenceRange,
				Confidence:     0.5,
				SourceModels:   []string{only.SourceID},
			})
			out.ConfidenceByKey[key] = 0.5
			continue
		}

		value, confidence := valueConsensus(recs)
		unit := modeString(recs, func(r model.FieldRecord) string {
			return strings.ToLower(strings.TrimSpace(r.Unit))
		})
		refRange := modeString(recs, func(r model.FieldRecord) string {
			return strings.TrimSpace(r.ReferenceRange)
		})

		if confidence < threshold {
			continue
		}

		out.Records = append(out.Records, model.ConsensusRecord{
			TestName:       recs[0].TestName, // first-seen original casing
			Value:          value,
			Unit:           unit,
			ReferenceRange: refRange,
			Confidence:     confidence,
			SourceModels:   sourceModels(recs),
		})
		out.ConfidenceByKey[key] = confidence
	}

	return out
}

// valueConsensus averages the numeric subset of a group's values. Confidence
// is 1 - stddev/mean (population stddev), forced to 0 when the mean is 0 and
// clamped to [0, 1] since a negative mean pushes the ratio out of range. A
// group with no parseable numbers keeps its first raw value at 0.5.
func valueConsensus(recs []model.FieldRecord) (model.Value, float64) {
	var nums []float64
	for _, r := range recs {
		if f, ok := r.Value.AsNumber(); ok {
			nums = append(nums, f)
		}
	}
	if len(nums) == 0 {
		return recs[0].Value, 0.5
	}

	avg := mean(nums)
	if avg == 0 {
		return model.NumValue(avg), 0
	}
	conf := 1 - stddevPop(nums, avg)/avg
	if conf < 0 {
		conf = 0
	} else if conf > 1 {
		conf = 1
	}
	return model.NumValue(avg), conf
}

// modeString returns the most frequent projected value, ties broken by first
// occurrence in arrival order.
func modeString(recs []model.FieldRecord, project func(model.FieldRecord) string) string {
	counts := make(map[string]int, len(recs))
	var order []string
	for _, r := range recs {
		v := project(r)
		if _, seen := counts[v]; !seen {
			order = append(order, v)
		}
		counts[v]++
	}
	best := ""
	bestCount := -1
	for _, v := range order {
		if counts[v] > bestCount {
			best = v
			bestCount = counts[v]
		}
	}
	return best
}

// sourceModels collects the ordered distinct source IDs of a group.
func sourceModels(recs []model.FieldRecord) []string {
	seen := make(map[string]bool, len(recs))
	var out []string
	for _, r := range recs {
		id := r.SourceID
		if id == "" {
			id = model.UnknownSourceID
		}
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddevPop(xs []float64, avg float64) float64 {
	sum := 0.0
	for _, x := range xs {
		d := x - avg
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}

func stddevSample(xs []float64, avg float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		d := x - avg
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)-1))
}
