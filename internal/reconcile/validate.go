package reconcile

import (
	"math"
	"sort"
	"strconv"

	"github.com/crosscheck-health/labrecon/internal/normalize"
)

// outlierMinObservations is the observation count at which outlier rejection
// activates. Below it a wide 2-point spread is legitimate disagreement, not an
// outlier. Fixed regardless of source count.
const outlierMinObservations = 3

// outlierSigma is the rejection band in sample standard deviations.
const outlierSigma = 2.0

// ValidateFields computes a key-wise consensus across flat per-source field
// maps. For each key present in any payload the consensus is the mean of the
// numeric subset (outliers beyond 2 sigma discarded at n>=3), or the mode of
// the normalized strings when nothing parses. The confidence map holds, per
// key, the fraction of providing sources whose normalized value equals the
// normalized consensus. Empty input returns empty maps.
func ValidateFields(payloads []map[string]string) (map[string]string, map[string]float64) {
	consensus := make(map[string]string)
	confidence := make(map[string]float64)

	// Union of keys in first-seen order; keys within one payload sorted so the
	// result does not depend on map iteration order.
	var keys []string
	seen := make(map[string]bool)
	for _, p := range payloads {
		pk := make([]string, 0, len(p))
		for k := range p {
			pk = append(pk, k)
		}
		sort.Strings(pk)
		for _, k := range pk {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}

	for _, key := range keys {
		var values []string
		for _, p := range payloads {
			if v, ok := p[key]; ok {
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			continue
		}

		value := consensusValue(values)
		consensus[key] = value

		matching := 0
		for _, v := range values {
			if normalize.Fold(v) == normalize.Fold(value) {
				matching++
			}
		}
		confidence[key] = float64(matching) / float64(len(values))
	}

	return consensus, confidence
}

// consensusValue picks the consensus for one key's values: numeric average
// where possible, string mode otherwise.
func consensusValue(values []string) string {
	var nums []float64
	for _, v := range values {
		if f, ok := normalize.CleanNumeric(v); ok {
			nums = append(nums, f)
		}
	}
	if len(nums) > 0 {
		return formatFloat(numericConsensus(nums))
	}

	// Mode over normalized strings, first occurrence breaking ties.
	counts := make(map[string]int, len(values))
	var order []string
	for _, v := range values {
		folded := normalize.Fold(v)
		if _, ok := counts[folded]; !ok {
			order = append(order, folded)
		}
		counts[folded]++
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

// numericConsensus averages, discarding values more than outlierSigma sample
// standard deviations from the mean once outlierMinObservations are present.
// If rejection would discard everything, the first observation stands.
func numericConsensus(nums []float64) float64 {
	if len(nums) < outlierMinObservations {
		return mean(nums)
	}
	avg := mean(nums)
	sd := stddevSample(nums, avg)
	var kept []float64
	for _, x := range nums {
		if math.Abs(x-avg) <= outlierSigma*sd {
			kept = append(kept, x)
		}
	}
	if len(kept) == 0 {
		return nums[0]
	}
	return mean(kept)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
