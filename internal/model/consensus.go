package model

import "time"

// ConsensusRecord is the merged, confidence-scored result for one canonical key.
// Immutable once created; a secondary merge may supersede it wholesale.
type ConsensusRecord struct {
	TestName       string   `json:"test_name"`
	Value          Value    `json:"value"`
	Unit           string   `json:"unit"`
	ReferenceRange string   `json:"reference_range"`
	Confidence     float64  `json:"confidence"`
	SourceModels   []string `json:"source_models"`
}

// ConsensusSet is the output of one reconciliation pass.
type ConsensusSet struct {
	Records         []ConsensusRecord  `json:"records"`
	Notes           []string           `json:"notes,omitempty"`
	ConfidenceByKey map[string]float64 `json:"confidence_by_key"`
	SourceCount     int                `json:"source_count"`
	Timestamp       time.Time          `json:"timestamp"`
}

// Empty reports whether the set carries no records.
func (s ConsensusSet) Empty() bool { return len(s.Records) == 0 }

// NormalizedRecord is one record of the final canonical set: alias-resolved
// name, numeric value where one could be extracted, and a unit taken from the
// record or recovered from its raw value string.
type NormalizedRecord struct {
	TestName       string   `json:"test_name"`
	Value          Value    `json:"value"`
	Unit           string   `json:"unit,omitempty"`
	ReferenceRange string   `json:"reference_range,omitempty"`
	Confidence     float64  `json:"confidence"`
	SourceModels   []string `json:"source_models,omitempty"`
	OriginalValue  string   `json:"original_value,omitempty"`
}

// NormalizedSet is the final output of a completed run.
type NormalizedSet struct {
	Records        []NormalizedRecord `json:"records"`
	Meta           map[string]string  `json:"meta,omitempty"`
	MetaConfidence map[string]float64 `json:"meta_confidence,omitempty"`
}
