package model

import "time"

// RunStatus tracks the pipeline state machine for one reconciliation run.
type RunStatus string

const (
	RunStatusStarted               RunStatus = "started"
	RunStatusExtracted             RunStatus = "extracted"
	RunStatusConsensusAnalyzed     RunStatus = "consensus_analyzed"
	RunStatusConsensusWithFallback RunStatus = "consensus_analyzed_with_fallback"
	RunStatusConsensusWithErrors   RunStatus = "consensus_analyzed_with_errors"
	RunStatusValidated             RunStatus = "validated"
	RunStatusCompleted             RunStatus = "completed"
	RunStatusFailed                RunStatus = "failed"
)

// RunMetadata carries run-level bookkeeping.
type RunMetadata struct {
	StartTime         time.Time `json:"start_time"`
	TotalSources      int       `json:"total_sources"`
	SuccessfulSources int       `json:"successful_sources"`
	FailedSources     int       `json:"failed_sources"`
}

// RunResult is the structured outcome handed back to the caller. It is always
// returned, with Status and a non-empty Errors list on failure; the pipeline
// never surfaces an unhandled error.
type RunResult struct {
	Status              RunStatus           `json:"status"`
	Document            string              `json:"document"`
	Metadata            RunMetadata         `json:"metadata"`
	Extractions         []ExtractionPayload `json:"extractions,omitempty"`
	Statistical         ConsensusSet        `json:"statistical_consensus,omitempty"`
	Merged              ConsensusSet        `json:"merged_consensus,omitempty"`
	Validated           map[string]string   `json:"validated,omitempty"`
	ValidatedConfidence map[string]float64  `json:"validated_confidence,omitempty"`
	Normalized          *NormalizedSet      `json:"normalized,omitempty"`
	Errors              []string            `json:"errors,omitempty"`
}

// Run is a persisted reconciliation run.
type Run struct {
	ID        string     `json:"id"`
	Document  string     `json:"document"`
	Status    RunStatus  `json:"status"`
	Result    *RunResult `json:"result,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
