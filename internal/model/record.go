package model

import "strings"

// UnknownTestName is the sentinel assigned when a source omits the test name.
const UnknownTestName = "Unknown Test"

// UnknownSourceID is the fallback when a record carries no source tag.
const UnknownSourceID = "unknown"

// ExtractionStatus describes the outcome of one source's extraction attempt.
type ExtractionStatus string

const (
	ExtractionSuccess ExtractionStatus = "success"
	ExtractionNoData  ExtractionStatus = "no_data"
	ExtractionFailed  ExtractionStatus = "failed"
)

// FieldRecord is one observed test result from one source.
type FieldRecord struct {
	TestName       string `json:"test_name"`
	Value          Value  `json:"value"`
	Unit           string `json:"unit"`
	ReferenceRange string `json:"reference_range"`
	SourceID       string `json:"source_id,omitempty"`
}

// Sanitized returns a copy with the sanitization invariants applied: TestName
// defaults to UnknownTestName, absent Value becomes the empty string, and
// SourceID falls back to the given source then to "unknown". Unit and
// ReferenceRange are never null in Go; they stay as-is.
func (r FieldRecord) Sanitized(sourceID string) FieldRecord {
	if strings.TrimSpace(r.TestName) == "" {
		r.TestName = UnknownTestName
	}
	if !r.Value.IsSet() {
		r.Value = StrValue("")
	}
	if r.SourceID == "" {
		r.SourceID = sourceID
	}
	if r.SourceID == "" {
		r.SourceID = UnknownSourceID
	}
	return r
}

// ExtractionPayload is the full output of one source for one document.
type ExtractionPayload struct {
	SourceID string            `json:"source_id"`
	Records  []FieldRecord     `json:"records"`
	Meta     map[string]string `json:"meta,omitempty"` // flat report-level fields (test date, lab name, ...)
	Notes    []string          `json:"notes,omitempty"`
	Status   ExtractionStatus  `json:"status"`
	Error    string            `json:"error,omitempty"` // present iff Status == ExtractionFailed
}

// FailedPayload builds a failed-status payload for a source.
func FailedPayload(sourceID string, err error) ExtractionPayload {
	msg := "extraction failed"
	if err != nil {
		msg = err.Error()
	}
	return ExtractionPayload{
		SourceID: sourceID,
		Status:   ExtractionFailed,
		Error:    msg,
	}
}

// Sanitize applies record-level sanitization to every record, tagging each
// with the payload's source. A success payload with zero records is demoted
// to no_data so the status invariant holds.
func (p ExtractionPayload) Sanitize() ExtractionPayload {
	out := p
	out.Records = make([]FieldRecord, 0, len(p.Records))
	for _, r := range p.Records {
		out.Records = append(out.Records, r.Sanitized(p.SourceID))
	}
	if out.Status == ExtractionSuccess && len(out.Records) == 0 {
		out.Status = ExtractionNoData
	}
	return out
}

// Usable reports whether the payload contributes records to consensus.
func (p ExtractionPayload) Usable() bool {
	return p.Status == ExtractionSuccess && len(p.Records) > 0
}
