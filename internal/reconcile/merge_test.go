package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosscheck-health/labrecon/internal/model"
)

func consensusSet(notes []string, recs ...model.ConsensusRecord) model.ConsensusSet {
	return model.ConsensusSet{Records: recs, Notes: notes, SourceCount: 3}
}

func TestMergeSecondary_EmptyBIsIdentityOnRecords(t *testing.T) {
	a := consensusSet(
		[]string{"statistical note"},
		model.ConsensusRecord{TestName: "Hemoglobin", Confidence: 0.9},
		model.ConsensusRecord{TestName: "WBC Count", Confidence: 0.8},
	)
	out := MergeSecondary(a, model.ConsensusSet{})

	require.Len(t, out.Records, 2)
	assert.Equal(t, a.Records, out.Records)
	// A's notes are discarded by design, even when B has none.
	assert.Empty(t, out.Notes)
	assert.Equal(t, a.SourceCount, out.SourceCount)
}

func TestMergeSecondary_StrictlyGreaterReplaces(t *testing.T) {
	a := consensusSet(nil, model.ConsensusRecord{TestName: "Hemoglobin", Value: model.NumValue(13.5), Confidence: 0.8})
	b := consensusSet(nil, model.ConsensusRecord{TestName: "hemoglobin", Value: model.NumValue(13.6), Confidence: 0.95})

	out := MergeSecondary(a, b)
	require.Len(t, out.Records, 1)
	v, _ := out.Records[0].Value.Num()
	assert.Equal(t, 13.6, v)
	assert.Equal(t, 0.95, out.Records[0].Confidence)
}

func TestMergeSecondary_TieKeepsA(t *testing.T) {
	a := consensusSet(nil, model.ConsensusRecord{TestName: "Hemoglobin", Value: model.NumValue(13.5), Confidence: 0.9})
	b := consensusSet(nil, model.ConsensusRecord{TestName: "Hemoglobin", Value: model.NumValue(99), Confidence: 0.9})

	out := MergeSecondary(a, b)
	require.Len(t, out.Records, 1)
	v, _ := out.Records[0].Value.Num()
	assert.Equal(t, 13.5, v)
}

func TestMergeSecondary_LowerConfidenceBKeepsA(t *testing.T) {
	a := consensusSet(nil, model.ConsensusRecord{TestName: "Hemoglobin", Value: model.NumValue(13.5), Confidence: 0.9})
	b := consensusSet(nil, model.ConsensusRecord{TestName: "Hemoglobin", Value: model.NumValue(99), Confidence: 0.5})

	out := MergeSecondary(a, b)
	v, _ := out.Records[0].Value.Num()
	assert.Equal(t, 13.5, v)
}

func TestMergeSecondary_BOnlyKeysAppendAfterA(t *testing.T) {
	a := consensusSet(nil,
		model.ConsensusRecord{TestName: "Hemoglobin", Confidence: 0.9},
		model.ConsensusRecord{TestName: "WBC Count", Confidence: 0.8},
	)
	b := consensusSet([]string{"llm note"},
		model.ConsensusRecord{TestName: "Platelets", Confidence: 0.7},
		model.ConsensusRecord{TestName: "MCV", Confidence: 0.6},
	)

	out := MergeSecondary(a, b)
	require.Len(t, out.Records, 4)
	names := []string{out.Records[0].TestName, out.Records[1].TestName, out.Records[2].TestName, out.Records[3].TestName}
	assert.Equal(t, []string{"Hemoglobin", "WBC Count", "Platelets", "MCV"}, names)
	assert.Equal(t, []string{"llm note"}, out.Notes)
	assert.Equal(t, 0.7, out.ConfidenceByKey["platelets"])
}

func TestMergeSecondary_NotesAlwaysFromB(t *testing.T) {
	a := consensusSet([]string{"from a"}, model.ConsensusRecord{TestName: "Hb", Confidence: 0.9})
	b := consensusSet([]string{"from b"})
	out := MergeSecondary(a, b)
	assert.Equal(t, []string{"from b"}, out.Notes)
}
