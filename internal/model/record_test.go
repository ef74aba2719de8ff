package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitized_Defaults(t *testing.T) {
	r := FieldRecord{}.Sanitized("")
	assert.Equal(t, UnknownTestName, r.TestName)
	assert.True(t, r.Value.IsSet())
	assert.Equal(t, "", r.Value.String())
	assert.Equal(t, UnknownSourceID, r.SourceID)
}

func TestSanitized_KeepsExisting(t *testing.T) {
	r := FieldRecord{TestName: "Hb", Value: NumValue(13.4), SourceID: "m1"}.Sanitized("m2")
	assert.Equal(t, "Hb", r.TestName)
	assert.Equal(t, "m1", r.SourceID)
	n, ok := r.Value.Num()
	require.True(t, ok)
	assert.Equal(t, 13.4, n)
}

func TestSanitized_WhitespaceNameIsUnknown(t *testing.T) {
	r := FieldRecord{TestName: "   "}.Sanitized("m1")
	assert.Equal(t, UnknownTestName, r.TestName)
	assert.Equal(t, "m1", r.SourceID)
}

func TestPayloadSanitize_DemotesEmptySuccess(t *testing.T) {
	p := ExtractionPayload{SourceID: "m1", Status: ExtractionSuccess}
	got := p.Sanitize()
	assert.Equal(t, ExtractionNoData, got.Status)
	assert.False(t, got.Usable())
}

func TestPayloadSanitize_TagsRecords(t *testing.T) {
	p := ExtractionPayload{
		SourceID: "m1",
		Status:   ExtractionSuccess,
		Records:  []FieldRecord{{TestName: "Hb"}, {TestName: "WBC", SourceID: "m9"}},
	}
	got := p.Sanitize()
	require.Len(t, got.Records, 2)
	assert.Equal(t, "m1", got.Records[0].SourceID)
	assert.Equal(t, "m9", got.Records[1].SourceID)
	assert.True(t, got.Usable())
}

func TestFailedPayload(t *testing.T) {
	p := FailedPayload("m1", assert.AnError)
	assert.Equal(t, ExtractionFailed, p.Status)
	assert.NotEmpty(t, p.Error)
	assert.False(t, p.Usable())
}

func TestValueJSON_RoundTrip(t *testing.T) {
	var r FieldRecord
	require.NoError(t, json.Unmarshal([]byte(`{"test_name":"Hb","value":13.4,"unit":"g/dL"}`), &r))
	n, ok := r.Value.Num()
	require.True(t, ok)
	assert.Equal(t, 13.4, n)

	require.NoError(t, json.Unmarshal([]byte(`{"test_name":"Hb","value":"13.4"}`), &r))
	assert.False(t, r.Value.IsNum())
	assert.Equal(t, "13.4", r.Value.String())

	require.NoError(t, json.Unmarshal([]byte(`{"test_name":"Hb","value":null}`), &r))
	assert.False(t, r.Value.IsSet())

	out, err := json.Marshal(FieldRecord{TestName: "Hb", Value: NumValue(13.5)})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"value":13.5`)
}

func TestValueAsNumber(t *testing.T) {
	cases := []struct {
		in   Value
		want float64
		ok   bool
	}{
		{NumValue(7.2), 7.2, true},
		{StrValue("13.4"), 13.4, true},
		{StrValue(" 98 "), 98, true},
		{StrValue("12 g/dL"), 0, false},
		{StrValue("<5"), 0, false},
		{StrValue(""), 0, false},
		{Value{}, 0, false},
	}
	for _, c := range cases {
		got, ok := c.in.AsNumber()
		assert.Equal(t, c.ok, ok, "input %q", c.in.String())
		if ok {
			assert.Equal(t, c.want, got)
		}
	}
}
