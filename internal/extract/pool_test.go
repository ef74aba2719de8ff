package extract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosscheck-health/labrecon/internal/model"
)

type fakeSource struct {
	id      string
	payload model.ExtractionPayload
	err     error
	panics  bool
	delay   time.Duration
}

func (f *fakeSource) ID() string { return f.id }

func (f *fakeSource) Extract(ctx context.Context, doc Document) (model.ExtractionPayload, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.panics {
		panic("source exploded")
	}
	return f.payload, f.err
}

func okSource(id string) *fakeSource {
	return &fakeSource{id: id, payload: model.ExtractionPayload{
		SourceID: id,
		Status:   model.ExtractionSuccess,
		Records:  []model.FieldRecord{{TestName: "Hb", Value: model.NumValue(13.5), SourceID: id}},
	}}
}

func TestRunAll_AllSucceed(t *testing.T) {
	sources := []Source{okSource("m1"), okSource("m2"), okSource("m3")}
	results := RunAll(context.Background(), sources, Document{Text: "report"})

	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, sources[i].ID(), r.SourceID)
		assert.Equal(t, model.ExtractionSuccess, r.Status)
	}
	assert.Len(t, Successful(results), 3)
}

func TestRunAll_OneFailureIsIsolated(t *testing.T) {
	sources := []Source{
		okSource("m1"),
		&fakeSource{id: "m2", err: errors.New("api down")},
		okSource("m3"),
	}
	results := RunAll(context.Background(), sources, Document{})

	require.Len(t, results, 3)
	assert.Equal(t, model.ExtractionSuccess, results[0].Status)
	assert.Equal(t, model.ExtractionFailed, results[1].Status)
	assert.Contains(t, results[1].Error, "api down")
	assert.Equal(t, model.ExtractionSuccess, results[2].Status)
	assert.Len(t, Successful(results), 2)
}

func TestRunAll_PanicBecomesFailedPayload(t *testing.T) {
	sources := []Source{
		&fakeSource{id: "m1", panics: true},
		okSource("m2"),
	}
	results := RunAll(context.Background(), sources, Document{})

	require.Len(t, results, 2)
	assert.Equal(t, model.ExtractionFailed, results[0].Status)
	assert.Contains(t, results[0].Error, "panic")
	assert.Equal(t, model.ExtractionSuccess, results[1].Status)
}

func TestRunAll_SlowSourceDoesNotDropOthers(t *testing.T) {
	sources := []Source{
		&fakeSource{id: "m1", delay: 50 * time.Millisecond, err: errors.New("timeout")},
		okSource("m2"),
	}
	results := RunAll(context.Background(), sources, Document{})
	require.Len(t, results, 2)
	assert.Equal(t, model.ExtractionFailed, results[0].Status)
	assert.Equal(t, model.ExtractionSuccess, results[1].Status)
}

func TestRunAll_NoSources(t *testing.T) {
	assert.Empty(t, RunAll(context.Background(), nil, Document{}))
}

func TestSuccessful_FiltersEmptyRecordSets(t *testing.T) {
	payloads := []model.ExtractionPayload{
		{SourceID: "m1", Status: model.ExtractionSuccess, Records: []model.FieldRecord{{TestName: "Hb"}}},
		{SourceID: "m2", Status: model.ExtractionNoData},
		{SourceID: "m3", Status: model.ExtractionFailed, Error: "x"},
	}
	got := Successful(payloads)
	require.Len(t, got, 1)
	assert.Equal(t, "m1", got[0].SourceID)
}
