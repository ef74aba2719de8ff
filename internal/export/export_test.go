package export

import (
	"bytes"
	"encoding/csv"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/crosscheck-health/labrecon/internal/model"
)

func sampleSet() *model.NormalizedSet {
	return &model.NormalizedSet{
		Records: []model.NormalizedRecord{
			{
				TestName:       "Hemoglobin",
				Value:          model.NumValue(13.5),
				Unit:           "g/dL",
				ReferenceRange: "13.0 - 17.0",
				Confidence:     0.95,
				SourceModels:   []string{"m1", "m2"},
			},
			{
				TestName:      "WBC Count",
				Value:         model.NumValue(6.1),
				Unit:          "K/µL",
				Confidence:    0.5,
				OriginalValue: "6.1 K/µL",
			},
		},
		Meta:           map[string]string{"test_date": "2024-03-15", "lab_name": "Acme"},
		MetaConfidence: map[string]float64{"test_date": 1.0},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleSet()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, recordHeader, rows[0])
	assert.Equal(t, []string{"Hemoglobin", "13.5", "g/dL", "13.0 - 17.0", "0.95", "m1;m2", ""}, rows[1])
	assert.Equal(t, "6.1 K/µL", rows[2][6])
}

func TestSaveCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, SaveCSV(path, sampleSet()))

	f, err := filepath.Glob(path)
	require.NoError(t, err)
	assert.Len(t, f, 1)
}

func TestSaveXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, SaveXLSX(path, sampleSet()))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 2)

	results := f.Sheets[0]
	assert.Equal(t, "Results", results.Name)
	require.Len(t, results.Rows, 3)
	assert.Equal(t, "Hemoglobin", results.Rows[1].Cells[0].Value)
	assert.Equal(t, "13.5", results.Rows[1].Cells[1].Value)

	report := f.Sheets[1]
	assert.Equal(t, "Report", report.Name)
	require.Len(t, report.Rows, 3) // header + two sorted fields
	assert.Equal(t, "lab_name", report.Rows[1].Cells[0].Value)
	assert.Equal(t, "test_date", report.Rows[2].Cells[0].Value)
	assert.Equal(t, "1", report.Rows[2].Cells[2].Value)
}

func TestSaveXLSX_NoMetaSkipsReportSheet(t *testing.T) {
	set := sampleSet()
	set.Meta = nil

	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, SaveXLSX(path, set))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	assert.Len(t, f.Sheets, 1)
}
