// Package export writes the final normalized record set to CSV or XLSX files.
package export

import (
	"encoding/csv"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/crosscheck-health/labrecon/internal/model"
)

var recordHeader = []string{
	"test_name", "value", "unit", "reference_range", "confidence", "source_models", "original_value",
}

func recordRow(r model.NormalizedRecord) []string {
	return []string{
		r.TestName,
		r.Value.String(),
		r.Unit,
		r.ReferenceRange,
		strconv.FormatFloat(r.Confidence, 'f', -1, 64),
		strings.Join(r.SourceModels, ";"),
		r.OriginalValue,
	}
}

// WriteCSV writes the record set as CSV.
func WriteCSV(w io.Writer, set *model.NormalizedSet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(recordHeader); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for _, r := range set.Records {
		if err := cw.Write(recordRow(r)); err != nil {
			return eris.Wrap(err, "export: write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

// SaveCSV writes the record set as a CSV file at path.
func SaveCSV(path string, set *model.NormalizedSet) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	defer f.Close()
	return WriteCSV(f, set)
}

// SaveXLSX writes the record set as an XLSX workbook at path: a Results sheet
// with one row per record and a Report sheet with the validated flat fields.
func SaveXLSX(path string, set *model.NormalizedSet) error {
	f := xlsx.NewFile()

	results, err := f.AddSheet("Results")
	if err != nil {
		return eris.Wrap(err, "export: add results sheet")
	}
	headerRow := results.AddRow()
	for _, h := range recordHeader {
		headerRow.AddCell().Value = h
	}
	for _, r := range set.Records {
		row := results.AddRow()
		for _, cell := range recordRow(r) {
			row.AddCell().Value = cell
		}
	}

	if len(set.Meta) > 0 {
		report, err := f.AddSheet("Report")
		if err != nil {
			return eris.Wrap(err, "export: add report sheet")
		}
		headerRow := report.AddRow()
		for _, h := range []string{"field", "value", "confidence"} {
			headerRow.AddCell().Value = h
		}

		keys := make([]string, 0, len(set.Meta))
		for k := range set.Meta {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			row := report.AddRow()
			row.AddCell().Value = k
			row.AddCell().Value = set.Meta[k]
			if conf, ok := set.MetaConfidence[k]; ok {
				row.AddCell().Value = strconv.FormatFloat(conf, 'f', -1, 64)
			}
		}
	}

	return eris.Wrapf(f.Save(path), "export: save %s", path)
}
