package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosscheck-health/labrecon/internal/model"
)

func newNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	n, err := New(DefaultTables())
	require.NoError(t, err)
	return n
}

func TestCanonicalKey_Aliases(t *testing.T) {
	n := newNormalizer(t)
	for _, alias := range []string{"Hb", "HGB", "Haemoglobin", "hemoglobin", "  Hemoglobin  "} {
		assert.Equal(t, "hemoglobin", n.CanonicalKey(alias), alias)
	}
	assert.Equal(t, "wbc count", n.CanonicalKey("Leukocytes"))
}

func TestCanonicalKey_UnknownPassesThrough(t *testing.T) {
	n := newNormalizer(t)
	assert.Equal(t, "vitamin d", n.CanonicalKey("  Vitamin D "))
}

func TestCanonicalKey_Retraction(t *testing.T) {
	n := newNormalizer(t)
	for _, name := range []string{"Hb", "Hemoglobin", "Vitamin D", "PCV", "unknown thing"} {
		once := n.CanonicalKey(name)
		assert.Equal(t, once, n.CanonicalKey(once), name)
	}
}

func TestStandardize(t *testing.T) {
	n := newNormalizer(t)
	assert.Equal(t, "Hemoglobin", n.Standardize("hb"))
	assert.Equal(t, "Hemoglobin", n.Standardize("Hemoglobin"))
	assert.Equal(t, "Vitamin D", n.Standardize(" Vitamin D "))
	// Retraction on display names too.
	assert.Equal(t, n.Standardize("Hb"), n.Standardize(n.Standardize("Hb")))
}

func TestFold_CompatibilityVariants(t *testing.T) {
	// micro sign vs greek mu
	assert.Equal(t, Fold("µL"), Fold("μL"))
}

func TestExtractNumeric(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"13.4 g/dL", 13.4, true},
		{"  4500 ", 4500, true},
		{"-0.5", -0.5, true},
		{"+2.1 mg", 2.1, true},
		{"<5", 5, true},
		{"negative", 0, false},
		{"", 0, false},
	}
	for _, c := range cases {
		got, ok := ExtractNumeric(c.in)
		assert.Equal(t, c.ok, ok, c.in)
		if ok {
			assert.Equal(t, c.want, got, c.in)
		}
	}
}

func TestExtractUnit_FirstPatternWins(t *testing.T) {
	n := newNormalizer(t)

	u, ok := n.ExtractUnit("13.4 g/dL")
	require.True(t, ok)
	assert.Equal(t, "g/dL", u)

	u, ok = n.ExtractUnit("4.7 million/uL")
	require.True(t, ok)
	assert.Equal(t, "million/uL", u)

	// "g/dL" appears in an earlier pattern than "%", so it wins even when both
	// are present.
	u, ok = n.ExtractUnit("40 % or 13 g/dL")
	require.True(t, ok)
	assert.Equal(t, "g/dL", u)

	_, ok = n.ExtractUnit("no unit here")
	assert.False(t, ok)
}

func TestCleanNumeric(t *testing.T) {
	got, ok := CleanNumeric("13.4 g/dL")
	require.True(t, ok)
	assert.Equal(t, 13.4, got)

	got, ok = CleanNumeric("$1,250")
	require.True(t, ok)
	assert.Equal(t, 1250.0, got)

	_, ok = CleanNumeric("none")
	assert.False(t, ok)
}

func TestNormalizeDate_Formats(t *testing.T) {
	n := newNormalizer(t)
	cases := map[string]string{
		"2024-03-15":     "2024-03-15",
		"15-03-2024":     "2024-03-15",
		"2024/03/15":     "2024-03-15",
		"15/03/2024":     "2024-03-15",
		"15.03.2024":     "2024-03-15",
		"Mar 15, 2024":   "2024-03-15",
		"15 Mar 2024":    "2024-03-15",
		"March 15, 2024": "2024-03-15",
		"15 March 2024":  "2024-03-15",
	}
	for in, want := range cases {
		got, ok := n.NormalizeDate(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := n.NormalizeDate("not a date")
	assert.False(t, ok)
	_, ok = n.NormalizeDate("")
	assert.False(t, ok)
}

func TestNormalizeDate_RoundTripStable(t *testing.T) {
	n := newNormalizer(t)
	for _, in := range []string{"2024-03-15", "15/03/2024", "Mar 15, 2024", "2024 Mar 15"} {
		first, ok := n.NormalizeDate(in)
		require.True(t, ok, in)
		second, ok := n.NormalizeDate(first)
		require.True(t, ok, in)
		assert.Equal(t, first, second, in)
	}
}

func TestRecords_Normalization(t *testing.T) {
	n := newNormalizer(t)
	set := model.ConsensusSet{Records: []model.ConsensusRecord{
		{TestName: "Hb", Value: model.NumValue(13.5), Unit: "g/dl", Confidence: 0.99},
		{TestName: "WBC", Value: model.StrValue("4500 K/uL"), Confidence: 0.5},
		{TestName: "Notes", Value: model.StrValue("within range"), Confidence: 0.5},
	}}

	out := n.Records(set)
	require.Len(t, out, 3)

	assert.Equal(t, "Hemoglobin", out[0].TestName)
	assert.Equal(t, "g/dl", out[0].Unit)

	assert.Equal(t, "WBC Count", out[1].TestName)
	v, ok := out[1].Value.Num()
	require.True(t, ok)
	assert.Equal(t, 4500.0, v)
	assert.Equal(t, "K/uL", out[1].Unit)
	assert.Equal(t, "4500 K/uL", out[1].OriginalValue)

	// Non-numeric strings stay verbatim.
	assert.Equal(t, "within range", out[2].Value.String())
	assert.Empty(t, out[2].OriginalValue)
}

func TestMeta_DateNormalized(t *testing.T) {
	n := newNormalizer(t)
	out := n.Meta(map[string]string{
		"test_date": "15/03/2024",
		"lab_name":  "Acme Diagnostics",
	})
	assert.Equal(t, "2024-03-15", out["test_date"])
	assert.Equal(t, "Acme Diagnostics", out["lab_name"])
	assert.Nil(t, n.Meta(nil))
}

func TestLoadTables_MergesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/tables.yaml"
	require.NoError(t, writeFile(path, "aliases:\n  Glucose:\n    - GLU\n    - Blood Sugar\n"))

	tables, err := LoadTables(path)
	require.NoError(t, err)
	assert.Contains(t, tables.Aliases, "Glucose")
	assert.Contains(t, tables.Aliases, "Hemoglobin")

	n, err := New(tables)
	require.NoError(t, err)
	assert.Equal(t, "glucose", n.CanonicalKey("Blood Sugar"))
}
