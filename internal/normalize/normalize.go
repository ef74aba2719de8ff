// Package normalize canonicalizes biomarker names, loosely formatted values
// and dates. All lookup tables are immutable after construction; a Normalizer
// is safe for concurrent use across pipeline runs.
package normalize

import (
	"os"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// Tables holds the static lookup data injected into a Normalizer.
type Tables struct {
	// Aliases maps a canonical display name to its known variations.
	Aliases map[string][]string `yaml:"aliases"`
	// UnitPatterns is an ordered list of regex alternatives; the first pattern
	// that matches a value string wins.
	UnitPatterns []string `yaml:"unit_patterns"`
	// DateFormats is an ordered list of Go time layouts tried in sequence.
	DateFormats []string `yaml:"date_formats"`
}

// DefaultTables returns the built-in alias, unit and date tables.
func DefaultTables() Tables {
	return Tables{
		Aliases: map[string][]string{
			"Hemoglobin": {"Hb", "HGB", "Haemoglobin", "HB", "Hgb"},
			"RBC Count":  {"Red Blood Cells", "RBC", "Erythrocytes", "Red Cell Count", "RBCs"},
			"WBC Count":  {"White Blood Cells", "WBC", "Leukocytes", "White Cell Count", "WBCs"},
			"Platelets":  {"PLT", "Thrombocytes", "Platelet Count", "PLAT"},
			"Hematocrit": {"HCT", "PCV", "Packed Cell Volume", "Hct"},
			"MCV":        {"Mean Corpuscular Volume", "Mean Cell Volume"},
			"MCH":        {"Mean Corpuscular Hemoglobin", "Mean Cell Hemoglobin"},
			"MCHC":       {"Mean Corpuscular Hemoglobin Concentration"},
		},
		UnitPatterns: []string{
			`g/dL|g/L|g/100mL|g%`,
			`million/[uµ]L|million/mm3|10\^6/[uµ]L|M/[uµ]L`,
			`K/[uµ]L|thousand/[uµ]L|10\^3/[uµ]L`,
			`pg|fL|%`,
		},
		DateFormats: []string{
			"2006-01-02",
			"02-01-2006",
			"01-02-2006",
			"2006/01/02",
			"02/01/2006",
			"01/02/2006",
			"02.01.2006",
			"2006.01.02",
			"Jan 2, 2006",
			"2 Jan 2006",
			"2006 Jan 2",
			"January 2, 2006",
			"2 January 2006",
			"2006 January 2",
		},
	}
}

// LoadTables reads table overrides from a YAML file and merges them over the
// defaults. Empty sections keep the built-in data.
func LoadTables(path string) (Tables, error) {
	t := DefaultTables()
	data, err := os.ReadFile(path)
	if err != nil {
		return t, eris.Wrapf(err, "normalize: read tables %s", path)
	}
	var override Tables
	if err := yaml.Unmarshal(data, &override); err != nil {
		return t, eris.Wrapf(err, "normalize: parse tables %s", path)
	}
	for name, aliases := range override.Aliases {
		t.Aliases[name] = aliases
	}
	if len(override.UnitPatterns) > 0 {
		t.UnitPatterns = override.UnitPatterns
	}
	if len(override.DateFormats) > 0 {
		t.DateFormats = override.DateFormats
	}
	return t, nil
}

// Normalizer resolves aliases and extracts value/unit/date tokens.
type Normalizer struct {
	canonical   map[string]string // folded name or alias -> canonical display name
	unitRes     []*regexp.Regexp
	dateFormats []string
}

var numericTokenRe = regexp.MustCompile(`[-+]?\d*\.?\d+`)

// New builds a Normalizer from the given tables.
func New(t Tables) (*Normalizer, error) {
	n := &Normalizer{
		canonical:   make(map[string]string),
		dateFormats: t.DateFormats,
	}
	for name, aliases := range t.Aliases {
		n.canonical[Fold(name)] = name
		for _, a := range aliases {
			n.canonical[Fold(a)] = name
		}
	}
	for _, p := range t.UnitPatterns {
		re, err := regexp.Compile(`(?i)` + p)
		if err != nil {
			return nil, eris.Wrapf(err, "normalize: compile unit pattern %q", p)
		}
		n.unitRes = append(n.unitRes, re)
	}
	return n, nil
}

// MustNew builds a Normalizer from the default tables and panics on error.
// The default tables are covered by tests, so this is safe at startup.
func MustNew() *Normalizer {
	n, err := New(DefaultTables())
	if err != nil {
		panic(err)
	}
	return n
}

// Fold lower-cases and trims a name after NFKC normalization, so that
// compatibility variants (µ vs μ, fullwidth digits) compare equal.
func Fold(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFKC.String(s)))
}

// CanonicalKey maps a raw field name to its grouping key: folded, then
// alias-resolved. Unknown names pass through folded. Total and idempotent.
func (n *Normalizer) CanonicalKey(name string) string {
	folded := Fold(name)
	if std, ok := n.canonical[folded]; ok {
		return Fold(std)
	}
	return folded
}

// Standardize maps a display name to its canonical form, preserving the input
// unchanged (trimmed) when no alias matches.
func (n *Normalizer) Standardize(name string) string {
	if std, ok := n.canonical[Fold(name)]; ok {
		return std
	}
	return strings.TrimSpace(name)
}

// ExtractNumeric pulls the first numeric token out of a loosely formatted
// string ("13.4 g/dL" -> 13.4). Returns false when no token matches.
func ExtractNumeric(s string) (float64, bool) {
	if strings.TrimSpace(s) == "" {
		return 0, false
	}
	m := numericTokenRe.FindString(s)
	if m == "" || m == "-" || m == "+" || m == "." {
		return 0, false
	}
	f, err := parseFloat(m)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ExtractUnit scans the ordered unit pattern list and returns the first match
// found in the string. Returns false when no pattern matches.
func (n *Normalizer) ExtractUnit(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	for _, re := range n.unitRes {
		if m := re.FindString(s); m != "" {
			return m, true
		}
	}
	return "", false
}

// CleanNumeric strips everything but digits, decimal point and sign, then
// parses. Lenient counterpart to Value.AsNumber, used by the field validator.
func CleanNumeric(s string) (float64, bool) {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" || cleaned == "-" || cleaned == "." {
		return 0, false
	}
	f, err := parseFloat(cleaned)
	if err != nil {
		return 0, false
	}
	return f, true
}
