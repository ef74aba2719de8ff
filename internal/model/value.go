package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Value holds a scalar observation that sources may report as a number, a
// string, or null. The zero Value is "absent".
type Value struct {
	num   float64
	str   string
	isNum bool
	isSet bool
}

// NumValue creates a numeric Value.
func NumValue(f float64) Value {
	return Value{num: f, isNum: true, isSet: true}
}

// StrValue creates a string Value.
func StrValue(s string) Value {
	return Value{str: s, isSet: true}
}

// IsSet reports whether the value is present (non-null).
func (v Value) IsSet() bool { return v.isSet }

// IsNum reports whether the value arrived as a native number.
func (v Value) IsNum() bool { return v.isNum }

// Num returns the numeric value and whether it is valid.
func (v Value) Num() (float64, bool) { return v.num, v.isNum && v.isSet }

// String returns the raw representation: the original string, or the numeric
// value formatted with minimal digits. Absent values render as "".
func (v Value) String() string {
	if !v.isSet {
		return ""
	}
	if v.isNum {
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	}
	return v.str
}

// PlainDigits reports whether the string form contains only digits and at most
// decimal points. Native numbers always qualify.
func (v Value) PlainDigits() bool {
	if !v.isSet {
		return false
	}
	if v.isNum {
		return true
	}
	s := strings.TrimSpace(v.str)
	if s == "" {
		return false
	}
	stripped := strings.ReplaceAll(s, ".", "")
	if stripped == "" {
		return false
	}
	for _, r := range stripped {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// AsNumber parses the value as a float where the representation contains only
// digits and decimal points. Returns false for anything looser ("12 g/dL",
// "<5", "-3"); lenient parsing belongs to the normalizer.
func (v Value) AsNumber() (float64, bool) {
	if !v.isSet {
		return 0, false
	}
	if v.isNum {
		return v.num, true
	}
	if !v.PlainDigits() {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// MarshalJSON encodes numbers as JSON numbers, strings as JSON strings and
// absent values as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.isSet {
		return []byte("null"), nil
	}
	if v.isNum {
		return json.Marshal(v.num)
	}
	return json.Marshal(v.str)
}

// UnmarshalJSON accepts a JSON number, string or null.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*v = Value{}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil && trimmed != "" && trimmed[0] != '"' {
		*v = NumValue(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = StrValue(s)
		return nil
	}
	// Anything else (object, array, bool) degrades to its raw text rather than
	// failing the whole payload decode.
	*v = StrValue(trimmed)
	return nil
}
