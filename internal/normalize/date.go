package normalize

import (
	"strconv"
	"strings"
	"time"
)

// ISODate is the canonical output layout for normalized dates.
const ISODate = "2006-01-02"

// NormalizeDate tries each configured date layout in order and returns the
// first successful parse reformatted as an ISO 8601 date. No timezone
// handling. Returns false when nothing parses.
func (n *Normalizer) NormalizeDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	for _, layout := range n.dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(ISODate), true
		}
	}
	return "", false
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}
