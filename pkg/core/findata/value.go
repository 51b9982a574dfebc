package findata

import (
	"strconv"
	"strings"
)

// magnitudeWords maps spelled-out magnitudes to multipliers.
var magnitudeWords = []struct {
	word string
	mult float64
}{
	{"trillion", 1e12},
	{"billion", 1e9},
	{"million", 1e6},
	{"thousand", 1e3},
}

// parseValue normalizes one value cell or token. Handles currency symbols,
// thousands separators, K/M/B/T magnitude suffixes (and their spelled-out
// forms), trailing percent signs, and negatives written with a leading minus
// or enclosing parentheses. Returns ok=false for anything non-numeric.
func parseValue(raw string) (value float64, percent bool, ok bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false, false
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.TrimSpace(s)

	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	if strings.HasSuffix(s, "%") {
		percent = true
		s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
		// Parenthesized percentages may close inside the sign: "(5.2%)"
		// was handled above, "(5.2)%" lands here.
		if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
			neg = true
			s = strings.TrimSpace(s[1 : len(s)-1])
		}
	}

	s = strings.ReplaceAll(s, ",", "")
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	mult := 1.0
	lower := strings.ToLower(s)
	for _, m := range magnitudeWords {
		if strings.HasSuffix(lower, m.word) {
			mult = m.mult
			s = strings.TrimSpace(s[:len(s)-len(m.word)])
			break
		}
	}
	if mult == 1 && len(s) > 0 {
		switch s[len(s)-1] {
		case 'k', 'K':
			mult = 1e3
		case 'm', 'M':
			mult = 1e6
		case 'b', 'B':
			mult = 1e9
		case 't', 'T':
			mult = 1e12
		}
		if mult != 1 {
			s = strings.TrimSpace(s[:len(s)-1])
		}
	}

	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false, false
	}

	if !percent {
		f *= mult
	}
	if neg {
		f = -f
	}
	return f, percent, true
}

// skipMetricName filters cell labels that are really table headers.
func skipMetricName(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "metric", "item":
		return true
	}
	return false
}
