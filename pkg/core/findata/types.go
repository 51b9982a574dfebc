// Package findata parses free-form financial text into a normalized
// metric-name -> value record used to ground MD&A generation. Input may be
// HTML or markdown tables, key-value lines, or narrative prose; recognition
// runs as an ordered chain of matchers merged by a later-wins rule.
package findata

import (
	"fmt"
	"sort"
	"strings"
)

// FinancialRecord maps a metric name to its numeric value. Values are held
// in absolute units (a parsed "$50B" is 50000000000); percentage metrics
// carry a "(%)" suffix in the key and store the percentage number as given.
type FinancialRecord map[string]float64

// MatchKind tags which matcher produced a Match.
type MatchKind int

const (
	TableMatch MatchKind = iota
	KeyValueMatch
	NarrativeMatch
)

func (k MatchKind) String() string {
	switch k {
	case TableMatch:
		return "table"
	case KeyValueMatch:
		return "key_value"
	case NarrativeMatch:
		return "narrative"
	default:
		return "unknown"
	}
}

// Match is one extracted metric before merging.
type Match struct {
	Kind    MatchKind
	Metric  string
	Value   float64
	Percent bool
}

// Merge folds matches into a record. Matches are applied in extraction
// order, so a metric restated later in the input overrides its earlier
// value, which lets users correct themselves mid-message.
func Merge(matches []Match) FinancialRecord {
	rec := make(FinancialRecord, len(matches))
	for _, m := range matches {
		rec[annotateMetric(m.Metric, m.Percent)] = m.Value
	}
	return rec
}

// annotateMetric normalizes a metric name: collapsed whitespace, title-cased
// words, and a "(%)" suffix for percentage metrics so consumers can tell
// them from absolute values without re-parsing text.
func annotateMetric(name string, percent bool) string {
	words := strings.Fields(name)
	for i, w := range words {
		r := []rune(w)
		if len(r) > 0 && r[0] >= 'a' && r[0] <= 'z' {
			r[0] = r[0] - 'a' + 'A'
		}
		words[i] = string(r)
	}
	cleaned := strings.Join(words, " ")
	if percent && !strings.Contains(cleaned, "(%)") {
		cleaned += " (%)"
	}
	return cleaned
}

// Format renders a record as readable lines for prompt interpolation,
// sorted by metric name for determinism.
func (r FinancialRecord) Format() string {
	if len(r) == 0 {
		return "No financial data provided."
	}

	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		if strings.Contains(name, "(%)") {
			fmt.Fprintf(&b, "%s: %.2f", name, r[name])
		} else {
			fmt.Fprintf(&b, "%s: %s", name, commify(r[name]))
		}
	}
	return b.String()
}

// MetricNames returns the record's keys, sorted.
func (r FinancialRecord) MetricNames() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// commify formats a value with thousands separators, e.g. 50000000000 ->
// "50,000,000,000.00".
func commify(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	dot := strings.IndexByte(s, '.')
	intPart, fracPart := s[:dot], s[dot:]

	var b strings.Builder
	for i, d := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}

	out := b.String() + fracPart
	if neg {
		out = "-" + out
	}
	return out
}
