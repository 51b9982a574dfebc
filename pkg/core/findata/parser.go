package findata

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Parser extracts financial metrics from free-form text. Matchers run in
// structural priority order (tables, then key-value lines, then narrative
// prose); results merge later-wins. Unparseable fragments are skipped
// silently; completeness is the caller's concern.
type Parser struct{}

// NewParser creates a financial data parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse extracts a FinancialRecord from input. fiscalYear, when non-empty,
// selects the matching column in multi-year tables.
func (p *Parser) Parse(input string, fiscalYear string) FinancialRecord {
	return Merge(p.Matches(input, fiscalYear))
}

// Matches runs the full matcher chain and returns raw matches in extraction
// order, before the later-wins merge.
func (p *Parser) Matches(input string, fiscalYear string) []Match {
	var matches []Match
	matches = append(matches, p.htmlTableMatches(input, fiscalYear)...)
	matches = append(matches, p.markdownTableMatches(input, fiscalYear)...)

	// Table content must not re-match as prose.
	prose := stripStructured(input)
	matches = append(matches, p.keyValueMatches(prose)...)
	matches = append(matches, p.narrativeMatches(prose)...)
	return matches
}

// =============================================================================
// HTML TABLES
// =============================================================================

func (p *Parser) htmlTableMatches(input string, fiscalYear string) []Match {
	if !strings.Contains(strings.ToLower(input), "<table") {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(input))
	if err != nil {
		return nil
	}

	var matches []Match
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		rows := table.Find("tr")
		if rows.Length() < 2 {
			return
		}

		var headers []string
		rows.First().Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			headers = append(headers, strings.TrimSpace(cell.Text()))
		})
		col := yearColumn(headers, fiscalYear)

		rows.Slice(1, rows.Length()).Each(func(_ int, row *goquery.Selection) {
			var cells []string
			row.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, strings.TrimSpace(cell.Text()))
			})
			if m, ok := rowMatch(cells, col); ok {
				matches = append(matches, m)
			}
		})
	})
	return matches
}

// rowMatch converts one table row into a Match, pulling the value from the
// selected year column when present.
func rowMatch(cells []string, col int) (Match, bool) {
	if len(cells) < 2 {
		return Match{}, false
	}
	key := cells[0]
	if skipMetricName(key) {
		return Match{}, false
	}
	idx := col
	if idx < 1 || idx >= len(cells) {
		idx = 1
	}
	v, pct, ok := parseValue(cells[idx])
	if !ok {
		return Match{}, false
	}
	return Match{Kind: TableMatch, Metric: key, Value: v, Percent: pct}, true
}

var yearRe = regexp.MustCompile(`(?:19|20)\d{2}`)

// yearColumn picks the value column for multi-year tables: the column
// mentioning the requested fiscal year, else the most recent year found in
// any header, else the first data column.
func yearColumn(headers []string, fiscalYear string) int {
	if len(headers) < 2 {
		return 1
	}

	if target := yearRe.FindString(fiscalYear); target != "" {
		for i, h := range headers {
			if strings.Contains(h, target) {
				return i
			}
		}
	}

	bestIdx, bestYear := -1, 0
	for i, h := range headers {
		for _, m := range yearRe.FindAllString(h, -1) {
			if y, err := strconv.Atoi(m); err == nil && y > bestYear {
				bestYear, bestIdx = y, i
			}
		}
	}
	if bestIdx >= 0 {
		return bestIdx
	}
	return 1
}

// =============================================================================
// KEY-VALUE LINES AND NARRATIVE PROSE
// =============================================================================

// valueToken matches one numeric value with optional currency symbol,
// parentheses, magnitude suffix and percent sign.
const valueToken = `-?\$?\(?\$?-?[0-9][0-9,]*(?:\.[0-9]+)?\)?\s*(?:[kmbt]\b|thousand\b|million\b|billion\b|trillion\b)?\s*%?\)?`

const labelToken = `[A-Za-z][A-Za-z&/' \-]{0,60}?`

var (
	keyValueRe = regexp.MustCompile(`(?i)(` + labelToken + `)\s*(?::|=|\b(?:is|was|of)\b)\s*(` + valueToken + `)`)

	// "Revenue increased by 15.5% to $50.2B" -> change metric + absolute metric
	changeToRe = regexp.MustCompile(`(?i)(` + labelToken + `)\s+(increased|decreased|grew|declined|rose|fell)\s+(?:by\s+)?([0-9][0-9,.]*)\s*%,?\s+to\s+(` + valueToken + `)`)

	// "Revenue growth of 15.5%" -> change metric only
	growthRe = regexp.MustCompile(`(?i)(` + labelToken + `)\s+(?:growth|change|increase|decrease)\s+(?:of|by)\s+\(?(-?[0-9][0-9,.]*)\)?\s*%`)
)

func (p *Parser) keyValueMatches(prose string) []Match {
	var matches []Match
	for _, m := range keyValueRe.FindAllStringSubmatch(prose, -1) {
		v, pct, ok := parseValue(m[2])
		if !ok {
			continue
		}
		matches = append(matches, Match{Kind: KeyValueMatch, Metric: m[1], Value: v, Percent: pct})
	}
	return matches
}

func (p *Parser) narrativeMatches(prose string) []Match {
	var matches []Match

	for _, m := range changeToRe.FindAllStringSubmatch(prose, -1) {
		pct, _, ok := parseValue(m[3])
		if !ok {
			continue
		}
		if verb := strings.ToLower(m[2]); verb == "decreased" || verb == "declined" || verb == "fell" {
			pct = -pct
		}
		matches = append(matches, Match{Kind: NarrativeMatch, Metric: m[1] + " YoY Change", Value: pct, Percent: true})

		if amount, amountPct, ok := parseValue(m[4]); ok && !amountPct {
			matches = append(matches, Match{Kind: NarrativeMatch, Metric: m[1], Value: amount})
		}
	}

	for _, m := range growthRe.FindAllStringSubmatch(prose, -1) {
		pct, _, ok := parseValue(m[2])
		if !ok {
			continue
		}
		matches = append(matches, Match{Kind: NarrativeMatch, Metric: m[1] + " YoY Change", Value: pct, Percent: true})
	}

	return matches
}

// =============================================================================
// HELPERS
// =============================================================================

var htmlTableRe = regexp.MustCompile(`(?is)<table.*?</table>`)

// stripStructured removes HTML tables and pipe rows so the prose matchers
// never double-extract table content.
func stripStructured(input string) string {
	input = htmlTableRe.ReplaceAllString(input, "")

	lines := strings.Split(input, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.Contains(line, "|") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
