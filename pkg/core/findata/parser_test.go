package findata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    float64
		percent bool
		ok      bool
	}{
		{"dollar billions", "$50B", 50e9, false, true},
		{"dollar decimal billions", "$61.9 billion", 61.9e9, false, true},
		{"spelled out millions", "9,370 million", 9.37e9, false, true},
		{"thousands separators", "1,234.5", 1234.5, false, true},
		{"lowercase k", "120k", 120e3, false, true},
		{"trillions", "1.2T", 1.2e12, false, true},
		{"plain percent", "15.5%", 15.5, true, true},
		{"negative percent", "-3.4%", -3.4, true, true},
		{"parenthesized percent", "(2.1%)", -2.1, true, true},
		{"percent outside parens", "(5.2)%", -5.2, true, true},
		{"parenthesized dollars", "$(2.1B)", -2.1e9, false, true},
		{"leading minus", "-500", -500, false, true},
		{"not a number", "abc", 0, false, false},
		{"empty", "", 0, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, pct, ok := parseValue(tt.input)
			require.Equal(t, tt.ok, ok)
			if !tt.ok {
				return
			}
			assert.InDelta(t, tt.want, got, 1e-6)
			assert.Equal(t, tt.percent, pct)
		})
	}
}

func TestParseKeyValueLines(t *testing.T) {
	p := NewParser()

	rec := p.Parse("Revenue: $50B", "")
	require.Len(t, rec, 1)
	assert.InDelta(t, 50e9, rec["Revenue"], 1)

	rec = p.Parse("Net income = 9,370 million", "")
	assert.InDelta(t, 9.37e9, rec["Net Income"], 1)

	rec = p.Parse("Operating income was $(2.1B)", "")
	assert.InDelta(t, -2.1e9, rec["Operating Income"], 1)
}

func TestParsePercentMetricKeepsPercentValue(t *testing.T) {
	p := NewParser()

	rec := p.Parse("Revenue growth: 15.5%", "")
	require.Contains(t, rec, "Revenue Growth (%)")
	assert.InDelta(t, 15.5, rec["Revenue Growth (%)"], 1e-9)
	assert.NotContains(t, rec, "Revenue Growth")
}

func TestParseLaterStatementWins(t *testing.T) {
	p := NewParser()

	rec := p.Parse("Revenue: $50B. Revenue: $52B.", "")
	require.Contains(t, rec, "Revenue")
	assert.InDelta(t, 52e9, rec["Revenue"], 1)
}

func TestParseHeaderlessMarkdownRows(t *testing.T) {
	p := NewParser()

	input := "| Revenue | $50B |\n| Operating Income | $20B |"
	rec := p.Parse(input, "")

	require.Len(t, rec, 2)
	assert.InDelta(t, 50e9, rec["Revenue"], 1)
	assert.InDelta(t, 20e9, rec["Operating Income"], 1)
}

func TestParseGFMTableSelectsFiscalYearColumn(t *testing.T) {
	p := NewParser()

	input := `| Metric | 2023 | 2024 |
| --- | --- | --- |
| Total Revenue | $40B | $50B |
| Net Income | $8B | $11B |`

	rec := p.Parse(input, "2024")
	assert.InDelta(t, 50e9, rec["Total Revenue"], 1)
	assert.InDelta(t, 11e9, rec["Net Income"], 1)

	rec = p.Parse(input, "2023")
	assert.InDelta(t, 40e9, rec["Total Revenue"], 1)
	assert.InDelta(t, 8e9, rec["Net Income"], 1)
}

func TestParseHTMLTable(t *testing.T) {
	p := NewParser()

	input := `<table>
<tr><th>Metric</th><th>2023</th><th>2024</th></tr>
<tr><td>Total Revenue</td><td>$40B</td><td>$50B</td></tr>
<tr><td>Operating Margin</td><td>30%</td><td>32%</td></tr>
</table>`

	rec := p.Parse(input, "2024")
	assert.InDelta(t, 50e9, rec["Total Revenue"], 1)
	assert.InDelta(t, 32, rec["Operating Margin (%)"], 1e-9)
}

func TestParseNarrativeChange(t *testing.T) {
	p := NewParser()

	rec := p.Parse("Revenue increased 12% to $61.9 billion", "")
	require.Contains(t, rec, "Revenue")
	assert.InDelta(t, 61.9e9, rec["Revenue"], 1)
	require.Contains(t, rec, "Revenue YoY Change (%)")
	assert.InDelta(t, 12, rec["Revenue YoY Change (%)"], 1e-9)
}

func TestParseNarrativeDecreaseIsNegative(t *testing.T) {
	p := NewParser()

	rec := p.Parse("Operating expenses decreased 5% to $8B", "")
	assert.InDelta(t, -5, rec["Operating Expenses YoY Change (%)"], 1e-9)
	assert.InDelta(t, 8e9, rec["Operating Expenses"], 1)
}

func TestParseTableContentNotDoubleExtracted(t *testing.T) {
	p := NewParser()

	// The pipe row must come out of the table matcher only; the prose line
	// must still match after the structured content is stripped.
	input := "| Revenue | $50B |\nNet margin: 21%"
	rec := p.Parse(input, "")

	require.Len(t, rec, 2)
	assert.InDelta(t, 50e9, rec["Revenue"], 1)
	assert.InDelta(t, 21, rec["Net Margin (%)"], 1e-9)
}

func TestParseUnparseableInputYieldsEmptyRecord(t *testing.T) {
	p := NewParser()

	rec := p.Parse("the quick brown fox jumps over the lazy dog", "")
	assert.Empty(t, rec)
}

func TestMergeLaterWins(t *testing.T) {
	rec := Merge([]Match{
		{Kind: TableMatch, Metric: "revenue", Value: 50e9},
		{Kind: KeyValueMatch, Metric: "Revenue", Value: 52e9},
	})
	require.Len(t, rec, 1)
	assert.InDelta(t, 52e9, rec["Revenue"], 1)
}

func TestFormatSortedAndReadable(t *testing.T) {
	rec := FinancialRecord{
		"Total Revenue":        50e9,
		"Operating Margin (%)": 32.5,
	}
	out := rec.Format()
	assert.Equal(t, "Operating Margin (%): 32.50\nTotal Revenue: 50,000,000,000.00", out)
}

func TestFormatEmptyRecord(t *testing.T) {
	assert.Equal(t, "No financial data provided.", FinancialRecord{}.Format())
}
