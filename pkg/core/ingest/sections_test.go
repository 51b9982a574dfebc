package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFiling() string {
	var b strings.Builder
	// Table of contents
	b.WriteString("TABLE OF CONTENTS\n")
	b.WriteString("Item 1. Business ..... 3\n")
	b.WriteString("Item 1A. Risk Factors ..... 10\n")
	b.WriteString("Item 2. Properties ..... 20\n")
	b.WriteString("Item 7. Management's Discussion and Analysis ..... 30\n")
	b.WriteString("Item 8. Financial Statements ..... 50\n\n")

	// Body
	b.WriteString("Item 1. Business\n\n")
	b.WriteString("We design and sell widget acceleration platforms worldwide. ")
	b.WriteString(strings.Repeat("Our business operates across several segments. ", 20))
	b.WriteString("\n\nItem 1A. Risk Factors\n\nOur markets are competitive.\n\n")
	b.WriteString("Item 2. Properties\n\nWe lease our headquarters campus.\n\n")
	b.WriteString("Item 7. Management's Discussion and Analysis of Financial Condition and Results of Operations\n\n")
	b.WriteString("Revenue increased due to strong data center demand. ")
	b.WriteString(strings.Repeat("Operating results reflect higher unit volumes. ", 20))
	b.WriteString("\n\nItem 7A. Quantitative and Qualitative Disclosures About Market Risk\n\nRates and currencies.\n\n")
	b.WriteString("Item 8. Financial Statements and Supplementary Data\n\nThe statements follow.\n")
	return b.String()
}

func sectionByName(t *testing.T, sections []Section, name SectionName) Section {
	t.Helper()
	for _, s := range sections {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("section %q not found", name)
	return Section{}
}

func TestExtractFindsBusinessAndMDA(t *testing.T) {
	sections := NewSectionExtractor().Extract(sampleFiling())

	business := sectionByName(t, sections, SectionBusiness)
	assert.Contains(t, business.Text, "widget acceleration platforms")
	assert.Contains(t, business.Text, "Risk Factors", "sub-item 1A stays inside Business")
	assert.NotContains(t, business.Text, "headquarters campus", "Business must stop at Item 2")

	mda := sectionByName(t, sections, SectionMDA)
	assert.Contains(t, mda.Text, "data center demand")
	assert.Contains(t, mda.Text, "Rates and currencies", "sub-item 7A stays inside MD&A")
	assert.NotContains(t, mda.Text, "The statements follow", "MD&A must stop at Item 8")
}

func TestExtractSkipsTableOfContents(t *testing.T) {
	sections := NewSectionExtractor().Extract(sampleFiling())

	// The TOC also matches the start pattern; the body span is longer and
	// must win.
	business := sectionByName(t, sections, SectionBusiness)
	assert.Contains(t, business.Text, "widget acceleration platforms")
}

func TestExtractAlwaysIncludesFullDocument(t *testing.T) {
	sections := NewSectionExtractor().Extract(sampleFiling())

	full := sectionByName(t, sections, SectionFullDocument)
	assert.Contains(t, full.Text, "TABLE OF CONTENTS")
	assert.Contains(t, full.Text, "The statements follow")
	assert.Equal(t, SectionFullDocument, sections[len(sections)-1].Name)
}

func TestExtractMissingSectionOmitted(t *testing.T) {
	text := "Item 1. Business\n\nWe make things.\n\nItem 2. Properties\n\nAn office.\n"
	sections := NewSectionExtractor().Extract(text)

	require.Len(t, sections, 2)
	assert.Equal(t, SectionBusiness, sections[0].Name)
	assert.Equal(t, SectionFullDocument, sections[1].Name)
}

func TestExtractNoSectionsStillYieldsFullDocument(t *testing.T) {
	sections := NewSectionExtractor().Extract("An unrelated document with no item headers at all.")

	require.Len(t, sections, 1)
	assert.Equal(t, SectionFullDocument, sections[0].Name)
}

func TestExtractCapsSectionLength(t *testing.T) {
	text := "Item 1. Business\n\n" + strings.Repeat("Filler sentence about operations. ", 3000) +
		"\n\nItem 2. Properties\n\nShort.\n"
	sections := NewSectionExtractor().Extract(text)

	business := sectionByName(t, sections, SectionBusiness)
	assert.LessOrEqual(t, len(business.Text), maxSectionLen)
}

func TestNormalizeWhitespace(t *testing.T) {
	in := "A   B\t C\n\n\n\nD  \n E"
	out := normalizeWhitespace(in)
	assert.Equal(t, "A B C\n\nD\nE", out)
}
