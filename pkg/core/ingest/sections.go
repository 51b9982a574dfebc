package ingest

import (
	"regexp"
	"strings"
)

// SectionName identifies a logical filing section. The set is fixed; a
// document missing a section simply yields no Section for that name.
type SectionName string

const (
	SectionBusiness     SectionName = "Item 1. Business"
	SectionMDA          SectionName = "Item 7. MD&A"
	SectionFullDocument SectionName = "Full Document"
)

// Section is a named span of filing text.
type Section struct {
	Name SectionName `json:"name"`
	Text string      `json:"text"`
}

// maxSectionLen caps extracted sections after whitespace normalization.
const maxSectionLen = 50000

// sectionDef locates one target section. The end pattern matches the next
// whole item number, so sub-items ("Item 1A", "Item 7A") stay inside their
// parent section and never terminate or start an unrelated one.
type sectionDef struct {
	name  SectionName
	start *regexp.Regexp
	end   *regexp.Regexp
}

var sectionDefs = []sectionDef{
	{
		name:  SectionBusiness,
		start: regexp.MustCompile(`(?i)item\s*1\s*[.\-–—:]*\s*business\b`),
		end:   regexp.MustCompile(`(?i)item\s*2\b`),
	},
	{
		name:  SectionMDA,
		start: regexp.MustCompile(`(?i)item\s*7\s*[.\-–—:]*\s*management`),
		end:   regexp.MustCompile(`(?i)item\s*8\b`),
	},
}

// SectionExtractor splits raw filing text into the target sections.
type SectionExtractor struct{}

// NewSectionExtractor creates a section extractor.
func NewSectionExtractor() *SectionExtractor {
	return &SectionExtractor{}
}

// Extract returns all target sections found in the filing text, plus a
// SectionFullDocument entry carrying the whole document for fallback context.
// Sections whose header cannot be located are omitted, not errored.
func (e *SectionExtractor) Extract(text string) []Section {
	sections := make([]Section, 0, len(sectionDefs)+1)

	for _, def := range sectionDefs {
		if span := extractSpan(text, def); span != "" {
			sections = append(sections, Section{Name: def.name, Text: span})
		}
	}

	sections = append(sections, Section{
		Name: SectionFullDocument,
		Text: truncate(normalizeWhitespace(text), maxSectionLen),
	})

	return sections
}

// extractSpan finds the section body for def. Filings usually match the
// start pattern twice (table of contents, then the body); the match that
// yields the longest span is taken, which skips the TOC entry.
func extractSpan(text string, def sectionDef) string {
	starts := def.start.FindAllStringIndex(text, -1)
	if len(starts) == 0 {
		return ""
	}

	best := ""
	for _, m := range starts {
		rest := text[m[0]:]
		span := rest
		if end := def.end.FindStringIndex(rest[1:]); end != nil {
			span = rest[:end[0]+1]
		}
		if len(span) > len(best) {
			best = span
		}
	}

	return truncate(normalizeWhitespace(best), maxSectionLen)
}

var (
	horizontalSpace = regexp.MustCompile(`[ \t\r\f\v]+`)
	spareNewlines   = regexp.MustCompile(`\n{3,}`)
	spacedNewline   = regexp.MustCompile(` ?\n ?`)
)

// normalizeWhitespace collapses runs of horizontal whitespace while keeping
// blank lines, so the chunker can still see paragraph boundaries.
func normalizeWhitespace(s string) string {
	s = horizontalSpace.ReplaceAllString(s, " ")
	s = spacedNewline.ReplaceAllString(s, "\n")
	s = spareNewlines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
