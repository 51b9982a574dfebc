package ingest

import (
	"strings"
)

// Chunk is a bounded window of section text prepared for embedding.
type Chunk struct {
	Section  SectionName `json:"section"`
	Position int         `json:"position"`
	Text     string      `json:"text"`
}

// Chunker splits section text into overlapping windows. Splitting is
// deterministic: identical input and configuration always produce a
// byte-identical chunk sequence, which keeps reindexing idempotent.
type Chunker struct {
	maxLen  int
	overlap int
}

// NewChunker creates a chunker with the given window and overlap sizes in
// characters. Non-positive or inconsistent values fall back to 1000/200.
func NewChunker(maxLen, overlap int) *Chunker {
	if maxLen <= 0 {
		maxLen = 1000
	}
	if overlap < 0 || overlap >= maxLen {
		overlap = maxLen / 5
	}
	return &Chunker{maxLen: maxLen, overlap: overlap}
}

// Split chunks one section. Each chunk after the first begins with exactly
// the trailing overlap of its predecessor; break points prefer paragraph
// boundaries, then sentence ends, then a hard cut at the window limit.
func (c *Chunker) Split(section SectionName, text string) []Chunk {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var chunks []Chunk
	start := 0
	for {
		if len(text)-start <= c.maxLen {
			chunks = append(chunks, Chunk{Section: section, Position: len(chunks), Text: text[start:]})
			break
		}

		end := c.breakPoint(text, start)
		chunks = append(chunks, Chunk{Section: section, Position: len(chunks), Text: text[start:end]})
		start = end - c.overlap
	}

	return chunks
}

// breakPoint picks where the chunk starting at start should end. Candidates
// are searched only past start+overlap so the next window always advances.
func (c *Chunker) breakPoint(text string, start int) int {
	limit := start + c.maxLen
	window := text[start+c.overlap+1 : limit]

	// Paragraph boundary first
	if i := strings.LastIndex(window, "\n\n"); i >= 0 {
		return start + c.overlap + 1 + i + 2
	}

	// Then the latest sentence end
	best := -1
	for _, delim := range []string{". ", ".\n", "! ", "? ", "!\n", "?\n"} {
		if i := strings.LastIndex(window, delim); i+len(delim) > best {
			if i >= 0 {
				best = i + len(delim)
			}
		}
	}
	if best > 0 {
		return start + c.overlap + 1 + best
	}

	// Single newline as a weak boundary
	if i := strings.LastIndex(window, "\n"); i >= 0 {
		return start + c.overlap + 1 + i + 1
	}

	// Hard cut
	return limit
}
