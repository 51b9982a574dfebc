package utils

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/text"
)

// CleanMarkdown strips code fences that LLMs sometimes wrap whole responses
// in (```markdown ... ```), returning the inner text unchanged.
func CleanMarkdown(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return trimmed
	}
	// Drop the opening fence line (``` or ```markdown) and a closing fence
	// if present.
	lines = lines[1:]
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// ValidateMarkdown reports whether s parses as markdown. Goldmark accepts
// nearly anything, so this mainly guards against empty output.
func ValidateMarkdown(s string) bool {
	if strings.TrimSpace(s) == "" {
		return false
	}
	md := goldmark.New()
	node := md.Parser().Parse(text.NewReader([]byte(s)))
	return node != nil && node.HasChildren()
}
