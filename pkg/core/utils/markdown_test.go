package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanMarkdown(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no fences", "Plain draft text.", "Plain draft text."},
		{"plain fence", "```\nBody\n```", "Body"},
		{"language fence", "```markdown\n# Heading\nBody\n```", "# Heading\nBody"},
		{"unclosed fence", "```markdown\nBody", "Body"},
		{"surrounding whitespace", "  \n```\nBody\n```\n  ", "Body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanMarkdown(tt.input))
		})
	}
}

func TestValidateMarkdown(t *testing.T) {
	assert.True(t, ValidateMarkdown("# Heading\n\nSome body."))
	assert.False(t, ValidateMarkdown("   "))
	assert.False(t, ValidateMarkdown(""))
}
