// Package prompt provides the prompt library for section drafting. Prompts
// ship as hardcoded defaults and can be overridden from JSON files at
// runtime, so wording changes need no recompile.
package prompt

import (
	"bytes"
	"fmt"
	"text/template"
)

// PromptTemplate is a reusable prompt with metadata.
type PromptTemplate struct {
	ID             string `json:"id"`                   // e.g. "drafting.business"
	Name           string `json:"name"`                 // Human-readable name
	Category       string `json:"category"`             // drafting, analysis, ...
	Description    string `json:"description"`          // Purpose of the prompt
	SystemPrompt   string `json:"system_prompt"`        // System instruction
	UserPromptTmpl string `json:"user_prompt_template"` // Go template for the user prompt
	Version        string `json:"version"`
}

// PromptExecutionContext holds runtime values for template substitution.
type PromptExecutionContext struct {
	Variables map[string]interface{}
}

// NewContext creates an empty execution context.
func NewContext() *PromptExecutionContext {
	return &PromptExecutionContext{Variables: make(map[string]interface{})}
}

// Set adds a variable to the context.
func (c *PromptExecutionContext) Set(key string, value interface{}) *PromptExecutionContext {
	c.Variables[key] = value
	return c
}

// Render executes the user prompt template with the given context.
func (pt *PromptTemplate) Render(ctx *PromptExecutionContext) (string, error) {
	if pt.UserPromptTmpl == "" {
		return "", nil
	}

	tmpl, err := template.New(pt.ID).Parse(pt.UserPromptTmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", pt.ID, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ctx.Variables); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", pt.ID, err)
	}
	return buf.String(), nil
}
