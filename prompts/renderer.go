// Package prompts renders the embedded prompt templates used by the LLM
// session operations. Templates use {{NAME}} placeholders.
package prompts

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
)

//go:embed templates.json
var templatesJSON []byte

// Template is one named prompt template.
type Template struct {
	Title  string `json:"title"`
	Prompt string `json:"prompt"`
}

// Renderer substitutes variables into the embedded templates.
type Renderer struct {
	templates map[string]Template
}

// NewRenderer parses the embedded template set.
func NewRenderer() (*Renderer, error) {
	templates := map[string]Template{}
	if err := json.Unmarshal(templatesJSON, &templates); err != nil {
		return nil, fmt.Errorf("parsing embedded prompt templates: %w", err)
	}
	return &Renderer{templates: templates}, nil
}

// Render fills {{NAME}} placeholders in the named template. Unknown keys are
// an error; placeholders without a matching variable are left in place.
func (r *Renderer) Render(key string, vars map[string]any) (string, error) {
	template, ok := r.templates[key]
	if !ok {
		return "", fmt.Errorf("prompt template not found: %s", key)
	}

	result := template.Prompt
	for name, value := range vars {
		result = strings.ReplaceAll(result, "{{"+name+"}}", serializeValue(value))
	}
	return result, nil
}

// List returns the full template set.
func (r *Renderer) List() map[string]Template {
	out := make(map[string]Template, len(r.templates))
	for k, v := range r.templates {
		out[k] = v
	}
	return out
}

func serializeValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []string:
		return strings.Join(v, ", ")
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, serializeValue(item))
		}
		return strings.Join(parts, ", ")
	default:
		encoded, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	}
}
