package prompts

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

// PromptConfig holds metadata from the YAML frontmatter.
type PromptConfig struct {
	// Temperature overrides the configured model temperature for this prompt.
	Temperature *float32 `yaml:"temperature"`
}

// Prompt represents a loaded prompt with config and template.
type Prompt struct {
	Name     string
	Config   PromptConfig
	Template *template.Template
}

// Parse builds a Prompt from the raw contents of a .prompt file.
func Parse(name string, data []byte) (*Prompt, error) {
	parts := strings.SplitN(string(data), "---", 3)
	if len(parts) < 3 {
		return nil, fmt.Errorf("invalid prompt format: missing frontmatter delimiters")
	}

	frontmatter := parts[1]
	body := parts[2]

	var config PromptConfig
	if err := yaml.Unmarshal([]byte(frontmatter), &config); err != nil {
		return nil, fmt.Errorf("failed to parse frontmatter: %w", err)
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(strings.TrimSpace(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template body: %w", err)
	}

	return &Prompt{
		Name:     name,
		Config:   config,
		Template: tmpl,
	}, nil
}

// Execute applies data to the template and returns the result string.
func (p *Prompt) Execute(data any) (string, error) {
	var buf bytes.Buffer
	if err := p.Template.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}
