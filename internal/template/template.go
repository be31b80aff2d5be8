// Package template provides reusable post templates loaded from YAML
// files. A template pre-fills the compose flow with text and a default
// set of target platforms.
package template

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Template is a reusable post definition.
type Template struct {
	Name        string   `yaml:"name"`                  // Unique template name used with /post <name>
	Description string   `yaml:"description,omitempty"` // Short human-readable summary
	Text        string   `yaml:"text"`                  // Post body, may contain {{placeholders}}
	Targets     []string `yaml:"targets,omitempty"`     // Default platforms, empty means ask the operator
	FilePath    string   `yaml:"-"`                     // Source file the template was loaded from
}

// Parse parses a YAML template file.
// Returns an error if required fields are missing.
func Parse(content []byte) (*Template, error) {
	var t Template
	if err := yaml.Unmarshal(content, &t); err != nil {
		return nil, fmt.Errorf("failed to parse YAML template: %w", err)
	}

	if t.Name == "" {
		return nil, fmt.Errorf("template must have a 'name' field")
	}
	if strings.TrimSpace(t.Text) == "" {
		return nil, fmt.Errorf("template must have a 'text' field")
	}

	t.Text = strings.TrimSpace(t.Text)

	return &t, nil
}
