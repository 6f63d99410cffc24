// Package catalog holds the built-in templates shipped with the binary.
package catalog

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hpungsan/packlist/internal/checklist"
)

// Prefix marks built-in template ids.
const Prefix = "builtin-"

//go:embed templates.yaml
var templatesYAML []byte

// builtins is parsed once at init; a malformed embedded file is a build defect.
var builtins = mustParse(templatesYAML)

// Parse decodes a YAML list of templates, sanitizes their items and marks
// them built in.
func Parse(data []byte) ([]checklist.Template, error) {
	var raw []checklist.Template
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	seen := make(map[string]bool, len(raw))
	for i := range raw {
		t := &raw[i]
		t.ID = strings.TrimSpace(t.ID)
		t.Name = strings.TrimSpace(t.Name)
		if t.ID == "" || t.Name == "" {
			return nil, fmt.Errorf("template %d: id and name are required", i)
		}
		if seen[t.ID] {
			return nil, fmt.Errorf("template %q: duplicate id", t.ID)
		}
		seen[t.ID] = true

		t.Items, _ = checklist.SanitizeTemplateItems(t.Items)
		t.BuiltIn = true
	}
	return raw, nil
}

func mustParse(data []byte) []checklist.Template {
	ts, err := Parse(data)
	if err != nil {
		panic(err)
	}
	return ts
}

// All returns copies of the built-in templates in catalog order.
func All() []checklist.Template {
	out := make([]checklist.Template, len(builtins))
	for i, t := range builtins {
		out[i] = clone(t)
	}
	return out
}

// Get returns the built-in template with the given id.
func Get(id string) (checklist.Template, bool) {
	for _, t := range builtins {
		if t.ID == id {
			return clone(t), true
		}
	}
	return checklist.Template{}, false
}

// IsBuiltIn reports whether id names a built-in template.
func IsBuiltIn(id string) bool {
	_, ok := Get(id)
	return ok
}

func clone(t checklist.Template) checklist.Template {
	t.Items = append([]checklist.TemplateItem(nil), t.Items...)
	return t
}
