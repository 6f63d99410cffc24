package checklist

import (
	"github.com/hpungsan/packlist/internal/errors"
)

// MaxTemplateItems caps the number of items a template may hold.
const MaxTemplateItems = 500

// TemplateItem is one entry of a template.
type TemplateItem struct {
	Label string `json:"label" yaml:"label"`
	Group string `json:"group" yaml:"group"`
	Bag   string `json:"bag,omitempty" yaml:"bag,omitempty"`
	Qty   int    `json:"qty,omitempty" yaml:"qty,omitempty"`
}

// TemplateMeta is descriptive template metadata.
type TemplateMeta struct {
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	CreatedAt   int64  `json:"created_at,omitempty" yaml:"-"`
	UpdatedAt   int64  `json:"updated_at,omitempty" yaml:"-"`
}

// Template is a named, reusable list of item descriptors.
type Template struct {
	ID      string         `json:"id" yaml:"id"`
	Name    string         `json:"name" yaml:"name"`
	Items   []TemplateItem `json:"items" yaml:"items"`
	Meta    TemplateMeta   `json:"meta" yaml:"meta"`
	BuiltIn bool           `json:"built_in" yaml:"-"`
}

// SanitizeTemplateItems trims labels, drops blank ones, normalizes bag,
// group and quantity, deduplicates by conflict key and caps the list at
// MaxTemplateItems. truncated reports whether items were cut off.
func SanitizeTemplateItems(in []TemplateItem) (out []TemplateItem, truncated bool) {
	descs := make([]Descriptor, 0, len(in))
	for _, ti := range in {
		descs = append(descs, Descriptor{
			Group:    ti.Group,
			Label:    ti.Label,
			Bag:      ti.Bag,
			Quantity: float64(ti.Qty),
			Source:   CustomSource,
		})
	}
	items := Dedupe(createItems(descs))
	if len(items) > MaxTemplateItems {
		items = items[:MaxTemplateItems]
		truncated = true
	}

	out = make([]TemplateItem, 0, len(items))
	for _, it := range items {
		out = append(out, TemplateItem{
			Label: it.Label,
			Group: it.Group,
			Bag:   string(it.Bag),
			Qty:   it.Quantity,
		})
	}
	return out, truncated
}

// templateItems sanitizes t and converts it into checklist items sourced
// from the template.
func templateItems(t Template) ([]Item, bool) {
	sanitized, truncated := SanitizeTemplateItems(t.Items)
	items := make([]Item, 0, len(sanitized))
	for _, ti := range sanitized {
		it, ok := CreateItem(Descriptor{
			Group:    ti.Group,
			Label:    ti.Label,
			Bag:      ti.Bag,
			Quantity: float64(ti.Qty),
			Source:   TemplateSource(t.ID),
		})
		if ok {
			items = append(items, it)
		}
	}
	return items, truncated
}

// TemplateDiff previews what applying a template would do.
type TemplateDiff struct {
	// WillAdd are template items not yet present (by conflict key)
	WillAdd []Item `json:"will_add"`

	// WillReplace are current items a replace would drop
	WillReplace []Item `json:"will_replace"`

	Truncated bool `json:"truncated"`
}

// DiffTemplate computes what a template would add or replace before committing.
func DiffTemplate(s State, t Template) TemplateDiff {
	items, truncated := templateItems(t)
	present := keyIndex(s.Items)

	diff := TemplateDiff{
		WillAdd:     []Item{},
		WillReplace: []Item{},
		Truncated:   truncated,
	}
	for _, it := range items {
		if _, ok := present[it.Key()]; !ok {
			diff.WillAdd = append(diff.WillAdd, it)
		}
	}
	for _, it := range s.Items {
		if !it.Source.SurvivesReplace() {
			diff.WillReplace = append(diff.WillReplace, it)
		}
	}
	return diff
}

// ApplyResult reports the counts of an ApplyTemplate.
type ApplyResult struct {
	Mode      ApplyMode `json:"mode"`
	Added     int       `json:"added"`
	Replaced  int       `json:"replaced"`
	Skipped   int       `json:"skipped"`
	Truncated bool      `json:"truncated"`
}

// ApplyTemplate commits a template.
//
// Merge appends every template item whose conflict key is not yet present
// and never removes anything. Replace drops every item that is neither
// custom nor weather, then prepends the template items, skipping those that
// collide with a retained item. A re-applied item keeps the checked flag
// its conflict key had, so applying the same template twice in replace mode
// yields identical lists.
func ApplyTemplate(s State, t Template, mode ApplyMode, nowMillis int64) (State, ApplyResult, error) {
	if mode == "" {
		mode = ApplyMerge
	}
	if mode != ApplyMerge && mode != ApplyReplace {
		return s, ApplyResult{}, errors.NewInvalidRequest("mode must be one of: merge, replace")
	}

	incoming, truncated := templateItems(t)
	result := ApplyResult{Mode: mode, Truncated: truncated}

	var items []Item
	switch mode {
	case ApplyMerge:
		present := keyIndex(s.Items)
		items = make([]Item, 0, len(s.Items)+len(incoming))
		items = append(items, s.Items...)
		for _, it := range incoming {
			if _, ok := present[it.Key()]; ok {
				result.Skipped++
				continue
			}
			items = append(items, it)
			result.Added++
		}

	case ApplyReplace:
		prevByKey := keyIndex(s.Items)
		var kept []Item
		keptKeys := make(map[string]bool)
		for _, it := range s.Items {
			if it.Source.SurvivesReplace() {
				kept = append(kept, it)
				keptKeys[it.Key()] = true
			}
		}
		result.Replaced = len(s.Items) - len(kept)

		items = make([]Item, 0, len(incoming)+len(kept))
		for _, it := range incoming {
			if keptKeys[it.Key()] {
				result.Skipped++
				continue
			}
			if prev, ok := prevByKey[it.Key()]; ok {
				it.Checked = prev.Checked
			}
			items = append(items, it)
			result.Added++
		}
		items = append(items, kept...)
	}

	next := s.withItems(Dedupe(items))
	next.Meta.LastTemplate = &AppliedTemplate{
		ID:        t.ID,
		Name:      t.Name,
		AppliedAt: nowMillis,
		Mode:      mode,
	}
	return next, result, nil
}

// SaveResult reports flags of TemplateFromItems.
type SaveResult struct {
	// Empty means there was nothing to save
	Empty     bool `json:"empty"`
	Truncated bool `json:"truncated"`
	Count     int  `json:"count"`
}

// TemplateFromItems builds a template from checklist items.
func TemplateFromItems(id, name string, items []Item) (Template, SaveResult) {
	raw := make([]TemplateItem, 0, len(items))
	for _, it := range items {
		raw = append(raw, TemplateItem{
			Label: it.Label,
			Group: it.Group,
			Bag:   string(it.Bag),
			Qty:   it.Quantity,
		})
	}
	sanitized, truncated := SanitizeTemplateItems(raw)
	t := Template{ID: id, Name: name, Items: sanitized}
	return t, SaveResult{
		Empty:     len(sanitized) == 0,
		Truncated: truncated,
		Count:     len(sanitized),
	}
}
