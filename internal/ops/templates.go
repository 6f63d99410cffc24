package ops

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/packlist/internal/catalog"
	"github.com/hpungsan/packlist/internal/checklist"
	"github.com/hpungsan/packlist/internal/db"
	"github.com/hpungsan/packlist/internal/errors"
)

// TemplateSummary is one entry of the template library.
type TemplateSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ItemCount   int    `json:"item_count"`
	BuiltIn     bool   `json:"built_in"`
	UpdatedAt   int64  `json:"updated_at,omitempty"`
}

func summarize(t checklist.Template) TemplateSummary {
	return TemplateSummary{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Meta.Description,
		ItemCount:   len(t.Items),
		BuiltIn:     t.BuiltIn,
		UpdatedAt:   t.Meta.UpdatedAt,
	}
}

// ListTemplates returns the built-in templates in catalog order followed by
// the user templates, most recently updated first.
func (a *App) ListTemplates() ([]TemplateSummary, error) {
	builtins := catalog.All()
	out := make([]TemplateSummary, 0, len(builtins))
	for _, t := range builtins {
		out = append(out, summarize(t))
	}
	if a.db == nil {
		return out, nil
	}

	user, err := db.ListTemplates(a.db)
	if err != nil {
		return nil, err
	}
	for _, t := range user {
		out = append(out, summarize(t))
	}
	return out, nil
}

// GetTemplate resolves a built-in or user template by id.
func (a *App) GetTemplate(id string) (*checklist.Template, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.NewEmptyInput("template id")
	}
	if t, ok := catalog.Get(id); ok {
		return &t, nil
	}
	if a.db == nil {
		return nil, errors.NewNotFound("template", id)
	}
	return db.GetTemplate(a.db, id)
}

// SaveTemplateInput contains parameters for the SaveTemplate operation.
type SaveTemplateInput struct {
	Name        string
	Description string
}

// SaveTemplateOutput contains the result of the SaveTemplate operation.
// Empty means the checklist had nothing to save and no template was written.
type SaveTemplateOutput struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Count     int    `json:"count"`
	Empty     bool   `json:"empty"`
	Truncated bool   `json:"truncated"`
	Updated   bool   `json:"updated"`
}

// SaveTemplate stores the current items as a user template. Saving under a
// name that already exists overwrites that template's items.
func (a *App) SaveTemplate(in SaveTemplateInput) (*SaveTemplateOutput, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, errors.NewEmptyInput("template name")
	}
	if a.db == nil {
		return nil, errors.NewInvalidRequest("template store unavailable")
	}

	tmpl, res := checklist.TemplateFromItems("", name, a.State().Items)
	out := &SaveTemplateOutput{Name: name, Count: res.Count, Empty: res.Empty, Truncated: res.Truncated}
	if res.Empty {
		return out, nil
	}
	tmpl.Meta.Description = strings.TrimSpace(in.Description)

	existing, err := db.GetTemplateByName(a.db, name)
	switch {
	case err == nil:
		tmpl.ID = existing.ID
		if tmpl.Meta.Description == "" {
			tmpl.Meta.Description = existing.Meta.Description
		}
		if err := db.UpdateTemplate(a.db, &tmpl, a.now().Unix()); err != nil {
			return nil, err
		}
		out.Updated = true
	case errors.Is(err, errors.ErrNotFound):
		id, err := generateULID(a.now())
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		now := a.now().Unix()
		tmpl.ID = id
		tmpl.Meta.CreatedAt = now
		tmpl.Meta.UpdatedAt = now
		if err := db.InsertTemplate(a.db, &tmpl); err != nil {
			if err == db.ErrUniqueConstraint {
				return nil, errors.NewConflict("a template named " + name + " already exists")
			}
			return nil, err
		}
	default:
		return nil, err
	}

	out.ID = tmpl.ID
	operationsTotal.WithLabelValues("template_save").Inc()
	return out, nil
}

// DeleteTemplate removes a user template. Built-in templates are immutable.
func (a *App) DeleteTemplate(id string) error {
	if catalog.IsBuiltIn(id) {
		return errors.NewImmutableTemplate(id)
	}
	if a.db == nil {
		return errors.NewNotFound("template", id)
	}
	if err := db.DeleteTemplate(a.db, id); err != nil {
		return err
	}
	operationsTotal.WithLabelValues("template_delete").Inc()
	return nil
}

// DiffTemplate previews applying a template to the current checklist.
func (a *App) DiffTemplate(id string) (*checklist.TemplateDiff, error) {
	t, err := a.GetTemplate(id)
	if err != nil {
		return nil, err
	}
	diff := checklist.DiffTemplate(a.State(), *t)
	return &diff, nil
}

// ApplyTemplate merges a template into the checklist or replaces the
// generated items with it.
func (a *App) ApplyTemplate(id string, mode checklist.ApplyMode) (*checklist.ApplyResult, error) {
	t, err := a.GetTemplate(id)
	if err != nil {
		return nil, err
	}
	var res checklist.ApplyResult
	_, err = a.update("template_apply", func(s checklist.State) (checklist.State, error) {
		next, r, err := checklist.ApplyTemplate(s, *t, mode, a.nowMillis())
		res = r
		return next, err
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// generateULID generates a new ULID stamped with now.
func generateULID(now time.Time) (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(now), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
