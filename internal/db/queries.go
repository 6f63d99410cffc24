package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hpungsan/packlist/internal/checklist"
	"github.com/hpungsan/packlist/internal/errors"
)

// Querier is satisfied by both *sql.DB and *sql.Tx so queries can run
// inside an import transaction.
type Querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// ErrUniqueConstraint is returned when an insert violates a UNIQUE constraint.
var ErrUniqueConstraint = &errors.PackError{
	Code:    "UNIQUE_CONSTRAINT",
	Status:  409,
	Message: "unique constraint violation",
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// LoadState returns the saved checklist snapshot, or nil when none exists.
func LoadState(q Querier) (*checklist.State, error) {
	var raw string
	err := q.QueryRow(`SELECT state_json FROM checklist_state WHERE id = 1`).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	var s checklist.State
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("corrupt saved state: %w", err))
	}
	return &s, nil
}

// SaveState upserts the checklist snapshot.
func SaveState(q Querier, s checklist.State) error {
	data, err := json.Marshal(s)
	if err != nil {
		return errors.NewInternal(err)
	}

	query := `
		INSERT INTO checklist_state (id, state_json, updated_at)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET state_json = excluded.state_json, updated_at = excluded.updated_at
	`
	if _, err := q.Exec(query, string(data), time.Now().Unix()); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// DeleteState removes the saved snapshot. Deleting a missing snapshot is not an error.
func DeleteState(q Querier) error {
	if _, err := q.Exec(`DELETE FROM checklist_state WHERE id = 1`); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// NormalizeName folds a template name for uniqueness checks.
func NormalizeName(name string) string {
	return checklist.Normalize(name)
}

const templateColumns = `id, name_raw, description, items_json, created_at, updated_at`

// InsertTemplate stores a new user template.
func InsertTemplate(q Querier, t *checklist.Template) error {
	itemsJSON, err := json.Marshal(t.Items)
	if err != nil {
		return errors.NewInternal(err)
	}

	query := `
		INSERT INTO templates (
			id, name_raw, name_norm, description, items_json, item_count, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = q.Exec(query,
		t.ID, t.Name, NormalizeName(t.Name), toNullString(t.Meta.Description),
		string(itemsJSON), len(t.Items), t.Meta.CreatedAt, t.Meta.UpdatedAt,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		return errors.NewInternal(err)
	}
	return nil
}

// UpdateTemplate overwrites name, description and items of an existing
// template and stamps updated_at with now (Unix seconds).
func UpdateTemplate(q Querier, t *checklist.Template, now int64) error {
	itemsJSON, err := json.Marshal(t.Items)
	if err != nil {
		return errors.NewInternal(err)
	}

	query := `
		UPDATE templates
		SET name_raw = ?, name_norm = ?, description = ?, items_json = ?, item_count = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := q.Exec(query,
		t.Name, NormalizeName(t.Name), toNullString(t.Meta.Description),
		string(itemsJSON), len(t.Items), now, t.ID,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound("template", t.ID)
	}

	t.Meta.UpdatedAt = now
	return nil
}

// GetTemplate retrieves a user template by id.
func GetTemplate(q Querier, id string) (*checklist.Template, error) {
	row := q.QueryRow(`SELECT `+templateColumns+` FROM templates WHERE id = ?`, id)
	t, err := scanTemplate(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("template", id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return t, nil
}

// GetTemplateByName retrieves a user template by normalized name.
func GetTemplateByName(q Querier, name string) (*checklist.Template, error) {
	norm := NormalizeName(name)
	row := q.QueryRow(`SELECT `+templateColumns+` FROM templates WHERE name_norm = ?`, norm)
	t, err := scanTemplate(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("template", name)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return t, nil
}

// TemplateNameExists reports whether a user template already uses name.
func TemplateNameExists(q Querier, name string) (bool, error) {
	var exists int
	err := q.QueryRow(`SELECT 1 FROM templates WHERE name_norm = ? LIMIT 1`, NormalizeName(name)).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return true, nil
}

// FindUniqueTemplateName returns name, or name with the lowest free " (N)"
// suffix when name is taken.
func FindUniqueTemplateName(q Querier, name string) (string, error) {
	exists, err := TemplateNameExists(q, name)
	if err != nil || !exists {
		return name, err
	}
	for n := 2; n < 1000; n++ {
		candidate := fmt.Sprintf("%s (%d)", name, n)
		exists, err := TemplateNameExists(q, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", errors.NewConflict(fmt.Sprintf("no free name for template %q", name))
}

// ListTemplates returns all user templates, most recently updated first.
func ListTemplates(q Querier) ([]checklist.Template, error) {
	rows, err := q.Query(`SELECT ` + templateColumns + ` FROM templates ORDER BY updated_at DESC, id DESC`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var out []checklist.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// DeleteTemplate removes a user template.
func DeleteTemplate(q Querier, id string) error {
	result, err := q.Exec(`DELETE FROM templates WHERE id = ?`, id)
	if err != nil {
		return errors.NewInternal(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound("template", id)
	}
	return nil
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTemplate scans a single row into a Template.
func scanTemplate(row rowScanner) (*checklist.Template, error) {
	var (
		t           checklist.Template
		description sql.NullString
		itemsJSON   string
	)
	if err := row.Scan(&t.ID, &t.Name, &description, &itemsJSON, &t.Meta.CreatedAt, &t.Meta.UpdatedAt); err != nil {
		return nil, err
	}
	t.Meta.Description = description.String
	if err := json.Unmarshal([]byte(itemsJSON), &t.Items); err != nil {
		return nil, err
	}
	if t.Items == nil {
		t.Items = []checklist.TemplateItem{}
	}
	return &t, nil
}

// toNullString maps an empty string to NULL.
func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
