package ops

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hpungsan/packlist/internal/catalog"
	"github.com/hpungsan/packlist/internal/checklist"
	"github.com/hpungsan/packlist/internal/db"
	"github.com/hpungsan/packlist/internal/errors"
)

// ImportMode controls collision behavior during import.
type ImportMode string

const (
	ImportModeError   ImportMode = "error"   // fail on collision (atomic)
	ImportModeReplace ImportMode = "replace" // overwrite on collision
	ImportModeRename  ImportMode = "rename"  // auto-suffix name on collision
)

// maxImportLine bounds a single JSONL record.
const maxImportLine = 4 << 20

// ImportTemplatesInput contains parameters for the ImportTemplates operation.
type ImportTemplatesInput struct {
	Path string     // required
	Mode ImportMode // default: error
}

// ImportTemplatesOutput contains the result of the ImportTemplates operation.
type ImportTemplatesOutput struct {
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	Errors   []ImportError `json:"errors"`
}

// ImportError represents an error that occurred during import.
type ImportError struct {
	Line    int    `json:"line,omitempty"`
	ID      string `json:"id,omitempty"`
	Name    string `json:"name,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// importLine is either the header or a template record.
type importLine struct {
	PacklistExport bool `json:"_packlist_export"`
	TemplateRecord
}

// ImportTemplates imports user templates from a JSONL export file.
func (a *App) ImportTemplates(input ImportTemplatesInput) (*ImportTemplatesOutput, error) {
	if input.Path == "" {
		return nil, errors.NewInvalidRequest("path is required")
	}
	if input.Mode == "" {
		input.Mode = ImportModeError
	}
	if input.Mode != ImportModeError && input.Mode != ImportModeReplace && input.Mode != ImportModeRename {
		return nil, errors.NewInvalidRequest("mode must be one of: error, replace, rename")
	}
	if err := ValidatePath(input.Path, PathCheckRead, a.cfg, ".jsonl"); err != nil {
		return nil, err
	}

	file, err := openFileNoFollowRead(input.Path)
	if err != nil {
		if errors.Is(err, errors.ErrFileNotFound) || errors.Is(err, errors.ErrInvalidRequest) {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer file.Close()

	records, parseErrors := parseExportFile(file)

	// mode:error imports nothing from a file with bad lines
	if input.Mode == ImportModeError && len(parseErrors) > 0 {
		return &ImportTemplatesOutput{Errors: parseErrors}, nil
	}

	var out *ImportTemplatesOutput
	switch input.Mode {
	case ImportModeError:
		out, err = a.importModeError(records)
	case ImportModeReplace:
		out, err = a.importModeReplace(records, parseErrors)
	default:
		out, err = a.importModeRename(records, parseErrors)
	}
	if err != nil {
		return nil, err
	}
	if out.Imported > 0 {
		operationsTotal.WithLabelValues("template_import").Inc()
	}
	return out, nil
}

// parseExportFile parses a JSONL export file into records.
func parseExportFile(r io.Reader) ([]TemplateRecord, []ImportError) {
	var records []TemplateRecord
	var parseErrors []ImportError

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxImportLine)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}

		var rec importLine
		if err := json.Unmarshal(line, &rec); err != nil {
			parseErrors = append(parseErrors, ImportError{
				Line:    lineNum,
				Code:    "PARSE_ERROR",
				Message: fmt.Sprintf("invalid JSON: %v", err),
			})
			continue
		}
		if rec.PacklistExport {
			continue
		}

		rec.ID = strings.TrimSpace(rec.ID)
		rec.Name = strings.TrimSpace(rec.Name)
		switch {
		case rec.ID == "":
			parseErrors = append(parseErrors, ImportError{
				Line:    lineNum,
				Code:    "INVALID_RECORD",
				Message: "missing id field",
			})
			continue
		case rec.Name == "":
			parseErrors = append(parseErrors, ImportError{
				Line:    lineNum,
				ID:      rec.ID,
				Code:    "INVALID_RECORD",
				Message: "missing name field",
			})
			continue
		case catalog.IsBuiltIn(rec.ID) || strings.HasPrefix(rec.ID, catalog.Prefix):
			parseErrors = append(parseErrors, ImportError{
				Line:    lineNum,
				ID:      rec.ID,
				Name:    rec.Name,
				Code:    string(errors.ErrImmutableTemplate),
				Message: fmt.Sprintf("id %q is reserved for built-in templates", rec.ID),
			})
			continue
		}

		records = append(records, rec.TemplateRecord)
	}

	if err := scanner.Err(); err != nil {
		parseErrors = append(parseErrors, ImportError{
			Line:    lineNum,
			Code:    "READ_ERROR",
			Message: fmt.Sprintf("failed to read file: %v", err),
		})
	}

	return records, parseErrors
}

// importModeError imports all records atomically, rolling back on any collision.
func (a *App) importModeError(records []TemplateRecord) (*ImportTemplatesOutput, error) {
	tx, err := a.db.Begin()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, record := range records {
		_, err := db.GetTemplate(tx, record.ID)
		if err == nil {
			return &ImportTemplatesOutput{Errors: []ImportError{{
				ID:      record.ID,
				Code:    "ID_COLLISION",
				Message: fmt.Sprintf("template with id %q already exists", record.ID),
			}}}, nil
		}
		if !errors.Is(err, errors.ErrNotFound) {
			return nil, err
		}

		t := record.toTemplate()
		if err := db.InsertTemplate(tx, &t); err != nil {
			if err == db.ErrUniqueConstraint {
				return &ImportTemplatesOutput{Errors: []ImportError{{
					ID:      record.ID,
					Name:    record.Name,
					Code:    "NAME_COLLISION",
					Message: fmt.Sprintf("template with name %q already exists", record.Name),
				}}}, nil
			}
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return &ImportTemplatesOutput{Imported: len(records)}, nil
}

// importModeReplace imports records, updating existing templates on collision.
func (a *App) importModeReplace(records []TemplateRecord, parseErrors []ImportError) (*ImportTemplatesOutput, error) {
	out := &ImportTemplatesOutput{Skipped: len(parseErrors)}
	out.Errors = append(out.Errors, parseErrors...)

	for _, record := range records {
		byID, err := lookupTemplate(db.GetTemplate(a.db, record.ID))
		if err != nil {
			return nil, err
		}
		byName, err := lookupTemplate(db.GetTemplateByName(a.db, record.Name))
		if err != nil {
			return nil, err
		}

		// id matches one template while the name matches another
		if byID != nil && byName != nil && byID.ID != byName.ID {
			out.Errors = append(out.Errors, ImportError{
				ID:      record.ID,
				Name:    record.Name,
				Code:    "AMBIGUOUS_COLLISION",
				Message: fmt.Sprintf("id %q matches an existing template but name %q matches a different one", record.ID, record.Name),
			})
			out.Skipped++
			continue
		}

		t := record.toTemplate()
		switch {
		case byID != nil:
			err = db.UpdateTemplate(a.db, &t, a.now().Unix())
		case byName != nil:
			t.ID = byName.ID
			err = db.UpdateTemplate(a.db, &t, a.now().Unix())
		default:
			err = db.InsertTemplate(a.db, &t)
		}
		if err != nil {
			return nil, err
		}
		out.Imported++
	}
	return out, nil
}

// importModeRename imports records, giving colliding ones a fresh id and a
// " (N)" name suffix.
func (a *App) importModeRename(records []TemplateRecord, parseErrors []ImportError) (*ImportTemplatesOutput, error) {
	out := &ImportTemplatesOutput{Skipped: len(parseErrors)}
	out.Errors = append(out.Errors, parseErrors...)

	for _, record := range records {
		t := record.toTemplate()

		byID, err := lookupTemplate(db.GetTemplate(a.db, record.ID))
		if err != nil {
			return nil, err
		}
		if byID != nil {
			if t.ID, err = generateULID(a.now()); err != nil {
				return nil, errors.NewInternal(err)
			}
		}

		name, err := db.FindUniqueTemplateName(a.db, t.Name)
		if err != nil {
			out.Errors = append(out.Errors, ImportError{
				ID:      record.ID,
				Name:    record.Name,
				Code:    "RENAME_FAILED",
				Message: fmt.Sprintf("failed to find unique name: %v", err),
			})
			out.Skipped++
			continue
		}
		t.Name = name

		if err := db.InsertTemplate(a.db, &t); err != nil {
			out.Errors = append(out.Errors, ImportError{
				ID:      t.ID,
				Name:    t.Name,
				Code:    "INSERT_FAILED",
				Message: fmt.Sprintf("failed to insert: %v", err),
			})
			out.Skipped++
			continue
		}
		out.Imported++
	}
	return out, nil
}

// lookupTemplate turns a NOT_FOUND lookup into (nil, nil).
func lookupTemplate(t *checklist.Template, err error) (*checklist.Template, error) {
	if errors.Is(err, errors.ErrNotFound) {
		return nil, nil
	}
	return t, err
}
