package ops

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/hpungsan/packlist/internal/checklist"
	"github.com/hpungsan/packlist/internal/db"
	"github.com/hpungsan/packlist/internal/errors"
)

// ExportSchemaVersion is written into the header line of template exports.
const ExportSchemaVersion = "1.0"

// ExportTemplatesInput contains parameters for the ExportTemplates operation.
type ExportTemplatesInput struct {
	Path string // optional, default: ~/.packlist/exports/templates-<timestamp>.jsonl
}

// ExportTemplatesOutput contains the result of the ExportTemplates operation.
type ExportTemplatesOutput struct {
	Path       string `json:"path"`
	Count      int    `json:"count"`
	ExportedAt int64  `json:"exported_at"`
}

// ExportHeader represents the header line in a JSONL export file.
type ExportHeader struct {
	PacklistExport bool   `json:"_packlist_export"`
	SchemaVersion  string `json:"schema_version"`
	ExportedAt     int64  `json:"exported_at"`
}

// TemplateRecord is one user template in a JSONL export file.
type TemplateRecord struct {
	ID          string                   `json:"id"`
	Name        string                   `json:"name"`
	Description string                   `json:"description,omitempty"`
	Items       []checklist.TemplateItem `json:"items"`
	CreatedAt   int64                    `json:"created_at"`
	UpdatedAt   int64                    `json:"updated_at"`
}

func toRecord(t checklist.Template) TemplateRecord {
	return TemplateRecord{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Meta.Description,
		Items:       t.Items,
		CreatedAt:   t.Meta.CreatedAt,
		UpdatedAt:   t.Meta.UpdatedAt,
	}
}

func (r TemplateRecord) toTemplate() checklist.Template {
	items, _ := checklist.SanitizeTemplateItems(r.Items)
	return checklist.Template{
		ID:    r.ID,
		Name:  r.Name,
		Items: items,
		Meta: checklist.TemplateMeta{
			Description: r.Description,
			CreatedAt:   r.CreatedAt,
			UpdatedAt:   r.UpdatedAt,
		},
	}
}

// ExportTemplates writes every user template to a JSONL file: one header
// line followed by one record per template. Built-in templates ship with the
// binary and are not exported.
func (a *App) ExportTemplates(ctx context.Context, input ExportTemplatesInput) (*ExportTemplatesOutput, error) {
	now := a.now()
	exportedAt := now.Unix()

	exportPath := input.Path
	if exportPath == "" {
		var err error
		exportPath, err = defaultExportPath("templates", ".jsonl", now)
		if err != nil {
			return nil, err
		}
	}
	if err := ValidatePath(exportPath, PathCheckWrite, a.cfg, ".jsonl"); err != nil {
		return nil, err
	}

	templates, err := db.ListTemplates(a.db)
	if err != nil {
		return nil, err
	}

	count := 0
	err = writeFileAtomic(exportPath, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		if err := enc.Encode(ExportHeader{
			PacklistExport: true,
			SchemaVersion:  ExportSchemaVersion,
			ExportedAt:     exportedAt,
		}); err != nil {
			return errors.NewInternal(err)
		}
		for _, t := range templates {
			if ctx.Err() != nil {
				return errors.NewCancelled("export")
			}
			if err := enc.Encode(toRecord(t)); err != nil {
				return errors.NewInternal(err)
			}
			count++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	operationsTotal.WithLabelValues("template_export").Inc()
	return &ExportTemplatesOutput{
		Path:       exportPath,
		Count:      count,
		ExportedAt: exportedAt,
	}, nil
}

// writeFileAtomic writes to a temp file next to path and renames it into
// place, so an existing file survives a failed write.
func writeFileAtomic(path string, write func(w io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := path + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	buf := bufio.NewWriter(file)
	if err := write(buf); err != nil {
		return err
	}
	if err := buf.Flush(); err != nil {
		return errors.NewInternal(err)
	}
	if err := file.Sync(); err != nil {
		return errors.NewInternal(err)
	}

	// Close before rename (required on Windows).
	if err := file.Close(); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	// os.Rename would follow a symlinked destination.
	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInvalidRequest("export path is a symlink")
	}

	// On Windows os.Rename fails when the destination exists; keep the old
	// file rather than delete-then-rename.
	if err := os.Rename(tempPath, path); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(path); statErr == nil {
				return errors.NewInvalidRequest("export destination already exists; choose a new path or delete the existing file")
			}
		}
		return errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}

	success = true
	return nil
}

// defaultExportPath returns ~/.packlist/exports/<name>-<timestamp><ext>.
func defaultExportPath(name, ext string, now time.Time) (string, error) {
	dir, err := DefaultExportsDir()
	if err != nil {
		return "", err
	}
	filename := fmt.Sprintf("%s-%s%s", SanitizeForFilename(name), now.Format("2006-01-02T150405"), ext)
	return filepath.Join(dir, filename), nil
}
