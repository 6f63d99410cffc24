package ops

import (
	"io"

	"github.com/hpungsan/packlist/internal/errors"
	"github.com/hpungsan/packlist/internal/export"
)

// ExportDocumentInput contains parameters for the ExportDocument operation.
type ExportDocumentInput struct {
	Format string // markdown (default) or html
	Path   string // optional, default: ~/.packlist/exports/checklist-<timestamp>.<ext>
}

// ExportDocumentOutput contains the result of the ExportDocument operation.
type ExportDocumentOutput struct {
	Path   string        `json:"path"`
	Format export.Format `json:"format"`
	Items  int           `json:"items"`
}

// ExportDocument writes the checklist as a Markdown or printable HTML file.
func (a *App) ExportDocument(in ExportDocumentInput) (*ExportDocumentOutput, error) {
	format, ok := export.ParseFormat(in.Format)
	if !ok {
		return nil, errors.NewInvalidRequest("format must be one of: markdown, html")
	}

	path := in.Path
	if path == "" {
		var err error
		path, err = defaultExportPath("checklist", format.Ext(), a.now())
		if err != nil {
			return nil, err
		}
	}
	if err := ValidatePath(path, PathCheckWrite, a.cfg, format.Ext(), alternateExt(format)); err != nil {
		return nil, err
	}

	s := a.State()
	doc, err := export.Render(s, format)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	if err := writeFileAtomic(path, func(w io.Writer) error {
		_, err := w.Write(doc)
		return err
	}); err != nil {
		return nil, err
	}

	operationsTotal.WithLabelValues("export").Inc()
	return &ExportDocumentOutput{Path: path, Format: format, Items: len(s.Items)}, nil
}

func alternateExt(f export.Format) string {
	if f == export.FormatHTML {
		return ".htm"
	}
	return ".markdown"
}
