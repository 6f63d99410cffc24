package ops

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/packlist/internal/db"
	"github.com/hpungsan/packlist/internal/errors"
)

// exportFrom saves templates in a fresh app and exports them to dir.
func exportFrom(t *testing.T, dir string, names ...string) (string, []string) {
	t.Helper()
	src, _ := newTestApp(t)
	ids := seedTemplates(t, src, names...)
	path := filepath.Join(dir, "export.jsonl")
	_, err := src.ExportTemplates(context.Background(), ExportTemplatesInput{Path: path})
	require.NoError(t, err)
	return path, ids
}

func userTemplateNames(t *testing.T, app *App) []string {
	t.Helper()
	list, err := db.ListTemplates(app.db)
	require.NoError(t, err)
	names := make([]string, 0, len(list))
	for _, tmpl := range list {
		names = append(names, tmpl.Name)
	}
	return names
}

func TestImportTemplates_ErrorMode(t *testing.T) {
	dst, dir := newTestApp(t)
	path, ids := exportFrom(t, dir, "Alpha", "Beta")

	out, err := dst.ImportTemplates(ImportTemplatesInput{Path: path})
	require.NoError(t, err)
	require.Equal(t, 2, out.Imported)
	require.Empty(t, out.Errors)

	for _, id := range ids {
		_, err := dst.GetTemplate(id)
		require.NoError(t, err)
	}

	// second run collides on id and imports nothing
	out, err = dst.ImportTemplates(ImportTemplatesInput{Path: path, Mode: ImportModeError})
	require.NoError(t, err)
	require.Equal(t, 0, out.Imported)
	require.Len(t, out.Errors, 1)
	require.Equal(t, "ID_COLLISION", out.Errors[0].Code)
	require.Len(t, userTemplateNames(t, dst), 2)
}

func TestImportTemplates_ErrorModeIsAtomic(t *testing.T) {
	dst, dir := newTestApp(t)
	seedTemplates(t, dst, "Beta")
	path, _ := exportFrom(t, dir, "Alpha", "Beta")

	out, err := dst.ImportTemplates(ImportTemplatesInput{Path: path})
	require.NoError(t, err)
	require.Equal(t, 0, out.Imported)
	require.Len(t, out.Errors, 1)
	require.Equal(t, "NAME_COLLISION", out.Errors[0].Code)
	require.Equal(t, []string{"Beta"}, userTemplateNames(t, dst))
}

func TestImportTemplates_RenameMode(t *testing.T) {
	dst, dir := newTestApp(t)
	path, _ := exportFrom(t, dir, "Alpha", "Beta")

	_, err := dst.ImportTemplates(ImportTemplatesInput{Path: path})
	require.NoError(t, err)

	out, err := dst.ImportTemplates(ImportTemplatesInput{Path: path, Mode: ImportModeRename})
	require.NoError(t, err)
	require.Equal(t, 2, out.Imported)
	require.Equal(t, 0, out.Skipped)

	names := userTemplateNames(t, dst)
	require.ElementsMatch(t, []string{"Alpha", "Beta", "Alpha (2)", "Beta (2)"}, names)
}

func TestImportTemplates_ReplaceMode(t *testing.T) {
	dst, dir := newTestApp(t)
	path, ids := exportFrom(t, dir, "Alpha")

	_, err := dst.ImportTemplates(ImportTemplatesInput{Path: path})
	require.NoError(t, err)

	out, err := dst.ImportTemplates(ImportTemplatesInput{Path: path, Mode: ImportModeReplace})
	require.NoError(t, err)
	require.Equal(t, 1, out.Imported)
	require.Equal(t, []string{"Alpha"}, userTemplateNames(t, dst))

	tmpl, err := dst.GetTemplate(ids[0])
	require.NoError(t, err)
	require.NotEmpty(t, tmpl.Items)
}

func TestImportTemplates_BadLines(t *testing.T) {
	dst, dir := newTestApp(t)
	path := filepath.Join(dir, "mixed.jsonl")
	content := strings.Join([]string{
		`{"_packlist_export":true,"schema_version":"1.0","exported_at":1}`,
		`{not json`,
		`{"id":"builtin-beach","name":"Hijack","items":[{"label":"x","group":"other"}]}`,
		`{"id":"","name":"No id","items":[]}`,
		`{"id":"01OK","name":"Fine","items":[{"label":"Tent","group":"other","bag":"checked"}]}`,
		``,
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	out, err := dst.ImportTemplates(ImportTemplatesInput{Path: path, Mode: ImportModeError})
	require.NoError(t, err)
	require.Equal(t, 0, out.Imported)
	require.Len(t, out.Errors, 3)
	require.Equal(t, "PARSE_ERROR", out.Errors[0].Code)
	require.Equal(t, 2, out.Errors[0].Line)
	require.Equal(t, string(errors.ErrImmutableTemplate), out.Errors[1].Code)
	require.Equal(t, "INVALID_RECORD", out.Errors[2].Code)

	out, err = dst.ImportTemplates(ImportTemplatesInput{Path: path, Mode: ImportModeRename})
	require.NoError(t, err)
	require.Equal(t, 1, out.Imported)
	require.Equal(t, 3, out.Skipped)

	tmpl, err := dst.GetTemplate("01OK")
	require.NoError(t, err)
	require.Equal(t, "Tent", tmpl.Items[0].Label)
	require.Equal(t, "checked", tmpl.Items[0].Bag)

	// the built-in template is untouched
	beach, err := dst.GetTemplate("builtin-beach")
	require.NoError(t, err)
	require.True(t, beach.BuiltIn)
}

func TestImportTemplates_InvalidInput(t *testing.T) {
	dst, dir := newTestApp(t)

	_, err := dst.ImportTemplates(ImportTemplatesInput{})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))

	_, err = dst.ImportTemplates(ImportTemplatesInput{Path: filepath.Join(dir, "x.jsonl"), Mode: "merge"})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))

	_, err = dst.ImportTemplates(ImportTemplatesInput{Path: filepath.Join(dir, "missing.jsonl")})
	require.True(t, errors.Is(err, errors.ErrFileNotFound))
}
