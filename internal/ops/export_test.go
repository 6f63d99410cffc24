package ops

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/packlist/internal/errors"
)

func seedTemplates(t *testing.T, app *App, names ...string) []string {
	t.Helper()
	ids := make([]string, 0, len(names))
	for _, name := range names {
		out, err := app.SaveTemplate(SaveTemplateInput{Name: name})
		require.NoError(t, err)
		ids = append(ids, out.ID)
	}
	return ids
}

func TestExportTemplates_HappyPath(t *testing.T) {
	app, dir := newTestApp(t)
	ids := seedTemplates(t, app, "Work trip", "Festival")

	exportPath := filepath.Join(dir, "templates.jsonl")
	out, err := app.ExportTemplates(context.Background(), ExportTemplatesInput{Path: exportPath})
	require.NoError(t, err)
	require.Equal(t, exportPath, out.Path)
	require.Equal(t, 2, out.Count)

	file, err := os.Open(exportPath)
	require.NoError(t, err)
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxImportLine)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	require.NoError(t, scanner.Err())
	require.Len(t, lines, 3)

	var header ExportHeader
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &header))
	require.True(t, header.PacklistExport)
	require.Equal(t, ExportSchemaVersion, header.SchemaVersion)
	require.Equal(t, out.ExportedAt, header.ExportedAt)

	seen := map[string]bool{}
	for _, line := range lines[1:] {
		var rec TemplateRecord
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		require.NotEmpty(t, rec.Items)
		seen[rec.ID] = true
	}
	for _, id := range ids {
		require.True(t, seen[id], id)
	}

	// no temp files left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		require.False(t, strings.HasSuffix(e.Name(), ".tmp"), e.Name())
	}
}

func TestExportTemplates_OverwritesExisting(t *testing.T) {
	app, dir := newTestApp(t)
	exportPath := filepath.Join(dir, "templates.jsonl")
	require.NoError(t, os.WriteFile(exportPath, []byte("old content\n"), 0600))

	out, err := app.ExportTemplates(context.Background(), ExportTemplatesInput{Path: exportPath})
	require.NoError(t, err)
	require.Equal(t, 0, out.Count)

	data, err := os.ReadFile(exportPath)
	require.NoError(t, err)
	require.Contains(t, string(data), `"_packlist_export":true`)
}

func TestExportTemplates_InvalidPath(t *testing.T) {
	app, dir := newTestApp(t)

	_, err := app.ExportTemplates(context.Background(), ExportTemplatesInput{Path: filepath.Join(dir, "out.json")})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))

	_, err = app.ExportTemplates(context.Background(), ExportTemplatesInput{Path: dir + "/../out.jsonl"})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestExportTemplates_Cancelled(t *testing.T) {
	app, dir := newTestApp(t)
	seedTemplates(t, app, "One")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	exportPath := filepath.Join(dir, "cancelled.jsonl")
	_, err := app.ExportTemplates(ctx, ExportTemplatesInput{Path: exportPath})
	require.True(t, errors.Is(err, errors.ErrCancelled))

	_, statErr := os.Stat(exportPath)
	require.True(t, os.IsNotExist(statErr))
}

func TestDefaultExportPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	app, _ := newTestApp(t)
	app.cfg.AllowUnsafePaths = false

	out, err := app.ExportTemplates(context.Background(), ExportTemplatesInput{})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".packlist", "exports"), filepath.Dir(out.Path))
	require.True(t, strings.HasPrefix(filepath.Base(out.Path), "templates-"))
	require.Equal(t, ".jsonl", filepath.Ext(out.Path))
}
