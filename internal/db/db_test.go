package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/packlist/internal/checklist"
	"github.com/hpungsan/packlist/internal/config"
)

func TestInit(t *testing.T) {
	baseDir := filepath.Join(t.TempDir(), "home", ".packlist")

	db, err := Init(baseDir)
	require.NoError(t, err)
	defer db.Close()

	require.FileExists(t, filepath.Join(baseDir, FileName))
	require.DirExists(t, filepath.Join(baseDir, "exports"))

	var journalMode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode))
	require.Equal(t, "wal", journalMode)

	version, err := GetUserVersion(db)
	require.NoError(t, err)
	require.Equal(t, CurrentSchemaVersion, version)

	for _, name := range []string{"checklist_state", "templates", "idx_templates_name_norm", "idx_templates_updated"} {
		var found string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE name = ?", name).Scan(&found)
		require.NoError(t, err, name)
	}
}

func TestInit_ReopenKeepsData(t *testing.T) {
	baseDir := t.TempDir()

	first, err := Init(baseDir)
	require.NoError(t, err)
	s := checklist.Init(nil, checklist.Trip{City: "Lisbon", DurationDays: 4})
	require.NoError(t, SaveState(first, s))
	require.NoError(t, first.Close())

	second, err := Init(baseDir)
	require.NoError(t, err)
	defer second.Close()

	version, err := GetUserVersion(second)
	require.NoError(t, err)
	require.Equal(t, CurrentSchemaVersion, version)

	loaded, err := LoadState(second)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, "Lisbon", loaded.Trip.City)
	require.Len(t, loaded.Items, len(s.Items))
}

func TestInit_BaseDirIsAFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(path, nil, 0600))

	_, err := Init(path)
	require.Error(t, err)
}

func TestUserVersion(t *testing.T) {
	db, err := Init(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, SetUserVersion(db, 7))
	version, err := GetUserVersion(db)
	require.NoError(t, err)
	require.Equal(t, 7, version)
}

func TestConfigurePool(t *testing.T) {
	db, err := Init(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	ConfigurePool(db, nil)
	require.Equal(t, 0, db.Stats().MaxOpenConnections)

	cfg := config.DefaultConfig()
	cfg.DBMaxOpenConns = 3
	ConfigurePool(db, cfg)
	require.Equal(t, 3, db.Stats().MaxOpenConnections)
}
