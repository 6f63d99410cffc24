package ops

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hpungsan/packlist/internal/config"
	"github.com/hpungsan/packlist/internal/errors"
)

// PathCheckMode indicates whether the path check is for reading or writing.
type PathCheckMode int

const (
	PathCheckRead  PathCheckMode = iota // template import
	PathCheckWrite                      // template and checklist exports
)

// ValidatePath checks a path handed to a template import or an export.
// The path must have no ".." component and must end in one of exts. The
// file must sit directly in ~/.packlist/exports or an allowed_paths entry,
// unless allow_unsafe_paths is set. Neither the file nor its directory may
// be a symlink, whatever the config says; exports open the final component
// with O_NOFOLLOW.
func ValidatePath(path string, mode PathCheckMode, cfg *config.Config, exts ...string) error {
	if strings.TrimSpace(path) == "" {
		return errors.NewInvalidRequest("path is required")
	}
	if containsTraversal(path) {
		return errors.NewInvalidRequest("path must not contain directory traversal (..)")
	}
	if !hasExtension(path, exts) {
		return errors.NewInvalidRequest(fmt.Sprintf("path must have one of the extensions %v", exts))
	}

	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return errors.NewInvalidRequest(fmt.Sprintf("invalid path: %v", err))
	}

	if cfg == nil || !cfg.AllowUnsafePaths {
		if err := checkExportDir(filepath.Dir(absPath), cfg); err != nil {
			return err
		}
	}

	if mode == PathCheckRead {
		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			return errors.NewFileNotFound(path)
		}
	}
	return rejectSymlink(absPath, "path")
}

// checkExportDir requires dir to be one of the export directories itself,
// not a subdirectory of one.
func checkExportDir(dir string, cfg *config.Config) error {
	allowed, err := exportDirs(cfg)
	if err != nil {
		return err
	}
	if !slices.Contains(allowed, filepath.Clean(dir)) {
		return errors.NewInvalidRequest(fmt.Sprintf(
			"file must be directly in an allowed directory (no subdirectories); allowed: %v", allowed))
	}
	return rejectSymlink(dir, "parent directory")
}

// exportDirs lists ~/.packlist/exports plus the absolute allowed_paths.
// An entry that is itself a symlink is replaced by its target.
func exportDirs(cfg *config.Config) ([]string, error) {
	defaultDir, err := DefaultExportsDir()
	if err != nil {
		return nil, err
	}
	dirs := []string{defaultDir}
	if cfg != nil {
		for _, p := range cfg.AllowedPaths {
			if filepath.IsAbs(p) {
				dirs = append(dirs, filepath.Clean(p))
			}
		}
	}

	for i, d := range dirs {
		info, err := os.Lstat(d)
		if err != nil || info.Mode()&os.ModeSymlink == 0 {
			continue
		}
		resolved, err := filepath.EvalSymlinks(d)
		if err != nil {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("cannot resolve symlink in allowed path: %v", err))
		}
		dirs[i] = resolved
	}
	return dirs, nil
}

func rejectSymlink(path, what string) error {
	info, err := os.Lstat(path)
	if err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInvalidRequest(what + " must not be a symlink")
	}
	return nil
}

// DefaultExportsDir returns ~/.packlist/exports.
func DefaultExportsDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", errors.NewInternal(fmt.Errorf("failed to get home directory: %w", err))
	}
	return filepath.Join(homeDir, config.Dir, "exports"), nil
}

// hasExtension reports whether path ends in one of exts, ignoring case.
func hasExtension(path string, exts []string) bool {
	ext := filepath.Ext(path)
	return slices.ContainsFunc(exts, func(e string) bool { return strings.EqualFold(ext, e) })
}

// containsTraversal reports whether any component of path is "..",
// splitting on '/' as well as the OS separator.
func containsTraversal(path string) bool {
	parts := strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == filepath.Separator
	})
	return slices.Contains(parts, "..")
}

var filenameSeparators = strings.NewReplacer("/", "-", "\\", "-", "..", "-")

// SanitizeForFilename turns a template or trip name into a safe file name
// stem. Separators become dashes, control characters are dropped, and runs
// of dashes collapse. An empty result becomes "unnamed".
func SanitizeForFilename(s string) string {
	s = filenameSeparators.Replace(s)
	s = strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)
	s = strings.Join(strings.FieldsFunc(s, func(r rune) bool { return r == '-' }), "-")
	if s == "" {
		return "unnamed"
	}
	return s
}
