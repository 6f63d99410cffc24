package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, body string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(body), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func TestLoad_DefaultWhenMissing(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DefaultDurationDays != 3 {
		t.Errorf("DefaultDurationDays = %d, want 3", cfg.DefaultDurationDays)
	}
	if cfg.WebBind != "127.0.0.1" || cfg.WebPort != 7420 {
		t.Errorf("web = %s:%d, want 127.0.0.1:7420", cfg.WebBind, cfg.WebPort)
	}
	if cfg.WeatherTimeout() != 10*time.Second {
		t.Errorf("WeatherTimeout() = %v, want 10s", cfg.WeatherTimeout())
	}
	if cfg.WeatherDebounce() != 600*time.Millisecond {
		t.Errorf("WeatherDebounce() = %v, want 600ms", cfg.WeatherDebounce())
	}
}

func TestLoad_OverridesFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{"default_city": "Lisbon", "default_duration_days": 6, "web_port": 9000}`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DefaultCity != "Lisbon" {
		t.Errorf("DefaultCity = %q, want Lisbon", cfg.DefaultCity)
	}
	if cfg.DefaultDurationDays != 6 {
		t.Errorf("DefaultDurationDays = %d, want 6", cfg.DefaultDurationDays)
	}
	if cfg.WebPort != 9000 {
		t.Errorf("WebPort = %d, want 9000", cfg.WebPort)
	}
	if cfg.WebBind != "127.0.0.1" {
		t.Errorf("WebBind = %q, want default", cfg.WebBind)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{not json}`)

	if _, err := Load(tmpDir); err == nil {
		t.Fatalf("Load() expected error, got nil")
	}
}

func TestLoad_DisabledTools(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{"disabled_tools": ["checklist_delete", "template_save"]}`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.DisabledTools) != 2 {
		t.Fatalf("DisabledTools = %v, want 2 entries", cfg.DisabledTools)
	}
	if cfg.DisabledTools[0] != "checklist_delete" || cfg.DisabledTools[1] != "template_save" {
		t.Errorf("DisabledTools = %v", cfg.DisabledTools)
	}
}

func TestLoadWithRepo_BothPresent(t *testing.T) {
	globalDir := t.TempDir()
	repoRoot := t.TempDir()
	writeConfig(t, globalDir, `{"default_city": "Oslo", "default_country": "Norway", "allowed_paths": ["/a"], "disabled_tools": ["share_open"]}`)
	writeConfig(t, filepath.Join(repoRoot, Dir), `{"default_city": "Bergen", "allowed_paths": ["/b", "/a"], "allow_unsafe_paths": true}`)

	cfg, err := LoadWithRepo(globalDir, repoRoot)
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}
	if cfg.DefaultCity != "Bergen" {
		t.Errorf("DefaultCity = %q, want repo value Bergen", cfg.DefaultCity)
	}
	if cfg.DefaultCountry != "Norway" {
		t.Errorf("DefaultCountry = %q, want global value Norway", cfg.DefaultCountry)
	}
	if !cfg.AllowUnsafePaths {
		t.Error("AllowUnsafePaths should be true from repo config")
	}
	if len(cfg.AllowedPaths) != 2 || cfg.AllowedPaths[0] != "/a" || cfg.AllowedPaths[1] != "/b" {
		t.Errorf("AllowedPaths = %v, want [/a /b]", cfg.AllowedPaths)
	}
	if len(cfg.DisabledTools) != 1 {
		t.Errorf("DisabledTools = %v, want [share_open]", cfg.DisabledTools)
	}
}

func TestLoadWithRepo_NeitherPresent(t *testing.T) {
	cfg, err := LoadWithRepo(t.TempDir(), t.TempDir())
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}
	if cfg.WeatherDebounceMS != DefaultConfig().WeatherDebounceMS {
		t.Errorf("WeatherDebounceMS = %d, want default", cfg.WeatherDebounceMS)
	}
}

func TestLoadWithRepo_WalksUpward(t *testing.T) {
	repoRoot := t.TempDir()
	writeConfig(t, filepath.Join(repoRoot, Dir), `{"share_base_url": "https://pack.example/"}`)
	nested := filepath.Join(repoRoot, "a", "b", "c")
	if err := os.MkdirAll(nested, 0700); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}

	cfg, err := LoadWithRepo(t.TempDir(), nested)
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}
	if cfg.ShareBaseURL != "https://pack.example/" {
		t.Errorf("ShareBaseURL = %q", cfg.ShareBaseURL)
	}
}

func TestMerge_ScalarOverride(t *testing.T) {
	base := &Config{WeatherTimeoutSeconds: 10, WebBind: "127.0.0.1"}
	overlay := &Config{WeatherTimeoutSeconds: 3, WebBind: "  "}

	result := Merge(base, overlay)
	if result.WeatherTimeoutSeconds != 3 {
		t.Errorf("WeatherTimeoutSeconds = %d, want 3", result.WeatherTimeoutSeconds)
	}
	if result.WebBind != "127.0.0.1" {
		t.Errorf("WebBind = %q, blank overlay should not win", result.WebBind)
	}
}

func TestMerge_BooleanOr(t *testing.T) {
	if !Merge(&Config{AllowUnsafePaths: true}, &Config{}).AllowUnsafePaths {
		t.Error("base true should survive empty overlay")
	}
	if Merge(&Config{}, &Config{}).AllowUnsafePaths {
		t.Error("false + false should be false")
	}
}

func TestMerge_ArrayMergeDedup(t *testing.T) {
	result := Merge(
		&Config{DisabledTypes: []string{"share", " template "}},
		&Config{DisabledTypes: []string{"template", ""}},
	)
	want := []string{"share", "template"}
	if len(result.DisabledTypes) != len(want) {
		t.Fatalf("DisabledTypes = %v, want %v", result.DisabledTypes, want)
	}
	for i := range want {
		if result.DisabledTypes[i] != want[i] {
			t.Errorf("DisabledTypes[%d] = %q, want %q", i, result.DisabledTypes[i], want[i])
		}
	}

	if Merge(&Config{}, &Config{}).AllowedPaths != nil {
		t.Error("empty merge should yield nil slice")
	}
}

func TestFindRepoConfig_InCurrentDir(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, filepath.Join(root, Dir), `{}`)

	want := filepath.Join(root, Dir, "config.json")
	if got := FindRepoConfig(root); got != want {
		t.Errorf("FindRepoConfig() = %q, want %q", got, want)
	}
}
