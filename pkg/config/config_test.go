package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Search.MinQueryLength != 2 {
		t.Errorf("expected min_query_length 2, got %d", cfg.Search.MinQueryLength)
	}
	if cfg.Search.Debounce.Duration != 300*time.Millisecond {
		t.Errorf("expected 300ms debounce, got %s", cfg.Search.Debounce)
	}
	if cfg.Search.Limit != 30 {
		t.Errorf("expected limit 30, got %d", cfg.Search.Limit)
	}
	if cfg.Saved.RefreshInterval.Duration != 10*time.Second {
		t.Errorf("expected 10s refresh interval, got %s", cfg.Saved.RefreshInterval)
	}
	if cfg.ListenAddr != "localhost:8787" {
		t.Errorf("unexpected listen addr %q", cfg.ListenAddr)
	}
}

func TestLoadConfigAppliesDefaultsToOmittedFields(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
listen_addr = "0.0.0.0:9900"

[search]
debounce = "150ms"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.ListenAddr != "0.0.0.0:9900" {
		t.Errorf("explicit listen addr lost: %q", cfg.ListenAddr)
	}
	if cfg.Search.Debounce.Duration != 150*time.Millisecond {
		t.Errorf("explicit debounce lost: %s", cfg.Search.Debounce)
	}
	if cfg.Search.MinQueryLength != 2 {
		t.Errorf("omitted min_query_length not defaulted: %d", cfg.Search.MinQueryLength)
	}
	if cfg.Search.Limit != 30 {
		t.Errorf("omitted limit not defaulted: %d", cfg.Search.Limit)
	}
}

func TestConfigRoundTrip(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	cfg, err := GetDefaultConfig()
	if err != nil {
		t.Fatalf("GetDefaultConfig: %v", err)
	}
	cfg.Identity.User = "jane"
	cfg.Identity.Organization = "acme"
	cfg.Search.Debounce = Duration{450 * time.Millisecond}

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := cfg.SaveConfig(path); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if loaded.Identity.User != "jane" || loaded.Identity.Organization != "acme" {
		t.Errorf("identity not preserved: %+v", loaded.Identity)
	}
	if loaded.Search.Debounce.Duration != 450*time.Millisecond {
		t.Errorf("debounce not preserved: %s", loaded.Search.Debounce)
	}
}

func TestSaveTemplateConfig(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	cfg, err := GetDefaultConfig()
	if err != nil {
		t.Fatalf("GetDefaultConfig: %v", err)
	}

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := cfg.SaveTemplateConfig(path); err != nil {
		t.Fatalf("SaveTemplateConfig: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("template config does not parse: %v\n%s", err, data)
	}
	if loaded.StorageDir != cfg.StorageDir {
		t.Errorf("template storage_dir not substituted: %q", loaded.StorageDir)
	}
}
