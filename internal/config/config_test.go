package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.API.BaseURL != "http://localhost:8000" {
		t.Errorf("API.BaseURL = %s, want http://localhost:8000", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 30*time.Second {
		t.Errorf("API.Timeout = %v, want 30s", cfg.API.Timeout)
	}
	if cfg.API.UserAgent == "" {
		t.Error("API.UserAgent should not be empty")
	}

	if cfg.Feed.PageSize != 50 {
		t.Errorf("Feed.PageSize = %d, want 50", cfg.Feed.PageSize)
	}
	if cfg.Feed.RefreshPerSource != 20 {
		t.Errorf("Feed.RefreshPerSource = %d, want 20", cfg.Feed.RefreshPerSource)
	}

	if cfg.UI.Dark.Background == cfg.UI.Light.Background {
		t.Error("dark and light palettes should differ")
	}

	if cfg.Keys.Modifier != "ctrl" {
		t.Errorf("Keys.Modifier = %s, want 'ctrl'", cfg.Keys.Modifier)
	}
	if cfg.Keys.Bindings.Refresh != "r" {
		t.Errorf("Keys.Bindings.Refresh = %s, want 'r'", cfg.Keys.Bindings.Refresh)
	}
}

func TestLoad_DefaultConfig(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg == nil {
		t.Fatal("Load() returned nil config")
	}
	if cfg.Feed.PageSize != 50 {
		t.Errorf("Feed.PageSize = %d, want default 50", cfg.Feed.PageSize)
	}
}

func TestLoad_FromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.toml")

	content := `[api]
base_url = "http://news.example.org:9000"
timeout = "5s"

[feed]
page_size = 100
`
	if err := os.WriteFile(configFile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configFile)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.API.BaseURL != "http://news.example.org:9000" {
		t.Errorf("API.BaseURL = %s", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 5*time.Second {
		t.Errorf("API.Timeout = %v, want 5s", cfg.API.Timeout)
	}
	if cfg.Feed.PageSize != 100 {
		t.Errorf("Feed.PageSize = %d, want 100", cfg.Feed.PageSize)
	}
	// Untouched sections keep their defaults.
	if cfg.Feed.RefreshPerSource != 20 {
		t.Errorf("Feed.RefreshPerSource = %d, want default 20", cfg.Feed.RefreshPerSource)
	}
}

func TestLoad_ClampsPageSize(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.toml")

	content := `[feed]
page_size = 5000
`
	if err := os.WriteFile(configFile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configFile)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Feed.PageSize != 200 {
		t.Errorf("Feed.PageSize = %d, want clamped to 200", cfg.Feed.PageSize)
	}
}

func TestSave_RoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.toml")

	original := defaultConfig()
	original.API.BaseURL = "http://saved.example.org"
	original.Feed.PageSize = 75

	if err := Save(original, configFile); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(configFile)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.API.BaseURL != "http://saved.example.org" {
		t.Errorf("API.BaseURL = %s", loaded.API.BaseURL)
	}
	if loaded.Feed.PageSize != 75 {
		t.Errorf("Feed.PageSize = %d, want 75", loaded.Feed.PageSize)
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	got := expandPath("~/foo.db")
	want := filepath.Join(home, "foo.db")
	if got != want {
		t.Errorf("expandPath(~/foo.db) = %s, want %s", got, want)
	}

	if got := expandPath(""); got != "" {
		t.Errorf("expandPath(\"\") = %s, want empty", got)
	}

	if got := expandPath("/abs/path.db"); got != "/abs/path.db" {
		t.Errorf("expandPath(/abs/path.db) = %s", got)
	}
}
