package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
)

func TestGetEnvWithDefault(t *testing.T) {
	const key = "TEST_APP_PORT"

	// 环境变量未设置时，应该返回默认值
	_ = os.Unsetenv(key)
	if got := getEnv(key, "9000"); got != "9000" {
		t.Fatalf("getEnv(%q) = %q, want %q", key, got, "9000")
	}

	t.Setenv(key, "8080")
	if got := getEnv(key, "9000"); got != "8080" {
		t.Fatalf("getEnv(%q) = %q, want %q", key, got, "8080")
	}
}

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"APP_PORT", "STORE_BACKEND", "SNAPSHOT_PATH", "REQUEST_PAUSE", "HTTP_TIMEOUT", "SOURCES_FILE", "CRON_SPEC"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.AppPort != "10000" || cfg.StoreBackend != "file" || cfg.SnapshotPath != "grants.json" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.RequestPause != 2*time.Second {
		t.Fatalf("RequestPause = %v, want 2s", cfg.RequestPause)
	}
	if cfg.CronSpec != "" {
		t.Fatalf("cron should be disabled by default, got %q", cfg.CronSpec)
	}
	if len(cfg.Sources.Listings) != 6 || len(cfg.Sources.Discussion) != 2 || len(cfg.Sources.Feeds) != 3 {
		t.Fatalf("unexpected default sources: %+v", cfg.Sources)
	}
}

func TestLoadDoesNotLogBeforeLoggingSetup(t *testing.T) {
	for _, k := range []string{"APP_PORT", "STORE_BACKEND", "SOURCES_FILE", "CRON_SPEC"} {
		t.Setenv(k, "")
	}

	var buf bytes.Buffer
	out := log.StandardLogger().Out
	log.SetOutput(&buf)
	defer log.SetOutput(out)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("Load should not log, got %q", buf.String())
	}

	summary := cfg.Summary()
	for _, want := range []string{"port=10000", "store=file", "listings=6", "feeds=3"} {
		if !strings.Contains(summary, want) {
			t.Fatalf("Summary() = %q, missing %q", summary, want)
		}
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("SOURCES_FILE", "")
	t.Setenv("REQUEST_PAUSE", "two seconds")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid REQUEST_PAUSE")
	}

	t.Setenv("REQUEST_PAUSE", "")
	t.Setenv("STORE_BACKEND", "mongo")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown STORE_BACKEND")
	}
}

func TestReadSourcesOverridesOnlyDefinedLists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.toml")
	content := `listings = ["http://localhost/a", "http://localhost/b"]
feeds = []
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	src, err := ReadSources(path)
	if err != nil {
		t.Fatalf("ReadSources error: %v", err)
	}
	if len(src.Listings) != 2 || src.Listings[1] != "http://localhost/b" {
		t.Fatalf("listings not overridden: %v", src.Listings)
	}
	if len(src.Feeds) != 0 {
		t.Fatalf("feeds should be emptied, got %v", src.Feeds)
	}
	if len(src.Discussion) != 2 {
		t.Fatalf("discussion should keep defaults, got %v", src.Discussion)
	}
}

func TestReadSourcesMissingFile(t *testing.T) {
	if _, err := ReadSources(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatalf("expected error for missing sources file")
	}
}
