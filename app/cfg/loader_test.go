package cfg

import (
	"strings"
	"testing"
)

func TestGetVersion(t *testing.T) {
	// Test default version
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}

	version := GetVersion()
	if version != "dev" && version != "unknown" {
		// This is fine, version could be set at build time
		t.Logf("Version: %s", version)
	}
}

func TestParseDefaults(t *testing.T) {
	cfg, err := parse([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.DBPath != "./data/discovr.db" {
		t.Errorf("Expected default db path, got '%s'", cfg.DBPath)
	}
	if cfg.InboxDir != "./inbox" {
		t.Errorf("Expected default inbox dir, got '%s'", cfg.InboxDir)
	}
	if cfg.MinTitleLength != 10 || cfg.MaxTitleLength != 250 {
		t.Errorf("Expected title bounds 10/250, got %d/%d", cfg.MinTitleLength, cfg.MaxTitleLength)
	}
	if cfg.PastWindowDays != 365 || cfg.FutureWindowDays != 730 {
		t.Errorf("Expected window 365/730, got %d/%d", cfg.PastWindowDays, cfg.FutureWindowDays)
	}
	if cfg.RejectSampleSize != 50 {
		t.Errorf("Expected reject sample size 50, got %d", cfg.RejectSampleSize)
	}
	if cfg.WorkerCount != 5 {
		t.Errorf("Expected worker count 5, got %d", cfg.WorkerCount)
	}
	if cfg.Version == "" {
		t.Error("Expected version to be set")
	}
}

func TestParseFlags(t *testing.T) {
	cfg, err := parse([]string{
		"--db-path", "/tmp/test.db",
		"--cities-file", "/etc/discovr/cities.yml",
		"--min-title-length", "5",
		"--future-window-days", "365",
		"--api-key", "test-key",
		"--debug",
	})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.DBPath != "/tmp/test.db" {
		t.Errorf("Expected db path '/tmp/test.db', got '%s'", cfg.DBPath)
	}
	if cfg.CitiesFile != "/etc/discovr/cities.yml" {
		t.Errorf("Expected cities file, got '%s'", cfg.CitiesFile)
	}
	if cfg.MinTitleLength != 5 {
		t.Errorf("Expected min title length 5, got %d", cfg.MinTitleLength)
	}
	if cfg.FutureWindowDays != 365 {
		t.Errorf("Expected future window 365, got %d", cfg.FutureWindowDays)
	}
	if cfg.APIAccessKey != "test-key" {
		t.Errorf("Expected API key 'test-key', got '%s'", cfg.APIAccessKey)
	}
	if !cfg.Debug {
		t.Error("Expected debug to be enabled")
	}
}

func TestParseEnv(t *testing.T) {
	t.Setenv("SOURCES_DIR", "/srv/sources")
	t.Setenv("WORKER_COUNT", "2")

	cfg, err := parse([]string{})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SourcesDir != "/srv/sources" {
		t.Errorf("Expected sources dir from env, got '%s'", cfg.SourcesDir)
	}
	if cfg.WorkerCount != 2 {
		t.Errorf("Expected worker count 2, got %d", cfg.WorkerCount)
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		errText string
	}{
		{"Zero workers", []string{"--worker-count", "0"}, "worker count"},
		{"Inverted title bounds", []string{"--min-title-length", "300"}, "exceeds"},
		{"Negative sample", []string{"--reject-sample-size=-1"}, "reject sample size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse(tt.args)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.errText) {
				t.Errorf("Expected error containing '%s', got '%v'", tt.errText, err)
			}
		})
	}
}

func TestGetPanicsBeforeLoad(t *testing.T) {
	saved := globalCfg
	globalCfg = nil
	defer func() {
		globalCfg = saved
		if recover() == nil {
			t.Error("Expected Get to panic before Load")
		}
	}()

	Get()
}
