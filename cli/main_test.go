package main

import (
	"bytes"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sv4u/musicid/identify"
)

func TestTagCommand_InvalidConfigExits1(t *testing.T) {
	// Missing config file -> configuration error, exit 1
	code := tagCommand([]string{"-config", filepath.Join(t.TempDir(), "nonexistent.yaml"), t.TempDir()})
	if code != TagExitConfigError {
		t.Errorf("tagCommand(nonexistent config) = %d, want %d (TagExitConfigError)", code, TagExitConfigError)
	}
}

func TestTagCommand_NoPathsExits2(t *testing.T) {
	code := tagCommand([]string{})
	if code != TagExitPathError {
		t.Errorf("tagCommand(no paths) = %d, want %d (TagExitPathError)", code, TagExitPathError)
	}
}

func TestIdentifyCommand_NoFileExits1(t *testing.T) {
	code := identifyCommand([]string{})
	if code != IdentifyExitConfigError {
		t.Errorf("identifyCommand(no file) = %d, want %d (IdentifyExitConfigError)", code, IdentifyExitConfigError)
	}
}

func TestResolveConfigPath(t *testing.T) {
	t.Chdir(t.TempDir())

	newFlagSet := func(args ...string) *flag.FlagSet {
		fs := flag.NewFlagSet("tag", flag.ContinueOnError)
		fs.String("config", defaultConfigPath, "")
		if err := fs.Parse(args); err != nil {
			t.Fatalf("parse flags: %v", err)
		}
		return fs
	}

	// Flag left at default, no file in cwd: fall through to built-in defaults
	if got := resolveConfigPath(newFlagSet(), defaultConfigPath); got != "" {
		t.Errorf("resolveConfigPath(default, missing) = %q, want empty", got)
	}

	// Flag left at default but the file exists: read it
	if err := os.WriteFile(defaultConfigPath, []byte(`version: "1.0"`), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if got := resolveConfigPath(newFlagSet(), defaultConfigPath); got != defaultConfigPath {
		t.Errorf("resolveConfigPath(default, present) = %q, want %q", got, defaultConfigPath)
	}

	// Explicit path is honored even when missing, so the error surfaces
	missing := filepath.Join(t.TempDir(), "nope.yaml")
	fs := newFlagSet("-config", missing)
	if got := resolveConfigPath(fs, missing); got != missing {
		t.Errorf("resolveConfigPath(explicit, missing) = %q, want %q", got, missing)
	}
}

func TestLoadConfig_DefaultsWithEnvironmentOnly(t *testing.T) {
	// No config file anywhere, key from the environment
	t.Chdir(t.TempDir())
	t.Setenv("ACOUSTID_API_KEY", "env_key")
	t.Setenv("SPOTIFY_CLIENT_ID", "")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "")

	cfg, err := loadConfigWithOverrides("", "", "", 0, 0)
	if err != nil {
		t.Fatalf("default run with no config file failed: %v", err)
	}
	if cfg.Identify.APIKey != "env_key" {
		t.Errorf("Expected API key from environment, got %q", cfg.Identify.APIKey)
	}
	if cfg.Identify.Segments != 3 {
		t.Errorf("Expected default segments 3, got %d", cfg.Identify.Segments)
	}
}

func TestTagExitCode(t *testing.T) {
	tests := []struct {
		name  string
		stats identify.RunStats
		want  int
	}{
		{"all tagged", identify.RunStats{Processed: 3, Tagged: 3}, TagExitSuccess},
		{"some skipped", identify.RunStats{Processed: 3, Tagged: 2, Skipped: 1}, TagExitSuccess},
		{"no matches still success", identify.RunStats{Processed: 2, NoMatch: 2}, TagExitSuccess},
		{"all failed", identify.RunStats{Processed: 2, Failed: 2}, TagExitAllFailed},
		{"partial failure", identify.RunStats{Processed: 3, Tagged: 2, Failed: 1}, TagExitPartial},
		{"only skips", identify.RunStats{Processed: 2, Skipped: 2}, TagExitSuccess},
		{"empty run", identify.RunStats{}, TagExitSuccess},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tagExitCode(&tt.stats); got != tt.want {
				t.Errorf("tagExitCode(%+v) = %d, want %d", tt.stats, got, tt.want)
			}
		})
	}
}

func TestLoadConfigWithOverrides(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(`version: "1.0"
identify:
  api_key: "test_key"
  segments: 3
`), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := loadConfigWithOverrides(configPath, "title,artist", "missing", 5, 0.8)
	if err != nil {
		t.Fatalf("loadConfigWithOverrides failed: %v", err)
	}

	if len(cfg.Identify.Tags) != 2 {
		t.Errorf("Expected 2 tags, got %v", cfg.Identify.Tags)
	}
	if cfg.Identify.Overwrite != "missing" {
		t.Errorf("Expected overwrite 'missing', got %q", cfg.Identify.Overwrite)
	}
	if cfg.Identify.Segments != 5 {
		t.Errorf("Expected 5 segments, got %d", cfg.Identify.Segments)
	}
	if cfg.Identify.MinScore != 0.8 {
		t.Errorf("Expected min score 0.8, got %v", cfg.Identify.MinScore)
	}
}

func TestLoadConfigWithOverrides_InvalidOverwrite(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(`version: "1.0"
identify:
  api_key: "test_key"
`), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := loadConfigWithOverrides(configPath, "", "sometimes", 0, 0); err == nil {
		t.Error("Expected error for invalid overwrite mode")
	}
}

func TestCreateRunDir(t *testing.T) {
	t.Setenv("MUSICID_LOG_DIR", t.TempDir())

	runDir, logPath, err := CreateRunDir(RunDirTag)
	if err != nil {
		t.Fatalf("CreateRunDir failed: %v", err)
	}

	if _, err := os.Stat(runDir); err != nil {
		t.Errorf("Run dir not created: %v", err)
	}
	if filepath.Dir(logPath) != runDir {
		t.Errorf("Log path %q not under run dir %q", logPath, runDir)
	}
	if !strings.HasSuffix(logPath, "tag.log") {
		t.Errorf("Expected tag.log, got %q", logPath)
	}
}

func TestRedirectLogToFile(t *testing.T) {
	var buf bytes.Buffer
	restore := RedirectLogToFile(&buf)

	log.Printf("INFO: test_entry key=value")
	restore()

	if !strings.Contains(buf.String(), "INFO: test_entry key=value") {
		t.Errorf("Log output not redirected, got %q", buf.String())
	}

	// After restore, log output should no longer land in the buffer
	before := buf.Len()
	log.SetOutput(os.Stderr)
	if buf.Len() != before {
		t.Error("Log output still redirected after restore")
	}
}
