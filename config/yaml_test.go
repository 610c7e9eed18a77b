package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfigFile(t *testing.T) {
	content := `
input: clip.avi
output: moshed.avi
append:
  - extra.avi
keep_first: 0
duplicate_count: 2
duplicate_gap: 3
strip_audio: true
normalize:
  enabled: true
  preset: sharp
  width: 1920
workers: 4
`
	path := filepath.Join(t.TempDir(), "mosher.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Input != "clip.avi" || cfg.Output != "moshed.avi" {
		t.Errorf("Unexpected paths: %q, %q", cfg.Input, cfg.Output)
	}
	if len(cfg.Append) != 1 || cfg.Append[0] != "extra.avi" {
		t.Errorf("Unexpected append list: %v", cfg.Append)
	}
	if cfg.KeepFirst != 0 {
		t.Errorf("Expected keep_first 0, got %d", cfg.KeepFirst)
	}
	if cfg.DuplicateCount != 2 || cfg.DuplicateGap != 3 {
		t.Errorf("Unexpected duplication: %d/%d", cfg.DuplicateCount, cfg.DuplicateGap)
	}
	if !cfg.StripAudio {
		t.Error("Expected strip_audio true")
	}
	if !cfg.Normalize.Enabled || cfg.Normalize.Preset != "sharp" || cfg.Normalize.Width != 1920 {
		t.Errorf("Unexpected normalize config: %+v", cfg.Normalize)
	}
	if cfg.Workers != 4 {
		t.Errorf("Expected workers 4, got %d", cfg.Workers)
	}

	// Fields absent from the file keep their defaults.
	if cfg.FFmpegBin != "ffmpeg" {
		t.Errorf("Expected default ffmpeg bin, got %q", cfg.FFmpegBin)
	}
}

func TestLoadConfigFileMissing(t *testing.T) {
	_, err := LoadConfigFile("/nonexistent/mosher.yaml")
	if err == nil {
		t.Fatal("Expected error but got none")
	}
	if !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestLoadConfigFileInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mosher.yaml")
	if err := os.WriteFile(path, []byte("input: [unclosed"), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	_, err := LoadConfigFile(path)
	if err == nil {
		t.Fatal("Expected error but got none")
	}
	if !strings.Contains(err.Error(), "failed to parse config file") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestSaveConfigFileRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Input = "clip.avi"
	cfg.Output = "moshed.avi"
	cfg.DuplicateCount = 2
	cfg.Normalize.Enabled = true
	cfg.Normalize.Preset = "fast"

	path := filepath.Join(t.TempDir(), "saved", "mosher.yaml")
	if err := SaveConfigFile(cfg, path); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	loaded, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if loaded.Input != cfg.Input || loaded.DuplicateCount != cfg.DuplicateCount {
		t.Error("Expected saved values to round trip")
	}
	if !loaded.Normalize.Enabled || loaded.Normalize.Preset != "fast" {
		t.Error("Expected normalize config to round trip")
	}
}
