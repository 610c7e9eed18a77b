package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func tempInput(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.avi")
	if err := os.WriteFile(path, []byte("RIFF"), 0o644); err != nil {
		t.Fatalf("Failed to write temp input: %v", err)
	}
	return path
}

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Input = tempInput(t)
	cfg.Output = filepath.Join(t.TempDir(), "out.avi")
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.KeepFirst != 1 {
		t.Errorf("Expected keep_first 1, got %d", cfg.KeepFirst)
	}
	if cfg.DuplicateCount != 0 {
		t.Errorf("Expected duplicate_count 0, got %d", cfg.DuplicateCount)
	}
	if cfg.DuplicateGap != 1 {
		t.Errorf("Expected duplicate_gap 1, got %d", cfg.DuplicateGap)
	}
	if cfg.Normalize.Enabled {
		t.Error("Expected normalization disabled by default")
	}
	if cfg.Normalize.Preset != "balanced" {
		t.Errorf("Expected balanced preset, got %q", cfg.Normalize.Preset)
	}
	if cfg.FFmpegBin != "ffmpeg" || cfg.FFprobeBin != "ffprobe" {
		t.Error("Expected default tool names")
	}
}

func TestCopy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Append = []string{"a.avi", "b.avi"}

	dup := cfg.Copy()
	dup.Append[0] = "changed.avi"
	dup.Normalize.Preset = "sharp"

	if cfg.Append[0] != "a.avi" {
		t.Error("Expected append slice to be deep copied")
	}
	if cfg.Normalize.Preset != "balanced" {
		t.Error("Expected normalize config to be copied")
	}
}

func TestIsValidPreset(t *testing.T) {
	for _, preset := range PresetValues() {
		if !IsValidPreset(preset) {
			t.Errorf("Expected %q to be valid", preset)
		}
	}
	if IsValidPreset("ludicrous") {
		t.Error("Expected unknown preset to be invalid")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(t *testing.T, cfg *Config)
		errorText string
	}{
		{
			name:   "valid config",
			mutate: func(t *testing.T, cfg *Config) {},
		},
		{
			name:      "missing input",
			mutate:    func(t *testing.T, cfg *Config) { cfg.Input = "" },
			errorText: "input file is required",
		},
		{
			name:      "nonexistent input",
			mutate:    func(t *testing.T, cfg *Config) { cfg.Input = "/nonexistent/clip.avi" },
			errorText: "input file does not exist",
		},
		{
			name:      "missing output",
			mutate:    func(t *testing.T, cfg *Config) { cfg.Output = "" },
			errorText: "output file is required",
		},
		{
			name:      "nonexistent appended clip",
			mutate:    func(t *testing.T, cfg *Config) { cfg.Append = []string{"/nonexistent/extra.avi"} },
			errorText: "appended file does not exist",
		},
		{
			name: "prepare with appended clip",
			mutate: func(t *testing.T, cfg *Config) {
				cfg.Prepare = true
				cfg.Append = []string{tempInput(t)}
			},
			errorText: "prepare mode takes a single input",
		},
		{
			name:      "negative keep first",
			mutate:    func(t *testing.T, cfg *Config) { cfg.KeepFirst = -1 },
			errorText: "keep_first cannot be negative",
		},
		{
			name:      "malformed keep keys",
			mutate:    func(t *testing.T, cfg *Config) { cfg.KeepKeys = "banana" },
			errorText: "keep_keys",
		},
		{
			name:      "malformed drop keys",
			mutate:    func(t *testing.T, cfg *Config) { cfg.DropKeys = "5-2" },
			errorText: "drop_keys",
		},
		{
			name:      "negative duplicate count",
			mutate:    func(t *testing.T, cfg *Config) { cfg.DuplicateCount = -1 },
			errorText: "duplicate_count cannot be negative",
		},
		{
			name:      "zero duplicate gap",
			mutate:    func(t *testing.T, cfg *Config) { cfg.DuplicateGap = 0 },
			errorText: "duplicate_gap must be >= 1",
		},
		{
			name:      "negative workers",
			mutate:    func(t *testing.T, cfg *Config) { cfg.Workers = -1 },
			errorText: "workers cannot be negative",
		},
		{
			name:      "invalid preset",
			mutate:    func(t *testing.T, cfg *Config) { cfg.Normalize.Preset = "ludicrous" },
			errorText: "invalid preset",
		},
		{
			name:      "odd normalize width",
			mutate:    func(t *testing.T, cfg *Config) { cfg.Normalize.Width = 961 },
			errorText: "width must be a positive, even integer",
		},
		{
			name:      "odd normalize height",
			mutate:    func(t *testing.T, cfg *Config) { cfg.Normalize.Height = 481 },
			errorText: "height must be a positive, even integer",
		},
		{
			name:      "negative qscale",
			mutate:    func(t *testing.T, cfg *Config) { cfg.Normalize.QScale = -1 },
			errorText: "qscale cannot be negative",
		},
		{
			name:      "negative gop",
			mutate:    func(t *testing.T, cfg *Config) { cfg.Normalize.GOP = -1 },
			errorText: "gop cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(t, cfg)

			err := cfg.Validate()
			if tt.errorText == "" {
				if err != nil {
					t.Fatalf("Unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Expected error but got none")
			}
			if !strings.Contains(err.Error(), tt.errorText) {
				t.Errorf("Expected error containing %q, got %q", tt.errorText, err.Error())
			}
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DuplicateGap = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Expected error but got none")
	}
	for _, want := range []string{"input file is required", "output file is required", "duplicate_gap"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Expected combined error to contain %q, got %q", want, err.Error())
		}
	}
}
