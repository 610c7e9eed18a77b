package config

import (
	"strings"
	"testing"
)

func TestMergeFromFlags(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, cfg *Config)
	}{
		{
			name: "input and output",
			args: []string{"-input", "clip.avi", "-output", "moshed.avi"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Input != "clip.avi" || cfg.Output != "moshed.avi" {
					t.Errorf("Unexpected paths: %q, %q", cfg.Input, cfg.Output)
				}
			},
		},
		{
			name: "defaults survive when flags absent",
			args: []string{},
			check: func(t *testing.T, cfg *Config) {
				if cfg.KeepFirst != 1 || cfg.DuplicateGap != 1 {
					t.Error("Expected defaults to survive an empty flag set")
				}
			},
		},
		{
			name: "repeated append flag",
			args: []string{"-append", "b.avi", "-append", "c.avi"},
			check: func(t *testing.T, cfg *Config) {
				if len(cfg.Append) != 2 || cfg.Append[0] != "b.avi" || cfg.Append[1] != "c.avi" {
					t.Errorf("Unexpected append list: %v", cfg.Append)
				}
			},
		},
		{
			name: "keep first zero is an explicit override",
			args: []string{"-keep-first", "0"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.KeepFirst != 0 {
					t.Errorf("Expected keep_first 0, got %d", cfg.KeepFirst)
				}
			},
		},
		{
			name: "keyframe specs",
			args: []string{"-keep-keys", "0,15,20-22", "-drop-keys", "3"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.KeepKeys != "0,15,20-22" || cfg.DropKeys != "3" {
					t.Errorf("Unexpected specs: %q, %q", cfg.KeepKeys, cfg.DropKeys)
				}
			},
		},
		{
			name: "duplication settings",
			args: []string{"-duplicate-count", "2", "-duplicate-gap", "3"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.DuplicateCount != 2 || cfg.DuplicateGap != 3 {
					t.Errorf("Unexpected duplication: %d/%d", cfg.DuplicateCount, cfg.DuplicateGap)
				}
			},
		},
		{
			name: "normalization flags",
			args: []string{"-normalize", "-normalize-preset", "sharp", "-norm-width", "1920", "-norm-gop", "36", "-normalize-drop-audio"},
			check: func(t *testing.T, cfg *Config) {
				n := cfg.Normalize
				if !n.Enabled || n.Preset != "sharp" || n.Width != 1920 || n.GOP != 36 || !n.DropAudio {
					t.Errorf("Unexpected normalize config: %+v", n)
				}
			},
		},
		{
			name: "prepare implies normalization",
			args: []string{"-prepare"},
			check: func(t *testing.T, cfg *Config) {
				if !cfg.Prepare || !cfg.Normalize.Enabled {
					t.Errorf("Expected prepare and normalize enabled, got %v/%v", cfg.Prepare, cfg.Normalize.Enabled)
				}
			},
		},
		{
			name: "behavioral flags",
			args: []string{"-keep-appended-first", "-strip-audio", "-verbose", "-dry-run"},
			check: func(t *testing.T, cfg *Config) {
				if !cfg.KeepAppendedFirst || !cfg.StripAudio || !cfg.Verbose || !cfg.DryRun {
					t.Error("Expected all behavioral flags set")
				}
			},
		},
		{
			name: "tool overrides",
			args: []string{"-ffmpeg-bin", "/opt/ffmpeg", "-ffprobe-bin", "/opt/ffprobe", "-workers", "4"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.FFmpegBin != "/opt/ffmpeg" || cfg.FFprobeBin != "/opt/ffprobe" || cfg.Workers != 4 {
					t.Error("Expected tool overrides applied")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			if err := cfg.mergeFrom(tt.args); err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestMergeFromFlagsOverridesFileValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Input = "from-file.avi"
	cfg.DuplicateCount = 5

	if err := cfg.mergeFrom([]string{"-input", "from-flag.avi"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Input != "from-flag.avi" {
		t.Errorf("Expected flag to win, got %q", cfg.Input)
	}
	if cfg.DuplicateCount != 5 {
		t.Errorf("Expected file value to survive, got %d", cfg.DuplicateCount)
	}
}

func TestMergeFromFlagsUnknownFlag(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.mergeFrom([]string{"-does-not-exist"})
	if err == nil {
		t.Fatal("Expected error but got none")
	}
	if !strings.Contains(err.Error(), "does-not-exist") {
		t.Errorf("Expected flag name in error, got %q", err.Error())
	}
}
