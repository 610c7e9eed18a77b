package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/willbearfruits/datamosh-gui/keyspec"
)

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errors []string

	// Required fields
	if c.Input == "" {
		errors = append(errors, "input file is required")
	} else {
		if _, err := os.Stat(c.Input); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("input file does not exist: %s", c.Input))
		}
	}

	if c.Output == "" {
		errors = append(errors, "output file is required")
	}

	for _, extra := range c.Append {
		if _, err := os.Stat(extra); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("appended file does not exist: %s", extra))
		}
	}

	// Prepare mode converts exactly one input
	if c.Prepare && len(c.Append) > 0 {
		errors = append(errors, "prepare mode takes a single input, not appended clips")
	}

	// Keyframe selection
	if c.KeepFirst < 0 {
		errors = append(errors, "keep_first cannot be negative")
	}
	if _, err := keyspec.ParseSet(c.KeepKeys); err != nil {
		errors = append(errors, fmt.Sprintf("keep_keys: %v", err))
	}
	if _, err := keyspec.ParseSet(c.DropKeys); err != nil {
		errors = append(errors, fmt.Sprintf("drop_keys: %v", err))
	}

	// Duplication
	if c.DuplicateCount < 0 {
		errors = append(errors, "duplicate_count cannot be negative")
	}
	if c.DuplicateGap < 1 {
		errors = append(errors, "duplicate_gap must be >= 1")
	}

	// Workers (0 is valid, means auto-detect)
	if c.Workers < 0 {
		errors = append(errors, "workers cannot be negative (use 0 for auto-detect)")
	}

	// Normalization
	if err := c.Normalize.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("normalize config: %v", err))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// Validate checks if normalization configuration is valid
func (nc *NormalizeConfig) Validate() error {
	var errors []string

	if nc.Preset != "" && !IsValidPreset(nc.Preset) {
		errors = append(errors, fmt.Sprintf("invalid preset '%s', must be one of: %s",
			nc.Preset, strings.Join(PresetValues(), ", ")))
	}

	// Xvid output is yuv420p, dimensions must be even
	if nc.Width < 0 || nc.Width%2 != 0 {
		errors = append(errors, "width must be a positive, even integer")
	}
	if nc.Height < 0 || nc.Height%2 != 0 {
		errors = append(errors, "height must be a positive, even integer")
	}

	if nc.QScale < 0 {
		errors = append(errors, "qscale cannot be negative (use 0 for preset default)")
	}
	if nc.GOP < 0 {
		errors = append(errors, "gop cannot be negative (use 0 for preset default)")
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, ", "))
	}

	return nil
}
