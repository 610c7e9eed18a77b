package config

// Config holds all mosher configuration options
type Config struct {
	// Required fields
	Input  string `yaml:"input"`
	Output string `yaml:"output"`

	// Additional clips appended after the main input
	Append []string `yaml:"append"`

	// Keyframe selection
	KeepFirst int    `yaml:"keep_first"` // leading keyframes to keep
	KeepKeys  string `yaml:"keep_keys"`  // e.g. "0,15,20-22"
	DropKeys  string `yaml:"drop_keys"`

	// Delta frame duplication
	DuplicateCount int `yaml:"duplicate_count"` // extra copies per selected frame
	DuplicateGap   int `yaml:"duplicate_gap"`   // duplicate every Nth delta frame

	// Splice behavior
	KeepAppendedFirst bool `yaml:"keep_appended_first"` // keep appended clips' first keyframe
	StripAudio        bool `yaml:"strip_audio"`

	// Prepare mode converts the input to a mosh-ready Xvid AVI and
	// stops without moshing
	Prepare bool `yaml:"prepare"`

	// Normalization settings
	Normalize NormalizeConfig `yaml:"normalize"`

	// Execution settings
	Workers    int    `yaml:"workers"` // 0 = auto-detect
	FFmpegBin  string `yaml:"ffmpeg_bin"`
	FFprobeBin string `yaml:"ffprobe_bin"`

	// Behavioral flags
	Verbose bool `yaml:"verbose"` // Show detailed logs
	DryRun  bool `yaml:"dry_run"` // Show the plan without rendering
}

// NormalizeConfig holds the ffmpeg conversion settings used when
// inputs are transcoded to Xvid before moshing.
type NormalizeConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Preset    string `yaml:"preset"` // "fast", "balanced", "sharp"
	Width     int    `yaml:"width"`  // 0 = preset default
	Height    int    `yaml:"height"` // 0 = follow aspect ratio
	QScale    int    `yaml:"qscale"` // 0 = preset default
	GOP       int    `yaml:"gop"`    // 0 = preset default
	DropAudio bool   `yaml:"drop_audio"`
}

// DefaultConfig returns configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		// Required - must be provided by user
		Input:  "",
		Output: "",

		// Keep one keyframe so the output starts decodable, drop the
		// rest for the glitch
		KeepFirst: 1,

		// No duplication unless asked for
		DuplicateCount: 0,
		DuplicateGap:   1,

		Normalize: NormalizeConfig{
			Enabled: false,
			Preset:  "balanced",
		},

		Workers:    0, // Auto-detect CPU count
		FFmpegBin:  "ffmpeg",
		FFprobeBin: "ffprobe",

		Verbose: false,
		DryRun:  false,
	}
}

// Copy creates a deep copy of the config
func (c *Config) Copy() *Config {
	copy := *c
	copy.Append = append([]string(nil), c.Append...)
	copy.Normalize = c.Normalize
	return &copy
}

// PresetValues returns valid normalization preset names
func PresetValues() []string {
	return []string{"fast", "balanced", "sharp"}
}

// IsValidPreset checks if preset is valid
func IsValidPreset(preset string) bool {
	for _, valid := range PresetValues() {
		if preset == valid {
			return true
		}
	}
	return false
}
