package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

// stringSliceFlag collects repeated flag values
type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, value)
	return nil
}

// MergeFromFlags parses command-line flags and overrides config values
func (c *Config) MergeFromFlags() error {
	return c.mergeFrom(os.Args[1:])
}

func (c *Config) mergeFrom(args []string) error {
	fs := flag.NewFlagSet("mosher", flag.ContinueOnError)
	fs.Usage = printUsage

	// Required fields
	input := fs.String("input", "", "Source AVI file path (required)")
	output := fs.String("output", "", "Destination AVI file path (required)")

	// Config file override (handled by LoadConfig before this function is called)
	_ = fs.String("config", "", "Path to config file (default: search standard locations)")

	// Appended clips
	var appendClips stringSliceFlag
	fs.Var(&appendClips, "append", "Additional AVI clip to append after the main input (can be repeated)")

	// Keyframe selection
	keepFirst := fs.Int("keep-first", -1, "Number of leading video keyframes to keep (default: from config)")
	keepKeys := fs.String("keep-keys", "", "Keyframe indices or ranges to force-keep, e.g. '0,15,20-22'")
	dropKeys := fs.String("drop-keys", "", "Keyframe indices or ranges to force-drop")

	// Delta frame duplication
	duplicateCount := fs.Int("duplicate-count", -1, "Extra copies to insert for selected delta frames (default: from config)")
	duplicateGap := fs.Int("duplicate-gap", -1, "Duplicate every Nth delta frame (default: from config)")

	// Splice behavior
	keepAppendedFirst := fs.Bool("keep-appended-first", false, "Preserve the first keyframe of appended clips instead of dropping it")
	stripAudio := fs.Bool("strip-audio", false, "Drop all audio frames from the output")

	// Normalization
	prepare := fs.Bool("prepare", false, "Convert the input to a mosh-ready Xvid AVI and stop without moshing")
	normalize := fs.Bool("normalize", false, "Transcode all inputs to datamosh-friendly Xvid before moshing")
	normalizePreset := fs.String("normalize-preset", "", "Preset used with -normalize: fast, balanced, sharp (default: from config)")
	normWidth := fs.Int("norm-width", -1, "Target width when normalizing (default: preset)")
	normHeight := fs.Int("norm-height", -1, "Target height when normalizing (default: follow aspect ratio)")
	normQScale := fs.Int("norm-qscale", -1, "Xvid quality factor when normalizing, lower is better (default: preset)")
	normGOP := fs.Int("norm-gop", -1, "Keyframe interval when normalizing (default: preset)")
	normalizeDropAudio := fs.Bool("normalize-drop-audio", false, "Strip audio during normalization for pure video glitches")

	// Execution settings
	workers := fs.Int("workers", -1, "Number of parallel normalization workers (0 = auto-detect, default: from config)")
	ffmpegBin := fs.String("ffmpeg-bin", "", "Path to ffmpeg binary (default: from config)")
	ffprobeBin := fs.String("ffprobe-bin", "", "Path to ffprobe binary (default: from config)")

	// Behavioral flags
	verbose := fs.Bool("verbose", false, "Enable verbose logging")
	dryRun := fs.Bool("dry-run", false, "Show the render plan without executing it")

	if err := fs.Parse(args); err != nil {
		return err
	}

	// Override with flag values (only if explicitly set)
	if *input != "" {
		c.Input = *input
	}
	if *output != "" {
		c.Output = *output
	}
	if len(appendClips) > 0 {
		c.Append = append(c.Append, appendClips...)
	}

	if *keepFirst >= 0 {
		c.KeepFirst = *keepFirst
	}
	if *keepKeys != "" {
		c.KeepKeys = *keepKeys
	}
	if *dropKeys != "" {
		c.DropKeys = *dropKeys
	}

	if *duplicateCount >= 0 {
		c.DuplicateCount = *duplicateCount
	}
	if *duplicateGap >= 0 {
		c.DuplicateGap = *duplicateGap
	}

	if *keepAppendedFirst {
		c.KeepAppendedFirst = true
	}
	if *stripAudio {
		c.StripAudio = true
	}

	if *prepare {
		c.Prepare = true
		c.Normalize.Enabled = true
	}
	if *normalize {
		c.Normalize.Enabled = true
	}
	if *normalizePreset != "" {
		c.Normalize.Preset = *normalizePreset
	}
	if *normWidth >= 0 {
		c.Normalize.Width = *normWidth
	}
	if *normHeight >= 0 {
		c.Normalize.Height = *normHeight
	}
	if *normQScale >= 0 {
		c.Normalize.QScale = *normQScale
	}
	if *normGOP >= 0 {
		c.Normalize.GOP = *normGOP
	}
	if *normalizeDropAudio {
		c.Normalize.DropAudio = true
	}

	if *workers >= 0 {
		c.Workers = *workers
	}
	if *ffmpegBin != "" {
		c.FFmpegBin = *ffmpegBin
	}
	if *ffprobeBin != "" {
		c.FFprobeBin = *ffprobeBin
	}

	if *verbose {
		c.Verbose = true
	}
	if *dryRun {
		c.DryRun = true
	}

	return nil
}

// printUsage prints help text
func printUsage() {
	fmt.Fprintf(os.Stderr, `mosher - Create datamoshed AVI clips by removing keyframes and multiplying delta frames

USAGE:
  mosher -input FILE -output FILE [OPTIONS]

REQUIRED FLAGS:
  -input string
        Source AVI file path (preferably Xvid/DivX encoded)
  -output string
        Destination AVI file path

CONFIGURATION:
  -config string
        Path to config file (default: search ./mosher.yaml, ~/.mosher/config.yaml, /etc/mosher/config.yaml)

KEYFRAME SELECTION:
  -keep-first int
        Number of leading video keyframes to keep (default: 1)
  -keep-keys string
        Keyframe indices or ranges to force-keep, e.g. '0,15,20-22'
  -drop-keys string
        Keyframe indices or ranges to force-drop

DELTA FRAME DUPLICATION:
  -duplicate-count int
        Extra copies to insert for selected delta frames (default: 0)
  -duplicate-gap int
        Duplicate every Nth delta frame (default: 1 = duplicate all)

CLIP SPLICING:
  -append FILE
        Additional AVI clip to append after the main input (can be repeated)
  -keep-appended-first
        Preserve the first keyframe of appended clips instead of dropping it

NORMALIZATION:
  -prepare
        Convert the input to a mosh-ready Xvid AVI and stop without moshing
  -normalize
        Transcode all inputs to datamosh-friendly Xvid before moshing
  -normalize-preset string
        Preset: fast, balanced, sharp (default: balanced)
  -norm-width int
        Target width, must be even (default: preset)
  -norm-height int
        Target height, must be even (default: follow aspect ratio)
  -norm-qscale int
        Xvid quality factor, lower is better (default: preset)
  -norm-gop int
        Keyframe interval in frames (default: preset)
  -normalize-drop-audio
        Strip audio during normalization for pure video glitches

EXECUTION SETTINGS:
  -workers int
        Number of parallel normalization workers (0 = auto-detect CPU count)
  -ffmpeg-bin string
        Path to ffmpeg binary (default: ffmpeg)
  -ffprobe-bin string
        Path to ffprobe binary (default: ffprobe)

BEHAVIORAL FLAGS:
  -strip-audio
        Drop all audio frames from the output
  -verbose
        Enable verbose logging
  -dry-run
        Show the render plan without executing it

EXAMPLES:
  # Classic mosh: drop every keyframe after the first
  mosher -input clip.avi -output moshed.avi

  # Bloom effect: duplicate every 3rd delta frame twice
  mosher -input clip.avi -output moshed.avi -duplicate-count 2 -duplicate-gap 3

  # Splice two clips so the second melts into the first
  mosher -input a.avi -append b.avi -output moshed.avi

  # Start from phone footage, normalizing to Xvid first
  mosher -input video.mp4 -output moshed.avi -normalize -normalize-preset sharp

  # Convert footage to a mosh-ready Xvid AVI without moshing it
  mosher -input video.mp4 -output ready.avi -prepare

CONFIGURATION FILES:
  Config files are searched in order:
    1. ./mosher.yaml
    2. ~/.mosher/config.yaml
    3. /etc/mosher/config.yaml

  Priority: CLI flags > Config file > Defaults

`)
}

// PrintConfig prints the effective configuration
func (c *Config) PrintConfig() {
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Println("                 Effective Configuration                  ")
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Printf("Input:           %s\n", c.Input)
	for _, extra := range c.Append {
		fmt.Printf("Append:          %s\n", extra)
	}
	fmt.Printf("Output:          %s\n", c.Output)
	fmt.Printf("Workers:         %d\n", c.Workers)

	fmt.Println("\nKeyframe Selection:")
	fmt.Printf("  Keep First:    %d\n", c.KeepFirst)
	if c.KeepKeys != "" {
		fmt.Printf("  Keep Keys:     %s\n", c.KeepKeys)
	}
	if c.DropKeys != "" {
		fmt.Printf("  Drop Keys:     %s\n", c.DropKeys)
	}

	fmt.Println("\nDuplication:")
	fmt.Printf("  Count:         %d\n", c.DuplicateCount)
	fmt.Printf("  Gap:           %d\n", c.DuplicateGap)

	if c.Normalize.Enabled {
		fmt.Println("\nNormalization:")
		fmt.Printf("  Preset:        %s\n", c.Normalize.Preset)
		if c.Normalize.Width > 0 {
			fmt.Printf("  Width:         %d\n", c.Normalize.Width)
		}
		if c.Normalize.Height > 0 {
			fmt.Printf("  Height:        %d\n", c.Normalize.Height)
		}
		if c.Normalize.QScale > 0 {
			fmt.Printf("  QScale:        %d\n", c.Normalize.QScale)
		}
		if c.Normalize.GOP > 0 {
			fmt.Printf("  GOP:           %d\n", c.Normalize.GOP)
		}
		fmt.Printf("  Drop Audio:    %v\n", c.Normalize.DropAudio)
	}

	fmt.Println("\nBehavioral Flags:")
	fmt.Printf("  Strip Audio:   %v\n", c.StripAudio)
	fmt.Printf("  Verbose:       %v\n", c.Verbose)
	fmt.Println("═══════════════════════════════════════════════════════════")
}
