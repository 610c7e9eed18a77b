package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/willbearfruits/datamosh-gui/config"
	"github.com/willbearfruits/datamosh-gui/ffprobe"
	"github.com/willbearfruits/datamosh-gui/internal/timeutil"
	"github.com/willbearfruits/datamosh-gui/keyspec"
	"github.com/willbearfruits/datamosh-gui/models"
	"github.com/willbearfruits/datamosh-gui/mosh"
	"github.com/willbearfruits/datamosh-gui/normalize"
	"github.com/willbearfruits/datamosh-gui/orchestrator"
	"github.com/willbearfruits/datamosh-gui/render"
)

func main() {
	// Step 1: Load configuration (CLI flags > config file > defaults)
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Step 2: Handle dry-run mode
	if cfg.DryRun {
		fmt.Println("═══════════════════════════════════════════════════════════")
		fmt.Println("                      DRY RUN MODE")
		fmt.Println("═══════════════════════════════════════════════════════════")
		cfg.PrintConfig()
		if cfg.Normalize.Enabled {
			fmt.Println("\nNormalization commands:")
			for _, path := range append([]string{cfg.Input}, cfg.Append...) {
				cmd, err := normalizeBuilder(cfg, path, "<temp>.avi")
				if err != nil {
					fmt.Fprintf(os.Stderr, "❌ %v\n", err)
					os.Exit(1)
				}
				line, err := cmd.DryRun()
				if err != nil {
					fmt.Fprintf(os.Stderr, "❌ %v\n", err)
					os.Exit(1)
				}
				fmt.Printf("  %s\n", line)
			}
		}
		fmt.Println("\n✓ Configuration is valid. No rendering will be performed.")
		return
	}

	// Step 3: Set up context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Step 4: Register signal handlers (Ctrl+C, SIGTERM)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n\n⚠️  Interrupt received, cleaning up...")
		cancel()
	}()

	// Step 5: Run the mosh pipeline
	if err := runPipeline(ctx, cfg); err != nil {
		if ctx.Err() == context.Canceled {
			fmt.Println("\n⚠️  Render cancelled by user")
			os.Exit(130) // Standard exit code for SIGINT
		}
		fmt.Fprintf(os.Stderr, "\n❌ Pipeline error: %v\n", err)
		os.Exit(1)
	}
}

// runPipeline executes the complete datamosh workflow
func runPipeline(ctx context.Context, cfg *config.Config) error {
	startTime := time.Now()

	fmt.Println("╔════════════════════════════════════════════════════════════════╗")
	fmt.Println("║                    MOSHER - PIPELINE START                     ║")
	fmt.Println("╚════════════════════════════════════════════════════════════════╝")
	fmt.Printf("Input:  %s\n", cfg.Input)
	for _, extra := range cfg.Append {
		fmt.Printf("Append: %s\n", extra)
	}
	fmt.Printf("Output: %s\n", cfg.Output)
	fmt.Println()

	logger := zap.NewNop()
	if cfg.Verbose {
		var err error
		logger, err = zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		defer logger.Sync()
	}

	inputs := append([]string{cfg.Input}, cfg.Append...)

	// PHASE 1: Input Analysis
	fmt.Println("📊 Phase 1: Input Analysis")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	durations := make([]float64, len(inputs))
	for i, path := range inputs {
		if !cfg.Normalize.Enabled && !strings.EqualFold(filepath.Ext(path), ".avi") {
			fmt.Fprintf(os.Stderr,
				"  ⚠️  '%s' is not an AVI. Convert to Xvid AVI first or pass -normalize.\n", path)
		}

		probe, err := ffprobe.Probe(ctx, cfg.FFprobeBin, path)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warn("probe failed", zap.String("path", path), zap.Error(err))
			fmt.Printf("  %s (unprobed)\n", path)
			continue
		}

		durations[i], _ = probe.Duration()
		line := fmt.Sprintf("  %s: %s", path, timeutil.FormatSeconds(durations[i]))
		if video, ok := probe.VideoStream(); ok {
			line += fmt.Sprintf(", %s %dx%d", video.CodecName, video.Width, video.Height)
		}
		if probe.HasAudio() {
			line += ", audio"
		}
		fmt.Println(line)
	}
	fmt.Println()

	// Prepare mode: convert the input and stop without moshing
	if cfg.Prepare {
		fmt.Println("🎞️  Phase 2: Prepare")
		fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

		builder, err := normalizeBuilder(cfg, cfg.Input, cfg.Output)
		if err != nil {
			return err
		}
		builder.SetTotalDuration(durations[0])
		if err := builder.Run(ctx); err != nil {
			return err
		}
		fmt.Printf("  ✓ %s\n", cfg.Output)

		fmt.Println()
		fmt.Println("═══════════════════════════════════════════════════════════")
		fmt.Println("                     ✅ SUCCESS!")
		fmt.Println("═══════════════════════════════════════════════════════════")
		fmt.Printf("  Output:       %s\n", cfg.Output)
		fmt.Printf("  Total time:   %.2fs\n", time.Since(startTime).Seconds())
		fmt.Println("═══════════════════════════════════════════════════════════")
		return nil
	}

	// PHASE 2: Normalization
	if cfg.Normalize.Enabled {
		fmt.Println("🎞️  Phase 2: Normalization")
		fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

		tempDir, err := os.MkdirTemp("", "mosher-*")
		if err != nil {
			return fmt.Errorf("failed to create temp directory: %w", err)
		}
		defer os.RemoveAll(tempDir)

		normalized, err := normalizeInputs(ctx, cfg, logger, inputs, durations, tempDir)
		if err != nil {
			return fmt.Errorf("normalization failed: %w", err)
		}
		inputs = normalized
		fmt.Println()
	}

	// PHASE 3: Mosh & Render
	fmt.Println("💥 Phase 3: Mosh & Render")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	resolver, err := keyspec.Parse(cfg.KeepKeys, cfg.DropKeys, cfg.KeepFirst)
	if err != nil {
		return err
	}

	opts := mosh.Options{
		Keyframes: resolver,
		Duplication: mosh.DuplicationSpec{
			Count: cfg.DuplicateCount,
			Gap:   cfg.DuplicateGap,
		},
		StripAudio: cfg.StripAudio,
	}

	clips := make([]render.ClipInput, len(inputs))
	for i, path := range inputs {
		clips[i] = render.ClipInput{
			Path:                path,
			Mosh:                opts,
			KeepLeadingKeyframe: cfg.KeepAppendedFirst,
		}
	}

	summary, err := render.New(logger).Render(ctx, render.Request{
		Clips:      clips,
		OutputPath: cfg.Output,
	})
	if err != nil {
		return err
	}
	fmt.Println()

	// PHASE 4: Final Report
	elapsed := time.Since(startTime)

	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Println("                     ✅ SUCCESS!")
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Printf("  Output:       %s\n", summary.OutputPath)
	fmt.Printf("  Size:         %.2f MB\n", float64(summary.OutputBytes)/(1024*1024))
	fmt.Printf("  Video frames: %d (%d keyframes dropped, %d duplicated)\n",
		summary.VideoFrames, summary.DroppedKeyframes, summary.DuplicatedFrames)
	if summary.AudioFrames > 0 {
		fmt.Printf("  Audio frames: %d\n", summary.AudioFrames)
	}
	fmt.Printf("  Total time:   %.2fs\n", elapsed.Seconds())
	fmt.Println("═══════════════════════════════════════════════════════════")

	return nil
}

// normalizeBuilder assembles the ffmpeg conversion for one input,
// resolving the preset and per-flag overrides.
func normalizeBuilder(cfg *config.Config, sourcePath, outputPath string) (*normalize.Builder, error) {
	preset, err := normalize.PresetByName(cfg.Normalize.Preset)
	if err != nil {
		return nil, err
	}

	b := preset.Apply(normalize.NewBuilder(sourcePath, outputPath)).
		SetFFmpegBin(cfg.FFmpegBin).
		KeepAudio(!cfg.Normalize.DropAudio)

	if cfg.Normalize.Width > 0 || cfg.Normalize.Height > 0 {
		b.SetScale(cfg.Normalize.Width, cfg.Normalize.Height)
	}
	if cfg.Normalize.QScale > 0 {
		b.SetQScale(cfg.Normalize.QScale)
	}
	if cfg.Normalize.GOP > 0 {
		b.SetGOP(cfg.Normalize.GOP)
	}
	return b, nil
}

// normalizeInputs converts every input to Xvid AVI in parallel and
// returns the temp file paths in input order.
func normalizeInputs(ctx context.Context, cfg *config.Config, logger *zap.Logger, inputs []string, durations []float64, tempDir string) ([]string, error) {
	outputs := make([]string, len(inputs))
	tasks := make([]*orchestrator.Task, len(inputs))

	for i, path := range inputs {
		outputs[i] = filepath.Join(tempDir, fmt.Sprintf("clip_%d.avi", i))

		builder, err := normalizeBuilder(cfg, path, outputs[i])
		if err != nil {
			return nil, err
		}
		builder.SetTotalDuration(durations[i])
		if cfg.Verbose {
			log := logger.With(zap.String("path", path))
			builder.SetProgressCallback(func(p *models.NormalizeProgress) {
				log.Debug("normalizing", zap.Float64("percent", p.Percent), zap.Float64("speed", p.Speed))
			})
		}

		tasks[i] = &orchestrator.Task{ID: uuid.NewString(), Command: builder}
	}

	pool := orchestrator.NewPool(cfg.Workers)
	pool.SetProgressCallback(func(completed, total int, task *orchestrator.Task) {
		status := "✓"
		if task.Status == orchestrator.TaskFailed {
			status = "✗"
		}
		fmt.Printf("  %s [%d/%d] %s\n", status, completed, total, task.Command.GetInputPath())
	})

	if err := pool.Execute(ctx, tasks); err != nil {
		return nil, err
	}
	return outputs, nil
}
