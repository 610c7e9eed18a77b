// Package normalize converts arbitrary footage into datamosh-friendly
// Xvid AVI files by driving an external ffmpeg binary.
//
// MPEG-4 part 2 with closed GOPs and no B-frames keeps every delta
// frame dependent only on its predecessor, which is what makes dropped
// keyframes smear instead of breaking the decode entirely.
package normalize

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/willbearfruits/datamosh-gui/models"
)

// Builder assembles and runs a single ffmpeg conversion.
type Builder struct {
	sourcePath string
	outputPath string
	ffmpegBin  string

	// Encoding settings
	qscale int
	gop    int

	// Target frame size. Zero leaves the source dimension alone.
	width  int
	height int

	keepAudio bool
	extraArgs []string

	totalDuration    float64
	progressCallback models.ProgressCallback
}

// NewBuilder creates a conversion builder with the default settings:
// qscale 3, GOP length 48, audio passed through.
func NewBuilder(sourcePath, outputPath string) *Builder {
	return &Builder{
		sourcePath: sourcePath,
		outputPath: outputPath,
		ffmpegBin:  "ffmpeg",
		qscale:     3,
		gop:        48,
		keepAudio:  true,
	}
}

// SetFFmpegBin overrides the ffmpeg binary name or path.
func (b *Builder) SetFFmpegBin(bin string) *Builder {
	b.ffmpegBin = bin
	return b
}

// SetQScale sets the Xvid quantizer scale (1-31, lower is better
// quality).
func (b *Builder) SetQScale(qscale int) *Builder {
	b.qscale = qscale
	return b
}

// SetGOP sets the keyframe interval in frames. Shorter GOPs give more
// splice points to mosh at, at the cost of file size.
func (b *Builder) SetGOP(gop int) *Builder {
	b.gop = gop
	return b
}

// SetScale sets the target frame size. Either dimension may be zero to
// derive it from the source aspect ratio. Odd values are clamped down
// to the next even number, as yuv420p requires.
func (b *Builder) SetScale(width, height int) *Builder {
	b.width = width
	b.height = height
	return b
}

// KeepAudio controls whether the audio stream is copied through or
// stripped.
func (b *Builder) KeepAudio(keep bool) *Builder {
	b.keepAudio = keep
	return b
}

// AddExtraArgs appends custom ffmpeg arguments before the output path.
func (b *Builder) AddExtraArgs(args ...string) *Builder {
	b.extraArgs = append(b.extraArgs, args...)
	return b
}

// SetTotalDuration supplies the source duration in seconds so progress
// updates can carry a percentage.
func (b *Builder) SetTotalDuration(seconds float64) *Builder {
	b.totalDuration = seconds
	return b
}

// SetProgressCallback sets a callback for progress updates during the
// conversion.
func (b *Builder) SetProgressCallback(callback models.ProgressCallback) *Builder {
	b.progressCallback = callback
	return b
}

// GetInputPath returns the source file path.
func (b *Builder) GetInputPath() string {
	return b.sourcePath
}

// GetOutputPath returns the output file path.
func (b *Builder) GetOutputPath() string {
	return b.outputPath
}

// BuildArgs constructs the ffmpeg argument list for the conversion.
// The returned slice is suitable for exec.Command(ffmpegBin, args...).
func (b *Builder) BuildArgs() ([]string, error) {
	if b.qscale < 1 {
		return nil, fmt.Errorf("qscale must be >= 1, got %d", b.qscale)
	}
	if b.gop < 1 {
		return nil, fmt.Errorf("gop must be >= 1, got %d", b.gop)
	}

	args := []string{
		"-y",
		"-i", b.sourcePath,
		"-c:v", "libxvid",
		"-qscale:v", fmt.Sprintf("%d", b.qscale),
		"-g", fmt.Sprintf("%d", b.gop),
		"-bf", "0",
		"-pix_fmt", "yuv420p",
	}

	if filter := b.scaleFilter(); filter != "" {
		args = append(args, "-vf", filter)
	}

	if b.keepAudio {
		args = append(args, "-c:a", "copy")
	} else {
		args = append(args, "-an")
	}

	args = append(args, b.extraArgs...)
	args = append(args, b.outputPath)
	return args, nil
}

// scaleFilter builds the -vf chain for the requested frame size. With
// both dimensions set the source is fitted inside the box and padded
// with black; with one dimension the other follows the aspect ratio.
func (b *Builder) scaleFilter() string {
	width := evenClamp(b.width)
	height := evenClamp(b.height)

	switch {
	case width > 0 && height > 0:
		return fmt.Sprintf(
			"scale=%d:%d:flags=lanczos:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2",
			width, height, width, height)
	case width > 0:
		return fmt.Sprintf("scale=%d:-2:flags=lanczos", width)
	case height > 0:
		return fmt.Sprintf("scale=-2:%d:flags=lanczos", height)
	default:
		return ""
	}
}

func evenClamp(v int) int {
	if v <= 0 {
		return 0
	}
	v = (v / 2) * 2
	if v < 2 {
		return 2
	}
	return v
}

// Run executes the conversion and blocks until ffmpeg exits. Progress
// lines from stderr are parsed and forwarded to the callback when one
// is set; the stderr tail is preserved for error reporting.
func (b *Builder) Run(ctx context.Context) error {
	args, err := b.BuildArgs()
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, b.ffmpegBin, args...)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to get stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return &ExternalToolError{Tool: b.ffmpegBin, Args: args, Cause: err}
	}

	parser := NewProgressParser()
	progress := models.NewNormalizeProgress(b.totalDuration)
	tail := newTailBuffer(20)

	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		tail.add(line)
		if parser.ParseLine(line, progress) && b.progressCallback != nil {
			progress.State = models.ProgressStateRunning
			b.progressCallback(progress)
		}
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		toolErr := &ExternalToolError{
			Tool:   b.ffmpegBin,
			Args:   args,
			Stderr: tail.String(),
			Cause:  err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			toolErr.ExitCode = exitErr.ExitCode()
		}
		return toolErr
	}

	if b.progressCallback != nil {
		progress.State = models.ProgressStateCompleted
		progress.Advance(b.totalDuration)
		b.progressCallback(progress)
	}
	return nil
}

// DryRun returns the command that would be executed without running it.
func (b *Builder) DryRun() (string, error) {
	args, err := b.BuildArgs()
	if err != nil {
		return "", err
	}
	return b.ffmpegBin + " " + strings.Join(args, " "), nil
}

// tailBuffer keeps the last n lines of output.
type tailBuffer struct {
	lines []string
	max   int
}

func newTailBuffer(max int) *tailBuffer {
	return &tailBuffer{max: max}
}

func (t *tailBuffer) add(line string) {
	t.lines = append(t.lines, line)
	if len(t.lines) > t.max {
		t.lines = t.lines[1:]
	}
}

func (t *tailBuffer) String() string {
	return strings.Join(t.lines, "\n")
}
