// Package render drives a full datamosh job: parse the source clips,
// rewrite their frame sequences, splice them together and write the
// result as a fresh AVI file.
package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/willbearfruits/datamosh-gui/avi"
	"github.com/willbearfruits/datamosh-gui/compositor"
	"github.com/willbearfruits/datamosh-gui/models"
	"github.com/willbearfruits/datamosh-gui/mosh"
)

// ClipInput names a source file and the mosh options applied to it.
type ClipInput struct {
	Path string
	Mosh mosh.Options

	// KeepLeadingKeyframe preserves the clip's first keyframe when the
	// clip is appended after another one.
	KeepLeadingKeyframe bool
}

// Request describes one render job. The first clip is the base; any
// further clips are appended.
type Request struct {
	Clips      []ClipInput
	OutputPath string
}

// ProgressFunc is notified as a render job moves through its stages.
// Stage is one of "parse", "compose" or "write"; completed counts
// finished steps within the stage.
type ProgressFunc func(stage string, completed, total int)

// Renderer executes render jobs.
type Renderer struct {
	log      *zap.Logger
	progress ProgressFunc
}

// New creates a renderer. A nil logger disables logging.
func New(log *zap.Logger) *Renderer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{log: log}
}

// SetProgressCallback registers a per-stage progress callback.
func (r *Renderer) SetProgressCallback(callback ProgressFunc) *Renderer {
	r.progress = callback
	return r
}

func (r *Renderer) notify(stage string, completed, total int) {
	if r.progress != nil {
		r.progress(stage, completed, total)
	}
}

// Render executes the job and writes the output file. The file is
// written to a temporary name first and renamed into place, so a
// failed render never leaves a truncated output behind.
func (r *Renderer) Render(ctx context.Context, req Request) (*models.RenderSummary, error) {
	start := time.Now()
	log := r.log.With(zap.String("job_id", uuid.NewString()))

	data, summary, err := r.renderBytes(ctx, log, req.Clips)
	if err != nil {
		return nil, err
	}

	if err := writeFileAtomic(req.OutputPath, data); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", req.OutputPath, err)
	}

	summary.OutputPath = req.OutputPath
	summary.Elapsed = time.Since(start)
	log.Info("render complete",
		zap.String("output", req.OutputPath),
		zap.Int("video_frames", summary.VideoFrames),
		zap.Int("bytes", summary.OutputBytes),
		zap.Duration("elapsed", summary.Elapsed))
	return summary, nil
}

// RenderBytes executes the job in memory and returns the AVI bytes,
// for previews that never touch the filesystem.
func (r *Renderer) RenderBytes(ctx context.Context, clips []ClipInput) ([]byte, *models.RenderSummary, error) {
	start := time.Now()
	log := r.log.With(zap.String("job_id", uuid.NewString()))

	data, summary, err := r.renderBytes(ctx, log, clips)
	if err != nil {
		return nil, nil, err
	}
	summary.Elapsed = time.Since(start)
	return data, summary, nil
}

func (r *Renderer) renderBytes(ctx context.Context, log *zap.Logger, inputs []ClipInput) ([]byte, *models.RenderSummary, error) {
	if len(inputs) == 0 {
		return nil, nil, fmt.Errorf("render: no clips given")
	}

	clips := make([]compositor.Clip, 0, len(inputs))
	sourceKeyframes := 0
	for i, input := range inputs {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		data, err := os.ReadFile(input.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read %s: %w", input.Path, err)
		}
		container, err := avi.Parse(data)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse %s: %w", input.Path, err)
		}

		log.Debug("clip parsed",
			zap.String("path", input.Path),
			zap.Int("video_frames", container.VideoFrameCount()),
			zap.String("codec", container.Descriptor().Codec),
			zap.Bool("audio", container.HasAudio()))

		for _, f := range container.Frames {
			if f.Track == avi.Video && f.Kind == avi.Keyframe {
				sourceKeyframes++
			}
		}
		clips = append(clips, compositor.Clip{
			Source:              container,
			Mosh:                input.Mosh,
			KeepLeadingKeyframe: input.KeepLeadingKeyframe,
		})
		r.notify("parse", i+1, len(inputs))
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	seq, desc, err := compositor.Compose(clips)
	if err != nil {
		return nil, nil, err
	}
	r.notify("compose", 1, 1)

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	data, err := avi.Write(seq, desc)
	if err != nil {
		return nil, nil, err
	}
	r.notify("write", 1, 1)

	summary := summarize(seq, sourceKeyframes)
	summary.OutputBytes = len(data)
	return data, summary, nil
}

func summarize(seq avi.FrameSequence, sourceKeyframes int) *models.RenderSummary {
	type origin struct {
		source *avi.Container
		index  int
	}
	seen := make(map[origin]struct{})

	summary := &models.RenderSummary{}
	for _, ref := range seq {
		if ref.Record.Track == avi.Audio {
			summary.AudioFrames++
			continue
		}
		summary.VideoFrames++
		if ref.Record.Kind == avi.Keyframe {
			sourceKeyframes--
		}
		key := origin{source: ref.Source, index: ref.Record.Index}
		if _, dup := seen[key]; dup {
			summary.DuplicatedFrames++
		} else {
			seen[key] = struct{}{}
		}
	}
	summary.DroppedKeyframes = sourceKeyframes
	return summary
}

// writeFileAtomic writes data to a temp file in the target directory
// and renames it over the final path.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
