// Package compositor splices multiple moshed clips into a single frame
// sequence ready for rendering.
package compositor

import (
	"fmt"
	"strings"

	"github.com/willbearfruits/datamosh-gui/avi"
	"github.com/willbearfruits/datamosh-gui/mosh"
)

// Clip pairs a parsed source container with the mosh options applied
// to it before splicing.
type Clip struct {
	Source *avi.Container
	Mosh   mosh.Options

	// KeepLeadingKeyframe preserves the clip's first keyframe even when
	// the clip is appended after another one.
	KeepLeadingKeyframe bool
}

// IncompatibleClipsError reports a clip whose stream parameters differ
// from the first clip's. Fields lists the conflicting parameters.
type IncompatibleClipsError struct {
	Index  int
	Fields []string
}

func (e *IncompatibleClipsError) Error() string {
	return fmt.Sprintf("clip %d is incompatible with clip 0: %s differ",
		e.Index, strings.Join(e.Fields, ", "))
}

// Compose transforms each clip and concatenates the results in order.
// The first clip supplies the output stream headers; every later clip
// must match its codec, dimensions and frame timing, and unless marked
// otherwise loses its leading keyframe so the splice point decodes
// against the previous clip's pixels.
//
// Audio follows the first clip: when it carries an audio stream, audio
// frames from every clip are interleaved into the output; when it does
// not, audio is stripped everywhere.
func Compose(clips []Clip) (avi.FrameSequence, avi.Descriptor, error) {
	if len(clips) == 0 {
		return nil, avi.Descriptor{}, fmt.Errorf("compose: no clips given")
	}

	desc := clips[0].Source.Descriptor()
	for i, clip := range clips[1:] {
		if fields := incompatibleFields(desc, clip.Source.Descriptor()); len(fields) > 0 {
			return nil, avi.Descriptor{}, &IncompatibleClipsError{Index: i + 1, Fields: fields}
		}
	}
	if clips[0].Mosh.StripAudio {
		desc.HasAudio = false
	}

	var seq avi.FrameSequence
	for i, clip := range clips {
		opts := clip.Mosh
		if i > 0 && !clip.KeepLeadingKeyframe {
			opts.DropLeadingKeyframe = true
		}
		if !desc.HasAudio {
			opts.StripAudio = true
		}
		seq = append(seq, mosh.Transform(clip.Source, opts)...)
	}
	return seq, desc, nil
}

func incompatibleFields(base, other avi.Descriptor) []string {
	var fields []string
	if base.Codec != other.Codec {
		fields = append(fields, "codec")
	}
	if base.Width != other.Width {
		fields = append(fields, "width")
	}
	if base.Height != other.Height {
		fields = append(fields, "height")
	}
	if base.Rate != other.Rate {
		fields = append(fields, "rate")
	}
	if base.Scale != other.Scale {
		fields = append(fields, "scale")
	}
	return fields
}
