// Package mosh rewrites the frame sequence of a parsed AVI clip to
// produce datamosh artifacts. Dropping keyframes makes decoders smear
// stale pixels under fresh motion vectors; duplicating delta frames
// repeats their motion so the smear blooms.
package mosh

import (
	"github.com/willbearfruits/datamosh-gui/avi"
	"github.com/willbearfruits/datamosh-gui/keyspec"
)

// DuplicationSpec describes delta frame duplication. Every eligible
// delta frame whose 1-based ordinal is a multiple of Gap is followed by
// Count extra copies of itself. A zero Count disables duplication.
type DuplicationSpec struct {
	Count int
	Gap   int
}

func (d DuplicationSpec) enabled() bool {
	return d.Count > 0
}

func (d DuplicationSpec) gap() int {
	if d.Gap < 1 {
		return 1
	}
	return d.Gap
}

// Options selects which frames of a clip survive and which get
// repeated.
type Options struct {
	// Keyframes decides retention per keyframe ordinal. Nil keeps
	// every keyframe.
	Keyframes *keyspec.Resolver

	// Duplication repeats delta frames that are kept.
	Duplication DuplicationSpec

	// DropLeadingKeyframe removes the first keyframe regardless of
	// what Keyframes decides. Concatenation uses it on every clip
	// after the first so the splice point itself glitches.
	DropLeadingKeyframe bool

	// StripAudio removes all audio frames.
	StripAudio bool
}

// Transform walks the clip's frames once, left to right, and returns
// the rewritten sequence. Source frame data is referenced, not copied.
//
// Keyframe ordinals are 0-based and counted among the clip's keyframes
// only. Delta ordinals for duplication are 1-based and counted among
// the delta frames that survive the walk, so a dropped region does not
// shift duplication onto different content.
func Transform(clip *avi.Container, opts Options) avi.FrameSequence {
	seq := make(avi.FrameSequence, 0, len(clip.Frames))
	keyframeOrdinal := 0
	deltaOrdinal := 0

	for _, rec := range clip.Frames {
		ref := avi.FrameRef{Source: clip, Record: rec}

		if rec.Track == avi.Audio {
			if !opts.StripAudio {
				seq = append(seq, ref)
			}
			continue
		}

		switch rec.Kind {
		case avi.Keyframe:
			ordinal := keyframeOrdinal
			keyframeOrdinal++
			if opts.DropLeadingKeyframe && ordinal == 0 {
				continue
			}
			if opts.Keyframes != nil && !opts.Keyframes.Retain(ordinal) {
				continue
			}
			seq = append(seq, ref)

		case avi.Delta:
			deltaOrdinal++
			seq = append(seq, ref)
			if opts.Duplication.enabled() && deltaOrdinal%opts.Duplication.gap() == 0 {
				for i := 0; i < opts.Duplication.Count; i++ {
					seq = append(seq, ref)
				}
			}
		}
	}
	return seq
}
