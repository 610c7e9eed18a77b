package compositor

import (
	"errors"
	"strings"
	"testing"

	"github.com/willbearfruits/datamosh-gui/avi"
	"github.com/willbearfruits/datamosh-gui/internal/avitest"
	"github.com/willbearfruits/datamosh-gui/mosh"
)

func parseClip(t *testing.T, layout string, opts avitest.Options) *avi.Container {
	t.Helper()
	clip, err := avi.Parse(avitest.Build(layout, opts))
	if err != nil {
		t.Fatalf("Failed to parse fixture: %v", err)
	}
	return clip
}

func TestComposeConcatenates(t *testing.T) {
	a := parseClip(t, "IPP", avitest.Options{})
	b := parseClip(t, "IPP", avitest.Options{})

	seq, desc, err := Compose([]Clip{{Source: a}, {Source: b}})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// The second clip loses its leading keyframe.
	if len(seq) != 5 {
		t.Fatalf("Expected 5 frames, got %d", len(seq))
	}
	if seq[0].Record.Kind != avi.Keyframe || seq[0].Source != a {
		t.Error("Expected the splice to open on the first clip's keyframe")
	}
	for i, ref := range seq[1:] {
		if ref.Record.Kind != avi.Delta {
			t.Errorf("Frame %d: expected delta, got %v", i+1, ref.Record.Kind)
		}
	}
	if seq[3].Source != b || seq[4].Source != b {
		t.Error("Expected the tail frames to come from the second clip")
	}

	first := a.Descriptor()
	if desc.Codec != first.Codec || desc.Width != first.Width || desc.Rate != first.Rate {
		t.Error("Expected descriptor to mirror the first clip")
	}
}

func TestComposeFirstClipKeepsLeadingKeyframe(t *testing.T) {
	a := parseClip(t, "IP", avitest.Options{})

	seq, _, err := Compose([]Clip{{Source: a, Mosh: mosh.Options{DropLeadingKeyframe: true}}})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	// The first clip's own options still apply.
	if len(seq) != 1 || seq[0].Record.Kind != avi.Delta {
		t.Error("Expected the first clip's explicit leading drop to be honored")
	}
}

func TestComposeKeepLeadingKeyframe(t *testing.T) {
	a := parseClip(t, "IP", avitest.Options{})
	b := parseClip(t, "IP", avitest.Options{})

	seq, _, err := Compose([]Clip{
		{Source: a},
		{Source: b, KeepLeadingKeyframe: true},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	keyframes := 0
	for _, ref := range seq {
		if ref.Record.Kind == avi.Keyframe {
			keyframes++
		}
	}
	if keyframes != 2 {
		t.Errorf("Expected both keyframes to survive, got %d", keyframes)
	}
}

func TestComposeIncompatibleClips(t *testing.T) {
	a := parseClip(t, "IP", avitest.Options{Width: 640, Height: 480})
	b := parseClip(t, "IP", avitest.Options{Width: 320, Height: 480, Codec: "MJPG"})

	_, _, err := Compose([]Clip{{Source: a}, {Source: b}})
	if err == nil {
		t.Fatal("Expected error but got none")
	}
	var incompatible *IncompatibleClipsError
	if !errors.As(err, &incompatible) {
		t.Fatalf("Expected IncompatibleClipsError, got %T", err)
	}
	if incompatible.Index != 1 {
		t.Errorf("Expected clip index 1, got %d", incompatible.Index)
	}
	fields := strings.Join(incompatible.Fields, ",")
	if !strings.Contains(fields, "codec") || !strings.Contains(fields, "width") {
		t.Errorf("Expected codec and width conflicts, got %q", fields)
	}
	if strings.Contains(fields, "height") {
		t.Errorf("Height matches but was reported: %q", fields)
	}
}

func TestComposeNoClips(t *testing.T) {
	if _, _, err := Compose(nil); err == nil {
		t.Fatal("Expected error but got none")
	}
}

func TestComposeAudioFollowsFirstClip(t *testing.T) {
	withAudio := parseClip(t, "IPA", avitest.Options{})
	silent := parseClip(t, "IP", avitest.Options{})

	// First clip has audio: the stream survives.
	seq, desc, err := Compose([]Clip{{Source: withAudio}, {Source: silent}})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !desc.HasAudio {
		t.Error("Expected audio stream to survive")
	}
	audio := 0
	for _, ref := range seq {
		if ref.Record.Track == avi.Audio {
			audio++
		}
	}
	if audio != 1 {
		t.Errorf("Expected 1 audio frame, got %d", audio)
	}

	// First clip is silent: later clips' audio is stripped.
	seq, desc, err = Compose([]Clip{{Source: silent}, {Source: withAudio}})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if desc.HasAudio {
		t.Error("Expected no audio stream")
	}
	for _, ref := range seq {
		if ref.Record.Track == avi.Audio {
			t.Fatal("Expected no audio frames in the output")
		}
	}
}

func TestComposeStripAudio(t *testing.T) {
	withAudio := parseClip(t, "IPA", avitest.Options{})

	seq, desc, err := Compose([]Clip{{Source: withAudio, Mosh: mosh.Options{StripAudio: true}}})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if desc.HasAudio {
		t.Error("Expected descriptor without audio")
	}
	for _, ref := range seq {
		if ref.Record.Track == avi.Audio {
			t.Fatal("Expected audio to be stripped")
		}
	}
}
