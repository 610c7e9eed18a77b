// Package avi implements parsing and rewriting of RIFF/AVI containers.
//
// The package deliberately never decodes frame payloads: a parsed
// Container holds the raw file bytes once, and every FrameRecord is an
// (offset, length) view into that buffer. Frames are only copied when a
// FrameSequence is serialized back into a new container by Write.
package avi

import (
	"bytes"
	"encoding/binary"
)

// KeyframeFlag is the AVIIF_KEYFRAME bit in idx1 entry flags.
const KeyframeFlag uint32 = 0x00000010

// hasIndexFlag is the AVIF_HASINDEX bit in the main AVI header flags.
const hasIndexFlag uint32 = 0x00000010

// FrameKind classifies a video frame by how it was encoded. The kind is
// a structural fact fixed at parse time and never changed afterwards.
type FrameKind uint8

const (
	// Delta frames (P-frames) are encoded relative to prior frames.
	Delta FrameKind = iota
	// Keyframe frames (I-frames) are independently decodable.
	Keyframe
)

func (k FrameKind) String() string {
	if k == Keyframe {
		return "keyframe"
	}
	return "delta"
}

// Track identifies which stream a movi chunk belongs to.
type Track uint8

const (
	Video Track = iota
	Audio
)

func (t Track) String() string {
	if t == Audio {
		return "audio"
	}
	return "video"
}

// FrameRecord describes a single chunk inside the LIST movi section.
//
// Index is the positional ordinal within the record's own track: the
// Nth video chunk in file order has video Index N regardless of any
// audio chunks interleaved between video chunks.
type FrameRecord struct {
	Index  int
	ID     [4]byte
	Flags  uint32
	Offset int // payload offset into the backing buffer
	Length int
	Kind   FrameKind
	Track  Track
}

// MainHeader is the binary layout of the avih chunk (MainAVIHeader).
type MainHeader struct {
	MicroSecPerFrame    uint32
	MaxBytesPerSec      uint32
	PaddingGranularity  uint32
	Flags               uint32
	TotalFrames         uint32
	InitialFrames       uint32
	Streams             uint32
	SuggestedBufferSize uint32
	Width               uint32
	Height              uint32
	Reserved            [4]uint32
}

// StreamHeader is the binary layout of a strh chunk (AVIStreamHeader).
type StreamHeader struct {
	Type                [4]byte // "vids" or "auds"
	Handler             [4]byte // codec FourCC for video streams
	Flags               uint32
	Priority            uint16
	Language            uint16
	InitialFrames       uint32
	Scale               uint32
	Rate                uint32 // frames (or samples) per second = Rate/Scale
	Start               uint32
	Length              uint32
	SuggestedBufferSize uint32
	Quality             uint32
	SampleSize          uint32
	Frame               [4]uint16
}

// Container is the in-memory representation of one parsed AVI file.
//
// It owns the backing byte buffer exclusively; FrameRecords reference
// slices of it and must not outlive the Container.
type Container struct {
	Main        MainHeader
	Video       StreamHeader
	VideoFormat []byte // raw strf payload of the video stream
	Audio       *StreamHeader
	AudioFormat []byte // raw strf payload of the audio stream, if any

	Frames []FrameRecord

	data []byte
}

// Data returns the payload bytes of a frame record as a view into the
// container's backing buffer. The returned slice must not be modified.
func (c *Container) Data(r FrameRecord) []byte {
	return c.data[r.Offset : r.Offset+r.Length]
}

// HasAudio reports whether the container declares an audio stream.
func (c *Container) HasAudio() bool {
	return c.Audio != nil
}

// VideoFrameCount returns the number of video chunks in the movi list.
func (c *Container) VideoFrameCount() int {
	n := 0
	for _, f := range c.Frames {
		if f.Track == Video {
			n++
		}
	}
	return n
}

// FrameRate returns the video frame rate in frames per second, derived
// from the video stream header's rate/scale pair.
func (c *Container) FrameRate() float64 {
	if c.Video.Scale == 0 {
		return 0
	}
	return float64(c.Video.Rate) / float64(c.Video.Scale)
}

// Descriptor summarizes the stream properties the writer needs to emit
// a fresh set of container headers. It carries the raw stream format
// payloads so codec-specific extradata survives the rewrite untouched.
type Descriptor struct {
	Codec            string
	Width, Height    int
	Rate, Scale      uint32
	MicroSecPerFrame uint32
	HasAudio         bool

	Video       StreamHeader
	VideoFormat []byte
	Audio       *StreamHeader
	AudioFormat []byte
}

// Descriptor derives the stream descriptor for this container.
func (c *Container) Descriptor() Descriptor {
	return Descriptor{
		Codec:            fourCCString(c.Video.Handler),
		Width:            int(c.Main.Width),
		Height:           int(c.Main.Height),
		Rate:             c.Video.Rate,
		Scale:            c.Video.Scale,
		MicroSecPerFrame: c.Main.MicroSecPerFrame,
		HasAudio:         c.Audio != nil,
		Video:            c.Video,
		VideoFormat:      c.VideoFormat,
		Audio:            c.Audio,
		AudioFormat:      c.AudioFormat,
	}
}

// FrameRef is one entry of an output frame sequence: a frame record
// together with the container whose buffer holds its bytes. Duplicated
// frames are simply multiple refs to the same record.
type FrameRef struct {
	Source *Container
	Record FrameRecord
}

// Data returns the referenced frame's payload bytes.
func (r FrameRef) Data() []byte {
	return r.Source.Data(r.Record)
}

// FrameSequence is an ordered list of frame references destined for the
// writer. Transform stages build a new sequence rather than editing a
// previous one in place.
type FrameSequence []FrameRef

// VideoFrameCount returns the number of video entries in the sequence.
func (s FrameSequence) VideoFrameCount() int {
	n := 0
	for _, ref := range s {
		if ref.Record.Track == Video {
			n++
		}
	}
	return n
}

func fourCCString(id [4]byte) string {
	if id == ([4]byte{}) {
		return ""
	}
	return string(bytes.TrimRight(id[:], "\x00 "))
}

func putU32(b []byte, v uint32) {
	binary.LittleEndian.PutUint32(b, v)
}

func u32(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b)
}
