package avi

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
)

// chunkWriter wraps an io.Writer and accumulates the first error, so
// the assembly code stays free of per-write error plumbing.
type chunkWriter struct {
	w   io.Writer
	err error
}

func (cw *chunkWriter) fourCC(s string) {
	if cw.err != nil {
		return
	}
	_, cw.err = cw.w.Write([]byte(s))
}

func (cw *chunkWriter) raw(data []byte) {
	if cw.err != nil {
		return
	}
	_, cw.err = cw.w.Write(data)
}

func (cw *chunkWriter) u32(v uint32) {
	if cw.err != nil {
		return
	}
	cw.err = binary.Write(cw.w, binary.LittleEndian, v)
}

func (cw *chunkWriter) struct_(v any) {
	if cw.err != nil {
		return
	}
	cw.err = binary.Write(cw.w, binary.LittleEndian, v)
}

var padByte = []byte{0}

// Write serializes a final frame sequence and its stream descriptor
// into a structurally valid AVI byte stream: fresh header lists, a movi
// list with even-padded chunks, and a rebuilt idx1 whose offsets are
// relative to the start of the movi list.
//
// Chunk ids are renumbered for the output stream layout (video is
// stream 00, audio is stream 01) and idx1 keyframe flags reflect each
// frame's original classification, so duplicated frames inherit their
// source frame's Delta flag.
func Write(seq FrameSequence, desc Descriptor) ([]byte, error) {
	sizes, err := computeSizes(seq, desc)
	if err != nil {
		return nil, err
	}

	buf := bytes.NewBuffer(make([]byte, 0, sizes.riff+8))
	cw := &chunkWriter{w: buf}

	cw.fourCC("RIFF")
	cw.u32(uint32(sizes.riff))
	cw.fourCC("AVI ")

	writeHeaderList(cw, seq, desc, sizes)
	writeMoviList(cw, seq, sizes)
	writeIndex(cw, seq)

	if cw.err != nil {
		return nil, cw.err
	}
	return buf.Bytes(), nil
}

type layoutSizes struct {
	riff      uint64
	hdrl      uint64
	strlVideo uint64
	strlAudio uint64
	movi      uint64
	idx       uint64
	maxChunk  uint64
}

func computeSizes(seq FrameSequence, desc Descriptor) (layoutSizes, error) {
	var s layoutSizes

	s.movi = 4 // "movi" list type
	for _, ref := range seq {
		length := uint64(ref.Record.Length)
		s.movi += 8 + length + length%2
		if length > s.maxChunk {
			s.maxChunk = length
		}
	}
	s.idx = uint64(len(seq)) * indexEntrySize

	s.strlVideo = 4 + (8 + streamHdrSize) + evenSize(8+uint64(len(desc.VideoFormat)))
	s.hdrl = 4 + (8 + mainHdrSize) + 8 + s.strlVideo
	if desc.HasAudio {
		s.strlAudio = 4 + (8 + streamHdrSize) + evenSize(8+uint64(len(desc.AudioFormat)))
		s.hdrl += 8 + s.strlAudio
	}

	s.riff = 4 + (8 + s.hdrl) + (8 + s.movi) + (8 + s.idx)

	for _, c := range []struct {
		name string
		size uint64
	}{
		{"movi", s.movi},
		{"idx1", s.idx},
		{"hdrl", s.hdrl},
		{"RIFF", s.riff},
	} {
		if c.size > math.MaxUint32 {
			return layoutSizes{}, &SizeOverflowError{Chunk: c.name, Size: c.size}
		}
	}
	return s, nil
}

func evenSize(n uint64) uint64 {
	return n + n%2
}

func writeHeaderList(cw *chunkWriter, seq FrameSequence, desc Descriptor, sizes layoutSizes) {
	videoFrames := uint32(seq.VideoFrameCount())

	main := MainHeader{
		MicroSecPerFrame:    microSecPerFrame(desc),
		MaxBytesPerSec:      desc.Video.SuggestedBufferSize,
		Flags:               hasIndexFlag,
		TotalFrames:         videoFrames,
		Streams:             1,
		SuggestedBufferSize: uint32(sizes.maxChunk),
		Width:               uint32(desc.Width),
		Height:              uint32(desc.Height),
	}
	if desc.HasAudio {
		main.Streams = 2
	}

	cw.fourCC("LIST")
	cw.u32(uint32(sizes.hdrl))
	cw.fourCC("hdrl")

	cw.fourCC("avih")
	cw.u32(mainHdrSize)
	cw.struct_(&main)

	videoHdr := desc.Video
	videoHdr.Length = videoFrames
	if uint64(videoHdr.SuggestedBufferSize) < sizes.maxChunk {
		videoHdr.SuggestedBufferSize = uint32(sizes.maxChunk)
	}
	writeStreamList(cw, uint32(sizes.strlVideo), &videoHdr, desc.VideoFormat)

	if desc.HasAudio {
		writeStreamList(cw, uint32(sizes.strlAudio), desc.Audio, desc.AudioFormat)
	}
}

func writeStreamList(cw *chunkWriter, listSize uint32, hdr *StreamHeader, format []byte) {
	cw.fourCC("LIST")
	cw.u32(listSize)
	cw.fourCC("strl")

	cw.fourCC("strh")
	cw.u32(streamHdrSize)
	cw.struct_(hdr)

	cw.fourCC("strf")
	cw.u32(uint32(len(format)))
	cw.raw(format)
	if len(format)%2 == 1 {
		cw.raw(padByte)
	}
}

func writeMoviList(cw *chunkWriter, seq FrameSequence, sizes layoutSizes) {
	cw.fourCC("LIST")
	cw.u32(uint32(sizes.movi))
	cw.fourCC("movi")

	for _, ref := range seq {
		cw.fourCC(outputChunkID(ref.Record))
		cw.u32(uint32(ref.Record.Length))
		cw.raw(ref.Data())
		if ref.Record.Length%2 == 1 {
			cw.raw(padByte)
		}
	}
}

func writeIndex(cw *chunkWriter, seq FrameSequence) {
	cw.fourCC("idx1")
	cw.u32(uint32(len(seq) * indexEntrySize))

	offset := uint32(4) // measured from the start of the movi list type
	for _, ref := range seq {
		length := uint32(ref.Record.Length)

		cw.fourCC(outputChunkID(ref.Record))
		cw.u32(indexFlags(ref.Record))
		cw.u32(offset)
		cw.u32(length)

		offset += 8 + length + length%2
	}
}

// outputChunkID renumbers a frame's chunk id for the output stream
// layout while keeping its original type suffix.
func outputChunkID(rec FrameRecord) string {
	suffix := string(rec.ID[2:4])
	if rec.Track == Video {
		return "00" + suffix
	}
	return "01" + suffix
}

// indexFlags derives the idx1 flags for an output frame. Video entries
// carry the keyframe bit only for Keyframe-kind records; non-video
// entries keep their source flags.
func indexFlags(rec FrameRecord) uint32 {
	if rec.Track != Video {
		return rec.Flags
	}
	if rec.Kind == Keyframe {
		return rec.Flags | KeyframeFlag
	}
	return rec.Flags &^ KeyframeFlag
}

func microSecPerFrame(desc Descriptor) uint32 {
	if desc.MicroSecPerFrame != 0 {
		return desc.MicroSecPerFrame
	}
	if desc.Rate == 0 {
		return 0
	}
	return uint32(uint64(desc.Scale) * 1_000_000 / uint64(desc.Rate))
}
