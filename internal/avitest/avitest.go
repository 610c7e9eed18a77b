// Package avitest builds small synthetic AVI files in memory for tests.
//
// The layout string names the movi chunks in file order: 'I' is a video
// keyframe, 'P' a video delta frame, 'A' an audio chunk. Payload bytes
// are distinct per chunk so tests can verify frame content survives a
// rewrite.
package avitest

import (
	"bytes"
	"encoding/binary"
)

const keyframeFlag = 0x10

// Options controls the shape of the generated container.
type Options struct {
	Width, Height int
	Rate, Scale   uint32
	Codec         string

	// VOPPayloads prepends an MPEG-4 VOP start code with the matching
	// coding type to every video payload, so index-less files can be
	// reclassified by sniffing.
	VOPPayloads bool

	// OmitIndex drops the idx1 chunk entirely.
	OmitIndex bool
	// TruncateIndex writes one idx1 entry fewer than there are chunks.
	TruncateIndex bool
	// JunkChunk inserts a JUNK padding chunk in the middle of movi.
	JunkChunk bool
}

func (o *Options) defaults() {
	if o.Width == 0 {
		o.Width = 320
	}
	if o.Height == 0 {
		o.Height = 240
	}
	if o.Rate == 0 {
		o.Rate = 25
	}
	if o.Scale == 0 {
		o.Scale = 1
	}
	if o.Codec == "" {
		o.Codec = "XVID"
	}
}

type frame struct {
	id      string
	flags   uint32
	payload []byte
}

// Build assembles a complete AVI byte stream for the given layout.
func Build(layout string, opts Options) []byte {
	opts.defaults()
	frames := makeFrames(layout, opts)

	hdrl := buildHdrl(opts, layout)
	movi := buildMovi(frames, opts)

	payload := []byte("AVI ")
	payload = append(payload, chunk("LIST", append([]byte("hdrl"), hdrl...))...)
	payload = append(payload, chunk("LIST", append([]byte("movi"), movi...))...)
	if !opts.OmitIndex {
		payload = append(payload, chunk("idx1", buildIndex(frames, opts))...)
	}
	return chunk("RIFF", payload)
}

// Payload returns the payload bytes Build generates for the Nth chunk
// of the layout, for content comparisons against a rewritten file.
func Payload(layout string, n int, opts Options) []byte {
	opts.defaults()
	return makeFrames(layout, opts)[n].payload
}

func makeFrames(layout string, opts Options) []frame {
	frames := make([]frame, 0, len(layout))
	for i, kind := range layout {
		f := frame{payload: framePayload(byte(kind), i, opts)}
		switch kind {
		case 'I':
			f.id = "00dc"
			f.flags = keyframeFlag
		case 'P':
			f.id = "00dc"
		case 'A':
			f.id = "01wb"
			f.flags = keyframeFlag
		default:
			panic("avitest: layout chars must be I, P, or A")
		}
		frames = append(frames, f)
	}
	return frames
}

func framePayload(kind byte, n int, opts Options) []byte {
	// Varying odd/even lengths exercise the even-padding rules.
	filler := bytes.Repeat([]byte{byte(n + 1)}, 5+n%4)
	if kind == 'A' || !opts.VOPPayloads {
		return filler
	}
	codingType := byte(0x40) // P-frame
	if kind == 'I' {
		codingType = 0x00
	}
	return append([]byte{0x00, 0x00, 0x01, 0xB6, codingType}, filler...)
}

func buildHdrl(opts Options, layout string) []byte {
	videoFrames := uint32(0)
	hasAudio := false
	for _, kind := range layout {
		switch kind {
		case 'I', 'P':
			videoFrames++
		case 'A':
			hasAudio = true
		}
	}

	avih := make([]byte, 56)
	binary.LittleEndian.PutUint32(avih[0:], 1_000_000*opts.Scale/opts.Rate)
	binary.LittleEndian.PutUint32(avih[12:], 0x10) // AVIF_HASINDEX
	binary.LittleEndian.PutUint32(avih[16:], videoFrames)
	streams := uint32(1)
	if hasAudio {
		streams = 2
	}
	binary.LittleEndian.PutUint32(avih[24:], streams)
	binary.LittleEndian.PutUint32(avih[32:], uint32(opts.Width))
	binary.LittleEndian.PutUint32(avih[36:], uint32(opts.Height))

	hdrl := chunk("avih", avih)

	videoStrf := make([]byte, 40) // BITMAPINFOHEADER
	binary.LittleEndian.PutUint32(videoStrf[0:], 40)
	binary.LittleEndian.PutUint32(videoStrf[4:], uint32(opts.Width))
	binary.LittleEndian.PutUint32(videoStrf[8:], uint32(opts.Height))
	copy(videoStrf[16:20], opts.Codec)
	hdrl = append(hdrl, streamList("vids", opts.Codec, opts, videoFrames, videoStrf)...)

	if hasAudio {
		audioStrf := make([]byte, 18) // WAVEFORMATEX
		binary.LittleEndian.PutUint16(audioStrf[0:], 85)
		hdrl = append(hdrl, streamList("auds", "\x00\x00\x00\x00", opts, 0, audioStrf)...)
	}
	return hdrl
}

func streamList(typ, handler string, opts Options, length uint32, strf []byte) []byte {
	strh := make([]byte, 56)
	copy(strh[0:4], typ)
	copy(strh[4:8], handler)
	binary.LittleEndian.PutUint32(strh[20:], opts.Scale)
	binary.LittleEndian.PutUint32(strh[24:], opts.Rate)
	binary.LittleEndian.PutUint32(strh[32:], length)
	binary.LittleEndian.PutUint16(strh[52:], uint16(opts.Width))
	binary.LittleEndian.PutUint16(strh[54:], uint16(opts.Height))

	list := append([]byte("strl"), chunk("strh", strh)...)
	list = append(list, chunk("strf", strf)...)
	return chunk("LIST", list)
}

func buildMovi(frames []frame, opts Options) []byte {
	var movi []byte
	for i, f := range frames {
		if opts.JunkChunk && i == len(frames)/2 {
			movi = append(movi, chunk("JUNK", make([]byte, 6))...)
		}
		movi = append(movi, chunk(f.id, f.payload)...)
	}
	return movi
}

func buildIndex(frames []frame, opts Options) []byte {
	var idx []byte
	offset := uint32(4)
	count := len(frames)
	if opts.TruncateIndex && count > 0 {
		count--
	}
	for i, f := range frames {
		if opts.JunkChunk && i == len(frames)/2 {
			offset += 8 + 6
		}
		size := uint32(len(f.payload))
		if i < count {
			entry := make([]byte, 16)
			copy(entry[0:4], f.id)
			binary.LittleEndian.PutUint32(entry[4:], f.flags)
			binary.LittleEndian.PutUint32(entry[8:], offset)
			binary.LittleEndian.PutUint32(entry[12:], size)
			idx = append(idx, entry...)
		}
		offset += 8 + size + size%2
	}
	return idx
}

func chunk(id string, payload []byte) []byte {
	out := make([]byte, 0, 8+len(payload)+1)
	out = append(out, id...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(payload)))
	out = append(out, payload...)
	if len(payload)%2 == 1 {
		out = append(out, 0)
	}
	return out
}
