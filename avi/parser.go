package avi

import (
	"bytes"
	"encoding/binary"
)

// vopStartCode is the MPEG-4 Part 2 VOP start code. The two bits that
// follow it encode the coding type (00 = I, 01 = P).
var vopStartCode = []byte{0x00, 0x00, 0x01, 0xB6}

const (
	riffHeaderSize = 12
	streamHdrSize  = 56
	mainHdrSize    = 56
	indexEntrySize = 16
)

type indexEntry struct {
	ID    [4]byte
	Flags uint32
	Size  uint32
}

// Parse reads raw container bytes into a Container.
//
// It walks the top-level RIFF chunks, reads the main and stream headers
// from LIST hdrl, enumerates the per-frame sub-chunks of LIST movi in
// file order, and applies the idx1 keyframe flags. A missing, short, or
// inconsistent idx1 is repaired by re-scanning the movie data; a missing
// movi list or an unreadable video stream header is fatal.
//
// The Container keeps data as its backing buffer; callers must not
// modify it while the Container is in use.
func Parse(data []byte) (*Container, error) {
	if len(data) < riffHeaderSize {
		return nil, malformed(0, "file too small for a RIFF header (%d bytes)", len(data))
	}
	if !bytes.Equal(data[0:4], []byte("RIFF")) {
		return nil, malformed(0, "bad top-level signature %q, want \"RIFF\"", data[0:4])
	}
	if !bytes.Equal(data[8:12], []byte("AVI ")) {
		return nil, malformed(8, "bad RIFF form type %q, want \"AVI \"", data[8:12])
	}

	c := &Container{data: data}

	var (
		moviPayload     []byte
		moviBase        = -1
		idxPayload      []byte
		idxFound        bool
		headerParsed    bool
		videoHdrPresent bool
	)

	err := eachChunk(data[riffHeaderSize:], riffHeaderSize, func(id [4]byte, payload []byte, off int) error {
		switch string(id[:]) {
		case "LIST":
			if len(payload) < 4 {
				return malformed(off, "LIST chunk too small for a list type")
			}
			listType := string(payload[0:4])
			switch listType {
			case "hdrl":
				var err error
				videoHdrPresent, err = c.parseHeaderList(payload[4:], off+12)
				if err != nil {
					return err
				}
				headerParsed = true
			case "movi":
				moviPayload = payload[4:]
				moviBase = off + 12
			}
		case "idx1":
			idxPayload = payload
			idxFound = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !headerParsed {
		return nil, malformed(-1, "LIST hdrl chunk not found")
	}
	if !videoHdrPresent {
		return nil, malformed(-1, "video stream header (strh vids) not found")
	}
	if moviBase < 0 {
		return nil, malformed(-1, "LIST movi chunk not found")
	}

	if err := c.parseMovi(moviPayload, moviBase); err != nil {
		return nil, err
	}

	entries, ok := parseIndex(idxPayload, idxFound)
	if ok && applyIndex(c.Frames, entries) {
		return c, nil
	}

	// No usable idx1: rebuild the classification from the movi scan by
	// sniffing each video payload's VOP coding type.
	rebuildIndex(c)
	return c, nil
}

// eachChunk walks a flat sequence of RIFF chunks inside buf, calling fn
// with each chunk's id, payload, and the chunk's absolute file offset
// (base is buf's offset within the file). Chunks pad to even sizes.
func eachChunk(buf []byte, base int, fn func(id [4]byte, payload []byte, off int) error) error {
	pos := 0
	for pos+8 <= len(buf) {
		var id [4]byte
		copy(id[:], buf[pos:pos+4])
		size := int(u32(buf[pos+4:]))
		start := pos + 8
		end := start + size
		if end < start || end > len(buf) {
			return malformed(base+pos, "chunk %q of size %d exceeds its enclosing list", id[:], size)
		}
		if err := fn(id, buf[start:end], base+pos); err != nil {
			return err
		}
		pos = end + (size & 1)
		if pos > len(buf) {
			// Final odd-size chunk with the pad byte cut off at EOF.
			pos = len(buf)
		}
	}
	if pos != len(buf) {
		return malformed(base+pos, "trailing bytes after last chunk")
	}
	return nil
}

// parseHeaderList reads avih and the per-stream strl lists out of the
// LIST hdrl payload. It returns whether a video stream header was seen.
func (c *Container) parseHeaderList(buf []byte, base int) (bool, error) {
	videoSeen := false
	err := eachChunk(buf, base, func(id [4]byte, payload []byte, off int) error {
		switch string(id[:]) {
		case "avih":
			if len(payload) < mainHdrSize {
				return malformed(off, "avih chunk too small (%d bytes)", len(payload))
			}
			if err := binary.Read(bytes.NewReader(payload), binary.LittleEndian, &c.Main); err != nil {
				return malformed(off, "unreadable avih chunk: %v", err)
			}
		case "LIST":
			if len(payload) < 4 || string(payload[0:4]) != "strl" {
				return nil
			}
			seen, err := c.parseStreamList(payload[4:], off+12)
			if err != nil {
				return err
			}
			videoSeen = videoSeen || seen
		}
		return nil
	})
	return videoSeen, err
}

// parseStreamList reads one strl list: a strh followed by its strf.
func (c *Container) parseStreamList(buf []byte, base int) (bool, error) {
	var hdr StreamHeader
	var hdrSeen, videoSeen bool
	err := eachChunk(buf, base, func(id [4]byte, payload []byte, off int) error {
		switch string(id[:]) {
		case "strh":
			if len(payload) < streamHdrSize {
				return malformed(off, "strh chunk too small (%d bytes)", len(payload))
			}
			if err := binary.Read(bytes.NewReader(payload), binary.LittleEndian, &hdr); err != nil {
				return malformed(off, "unreadable strh chunk: %v", err)
			}
			hdrSeen = true
		case "strf":
			if !hdrSeen {
				return malformed(off, "strf chunk before strh")
			}
			switch string(hdr.Type[:]) {
			case "vids":
				if !videoSeen {
					c.Video = hdr
					c.VideoFormat = payload
					videoSeen = true
				}
			case "auds":
				if c.Audio == nil {
					audio := hdr
					c.Audio = &audio
					c.AudioFormat = payload
				}
			}
		}
		return nil
	})
	return videoSeen, err
}

// parseMovi enumerates the movi sub-chunks in file order, assigning
// positional per-track frame indices.
func (c *Container) parseMovi(buf []byte, base int) error {
	videoIdx, audioIdx := 0, 0
	return eachChunk(buf, base, func(id [4]byte, payload []byte, off int) error {
		if string(id[:]) == "LIST" {
			listType := ""
			if len(payload) >= 4 {
				listType = string(payload[0:4])
			}
			return malformed(off, "nested LIST chunk (%q) inside movi is not supported", listType)
		}
		track, ok := classifyChunkID(id)
		if !ok {
			// JUNK and other non-stream chunks are padding, not frames.
			return nil
		}
		rec := FrameRecord{
			ID:     id,
			Offset: off + 8,
			Length: len(payload),
			Track:  track,
		}
		switch track {
		case Video:
			rec.Index = videoIdx
			videoIdx++
		case Audio:
			rec.Index = audioIdx
			audioIdx++
		}
		c.Frames = append(c.Frames, rec)
		return nil
	})
}

// classifyChunkID maps a movi chunk id to its track. Stream chunks use
// a two-digit stream number followed by a type code; "dc" and "db" are
// video, everything else (wb audio, tx text, pc palette) passes through
// on the non-video track.
func classifyChunkID(id [4]byte) (Track, bool) {
	if id[0] < '0' || id[0] > '9' || id[1] < '0' || id[1] > '9' {
		return 0, false
	}
	suffix := string(id[2:4])
	if suffix == "dc" || suffix == "db" {
		return Video, true
	}
	return Audio, true
}

// parseIndex decodes idx1 entries. ok is false when the chunk is absent
// or its size is not a whole number of entries.
func parseIndex(payload []byte, found bool) ([]indexEntry, bool) {
	if !found || len(payload)%indexEntrySize != 0 {
		return nil, false
	}
	entries := make([]indexEntry, 0, len(payload)/indexEntrySize)
	for pos := 0; pos < len(payload); pos += indexEntrySize {
		var e indexEntry
		copy(e.ID[:], payload[pos:pos+4])
		e.Flags = u32(payload[pos+4:])
		e.Size = u32(payload[pos+12:])
		entries = append(entries, e)
	}
	return entries, true
}

// applyIndex copies keyframe flags from idx1 entries onto the scanned
// frames. It reports false when the index disagrees with the movi scan
// (entry count, chunk id, or chunk size mismatch), in which case the
// caller rebuilds the classification instead.
func applyIndex(frames []FrameRecord, entries []indexEntry) bool {
	if len(entries) != len(frames) {
		return false
	}
	for i := range frames {
		if entries[i].ID != frames[i].ID || int(entries[i].Size) != frames[i].Length {
			return false
		}
	}
	for i := range frames {
		frames[i].Flags = entries[i].Flags
		if frames[i].Track == Video && entries[i].Flags&KeyframeFlag != 0 {
			frames[i].Kind = Keyframe
		}
	}
	return true
}

// rebuildIndex classifies frames without a usable idx1. Video payloads
// are sniffed for their VOP coding type; audio chunks conventionally
// carry the keyframe flag.
func rebuildIndex(c *Container) {
	for i := range c.Frames {
		rec := &c.Frames[i]
		switch rec.Track {
		case Video:
			rec.Kind = sniffKeyframe(c.Data(*rec))
			if rec.Kind == Keyframe {
				rec.Flags = KeyframeFlag
			} else {
				rec.Flags = 0
			}
		case Audio:
			rec.Flags = KeyframeFlag
		}
	}
}

// sniffKeyframe inspects an MPEG-4 Part 2 payload for its VOP coding
// type. Payloads without a recognizable start code default to Delta:
// misclassifying a keyframe as delta only makes the glitch stronger,
// while the reverse would resurrect frames the user asked to drop.
func sniffKeyframe(payload []byte) FrameKind {
	i := bytes.Index(payload, vopStartCode)
	if i < 0 || i+len(vopStartCode) >= len(payload) {
		return Delta
	}
	if payload[i+len(vopStartCode)]>>6 == 0 {
		return Keyframe
	}
	return Delta
}
