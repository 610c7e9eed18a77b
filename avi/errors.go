package avi

import "fmt"

// MalformedContainerError reports a structural RIFF violation that made
// the input unusable: bad top-level signature, truncated chunk,
// list-size mismatch, or an unreadable video stream header.
type MalformedContainerError struct {
	Reason string
	Offset int // byte offset of the violation, -1 when not applicable
}

func (e *MalformedContainerError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("malformed container at offset %d: %s", e.Offset, e.Reason)
	}
	return fmt.Sprintf("malformed container: %s", e.Reason)
}

func malformed(offset int, format string, args ...any) error {
	return &MalformedContainerError{Reason: fmt.Sprintf(format, args...), Offset: offset}
}

// SizeOverflowError reports that a computed chunk size cannot be
// represented in a RIFF 32-bit size field. The output is never
// silently truncated.
type SizeOverflowError struct {
	Chunk string
	Size  uint64
}

func (e *SizeOverflowError) Error() string {
	return fmt.Sprintf("chunk %q size %d exceeds the 32-bit RIFF size field", e.Chunk, e.Size)
}
