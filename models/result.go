package models

import (
	"fmt"
	"strings"
	"time"
)

// NormalizeResult represents the outcome of normalizing a single clip.
//
// Successful results must carry an output path and no error; failed
// results must carry an error and no output path. Use the constructors
// to get validated instances.
type NormalizeResult struct {
	ClipID     string `json:"clip_id"`
	SourcePath string `json:"source_path"`
	OutputPath string `json:"output_path"`
	Success    bool   `json:"success"`
	Error      error  `json:"error"`
}

// NewNormalizeSuccess creates a successful NormalizeResult.
//
// Returns an error if outputPath is empty or whitespace-only.
func NewNormalizeSuccess(clipID, sourcePath, outputPath string) (*NormalizeResult, error) {
	r := &NormalizeResult{
		ClipID:     clipID,
		SourcePath: sourcePath,
		OutputPath: outputPath,
		Success:    true,
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("invalid normalize result: %w", err)
	}
	return r, nil
}

// NewNormalizeFailure creates a failed NormalizeResult.
//
// The cause must not be nil.
func NewNormalizeFailure(clipID, sourcePath string, cause error) (*NormalizeResult, error) {
	if cause == nil {
		return nil, fmt.Errorf("invalid normalize result: error cannot be nil for failed result")
	}
	return &NormalizeResult{
		ClipID:     clipID,
		SourcePath: sourcePath,
		Success:    false,
		Error:      cause,
	}, nil
}

// Validate checks the result for consistent state.
func (r *NormalizeResult) Validate() error {
	if r.Success && r.Error != nil {
		return fmt.Errorf("inconsistent state: Success is true but Error is not nil")
	}
	if !r.Success && r.Error == nil {
		return fmt.Errorf("failed result must have an error")
	}
	if r.Success && strings.TrimSpace(r.OutputPath) == "" {
		return fmt.Errorf("output_path cannot be empty for successful result")
	}
	if !r.Success && strings.TrimSpace(r.OutputPath) != "" {
		return fmt.Errorf("failed result should not have output_path")
	}
	return nil
}

// RenderSummary reports what a finished render produced.
type RenderSummary struct {
	OutputPath       string        `json:"output_path"`
	VideoFrames      int           `json:"video_frames"`
	AudioFrames      int           `json:"audio_frames"`
	DroppedKeyframes int           `json:"dropped_keyframes"`
	DuplicatedFrames int           `json:"duplicated_frames"`
	OutputBytes      int           `json:"output_bytes"`
	Elapsed          time.Duration `json:"elapsed"`
}

// String renders the summary as a single log-friendly line.
func (s *RenderSummary) String() string {
	return fmt.Sprintf(
		"wrote %s: %d video frames (%d keyframes dropped, %d duplicated), %d audio frames, %d bytes in %s",
		s.OutputPath,
		s.VideoFrames,
		s.DroppedKeyframes,
		s.DuplicatedFrames,
		s.AudioFrames,
		s.OutputBytes,
		s.Elapsed.Round(time.Millisecond),
	)
}
