// Package models provides the data structures shared between the
// normalization, orchestration and render layers.
package models

import (
	"fmt"
	"time"
)

// NormalizeProgress represents real-time conversion metrics parsed from
// ffmpeg output while a clip is normalized.
type NormalizeProgress struct {
	// Current position in the file
	Frame       int64   // Current frame number
	FPS         float64 // Frames per second being processed
	CurrentTime string  // Current timestamp (HH:MM:SS.MS)

	// Performance metrics
	Bitrate string  // Current bitrate (e.g., "128.0kbits/s")
	Speed   float64 // Conversion speed multiplier (e.g., 2.34 means 2.34x realtime)
	Size    string  // Current output file size (e.g., "1024kB")

	// Progress calculation
	TotalDuration float64 // Source duration in seconds, for the percentage
	Percent       float64 // Percentage complete (0-100)

	// Metadata
	State     ProgressState
	StartTime time.Time
	UpdatedAt time.Time
}

// ProgressState represents the current state of a normalization task.
type ProgressState string

const (
	ProgressStateQueued    ProgressState = "queued"
	ProgressStateRunning   ProgressState = "running"
	ProgressStateCompleted ProgressState = "completed"
	ProgressStateFailed    ProgressState = "failed"
	ProgressStateCancelled ProgressState = "cancelled"
)

// ProgressCallback receives progress updates while ffmpeg runs.
type ProgressCallback func(progress *NormalizeProgress)

// NewNormalizeProgress creates a progress tracker for a source of the
// given duration. A zero duration disables percentage calculation.
func NewNormalizeProgress(totalDuration float64) *NormalizeProgress {
	return &NormalizeProgress{
		TotalDuration: totalDuration,
		State:         ProgressStateQueued,
		StartTime:     time.Now(),
		UpdatedAt:     time.Now(),
	}
}

// Advance updates the percentage from the current source position.
func (p *NormalizeProgress) Advance(currentSeconds float64) {
	if p.TotalDuration > 0 {
		p.Percent = (currentSeconds / p.TotalDuration) * 100
		if p.Percent > 100 {
			p.Percent = 100
		}
	}
	p.UpdatedAt = time.Now()
}

// EstimatedTimeRemaining calculates ETA from elapsed time and the
// current percentage.
func (p *NormalizeProgress) EstimatedTimeRemaining() time.Duration {
	if p.Percent <= 0 {
		return 0
	}

	elapsed := time.Since(p.StartTime)
	totalEstimated := time.Duration(float64(elapsed) / (p.Percent / 100))
	remaining := totalEstimated - elapsed

	if remaining < 0 {
		return 0
	}
	return remaining
}

// FormatSummary returns a human-readable one-line summary.
func (p *NormalizeProgress) FormatSummary() string {
	return fmt.Sprintf(
		"Progress: %.1f%% | Speed: %.2fx | Bitrate: %s | Size: %s | ETA: %s",
		p.Percent,
		p.Speed,
		p.Bitrate,
		p.Size,
		formatDuration(p.EstimatedTimeRemaining()),
	)
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "calculating..."
	}

	seconds := int(d.Seconds())
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}

	minutes := seconds / 60
	seconds = seconds % 60
	if minutes < 60 {
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	}

	hours := minutes / 60
	minutes = minutes % 60
	return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
}
