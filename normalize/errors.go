package normalize

import "fmt"

// ExternalToolError reports a failed ffmpeg or ffprobe invocation,
// carrying the exit code and the tail of the tool's stderr output.
type ExternalToolError struct {
	Tool     string
	Args     []string
	ExitCode int
	Stderr   string
	Cause    error
}

func (e *ExternalToolError) Error() string {
	msg := fmt.Sprintf("%s failed", e.Tool)
	if e.ExitCode != 0 {
		msg = fmt.Sprintf("%s with exit code %d", msg, e.ExitCode)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.Stderr != "" {
		msg = fmt.Sprintf("%s\n%s", msg, e.Stderr)
	}
	return msg
}

func (e *ExternalToolError) Unwrap() error {
	return e.Cause
}
