package media

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	ErrProbe   = errors.New("probe failed")
	ErrRewrite = errors.New("rewrite failed")
)

// maxStderrInError caps how much tool output is copied into Error().
const maxStderrInError = 512

// ToolError describes a failed ffprobe/ffmpeg invocation. Stderr holds the
// tool's full diagnostic output.
type ToolError struct {
	Kind     error // ErrProbe or ErrRewrite
	Tool     string
	ExitCode int
	Stderr   string
	Err      error // cause, if the failure was not a plain exit status
}

func (e *ToolError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	b.WriteString(": ")
	switch {
	case e.Err != nil:
		fmt.Fprintf(&b, "%s: %v", e.Tool, e.Err)
	default:
		fmt.Fprintf(&b, "%s exited with status %d", e.Tool, e.ExitCode)
	}
	if msg := strings.TrimSpace(e.Stderr); msg != "" {
		if len(msg) > maxStderrInError {
			// Cut on a rune boundary so the message stays valid UTF-8.
			n := maxStderrInError
			for n > 0 && !utf8.RuneStart(msg[n]) {
				n--
			}
			msg = msg[:n] + "..."
		}
		b.WriteString(": ")
		b.WriteString(msg)
	}
	return b.String()
}

// Unwrap exposes both the kind sentinel and the underlying cause to errors.Is.
func (e *ToolError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func probeError(tool string, res RunResult, err error) *ToolError {
	return &ToolError{Kind: ErrProbe, Tool: tool, ExitCode: res.ExitCode, Stderr: res.Stderr, Err: err}
}

func rewriteError(tool string, res RunResult, err error) *ToolError {
	return &ToolError{Kind: ErrRewrite, Tool: tool, ExitCode: res.ExitCode, Stderr: res.Stderr, Err: err}
}
