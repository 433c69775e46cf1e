package media

import (
	"errors"
	"io"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolError_TruncatesStderr(t *testing.T) {
	tests := []struct {
		name    string
		stderr  string
		wantLen int // bytes of stderr kept before "..."
	}{
		{"ascii", strings.Repeat("x", 600), maxStderrInError},
		// "a" shifts every two-byte "é" so byte 512 falls inside a rune.
		{"multibyte boundary", "a" + strings.Repeat("é", 600), maxStderrInError - 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := rewriteError("ffmpeg", RunResult{ExitCode: 1, Stderr: tt.stderr}, nil)
			msg := err.Error()

			assert.True(t, utf8.ValidString(msg), "message is not valid UTF-8")
			require.True(t, strings.HasSuffix(msg, "..."), msg)
			prefix := "rewrite failed: ffmpeg exited with status 1: "
			require.True(t, strings.HasPrefix(msg, prefix), msg)
			kept := strings.TrimSuffix(strings.TrimPrefix(msg, prefix), "...")
			assert.Len(t, kept, tt.wantLen)
			assert.True(t, strings.HasPrefix(tt.stderr, kept))

			assert.ErrorIs(t, err, ErrRewrite)
			assert.Equal(t, tt.stderr, err.Stderr, "full stderr is kept on the error")
		})
	}
}

func TestToolError_ShortStderrUntouched(t *testing.T) {
	err := probeError("ffprobe", RunResult{ExitCode: 1, Stderr: "  moov atom not found\n"}, nil)
	assert.Equal(t, "probe failed: ffprobe exited with status 1: moov atom not found", err.Error())
}

func TestToolError_UnwrapsCause(t *testing.T) {
	err := rewriteError("ffmpeg", RunResult{ExitCode: -1}, io.ErrUnexpectedEOF)
	assert.True(t, errors.Is(err, ErrRewrite))
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	assert.False(t, errors.Is(err, ErrProbe))
	assert.Equal(t, "rewrite failed: ffmpeg: unexpected EOF", err.Error())
}
