package media_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"tubely/backend/internal/media"
	"tubely/backend/internal/media/mediatest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeInput(t *testing.T) string {
	t.Helper()
	in := filepath.Join(t.TempDir(), "input.mp4")
	require.NoError(t, os.WriteFile(in, []byte("ftyp....mdat....moov"), 0o600))
	return in
}

func TestRewriter_RemuxForStreaming(t *testing.T) {
	runner := mediatest.NewFakeRunner().Handle("ffmpeg", mediatest.CopyRemux())
	rw := media.NewRewriter(runner, "ffmpeg", 0)
	in := writeInput(t)

	out, err := rw.RemuxForStreaming(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, in+media.ProcessingSuffix, out)
	assert.Equal(t, rw.OutputPath(in), out)
	assert.FileExists(t, out)

	calls := runner.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"-y", "-v", "error", "-i", in, "-c", "copy", "-movflags", "faststart", "-f", "mp4", out}, calls[0].Args)
}

func TestRewriter_NonZeroExitLeavesOutputForCaller(t *testing.T) {
	runner := mediatest.NewFakeRunner().Handle("ffmpeg", mediatest.PartialRemux("moov atom not found"))
	rw := media.NewRewriter(runner, "ffmpeg", 0)
	in := writeInput(t)

	_, err := rw.RemuxForStreaming(context.Background(), in)
	require.Error(t, err)
	assert.ErrorIs(t, err, media.ErrRewrite)
	assert.Contains(t, err.Error(), "moov atom not found")

	// The rewriter does not clean up after itself.
	assert.FileExists(t, rw.OutputPath(in))
	assert.FileExists(t, in)
}

func TestRewriter_EmptyOutputIsFailure(t *testing.T) {
	runner := mediatest.NewFakeRunner().Handle("ffmpeg", func(_ context.Context, args []string) (media.RunResult, error) {
		return media.RunResult{}, os.WriteFile(args[len(args)-1], nil, 0o600)
	})
	rw := media.NewRewriter(runner, "ffmpeg", 0)

	_, err := rw.RemuxForStreaming(context.Background(), writeInput(t))
	assert.ErrorIs(t, err, media.ErrRewrite)
}

func TestRewriter_MissingOutputIsFailure(t *testing.T) {
	runner := mediatest.NewFakeRunner().Handle("ffmpeg", mediatest.Exit(0, ""))
	rw := media.NewRewriter(runner, "ffmpeg", 0)

	_, err := rw.RemuxForStreaming(context.Background(), writeInput(t))
	assert.ErrorIs(t, err, media.ErrRewrite)
}
