package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
)

// ProcessingSuffix is appended to the input path to name the remuxed copy.
const ProcessingSuffix = ".processing"

var errEmptyOutput = errors.New("output file is empty")

// Rewriter remuxes MP4 files for progressive playback with ffmpeg.
type Rewriter struct {
	runner  Runner
	bin     string
	timeout time.Duration
}

// NewRewriter returns a Rewriter running bin (normally "ffmpeg") through runner.
func NewRewriter(runner Runner, bin string, timeout time.Duration) *Rewriter {
	if bin == "" {
		bin = "ffmpeg"
	}
	return &Rewriter{runner: runner, bin: bin, timeout: timeout}
}

// OutputPath is where RemuxForStreaming writes the copy of path. Callers
// register it for cleanup before running the rewrite.
func (r *Rewriter) OutputPath(path string) string {
	return path + ProcessingSuffix
}

// RemuxForStreaming copies path's streams into a new MP4 with the moov atom
// moved to the front, without re-encoding. It returns the output path.
//
// On failure the output may exist partially written; removing it is the
// caller's job.
func (r *Rewriter) RemuxForStreaming(ctx context.Context, path string) (string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	out := r.OutputPath(path)
	res, err := r.runner.Run(ctx, r.bin,
		"-y",
		"-v", "error",
		"-i", path,
		"-c", "copy",
		"-movflags", "faststart",
		"-f", "mp4",
		out,
	)
	if err != nil {
		return "", rewriteError(r.bin, res, err)
	}
	if res.ExitCode != 0 {
		return "", rewriteError(r.bin, res, nil)
	}

	// ffmpeg can exit 0 without writing anything useful.
	st, err := os.Stat(out)
	if err != nil {
		return "", rewriteError(r.bin, res, fmt.Errorf("stat output: %w", err))
	}
	if st.Size() == 0 {
		return "", rewriteError(r.bin, res, errEmptyOutput)
	}
	return out, nil
}
