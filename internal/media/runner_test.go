package media

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestExecRunner_CapturesOutputAndExitCode(t *testing.T) {
	requireShell(t)
	r := NewExecRunner()

	res, err := r.Run(context.Background(), "sh", "-c", "echo out; echo err >&2; exit 3")
	require.NoError(t, err, "non-zero exit is not an error")
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "out\n", string(res.Stdout))
	assert.Equal(t, "err\n", res.Stderr)
}

func TestExecRunner_DrainsLargeOutput(t *testing.T) {
	requireShell(t)
	r := NewExecRunner()

	// Both pipes well past a typical 64 KiB pipe buffer.
	res, err := r.Run(context.Background(), "sh", "-c",
		"i=0; while [ $i -lt 20000 ]; do echo line-$i; echo err-$i >&2; i=$((i+1)); done")
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, 20000, strings.Count(string(res.Stdout), "\n"))
	assert.Equal(t, 20000, strings.Count(res.Stderr, "\n"))
}

func TestExecRunner_TimeoutKillsProcess(t *testing.T) {
	requireShell(t)
	r := &ExecRunner{WaitDelay: 100 * time.Millisecond}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	res, err := r.Run(ctx, "sh", "-c", "sleep 10")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, -1, res.ExitCode)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestExecRunner_MissingBinary(t *testing.T) {
	_, err := NewExecRunner().Run(context.Background(), "definitely-not-a-real-binary-tubely")
	assert.Error(t, err)
}
