// Package mediatest provides a scriptable media.Runner for tests.
package mediatest

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"tubely/backend/internal/media"
)

// Call is one recorded Runner invocation.
type Call struct {
	Name string
	Args []string
}

// Handler produces the result for a command. It may write files.
type Handler func(ctx context.Context, args []string) (media.RunResult, error)

// FakeRunner dispatches commands by name to registered handlers and records
// every call. Unregistered commands fail to start.
type FakeRunner struct {
	mu       sync.Mutex
	handlers map[string]Handler
	calls    []Call
}

func NewFakeRunner() *FakeRunner {
	return &FakeRunner{handlers: map[string]Handler{}}
}

// Handle registers h for command name.
func (f *FakeRunner) Handle(name string, h Handler) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[name] = h
	return f
}

func (f *FakeRunner) Run(ctx context.Context, name string, args ...string) (media.RunResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Name: name, Args: append([]string(nil), args...)})
	h, ok := f.handlers[name]
	f.mu.Unlock()

	if !ok {
		return media.RunResult{ExitCode: -1}, fmt.Errorf("run %s: executable file not found", name)
	}
	return h(ctx, args)
}

// Calls returns a copy of the recorded invocations.
func (f *FakeRunner) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallCount returns how many times name was run.
func (f *FakeRunner) CallCount(name string) int {
	n := 0
	for _, c := range f.Calls() {
		if c.Name == name {
			n++
		}
	}
	return n
}

// ProbeJSON answers like ffprobe -show_streams for a single video stream.
func ProbeJSON(width, height int) Handler {
	return func(context.Context, []string) (media.RunResult, error) {
		out := fmt.Sprintf(`{"streams":[{"index":0,"codec_name":"h264","codec_type":"video","width":%d,"height":%d},`+
			`{"index":1,"codec_name":"aac","codec_type":"audio"}]}`, width, height)
		return media.RunResult{Stdout: []byte(out)}, nil
	}
}

// Exit answers with the given exit code and stderr.
func Exit(code int, stderr string) Handler {
	return func(context.Context, []string) (media.RunResult, error) {
		return media.RunResult{ExitCode: code, Stderr: stderr}, nil
	}
}

// CopyRemux behaves like a successful ffmpeg -i <in> ... <out> by copying
// the input file to the last argument.
func CopyRemux() Handler {
	return func(_ context.Context, args []string) (media.RunResult, error) {
		in, out := argAfter(args, "-i"), args[len(args)-1]
		src, err := os.Open(in)
		if err != nil {
			return media.RunResult{ExitCode: 1, Stderr: err.Error()}, nil
		}
		defer src.Close()
		dst, err := os.Create(out)
		if err != nil {
			return media.RunResult{ExitCode: 1, Stderr: err.Error()}, nil
		}
		defer dst.Close()
		if _, err := io.Copy(dst, src); err != nil {
			return media.RunResult{ExitCode: 1, Stderr: err.Error()}, nil
		}
		return media.RunResult{}, nil
	}
}

// PartialRemux writes a few bytes to the output and then fails, like an
// ffmpeg run that dies midway.
func PartialRemux(stderr string) Handler {
	return func(_ context.Context, args []string) (media.RunResult, error) {
		_ = os.WriteFile(args[len(args)-1], []byte("partial"), 0o600)
		return media.RunResult{ExitCode: 1, Stderr: stderr}, nil
	}
}

func argAfter(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}
