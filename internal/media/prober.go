package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// VideoInfo holds the dimensions of the first video stream of a file.
type VideoInfo struct {
	Index  int
	Codec  string
	Width  int
	Height int
}

// Orientation classifies the stream's frame shape.
func (v VideoInfo) Orientation() Orientation {
	return Classify(v.Width, v.Height)
}

// Prober reads stream metadata with ffprobe.
type Prober struct {
	runner  Runner
	bin     string
	timeout time.Duration
}

// NewProber returns a Prober running bin (normally "ffprobe") through runner.
// A zero timeout leaves the deadline to the caller's context.
func NewProber(runner Runner, bin string, timeout time.Duration) *Prober {
	if bin == "" {
		bin = "ffprobe"
	}
	return &Prober{runner: runner, bin: bin, timeout: timeout}
}

// Probe returns the first video stream of path. Any failure is a *ToolError
// of kind ErrProbe.
func (p *Prober) Probe(ctx context.Context, path string) (*VideoInfo, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	res, err := p.runner.Run(ctx, p.bin,
		"-v", "error",
		"-print_format", "json",
		"-show_streams",
		path,
	)
	if err != nil {
		return nil, probeError(p.bin, res, err)
	}
	if res.ExitCode != 0 {
		return nil, probeError(p.bin, res, nil)
	}

	info, err := ParseStreams(res.Stdout)
	if err != nil {
		return nil, probeError(p.bin, res, err)
	}
	return info, nil
}

// ProbeOrientation probes path and classifies its first video stream.
func (p *Prober) ProbeOrientation(ctx context.Context, path string) (Orientation, error) {
	info, err := p.Probe(ctx, path)
	if err != nil {
		return "", err
	}
	return info.Orientation(), nil
}

var (
	errNoVideoStream = errors.New("no video stream found")
	errNoDimensions  = errors.New("video stream has no dimensions")
)

type ffprobeOutput struct {
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeStream struct {
	Index     int    `json:"index"`
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// ParseStreams extracts the first video stream from ffprobe -show_streams
// JSON output. Exported for testing without a real ffprobe binary.
func ParseStreams(data []byte) (*VideoInfo, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse ffprobe JSON: %w", err)
	}
	for _, s := range raw.Streams {
		if s.CodecType != "video" {
			continue
		}
		if s.Width <= 0 || s.Height <= 0 {
			return nil, errNoDimensions
		}
		return &VideoInfo{Index: s.Index, Codec: s.CodecName, Width: s.Width, Height: s.Height}, nil
	}
	return nil, errNoVideoStream
}
