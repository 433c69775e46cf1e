// Package media wraps the external tools the upload pipeline depends on.
//
// A [Runner] executes a command and reports its exit status without judging
// it. [Prober] reads stream dimensions through ffprobe and classifies the
// frame shape into an [Orientation]; [Rewriter] remuxes an MP4 with ffmpeg
// so its index sits at the front of the file. Neither touches files it did
// not create, and neither removes its own output on failure: the caller owns
// cleanup.
package media
