// Package record pipes the live composited frames into an ffmpeg encoder.
package record

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/olivier-w/osciline/internal/raster"
)

// Recorder streams fixed-size RGB24 frames to an encoder.
type Recorder struct {
	mu     sync.Mutex
	fw     *raster.FrameWriter
	pipe   io.WriteCloser
	wait   func() error
	path   string
	closed bool
}

// New records into pipe; wait, if non-nil, is called after the pipe is
// closed and reports the encoder's exit status.
func New(pipe io.WriteCloser, wait func() error, path string, w, h int) (*Recorder, error) {
	fw, err := raster.NewFrameWriter(pipe, w, h)
	if err != nil {
		return nil, err
	}
	return &Recorder{fw: fw, pipe: pipe, wait: wait, path: path}, nil
}

// Start launches ffmpeg encoding w×h frames at fps into path.
func Start(ctx context.Context, path string, w, h, fps int) (*Recorder, error) {
	ffmpeg, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found (required for recording)")
	}
	cmd := exec.CommandContext(ctx, ffmpeg, encoderArgs(path, w, h, fps)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting ffmpeg encoder: %w", err)
	}
	wait := func() error {
		if err := cmd.Wait(); err != nil {
			return fmt.Errorf("ffmpeg encoder: %w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return nil
	}
	r, err := New(stdin, wait, path, w, h)
	if err != nil {
		stdin.Close()
		cmd.Wait()
		return nil, err
	}
	return r, nil
}

func encoderArgs(path string, w, h, fps int) []string {
	return []string{
		"-v", "error",
		"-y",
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-s", strconv.Itoa(w) + "x" + strconv.Itoa(h),
		"-r", strconv.Itoa(fps),
		"-i", "pipe:0",
		"-an",
		"-pix_fmt", "yuv420p",
		path,
	}
}

// Path is the output file.
func (r *Recorder) Path() string { return r.path }

// Frames is the number of frames written.
func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fw.Frames()
}

// WriteFrame appends img to the recording.
func (r *Recorder) WriteFrame(img *image.RGBA) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return fmt.Errorf("recorder closed")
	}
	return r.fw.WriteFrame(img)
}

// Close finishes the stream and waits for the encoder.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	err := r.pipe.Close()
	if r.wait != nil {
		if werr := r.wait(); werr != nil {
			return werr
		}
	}
	return err
}
