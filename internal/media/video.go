package media

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"
)

const (
	defaultFPS     = 15
	maxDecodeWidth = 640
)

// FrameProvider supplies the presented frames of a playing video.
type FrameProvider interface {
	Size() (w, h int)
	// Timestamp is the presentation time of the latest frame, or -1 before
	// the first frame arrives.
	Timestamp() time.Duration
	// Latest copies the latest frame (RGB24) into dst.
	Latest(dst []byte) (time.Duration, bool)
	Close() error
}

// Video is a looping video source.
type Video struct {
	id       uint64
	path     string
	provider FrameProvider
}

// NewVideo wraps a frame provider.
func NewVideo(path string, provider FrameProvider) *Video {
	return &Video{id: nextID(), path: path, provider: provider}
}

// OpenVideo reads the stream geometry of path and starts an ffmpeg decode
// that presents frames in real time, looping at the end.
func OpenVideo(path string) (*Video, error) {
	info, err := readStreamInfo(context.Background(), path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	w, h := DecodeSize(info.Width, info.Height)
	p, err := startFFmpeg(path, w, h, defaultFPS)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrOpen, path, err)
	}
	return NewVideo(path, p), nil
}

func (v *Video) Kind() Kind       { return KindVideo }
func (v *Video) ID() uint64       { return v.id }
func (v *Video) Path() string     { return v.path }
func (v *Video) Size() (int, int) { return v.provider.Size() }
func (v *Video) Close() error      { return v.provider.Close() }

// Key changes whenever a new frame is presented.
func (v *Video) Key() Key {
	return Key{ID: v.id, Timestamp: v.provider.Timestamp()}
}

// Decode copies the presented frame out of the provider.
func (v *Video) Decode() (*Frame, error) {
	w, h := v.provider.Size()
	frame := NewFrame(Key{ID: v.id}, w, h)
	ts, ok := v.provider.Latest(frame.Pix)
	if !ok {
		return nil, fmt.Errorf("%w: %s has not presented a frame yet", ErrFrame, v.path)
	}
	frame.Key.Timestamp = ts
	return frame, nil
}

// DecodeSize caps the decode width while keeping the aspect ratio and even
// dimensions.
func DecodeSize(srcW, srcH int) (int, int) {
	if srcW <= 0 || srcH <= 0 {
		return 0, 0
	}
	w, h := srcW, srcH
	if w > maxDecodeWidth {
		h = h * maxDecodeWidth / w
		w = maxDecodeWidth
	}
	w &^= 1
	h &^= 1
	return max(w, 2), max(h, 2)
}

// ffmpegProvider reads rawvideo frames from an ffmpeg subprocess that runs
// at native rate (-re), double-buffering the latest complete frame.
type ffmpegProvider struct {
	w, h int
	fps  int

	mu       sync.Mutex
	cmd      *exec.Cmd
	cancel   context.CancelFunc
	front    []byte
	frameIdx int64 // index of the frame in front (-1 = none)
	closed   bool
	done     chan struct{}
}

func startFFmpeg(path string, w, h, fps int) (*ffmpegProvider, error) {
	ffmpeg, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found (required for video sources)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, ffmpeg,
		"-v", "quiet",
		"-re",
		"-stream_loop", "-1",
		"-i", path,
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-vf", fmt.Sprintf("scale=%d:%d,fps=%d", w, h, fps),
		"-an",
		"pipe:1",
	)
	cmd.Stdin = nil

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("starting ffmpeg video decode: %w", err)
	}

	p := &ffmpegProvider{
		w:        w,
		h:        h,
		fps:      fps,
		cmd:      cmd,
		cancel:   cancel,
		front:    make([]byte, w*h*3),
		frameIdx: -1,
		done:     make(chan struct{}),
	}
	go p.readLoop(stdout)
	return p, nil
}

func (p *ffmpegProvider) readLoop(stdout io.Reader) {
	defer close(p.done)
	back := make([]byte, p.w*p.h*3)
	for {
		if _, err := io.ReadFull(stdout, back); err != nil {
			return
		}
		p.mu.Lock()
		p.front, back = back, p.front
		p.frameIdx++
		p.mu.Unlock()
	}
}

func (p *ffmpegProvider) Size() (int, int) { return p.w, p.h }

func (p *ffmpegProvider) Timestamp() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.timestampLocked()
}

func (p *ffmpegProvider) timestampLocked() time.Duration {
	if p.frameIdx < 0 {
		return -1
	}
	return time.Duration(p.frameIdx) * time.Second / time.Duration(p.fps)
}

func (p *ffmpegProvider) Latest(dst []byte) (time.Duration, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.frameIdx < 0 || p.closed {
		return 0, false
	}
	copy(dst, p.front)
	return p.timestampLocked(), true
}

func (p *ffmpegProvider) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.cancel()
	<-p.done
	p.cmd.Wait()
	return nil
}
