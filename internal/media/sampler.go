package media

import (
	"errors"
	"fmt"
	"log/slog"
)

// DisruptionScale converts luminance into vertical displacement.
const DisruptionScale = 0.1

// ErrOutOfRange is returned for coordinates outside the decoded frame.
var ErrOutOfRange = errors.New("coordinate outside decoded frame")

// SamplerStats counts cache activity.
type SamplerStats struct {
	Hits    int
	Misses  int
	Decodes int
	Errors  int
}

// Sampler maps normalized coordinates to brightness disruption for the bound
// source. It keeps one decoded frame, keyed by source identity and (for
// video) presented-frame timestamp, and redecodes when the key changes.
//
// A Sampler is owned by the render-loop goroutine; it is not safe for
// concurrent use.
type Sampler struct {
	logger *slog.Logger
	src    Source
	frame  *Frame
	pinned bool
	stats  SamplerStats
}

// NewSampler returns a sampler with nothing bound.
func NewSampler(logger *slog.Logger) *Sampler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sampler{logger: logger}
}

// Bind replaces the bound source and purges the cache. A nil source unbinds.
func (s *Sampler) Bind(src Source) {
	s.src = src
	s.frame = nil
	s.pinned = false
}

// Source returns the bound source, if any.
func (s *Sampler) Source() Source { return s.src }

// Stats returns the cache counters.
func (s *Sampler) Stats() SamplerStats { return s.stats }

// Cached reports whether the cache currently holds the frame for key.
func (s *Sampler) Cached(key Key) bool {
	return s.frame != nil && s.frame.Key == key
}

// Frame returns the cached frame for the presented key, decoding on a miss.
// While pinned, the pinned frame is returned even if the video has moved on.
func (s *Sampler) Frame() (*Frame, error) {
	if s.src == nil {
		return nil, nil
	}
	if s.frame != nil && (s.pinned || s.frame.Key == s.src.Key()) {
		s.stats.Hits++
		return s.frame, nil
	}
	s.stats.Misses++
	frame, err := s.src.Decode()
	if err != nil {
		s.stats.Errors++
		return nil, err
	}
	if frame.Key.ID != s.src.ID() {
		s.stats.Errors++
		return nil, fmt.Errorf("decoded frame belongs to source %d, bound %d", frame.Key.ID, s.src.ID())
	}
	s.stats.Decodes++
	s.frame = frame
	return frame, nil
}

// Pin freezes the current frame until Unpin so a long-running export sees a
// single instant of the source.
func (s *Sampler) Pin() (*Frame, error) {
	frame, err := s.Frame()
	if err != nil {
		return nil, err
	}
	s.pinned = frame != nil
	return frame, nil
}

// Unpin releases a pinned frame; the next lookup revalidates the key.
func (s *Sampler) Unpin() { s.pinned = false }

// Pinned reports whether a frame is pinned.
func (s *Sampler) Pinned() bool { return s.pinned }

// Sample returns the disruption at u, v in [0, DisruptionScale]. With no
// source bound it returns 0 and no error.
func (s *Sampler) Sample(u, v float64) (float64, error) {
	frame, err := s.Frame()
	if err != nil {
		return 0, err
	}
	return FrameDisruption(frame, u, v)
}

// Disruption is Sample with errors logged and replaced by 0.
func (s *Sampler) Disruption(u, v float64) float64 {
	d, err := s.Sample(u, v)
	if err != nil {
		s.logger.Debug("brightness sample failed", "u", u, "v", v, "error", err)
		return 0
	}
	return d
}

// FrameDisruption returns luminance·DisruptionScale of the pixel nearest to
// u, v. A nil frame yields 0.
func FrameDisruption(frame *Frame, u, v float64) (float64, error) {
	if frame == nil {
		return 0, nil
	}
	lum, ok := frame.Luminance(u, v)
	if !ok {
		return 0, fmt.Errorf("sampling (%g, %g) in %dx%d: %w", u, v, frame.W, frame.H, ErrOutOfRange)
	}
	return min(max(lum, 0), 1) * DisruptionScale, nil
}
