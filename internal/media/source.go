// Package media loads still images and videos and samples their brightness.
package media

import (
	"errors"
	"fmt"
	"image"
	"sync/atomic"
	"time"
)

// Kind tags the SourceMedia variant.
type Kind uint8

const (
	KindStill Kind = iota + 1
	KindVideo
)

func (k Kind) String() string {
	switch k {
	case KindStill:
		return "image"
	case KindVideo:
		return "video"
	}
	return "unknown"
}

// ErrUnsupported is returned when a path is neither a known image nor video type.
var ErrUnsupported = errors.New("unsupported media type")

// Load failures wrap one of these to name the step that failed.
var (
	ErrOpen   = errors.New("cannot open media")
	ErrDecode = errors.New("cannot decode media")
	ErrFrame  = errors.New("no frame available")
)

// Key identifies one decodable frame: the source identity plus, for video,
// the presented-frame timestamp.
type Key struct {
	ID        uint64
	Timestamp time.Duration
}

var lastID atomic.Uint64

func nextID() uint64 { return lastID.Add(1) }

// Source is a bound still image or video.
type Source interface {
	Kind() Kind
	ID() uint64
	Path() string
	Size() (w, h int)
	// Key returns the key of the frame currently presented.
	Key() Key
	// Decode returns the presented frame as a pixel buffer.
	Decode() (*Frame, error)
	Close() error
}

// Frame is a decoded RGB24 pixel buffer, row-major, top-to-bottom.
type Frame struct {
	Key  Key
	W, H int
	Pix  []byte
}

// NewFrame allocates a zeroed w×h frame.
func NewFrame(key Key, w, h int) *Frame {
	return &Frame{Key: key, W: w, H: h, Pix: make([]byte, w*h*3)}
}

// RGB returns the pixel at x, y. ok is false outside the frame.
func (f *Frame) RGB(x, y int) (r, g, b uint8, ok bool) {
	if f == nil || x < 0 || y < 0 || x >= f.W || y >= f.H {
		return 0, 0, 0, false
	}
	off := (y*f.W + x) * 3
	if off+2 >= len(f.Pix) {
		return 0, 0, 0, false
	}
	return f.Pix[off], f.Pix[off+1], f.Pix[off+2], true
}

// Nearest maps a normalized coordinate to a pixel with nearest-neighbour
// lookup at floor(u·W), floor(v·H). u or v equal to 1 map to the last pixel.
func (f *Frame) Nearest(u, v float64) (x, y int, ok bool) {
	if f == nil || f.W <= 0 || f.H <= 0 {
		return 0, 0, false
	}
	if !(u >= 0 && u <= 1 && v >= 0 && v <= 1) {
		return 0, 0, false
	}
	x = min(int(u*float64(f.W)), f.W-1)
	y = min(int(v*float64(f.H)), f.H-1)
	return x, y, true
}

// Luminance returns the BT.601 luma of the pixel nearest to u, v in [0,1].
func (f *Frame) Luminance(u, v float64) (float64, bool) {
	x, y, ok := f.Nearest(u, v)
	if !ok {
		return 0, false
	}
	r, g, b, ok := f.RGB(x, y)
	if !ok {
		return 0, false
	}
	return Luminance(r, g, b), true
}

// Image wraps the frame as an *image.RGBA.
func (f *Frame) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.W, f.H))
	for i, j := 0, 0; i+2 < len(f.Pix) && j+3 < len(img.Pix); i, j = i+3, j+4 {
		img.Pix[j] = f.Pix[i]
		img.Pix[j+1] = f.Pix[i+1]
		img.Pix[j+2] = f.Pix[i+2]
		img.Pix[j+3] = 0xff
	}
	return img
}

// Luminance is 0.299R + 0.587G + 0.114B scaled to [0,1].
func Luminance(r, g, b uint8) float64 {
	return (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 255
}

// Open loads path as a still image or starts decoding it as a video,
// depending on its extension.
func Open(path string) (Source, error) {
	kind, ok := KindForPath(path)
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupported)
	}
	var (
		src Source
		err error
	)
	switch kind {
	case KindStill:
		src, err = LoadStill(path)
	default:
		src, err = OpenVideo(path)
	}
	if err != nil {
		return nil, err
	}
	return src, nil
}
