package media

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Still is a decoded still image.
type Still struct {
	id   uint64
	path string
	img  image.Image
}

// LoadStill reads and decodes an image file.
func LoadStill(path string) (*Still, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrOpen, path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrDecode, path, err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: %s is empty", ErrFrame, path)
	}
	return NewStill(path, img), nil
}

// NewStill wraps an already decoded image.
func NewStill(path string, img image.Image) *Still {
	return &Still{id: nextID(), path: path, img: img}
}

func (s *Still) Kind() Kind   { return KindStill }
func (s *Still) ID() uint64   { return s.id }
func (s *Still) Path() string { return s.path }
func (s *Still) Key() Key     { return Key{ID: s.id} }
func (s *Still) Close() error { return nil }

// Image returns the decoded source image.
func (s *Still) Image() image.Image { return s.img }

func (s *Still) Size() (int, int) {
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

// Decode converts the image to an RGB24 frame.
func (s *Still) Decode() (*Frame, error) {
	b := s.img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w: %s is empty", ErrFrame, s.path)
	}
	rgba, ok := s.img.(*image.RGBA)
	if !ok || rgba.Rect.Min != (image.Point{}) || rgba.Stride != 4*b.Dx() {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), s.img, b.Min, draw.Src)
	}
	frame := NewFrame(s.Key(), b.Dx(), b.Dy())
	for i, j := 0, 0; j+2 < len(frame.Pix); i, j = i+4, j+3 {
		frame.Pix[j] = rgba.Pix[i]
		frame.Pix[j+1] = rgba.Pix[i+1]
		frame.Pix[j+2] = rgba.Pix[i+2]
	}
	return frame, nil
}
