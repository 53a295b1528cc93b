package raster

import (
	"fmt"
	"image"
	"io"

	"golang.org/x/image/draw"
)

// FrameWriter streams composited frames as fixed-size raw RGB24 to an
// external encoder. Frames of another size are rescaled with
// nearest-neighbour sampling so the stream geometry never changes.
type FrameWriter struct {
	w      io.Writer
	width  int
	height int
	scaled *image.RGBA
	buf    []byte
	frames int
}

// NewFrameWriter creates a writer emitting width×height frames.
func NewFrameWriter(w io.Writer, width, height int) (*FrameWriter, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid stream size %dx%d", width, height)
	}
	return &FrameWriter{
		w:      w,
		width:  width,
		height: height,
		scaled: image.NewRGBA(image.Rect(0, 0, width, height)),
		buf:    make([]byte, width*height*3),
	}, nil
}

// Size returns the stream frame size.
func (fw *FrameWriter) Size() (int, int) { return fw.width, fw.height }

// Frames returns how many frames were written.
func (fw *FrameWriter) Frames() int { return fw.frames }

// WriteFrame appends one frame to the stream.
func (fw *FrameWriter) WriteFrame(img *image.RGBA) error {
	src := img
	if img.Bounds().Dx() != fw.width || img.Bounds().Dy() != fw.height {
		draw.NearestNeighbor.Scale(fw.scaled, fw.scaled.Bounds(), img, img.Bounds(), draw.Src, nil)
		src = fw.scaled
	}
	b := src.Bounds()
	j := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := src.PixOffset(b.Min.X, y)
		for x := 0; x < fw.width; x++ {
			fw.buf[j] = src.Pix[off]
			fw.buf[j+1] = src.Pix[off+1]
			fw.buf[j+2] = src.Pix[off+2]
			j += 3
			off += 4
		}
	}
	if _, err := fw.w.Write(fw.buf); err != nil {
		return fmt.Errorf("writing frame %d: %w", fw.frames, err)
	}
	fw.frames++
	return nil
}
