package raster

import (
	"image"
	"strings"
)

// Terminal presents RGBA frames as terminal text.
//   - Colour: "▀" with fg = upper pixel and bg = lower pixel, two pixel rows per text row.
//   - ASCII: one brightness character per pixel.
type Terminal struct {
	mode ColorMode
	sb   strings.Builder
}

// NewTerminal creates a presenter for the current terminal's colour support.
func NewTerminal() *Terminal {
	return &Terminal{mode: DetectColorMode()}
}

// NewTerminalMode creates a presenter with a fixed colour mode.
func NewTerminalMode(mode ColorMode) *Terminal {
	return &Terminal{mode: mode}
}

// Mode returns the colour mode in use.
func (t *Terminal) Mode() ColorMode { return t.mode }

// PixelSize returns the frame size that fills cols×rows text cells.
func (t *Terminal) PixelSize(cols, rows int) (int, int) {
	if t.mode == ColorOff {
		return cols, rows
	}
	return cols, rows * 2
}

// Render converts img to text. Pixels map one-to-one onto cells, so img
// should be sized with PixelSize.
func (t *Terminal) Render(img *image.RGBA) string {
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return ""
	}
	t.sb.Reset()
	t.sb.Grow(b.Dx() * b.Dy() * 24)
	if t.mode == ColorOff {
		t.renderASCII(img)
	} else {
		t.renderHalfBlock(img)
	}
	return t.sb.String()
}

func (t *Terminal) renderHalfBlock(img *image.RGBA) {
	b := img.Bounds()
	textRows := (b.Dy() + 1) / 2
	for row := 0; row < textRows; row++ {
		top := b.Min.Y + row*2
		bot := top + 1
		var lastFg, lastBg string
		for x := b.Min.X; x < b.Max.X; x++ {
			tr, tg, tb := rgbAt(img, x, top)
			var br, bg, bb uint8
			if bot < b.Max.Y {
				br, bg, bb = rgbAt(img, x, bot)
			}
			if fg := colorSeq(t.mode, layerFg, tr, tg, tb); fg != lastFg {
				t.sb.WriteString(fg)
				lastFg = fg
			}
			if bgc := colorSeq(t.mode, layerBg, br, bg, bb); bgc != lastBg {
				t.sb.WriteString(bgc)
				lastBg = bgc
			}
			t.sb.WriteString("▀")
		}
		t.sb.WriteString(ansiReset)
		if row < textRows-1 {
			t.sb.WriteByte('\n')
		}
	}
}

func (t *Terminal) renderASCII(img *image.RGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl := rgbAt(img, x, y)
			t.sb.WriteByte(brightnessChar(luma8(r, g, bl)))
		}
		if y < b.Max.Y-1 {
			t.sb.WriteByte('\n')
		}
	}
}

func rgbAt(img *image.RGBA, x, y int) (uint8, uint8, uint8) {
	off := img.PixOffset(x, y)
	return img.Pix[off], img.Pix[off+1], img.Pix[off+2]
}

// luma8 is BT.601 luma in integer math.
func luma8(r, g, b uint8) uint8 {
	return uint8((299*int(r) + 587*int(g) + 114*int(b)) / 1000)
}
