package raster

import (
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
)

// asciiRamp runs from darkest to brightest.
const asciiRamp = " .:-=+*#%@"

const ansiReset = "\x1b[0m"

// ColorMode describes how the terminal presenter emits colour.
type ColorMode uint8

const (
	ColorOff     ColorMode = iota // NO_COLOR or dumb terminal
	ColorANSI16                   // basic 16-color
	ColorANSI256                  // 256-color
	ColorTrue                     // 24-bit truecolor
)

var (
	detectOnce sync.Once
	termColor  ColorMode
)

// DetectColorMode inspects NO_COLOR, COLORTERM and TERM once per process.
func DetectColorMode() ColorMode {
	detectOnce.Do(func() {
		termColor = colorModeFromEnv(os.LookupEnv)
	})
	return termColor
}

func colorModeFromEnv(lookup func(string) (string, bool)) ColorMode {
	if _, ok := lookup("NO_COLOR"); ok {
		return ColorOff
	}
	term, _ := lookup("TERM")
	ct, _ := lookup("COLORTERM")
	term = strings.ToLower(term)
	ct = strings.ToLower(ct)
	switch {
	case strings.Contains(ct, "truecolor"), strings.Contains(ct, "24bit"):
		return ColorTrue
	case strings.Contains(term, "256color"):
		return ColorANSI256
	case term == "dumb":
		return ColorOff
	case term == "" && runtime.GOOS == "windows":
		return ColorANSI16
	case term == "":
		return ColorOff
	}
	return ColorANSI16
}

// layer selects foreground (38/30) or background (48/40) sequences.
type layer uint8

const (
	layerFg layer = iota
	layerBg
)

// colorSeq returns the escape sequence selecting r, g, b on the given layer.
func colorSeq(mode ColorMode, l layer, r, g, b uint8) string {
	var sb strings.Builder
	switch mode {
	case ColorTrue:
		sb.WriteString("\x1b[")
		sb.WriteString(pick(l, "38;2;", "48;2;"))
		sb.WriteString(strconv.Itoa(int(r)))
		sb.WriteByte(';')
		sb.WriteString(strconv.Itoa(int(g)))
		sb.WriteByte(';')
		sb.WriteString(strconv.Itoa(int(b)))
		sb.WriteByte('m')
	case ColorANSI256:
		idx := 16 + 36*(int(r)*5/255) + 6*(int(g)*5/255) + int(b)*5/255
		sb.WriteString("\x1b[")
		sb.WriteString(pick(l, "38;5;", "48;5;"))
		sb.WriteString(strconv.Itoa(idx))
		sb.WriteByte('m')
	case ColorANSI16:
		n := nearestANSI16(r, g, b)
		base := 30
		if l == layerBg {
			base = 40
		}
		if n >= 8 {
			base += 60
			n -= 8
		}
		sb.WriteString("\x1b[")
		sb.WriteString(strconv.Itoa(base + n))
		sb.WriteByte('m')
	}
	return sb.String()
}

func pick(l layer, fg, bg string) string {
	if l == layerBg {
		return bg
	}
	return fg
}

func nearestANSI16(r, g, b uint8) int {
	best, bestDist := 0, 1<<31-1
	for i, c := range ansi16Palette {
		dr := int(r) - int(c[0])
		dg := int(g) - int(c[1])
		db := int(b) - int(c[2])
		if d := dr*dr + dg*dg + db*db; d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

var ansi16Palette = [16][3]uint8{
	{0, 0, 0}, {205, 49, 49}, {13, 188, 121}, {229, 229, 16},
	{36, 114, 200}, {188, 63, 188}, {17, 168, 205}, {229, 229, 229},
	{102, 102, 102}, {241, 76, 76}, {35, 209, 139}, {245, 245, 67},
	{59, 142, 234}, {214, 112, 214}, {41, 184, 219}, {255, 255, 255},
}

func brightnessChar(lum uint8) byte {
	return asciiRamp[int(lum)*(len(asciiRamp)-1)/255]
}
