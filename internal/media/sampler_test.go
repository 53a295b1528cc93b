package media

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// fakeProvider presents one solid frame per timestamp.
type fakeProvider struct {
	w, h   int
	ts     time.Duration
	shade  uint8
	closed bool
}

func (p *fakeProvider) Size() (int, int)         { return p.w, p.h }
func (p *fakeProvider) Timestamp() time.Duration { return p.ts }

func (p *fakeProvider) Latest(dst []byte) (time.Duration, bool) {
	if p.ts < 0 {
		return 0, false
	}
	for i := range dst {
		dst[i] = p.shade
	}
	return p.ts, true
}

func (p *fakeProvider) Close() error {
	p.closed = true
	return nil
}

func (p *fakeProvider) present(ts time.Duration, shade uint8) {
	p.ts = ts
	p.shade = shade
}

type failingSource struct{ *Still }

func (failingSource) Decode() (*Frame, error) { return nil, errors.New("corrupt") }

func TestDisruptionZeroWhenUnbound(t *testing.T) {
	s := NewSampler(nil)
	require.Zero(t, s.Disruption(0.5, 0.5))
	d, err := s.Sample(0.1, 0.9)
	require.NoError(t, err)
	require.Zero(t, d)
}

func TestDisruptionRangeForBoundStill(t *testing.T) {
	s := NewSampler(nil)
	s.Bind(NewStill("white.png", solidImage(8, 8, color.RGBA{255, 255, 255, 255})))
	for u := 0.0; u <= 1; u += 0.125 {
		for v := 0.0; v <= 1; v += 0.125 {
			d := s.Disruption(u, v)
			require.GreaterOrEqual(t, d, 0.0)
			require.LessOrEqual(t, d, DisruptionScale)
			require.InDelta(t, DisruptionScale, d, 1e-9)
		}
	}

	s.Bind(NewStill("black.png", solidImage(8, 8, color.RGBA{0, 0, 0, 255})))
	require.Zero(t, s.Disruption(0.5, 0.5))
}

func TestDisruptionUsesNearestPixelLuminance(t *testing.T) {
	img := solidImage(2, 1, color.RGBA{0, 0, 0, 255})
	img.SetRGBA(1, 0, color.RGBA{255, 0, 0, 255})
	s := NewSampler(nil)
	s.Bind(NewStill("split.png", img))

	require.Zero(t, s.Disruption(0.49, 0.5))
	require.InDelta(t, 0.299*DisruptionScale, s.Disruption(0.5, 0.5), 1e-9)
	require.InDelta(t, 0.299*DisruptionScale, s.Disruption(1, 1), 1e-9)
}

func TestOutOfRangeSampleIsNonFatal(t *testing.T) {
	s := NewSampler(nil)
	s.Bind(NewStill("white.png", solidImage(4, 4, color.RGBA{255, 255, 255, 255})))

	_, err := s.Sample(1.5, 0.5)
	require.ErrorIs(t, err, ErrOutOfRange)
	require.Zero(t, s.Disruption(-0.1, 0.5))
}

func TestDecodeFailureReturnsZero(t *testing.T) {
	s := NewSampler(nil)
	s.Bind(failingSource{NewStill("bad.png", solidImage(1, 1, color.RGBA{}))})
	_, err := s.Sample(0.5, 0.5)
	require.Error(t, err)
	require.Zero(t, s.Disruption(0.5, 0.5))
	require.Equal(t, 2, s.Stats().Errors)
}

func TestStillDecodedOnceForManyLookups(t *testing.T) {
	s := NewSampler(nil)
	s.Bind(NewStill("grey.png", solidImage(16, 16, color.RGBA{128, 128, 128, 255})))
	for i := 0; i < 500; i++ {
		s.Disruption(float64(i%16)/16, 0.5)
	}
	require.Equal(t, 1, s.Stats().Decodes)
	require.Equal(t, 499, s.Stats().Hits)
}

func TestRebindInvalidatesCache(t *testing.T) {
	s := NewSampler(nil)
	first := NewStill("a.png", solidImage(4, 4, color.RGBA{255, 255, 255, 255}))
	s.Bind(first)
	s.Disruption(0.5, 0.5)
	require.True(t, s.Cached(first.Key()))

	s.Bind(nil)
	require.False(t, s.Cached(first.Key()))

	second := NewStill("b.png", solidImage(4, 4, color.RGBA{0, 0, 0, 255}))
	s.Bind(second)
	require.False(t, s.Cached(first.Key()))
	require.Zero(t, s.Disruption(0.5, 0.5))
	require.True(t, s.Cached(second.Key()))
	require.False(t, s.Cached(first.Key()))
}

func TestVideoTimestampAdvanceRedecodes(t *testing.T) {
	p := &fakeProvider{w: 4, h: 4}
	p.present(0, 0)
	v := NewVideo("clip.mp4", p)

	s := NewSampler(nil)
	s.Bind(v)
	require.Zero(t, s.Disruption(0.5, 0.5))
	require.Zero(t, s.Disruption(0.5, 0.5))
	require.Equal(t, 1, s.Stats().Decodes)

	p.present(66*time.Millisecond, 255)
	require.InDelta(t, DisruptionScale, s.Disruption(0.5, 0.5), 1e-9)
	require.Equal(t, 2, s.Stats().Decodes)
}

func TestPinFreezesVideoFrame(t *testing.T) {
	p := &fakeProvider{w: 4, h: 4}
	p.present(0, 255)
	s := NewSampler(nil)
	s.Bind(NewVideo("clip.mp4", p))

	frame, err := s.Pin()
	require.NoError(t, err)
	require.NotNil(t, frame)

	p.present(time.Second, 0)
	require.InDelta(t, DisruptionScale, s.Disruption(0.5, 0.5), 1e-9)

	s.Unpin()
	require.Zero(t, s.Disruption(0.5, 0.5))
}

func TestVideoWithoutFrameIsNonFatal(t *testing.T) {
	p := &fakeProvider{w: 4, h: 4, ts: -1}
	s := NewSampler(nil)
	s.Bind(NewVideo("clip.mp4", p))
	require.Zero(t, s.Disruption(0.5, 0.5))
}

func TestLoadStillFromPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "white.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, solidImage(3, 2, color.RGBA{255, 255, 255, 255})))
	require.NoError(t, f.Close())

	src, err := Open(path)
	require.NoError(t, err)
	require.Equal(t, KindStill, src.Kind())
	w, h := src.Size()
	require.Equal(t, 3, w)
	require.Equal(t, 2, h)

	frame, err := src.Decode()
	require.NoError(t, err)
	require.Len(t, frame.Pix, 3*2*3)
}

func TestOpenRejectsUnsupportedType(t *testing.T) {
	_, err := Open("notes.txt")
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestLoadStillCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.png")
	require.NoError(t, os.WriteFile(path, []byte("not a png"), 0o644))
	_, err := LoadStill(path)
	require.ErrorIs(t, err, ErrDecode)
}

func TestLoadStillMissingFile(t *testing.T) {
	_, err := LoadStill(filepath.Join(t.TempDir(), "missing.png"))
	require.ErrorIs(t, err, ErrOpen)
	require.NotErrorIs(t, err, ErrDecode)
}
