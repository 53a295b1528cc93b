package export

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"math"
	"strings"
	"testing"

	"github.com/olivier-w/osciline/internal/params"
	"github.com/olivier-w/osciline/internal/wave"
	"github.com/stretchr/testify/require"
)

type constSampler float64

func (c constSampler) Sample(u, v float64) (float64, error) { return float64(c), nil }

type flakySampler struct{ calls int }

func (f *flakySampler) Sample(u, v float64) (float64, error) {
	f.calls++
	if f.calls%2 == 0 {
		return 0, errors.New("pixel read failed")
	}
	return 0.1, nil
}

func snapshot(rows float64) Snapshot {
	p := params.Defaults()
	p.Rows = rows
	return Snapshot{Params: p}
}

func TestExportRowCountBelowCeiling(t *testing.T) {
	job, err := NewJob(snapshot(120), nil, Options{Width: 200, Height: 100})
	require.NoError(t, err)
	doc, err := job.Run()
	require.NoError(t, err)
	require.Len(t, doc.Paths, 120)
	require.False(t, doc.Clamped())
	require.False(t, job.Clamped())
}

func TestExportRowCountClampedAndReported(t *testing.T) {
	job, err := NewJob(snapshot(750), nil, Options{Width: 200, Height: 100})
	require.NoError(t, err)
	require.Equal(t, 750, job.Requested())
	require.Equal(t, DefaultMaxRows, job.Exported())
	require.True(t, job.Clamped())

	doc, err := job.Run()
	require.NoError(t, err)
	require.Len(t, doc.Paths, DefaultMaxRows)
	require.True(t, doc.Clamped())
	require.Equal(t, 750, doc.Requested)
}

func TestExportFlatLinesWithoutMedia(t *testing.T) {
	snap := snapshot(10)
	snap.Params.Amplitude = 0
	snap.Params.Desync = 0
	snap.Time = 12.5
	job, err := NewJob(snap, nil, Options{Width: 300, Height: 200})
	require.NoError(t, err)
	doc, err := job.Run()
	require.NoError(t, err)

	require.Len(t, doc.Paths, 10)
	for i, path := range doc.Paths {
		want := float64(i) / 10 * 200
		require.NotEmpty(t, path)
		for _, pt := range path {
			require.InDelta(t, want, pt.Y, 1e-9, "line %d", i)
		}
	}
}

func TestExportMatchesWaveDisplacement(t *testing.T) {
	snap := snapshot(4)
	snap.Params.Amplitude = 0.4
	snap.Params.Frequency = 12
	snap.Params.Complexity = 5
	snap.Params.Desync = 0.6
	snap.Time = 3.2
	job, err := NewJob(snap, constSampler(0.05), Options{Width: 100, Height: 50})
	require.NoError(t, err)
	doc, err := job.Run()
	require.NoError(t, err)

	for i, path := range doc.Paths {
		lineY := float64(i) * 50 / 4
		for _, pt := range path {
			d := wave.Displacement(snap.Params.Wave(), pt.X/100, i, snap.Time)
			require.InDelta(t, lineY+d*50+0.05*50, pt.Y, 1e-9)
		}
	}
}

func TestExportSampleStrideIsBounded(t *testing.T) {
	job, err := NewJob(snapshot(1), nil, Options{Width: 3000, Height: 10, Samples: 300})
	require.NoError(t, err)
	doc, err := job.Run()
	require.NoError(t, err)
	require.LessOrEqual(t, len(doc.Paths[0]), 300)
	require.Equal(t, 0.0, doc.Paths[0][0].X)

	job, err = NewJob(snapshot(1), nil, Options{Width: 100, Height: 10})
	require.NoError(t, err)
	doc, err = job.Run()
	require.NoError(t, err)
	require.Len(t, doc.Paths[0], 50)
	require.Equal(t, 2.0, doc.Paths[0][1].X)
}

func TestExportStepYieldsProgress(t *testing.T) {
	job, err := NewJob(snapshot(20), nil, Options{Width: 50, Height: 50, BatchRows: 5})
	require.NoError(t, err)

	require.Zero(t, job.Progress())
	require.False(t, job.Step(0))
	require.InDelta(t, 0.25, job.Progress(), 1e-9)

	_, err = job.Result()
	require.Error(t, err)

	steps := 1
	for !job.Step(0) {
		steps++
	}
	require.Equal(t, 4, steps)
	require.Equal(t, 1.0, job.Progress())
	require.True(t, job.Done())
}

func TestExportCancel(t *testing.T) {
	job, err := NewJob(snapshot(20), nil, Options{Width: 50, Height: 50, BatchRows: 2})
	require.NoError(t, err)
	job.Step(0)
	job.Cancel()
	require.True(t, job.Done())
	require.True(t, job.Step(0))
	_, err = job.Result()
	require.ErrorIs(t, err, ErrCancelled)
}

func TestExportSampleFailuresDegradeToZero(t *testing.T) {
	snap := snapshot(2)
	snap.Params.Amplitude = 0
	s := &flakySampler{}
	job, err := NewJob(snap, s, Options{Width: 10, Height: 10})
	require.NoError(t, err)
	doc, err := job.Run()
	require.NoError(t, err)

	n, first := job.SampleFailures()
	require.Equal(t, 5, n)
	require.NotNil(t, first)
	require.Equal(t, 0, first.Row)
	require.Equal(t, 2.0, first.X)
	require.Contains(t, first.Error(), "pixel read failed")

	require.InDelta(t, 1.0, doc.Paths[0][0].Y, 1e-9)
	require.InDelta(t, 0.0, doc.Paths[0][1].Y, 1e-9)
}

func TestExportSnapshotIsolatedFromLaterChanges(t *testing.T) {
	snap := snapshot(5)
	job, err := NewJob(snap, nil, Options{Width: 20, Height: 20})
	require.NoError(t, err)
	snap.Params.Rows = 50
	doc, err := job.Run()
	require.NoError(t, err)
	require.Len(t, doc.Paths, 5)
}

func TestNewJobRejectsEmptySize(t *testing.T) {
	_, err := NewJob(snapshot(5), nil, Options{Width: 0, Height: 20})
	require.Error(t, err)
}

func TestWriteSVG(t *testing.T) {
	doc := &Document{
		Width:       4,
		Height:      2,
		Background:  params.RGB{0, 0, 0},
		Stroke:      params.RGB{0, 1, 0.2},
		StrokeWidth: math.Max(1, 0.5),
		Paths:       []Path{{{0, 0}, {2, 0.3}}, {}},
		Requested:   2,
	}
	out, err := doc.SVG()
	require.NoError(t, err)
	svg := string(out)

	require.True(t, strings.HasPrefix(svg, `<svg xmlns="http://www.w3.org/2000/svg" width="4" height="2" viewBox="0 0 4 2">`))
	require.Contains(t, svg, `<rect width="100%" height="100%" fill="#000000"/>`)
	require.Contains(t, svg, `stroke="#00ff33" stroke-width="1.0"`)
	require.Contains(t, svg, `<path d="M 0.0,0.0 L 2.0,0.3"/>`)
	require.Equal(t, 1, strings.Count(svg, "<path"))
	require.True(t, strings.HasSuffix(svg, "</svg>\n"))
}

func TestEncodePNG(t *testing.T) {
	data, err := EncodePNG(image.NewRGBA(image.Rect(0, 0, 3, 2)))
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 3, img.Bounds().Dx())
}

func TestRasterizeStrokesPaths(t *testing.T) {
	doc := &Document{
		Width:       40,
		Height:      20,
		Background:  params.RGB{0, 0, 0},
		Stroke:      params.RGB{1, 1, 1},
		StrokeWidth: 2,
		Paths:       []Path{{{0, 10}, {40, 10}}, {}},
	}
	img := doc.Rasterize()
	require.Equal(t, image.Rect(0, 0, 40, 20), img.Bounds())

	r, _, _, _ := img.At(20, 10).RGBA()
	require.Greater(t, r, uint32(0xc000))
	r, _, _, _ = img.At(20, 2).RGBA()
	require.Zero(t, r)
}
