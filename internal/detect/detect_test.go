package detect

import (
	"context"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewSetClampsAndTruncates(t *testing.T) {
	boxes := make([]Box, Capacity+10)
	boxes[0] = Box{X: -0.5, Y: 0.5, W: 2, H: 0.25}
	s := NewSet(boxes)
	require.Equal(t, Capacity, s.Len())
	require.Equal(t, 10, s.Dropped())
	require.Equal(t, Box{X: 0, Y: 0.5, W: 1, H: 0.25}, s.Boxes()[0])
}

func TestNormalize(t *testing.T) {
	raw := []Detection{
		{BBox: [4]float64{10, 20, 50, 40}, Class: "person", Score: 0.9},
		{BBox: [4]float64{0, 0, 10, 10}, Class: "cat", Score: 0.1},
	}
	s := Normalize(raw, 100, 80, 0.5)
	require.Equal(t, 1, s.Len())
	b := s.Boxes()[0]
	require.InDelta(t, 0.1, b.X, 1e-9)
	require.InDelta(t, 0.25, b.Y, 1e-9)
	require.InDelta(t, 0.5, b.W, 1e-9)
	require.InDelta(t, 0.5, b.H, 1e-9)

	require.Zero(t, Normalize(raw, 0, 80, 0).Len())
}

func TestTexturePacking(t *testing.T) {
	s := NewSet([]Box{{X: 0.1, Y: 0.2, W: 0.3, H: 0.4}})
	tex := s.Texture()
	require.Len(t, tex, Capacity*4)
	require.Equal(t, []float32{0.1, 0.2, 0.3, 0.4}, tex[:4])
	require.Zero(t, tex[4])

	b8 := s.TextureRGBA8()
	require.Len(t, b8, Capacity*4)
	require.Equal(t, uint8(26), b8[0])
}

func TestParseDetections(t *testing.T) {
	got, err := ParseDetections([]byte(`[{"bbox":[1,2,3,4],"class":"dog","score":0.75}]`))
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, [4]float64{1, 2, 3, 4}, got[0].BBox)
	require.Equal(t, "dog", got[0].Class)

	got, err = ParseDetections([]byte("  \n"))
	require.NoError(t, err)
	require.Empty(t, got)

	_, err = ParseDetections([]byte("{"))
	require.Error(t, err)
}

func TestNewCommandService(t *testing.T) {
	s, err := NewCommandService("detector --model coco", time.Second)
	require.NoError(t, err)
	require.Equal(t, "detector", s.Path)
	require.Equal(t, []string{"--model", "coco"}, s.Args)

	_, err = NewCommandService("   ", 0)
	require.Error(t, err)
}

func TestCommandServiceRunsDetector(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	script := filepath.Join(t.TempDir(), "detector.sh")
	body := "#!/bin/sh\ncat >/dev/null\necho '[{\"bbox\":[0,0,2,2],\"class\":\"x\",\"score\":1}]'\n"
	require.NoError(t, os.WriteFile(script, []byte(body), 0o755))

	svc := &CommandService{Path: sh, Args: []string{script}, Timeout: 5 * time.Second}
	got, err := svc.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 4, 4)))
	require.NoError(t, err)
	require.Len(t, got, 1)

	svc = &CommandService{Path: filepath.Join(t.TempDir(), "missing")}
	_, err = svc.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 1, 1)))
	require.Error(t, err)
}

func TestNopService(t *testing.T) {
	got, err := NopService{}.Detect(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, got)
}
