package record

import (
	"bytes"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/require"
)

type bufCloser struct {
	bytes.Buffer
	closed bool
}

func (b *bufCloser) Close() error {
	b.closed = true
	return nil
}

func TestRecorderStreamsFrames(t *testing.T) {
	pipe := &bufCloser{}
	waited := false
	r, err := New(pipe, func() error { waited = true; return nil }, "out.mp4", 4, 4)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, r.WriteFrame(image.NewRGBA(image.Rect(0, 0, 8, 8))))
	}
	require.Equal(t, 3, r.Frames())
	require.Equal(t, 3*4*4*3, pipe.Len())

	require.NoError(t, r.Close())
	require.True(t, pipe.closed)
	require.True(t, waited)
	require.NoError(t, r.Close())
	require.Error(t, r.WriteFrame(image.NewRGBA(image.Rect(0, 0, 4, 4))))
}

func TestRecorderReportsEncoderFailure(t *testing.T) {
	r, err := New(&bufCloser{}, func() error { return errors.New("exit status 1") }, "out.mp4", 2, 2)
	require.NoError(t, err)
	require.Error(t, r.Close())
}

func TestEncoderArgs(t *testing.T) {
	args := encoderArgs("clip.mp4", 640, 360, 30)
	require.Contains(t, args, "640x360")
	require.Equal(t, "clip.mp4", args[len(args)-1])
	require.Contains(t, args, "pipe:0")
}

func TestNewRejectsBadSize(t *testing.T) {
	_, err := New(&bufCloser{}, nil, "x.mp4", 0, 10)
	require.Error(t, err)
}
