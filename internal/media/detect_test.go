package media

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestKindForExtDispatchesStillAndVideo(t *testing.T) {
	for _, ext := range []string{".png", ".JPG", ".jpeg", ".webp", ".tiff"} {
		kind, ok := KindForExt(ext)
		if !ok || kind != KindStill {
			t.Fatalf("expected %s to be a still image, got %v %v", ext, kind, ok)
		}
	}
	for _, ext := range []string{".mp4", ".MOV", ".webm"} {
		kind, ok := KindForExt(ext)
		if !ok || kind != KindVideo {
			t.Fatalf("expected %s to be a video, got %v %v", ext, kind, ok)
		}
	}
}

func TestIsSupportedExtRejectsAudio(t *testing.T) {
	for _, ext := range []string{".mp3", ".wav", ".txt", ""} {
		if IsSupportedExt(ext) {
			t.Fatalf("expected %q to be unsupported", ext)
		}
	}
}

func TestSupportedExtsListIncludesVideo(t *testing.T) {
	list := SupportedExtsList()
	for _, ext := range []string{".png", ".mp4", ".webm"} {
		if !strings.Contains(list, ext) {
			t.Fatalf("expected supported ext list to include %s, got %q", ext, list)
		}
	}
}

func TestParseStreamInfoPicksVideoStream(t *testing.T) {
	out := []byte(`{"streams":[{"codec_type":"audio"},{"codec_type":"video","width":1280,"height":720,"r_frame_rate":"30/1","avg_frame_rate":"24000/1001"}],"format":{"duration":"12.5"}}`)
	info, err := parseStreamInfo(out)
	if err != nil {
		t.Fatalf("parseStreamInfo: %v", err)
	}
	if info.Width != 1280 || info.Height != 720 {
		t.Fatalf("unexpected size %dx%d", info.Width, info.Height)
	}
	if info.FPS < 23.9 || info.FPS > 24 {
		t.Fatalf("expected ~23.976 fps, got %v", info.FPS)
	}
	if info.Duration != 12500*time.Millisecond {
		t.Fatalf("expected 12.5s, got %v", info.Duration)
	}
}

func TestParseStreamInfoFailureStages(t *testing.T) {
	cases := []struct {
		name string
		out  string
		want error
	}{
		{"audio only", `{"streams":[{"codec_type":"audio"}]}`, ErrDecode},
		{"garbage", `not json`, ErrDecode},
		{"zero size", `{"streams":[{"codec_type":"video","width":0,"height":0}]}`, ErrFrame},
	}
	for _, tc := range cases {
		_, err := parseStreamInfo([]byte(tc.out))
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestDecodeSizeCapsWidth(t *testing.T) {
	w, h := DecodeSize(1920, 1080)
	if w != 640 || h != 360 {
		t.Fatalf("expected 640x360, got %dx%d", w, h)
	}
	w, h = DecodeSize(321, 241)
	if w != 320 || h != 240 {
		t.Fatalf("expected even dimensions 320x240, got %dx%d", w, h)
	}
}
