package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const streamInfoTimeout = 10 * time.Second

// streamInfo is the geometry OpenVideo needs before it can size the decode.
type streamInfo struct {
	Width, Height int
	FPS           float64
	Duration      time.Duration
}

type ffprobeStreams struct {
	Streams []struct {
		CodecType    string `json:"codec_type"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		RFrameRate   string `json:"r_frame_rate"`
		AvgFrameRate string `json:"avg_frame_rate"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// readStreamInfo asks ffprobe for the first video stream of path. A missing
// binary or unreadable file is ErrOpen; output without a usable video
// stream is ErrDecode.
func readStreamInfo(ctx context.Context, path string) (streamInfo, error) {
	bin, err := exec.LookPath("ffprobe")
	if err != nil {
		return streamInfo{}, fmt.Errorf("%w: ffprobe is required for video sources", ErrOpen)
	}

	ctx, cancel := context.WithTimeout(ctx, streamInfoTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, bin,
		"-v", "quiet",
		"-print_format", "json",
		"-select_streams", "v:0",
		"-show_streams",
		"-show_format",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return streamInfo{}, fmt.Errorf("%w: ffprobe: %w", ErrOpen, err)
	}
	return parseStreamInfo(out)
}

func parseStreamInfo(out []byte) (streamInfo, error) {
	var res ffprobeStreams
	if err := json.Unmarshal(out, &res); err != nil {
		return streamInfo{}, fmt.Errorf("%w: stream listing: %w", ErrDecode, err)
	}

	var info streamInfo
	if secs, err := strconv.ParseFloat(res.Format.Duration, 64); err == nil {
		info.Duration = time.Duration(secs * float64(time.Second))
	}
	for _, s := range res.Streams {
		if s.CodecType != "video" {
			continue
		}
		if s.Width <= 0 || s.Height <= 0 {
			return streamInfo{}, fmt.Errorf("%w: video stream is %dx%d", ErrFrame, s.Width, s.Height)
		}
		info.Width, info.Height = s.Width, s.Height
		info.FPS = frameRate(s.AvgFrameRate)
		if info.FPS <= 0 {
			info.FPS = frameRate(s.RFrameRate)
		}
		if info.FPS <= 0 {
			info.FPS = defaultFPS
		}
		return info, nil
	}
	return streamInfo{}, fmt.Errorf("%w: no video stream", ErrDecode)
}

// frameRate reads ffprobe rates such as "30/1", "24000/1001" or "25".
func frameRate(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		f, _ := strconv.ParseFloat(s, 64)
		return f
	}
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}
