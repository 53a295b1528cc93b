package detect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os/exec"
	"strings"
	"time"
)

// Service finds objects in a frame. Implementations may block; callers run
// them off the render loop.
type Service interface {
	Detect(ctx context.Context, img image.Image) ([]Detection, error)
}

// NopService never finds anything.
type NopService struct{}

func (NopService) Detect(context.Context, image.Image) ([]Detection, error) { return nil, nil }

// CommandService runs an external detector once per frame. The frame is
// written to its stdin as PNG and a JSON array of
// {"bbox":[x,y,w,h],"class":...,"score":...} is read from stdout.
type CommandService struct {
	Path    string
	Args    []string
	Timeout time.Duration
}

// NewCommandService splits a command line on whitespace.
func NewCommandService(command string, timeout time.Duration) (*CommandService, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty detector command")
	}
	return &CommandService{Path: fields[0], Args: fields[1:], Timeout: timeout}, nil
}

func (s *CommandService) Detect(ctx context.Context, img image.Image) ([]Detection, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	var in bytes.Buffer
	if err := png.Encode(&in, img); err != nil {
		return nil, fmt.Errorf("encoding frame for detector: %w", err)
	}

	cmd := exec.CommandContext(ctx, s.Path, s.Args...)
	cmd.Stdin = &in
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("detector %s: %w: %s", s.Path, err, msg)
		}
		return nil, fmt.Errorf("detector %s: %w", s.Path, err)
	}
	return ParseDetections(out)
}

// ParseDetections decodes a detector's JSON output. Empty output means no
// detections.
func ParseDetections(data []byte) ([]Detection, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	var out []Detection
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parsing detector output: %w", err)
	}
	return out, nil
}
