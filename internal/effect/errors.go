package effect

import (
	"errors"
	"fmt"

	"github.com/olivier-w/osciline/internal/export"
	"github.com/olivier-w/osciline/internal/media"
)

var (
	// ErrBusy is returned when an operation is refused in the current state.
	ErrBusy = errors.New("controller busy")
	// ErrNoMedia is returned when an operation needs bound media.
	ErrNoMedia = errors.New("no media bound")
	// ErrStale marks a result for a bind or export that was superseded.
	ErrStale = errors.New("stale result discarded")
	// ErrExportCancelled is reported for an export that was cancelled.
	ErrExportCancelled = export.ErrCancelled
)

// Stages of media loading reported in MediaDecodeError.
const (
	StageOpen   = "open"
	StageDecode = "decode"
	StageFrame  = "frame"
)

// loadStage maps a media failure to the stage that produced it. Errors
// that carry no stage count as decode failures.
func loadStage(err error) string {
	switch {
	case errors.Is(err, media.ErrOpen):
		return StageOpen
	case errors.Is(err, media.ErrFrame):
		return StageFrame
	}
	return StageDecode
}

// MediaDecodeError reports a failure to load or decode a source.
type MediaDecodeError struct {
	Path  string
	Stage string
	Err   error
}

func (e *MediaDecodeError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Path, e.Err)
}

func (e *MediaDecodeError) Unwrap() error { return e.Err }

// UnsupportedMediaTypeError reports a file whose type cannot be bound.
type UnsupportedMediaTypeError struct {
	Path string
	Ext  string
}

func (e *UnsupportedMediaTypeError) Error() string {
	if e.Ext == "" {
		return fmt.Sprintf("unsupported media type: %s", e.Path)
	}
	return fmt.Sprintf("unsupported media type %q: %s", e.Ext, e.Path)
}

// DetectionServiceError reports a failed detection call.
type DetectionServiceError struct {
	Err error
}

func (e *DetectionServiceError) Error() string {
	return fmt.Sprintf("detection service: %v", e.Err)
}

func (e *DetectionServiceError) Unwrap() error { return e.Err }

// ExportSampleError reports a point that was exported with zero disruption
// because the brightness lookup failed.
type ExportSampleError = export.SampleError

// ExportIOError reports a failure to hand an export to the save sink.
type ExportIOError struct {
	Path string
	Err  error
}

func (e *ExportIOError) Error() string {
	return fmt.Sprintf("saving export %s: %v", e.Path, e.Err)
}

func (e *ExportIOError) Unwrap() error { return e.Err }
