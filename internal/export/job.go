// Package export builds a static vector rendition of the effect as a
// resumable job that the caller drives in small batches.
package export

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/olivier-w/osciline/internal/params"
	"github.com/olivier-w/osciline/internal/wave"
)

// Defaults for Options fields left at zero.
const (
	DefaultMaxRows   = 300
	DefaultSamples   = 300
	DefaultBatchRows = 8
	minStride        = 2
)

// ErrCancelled is returned by Result after Cancel.
var ErrCancelled = errors.New("export cancelled")

// Sampler is the brightness lookup the job reads. Implementations return a
// disruption in [0, 0.1].
type Sampler interface {
	Sample(u, v float64) (float64, error)
}

// Options bound the cost of one export.
type Options struct {
	Width  int
	Height int
	// MaxRows caps the exported line count regardless of the live setting.
	MaxRows int
	// Samples is the target number of x positions per line.
	Samples int
	// BatchRows is the most lines one Step processes.
	BatchRows int
}

func (o Options) withDefaults() Options {
	if o.MaxRows <= 0 {
		o.MaxRows = DefaultMaxRows
	}
	if o.Samples <= 0 {
		o.Samples = DefaultSamples
	}
	if o.BatchRows <= 0 {
		o.BatchRows = DefaultBatchRows
	}
	return o
}

// Snapshot freezes the parameters and clock at export start.
type Snapshot struct {
	Params params.Params
	Time   float64
}

// SampleError records a brightness lookup that failed during export. The
// point is still emitted with zero disruption.
type SampleError struct {
	Row int
	X   float64
	Err error
}

func (e *SampleError) Error() string {
	return fmt.Sprintf("export sample row %d x %.1f: %v", e.Row, e.X, e.Err)
}

func (e *SampleError) Unwrap() error { return e.Err }

// Job is an in-progress export. The zero value is not usable; see NewJob.
type Job struct {
	snap    Snapshot
	wave    wave.Params
	sampler Sampler
	opts    Options

	xs        []float64
	requested int
	exported  int
	spacing   float64

	paths     []Path
	next      int
	done      bool
	cancelled bool

	sampleFailures int
	firstFailure   *SampleError
	started        time.Time
	elapsed        time.Duration
}

// NewJob prepares an export of snap. sampler may be nil for no media.
func NewJob(snap Snapshot, sampler Sampler, opts Options) (*Job, error) {
	opts = opts.withDefaults()
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid export size %dx%d", opts.Width, opts.Height)
	}
	p := snap.Params.Clamp()
	snap.Params = p

	requested := p.RowCount()
	exported := min(requested, opts.MaxRows)

	// Unclamped lines sit at i/Rows like the live backends, so a fractional
	// Rows leaves the last line short of the bottom edge. A clamped export
	// spreads its lines over the full height instead.
	spacing := float64(opts.Height) / p.Rows
	if exported < requested {
		spacing = float64(opts.Height) / float64(exported)
	}

	stride := max(minStride, int(math.Ceil(float64(opts.Width)/float64(opts.Samples))))
	xs := make([]float64, 0, opts.Width/stride+1)
	for x := 0; x < opts.Width; x += stride {
		xs = append(xs, float64(x))
	}

	return &Job{
		snap:      snap,
		wave:      p.Wave(),
		sampler:   sampler,
		opts:      opts,
		xs:        xs,
		requested: requested,
		exported:  exported,
		spacing:   spacing,
		paths:     make([]Path, 0, exported),
	}, nil
}

// Requested is the live row count at snapshot time.
func (j *Job) Requested() int { return j.requested }

// Exported is the number of lines the document will contain.
func (j *Job) Exported() int { return j.exported }

// Clamped reports whether the row ceiling cut lines from the export.
func (j *Job) Clamped() bool { return j.exported < j.requested }

// Snapshot returns the frozen parameters and time.
func (j *Job) Snapshot() Snapshot { return j.snap }

// Progress is the fraction of lines completed, in [0,1].
func (j *Job) Progress() float64 {
	if j.exported == 0 {
		return 1
	}
	return float64(j.next) / float64(j.exported)
}

// Done reports whether the job finished or was cancelled.
func (j *Job) Done() bool { return j.done }

// Elapsed is the time spent inside Step so far.
func (j *Job) Elapsed() time.Duration { return j.elapsed }

// SampleFailures returns the number of failed lookups and the first one.
func (j *Job) SampleFailures() (int, *SampleError) {
	return j.sampleFailures, j.firstFailure
}

// Cancel stops the job; further Steps do nothing.
func (j *Job) Cancel() {
	j.cancelled = true
	j.done = true
}

// Step processes up to BatchRows lines, returning early once budget has
// elapsed (budget <= 0 means no time limit). At least one line is processed
// per call. It reports whether the job is finished.
func (j *Job) Step(budget time.Duration) bool {
	if j.done {
		return true
	}
	start := time.Now()
	if j.started.IsZero() {
		j.started = start
	}
	for n := 0; n < j.opts.BatchRows && j.next < j.exported; n++ {
		j.paths = append(j.paths, j.line(j.next))
		j.next++
		if budget > 0 && time.Since(start) >= budget {
			break
		}
	}
	j.elapsed += time.Since(start)
	if j.next >= j.exported {
		j.done = true
	}
	return j.done
}

// Run drives the job to completion without yielding.
func (j *Job) Run() (*Document, error) {
	for !j.Step(0) {
	}
	return j.Result()
}

func (j *Job) line(i int) Path {
	w := float64(j.opts.Width)
	h := float64(j.opts.Height)
	y := float64(i) * j.spacing
	v := y / h
	path := make(Path, len(j.xs))
	for k, x := range j.xs {
		u := x / w
		d := wave.Displacement(j.wave, u, i, j.snap.Time)
		path[k] = Point{X: x, Y: y + d*h + j.disruption(i, x, u, v)*h}
	}
	return path
}

func (j *Job) disruption(row int, x, u, v float64) float64 {
	if j.sampler == nil {
		return 0
	}
	d, err := j.sampler.Sample(u, v)
	if err != nil {
		j.sampleFailures++
		if j.firstFailure == nil {
			j.firstFailure = &SampleError{Row: row, X: x, Err: err}
		}
		return 0
	}
	return d
}

// Result returns the finished document. It fails with ErrCancelled after
// Cancel and with an error while the job is still running.
func (j *Job) Result() (*Document, error) {
	if j.cancelled {
		return nil, ErrCancelled
	}
	if !j.done {
		return nil, fmt.Errorf("export incomplete: %d of %d lines", j.next, j.exported)
	}
	p := j.snap.Params
	return &Document{
		Width:       j.opts.Width,
		Height:      j.opts.Height,
		Background:  p.Background,
		Stroke:      p.LineColor,
		StrokeWidth: math.Max(1, p.Weight),
		Paths:       j.paths,
		Requested:   j.requested,
	}, nil
}
