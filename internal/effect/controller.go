// Package effect owns the live parameter state and sequences media binding,
// live rendering, detection and export.
package effect

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/olivier-w/osciline/internal/detect"
	"github.com/olivier-w/osciline/internal/export"
	"github.com/olivier-w/osciline/internal/media"
	"github.com/olivier-w/osciline/internal/params"
	"github.com/olivier-w/osciline/internal/raster"
)

// FrameStep is how far the animation clock advances per frame.
const FrameStep = 0.016

// Sink receives finished exports. Save returns the location written.
type Sink interface {
	Save(name string, data []byte) (string, error)
}

// Options configure a Controller.
type Options struct {
	Logger *slog.Logger
	Export export.Options
	// Sink receives the SVG and PNG of each export; nil keeps them in memory.
	Sink Sink
	// MinScore drops weaker detections.
	MinScore float64
}

// ExportResult describes a finished export.
type ExportResult struct {
	Document       *export.Document
	SVG            []byte
	PNG            []byte
	SVGPath        string
	PNGPath        string
	Requested      int
	Exported       int
	SampleFailures int
	Elapsed        time.Duration
}

// Clamped reports whether the row ceiling cut lines.
func (r *ExportResult) Clamped() bool { return r.Exported < r.Requested }

// ExportEvent reports the outcome of one StepExport call.
type ExportEvent struct {
	Seq      uint64
	Progress float64
	Done     bool
	Result   *ExportResult
	Err      error
}

// Controller is the effect state machine. It is driven from a single loop
// and is not safe for concurrent use; blocking work (decoding, detection)
// runs elsewhere and reports back through CompleteBind and ApplyDetections.
type Controller struct {
	logger *slog.Logger
	opts   Options

	params params.Params
	state  State
	time   float64

	src     media.Source
	sampler *media.Sampler

	renderer raster.Renderer
	tex      *media.Frame
	last     *image.RGBA

	bindGen     uint64
	bindPath    string
	bindReturns State

	job          *export.Job
	exportSeq    uint64
	exportReturn State
	exportPNG    []byte

	detections detect.Set
}

// New returns an Idle controller with default parameters.
func New(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		logger:  logger,
		opts:    opts,
		params:  params.Defaults(),
		sampler: media.NewSampler(logger),
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State { return c.state }

// Params returns the live parameters.
func (c *Controller) Params() params.Params { return c.params }

// SetParams replaces the live parameters. Values are clamped; the aspect
// ratio always follows the bound media. Accepted in every state.
func (c *Controller) SetParams(p params.Params) {
	p.Aspect = c.params.Aspect
	c.params = p.Clamp()
}

// Update applies f to the live parameters.
func (c *Controller) Update(f func(params.Params) params.Params) {
	c.SetParams(f(c.params))
}

// Time returns the animation clock.
func (c *Controller) Time() float64 { return c.time }

// Advance steps the animation clock by one frame.
func (c *Controller) Advance() { c.time += FrameStep }

// Source returns the bound media, if any.
func (c *Controller) Source() media.Source { return c.src }

// Sampler exposes the brightness cache for inspection.
func (c *Controller) Sampler() *media.Sampler { return c.sampler }

// BeginBind starts binding the media at path and returns the generation to
// pass to CompleteBind. Unsupported types are rejected without a state
// change. An in-flight export or load is superseded.
func (c *Controller) BeginBind(path string) (uint64, error) {
	if _, ok := media.KindForPath(path); !ok {
		err := &UnsupportedMediaTypeError{Path: path, Ext: strings.ToLower(filepath.Ext(path))}
		c.logger.Warn("media rejected", "path", path, "error", err)
		return 0, err
	}
	if c.state == Exporting {
		c.abortExport("media rebind")
	}
	if c.state != MediaLoading {
		c.bindReturns = c.state
	}
	c.bindGen++
	c.bindPath = path
	c.state = MediaLoading
	c.logger.Info("media loading", "path", path, "gen", c.bindGen)
	return c.bindGen, nil
}

// CompleteBind delivers the result of loading generation gen. Results for a
// superseded generation are closed and discarded with ErrStale. On failure
// the prior media, if any, stays bound.
func (c *Controller) CompleteBind(gen uint64, src media.Source, err error) error {
	if c.state != MediaLoading || gen != c.bindGen {
		if src != nil {
			src.Close()
		}
		c.logger.Debug("stale media result discarded", "gen", gen, "current", c.bindGen)
		return ErrStale
	}
	if err == nil && src == nil {
		err = ErrNoMedia
	}
	if err != nil {
		var mde *MediaDecodeError
		if !errors.As(err, &mde) {
			err = &MediaDecodeError{Path: c.bindPath, Stage: loadStage(err), Err: err}
		}
		c.state = c.bindReturns
		if c.src == nil {
			c.state = Idle
		}
		c.logger.Error("media load failed", "path", c.bindPath, "error", err)
		return err
	}

	c.closeSource()
	c.src = src
	c.sampler.Bind(src)
	c.tex = nil
	c.detections = detect.Set{}
	w, h := src.Size()
	c.params.Aspect = params.AspectOf(w, h)
	c.state = Ready
	c.logger.Info("media bound", "path", src.Path(), "kind", src.Kind(), "width", w, "height", h)
	return nil
}

// Unbind drops the bound media and returns to Idle.
func (c *Controller) Unbind() {
	if c.state == Exporting {
		c.abortExport("media unbound")
	}
	c.bindGen++
	c.closeSource()
	c.state = Idle
}

func (c *Controller) closeSource() {
	if c.src == nil {
		return
	}
	if err := c.src.Close(); err != nil {
		c.logger.Warn("closing media", "path", c.src.Path(), "error", err)
	}
	c.src = nil
	c.sampler.Bind(nil)
	c.tex = nil
	c.params.Aspect = 0
	c.detections = detect.Set{}
}

// RenderFrame composites the live effect into dst. The raster texture is
// refreshed from the source whenever the presented frame changes; decode
// failures keep the previous texture. It never fails.
func (c *Controller) RenderFrame(dst *image.RGBA) {
	c.refreshTexture()
	c.renderer.Render(dst, c.params, c.time, c.tex)
	c.last = dst
}

func (c *Controller) refreshTexture() {
	if c.src == nil {
		return
	}
	if c.tex != nil && c.tex.Key == c.src.Key() {
		return
	}
	frame, err := c.src.Decode()
	if err != nil {
		c.logger.Debug("texture refresh failed", "path", c.src.Path(), "stage", loadStage(err), "error", err)
		return
	}
	c.tex = frame
}

// Texture returns the source frame the live backends sample, refreshing it
// when the source has presented a new frame. It is nil with nothing bound.
func (c *Controller) Texture() *media.Frame {
	c.refreshTexture()
	return c.tex
}

// RecordFrame marks img as the latest composited frame for backends that
// render elsewhere.
func (c *Controller) RecordFrame(img *image.RGBA) { c.last = img }

// LastFrame returns the most recently composited frame, or nil.
func (c *Controller) LastFrame() *image.RGBA { return c.last }

// StartExport snapshots the parameters and clock and begins a w×h vector
// export. Any export already running is cancelled first. Exports are
// refused while media is loading. The PNG saved alongside is the last
// composited frame when it is exactly w×h, else the rasterized document.
func (c *Controller) StartExport(w, h int) (uint64, error) {
	switch c.state {
	case MediaLoading:
		return 0, fmt.Errorf("export while loading media: %w", ErrBusy)
	case Exporting:
		c.abortExport("superseded")
	}

	snap := export.Snapshot{Params: c.params, Time: c.time}
	opts := c.opts.Export
	opts.Width, opts.Height = w, h

	var sampler export.Sampler
	if c.src != nil {
		if _, err := c.sampler.Pin(); err != nil {
			c.logger.Warn("export without brightness sampling", "path", c.src.Path(), "error", err)
		} else {
			sampler = c.sampler
		}
	}
	job, err := export.NewJob(snap, sampler, opts)
	if err != nil {
		c.sampler.Unpin()
		return 0, err
	}

	c.exportPNG = nil
	if c.last != nil && c.last.Rect.Dx() == w && c.last.Rect.Dy() == h {
		if data, err := export.EncodePNG(c.last); err != nil {
			c.logger.Warn("export snapshot failed", "error", err)
		} else {
			c.exportPNG = data
		}
	}

	c.exportSeq++
	c.job = job
	c.exportReturn = c.state
	c.state = Exporting
	if job.Clamped() {
		c.logger.Warn("export rows clamped", "requested", job.Requested(), "exported", job.Exported())
	}
	c.logger.Info("export started", "seq", c.exportSeq, "width", w, "height", h, "rows", job.Exported())
	return c.exportSeq, nil
}

// ExportProgress reports the running export's sequence and progress.
func (c *Controller) ExportProgress() (seq uint64, progress float64, ok bool) {
	if c.job == nil {
		return 0, 0, false
	}
	return c.exportSeq, c.job.Progress(), true
}

// StepExport advances the running export by one batch bounded by budget.
// When the export finishes the controller returns to its prior state and
// the event carries the result or the failure.
func (c *Controller) StepExport(budget time.Duration) ExportEvent {
	if c.job == nil {
		return ExportEvent{Err: ErrStale}
	}
	ev := ExportEvent{Seq: c.exportSeq}
	done := c.job.Step(budget)
	ev.Progress = c.job.Progress()
	if !done {
		return ev
	}
	ev.Done = true

	job := c.job
	c.finishExport()
	doc, err := job.Result()
	if err != nil {
		ev.Err = err
		c.logger.Error("export failed", "seq", ev.Seq, "error", err)
		return ev
	}
	res, err := c.deliver(job, doc)
	ev.Result = res
	ev.Err = err
	if err != nil {
		c.logger.Error("export failed", "seq", ev.Seq, "error", err)
		return ev
	}
	c.logger.Info("export complete", "seq", ev.Seq, "paths", len(doc.Paths), "elapsed", res.Elapsed, "svg", res.SVGPath)
	return ev
}

func (c *Controller) deliver(job *export.Job, doc *export.Document) (*ExportResult, error) {
	res := &ExportResult{
		Document:  doc,
		PNG:       c.exportPNG,
		Requested: job.Requested(),
		Exported:  job.Exported(),
		Elapsed:   job.Elapsed(),
	}
	c.exportPNG = nil
	n, first := job.SampleFailures()
	res.SampleFailures = n
	if first != nil {
		c.logger.Debug("export samples degraded", "count", n, "first", error(first))
	}

	svg, err := doc.SVG()
	if err != nil {
		return res, &ExportIOError{Path: export.SVGName, Err: err}
	}
	res.SVG = svg
	if res.PNG == nil {
		if res.PNG, err = export.EncodePNG(doc.Rasterize()); err != nil {
			return res, &ExportIOError{Path: export.PNGName, Err: err}
		}
	}
	if c.opts.Sink == nil {
		return res, nil
	}
	if res.SVGPath, err = c.opts.Sink.Save(export.SVGName, svg); err != nil {
		return res, &ExportIOError{Path: export.SVGName, Err: err}
	}
	if res.PNG != nil {
		if res.PNGPath, err = c.opts.Sink.Save(export.PNGName, res.PNG); err != nil {
			return res, &ExportIOError{Path: export.PNGName, Err: err}
		}
	}
	return res, nil
}

// CancelExport stops the running export. It reports whether one was running.
func (c *Controller) CancelExport() bool {
	if c.job == nil {
		return false
	}
	c.abortExport("cancelled")
	return true
}

func (c *Controller) abortExport(reason string) {
	c.job.Cancel()
	c.logger.Info("export cancelled", "seq", c.exportSeq, "reason", reason)
	c.finishExport()
	c.exportPNG = nil
}

func (c *Controller) finishExport() {
	c.job = nil
	c.sampler.Unpin()
	if c.state == Exporting {
		c.state = c.exportReturn
	}
}

// DetectionRequest returns the frame a detection pass should analyse along
// with the media generation it belongs to. ok is false with nothing bound.
func (c *Controller) DetectionRequest() (gen uint64, img image.Image, ok bool) {
	if c.src == nil || c.state == MediaLoading {
		return 0, nil, false
	}
	frame, err := c.sampler.Frame()
	if err != nil || frame == nil {
		if err != nil {
			c.logger.Debug("detection frame unavailable", "error", err)
		}
		return 0, nil, false
	}
	return c.bindGen, frame.Image(), true
}

// ApplyDetections stores the result of a detection pass for generation gen.
// Results for other media are discarded with ErrStale. A failed pass clears
// the boxes so none outlive the frame they were found on.
func (c *Controller) ApplyDetections(gen uint64, raw []detect.Detection, err error) error {
	if gen != c.bindGen || c.src == nil || c.state == MediaLoading {
		return ErrStale
	}
	if err != nil {
		c.detections = detect.Set{}
		err = &DetectionServiceError{Err: err}
		c.logger.Warn("detection failed", "path", c.src.Path(), "error", err)
		return err
	}
	w, h := c.src.Size()
	c.detections = detect.Normalize(raw, w, h, c.opts.MinScore)
	if d := c.detections.Dropped(); d > 0 {
		c.logger.Debug("detections truncated", "dropped", d)
	}
	return nil
}

// Detections returns the boxes for the bound media.
func (c *Controller) Detections() detect.Set { return c.detections }

// Close releases the bound media.
func (c *Controller) Close() {
	if c.job != nil {
		c.abortExport("shutdown")
	}
	c.closeSource()
}
