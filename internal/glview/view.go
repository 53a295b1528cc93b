package glview

import (
	"context"
	"image"
	"log/slog"
	"time"

	gl "github.com/go-gl/gl/v3.1/gles2"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/olivier-w/osciline/internal/detect"
	"github.com/olivier-w/osciline/internal/effect"
	"github.com/olivier-w/osciline/internal/media"
	"github.com/olivier-w/osciline/internal/params"
)

// FrameSink receives every composited frame, e.g. a recorder.
type FrameSink interface {
	WriteFrame(img *image.RGBA) error
}

// Options configure a View.
type Options struct {
	Controller     *effect.Controller
	Logger         *slog.Logger
	Detector       detect.Service
	DetectInterval time.Duration
	BatchBudget    time.Duration
	ExportWidth    int
	ExportHeight   int
	Record         FrameSink
	// MediaPath is bound once the window is up.
	MediaPath string
}

// View renders the controller's effect into a GLFW window.
type View struct {
	opts   Options
	ctrl   *effect.Controller
	logger *slog.Logger

	events  chan func()
	running bool

	program *Program
	aPos    uint32
	u       map[string]int32
	tex     *Texture
	det     *Texture
	texKey  media.Key
	hasTex  bool
	detSet  detect.Set

	fbW, fbH int
	readback *image.RGBA

	field      params.Field
	detecting  bool
	lastDetect time.Time
}

var quad = [8]float32{-1, -1, 1, -1, -1, 1, 1, 1}

var uniformNames = []string{
	"u_transform", "u_tex", "u_detections", "u_hasTex", "u_numDetections",
	"u_rows", "u_weight", "u_brightness", "u_time", "u_amplitude",
	"u_frequency", "u_complexity", "u_desync", "u_lineColor", "u_background",
	"u_resolution",
}

// New creates a view; GL resources are created in Init.
func New(opts Options) *View {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Detector == nil {
		opts.Detector = detect.NopService{}
	}
	return &View{
		opts:    opts,
		ctrl:    opts.Controller,
		logger:  logger,
		events:  make(chan func(), 16),
		running: true,
		u:       map[string]int32{},
	}
}

func (v *View) Init() error {
	program, err := CreateProgram(vertexShader, FragmentShader())
	if err != nil {
		return err
	}
	v.program = program
	v.aPos = program.Attrib("a_position")
	for _, name := range uniformNames {
		v.u[name] = program.Uniform(name)
	}
	if v.tex, err = CreateTexture(0); err != nil {
		return err
	}
	if v.det, err = CreateTexture(1); err != nil {
		return err
	}
	v.det.Upload(detectionTexels, 1, gl.RGBA, detect.Set{}.TextureRGBA8())
	if v.opts.MediaPath != "" {
		v.Load(v.opts.MediaPath)
	}
	return nil
}

func (v *View) IsRunning() bool { return v.running }

// Stop ends the loop after the current frame.
func (v *View) Stop() { v.running = false }

// post queues f to run on the render thread.
func (v *View) post(f func()) {
	v.events <- f
}

// Load binds the media at path; decoding happens off the render thread.
func (v *View) Load(path string) {
	gen, err := v.ctrl.BeginBind(path)
	if err != nil {
		v.logger.Warn("cannot load media", "path", path, "error", err)
		return
	}
	go func() {
		src, err := media.Open(path)
		v.post(func() {
			if err := v.ctrl.CompleteBind(gen, src, err); err != nil {
				v.logger.Warn("media not bound", "path", path, "error", err)
			}
			v.detSet = detect.Set{}
			v.lastDetect = time.Time{}
		})
	}()
}

func (v *View) OnFramebufferSize(width, height int) {
	v.fbW, v.fbH = width, height
}

func (v *View) OnKey(key glfw.Key, _ int, action glfw.Action, mods glfw.ModifierKey) {
	if action != glfw.Press && action != glfw.Repeat {
		return
	}
	steps := 1.0
	if mods&glfw.ModShift != 0 {
		steps = 10
	}
	switch key {
	case glfw.KeyEscape, glfw.KeyQ:
		v.Stop()
	case glfw.KeyUp:
		v.field = stepField(v.field, -1)
	case glfw.KeyDown:
		v.field = stepField(v.field, 1)
	case glfw.KeyLeft:
		v.ctrl.Update(func(p params.Params) params.Params { return p.Nudge(v.field, -steps) })
	case glfw.KeyRight:
		v.ctrl.Update(func(p params.Params) params.Params { return p.Nudge(v.field, steps) })
	case glfw.KeyE:
		if _, err := v.ctrl.StartExport(v.opts.ExportWidth, v.opts.ExportHeight); err != nil {
			v.logger.Warn("export refused", "error", err)
		}
	case glfw.KeyX:
		v.ctrl.CancelExport()
	}
}

// stepField moves the selection through params.Sliders with wrap-around.
func stepField(f params.Field, delta int) params.Field {
	n := len(params.Sliders)
	idx := 0
	for i, s := range params.Sliders {
		if s.Field == f {
			idx = i
		}
	}
	return params.Sliders[((idx+delta)%n+n)%n].Field
}

func (v *View) Render() error {
	if v.fbW <= 0 || v.fbH <= 0 {
		return nil
	}
	p := v.ctrl.Params()
	v.program.Use()
	v.uploadTexture()
	v.tex.Bind()
	v.det.Bind()

	transform := fitTransform(v.fbW, v.fbH, p.Aspect)
	gl.UniformMatrix4fv(v.u["u_transform"], 1, false, &transform[0])
	gl.Uniform1i(v.u["u_tex"], 0)
	gl.Uniform1i(v.u["u_detections"], 1)
	gl.Uniform1f(v.u["u_hasTex"], boolFloat(v.hasTex))
	gl.Uniform1f(v.u["u_numDetections"], float32(v.detSet.Len()))
	gl.Uniform1f(v.u["u_rows"], float32(p.Rows))
	gl.Uniform1f(v.u["u_weight"], float32(p.Weight))
	gl.Uniform1f(v.u["u_brightness"], float32(p.Brightness))
	gl.Uniform1f(v.u["u_time"], float32(v.ctrl.Time()))
	gl.Uniform1f(v.u["u_amplitude"], float32(p.Amplitude))
	gl.Uniform1f(v.u["u_frequency"], float32(p.Frequency))
	gl.Uniform1f(v.u["u_complexity"], float32(p.Complexity))
	gl.Uniform1f(v.u["u_desync"], float32(p.Desync))
	gl.Uniform3f(v.u["u_lineColor"], float32(p.LineColor[0]), float32(p.LineColor[1]), float32(p.LineColor[2]))
	gl.Uniform3f(v.u["u_background"], float32(p.Background[0]), float32(p.Background[1]), float32(p.Background[2]))
	w, h := params.Fit(v.fbW, v.fbH, p.Aspect)
	gl.Uniform2f(v.u["u_resolution"], float32(w), float32(h))

	gl.EnableVertexAttribArray(v.aPos)
	gl.VertexAttribPointer(v.aPos, 2, gl.FLOAT, false, 0, gl.Ptr(&quad[0]))
	gl.DrawArrays(gl.TRIANGLE_STRIP, 0, 4)
	gl.DisableVertexAttribArray(v.aPos)

	v.capture()
	return nil
}

func (v *View) uploadTexture() {
	frame := v.ctrl.Texture()
	if frame == nil {
		v.hasTex = false
		return
	}
	if !v.hasTex || frame.Key != v.texKey {
		v.tex.Upload(frame.W, frame.H, gl.RGB, frame.Pix)
		v.texKey = frame.Key
	}
	v.hasTex = true
}

// capture reads the framebuffer back for the export snapshot and the
// recording stream.
func (v *View) capture() {
	if v.readback == nil || v.readback.Bounds().Dx() != v.fbW || v.readback.Bounds().Dy() != v.fbH {
		v.readback = image.NewRGBA(image.Rect(0, 0, v.fbW, v.fbH))
	}
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(v.fbW), int32(v.fbH), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(v.readback.Pix))
	flipRows(v.readback)
	v.ctrl.RecordFrame(v.readback)
	if v.opts.Record != nil {
		if err := v.opts.Record.WriteFrame(v.readback); err != nil {
			v.logger.Error("recording stopped", "error", err)
			v.opts.Record = nil
		}
	}
}

func (v *View) Update() error {
drain:
	for {
		select {
		case f := <-v.events:
			f()
		default:
			break drain
		}
	}
	v.ctrl.Advance()

	if _, _, ok := v.ctrl.ExportProgress(); ok {
		ev := v.ctrl.StepExport(v.opts.BatchBudget)
		if ev.Done && ev.Err == nil {
			v.logger.Info("export saved", "svg", ev.Result.SVGPath, "png", ev.Result.PNGPath)
		}
	}
	v.scheduleDetection()
	return nil
}

func (v *View) scheduleDetection() {
	if v.detecting || time.Since(v.lastDetect) < v.opts.DetectInterval {
		return
	}
	if _, ok := v.opts.Detector.(detect.NopService); ok {
		return
	}
	src := v.ctrl.Source()
	if src == nil || src.Kind() == media.KindStill && !v.lastDetect.IsZero() {
		return
	}
	gen, img, ok := v.ctrl.DetectionRequest()
	if !ok {
		return
	}
	v.detecting = true
	v.lastDetect = time.Now()
	go func() {
		raw, err := v.opts.Detector.Detect(context.Background(), img)
		v.post(func() {
			v.detecting = false
			if err := v.ctrl.ApplyDetections(gen, raw, err); err != nil {
				return
			}
			v.detSet = v.ctrl.Detections()
			v.det.Upload(detectionTexels, 1, gl.RGBA, v.detSet.TextureRGBA8())
		})
	}()
}

func (v *View) Close() error {
	if v.tex != nil {
		v.tex.Close()
	}
	if v.det != nil {
		v.det.Close()
	}
	if v.program != nil {
		v.program.Close()
	}
	return nil
}

// fitTransform scales the unit quad to the largest box with the media's
// aspect ratio inside the framebuffer.
func fitTransform(fbW, fbH int, aspect float64) mgl32.Mat4 {
	w, h := params.Fit(fbW, fbH, aspect)
	if fbW <= 0 || fbH <= 0 {
		return mgl32.Ident4()
	}
	return mgl32.Scale3D(float32(w)/float32(fbW), float32(h)/float32(fbH), 1)
}

// flipRows converts GL's bottom-up rows to image order.
func flipRows(img *image.RGBA) {
	h := img.Bounds().Dy()
	row := make([]byte, img.Stride)
	for y := 0; y < h/2; y++ {
		top := img.Pix[y*img.Stride : (y+1)*img.Stride]
		bot := img.Pix[(h-1-y)*img.Stride : (h-y)*img.Stride]
		copy(row, top)
		copy(top, bot)
		copy(bot, row)
	}
}

func boolFloat(b bool) float32 {
	if b {
		return 1
	}
	return 0
}
