// Package ui is the terminal front end: a live raster preview of the effect
// with a slider panel, a media browser and cooperative vector export.
package ui

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/olivier-w/osciline/internal/config"
	"github.com/olivier-w/osciline/internal/detect"
	"github.com/olivier-w/osciline/internal/effect"
	"github.com/olivier-w/osciline/internal/media"
	"github.com/olivier-w/osciline/internal/params"
	"github.com/olivier-w/osciline/internal/raster"
)

const (
	statusTTL     = 5 * time.Second
	glideFreq     = 8.0
	glideDamping  = 1.0
	minViewWidth  = 20
	minViewHeight = 4
)

// FrameSink receives every composited frame, e.g. a recorder.
type FrameSink interface {
	WriteFrame(img *image.RGBA) error
}

// Options configure a Model.
type Options struct {
	Controller *effect.Controller
	Config     config.Config
	// ConfigPath is where "w" writes the current parameters; empty disables it.
	ConfigPath string
	Prefs      *config.Prefs
	Detector   detect.Service
	Recorder   FrameSink
	Logger     *slog.Logger
	// MediaPath is bound on start.
	MediaPath string
	Terminal  *raster.Terminal
}

// Model is the Bubbletea model for the effect screen.
type Model struct {
	ctrl     *effect.Controller
	cfg      config.Config
	cfgPath  string
	prefs    *config.Prefs
	detector detect.Service
	recorder FrameSink
	logger   *slog.Logger
	term     *raster.Terminal

	width  int
	height int
	frame  *image.RGBA
	screen string

	field  int
	target params.Params
	glide  glide
	panel  PanelMode

	browser     *BrowserModel
	initialPath string

	spinner  spinner.Model
	progress progress.Model

	exportPct   float64
	detecting   bool
	detectedGen uint64

	status       string
	statusErr    bool
	statusExpiry time.Time
	quitting     bool
}

// New creates the effect screen.
func New(opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	term := opts.Terminal
	if term == nil {
		term = raster.NewTerminal()
	}

	target := opts.Controller.Params()

	g := newGlide(opts.Config.FPS, glideFreq, glideDamping)
	g.reset(target)

	panel := PanelOpen
	if opts.Prefs != nil {
		if !opts.Prefs.Bool(config.PrefPanelVisible, true) {
			panel = PanelHidden
		} else if opts.Prefs.Bool(config.PrefPanelMinimized, false) {
			panel = PanelMinimized
		}
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = statusStyle

	p := progress.New(
		progress.WithScaledGradient("#00FF33", "#00B3FF"),
		progress.WithoutPercentage(),
	)

	return Model{
		ctrl:        opts.Controller,
		cfg:         opts.Config,
		cfgPath:     opts.ConfigPath,
		prefs:       opts.Prefs,
		detector:    opts.Detector,
		recorder:    opts.Recorder,
		logger:      logger,
		term:        term,
		target:      target,
		glide:       g,
		panel:       panel,
		initialPath: opts.MediaPath,
		spinner:     s,
		progress:    p,
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.SetWindowTitle("osciline"),
		frameCmd(m.cfg.FPS),
		m.spinner.Tick,
	}
	if m.detector != nil {
		cmds = append(cmds, detectTickCmd(m.cfg.Detector.Interval))
	}
	if m.initialPath != "" {
		if gen, err := m.ctrl.BeginBind(m.initialPath); err == nil {
			cmds = append(cmds, loadMediaCmd(gen, m.initialPath))
		} else {
			cmds = append(cmds, statusCmd(err))
		}
	}
	return tea.Batch(cmds...)
}

type statusMsg struct{ err error }

func statusCmd(err error) tea.Cmd {
	return func() tea.Msg { return statusMsg{err: err} }
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = max(msg.Width-24, 10)
		if m.browser != nil {
			b := m.browser.SetSize(msg.Width, msg.Height)
			m.browser = &b
		}
		return m, nil

	case BrowserSelectedMsg:
		m.browser = nil
		return m, m.load(msg.Path)

	case BrowserCancelledMsg:
		m.browser = nil
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.quit()
		}
		if m.browser != nil {
			b, cmd := m.browser.Update(msg)
			m.browser = &b
			return m, cmd
		}
		return m.handleKey(msg)

	case frameMsg:
		m.tick()
		return m, frameCmd(m.cfg.FPS)

	case mediaLoadedMsg:
		return m.handleMediaLoaded(msg)

	case exportStepMsg:
		return m.handleExportStep(msg)

	case detectTickMsg:
		return m, tea.Batch(m.requestDetections(), detectTickCmd(m.cfg.Detector.Interval))

	case detectionsMsg:
		m.detecting = false
		err := m.ctrl.ApplyDetections(msg.gen, msg.raw, msg.err)
		switch {
		case errors.Is(err, effect.ErrStale):
		case err != nil:
			m.setStatus(err.Error(), true)
			// A still is not retried until it is rebound.
			m.detectedGen = msg.gen
		default:
			m.detectedGen = msg.gen
		}
		return m, nil

	case configSavedMsg:
		if msg.err != nil {
			m.setStatus("config not saved: "+msg.err.Error(), true)
		} else {
			m.setStatus("config saved to "+msg.path, false)
		}
		return m, nil

	case statusMsg:
		m.setStatus(msg.err.Error(), true)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.browser != nil {
		b, cmd := m.browser.Update(msg)
		m.browser = &b
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if isQuit(msg) {
		return m.quit()
	}
	switch msg.String() {
	case "up", "k":
		m.field = (m.field + len(params.Sliders) - 1) % len(params.Sliders)
	case "down", "j":
		m.field = (m.field + 1) % len(params.Sliders)
	case "left", "h":
		m.nudge(-1)
	case "right", "l":
		m.nudge(1)
	case "shift+left", "H":
		m.nudge(-10)
	case "shift+right", "L":
		m.nudge(10)
	case "o":
		b := NewBrowser(m.browseDir()).SetSize(m.width, m.height)
		m.browser = &b
		if err := b.Error(); err != nil {
			m.logger.Warn("media browser", "error", err)
		}
	case "e":
		return m.startExport()
	case "x":
		if m.ctrl.CancelExport() {
			m.setStatus("export cancelled", false)
		}
	case "u":
		m.ctrl.Unbind()
		m.detectedGen = 0
		m.setStatus("media unbound", false)
	case "p":
		m.setPanel(m.panel.Toggle())
	case "m":
		m.setPanel(m.panel.Minimize())
	case "w":
		return m, m.saveConfig()
	}
	return m, nil
}

func (m *Model) nudge(steps float64) {
	f := params.Sliders[m.field].Field
	m.target = m.target.Nudge(f, steps)
}

// tick advances the clock, eases the live parameters toward their targets
// and renders the terminal frame.
func (m *Model) tick() {
	m.ctrl.SetParams(m.glide.step(m.target))
	m.ctrl.Advance()
	m.render()
}

func (m *Model) render() {
	cols, rows := m.viewSize()
	if cols <= 0 || rows <= 0 {
		m.screen = ""
		return
	}
	pw, ph := m.term.PixelSize(cols, rows)
	w, h := params.Fit(pw, ph, m.ctrl.Params().Aspect)
	if m.frame == nil || m.frame.Rect.Dx() != w || m.frame.Rect.Dy() != h {
		m.frame = image.NewRGBA(image.Rect(0, 0, w, h))
	}
	m.ctrl.RenderFrame(m.frame)
	m.screen = m.term.Render(m.frame)

	if m.recorder != nil {
		if err := m.recorder.WriteFrame(m.frame); err != nil {
			m.logger.Error("recording stopped", "error", err)
			m.setStatus("recording stopped: "+err.Error(), true)
			m.recorder = nil
		}
	}
}

// viewSize is the terminal area left for the preview.
func (m Model) viewSize() (cols, rows int) {
	cols = m.width
	rows = m.height - m.panel.Lines() - 1
	if cols < minViewWidth || rows < minViewHeight {
		return 0, 0
	}
	return cols, rows
}

func (m Model) load(path string) tea.Cmd {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	gen, err := m.ctrl.BeginBind(path)
	if err != nil {
		return statusCmd(err)
	}
	if m.prefs != nil {
		m.prefs.Set(config.PrefLastPath, path)
		m.prefs.Set(config.PrefLastDir, filepath.Dir(path))
	}
	return tea.Batch(loadMediaCmd(gen, path), m.spinner.Tick)
}

func (m Model) handleMediaLoaded(msg mediaLoadedMsg) (tea.Model, tea.Cmd) {
	err := m.ctrl.CompleteBind(msg.gen, msg.src, msg.err)
	switch {
	case errors.Is(err, effect.ErrStale):
		return m, nil
	case err != nil:
		m.setStatus(err.Error(), true)
		return m, nil
	}
	m.detectedGen = 0
	m.setStatus("loaded "+filepath.Base(msg.path), false)
	return m, nil
}

// requestDetections starts a detection pass unless one is running or the
// bound still was already analysed, successfully or not.
func (m *Model) requestDetections() tea.Cmd {
	if m.detector == nil || m.detecting {
		return nil
	}
	gen, img, ok := m.ctrl.DetectionRequest()
	if !ok {
		return nil
	}
	if gen == m.detectedGen && m.ctrl.Source().Kind() == media.KindStill {
		return nil
	}
	m.detecting = true
	svc := m.detector
	return func() tea.Msg {
		raw, err := svc.Detect(context.Background(), img)
		return detectionsMsg{gen: gen, raw: raw, err: err}
	}
}

func (m Model) startExport() (tea.Model, tea.Cmd) {
	m.ctrl.SetParams(m.target)
	m.glide.reset(m.ctrl.Params())
	seq, err := m.ctrl.StartExport(m.cfg.Export.Width, m.cfg.Export.Height)
	if err != nil {
		m.setStatus("export refused: "+err.Error(), true)
		return m, nil
	}
	m.exportPct = 0
	m.status = ""
	return m, exportStepCmd(seq)
}

func (m Model) handleExportStep(msg exportStepMsg) (tea.Model, tea.Cmd) {
	seq, _, ok := m.ctrl.ExportProgress()
	if !ok || seq != msg.seq {
		return m, nil
	}
	ev := m.ctrl.StepExport(m.cfg.Export.BatchBudget)
	m.exportPct = ev.Progress
	if !ev.Done {
		return m, exportStepCmd(msg.seq)
	}
	switch {
	case errors.Is(ev.Err, effect.ErrExportCancelled):
		m.setStatus("export cancelled", false)
	case ev.Err != nil:
		m.setStatus("export failed: "+ev.Err.Error(), true)
	default:
		m.setStatus(exportSummary(ev.Result), false)
	}
	return m, nil
}

func exportSummary(r *effect.ExportResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "exported %d lines", r.Exported)
	if r.Clamped() {
		fmt.Fprintf(&b, " (clamped from %d)", r.Requested)
	}
	if r.SVGPath != "" {
		fmt.Fprintf(&b, " to %s", r.SVGPath)
	}
	if r.SampleFailures > 0 {
		fmt.Fprintf(&b, ", %d points unsampled", r.SampleFailures)
	}
	fmt.Fprintf(&b, " in %s", r.Elapsed.Round(time.Millisecond))
	return b.String()
}

func (m *Model) setPanel(p PanelMode) {
	m.panel = p
	m.frame = nil
	if m.prefs != nil {
		m.prefs.SetBool(config.PrefPanelVisible, p != PanelHidden)
		m.prefs.SetBool(config.PrefPanelMinimized, p == PanelMinimized)
	}
}

func (m Model) saveConfig() tea.Cmd {
	if m.cfgPath == "" {
		return statusCmd(errors.New("no config path"))
	}
	cfg := m.cfg
	cfg.SetParams(m.target)
	path := m.cfgPath
	return func() tea.Msg {
		return configSavedMsg{path: path, err: cfg.Save(path)}
	}
}

func (m Model) browseDir() string {
	if m.prefs != nil {
		if dir, ok := m.prefs.Get(config.PrefLastDir); ok {
			return dir
		}
	}
	return "."
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
	m.statusExpiry = time.Now().Add(statusTTL)
	if isErr {
		m.logger.Warn(s)
	}
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.ctrl.CancelExport()
	if m.prefs != nil {
		if err := m.prefs.Save(); err != nil {
			m.logger.Warn("saving preferences", "error", err)
		}
	}
	return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.browser != nil {
		return m.browser.View()
	}

	var b strings.Builder
	b.WriteString(m.screen)
	b.WriteString("\n")
	if m.panel == PanelHidden {
		return b.String()
	}

	lines := []string{m.headerLine()}
	if m.panel == PanelOpen {
		p := m.target
		barWidth := max(min(m.width-30, 40), 10)
		for i, s := range params.Sliders {
			lines = append(lines, renderSlider(s, p, barWidth, i == m.field))
		}
		lines = append(lines,
			renderSwatch("line", p.LineColor)+"  "+renderSwatch("background", p.Background),
			m.activityLine(),
			m.statusLine(),
		)
	}
	lines = append(lines, helpStyle.Render(helpText(m.panel, m.ctrl.State() == effect.Exporting)))
	for _, l := range lines {
		b.WriteString(panelStyle.Render(l))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) headerLine() string {
	s := titleStyle.Render("osciline") + "  " + labelStyle.Render(m.ctrl.State().String())
	if src := m.ctrl.Source(); src != nil {
		w, h := src.Size()
		s += "  " + valueStyle.Render(fmt.Sprintf("%s %s %dx%d", src.Kind(), filepath.Base(src.Path()), w, h))
	}
	if n := m.ctrl.Detections().Len(); n > 0 {
		s += "  " + valueStyle.Render(fmt.Sprintf("%d detections", n))
	}
	return s
}

func (m Model) activityLine() string {
	switch m.ctrl.State() {
	case effect.MediaLoading:
		return m.spinner.View() + " " + statusStyle.Render("loading media...")
	case effect.Exporting:
		return statusStyle.Render("export ") + m.progress.ViewAs(m.exportPct) +
			" " + valueStyle.Render(fmt.Sprintf("%3.0f%%", m.exportPct*100))
	}
	return ""
}

func (m Model) statusLine() string {
	if m.status == "" || time.Now().After(m.statusExpiry) {
		return ""
	}
	if m.statusErr {
		return errorStyle.Render(m.status)
	}
	return statusStyle.Render(m.status)
}
