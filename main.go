package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/olivier-w/osciline/internal/config"
	"github.com/olivier-w/osciline/internal/detect"
	"github.com/olivier-w/osciline/internal/effect"
	"github.com/olivier-w/osciline/internal/glview"
	"github.com/olivier-w/osciline/internal/logging"
	"github.com/olivier-w/osciline/internal/media"
	"github.com/olivier-w/osciline/internal/record"
	"github.com/olivier-w/osciline/internal/save"
	"github.com/olivier-w/osciline/internal/ui"
)

const (
	windowWidth  = 1280
	windowHeight = 720
)

type cliOptions struct {
	configPath string
	logPath    string
	logLevel   string
	gl         bool
	recordPath string
	detector   string
	outDir     string
	mediaPath  string
}

func parseFlags(args []string, stderr io.Writer) (cliOptions, error) {
	var o cliOptions
	fs := flag.NewFlagSet("osciline", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configPath, "config", "", "config file (default: user config dir)")
	fs.StringVar(&o.logPath, "log", "osciline.log", "log file for the terminal view")
	fs.StringVar(&o.logLevel, "log-level", "info", "debug, info, warn or error")
	fs.BoolVar(&o.gl, "gl", false, "render in a GPU window instead of the terminal")
	fs.StringVar(&o.recordPath, "record", "", "encode the live view to this video file")
	fs.StringVar(&o.detector, "detector", "", "object detection command (overrides config)")
	fs.StringVar(&o.outDir, "out", "", "directory for exports (overrides config)")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: osciline [flags] [image or video]\n\nsupported: %s\n\n", media.SupportedExtsList())
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	switch fs.NArg() {
	case 0:
	case 1:
		o.mediaPath = fs.Arg(0)
	default:
		return o, fmt.Errorf("expected at most one media path, got %d", fs.NArg())
	}
	return o, nil
}

// checkMediaPath rejects paths that cannot be bound before any UI starts.
func checkMediaPath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	ext := strings.ToLower(filepath.Ext(path))
	if !media.IsSupportedExt(ext) {
		return fmt.Errorf("unsupported format %s (supported: %s)", ext, media.SupportedExtsList())
	}
	return nil
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(opts cliOptions) error {
	if opts.mediaPath != "" {
		if err := checkMediaPath(opts.mediaPath); err != nil {
			return err
		}
	}

	var (
		logger *slog.Logger
		err    error
	)
	if opts.gl {
		logger, err = logging.New(os.Stderr, opts.logLevel)
	} else {
		var f *os.File
		logger, f, err = logging.Open(opts.logPath, opts.logLevel)
		if f != nil {
			defer f.Close()
		}
	}
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	cfgPath := opts.configPath
	if cfgPath == "" {
		if cfgPath, err = config.DefaultPath(); err != nil {
			logger.Warn("no user config dir", "error", err)
		}
	}
	cfg := config.Default()
	if cfgPath != "" {
		if cfg, err = config.Load(cfgPath); err != nil {
			logger.Warn("config ignored", "path", cfgPath, "error", err)
		}
	}
	if err := config.LoadDotenv(".env"); err != nil {
		logger.Warn("dotenv ignored", "error", err)
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		logger.Warn("environment overrides ignored", "error", err)
	}
	if opts.outDir != "" {
		cfg.OutDir = opts.outDir
	}
	if opts.detector != "" {
		cfg.Detector.Command = opts.detector
	}

	var prefs *config.Prefs
	if cfgPath != "" {
		if prefs, err = config.LoadPrefs(config.PrefsPath(cfgPath)); err != nil {
			logger.Warn("preferences ignored", "error", err)
		}
	}

	var detector detect.Service
	if cfg.Detector.Command != "" {
		svc, err := detect.NewCommandService(cfg.Detector.Command, cfg.Detector.Timeout)
		if err != nil {
			return fmt.Errorf("detector: %w", err)
		}
		detector = svc
	}

	ctrl := effect.New(effect.Options{
		Logger:   logger,
		Export:   cfg.ExportOptions(),
		Sink:     save.Sink{Dir: cfg.OutDir},
		MinScore: cfg.Detector.MinScore,
	})
	defer ctrl.Close()
	p, err := cfg.Params()
	if err != nil {
		logger.Warn("config colours ignored", "error", err)
	}
	ctrl.SetParams(p)

	var rec *record.Recorder
	if opts.recordPath != "" {
		rec, err = record.Start(context.Background(), opts.recordPath, cfg.Record.Width, cfg.Record.Height, cfg.FPS)
		if err != nil {
			return err
		}
		defer func() {
			if err := rec.Close(); err != nil {
				logger.Error("recording", "path", rec.Path(), "error", err)
			} else {
				logger.Info("recording saved", "path", rec.Path(), "frames", rec.Frames())
			}
		}()
	}

	if opts.gl {
		vopts := glview.Options{
			Controller:     ctrl,
			Logger:         logger,
			Detector:       detector,
			DetectInterval: cfg.Detector.Interval,
			BatchBudget:    cfg.Export.BatchBudget,
			ExportWidth:    cfg.Export.Width,
			ExportHeight:   cfg.Export.Height,
			MediaPath:      opts.mediaPath,
		}
		if rec != nil {
			vopts.Record = rec
		}
		return glview.Run("osciline", windowWidth, windowHeight, cfg.FPS, glview.New(vopts))
	}

	uopts := ui.Options{
		Controller: ctrl,
		Config:     cfg,
		ConfigPath: cfgPath,
		Prefs:      prefs,
		Detector:   detector,
		Logger:     logger,
		MediaPath:  opts.mediaPath,
	}
	if rec != nil {
		uopts.Recorder = rec
	}
	program := tea.NewProgram(ui.New(uopts), tea.WithAltScreen())
	_, err = program.Run()
	return err
}
