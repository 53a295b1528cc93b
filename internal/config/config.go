// Package config loads the YAML configuration and the persisted
// presentation preferences.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/olivier-w/osciline/internal/export"
	"github.com/olivier-w/osciline/internal/params"
)

const appDir = "osciline"

// Config is the on-disk configuration. Effect fields use the parameter
// units of the live controls' targets, not slider units.
type Config struct {
	Rows            float64 `yaml:"rows"`
	Weight          float64 `yaml:"weight"`
	Brightness      float64 `yaml:"brightness"`
	Amplitude       float64 `yaml:"amplitude"`
	Frequency       float64 `yaml:"frequency"`
	Complexity      int     `yaml:"complexity"`
	Desync          float64 `yaml:"desync"`
	LineColor       string  `yaml:"line_color"`
	BackgroundColor string  `yaml:"background_color"`

	FPS    int    `yaml:"fps"`
	OutDir string `yaml:"out_dir"`

	Export   ExportConfig   `yaml:"export"`
	Detector DetectorConfig `yaml:"detector"`
	Record   RecordConfig   `yaml:"record"`
}

// ExportConfig bounds the cost of vector exports.
type ExportConfig struct {
	Width       int           `yaml:"width"`
	Height      int           `yaml:"height"`
	MaxRows     int           `yaml:"max_rows"`
	Samples     int           `yaml:"samples"`
	BatchRows   int           `yaml:"batch_rows"`
	BatchBudget time.Duration `yaml:"batch_budget"`
}

// DetectorConfig selects the external detection command.
type DetectorConfig struct {
	Command  string        `yaml:"command"`
	Interval time.Duration `yaml:"interval"`
	Timeout  time.Duration `yaml:"timeout"`
	MinScore float64       `yaml:"min_score"`
}

// RecordConfig sizes the recording stream.
type RecordConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Default returns the built-in configuration.
func Default() Config {
	p := params.Defaults()
	return Config{
		Rows:            p.Rows,
		Weight:          p.Weight,
		Brightness:      p.Brightness,
		LineColor:       p.LineColor.Hex(),
		BackgroundColor: p.Background.Hex(),
		FPS:             30,
		OutDir:          ".",
		Export: ExportConfig{
			Width:       1920,
			Height:      1080,
			MaxRows:     export.DefaultMaxRows,
			Samples:     export.DefaultSamples,
			BatchRows:   export.DefaultBatchRows,
			BatchBudget: 12 * time.Millisecond,
		},
		Detector: DetectorConfig{
			Interval: 100 * time.Millisecond,
			Timeout:  5 * time.Second,
			MinScore: 0.5,
		},
		Record: RecordConfig{Width: 1280, Height: 720},
	}
}

// DefaultPath is $XDG_CONFIG_HOME/osciline/config.yaml or the platform
// equivalent.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDir, "config.yaml"), nil
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.normalize()
	return cfg, nil
}

// Save writes the configuration to path, creating its directory.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (c *Config) normalize() {
	d := Default()
	if c.FPS <= 0 {
		c.FPS = d.FPS
	}
	c.FPS = min(c.FPS, 120)
	if c.OutDir == "" {
		c.OutDir = d.OutDir
	}
	if c.Export.Width <= 0 || c.Export.Height <= 0 {
		c.Export.Width, c.Export.Height = d.Export.Width, d.Export.Height
	}
	if c.Export.MaxRows <= 0 {
		c.Export.MaxRows = d.Export.MaxRows
	}
	if c.Export.Samples <= 0 {
		c.Export.Samples = d.Export.Samples
	}
	if c.Export.BatchRows <= 0 {
		c.Export.BatchRows = d.Export.BatchRows
	}
	if c.Export.BatchBudget <= 0 {
		c.Export.BatchBudget = d.Export.BatchBudget
	}
	if c.Detector.Interval <= 0 {
		c.Detector.Interval = d.Detector.Interval
	}
	if c.Detector.Timeout <= 0 {
		c.Detector.Timeout = d.Detector.Timeout
	}
	if c.Record.Width <= 0 || c.Record.Height <= 0 {
		c.Record = d.Record
	}
}

// Params converts the effect fields into clamped parameters. An invalid
// colour keeps its default and is reported; the parameters remain usable.
func (c Config) Params() (params.Params, error) {
	p := params.Defaults()
	p.Rows = c.Rows
	p.Weight = c.Weight
	p.Brightness = c.Brightness
	p.Amplitude = c.Amplitude
	p.Frequency = c.Frequency
	p.Complexity = c.Complexity
	p.Desync = c.Desync

	var errs []error
	if c.LineColor != "" {
		if rgb, err := params.ParseHex(c.LineColor); err != nil {
			errs = append(errs, fmt.Errorf("line_color: %w", err))
		} else {
			p.LineColor = rgb
		}
	}
	if c.BackgroundColor != "" {
		if rgb, err := params.ParseHex(c.BackgroundColor); err != nil {
			errs = append(errs, fmt.Errorf("background_color: %w", err))
		} else {
			p.Background = rgb
		}
	}
	return p.Clamp(), errors.Join(errs...)
}

// SetParams copies the effect fields of p into the configuration.
func (c *Config) SetParams(p params.Params) {
	c.Rows = p.Rows
	c.Weight = p.Weight
	c.Brightness = p.Brightness
	c.Amplitude = p.Amplitude
	c.Frequency = p.Frequency
	c.Complexity = p.Complexity
	c.Desync = p.Desync
	c.LineColor = p.LineColor.Hex()
	c.BackgroundColor = p.Background.Hex()
}

// ExportOptions returns the export job limits.
func (c Config) ExportOptions() export.Options {
	return export.Options{
		Width:     c.Export.Width,
		Height:    c.Export.Height,
		MaxRows:   c.Export.MaxRows,
		Samples:   c.Export.Samples,
		BatchRows: c.Export.BatchRows,
	}
}
