package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables that override the config file.
const (
	EnvOutDir         = "OSCILINE_OUT_DIR"
	EnvFPS            = "OSCILINE_FPS"
	EnvDetector       = "OSCILINE_DETECTOR"
	EnvDetectInterval = "OSCILINE_DETECT_INTERVAL"
)

// LoadDotenv adds the variables in path to the process environment without
// replacing ones already set. A missing file is not an error.
func LoadDotenv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from the environment. Malformed values are
// skipped and reported together.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	if v, ok := lookup(EnvOutDir); ok && v != "" {
		c.OutDir = v
	}
	if v, ok := lookup(EnvDetector); ok {
		c.Detector.Command = v
	}
	if v, ok := lookup(EnvFPS); ok && v != "" {
		if n, err := strconv.Atoi(v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvFPS, err))
		} else {
			c.FPS = n
		}
	}
	if v, ok := lookup(EnvDetectInterval); ok && v != "" {
		if d, err := time.ParseDuration(v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvDetectInterval, err))
		} else {
			c.Detector.Interval = d
		}
	}
	c.normalize()
	return errors.Join(errs...)
}
