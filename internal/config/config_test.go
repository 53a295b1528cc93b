package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/olivier-w/osciline/internal/params"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Equal(t, 300, cfg.Export.MaxRows)
	require.Equal(t, 100*time.Millisecond, cfg.Detector.Interval)
}

func TestLoadOverridesAndClamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
rows: 5000
amplitude: 0.25
complexity: 6
line_color: "#ff0000"
fps: 0
export:
  max_rows: 120
  batch_budget: 20ms
detector:
  command: detect-objects --json
  interval: 250ms
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 30, cfg.FPS)
	require.Equal(t, 120, cfg.Export.MaxRows)
	require.Equal(t, 300, cfg.Export.Samples)
	require.Equal(t, 20*time.Millisecond, cfg.Export.BatchBudget)
	require.Equal(t, "detect-objects --json", cfg.Detector.Command)
	require.Equal(t, 250*time.Millisecond, cfg.Detector.Interval)

	p, err := cfg.Params()
	require.NoError(t, err)
	require.Equal(t, float64(params.MaxRows), p.Rows)
	require.Equal(t, 0.25, p.Amplitude)
	require.Equal(t, 6, p.Complexity)
	require.Equal(t, "#ff0000", p.LineColor.Hex())
	require.Equal(t, 0.5, p.Weight)

	opts := cfg.ExportOptions()
	require.Equal(t, 120, opts.MaxRows)
	require.Equal(t, 1920, opts.Width)
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rows: [1"), 0o644))
	cfg, err := Load(path)
	require.Error(t, err)
	require.Equal(t, Default(), cfg)
}

func TestParamsReportsBadColour(t *testing.T) {
	cfg := Default()
	cfg.BackgroundColor = "blue"
	p, err := cfg.Params()
	require.Error(t, err)
	require.Contains(t, err.Error(), "background_color")
	require.Equal(t, "#000000", p.Background.Hex())
}

func TestSaveRoundTripsParams(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	p := params.Defaults()
	p.Rows = 42
	p.Desync = 0.3
	p.Background = params.RGB{1, 1, 1}
	cfg.SetParams(p)
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	got, err := loaded.Params()
	require.NoError(t, err)
	require.Equal(t, 42.0, got.Rows)
	require.Equal(t, 0.3, got.Desync)
	require.Equal(t, "#ffffff", got.Background.Hex())
}

func TestPrefs(t *testing.T) {
	path := PrefsPath(filepath.Join(t.TempDir(), "config.yaml"))
	prefs, err := LoadPrefs(path)
	require.NoError(t, err)
	require.True(t, prefs.Bool(PrefPanelVisible, true))

	prefs.SetBool(PrefPanelVisible, false)
	prefs.Set(PrefLastPath, "/tmp/clip.mp4")
	require.NoError(t, prefs.Save())

	again, err := LoadPrefs(path)
	require.NoError(t, err)
	require.False(t, again.Bool(PrefPanelVisible, true))
	v, ok := again.Get(PrefLastPath)
	require.True(t, ok)
	require.Equal(t, "/tmp/clip.mp4", v)
	require.Equal(t, []string{PrefLastPath, PrefPanelVisible}, again.Keys())
}

func TestPrefsCorruptFileIsIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(":::\n- ["), 0o644))
	prefs, err := LoadPrefs(path)
	require.Error(t, err)
	require.NotNil(t, prefs)
	require.Empty(t, prefs.Keys())
	prefs.Set("k", "v")
	require.NoError(t, prefs.Save())
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvOutDir:         "/tmp/exports",
		EnvDetector:       "detector --json",
		EnvFPS:            "500",
		EnvDetectInterval: "soon",
	}
	cfg := Default()
	err := cfg.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), EnvDetectInterval)
	require.Equal(t, "/tmp/exports", cfg.OutDir)
	require.Equal(t, "detector --json", cfg.Detector.Command)
	require.Equal(t, 120, cfg.FPS)
	require.Equal(t, Default().Detector.Interval, cfg.Detector.Interval)
}

func TestLoadDotenv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, LoadDotenv(filepath.Join(dir, "missing.env")))

	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte(EnvOutDir+"=/from/dotenv\n"), 0o644))
	t.Setenv(EnvOutDir, "")
	os.Unsetenv(EnvOutDir)
	require.NoError(t, LoadDotenv(path))
	require.Equal(t, "/from/dotenv", os.Getenv(EnvOutDir))
}
