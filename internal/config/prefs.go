package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Prefs is a small persisted key-value store for presentation state such
// as panel visibility and the last opened path.
type Prefs struct {
	path   string
	values map[string]string
	dirty  bool
}

// Preference keys.
const (
	PrefPanelVisible   = "panel.visible"
	PrefPanelMinimized = "panel.minimized"
	PrefLastPath       = "media.last_path"
	PrefLastDir        = "media.last_dir"
)

// PrefsPath places the preferences next to the configuration file.
func PrefsPath(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), "prefs.yaml")
}

// LoadPrefs reads path. A missing file yields an empty store; a corrupt one
// yields an empty store and the parse error so the caller can warn.
func LoadPrefs(path string) (*Prefs, error) {
	p := &Prefs{path: path, values: map[string]string{}}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("reading prefs: %w", err)
	}
	if err := yaml.Unmarshal(data, &p.values); err != nil {
		p.values = map[string]string{}
		return p, fmt.Errorf("parsing prefs %s: %w", path, err)
	}
	if p.values == nil {
		p.values = map[string]string{}
	}
	return p, nil
}

// Get returns the value for key.
func (p *Prefs) Get(key string) (string, bool) {
	v, ok := p.values[key]
	return v, ok
}

// Set stores value under key.
func (p *Prefs) Set(key, value string) {
	if old, ok := p.values[key]; ok && old == value {
		return
	}
	p.values[key] = value
	p.dirty = true
}

// Bool returns the boolean at key or def when absent or malformed.
func (p *Prefs) Bool(key string, def bool) bool {
	v, ok := p.values[key]
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// SetBool stores a boolean.
func (p *Prefs) SetBool(key string, v bool) {
	p.Set(key, strconv.FormatBool(v))
}

// Keys returns the stored keys in order.
func (p *Prefs) Keys() []string {
	keys := make([]string, 0, len(p.values))
	for k := range p.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Save writes the store if it changed since loading.
func (p *Prefs) Save() error {
	if !p.dirty || p.path == "" {
		return nil
	}
	data, err := yaml.Marshal(p.values)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return fmt.Errorf("creating prefs dir: %w", err)
	}
	if err := os.WriteFile(p.path, data, 0o644); err != nil {
		return fmt.Errorf("writing prefs: %w", err)
	}
	p.dirty = false
	return nil
}
