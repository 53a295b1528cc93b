package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/olivier-w/osciline/internal/media"
)

// BrowserSelectedMsg carries the media path the user picked.
type BrowserSelectedMsg struct {
	Path string
}

// BrowserCancelledMsg is sent when the browser closes without a pick.
type BrowserCancelledMsg struct{}

type mediaItem struct {
	name string
	ext  string
	kind media.Kind
}

func (i mediaItem) Title() string       { return i.name }
func (i mediaItem) Description() string { return i.kind.String() + " " + i.ext }
func (i mediaItem) FilterValue() string { return i.name }

type pathItem struct{}

func (pathItem) Title() string       { return "Open path..." }
func (pathItem) Description() string { return "type the path to an image or video" }
func (pathItem) FilterValue() string { return "path" }

// BrowserModel lists the supported media in a directory.
type BrowserModel struct {
	dir       string
	list      list.Model
	input     textinput.Model
	inputMode bool
	err       error
}

// NewBrowser scans dir for images and videos.
func NewBrowser(dir string) BrowserModel {
	if dir == "" {
		dir = "."
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return BrowserModel{dir: dir, err: fmt.Errorf("cannot read directory: %w", err)}
	}

	var found []mediaItem
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		kind, ok := media.KindForExt(ext)
		if !ok {
			continue
		}
		found = append(found, mediaItem{
			name: strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())),
			ext:  filepath.Ext(e.Name()),
			kind: kind,
		})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].name < found[j].name })

	items := []list.Item{pathItem{}}
	for _, it := range found {
		items = append(items, it)
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#FFFFFF"}).
		BorderLeftForeground(lipgloss.AdaptiveColor{Light: "#008F26", Dark: "#00FF33"})
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"}).
		BorderLeftForeground(lipgloss.AdaptiveColor{Light: "#008F26", Dark: "#00FF33"})

	l := list.New(items, delegate, 80, 20)
	l.Title = "open media"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = headerStyle

	ti := textinput.New()
	ti.Placeholder = "/path/to/image.png"
	ti.CharLimit = 4096
	ti.Width = 60

	return BrowserModel{dir: dir, list: l, input: ti}
}

// Error returns the error hit while scanning the directory, if any.
func (m BrowserModel) Error() error {
	return m.err
}

// Len is the number of media files listed.
func (m BrowserModel) Len() int {
	if m.err != nil {
		return 0
	}
	return len(m.list.Items()) - 1
}

func (m BrowserModel) selected(path string) tea.Cmd {
	return func() tea.Msg { return BrowserSelectedMsg{Path: path} }
}

func cancelled() tea.Msg { return BrowserCancelledMsg{} }

func (m BrowserModel) SetSize(w, h int) BrowserModel {
	m.list.SetWidth(w)
	m.list.SetHeight(h)
	return m
}

func (m BrowserModel) Update(msg tea.Msg) (BrowserModel, tea.Cmd) {
	if m.err != nil {
		if _, ok := msg.(tea.KeyMsg); ok {
			return m, cancelled
		}
		return m, nil
	}
	if m.inputMode {
		return m.updateInput(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok && m.list.FilterState() != list.Filtering {
		switch msg.String() {
		case "enter":
			switch item := m.list.SelectedItem().(type) {
			case pathItem:
				m.inputMode = true
				m.input.Focus()
				return m, textinput.Blink
			case mediaItem:
				return m, m.selected(filepath.Join(m.dir, item.name+item.ext))
			}
		case "esc", "q":
			return m, cancelled
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m BrowserModel) updateInput(msg tea.Msg) (BrowserModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "enter":
			path := strings.TrimSpace(m.input.Value())
			if path != "" {
				return m, m.selected(path)
			}
		case "esc":
			m.inputMode = false
			m.input.Reset()
			m.input.Blur()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m BrowserModel) View() string {
	if m.err != nil {
		return "\n  " + errorStyle.Render(m.err.Error()) + "\n\n  " + helpStyle.Render("any key to go back") + "\n"
	}
	if m.inputMode {
		s := "\n"
		s += "  " + headerStyle.Render("open media") + "\n"
		s += "\n"
		s += "  " + statusStyle.Render("Path ("+media.SupportedExtsList()+"):") + "\n"
		s += "  " + m.input.View() + "\n"
		s += "\n"
		s += "  " + helpStyle.Render("enter confirm  esc back") + "\n"
		return s
	}
	return m.list.View()
}
