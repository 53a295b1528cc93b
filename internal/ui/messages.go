package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/olivier-w/osciline/internal/detect"
	"github.com/olivier-w/osciline/internal/media"
)

type frameMsg time.Time

type mediaLoadedMsg struct {
	gen  uint64
	path string
	src  media.Source
	err  error
}

type exportStepMsg struct {
	seq uint64
}

type detectTickMsg time.Time

type detectionsMsg struct {
	gen uint64
	raw []detect.Detection
	err error
}

type configSavedMsg struct {
	path string
	err  error
}

func frameCmd(fps int) tea.Cmd {
	return tea.Tick(time.Second/time.Duration(max(fps, 1)), func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func detectTickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return detectTickMsg(t)
	})
}

// exportStepCmd yields to the event loop before the next export batch so
// frames and key presses interleave with the export.
func exportStepCmd(seq uint64) tea.Cmd {
	return func() tea.Msg {
		return exportStepMsg{seq: seq}
	}
}

func loadMediaCmd(gen uint64, path string) tea.Cmd {
	return func() tea.Msg {
		src, err := media.Open(path)
		return mediaLoadedMsg{gen: gen, path: path, src: src, err: err}
	}
}
