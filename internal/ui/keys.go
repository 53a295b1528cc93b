package ui

import tea "github.com/charmbracelet/bubbletea"

func isQuit(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "q", "ctrl+c":
		return true
	}
	return false
}

func helpText(mode PanelMode, exporting bool) string {
	if mode == PanelMinimized {
		return "p panel  m expand  q quit"
	}
	s := "↑/↓ select  ←/→ adjust (shift ×10)  o open  e export"
	if exporting {
		s += "  x cancel"
	}
	s += "  u unbind  w save config  p panel  m minimize  q quit"
	return s
}
