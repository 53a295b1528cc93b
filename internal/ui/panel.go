package ui

// PanelMode is the visibility of the control panel.
type PanelMode int

const (
	PanelOpen PanelMode = iota
	PanelMinimized
	PanelHidden
)

// Toggle shows a hidden panel and hides a visible one.
func (p PanelMode) Toggle() PanelMode {
	if p == PanelHidden {
		return PanelOpen
	}
	return PanelHidden
}

// Minimize switches between the full and the one-line panel.
func (p PanelMode) Minimize() PanelMode {
	if p == PanelMinimized {
		return PanelOpen
	}
	return PanelMinimized
}

// String returns the name of the panel mode.
func (p PanelMode) String() string {
	switch p {
	case PanelMinimized:
		return "minimized"
	case PanelHidden:
		return "hidden"
	default:
		return "open"
	}
}

// Lines is how many terminal rows the panel occupies.
func (p PanelMode) Lines() int {
	switch p {
	case PanelHidden:
		return 0
	case PanelMinimized:
		return 2
	default:
		return 14
	}
}
