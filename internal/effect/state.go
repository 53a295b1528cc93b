package effect

// State is the controller lifecycle state.
type State uint8

const (
	Idle State = iota
	MediaLoading
	Ready
	Exporting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case MediaLoading:
		return "loading"
	case Ready:
		return "ready"
	case Exporting:
		return "exporting"
	}
	return "unknown"
}
