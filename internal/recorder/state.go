package recorder

import "github.com/fakeyudi/blockrec/internal/notice"

// State is the recorder's lifecycle state.
type State int

const (
	Stopped State = iota
	Recording
	Playing
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Recording:
		return "recording"
	case Playing:
		return "playing"
	}
	return "unknown"
}

// NoticeKey returns the catalog key of the state's display name.
func (s State) NoticeKey() notice.Key {
	switch s {
	case Stopped:
		return notice.StatusStopped
	case Recording:
		return notice.StatusRecording
	case Playing:
		return notice.StatusPlaying
	}
	return notice.StatusUnknown
}
