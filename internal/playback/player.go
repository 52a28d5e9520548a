// Package playback owns the playback session state machine: source selection,
// resume, seamless quality switching and the next-episode countdown. Decoding and
// rendering are delegated to the platform media player behind Instance.
package playback

import "fmt"

// EventKind identifies a media player callback
type EventKind int

const (
	EventReady EventKind = iota
	EventBufferingStarted
	EventBufferingEnded
	EventTimeUpdate
	EventEnded
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventReady:
		return "ready"
	case EventBufferingStarted:
		return "buffering_started"
	case EventBufferingEnded:
		return "buffering_ended"
	case EventTimeUpdate:
		return "time_update"
	case EventEnded:
		return "ended"
	case EventError:
		return "error"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is one callback from a player instance
type Event struct {
	Kind EventKind
	Err  error // set for EventError
}

// Listener receives the events of one instance.
// Instances must not invoke it synchronously from inside their own methods.
type Listener func(Event)

// Instance is one decode/render instance of the platform media player
type Instance interface {
	Load(url string) error
	Play() error
	Pause() error
	Seek(seconds float64) error
	Position() float64
	Duration() float64
	SetMuted(muted bool)
	SetVisible(visible bool)
	Release()
}

// Factory creates player instances bound to a listener
type Factory interface {
	NewInstance(listener Listener) (Instance, error)
}
