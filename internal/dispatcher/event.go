package dispatcher

import (
	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/chat"
)

// EventType identifies the kind of Event
type EventType int

const (
	// EventProgress is sent before each chunk is dispatched
	EventProgress EventType = iota
	// EventPartial carries the merged content after a successful chunk
	EventPartial
	// EventComplete carries the finalized message and ordered results
	EventComplete
	// EventFailed carries the error message for a turn that could not finish
	EventFailed
)

func (t EventType) String() string {
	switch t {
	case EventProgress:
		return "progress"
	case EventPartial:
		return "partial"
	case EventComplete:
		return "complete"
	case EventFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Phase is the state of a run
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseSplitting
	PhaseDispatching
	PhaseMerging
	PhaseComplete
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSplitting:
		return "splitting"
	case PhaseDispatching:
		return "dispatching"
	case PhaseMerging:
		return "merging"
	case PhaseComplete:
		return "complete"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event reports the progress of a run. Exactly one EventComplete or
// EventFailed is sent per run, after which the channel is closed.
type Event struct {
	Type     EventType
	Phase    Phase
	Progress chat.Progress
	Message  chat.Message
	Results  []chat.ChunkResult
	Err      error
}

// Terminal reports whether e ends the run
func (e Event) Terminal() bool {
	return e.Type == EventComplete || e.Type == EventFailed
}
