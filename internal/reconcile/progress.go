package reconcile

import (
	"fmt"

	"github.com/wayline-labs/tripweaver/internal/trip"
)

// State tracks a day/category pair through the reconciliation pipeline.
type State string

const (
	StatePending     State = "pending"
	StateFetching    State = "fetching"
	StateNormalizing State = "normalizing"
	StateResolving   State = "resolving"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

// Event is emitted as the engine moves a day (or one of its categories)
// through the state machine.
type Event struct {
	Day      int
	Category trip.Category // empty for day-level events
	State    State
	Message  string
}

// ProgressReporter emits events through a buffered channel.
type ProgressReporter struct {
	ch chan Event
}

// NewProgressReporter creates a ProgressReporter with a buffered channel of size 64.
func NewProgressReporter() *ProgressReporter {
	return &ProgressReporter{ch: make(chan Event, 64)}
}

// Emit sends an event in a non-blocking fashion. If the channel is full, the
// event is silently dropped.
func (pr *ProgressReporter) Emit(ev Event) {
	select {
	case pr.ch <- ev:
	default:
	}
}

// Subscribe returns a read-only channel for consuming events.
func (pr *ProgressReporter) Subscribe() <-chan Event {
	return pr.ch
}

// Close closes the event channel.
func (pr *ProgressReporter) Close() {
	close(pr.ch)
}

// FormatEvent formats an Event as a human-readable status line.
func FormatEvent(ev Event) string {
	scope := fmt.Sprintf("day %d", ev.Day+1)
	if ev.Category != "" {
		scope += "/" + string(ev.Category)
	}
	switch ev.State {
	case StatePending:
		return fmt.Sprintf("  ○ %s (pending)", scope)
	case StateFetching, StateNormalizing, StateResolving:
		return fmt.Sprintf("  ● %s %s...", scope, ev.State)
	case StateDone:
		return fmt.Sprintf("  ✓ %s done", scope)
	case StateFailed:
		return fmt.Sprintf("  ✗ %s failed: %s", scope, ev.Message)
	default:
		return fmt.Sprintf("  ? %s (unknown state)", scope)
	}
}
