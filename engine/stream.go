package engine

import (
	"context"

	"github.com/BaSui01/reagent/gateway"
	"github.com/BaSui01/reagent/types"
)

// EventType tags one streamed loop event.
type EventType string

const (
	EventStatus      EventType = "status"
	EventThought     EventType = "thought"
	EventToolCall    EventType = "tool_call"
	EventObservation EventType = "observation"
	EventFinal       EventType = "final"
	EventDone        EventType = "done"
)

// Event is one element of the streamed loop sequence. A done event closes
// the stream; Result is set only there, Err only when the loop was
// cancelled.
type Event struct {
	Type     EventType       `json:"type"`
	Data     string          `json:"data,omitempty"`
	ToolCall *types.ToolCall `json:"tool_call,omitempty"`
	Result   *Result         `json:"-"`
	Err      error           `json:"-"`
}

// RunStream executes the loop like Run but delivers events incrementally.
// The sequence is finite and non-restartable: it ends with exactly one
// done event and the channel closes. The consumer stops early by
// cancelling ctx; the loop then finishes its in-flight call and stops
// without further work.
func (e *Engine) RunStream(ctx context.Context, state *types.AgentState, history []gateway.Message, userID string) <-chan Event {
	events := make(chan Event)

	go func() {
		defer close(events)

		emit := func(ev Event) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		res, err := e.runLoop(ctx, state, history, userID, emit)

		done := Event{Type: EventDone, Result: res, Err: err}
		select {
		case events <- done:
		case <-ctx.Done():
		}
	}()

	return events
}
