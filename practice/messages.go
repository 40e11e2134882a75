package practice

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// Messages for Bubble Tea communication between the sequencer and the UI.
// Sequencer events are delivered as messages as they are.

// ActionDoneMsg reports the outcome of a sequencer action run as a command.
type ActionDoneMsg struct {
	Action string
	Err    error
}

// EventsClosedMsg indicates the event queue was closed.
type EventsClosedMsg struct{}

// EventQueue buffers sequencer events for the UI. Push never blocks, so a
// slow UI cannot stall the sequencer.
type EventQueue struct {
	mu     sync.Mutex
	events []Event
	ready  chan struct{}
	closed bool
}

// NewEventQueue creates an empty queue.
func NewEventQueue() *EventQueue {
	return &EventQueue{ready: make(chan struct{}, 1)}
}

// Push appends an event. It is meant to be passed to WithEventHandler.
func (q *EventQueue) Push(e Event) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.events = append(q.events, e)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Next blocks until an event is available. It returns false once the queue
// is closed and drained.
func (q *EventQueue) Next() (Event, bool) {
	for {
		q.mu.Lock()
		if len(q.events) > 0 {
			e := q.events[0]
			q.events = q.events[1:]
			q.mu.Unlock()
			return e, true
		}
		if q.closed {
			q.mu.Unlock()
			return nil, false
		}
		q.mu.Unlock()
		<-q.ready
	}
}

// Close wakes any waiting reader. Pending events are still delivered.
func (q *EventQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// WaitForEvent returns a command delivering the next event. The UI issues it
// again after every event it receives.
func WaitForEvent(q *EventQueue) tea.Cmd {
	return func() tea.Msg {
		e, ok := q.Next()
		if !ok {
			return EventsClosedMsg{}
		}
		return e
	}
}

// ActionCmd runs a sequencer action off the UI goroutine.
func ActionCmd(name string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		return ActionDoneMsg{Action: name, Err: fn()}
	}
}
