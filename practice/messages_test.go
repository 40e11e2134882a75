package practice

import (
	"errors"
	"testing"
	"time"
)

func TestEventQueueOrder(t *testing.T) {
	q := NewEventQueue()
	q.Push(LineForgottenEvent{Line: 1})
	q.Push(LineForgottenEvent{Line: 2})

	for want := 1; want <= 2; want++ {
		e, ok := q.Next()
		if !ok {
			t.Fatal("Next() reported closed")
		}
		if got := e.(LineForgottenEvent).Line; got != want {
			t.Errorf("Line = %d, want %d", got, want)
		}
	}
}

func TestEventQueueWaits(t *testing.T) {
	q := NewEventQueue()
	got := make(chan Event, 1)
	go func() {
		e, _ := q.Next()
		got <- e
	}()

	time.Sleep(10 * time.Millisecond)
	q.Push(ErrorEvent{Stuck: true})

	select {
	case e := <-got:
		if ev, ok := e.(ErrorEvent); !ok || !ev.Stuck {
			t.Errorf("Next() = %#v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("Next() did not wake up")
	}
}

func TestEventQueueClose(t *testing.T) {
	q := NewEventQueue()
	q.Push(LineForgottenEvent{})
	q.Close()
	q.Push(LineForgottenEvent{Line: 9})

	if _, ok := q.Next(); !ok {
		t.Error("pending event should be delivered after Close")
	}
	if _, ok := q.Next(); ok {
		t.Error("Next() should report closed")
	}
	if msg := WaitForEvent(q)(); msg != (EventsClosedMsg{}) {
		t.Errorf("WaitForEvent() = %#v", msg)
	}
}

func TestActionCmd(t *testing.T) {
	boom := errors.New("boom")
	msg := ActionCmd("next", func() error { return boom })()

	done, ok := msg.(ActionDoneMsg)
	if !ok || done.Action != "next" || !errors.Is(done.Err, boom) {
		t.Errorf("ActionCmd() = %#v", msg)
	}
}
