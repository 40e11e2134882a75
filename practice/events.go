package practice

// Event is emitted by the Sequencer whenever its observable state changes.
type Event interface {
	event()
}

// StateChangedEvent indicates the sequencer moved to a new state.
type StateChangedEvent struct {
	State StateType
	Prev  StateType
	Line  int // current line index
	Total int
}

// LineResultEvent indicates a line result was recorded.
type LineResultEvent struct {
	Result   LineResult
	Progress Progress
}

// LineForgottenEvent indicates a line result was deleted to try the line again.
type LineForgottenEvent struct {
	Line int
}

// TranscriptEvent carries the learner's transcript while recognition runs
// and once more when it ends.
type TranscriptEvent struct {
	Line       int
	Transcript string
	Listening  bool
}

// ErrorEvent indicates a speech failure. Stuck lines can only be retried or
// skipped.
type ErrorEvent struct {
	Err   *Error
	Stuck bool
}

// CompletedEvent is emitted exactly once, when the last line is done.
type CompletedEvent struct {
	Progress Progress
	Results  []LineResult
}

func (StateChangedEvent) event()  {}
func (LineResultEvent) event()    {}
func (LineForgottenEvent) event() {}
func (TranscriptEvent) event()    {}
func (ErrorEvent) event()         {}
func (CompletedEvent) event()     {}
