package practice

// StateType is the state of the turn sequencer.
type StateType int

const (
	// StateIdle is the state before the first line is entered.
	StateIdle StateType = iota
	// StateAwaitingSystemSpeech indicates a line of another character is being spoken.
	StateAwaitingSystemSpeech
	// StateAwaitingUserSpeech indicates the learner is expected to say the current line.
	StateAwaitingUserSpeech
	// StateScoring indicates the learner's transcript is being scored.
	StateScoring
	// StateAwaitingAdvance indicates a scored line waits for "next" or "repeat".
	StateAwaitingAdvance
	// StateComplete indicates every line has been walked.
	StateComplete
)

// String returns the string representation of the state.
func (s StateType) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingSystemSpeech:
		return "awaiting-system-speech"
	case StateAwaitingUserSpeech:
		return "awaiting-user-speech"
	case StateScoring:
		return "scoring"
	case StateAwaitingAdvance:
		return "awaiting-advance"
	case StateComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// StateMachine guards the sequencer's state transitions.
type StateMachine struct {
	current     StateType
	transitions map[StateType][]StateType
	onEnter     map[StateType]func()
	onExit      map[StateType]func()
}

// NewStateMachine creates a state machine with the sequencer's transitions.
// Speech states may lead to each other because consecutive lines can belong
// to the same side.
func NewStateMachine() *StateMachine {
	return &StateMachine{
		current: StateIdle,
		transitions: map[StateType][]StateType{
			StateIdle:                 {StateAwaitingSystemSpeech, StateAwaitingUserSpeech},
			StateAwaitingSystemSpeech: {StateAwaitingSystemSpeech, StateAwaitingUserSpeech, StateComplete},
			StateAwaitingUserSpeech:   {StateScoring, StateAwaitingSystemSpeech, StateAwaitingUserSpeech, StateComplete},
			StateScoring:              {StateAwaitingAdvance},
			StateAwaitingAdvance:      {StateAwaitingSystemSpeech, StateAwaitingUserSpeech, StateComplete},
			StateComplete:             {},
		},
		onEnter: make(map[StateType]func()),
		onExit:  make(map[StateType]func()),
	}
}

// Transition attempts to transition to the specified state.
func (sm *StateMachine) Transition(to StateType) bool {
	if !sm.CanTransition(to) {
		return false
	}

	if exitFn, ok := sm.onExit[sm.current]; ok && exitFn != nil {
		exitFn()
	}

	sm.current = to

	if enterFn, ok := sm.onEnter[to]; ok && enterFn != nil {
		enterFn()
	}

	return true
}

// CanTransition reports whether moving to the given state is allowed.
func (sm *StateMachine) CanTransition(to StateType) bool {
	for _, state := range sm.transitions[sm.current] {
		if state == to {
			return true
		}
	}
	return false
}

// Current returns the current state.
func (sm *StateMachine) Current() StateType {
	return sm.current
}

// OnEnter registers a callback for entering a state.
func (sm *StateMachine) OnEnter(state StateType, fn func()) {
	sm.onEnter[state] = fn
}

// OnExit registers a callback for exiting a state.
func (sm *StateMachine) OnExit(state StateType, fn func()) {
	sm.onExit[state] = fn
}
