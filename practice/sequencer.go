package practice

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/shadow/speech"
)

// DefaultTurnPause is the pause between a spoken line and the next turn.
const DefaultTurnPause = 600 * time.Millisecond

// Scheduler runs f after d. The returned function cancels f if it has not run.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

type timerScheduler struct{}

func (timerScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithTurnPause sets the pause after a system line before the next turn.
func WithTurnPause(d time.Duration) Option {
	return func(s *Sequencer) {
		if d >= 0 {
			s.pause = d
		}
	}
}

// WithScheduler replaces the timer used for turn pauses.
func WithScheduler(sched Scheduler) Option {
	return func(s *Sequencer) {
		if sched != nil {
			s.sched = sched
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Sequencer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithEventHandler registers the function receiving events. Events are
// delivered in order, one at a time. The handler must not call Sequencer
// actions on its own goroutine; it may call Snapshot.
func WithEventHandler(fn func(Event)) Option {
	return func(s *Sequencer) {
		s.onEvent = fn
	}
}

// Sequencer walks a session line by line. Lines of other characters are
// spoken through the speech output; the learner's lines are recognized
// through the speech input and scored. It owns the output and input for the
// lifetime of the session.
//
// Every speech callback is tied to the turn that started it, so callbacks
// arriving after the learner skipped, repeated or left the session are
// dropped.
type Sequencer struct {
	session *Session
	out     speech.Output
	in      speech.Input
	machine *StateMachine
	pause   time.Duration
	sched   Scheduler
	logger  *log.Logger
	onEvent func(Event)

	mu         sync.Mutex
	emitMu     sync.Mutex
	effectMu   sync.Mutex // held while adapter calls run; Close waits on it
	turn       uint64
	closed     bool
	started    bool
	stuck      bool
	lastErr    *Error
	transcript string
	listening  bool
	stopTimer  func() bool
}

// batch collects what a locked step decided: events to publish and adapter
// calls to make once the lock is released.
type batch struct {
	events  []Event
	effects []func()
}

func (b *batch) emit(e Event)   { b.events = append(b.events, e) }
func (b *batch) then(fn func()) { b.effects = append(b.effects, fn) }

// NewSequencer creates a sequencer for session.
func NewSequencer(session *Session, out speech.Output, in speech.Input, opts ...Option) *Sequencer {
	s := &Sequencer{
		session: session,
		out:     out,
		in:      in,
		machine: NewStateMachine(),
		pause:   DefaultTurnPause,
		sched:   timerScheduler{},
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithPrefix("sequencer")

	// Hooks run with s.mu held.
	s.machine.OnExit(StateAwaitingSystemSpeech, s.stopTimerLocked)
	s.machine.OnEnter(StateComplete, func() {
		p := s.session.Progress()
		s.logger.Info("Practice complete", "scene", s.session.Scene().ID, "progress", p.String(), "average", p.AverageScore)
	})
	return s
}

// stopTimerLocked cancels a pending turn pause.
func (s *Sequencer) stopTimerLocked() {
	if s.stopTimer != nil {
		s.stopTimer()
		s.stopTimer = nil
	}
}

// unlock releases the state lock and publishes b. Events are published in
// the order the state changed; adapter calls run afterwards so their
// callbacks can re-enter the sequencer. Adapter calls never overlap with
// each other or with Close.
func (s *Sequencer) unlock(b *batch) {
	s.emitMu.Lock()
	s.mu.Unlock()
	if s.onEvent != nil {
		for _, e := range b.events {
			s.onEvent(e)
		}
	}
	s.emitMu.Unlock()

	if len(b.effects) == 0 {
		return
	}
	s.effectMu.Lock()
	defer s.effectMu.Unlock()
	for _, fn := range b.effects {
		fn()
	}
}

// live reports whether turn is still current and the session open.
func (s *Sequencer) live(turn uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && turn == s.turn
}

// Start enters the first line.
func (s *Sequencer) Start() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("%w: already started", ErrInvalidAction)
	}
	s.started = true

	b := &batch{}
	s.logger.Debug("Starting practice",
		"scene", s.session.Scene().ID,
		"character", s.session.Character(),
		"lines", s.session.Total())
	s.enterLineLocked(b)
	s.unlock(b)
	return nil
}

// enterLineLocked moves the machine to the state for the current line.
func (s *Sequencer) enterLineLocked(b *batch) {
	s.turn++
	s.transcript = ""
	s.listening = false
	s.stuck = false
	s.lastErr = nil

	line, ok := s.session.Line()
	if !ok {
		if s.transitionLocked(b, StateComplete) {
			b.emit(CompletedEvent{Progress: s.session.Progress(), Results: s.session.Results()})
		}
		return
	}

	idx := s.session.Index()
	if s.session.IsUserLine(idx) {
		s.transitionLocked(b, StateAwaitingUserSpeech)
		if !s.in.Supported() {
			s.failLocked(b, idx, speech.ErrRecognitionUnsupported)
		}
		return
	}

	s.transitionLocked(b, StateAwaitingSystemSpeech)
	s.speakLocked(b, idx, line.Text)
}

func (s *Sequencer) transitionLocked(b *batch, to StateType) bool {
	prev := s.machine.Current()
	if !s.machine.Transition(to) {
		s.logger.Debug("Rejected transition", "from", prev, "to", to)
		return false
	}
	b.emit(StateChangedEvent{
		State: to,
		Prev:  prev,
		Line:  s.session.Index(),
		Total: s.session.Total(),
	})
	return true
}

func (s *Sequencer) failLocked(b *batch, idx int, err error) {
	e := classify(idx, err)
	s.lastErr = e
	s.stuck = s.machine.Current() == StateAwaitingSystemSpeech || !e.Recoverable()
	s.logger.Warn("Line failed", "line", idx, "code", e.Code, "err", err, "stuck", s.stuck)
	b.emit(ErrorEvent{Err: e, Stuck: s.stuck})
}

// speakLocked asks the speech output to say a system line.
func (s *Sequencer) speakLocked(b *batch, idx int, text string) {
	if !s.out.Supported() {
		s.failLocked(b, idx, speech.ErrOutputUnsupported)
		return
	}
	turn := s.turn
	b.then(func() {
		if !s.live(turn) {
			return
		}
		s.out.Speak(text, func(err error) {
			s.spoken(turn, idx, err)
		})
	})
}

// spoken handles the end of a system line.
func (s *Sequencer) spoken(turn uint64, idx int, err error) {
	s.mu.Lock()
	if s.closed || turn != s.turn || s.machine.Current() != StateAwaitingSystemSpeech {
		s.mu.Unlock()
		return
	}

	b := &batch{}
	if err != nil {
		s.failLocked(b, idx, err)
		s.unlock(b)
		return
	}

	result := LineResult{Index: idx, Score: MaxScore}
	if err := s.session.Record(result); err != nil {
		s.logger.Error("Could not record line", "line", idx, "err", err)
	} else {
		b.emit(LineResultEvent{Result: result, Progress: s.session.Progress()})
	}

	s.stopTimer = s.sched.AfterFunc(s.pause, func() {
		s.autoAdvance(turn)
	})
	s.unlock(b)
}

// autoAdvance moves past a spoken line once the turn pause has elapsed.
func (s *Sequencer) autoAdvance(turn uint64) {
	s.mu.Lock()
	if s.closed || turn != s.turn || s.machine.Current() != StateAwaitingSystemSpeech {
		s.mu.Unlock()
		return
	}
	s.stopTimer = nil

	b := &batch{}
	s.session.Advance()
	s.enterLineLocked(b)
	s.unlock(b)
}

// StartRecording starts recognizing the learner's line.
func (s *Sequencer) StartRecording() error {
	s.mu.Lock()
	if err := s.checkLocked(StateAwaitingUserSpeech); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.listening {
		s.mu.Unlock()
		return speech.ErrAlreadyListening
	}

	b := &batch{}
	idx := s.session.Index()
	if !s.in.Supported() {
		s.failLocked(b, idx, speech.ErrRecognitionUnsupported)
		s.unlock(b)
		return speech.ErrRecognitionUnsupported
	}

	turn := s.turn
	s.listening = true
	s.transcript = ""
	s.lastErr = nil
	b.emit(TranscriptEvent{Line: idx, Listening: true})
	s.unlock(b)

	s.effectMu.Lock()
	if !s.live(turn) {
		s.effectMu.Unlock()
		if err := s.check(StateAwaitingUserSpeech); err != nil {
			return err
		}
		return fmt.Errorf("%w: line changed", ErrInvalidAction)
	}
	err := s.in.Start(
		func(text string) { s.hearing(turn, idx, text) },
		func(text string, err error) { s.heard(turn, idx, text, err) },
	)
	s.effectMu.Unlock()
	if err != nil {
		s.heard(turn, idx, "", err)
		return err
	}
	return nil
}

// hearing forwards interim transcripts.
func (s *Sequencer) hearing(turn uint64, idx int, text string) {
	s.mu.Lock()
	if s.closed || turn != s.turn || !s.listening {
		s.mu.Unlock()
		return
	}
	s.transcript = text
	b := &batch{}
	b.emit(TranscriptEvent{Line: idx, Transcript: text, Listening: true})
	s.unlock(b)
}

// heard handles the end of a recognition session.
func (s *Sequencer) heard(turn uint64, idx int, text string, err error) {
	s.mu.Lock()
	if s.closed || turn != s.turn || s.machine.Current() != StateAwaitingUserSpeech {
		s.mu.Unlock()
		return
	}

	b := &batch{}
	s.listening = false
	s.transcript = text
	b.emit(TranscriptEvent{Line: idx, Transcript: text, Listening: false})

	switch {
	case err != nil:
		s.failLocked(b, idx, err)
	case strings.TrimSpace(text) == "":
		s.logger.Debug("Nothing recognized", "line", idx)
	default:
		s.transitionLocked(b, StateScoring)
		line := s.session.Scene().Lines[idx]
		result := LineResult{Index: idx, Score: Score(line.Text, text), Transcript: text}
		if err := s.session.Record(result); err != nil {
			s.logger.Error("Could not record line", "line", idx, "err", err)
		} else {
			s.logger.Debug("Scored line", "line", idx, "score", result.Score)
			b.emit(LineResultEvent{Result: result, Progress: s.session.Progress()})
		}
		s.transitionLocked(b, StateAwaitingAdvance)
	}
	s.unlock(b)
}

// StopRecording ends recognition early. The transcript heard so far is
// scored when the recognizer reports the end of the session.
func (s *Sequencer) StopRecording() error {
	s.mu.Lock()
	if err := s.checkLocked(StateAwaitingUserSpeech); err != nil {
		s.mu.Unlock()
		return err
	}
	listening := s.listening
	s.mu.Unlock()

	if listening {
		s.in.Stop()
	}
	return nil
}

// Next advances past a scored line. It does nothing once the session is
// complete.
func (s *Sequencer) Next() error {
	s.mu.Lock()
	if s.machine.Current() == StateComplete && !s.closed {
		s.mu.Unlock()
		return nil
	}
	if err := s.checkLocked(StateAwaitingAdvance); err != nil {
		s.mu.Unlock()
		return err
	}

	b := &batch{}
	s.session.Advance()
	s.enterLineLocked(b)
	s.unlock(b)
	return nil
}

// Repeat deletes the current line's result so the learner can try it again.
func (s *Sequencer) Repeat() error {
	s.mu.Lock()
	if err := s.checkLocked(StateAwaitingAdvance); err != nil {
		s.mu.Unlock()
		return err
	}

	b := &batch{}
	idx := s.session.Index()
	s.session.Forget(idx)
	s.turn++
	s.transcript = ""
	s.lastErr = nil
	b.emit(LineForgottenEvent{Line: idx})
	s.transitionLocked(b, StateAwaitingUserSpeech)
	b.then(s.in.Reset)
	s.unlock(b)
	return nil
}

// Retry speaks a system line again after speaking it failed.
func (s *Sequencer) Retry() error {
	s.mu.Lock()
	if err := s.checkLocked(StateAwaitingSystemSpeech); err != nil {
		s.mu.Unlock()
		return err
	}
	if !s.stuck {
		s.mu.Unlock()
		return fmt.Errorf("%w: line is not stuck", ErrInvalidAction)
	}

	b := &batch{}
	idx := s.session.Index()
	s.turn++
	s.stuck = false
	s.lastErr = nil
	s.speakLocked(b, idx, s.session.Scene().Lines[idx].Text)
	s.unlock(b)
	return nil
}

// Skip leaves the current line without recording a result. It is the way
// out of a line that cannot be spoken or recognized.
func (s *Sequencer) Skip() error {
	s.mu.Lock()
	if err := s.checkLocked(StateAwaitingSystemSpeech, StateAwaitingUserSpeech); err != nil {
		s.mu.Unlock()
		return err
	}

	b := &batch{}
	if s.machine.Current() == StateAwaitingSystemSpeech {
		b.then(s.out.Stop)
	} else if s.listening {
		b.then(s.in.Reset)
	}
	s.logger.Debug("Skipping line", "line", s.session.Index())
	s.session.Advance()
	s.enterLineLocked(b)
	s.unlock(b)
	return nil
}

// Pause pauses the system line being spoken.
func (s *Sequencer) Pause() error {
	if err := s.check(StateAwaitingSystemSpeech); err != nil {
		return err
	}
	return s.out.Pause()
}

// Resume resumes a paused system line.
func (s *Sequencer) Resume() error {
	if err := s.check(StateAwaitingSystemSpeech); err != nil {
		return err
	}
	return s.out.Resume()
}

// SetRate changes the speaking rate of system lines.
func (s *Sequencer) SetRate(rate float64) error {
	return s.out.SetRate(rate)
}

// Rate returns the speaking rate of system lines.
func (s *Sequencer) Rate() float64 {
	return s.out.Rate()
}

// Close ends the session. Speech and recognition stop before Close returns
// and no callback of this session has any effect afterwards.
func (s *Sequencer) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.turn++
	s.stopTimerLocked()
	s.listening = false
	s.mu.Unlock()

	s.effectMu.Lock()
	s.out.Stop()
	s.in.Reset()
	s.effectMu.Unlock()
	s.logger.Debug("Practice closed", "scene", s.session.Scene().ID)
}

func (s *Sequencer) check(states ...StateType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkLocked(states...)
}

func (s *Sequencer) checkLocked(states ...StateType) error {
	if s.closed {
		return ErrSessionClosed
	}
	current := s.machine.Current()
	for _, st := range states {
		if current == st {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidAction, current)
}

// Snapshot is a consistent copy of the sequencer's observable state.
type Snapshot struct {
	State      StateType
	Index      int
	Total      int
	Character  string
	Line       DialogueLine // zero when complete
	UserTurn   bool
	Transcript string
	Listening  bool
	Stuck      bool
	Err        *Error
	Results    []LineResult
	Progress   Progress
	Closed     bool
}

// Snapshot returns the current state.
func (s *Sequencer) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	line, _ := s.session.Line()
	return Snapshot{
		State:      s.machine.Current(),
		Index:      s.session.Index(),
		Total:      s.session.Total(),
		Character:  s.session.Character(),
		Line:       line,
		UserTurn:   s.session.IsUserLine(s.session.Index()),
		Transcript: s.transcript,
		Listening:  s.listening,
		Stuck:      s.stuck,
		Err:        s.lastErr,
		Results:    s.session.Results(),
		Progress:   s.session.Progress(),
		Closed:     s.closed,
	}
}

// State returns the current state.
func (s *Sequencer) State() StateType {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Current()
}

// Session returns the session being practiced. It must not be modified.
func (s *Sequencer) Session() *Session {
	return s.session
}
