package speech

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
)

// OutputState is the state of a speech output adapter.
type OutputState int

const (
	// OutputIdle indicates nothing is being spoken.
	OutputIdle OutputState = iota
	// OutputSpeaking indicates an utterance is being spoken.
	OutputSpeaking
	// OutputPaused indicates the utterance in flight is paused.
	OutputPaused
	// OutputError indicates the last utterance failed.
	OutputError
)

// String returns the string representation of the state.
func (s OutputState) String() string {
	switch s {
	case OutputIdle:
		return "idle"
	case OutputSpeaking:
		return "speaking"
	case OutputPaused:
		return "paused"
	case OutputError:
		return "error"
	default:
		return "unknown"
	}
}

// Speaker implements Output on top of a platform Synthesizer. Only one
// utterance is in flight at a time; starting a new one cancels the previous
// utterance without reporting an error.
type Speaker struct {
	synth  Synthesizer
	logger *log.Logger

	mu      sync.Mutex
	state   OutputState
	rate    float64
	voice   Voice
	cached  bool
	gen     uint64
	cancel  context.CancelFunc
	lastErr error

	onStateChange func(OutputState)
}

// NewSpeaker creates a speaker for synth. A nil synth is treated as an
// unsupported platform.
func NewSpeaker(synth Synthesizer, logger *log.Logger) *Speaker {
	if logger == nil {
		logger = log.Default()
	}
	return &Speaker{
		synth:  synth,
		logger: logger.WithPrefix("speaker"),
		rate:   DefaultRate,
	}
}

// OnStateChange registers a callback for state changes. The callback runs
// without the speaker's lock held.
func (s *Speaker) OnStateChange(fn func(OutputState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onStateChange = fn
}

// Supported reports whether the platform can synthesize speech.
func (s *Speaker) Supported() bool {
	return s.synth != nil && s.synth.Available()
}

// Speak cancels any utterance in flight and speaks text.
func (s *Speaker) Speak(text string, onEnd func(error)) {
	if !s.Supported() {
		s.mu.Lock()
		s.lastErr = ErrOutputUnsupported
		notify := s.setStateLocked(OutputError)
		s.mu.Unlock()
		notify()
		if onEnd != nil {
			onEnd(fmt.Errorf("%w: %w", ErrSynthesisFailed, ErrOutputUnsupported))
		}
		return
	}

	s.mu.Lock()
	s.releasePauseLocked()
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	gen := s.gen
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.lastErr = nil

	u := Utterance{Text: text, Voice: s.pickVoiceLocked(), Rate: s.rate}
	notify := s.setStateLocked(OutputSpeaking)
	s.mu.Unlock()
	notify()

	s.logger.Debug("Speaking", "text", text, "voice", u.Voice.Name, "rate", u.Rate)

	go func() {
		err := s.synth.Utter(ctx, u)
		cancel()
		s.finish(ctx, gen, err, onEnd)
	}()
}

// finish settles an utterance. Results from stale generations are dropped.
func (s *Speaker) finish(ctx context.Context, gen uint64, err error, onEnd func(error)) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.cancel = nil

	canceled := errors.Is(err, ErrCanceled) || (errors.Is(err, context.Canceled) && ctx.Err() != nil)
	var notify func()
	switch {
	case canceled:
		s.mu.Unlock()
		return
	case err != nil:
		s.lastErr = fmt.Errorf("%w: %w", ErrSynthesisFailed, err)
		err = s.lastErr
		notify = s.setStateLocked(OutputError)
	default:
		notify = s.setStateLocked(OutputIdle)
	}
	s.mu.Unlock()
	notify()

	if err != nil {
		s.logger.Warn("Utterance failed", "err", err)
	}
	if onEnd != nil {
		onEnd(err)
	}
}

// pickVoiceLocked returns the cached voice, selecting one if the platform
// has published its voices since the last attempt.
func (s *Speaker) pickVoiceLocked() Voice {
	if s.cached {
		return s.voice
	}
	if v, ok := PickVoice(s.synth.Voices()); ok {
		s.voice = v
		s.cached = true
		s.logger.Debug("Selected voice", "voice", v.Name, "lang", v.Language)
		return v
	}
	return Voice{}
}

// Pause pauses the utterance in flight.
func (s *Speaker) Pause() error {
	s.mu.Lock()
	if s.state != OutputSpeaking {
		s.mu.Unlock()
		return nil
	}
	if err := s.synth.Pause(); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to pause speech: %w", err)
	}
	notify := s.setStateLocked(OutputPaused)
	s.mu.Unlock()
	notify()
	return nil
}

// Resume resumes a paused utterance.
func (s *Speaker) Resume() error {
	s.mu.Lock()
	if s.state != OutputPaused {
		s.mu.Unlock()
		return nil
	}
	if err := s.synth.Resume(); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to resume speech: %w", err)
	}
	notify := s.setStateLocked(OutputSpeaking)
	s.mu.Unlock()
	notify()
	return nil
}

// Stop cancels the utterance in flight. Its onEnd callback never fires.
func (s *Speaker) Stop() {
	s.mu.Lock()
	s.releasePauseLocked()
	s.gen++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	var notify func()
	if s.state == OutputSpeaking || s.state == OutputPaused {
		notify = s.setStateLocked(OutputIdle)
	}
	s.mu.Unlock()
	if notify != nil {
		notify()
	}
}

// Rate returns the speaking rate.
func (s *Speaker) Rate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rate
}

// SetRate sets the speaking rate used by subsequent utterances.
func (s *Speaker) SetRate(rate float64) error {
	if !ValidRate(rate) {
		return fmt.Errorf("%w: %v", ErrInvalidRate, rate)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rate = rate
	return nil
}

// State returns the speaker state.
func (s *Speaker) State() OutputState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the error of the last failed utterance.
func (s *Speaker) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Voice returns the cached voice and whether one has been selected.
func (s *Speaker) Voice() (Voice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.voice, s.cached
}

// releasePauseLocked resumes the platform so a paused engine does not hold
// the next utterance.
func (s *Speaker) releasePauseLocked() {
	if s.state != OutputPaused {
		return
	}
	if err := s.synth.Resume(); err != nil {
		s.logger.Debug("Could not release pause", "err", err)
	}
}

func (s *Speaker) setStateLocked(state OutputState) func() {
	if s.state == state {
		return func() {}
	}
	s.state = state
	fn := s.onStateChange
	return func() {
		if fn != nil {
			fn(state)
		}
	}
}
