// Package mock provides simulated speech platforms for demos and testing.
package mock

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dgnsrekt/shadow/speech"
)

const tick = 20 * time.Millisecond

// Synthesizer pretends to speak: an utterance takes as long as reading the
// text aloud at WordsPerMinute would.
type Synthesizer struct {
	WordsPerMinute int
	Fail           error // returned by every Utter when set

	// VoicesAfter simulates platforms that load voices lazily: Voices
	// returns nothing for the first VoicesAfter calls.
	VoicesAfter int

	mu        sync.Mutex
	paused    bool
	calls     int
	utterance []speech.Utterance
}

// NewSynthesizer creates a mock synthesizer speaking at 150 words per minute.
func NewSynthesizer() *Synthesizer {
	return &Synthesizer{WordsPerMinute: 150}
}

// Available always reports true.
func (s *Synthesizer) Available() bool { return true }

// Voices returns a fixed voice list.
func (s *Synthesizer) Voices() []speech.Voice {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls <= s.VoicesAfter {
		return nil
	}
	return []speech.Voice{
		{ID: "mock-local", Name: "Mock Local", Language: "en-US", Local: true, Quality: "low"},
		{ID: "mock-network", Name: "Mock Network", Language: "en-GB", Quality: "high"},
	}
}

// Utter blocks for the estimated speaking time of u, not counting pauses.
func (s *Synthesizer) Utter(ctx context.Context, u speech.Utterance) error {
	s.mu.Lock()
	s.utterance = append(s.utterance, u)
	s.mu.Unlock()

	if s.Fail != nil {
		return s.Fail
	}

	remaining := Duration(u.Text, s.WordsPerMinute, u.Rate)
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for remaining > 0 {
		select {
		case <-ctx.Done():
			return speech.ErrCanceled
		case <-ticker.C:
			s.mu.Lock()
			paused := s.paused
			s.mu.Unlock()
			if !paused {
				remaining -= tick
			}
		}
	}
	return nil
}

// Pause pauses all speech.
func (s *Synthesizer) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
	return nil
}

// Resume resumes all speech.
func (s *Synthesizer) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
	return nil
}

// Spoken returns the utterances received so far.
func (s *Synthesizer) Spoken() []speech.Utterance {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]speech.Utterance, len(s.utterance))
	copy(out, s.utterance)
	return out
}

// Duration estimates how long text takes to say at wpm words per minute and
// the given rate multiplier.
func Duration(text string, wpm int, rate float64) time.Duration {
	if wpm <= 0 {
		wpm = 150
	}
	if rate <= 0 {
		rate = 1
	}
	words := len(strings.Fields(text))
	d := time.Duration(float64(words) / float64(wpm) * float64(time.Minute) / rate)
	if d < 200*time.Millisecond {
		d = 200 * time.Millisecond
	}
	return d
}

// Recognizer pretends to listen: it "hears" whatever Phrase returns, word by
// word as interim results followed by a final result.
type Recognizer struct {
	Phrase    func() string
	WordDelay time.Duration
	ErrorCode string // when set, every session fails with this platform code
}

// NewRecognizer creates a mock recognizer hearing the phrases phrase returns.
func NewRecognizer(phrase func() string) *Recognizer {
	return &Recognizer{Phrase: phrase, WordDelay: 150 * time.Millisecond}
}

// Available always reports true.
func (r *Recognizer) Available() bool { return true }

// Recognize emits the phrase word by word.
func (r *Recognizer) Recognize(ctx context.Context, _ speech.RecognitionOptions, events chan<- speech.RecognitionEvent) error {
	if err := speech.ErrorFromCode(r.ErrorCode); err != nil {
		return err
	}

	var phrase string
	if r.Phrase != nil {
		phrase = r.Phrase()
	}
	words := strings.Fields(phrase)
	if len(words) == 0 {
		return speech.ErrorFromCode("no-speech")
	}

	for i := range words {
		select {
		case <-ctx.Done():
			return speech.ErrAborted
		case <-time.After(r.WordDelay):
		}
		ev := speech.RecognitionEvent{Segments: []speech.Segment{{
			Text:  strings.Join(words[:i+1], " "),
			Final: i == len(words)-1,
		}}}
		select {
		case events <- ev:
		case <-ctx.Done():
			return speech.ErrAborted
		}
	}
	return nil
}
