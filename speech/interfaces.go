// Package speech wraps platform speech synthesis and speech recognition into
// the small contracts the practice sequencer drives: an Output that speaks one
// utterance at a time and an Input that produces a best-effort transcript.
package speech

import (
	"context"
	"errors"
	"strings"
)

// Common speech errors.
var (
	// ErrOutputUnsupported indicates the platform has no speech synthesis.
	ErrOutputUnsupported = errors.New("speech synthesis is not supported")

	// ErrSynthesisFailed indicates the synthesis engine failed to speak.
	ErrSynthesisFailed = errors.New("speech synthesis failed")

	// ErrCanceled indicates an utterance was canceled by Stop or a newer Speak.
	ErrCanceled = errors.New("utterance canceled")

	// ErrInvalidRate indicates a rate outside the supported steps.
	ErrInvalidRate = errors.New("unsupported speech rate")

	// ErrRecognitionUnsupported indicates the platform has no speech recognition.
	ErrRecognitionUnsupported = errors.New("speech recognition is not supported")

	// ErrAlreadyListening is returned when recognition is started twice.
	ErrAlreadyListening = errors.New("speech recognition already running")

	// ErrAborted indicates recognition was stopped by Stop or Reset.
	ErrAborted = errors.New("speech recognition aborted")

	// ErrPermissionDenied indicates microphone access was refused.
	ErrPermissionDenied = errors.New("microphone permission denied")

	// ErrNoSpeech indicates recognition ended without hearing speech.
	ErrNoSpeech = errors.New("no speech detected")
)

// Output is the speak/pause/resume/stop contract of the speech output adapter.
type Output interface {
	// Speak cancels any utterance in flight and speaks text. onEnd, if not
	// nil, is called once with nil when speaking finishes naturally or with an
	// error wrapping ErrSynthesisFailed when it fails. It is never called for
	// utterances canceled by Stop or a newer Speak.
	Speak(text string, onEnd func(error))

	// Pause pauses speaking.
	Pause() error

	// Resume continues a paused utterance.
	Resume() error

	// Stop cancels the utterance in flight, if any.
	Stop()

	// Rate returns the speaking rate multiplier.
	Rate() float64

	// SetRate sets the speaking rate to one of Rates.
	SetRate(rate float64) error

	// State returns the adapter state.
	State() OutputState

	// Supported reports whether the platform can synthesize speech.
	Supported() bool
}

// Input is the start/stop/reset contract of the speech input adapter.
type Input interface {
	// Start begins a single recognition session. onUpdate receives every
	// transcript update; onEnd is called once when the session ends, with
	// the final transcript and the error that ended it. Aborts caused by
	// Stop or Reset are reported as a nil error.
	Start(onUpdate func(transcript string), onEnd func(transcript string, err error)) error

	// Stop ends recognition early; the session still ends through onEnd.
	Stop()

	// Reset aborts recognition and clears the transcript and error.
	Reset()

	// Transcript returns the latest best-effort transcript.
	Transcript() string

	// Listening reports whether a recognition session is running.
	Listening() bool

	// Supported reports whether the platform can recognize speech.
	Supported() bool

	// Err returns the error of the last session, if any.
	Err() error
}

// Synthesizer is a platform speech synthesis capability.
type Synthesizer interface {
	// Available reports whether the platform can speak at all.
	Available() bool

	// Voices returns the voices currently known to the platform. The list may
	// be empty while the platform is still loading voices.
	Voices() []Voice

	// Utter speaks u and blocks until it has been spoken, ctx is canceled
	// or speaking fails.
	Utter(ctx context.Context, u Utterance) error

	// Pause pauses the platform's speech output.
	Pause() error

	// Resume resumes the platform's speech output.
	Resume() error
}

// Utterance is a single request to speak text.
type Utterance struct {
	Text  string
	Voice Voice // zero Voice means the platform default
	Rate  float64
}

// Recognizer is a platform speech recognition capability.
type Recognizer interface {
	// Available reports whether the platform can recognize speech.
	Available() bool

	// Recognize runs one recognition session, sending events until the
	// platform ends it. It returns nil on a natural end and ErrAborted when
	// ctx is canceled.
	Recognize(ctx context.Context, opts RecognitionOptions, events chan<- RecognitionEvent) error
}

// RecognitionOptions configures a recognition session.
type RecognitionOptions struct {
	Language       string // BCP 47 tag, e.g. "en-US"
	Continuous     bool
	InterimResults bool
}

// RecognitionEvent carries the segments recognized so far.
type RecognitionEvent struct {
	Segments []Segment
}

// Segment is a piece of recognized speech.
type Segment struct {
	Text  string
	Final bool
}

// Best returns the event's transcript, preferring final segments over interim
// ones.
func (e RecognitionEvent) Best() string {
	var final, interim []string
	for _, s := range e.Segments {
		if s.Final {
			final = append(final, s.Text)
		} else {
			interim = append(interim, s.Text)
		}
	}
	if len(final) > 0 {
		return joinSegments(final)
	}
	return joinSegments(interim)
}

func joinSegments(parts []string) string {
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}
