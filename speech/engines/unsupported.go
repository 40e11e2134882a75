package engines

import (
	"context"

	"github.com/dgnsrekt/shadow/speech"
)

// NoSynthesizer is the synthesizer of a platform without speech output.
type NoSynthesizer struct{}

// Available reports false.
func (NoSynthesizer) Available() bool { return false }

// Voices returns no voices.
func (NoSynthesizer) Voices() []speech.Voice { return nil }

// Utter always fails.
func (NoSynthesizer) Utter(context.Context, speech.Utterance) error {
	return speech.ErrOutputUnsupported
}

// Pause does nothing.
func (NoSynthesizer) Pause() error { return nil }

// Resume does nothing.
func (NoSynthesizer) Resume() error { return nil }

// NoRecognizer is the recognizer of a platform without speech input.
type NoRecognizer struct{}

// Available reports false.
func (NoRecognizer) Available() bool { return false }

// Recognize always fails.
func (NoRecognizer) Recognize(context.Context, speech.RecognitionOptions, chan<- speech.RecognitionEvent) error {
	return speech.ErrRecognitionUnsupported
}
