package speech

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultLanguage is the recognition language.
const DefaultLanguage = "en-US"

// RecognitionError is a recognition failure reported by the platform.
type RecognitionError struct {
	Code  string // platform error code, e.g. "network", "audio-capture"
	Cause error
}

// Error implements the error interface.
func (e *RecognitionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("speech recognition failed (%s): %v", e.Code, e.Cause)
	}
	return fmt.Sprintf("speech recognition failed (%s)", e.Code)
}

// Unwrap returns the underlying error.
func (e *RecognitionError) Unwrap() error {
	return e.Cause
}

// ErrorFromCode maps a platform recognition error code to an error. The codes
// follow the Web Speech API names.
func ErrorFromCode(code string) error {
	switch code {
	case "":
		return nil
	case "aborted":
		return ErrAborted
	case "not-allowed", "service-not-allowed":
		return &RecognitionError{Code: code, Cause: ErrPermissionDenied}
	case "no-speech":
		return &RecognitionError{Code: code, Cause: ErrNoSpeech}
	default:
		return &RecognitionError{Code: code}
	}
}

// ListenerConfig configures a Listener.
type ListenerConfig struct {
	Language string

	// Timeout bounds a recognition session on platforms that do not detect
	// silence themselves. Zero means no limit. A session that hits the
	// timeout ends normally with whatever was recognized.
	Timeout time.Duration
}

// Listener implements Input on top of a platform Recognizer.
type Listener struct {
	rec    Recognizer
	config ListenerConfig
	logger *log.Logger

	mu         sync.Mutex
	transcript string
	listening  bool
	err        error
	gen        uint64
	cancel     context.CancelFunc
}

// NewListener creates a listener for rec. A nil rec is treated as an
// unsupported platform.
func NewListener(rec Recognizer, config ListenerConfig, logger *log.Logger) *Listener {
	if config.Language == "" {
		config.Language = DefaultLanguage
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Listener{
		rec:    rec,
		config: config,
		logger: logger.WithPrefix("listener"),
	}
}

// Supported reports whether the platform can recognize speech.
func (l *Listener) Supported() bool {
	return l.rec != nil && l.rec.Available()
}

// Start begins a non-continuous recognition session with interim results.
func (l *Listener) Start(onUpdate func(string), onEnd func(string, error)) error {
	if !l.Supported() {
		l.mu.Lock()
		l.err = ErrRecognitionUnsupported
		l.mu.Unlock()
		return ErrRecognitionUnsupported
	}

	l.mu.Lock()
	if l.listening {
		l.mu.Unlock()
		return ErrAlreadyListening
	}
	l.gen++
	gen := l.gen
	l.transcript = ""
	l.err = nil
	l.listening = true

	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.mu.Unlock()

	opts := RecognitionOptions{
		Language:       l.config.Language,
		Continuous:     false,
		InterimResults: true,
	}

	events := make(chan RecognitionEvent)
	done := make(chan error, 1)
	go func() {
		rctx := ctx
		if l.config.Timeout > 0 {
			var tcancel context.CancelFunc
			rctx, tcancel = context.WithTimeout(ctx, l.config.Timeout)
			defer tcancel()
		}
		err := l.rec.Recognize(rctx, opts, events)
		if err != nil && rctx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			l.logger.Debug("Recognition timed out", "timeout", l.config.Timeout)
			err = nil
		}
		done <- err
	}()

	l.logger.Debug("Listening", "lang", opts.Language)

	go func() {
		defer cancel()
		for {
			select {
			case ev := <-events:
				text := ev.Best()
				l.mu.Lock()
				stale := gen != l.gen
				if !stale {
					l.transcript = text
				}
				l.mu.Unlock()
				if !stale && onUpdate != nil {
					onUpdate(text)
				}
			case err := <-done:
				l.end(gen, err, onEnd)
				return
			}
		}
	}()

	return nil
}

// end settles a recognition session.
func (l *Listener) end(gen uint64, err error, onEnd func(string, error)) {
	if errors.Is(err, context.Canceled) {
		err = ErrAborted
	}

	l.mu.Lock()
	if gen != l.gen {
		// Reset already cleared this session.
		l.mu.Unlock()
		return
	}
	l.listening = false
	l.cancel = nil
	if errors.Is(err, ErrAborted) {
		err = nil
	}
	l.err = err
	transcript := l.transcript
	l.mu.Unlock()

	if err != nil {
		l.logger.Warn("Recognition failed", "err", err)
	}
	if onEnd != nil {
		onEnd(transcript, err)
	}
}

// Stop ends recognition early. The session ends through its onEnd callback
// with the transcript recognized so far.
func (l *Listener) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
	}
}

// Reset aborts recognition and clears the transcript and error. The onEnd
// callback of an aborted session does not fire.
func (l *Listener) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gen++
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.listening = false
	l.transcript = ""
	l.err = nil
}

// Transcript returns the latest best-effort transcript.
func (l *Listener) Transcript() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.transcript
}

// Listening reports whether a recognition session is running.
func (l *Listener) Listening() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.listening
}

// Err returns the error of the last session.
func (l *Listener) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}
