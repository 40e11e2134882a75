package practice

import (
	"errors"
	"fmt"

	"github.com/dgnsrekt/shadow/speech"
)

// Session and sequencer errors.
var (
	// ErrEmptyScene is returned when a session is created for a scene without lines.
	ErrEmptyScene = errors.New("scene has no dialogue lines")

	// ErrUnknownCharacter is returned when the chosen character does not appear in the scene.
	ErrUnknownCharacter = errors.New("character does not appear in scene")

	// ErrResultExists is returned when a line already has a result.
	ErrResultExists = errors.New("line already has a result")

	// ErrIndexOutOfRange is returned for results outside the scene's lines.
	ErrIndexOutOfRange = errors.New("line index out of range")

	// ErrInvalidAction is returned when an action is not allowed in the current state.
	ErrInvalidAction = errors.New("action not allowed in current state")

	// ErrSessionClosed is returned for actions on a closed sequencer.
	ErrSessionClosed = errors.New("practice session closed")

	// ErrNoSceneSelected is returned by the selector when no scene is selected.
	ErrNoSceneSelected = errors.New("no scene selected")

	// ErrUnknownScene is returned by the selector for unknown scene IDs.
	ErrUnknownScene = errors.New("unknown scene")
)

// ErrorCode classifies practice errors so the UI can choose a retry affordance.
type ErrorCode string

const (
	// ErrorCodeUnsupported means the platform lacks a speech capability.
	ErrorCodeUnsupported ErrorCode = "UNSUPPORTED"
	// ErrorCodePermission means microphone access was refused.
	ErrorCodePermission ErrorCode = "PERMISSION"
	// ErrorCodeSynthesis means the speech engine failed to speak a line.
	ErrorCodeSynthesis ErrorCode = "SYNTHESIS"
	// ErrorCodeRecognition means a transient recognition failure, e.g. no speech.
	ErrorCodeRecognition ErrorCode = "RECOGNITION"
)

// Error is a practice error with the line it happened on.
type Error struct {
	Code  ErrorCode
	Line  int
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s on line %d: %v", e.Code, e.Line+1, e.Cause)
	}
	return fmt.Sprintf("%s on line %d", e.Code, e.Line+1)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Recoverable reports whether retrying the action can succeed. Unsupported
// capabilities stay unsupported for the rest of the session.
func (e *Error) Recoverable() bool {
	return e.Code != ErrorCodeUnsupported
}

// classify wraps an adapter error for the given line.
func classify(line int, err error) *Error {
	code := ErrorCodeRecognition
	switch {
	case errors.Is(err, speech.ErrRecognitionUnsupported),
		errors.Is(err, speech.ErrOutputUnsupported):
		code = ErrorCodeUnsupported
	case errors.Is(err, speech.ErrPermissionDenied):
		code = ErrorCodePermission
	case errors.Is(err, speech.ErrSynthesisFailed):
		code = ErrorCodeSynthesis
	}
	return &Error{Code: code, Line: line, Cause: err}
}
