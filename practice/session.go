package practice

import (
	"fmt"
	"sort"
)

// LineResult is the outcome of one performed line.
type LineResult struct {
	Index      int
	Score      int    // 0-100
	Transcript string // empty for system-spoken lines
}

// Session is the ephemeral state of one practice run: the scene, the role the
// learner plays, the current line and the results recorded so far. A Session
// is not safe for concurrent use; the Sequencer serializes access to it.
type Session struct {
	scene     Scene
	character string
	index     int
	results   map[int]LineResult
}

// NewSession creates a session for the learner playing character in scene.
func NewSession(scene Scene, character string) (*Session, error) {
	if len(scene.Lines) == 0 {
		return nil, ErrEmptyScene
	}
	if !scene.HasCharacter(character) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCharacter, character)
	}
	return &Session{
		scene:     scene,
		character: character,
		results:   make(map[int]LineResult),
	}, nil
}

// Scene returns the scene being practiced.
func (s *Session) Scene() Scene { return s.scene }

// Character returns the role the learner plays.
func (s *Session) Character() string { return s.character }

// Index returns the current line index, in [0, Total()].
func (s *Session) Index() int { return s.index }

// Total returns the number of lines in the scene.
func (s *Session) Total() int { return len(s.scene.Lines) }

// Complete reports whether every line has been walked.
func (s *Session) Complete() bool { return s.index == len(s.scene.Lines) }

// Line returns the current line. ok is false once the session is complete.
func (s *Session) Line() (line DialogueLine, ok bool) {
	if s.Complete() {
		return DialogueLine{}, false
	}
	return s.scene.Lines[s.index], true
}

// IsUserLine reports whether the line at index belongs to the learner.
func (s *Session) IsUserLine(index int) bool {
	if index < 0 || index >= len(s.scene.Lines) {
		return false
	}
	return s.scene.Lines[index].Character == s.character
}

// Record stores a result. A line holds at most one result at a time.
func (s *Session) Record(r LineResult) error {
	if r.Index < 0 || r.Index >= len(s.scene.Lines) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, r.Index)
	}
	if _, ok := s.results[r.Index]; ok {
		return fmt.Errorf("%w: %d", ErrResultExists, r.Index)
	}
	s.results[r.Index] = r
	return nil
}

// Forget deletes the result of a single line so it can be tried again.
func (s *Session) Forget(index int) {
	delete(s.results, index)
}

// Result returns the result recorded for index.
func (s *Session) Result(index int) (LineResult, bool) {
	r, ok := s.results[index]
	return r, ok
}

// Results returns all recorded results ordered by line index.
func (s *Session) Results() []LineResult {
	out := make([]LineResult, 0, len(s.results))
	for _, r := range s.results {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// Advance moves to the next line and reports whether that completed the
// session. Advancing a complete session does nothing and returns false.
func (s *Session) Advance() bool {
	if s.Complete() {
		return false
	}
	s.index++
	return s.Complete()
}

// Progress aggregates the session's results.
func (s *Session) Progress() Progress {
	return NewProgress(s)
}
