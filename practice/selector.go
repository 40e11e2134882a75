package practice

import (
	"fmt"
	"sync"

	"github.com/dgnsrekt/shadow/speech"
	"github.com/sahilm/fuzzy"
)

// Selector keeps the scenes of an episode and the practice session the
// learner picked from them. At most one sequencer is active at a time.
type Selector struct {
	mu       sync.Mutex
	scenes   []Scene
	selected int
	active   *Sequencer
}

// NewSelector creates a selector over scenes.
func NewSelector(scenes []Scene) *Selector {
	return &Selector{scenes: scenes, selected: -1}
}

// Scenes returns every scene.
func (s *Selector) Scenes() []Scene {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Scene(nil), s.scenes...)
}

// SetScenes replaces the scenes. The selection is kept when the selected
// scene is still present.
func (s *Selector) SetScenes(scenes []Scene) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var id string
	if s.selected >= 0 {
		id = s.scenes[s.selected].ID
	}
	s.scenes = scenes
	s.selected = -1
	for i, sc := range scenes {
		if id != "" && sc.ID == id {
			s.selected = i
			break
		}
	}
}

type sceneTitles []Scene

func (t sceneTitles) String(i int) string { return t[i].Title }
func (t sceneTitles) Len() int            { return len(t) }

// Filter returns the scenes whose titles fuzzily match query, best match
// first. An empty query returns every scene in order.
func (s *Selector) Filter(query string) []Scene {
	s.mu.Lock()
	scenes := append([]Scene(nil), s.scenes...)
	s.mu.Unlock()

	if query == "" {
		return scenes
	}
	matches := fuzzy.FindFrom(query, sceneTitles(scenes))
	out := make([]Scene, 0, len(matches))
	for _, m := range matches {
		out = append(out, scenes[m.Index])
	}
	return out
}

// Select makes the scene with the given ID the current scene.
func (s *Selector) Select(sceneID string) (Scene, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sc := range s.scenes {
		if sc.ID == sceneID {
			s.selected = i
			return sc, nil
		}
	}
	return Scene{}, fmt.Errorf("%w: %q", ErrUnknownScene, sceneID)
}

// Selected returns the current scene.
func (s *Selector) Selected() (Scene, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected < 0 {
		return Scene{}, false
	}
	return s.scenes[s.selected], true
}

// Characters returns the characters of the current scene.
func (s *Selector) Characters() ([]string, error) {
	scene, ok := s.Selected()
	if !ok {
		return nil, ErrNoSceneSelected
	}
	return scene.CharacterNames(), nil
}

// Choose starts practicing the current scene as character. Any active
// sequencer is closed first. The returned sequencer has not been started.
func (s *Selector) Choose(character string, out speech.Output, in speech.Input, opts ...Option) (*Sequencer, error) {
	scene, ok := s.Selected()
	if !ok {
		return nil, ErrNoSceneSelected
	}
	session, err := NewSession(scene, character)
	if err != nil {
		return nil, err
	}

	s.Back()
	seq := NewSequencer(session, out, in, opts...)

	s.mu.Lock()
	s.active = seq
	s.mu.Unlock()
	return seq, nil
}

// Back leaves the active session. Its speech and recognition are stopped
// before Back returns.
func (s *Selector) Back() {
	s.mu.Lock()
	seq := s.active
	s.active = nil
	s.mu.Unlock()

	if seq != nil {
		seq.Close()
	}
}

// Active returns the active sequencer, or nil.
func (s *Selector) Active() *Sequencer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}
