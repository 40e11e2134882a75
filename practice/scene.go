// Package practice implements the shadowing practice flow: a scene is walked
// line by line, lines of other characters are synthesized and the learner's
// own lines are recorded and scored against the script.
package practice

import (
	"encoding/json"
	"math"
	"time"
)

// MaxScore is the score recorded for lines the system speaks.
const MaxScore = 100

// Scene is a fixed, ordered dialogue excerpt used for shadowing practice.
// Scenes are owned by the backend and read-only once fetched.
type Scene struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Lines      []DialogueLine `json:"lines"`
	Characters []string       `json:"characters,omitempty"`
}

// CharacterNames returns the characters of the scene. When the backend did not
// list them, the distinct speakers are returned in order of first appearance.
func (s Scene) CharacterNames() []string {
	if len(s.Characters) > 0 {
		return s.Characters
	}

	seen := make(map[string]bool)
	var names []string
	for _, l := range s.Lines {
		if l.Character == "" || seen[l.Character] {
			continue
		}
		seen[l.Character] = true
		names = append(names, l.Character)
	}
	return names
}

// HasCharacter reports whether name is one of the scene's characters.
func (s Scene) HasCharacter(name string) bool {
	for _, c := range s.CharacterNames() {
		if c == name {
			return true
		}
	}
	return false
}

// LinesFor returns how many lines the given character speaks.
func (s Scene) LinesFor(name string) int {
	var n int
	for _, l := range s.Lines {
		if l.Character == name {
			n++
		}
	}
	return n
}

// DialogueLine is a single line of a scene.
type DialogueLine struct {
	Character string
	Text      string
	StartTime *time.Duration // offset into the episode, if known
}

type dialogueLineJSON struct {
	Character string   `json:"character"`
	Text      string   `json:"text"`
	StartTime *float64 `json:"start_time,omitempty"`
}

// MarshalJSON encodes the start time as seconds.
func (l DialogueLine) MarshalJSON() ([]byte, error) {
	out := dialogueLineJSON{Character: l.Character, Text: l.Text}
	if l.StartTime != nil {
		secs := l.StartTime.Seconds()
		out.StartTime = &secs
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a start time given in seconds.
func (l *DialogueLine) UnmarshalJSON(b []byte) error {
	var in dialogueLineJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	l.Character = in.Character
	l.Text = in.Text
	l.StartTime = nil
	if in.StartTime != nil {
		d := time.Duration(math.Round(*in.StartTime * float64(time.Second)))
		l.StartTime = &d
	}
	return nil
}
