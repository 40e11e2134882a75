package catalog

import (
	"errors"
	"testing"
	"time"
)

const script = `# The Pilot

[00:12] **Monica:** There's nothing to tell!
He's just some guy I work with!

**Joey**: C'mon, you're going out with the guy!

> Chandler enters.

Chandler: All right Joey, be nice.

` + "```" + `
Ross: not dialogue
` + "```" + `

# Second Scene

- [01:05] Rachel: Hi!
- Ross: Hey.
`

func TestParseScript(t *testing.T) {
	scenes, err := ParseScript([]byte(script))
	if err != nil {
		t.Fatal(err)
	}
	if len(scenes) != 2 {
		t.Fatalf("got %d scenes, want 2", len(scenes))
	}

	first := scenes[0]
	if first.Title != "The Pilot" {
		t.Errorf("title = %q", first.Title)
	}
	wantLines := []struct {
		character, text string
	}{
		{"Monica", "There's nothing to tell! He's just some guy I work with!"},
		{"Joey", "C'mon, you're going out with the guy!"},
		{"Chandler", "All right Joey, be nice."},
	}
	if len(first.Lines) != len(wantLines) {
		t.Fatalf("got %d lines, want %d: %+v", len(first.Lines), len(wantLines), first.Lines)
	}
	for i, want := range wantLines {
		got := first.Lines[i]
		if got.Character != want.character || got.Text != want.text {
			t.Errorf("line %d = %q: %q, want %q: %q", i, got.Character, got.Text, want.character, want.text)
		}
	}
	if st := first.Lines[0].StartTime; st == nil || *st != 12*time.Second {
		t.Errorf("start time = %v, want 12s", st)
	}
	if first.Lines[1].StartTime != nil {
		t.Errorf("unexpected start time %v", *first.Lines[1].StartTime)
	}

	second := scenes[1]
	if second.Title != "Second Scene" || len(second.Lines) != 2 {
		t.Fatalf("second scene = %+v", second)
	}
	if st := second.Lines[0].StartTime; st == nil || *st != time.Minute+5*time.Second {
		t.Errorf("start time = %v, want 1m5s", st)
	}
	if got := second.CharacterNames(); len(got) != 2 || got[0] != "Rachel" || got[1] != "Ross" {
		t.Errorf("characters = %q", got)
	}
}

func TestParseScriptEdgeCases(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		scenes int
		err    error
	}{
		{"empty", "", 0, ErrNoDialogue},
		{"headings only", "# One\n\n# Two\n", 0, ErrNoDialogue},
		{"prose only", "Just some words.\n", 0, ErrNoDialogue},
		{"no heading", "A: hi\nB: hello\n", 1, nil},
		{"empty scene skipped", "# One\n\n# Two\n\nA: hi\n", 1, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scenes, err := ParseScript([]byte(tt.input))
			if !errors.Is(err, tt.err) {
				t.Fatalf("error = %v, want %v", err, tt.err)
			}
			if len(scenes) != tt.scenes {
				t.Errorf("got %d scenes, want %d", len(scenes), tt.scenes)
			}
		})
	}
}
