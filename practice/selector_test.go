package practice

import (
	"errors"
	"testing"
)

func testScenes() []Scene {
	return []Scene{
		{ID: "1", Title: "Coffee shop order", Lines: []DialogueLine{
			{Character: "Barista", Text: "What can I get you?"},
			{Character: "Customer", Text: "A flat white, please."},
		}},
		{ID: "2", Title: "Train station", Lines: []DialogueLine{
			{Character: "Clerk", Text: "Where to?"},
			{Character: "Traveler", Text: "Two tickets to Leeds."},
		}},
		{ID: "3", Title: "Doctor visit", Lines: []DialogueLine{
			{Character: "Doctor", Text: "What seems to be the problem?"},
		}},
	}
}

func TestSelectorFilter(t *testing.T) {
	s := NewSelector(testScenes())

	tests := []struct {
		query string
		first string
		count int
	}{
		{"", "1", 3},
		{"train", "2", 1},
		{"cof", "1", 1},
		{"zzz", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := s.Filter(tt.query)
			if len(got) != tt.count {
				t.Fatalf("Filter(%q) returned %d scenes, want %d", tt.query, len(got), tt.count)
			}
			if tt.count > 0 && got[0].ID != tt.first {
				t.Errorf("Filter(%q)[0] = %s, want %s", tt.query, got[0].ID, tt.first)
			}
		})
	}
}

func TestSelectorSelect(t *testing.T) {
	s := NewSelector(testScenes())

	if _, err := s.Characters(); !errors.Is(err, ErrNoSceneSelected) {
		t.Errorf("Characters() error = %v, want %v", err, ErrNoSceneSelected)
	}
	if _, err := s.Select("nope"); !errors.Is(err, ErrUnknownScene) {
		t.Errorf("Select() error = %v, want %v", err, ErrUnknownScene)
	}

	scene, err := s.Select("2")
	if err != nil {
		t.Fatal(err)
	}
	if scene.Title != "Train station" {
		t.Errorf("Select() = %q", scene.Title)
	}

	chars, err := s.Characters()
	if err != nil {
		t.Fatal(err)
	}
	if len(chars) != 2 || chars[0] != "Clerk" || chars[1] != "Traveler" {
		t.Errorf("Characters() = %v", chars)
	}
}

func TestSelectorSetScenesKeepsSelection(t *testing.T) {
	s := NewSelector(testScenes())
	_, _ = s.Select("3")

	s.SetScenes(testScenes()[1:])
	if sc, ok := s.Selected(); !ok || sc.ID != "3" {
		t.Errorf("Selected() = %v, %v", sc.ID, ok)
	}

	s.SetScenes(testScenes()[:1])
	if _, ok := s.Selected(); ok {
		t.Error("selection should be cleared when the scene disappears")
	}
}

func TestSelectorChooseAndBack(t *testing.T) {
	s := NewSelector(testScenes())
	out, in := &fakeOutput{}, &fakeInput{}

	if _, err := s.Choose("Clerk", out, in); !errors.Is(err, ErrNoSceneSelected) {
		t.Errorf("Choose() without scene error = %v", err)
	}

	_, _ = s.Select("2")
	if _, err := s.Choose("Ghost", out, in); !errors.Is(err, ErrUnknownCharacter) {
		t.Errorf("Choose() unknown character error = %v", err)
	}

	first, err := s.Choose("Traveler", out, in, WithScheduler(&manualScheduler{}))
	if err != nil {
		t.Fatal(err)
	}
	if s.Active() != first {
		t.Fatal("Active() should return the new sequencer")
	}
	_ = first.Start()

	second, err := s.Choose("Clerk", out, in)
	if err != nil {
		t.Fatal(err)
	}
	if !first.Snapshot().Closed {
		t.Error("choosing again should close the previous sequencer")
	}
	if second.Session().Character() != "Clerk" {
		t.Errorf("Character() = %q", second.Session().Character())
	}

	s.Back()
	if s.Active() != nil {
		t.Error("Back() should clear the active sequencer")
	}
	if !second.Snapshot().Closed {
		t.Error("Back() should close the sequencer")
	}
	s.Back()
}
