package ui

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/muesli/reflow/ansi"

	"github.com/dgnsrekt/shadow/internal/catalog"
	"github.com/dgnsrekt/shadow/practice"
	"github.com/dgnsrekt/shadow/speech"
	"github.com/dgnsrekt/shadow/speech/engines/mock"
)

func testScenes() []practice.Scene {
	return []practice.Scene{
		{ID: "1", Title: "The Pilot", Lines: []practice.DialogueLine{
			{Character: "Rachel", Text: "Hi!"},
			{Character: "Ross", Text: "Hey."},
		}},
		{ID: "2", Title: "Central Perk", Lines: []practice.DialogueLine{
			{Character: "Joey", Text: "How you doin'?"},
		}},
		{ID: "3", Title: "The Apartment", Lines: []practice.DialogueLine{
			{Character: "Monica", Text: "Welcome."},
		}},
	}
}

func testModel(t *testing.T, src catalog.Source) model {
	t.Helper()
	logger := log.New(io.Discard)
	deps := Deps{
		Source:   src,
		Selector: practice.NewSelector(nil),
		Output:   speech.NewSpeaker(mock.NewSynthesizer(), logger),
		Input:    speech.NewListener(mock.NewRecognizer(func() string { return "hey" }), speech.ListenerConfig{}, logger),
	}
	m := newModel(Config{GlamourStyle: "dark", ShowID: "friends", EpisodeID: "s01e01"}, deps)
	t.Cleanup(func() { deps.Selector.Back() })
	return update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
}

func update(t *testing.T, m model, msg tea.Msg) model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(model)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func loaded(t *testing.T) model {
	t.Helper()
	m := testModel(t, nil)
	return update(t, m, scenesLoadedMsg{scenes: testScenes()})
}

func TestSceneListFilter(t *testing.T) {
	m := loaded(t)
	if m.state != stateShowScenes {
		t.Fatalf("state = %v", m.state)
	}
	if len(m.list.scenes) != 3 {
		t.Fatalf("got %d scenes, want 3", len(m.list.scenes))
	}

	m = update(t, m, key("/"))
	if m.list.filterState != filtering {
		t.Fatalf("filter state = %v", m.list.filterState)
	}
	m = update(t, m, key("perk"))
	// q is typed into the filter rather than quitting.
	m = update(t, m, key("q"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	if len(m.list.scenes) != 1 || m.list.scenes[0].Title != "Central Perk" {
		t.Fatalf("filtered scenes = %+v", m.list.scenes)
	}

	m = update(t, m, key("enter"))
	if m.list.filterState != filterApplied {
		t.Fatalf("filter state = %v, want applied", m.list.filterState)
	}

	m = update(t, m, key("esc"))
	if m.list.filterState != unfiltered || len(m.list.scenes) != 3 {
		t.Errorf("after esc: state %v, %d scenes", m.list.filterState, len(m.list.scenes))
	}
}

func TestSceneListNavigation(t *testing.T) {
	m := loaded(t)
	m = update(t, m, key("j"))
	m = update(t, m, key("j"))
	m = update(t, m, key("j"))
	if m.list.cursor != 2 {
		t.Errorf("cursor = %d, want 2", m.list.cursor)
	}
	m = update(t, m, key("g"))
	if m.list.cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.list.cursor)
	}

	view := m.View()
	if !strings.Contains(view, "The Pilot") || !strings.Contains(view, "1/3") {
		t.Errorf("view is missing the scene list:\n%s", view)
	}
}

func TestChooseSceneAndCharacter(t *testing.T) {
	m := loaded(t)

	_, cmd := m.list.update(key("enter"))
	if cmd == nil {
		t.Fatal("enter returned no command")
	}
	chosen, ok := cmd().(sceneChosenMsg)
	if !ok || chosen.scene.ID != "1" {
		t.Fatalf("enter produced %#v", chosen)
	}

	m = update(t, m, chosen)
	if m.state != stateShowScript {
		t.Fatalf("state = %v", m.state)
	}
	if got := m.script.characters; len(got) != 2 || got[0] != "Rachel" {
		t.Fatalf("characters = %q", got)
	}
	if _, ok := m.deps.Selector.Selected(); !ok {
		t.Error("no scene selected")
	}

	m = update(t, m, key("tab"))
	if m.script.character() != "Ross" {
		t.Errorf("character = %q, want Ross", m.script.character())
	}
	m = update(t, m, key("tab"))
	if m.script.character() != "Rachel" {
		t.Errorf("character = %q, want to wrap around to Rachel", m.script.character())
	}

	_, cmd = m.script.update(key("enter"))
	req, ok := cmd().(practiceRequestedMsg)
	if !ok || req.character != "Rachel" {
		t.Errorf("enter produced %#v", req)
	}

	m = update(t, m, key("esc"))
	if m.state != stateShowScenes {
		t.Errorf("state after esc = %v", m.state)
	}
}

func practicing(t *testing.T) model {
	t.Helper()
	m := loaded(t)
	m = update(t, m, sceneChosenMsg{scene: testScenes()[0]})
	m = update(t, m, practiceRequestedMsg{character: "Ross"})
	if m.state != statePractice {
		t.Fatalf("state = %v", m.state)
	}
	return m
}

func TestPracticeStartAndLeave(t *testing.T) {
	m := practicing(t)

	seq := m.deps.Selector.Active()
	if seq == nil || seq != m.practice.seq {
		t.Fatal("practice did not open the selector's sequencer")
	}
	if m.practice.snap.Character != "Ross" {
		t.Errorf("character = %q", m.practice.snap.Character)
	}
	if !strings.Contains(m.View(), "The Pilot") {
		t.Error("practice view does not show the scene")
	}

	m = update(t, m, key("esc"))
	if m.state != stateShowScript {
		t.Errorf("state = %v, want script", m.state)
	}
	if m.deps.Selector.Active() != nil {
		t.Error("sequencer still active after leaving")
	}
	if !seq.Snapshot().Closed {
		t.Error("sequencer not closed")
	}
}

func TestPracticeUnknownCharacter(t *testing.T) {
	m := loaded(t)
	m = update(t, m, sceneChosenMsg{scene: testScenes()[0]})
	m = update(t, m, practiceRequestedMsg{character: "Gunther"})
	if m.state != stateShowScript {
		t.Errorf("state = %v, want script", m.state)
	}
	if m.script.status.current == nil || !m.script.status.current.isError {
		t.Error("no error shown")
	}
}

func TestPracticeEvents(t *testing.T) {
	m := practicing(t)

	// Events of an old session are dropped.
	stale := practice.NewEventQueue()
	m = update(t, m, practiceEventMsg{queue: stale, msg: practice.CompletedEvent{}})
	if m.practice.done != nil {
		t.Error("stale event was handled")
	}

	m = update(t, m, practiceEventMsg{
		queue: m.practice.queue,
		msg: practice.ErrorEvent{
			Err:   &practice.Error{Code: practice.ErrorCodeSynthesis, Cause: errors.New("boom")},
			Stuck: true,
		},
	})
	status := m.practice.status.current
	if status == nil || !status.isError || !strings.Contains(status.message, "skip") {
		t.Errorf("status = %+v", status)
	}

	m = update(t, m, practiceEventMsg{
		queue: m.practice.queue,
		msg:   practice.CompletedEvent{Progress: practice.Progress{AverageScore: 90}},
	})
	if m.practice.done == nil {
		t.Fatal("completion not recorded")
	}
	if !strings.Contains(m.View(), "Scene complete!") {
		t.Error("summary not shown")
	}
}

func TestPracticeActionErrors(t *testing.T) {
	m := practicing(t)

	m = update(t, m, practice.ActionDoneMsg{Action: "next", Err: practice.ErrInvalidAction})
	if s := m.practice.status.current; s == nil || s.message != "Can't next now" {
		t.Errorf("status = %+v", s)
	}

	m.practice.status.clear()
	m = update(t, m, practice.ActionDoneMsg{Action: "next", Err: practice.ErrSessionClosed})
	if m.practice.status.current != nil {
		t.Errorf("closed sessions should not report errors, got %+v", m.practice.status.current)
	}
}

func TestPracticePauseKey(t *testing.T) {
	m := practicing(t)

	// The key only asks; the result of the action decides.
	m = update(t, m, key("p"))
	if m.practice.paused {
		t.Error("paused before the pause action finished")
	}

	tests := []struct {
		name string
		msg  practice.ActionDoneMsg
		want bool
	}{
		{"rejected pause", practice.ActionDoneMsg{Action: "pause", Err: practice.ErrInvalidAction}, false},
		{"pause", practice.ActionDoneMsg{Action: "pause"}, true},
		{"rejected resume", practice.ActionDoneMsg{Action: "resume", Err: errors.New("device gone")}, true},
		{"resume", practice.ActionDoneMsg{Action: "resume"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m = update(t, m, tt.msg)
			if m.practice.paused != tt.want {
				t.Errorf("paused = %v, want %v", m.practice.paused, tt.want)
			}
		})
	}
}

func TestPracticeRateKeys(t *testing.T) {
	m := practicing(t)

	m = update(t, m, key("+"))
	if got := m.practice.seq.Rate(); got != 1.25 {
		t.Errorf("rate = %v, want 1.25", got)
	}
	m = update(t, m, key("-"))
	m = update(t, m, key("-"))
	if got := m.practice.seq.Rate(); got != 0.75 {
		t.Errorf("rate = %v, want 0.75", got)
	}
}

type refreshingSource struct {
	scenes    int
	refreshes int
}

func (s *refreshingSource) Scenes(context.Context, string, string) ([]practice.Scene, error) {
	s.scenes++
	return testScenes(), nil
}

func (s *refreshingSource) Refresh(context.Context, string, string) ([]practice.Scene, error) {
	s.refreshes++
	return testScenes()[:1], nil
}

func TestLoadScenes(t *testing.T) {
	src := &refreshingSource{}
	deps := Deps{Source: src}

	msg, ok := loadScenes(deps, Config{}, false)().(scenesLoadedMsg)
	if !ok || len(msg.scenes) != 3 || msg.refresh {
		t.Errorf("load = %#v", msg)
	}
	msg, ok = loadScenes(deps, Config{}, true)().(scenesLoadedMsg)
	if !ok || len(msg.scenes) != 1 || !msg.refresh {
		t.Errorf("refresh = %#v", msg)
	}
	if src.scenes != 1 || src.refreshes != 1 {
		t.Errorf("scenes = %d, refreshes = %d", src.scenes, src.refreshes)
	}

	if _, ok := loadScenes(Deps{}, Config{}, false)().(errMsg); !ok {
		t.Error("missing source should fail")
	}
}

func TestLoadErrorIsFatalAtStartup(t *testing.T) {
	boom := errors.New("boom")
	src := catalog.SourceFunc(func(context.Context, string, string) ([]practice.Scene, error) {
		return nil, boom
	})
	m := testModel(t, src)

	msg := loadScenes(m.deps, m.common.cfg, false)()
	m = update(t, m, msg)
	if !errors.Is(m.fatalErr, boom) {
		t.Fatalf("fatalErr = %v", m.fatalErr)
	}
	if !strings.Contains(m.View(), "ERROR") {
		t.Error("error view not shown")
	}

	// Once scenes are shown, load errors are only reported.
	m = loaded(t)
	m = update(t, m, errMsg{boom})
	if m.fatalErr != nil || m.list.status.current == nil {
		t.Errorf("fatalErr = %v, status = %+v", m.fatalErr, m.list.status.current)
	}
}

func TestStatusBarView(t *testing.T) {
	tests := []struct {
		name   string
		note   string
		status *statusMessage
	}{
		{"short", "Pick a scene", nil},
		{"long", strings.Repeat("very long note ", 20), nil},
		{"message", "", &statusMessage{message: "Copied transcript"}},
		{"error", "", &statusMessage{message: "boom", isError: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b strings.Builder
			statusBarView(&b, 80, tt.note, "1/3", tt.status)
			if w := ansi.PrintableRuneWidth(b.String()); w != 80 {
				t.Errorf("status bar is %d cells wide, want 80", w)
			}
		})
	}
}

func TestHelpColumns(t *testing.T) {
	s := helpColumns(
		[][2]string{{"a", "first"}, {"bb", "second"}},
		[][2]string{{"c", "third"}},
	)
	lines := strings.Split(strings.TrimPrefix(s, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines:\n%s", len(lines), s)
	}
	if !strings.HasPrefix(lines[0], "a   first") || !strings.Contains(lines[0], "c   third") {
		t.Errorf("first line = %q", lines[0])
	}
	if lines[1] != "bb  second" {
		t.Errorf("second line = %q", lines[1])
	}
}

func TestMatchedView(t *testing.T) {
	got := matchedView("Hi there friend", "hi friend")
	for _, w := range []string{"Hi", "there", "friend"} {
		if !strings.Contains(got, w) {
			t.Errorf("matchedView() = %q, missing %q", got, w)
		}
	}
}
