package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"

	"github.com/dgnsrekt/shadow/internal/cache"
	"github.com/dgnsrekt/shadow/internal/catalog"
	"github.com/dgnsrekt/shadow/practice"
	"github.com/dgnsrekt/shadow/speech/engines"
	"github.com/dgnsrekt/shadow/speech/engines/mock"
)

// withConfig sets viper keys for the duration of a test.
func withConfig(t *testing.T, values map[string]any) {
	t.Helper()
	for k, v := range values {
		old := viper.Get(k)
		viper.Set(k, v)
		t.Cleanup(func() { viper.Set(k, old) })
	}
}

func TestValidateEpisodeArgs(t *testing.T) {
	tests := []struct {
		args    []string
		wantErr bool
	}{
		{nil, false},
		{[]string{"friends"}, true},
		{[]string{"friends", "s01e01"}, false},
		{[]string{"friends", "s01e01", "extra"}, true},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			if err := validateEpisodeArgs(nil, tt.args); (err != nil) != tt.wantErr {
				t.Errorf("validateEpisodeArgs(%q) error = %v, wantErr %v", tt.args, err, tt.wantErr)
			}
		})
	}
}

func TestEpisodeArgs(t *testing.T) {
	withConfig(t, map[string]any{"show": "friends", "episode": "s01e02"})

	if s, e := episodeArgs(nil); s != "friends" || e != "s01e02" {
		t.Errorf("episodeArgs(nil) = %q, %q", s, e)
	}
	if s, e := episodeArgs([]string{"office", "s02e01"}); s != "office" || e != "s02e01" {
		t.Errorf("episodeArgs() = %q, %q", s, e)
	}
}

func writeScene(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestNewAppLocalMock(t *testing.T) {
	dir := t.TempDir()
	writeScene(t, filepath.Join(dir, "friends", "s01e01"), "perk.scene.md",
		"# Central Perk\n\n**Rachel:** Hi!\n\n**Ross:** Hey there.\n")
	withConfig(t, map[string]any{
		"scenes.dir":         dir,
		"speech.engine":      engineMock,
		"speech.rate":        1.25,
		"recognizer.command": "",
	})

	a, err := newApp(context.Background(), log.New(io.Discard))
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	defer a.Close() //nolint:errcheck

	if _, ok := a.source.(*catalog.Local); !ok {
		t.Errorf("source = %T, want local", a.source)
	}
	if a.changes == nil {
		t.Error("local scenes are not watched")
	}
	if a.output.Rate() != 1.25 {
		t.Errorf("rate = %v, want 1.25", a.output.Rate())
	}
	if _, ok := a.recognizer(log.New(io.Discard)).(*mock.Recognizer); !ok {
		t.Error("mock engine should use the mock recognizer")
	}

	scenes, err := a.source.Scenes(context.Background(), "friends", "s01e01")
	if err != nil || len(scenes) != 1 {
		t.Fatalf("Scenes() = %v, %v", scenes, err)
	}

	// The mock recognizer hears the current line.
	if got := a.currentLine(); got != "" {
		t.Errorf("currentLine() = %q before practice", got)
	}
	a.selector.SetScenes(scenes)
	if _, err := a.selector.Select(scenes[0].ID); err != nil {
		t.Fatal(err)
	}
	if _, err := a.selector.Choose("Ross", a.output, a.input); err != nil {
		t.Fatal(err)
	}
	if got := a.currentLine(); got != "Hi!" {
		t.Errorf("currentLine() = %q, want the first line", got)
	}

	if err := a.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if a.selector.Active() != nil {
		t.Error("practice still active after Close")
	}
}

func TestNewAppEngines(t *testing.T) {
	withConfig(t, map[string]any{"scenes.dir": t.TempDir()})

	tests := []struct {
		engine     string
		recognizer string
		wantRec    any
	}{
		{engineNone, "", engines.NoRecognizer{}},
		{engineNone, "listen --lang {lang}", &engines.CommandRecognizer{}},
		{engineMock, "", &mock.Recognizer{}},
	}
	for _, tt := range tests {
		t.Run(tt.engine+" "+tt.recognizer, func(t *testing.T) {
			withConfig(t, map[string]any{"speech.engine": tt.engine, "recognizer.command": tt.recognizer})

			a, err := newApp(context.Background(), log.New(io.Discard))
			if err != nil {
				t.Fatalf("newApp() error = %v", err)
			}
			defer a.Close() //nolint:errcheck

			if tt.engine == engineNone && a.output.Supported() {
				t.Error("output should be unsupported without an engine")
			}
			rec := a.recognizer(log.New(io.Discard))
			switch tt.wantRec.(type) {
			case engines.NoRecognizer:
				if _, ok := rec.(engines.NoRecognizer); !ok {
					t.Errorf("recognizer = %T", rec)
				}
			case *engines.CommandRecognizer:
				if r, ok := rec.(*engines.CommandRecognizer); !ok || r.Name != "listen" {
					t.Errorf("recognizer = %#v", rec)
				}
			case *mock.Recognizer:
				if _, ok := rec.(*mock.Recognizer); !ok {
					t.Errorf("recognizer = %T", rec)
				}
			}
		})
	}
}

func TestNewAppRequiresSource(t *testing.T) {
	withConfig(t, map[string]any{"scenes.dir": "", "api.url": "", "speech.engine": engineNone})

	if _, err := newApp(context.Background(), log.New(io.Discard)); err == nil {
		t.Error("newApp() without a scene source should fail")
	}
}

func TestNewAppAPISource(t *testing.T) {
	withConfig(t, map[string]any{
		"scenes.dir":    "",
		"api.url":       "https://api.example.com/v1",
		"cache.dir":     t.TempDir(),
		"speech.engine": engineNone,
	})

	a, err := newApp(context.Background(), log.New(io.Discard))
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	defer a.Close() //nolint:errcheck

	if _, ok := a.source.(*catalog.Cached); !ok {
		t.Errorf("source = %T, want cached API", a.source)
	}
	if a.changes != nil {
		t.Error("API scenes should not be watched")
	}
}

func TestPrintScenes(t *testing.T) {
	start := 75 * time.Second
	scenes := []practice.Scene{{
		ID:    "friends/s01e01#1",
		Title: "Central Perk",
		Lines: []practice.DialogueLine{
			{Character: "Rachel", Text: "Hi!", StartTime: &start},
			{Character: "Ross", Text: strings.Repeat("word ", 30)},
		},
	}}

	var b strings.Builder
	if err := printScenes(&b, scenes, "", 60); err != nil {
		t.Fatal(err)
	}
	out := b.String()
	for _, want := range []string{"Central Perk", "friends/s01e01#1", "1:15", "Rachel  Hi!"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if w := len([]rune(line)); w > 60 {
			t.Errorf("line is %d wide: %q", w, line)
		}
	}
}

func TestPrintCache(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	var b strings.Builder
	if err := printCache(&b, "/tmp/scenes", nil, cache.ManagerStats{}, now); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(b.String(), "Nothing cached yet.") {
		t.Errorf("empty cache output:\n%s", b.String())
	}

	b.Reset()
	entries := []cache.Entry{
		{Key: "scenes/friends/s01e01", StoredSize: 2048, Stored: now.Add(-2 * time.Hour)},
		{Key: "scenes/office/s02e01", StoredSize: 512, Stored: now.Add(-3 * 24 * time.Hour)},
	}
	stats := cache.ManagerStats{Disk: cache.Stats{Size: 2560, Capacity: 64 << 20}}
	if err := printCache(&b, "/tmp/scenes", entries, stats, now); err != nil {
		t.Fatal(err)
	}
	out := b.String()
	for _, want := range []string{"scenes/friends/s01e01", "2.0 KiB", "2 hours ago", "3 days ago", "2 episodes", "64 MiB"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
