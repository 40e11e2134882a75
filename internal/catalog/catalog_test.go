package catalog

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/shadow/internal/cache"
	"github.com/dgnsrekt/shadow/practice"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

const scenesJSON = `[
  {"id": "s1", "title": "Central Perk", "lines": [
    {"character": "Rachel", "text": "  Hi!  ", "start_time": 12.5},
    {"character": "Ross", "text": "Hey."},
    {"character": "Ross", "text": "   "}
  ]},
  {"id": "s2", "title": "Empty", "lines": []}
]`

func TestClientScenes(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, scenesJSON)
	}))
	defer srv.Close()

	c, err := NewClient(ClientConfig{BaseURL: srv.URL + "/api/", Token: "secret"}, quietLogger())
	if err != nil {
		t.Fatal(err)
	}

	scenes, err := c.Scenes(context.Background(), "friends", "s01e01")
	if err != nil {
		t.Fatalf("Scenes() error = %v", err)
	}
	if gotPath != "/api/shows/friends/episodes/s01e01/scenes" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if len(scenes) != 1 {
		t.Fatalf("got %d scenes, want 1", len(scenes))
	}
	s := scenes[0]
	if s.ID != "s1" || len(s.Lines) != 2 || s.Lines[0].Text != "Hi!" {
		t.Errorf("scene = %+v", s)
	}
	if s.Lines[0].StartTime == nil || *s.Lines[0].StartTime != 12500*time.Millisecond {
		t.Errorf("start time = %v", s.Lines[0].StartTime)
	}
}

func TestClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/shows/bad/episodes/json/scenes" {
			_, _ = io.WriteString(w, "{")
			return
		}
		http.Error(w, "no such episode", http.StatusNotFound)
	}))
	defer srv.Close()

	c, err := NewClient(ClientConfig{BaseURL: srv.URL}, quietLogger())
	if err != nil {
		t.Fatal(err)
	}

	_, err = c.Scenes(context.Background(), "friends", "s99e99")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound || apiErr.Body != "no such episode" {
		t.Errorf("error = %v, want a 404 APIError", err)
	}
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("errors.Is(%v, ErrNotFound) = false", err)
	}

	if _, err := c.Scenes(context.Background(), "bad", "json"); err == nil {
		t.Error("expected a decode error")
	}
	if _, err := c.Scenes(context.Background(), "", "s01e01"); !errors.Is(err, ErrMissingEpisode) {
		t.Errorf("error = %v, want %v", err, ErrMissingEpisode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Scenes(ctx, "friends", "s01e01"); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestNewClientValidatesURL(t *testing.T) {
	for _, u := range []string{"", "ftp://example.com", "://"} {
		if _, err := NewClient(ClientConfig{BaseURL: u}, nil); err == nil {
			t.Errorf("NewClient(%q) succeeded", u)
		}
	}
}

func TestClientScenesURLEscapes(t *testing.T) {
	c, err := NewClient(ClientConfig{BaseURL: "https://example.com/v1"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	got := c.ScenesURL("how i met", "1")
	want := "https://example.com/v1/shows/how%20i%20met/episodes/1/scenes"
	if got != want {
		t.Errorf("ScenesURL() = %q, want %q", got, want)
	}
}

func TestCached(t *testing.T) {
	var calls atomic.Int32
	src := SourceFunc(func(_ context.Context, show, episode string) ([]practice.Scene, error) {
		calls.Add(1)
		return []practice.Scene{{
			ID:    show + "/" + episode,
			Lines: []practice.DialogueLine{{Character: "A", Text: "hello"}},
		}}, nil
	})

	cfg := cache.DefaultConfig()
	cfg.DiskPath = t.TempDir()
	store, err := cache.NewManager(cfg, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close() //nolint:errcheck

	c := NewCached(src, store, quietLogger())
	for range 3 {
		scenes, err := c.Scenes(context.Background(), "show", "ep")
		if err != nil {
			t.Fatal(err)
		}
		if len(scenes) != 1 || scenes[0].ID != "show/ep" {
			t.Fatalf("scenes = %+v", scenes)
		}
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("source called %d times, want 1", n)
	}

	if _, err := c.Refresh(context.Background(), "show", "ep"); err != nil {
		t.Fatal(err)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("source called %d times after Refresh, want 2", n)
	}

	// An unreadable entry is replaced.
	if err := store.Put(CacheKey("show", "ep"), []byte("not json")); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Scenes(context.Background(), "show", "ep"); err != nil {
		t.Fatal(err)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("source called %d times after corruption, want 3", n)
	}
}

func TestCachedDoesNotCacheErrors(t *testing.T) {
	boom := errors.New("boom")
	var calls int
	src := SourceFunc(func(context.Context, string, string) ([]practice.Scene, error) {
		calls++
		return nil, boom
	})
	store := cache.NewMemoryCache(1 << 20)
	c := NewCached(src, store, quietLogger())

	for range 2 {
		if _, err := c.Scenes(context.Background(), "a", "b"); !errors.Is(err, boom) {
			t.Fatalf("error = %v", err)
		}
	}
	if calls != 2 || store.Contains(CacheKey("a", "b")) {
		t.Errorf("calls = %d, cached = %v", calls, store.Contains(CacheKey("a", "b")))
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLocalScenes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "friends", "s01e01", "a.scene.json"), scenesJSON)
	writeFile(t, filepath.Join(dir, "friends", "s01e01", "b_cafe.scene.md"),
		"**Joey:** How you doin'?\n\n**Chandler:** Could this BE any worse?\n")
	writeFile(t, filepath.Join(dir, "friends", "s01e01", "single.scene.json"),
		`{"title": "One", "lines": [{"character": "Monica", "text": "Welcome."}]}`)
	writeFile(t, filepath.Join(dir, "friends", "s01e01", "broken.scene.json"), "{")
	writeFile(t, filepath.Join(dir, "friends", "s01e01", "notes.md"), "**X:** ignored")
	writeFile(t, filepath.Join(dir, "friends", "s01e02", "c.scene.json"), scenesJSON)

	l := NewLocal(dir, quietLogger())
	scenes, err := l.Scenes(context.Background(), "friends", "s01e01")
	if err != nil {
		t.Fatal(err)
	}

	var titles []string
	for _, s := range scenes {
		titles = append(titles, s.Title)
	}
	want := []string{"Central Perk", "b cafe", "One"}
	if len(titles) != len(want) {
		t.Fatalf("titles = %q, want %q", titles, want)
	}
	for i := range want {
		if titles[i] != want[i] {
			t.Errorf("titles = %q, want %q", titles, want)
			break
		}
	}
	if scenes[1].ID != "friends/s01e01/b_cafe.scene.md#1" {
		t.Errorf("markdown scene ID = %q", scenes[1].ID)
	}

	all, err := l.Scenes(context.Background(), "", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 4 {
		t.Errorf("got %d scenes in the whole directory, want 4", len(all))
	}

	if _, err := l.Scenes(context.Background(), "friends", "missing"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error = %v, want os.ErrNotExist", err)
	}
}

func TestLocalNoScenes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "readme.md"), "# nothing here")
	if _, err := NewLocal(dir, quietLogger()).Scenes(context.Background(), "", ""); !errors.Is(err, ErrNoScenes) {
		t.Errorf("error = %v, want %v", err, ErrNoScenes)
	}
}

func TestLocalWatch(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewLocal(dir, quietLogger())
	changed, err := l.Watch(ctx)
	if err != nil {
		t.Fatal(err)
	}

	writeFile(t, filepath.Join(dir, "other.txt"), "x")
	writeFile(t, filepath.Join(dir, "new.scene.json"), `{"lines": []}`)

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("no change signalled")
	}

	cancel()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-changed:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel not closed after cancel")
		}
	}
}

func TestNormalize(t *testing.T) {
	in := []practice.Scene{
		{Lines: []practice.DialogueLine{{Character: " A ", Text: " hi "}}},
		{ID: "keep", Title: "T", Lines: []practice.DialogueLine{{Text: ""}}},
		{ID: "x", Lines: []practice.DialogueLine{{Character: "B", Text: "yo"}}},
	}
	out := normalize("file", in)
	if len(out) != 2 {
		t.Fatalf("got %d scenes, want 2", len(out))
	}
	if out[0].ID != "file#1" || out[0].Title != "file#1" || out[0].Lines[0].Character != "A" || out[0].Lines[0].Text != "hi" {
		t.Errorf("first = %+v", out[0])
	}
	if out[1].ID != "x" || out[1].Title != "x" {
		t.Errorf("second = %+v", out[1])
	}
}
