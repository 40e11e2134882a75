package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/muesli/gitcha"

	"github.com/dgnsrekt/shadow/practice"
)

var sceneExtensions = []string{"*.scene.json", "*.scene.md"}

// ErrNoScenes is returned when a directory holds no scene files.
var ErrNoScenes = errors.New("no scene files found")

// Local reads scenes from files below a directory. Scenes of an episode live
// in DIR/SHOW/EPISODE; with an empty show and episode the whole directory is
// searched. Files ignored by git are skipped.
type Local struct {
	dir    string
	logger *log.Logger
}

// NewLocal creates a Local source rooted at dir.
func NewLocal(dir string, logger *log.Logger) *Local {
	if logger == nil {
		logger = log.Default()
	}
	return &Local{dir: dir, logger: logger}
}

// Dir returns the root directory.
func (l *Local) Dir() string {
	return l.dir
}

// Files returns the scene files of an episode, sorted by path.
func (l *Local) Files(ctx context.Context, showID, episodeID string) ([]string, error) {
	root := filepath.Join(l.dir, showID, episodeID)
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("scene directory: %w", err)
	}

	ch, err := gitcha.FindFilesExcept(root, sceneExtensions, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", root, err)
	}

	var files []string
	for res := range ch {
		if ctx.Err() != nil {
			// Drain so the search goroutine can finish.
			continue
		}
		files = append(files, res.Path)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// Scenes loads every scene file of an episode. Files that fail to parse are
// logged and skipped.
func (l *Local) Scenes(ctx context.Context, showID, episodeID string) ([]practice.Scene, error) {
	files, err := l.Files(ctx, showID, episodeID)
	if err != nil {
		return nil, err
	}

	var scenes []practice.Scene
	for _, path := range files {
		s, err := ReadSceneFile(path)
		if err != nil {
			l.logger.Warn("skipping scene file", "path", path, "error", err)
			continue
		}
		rel, err := filepath.Rel(l.dir, path)
		if err != nil {
			rel = path
		}
		scenes = append(scenes, normalize(filepath.ToSlash(rel), s)...)
	}
	if len(scenes) == 0 {
		return nil, ErrNoScenes
	}
	return scenes, nil
}

// ReadSceneFile reads a JSON scene file, holding one scene or a list of
// them, or a markdown script.
func ReadSceneFile(path string) ([]practice.Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if strings.HasSuffix(strings.ToLower(path), ".md") {
		scenes, err := ParseScript(data)
		if err != nil {
			return nil, err
		}
		title := sceneName(path)
		for i := range scenes {
			if scenes[i].Title == "" {
				scenes[i].Title = title
			}
		}
		return scenes, nil
	}

	data = bytes.TrimSpace(data)
	if bytes.HasPrefix(data, []byte("[")) {
		var scenes []practice.Scene
		if err := json.Unmarshal(data, &scenes); err != nil {
			return nil, err
		}
		return scenes, nil
	}
	var s practice.Scene
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return []practice.Scene{s}, nil
}

func sceneName(path string) string {
	name := filepath.Base(path)
	for _, ext := range sceneExtensions {
		name = strings.TrimSuffix(name, strings.TrimPrefix(ext, "*"))
	}
	return strings.ReplaceAll(name, "_", " ")
}

func isSceneFile(name string) bool {
	base := strings.ToLower(filepath.Base(name))
	for _, ext := range sceneExtensions {
		if ok, _ := filepath.Match(ext, base); ok {
			return true
		}
	}
	return false
}

// Watch signals on the returned channel whenever a scene file below the root
// directory is written, created, removed or renamed. The channel is closed
// when ctx is done.
func (l *Local) Watch(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	err = filepath.WalkDir(l.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != l.dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", l.dir, err)
	}

	changed := make(chan struct{}, 1)
	go func() {
		defer close(changed)
		defer watcher.Close() //nolint:errcheck

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Create) {
					if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
						if err := watcher.Add(event.Name); err != nil {
							l.logger.Warn("failed to watch directory", "path", event.Name, "error", err)
						}
						continue
					}
				}
				if !isSceneFile(event.Name) || event.Op == fsnotify.Chmod {
					continue
				}
				l.logger.Debug("scene file changed", "path", event.Name, "op", event.Op)
				select {
				case changed <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				l.logger.Error("scene watcher error", "error", err)
			}
		}
	}()

	return changed, nil
}
