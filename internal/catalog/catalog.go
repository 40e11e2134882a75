// Package catalog loads practice scenes from the platform API or from scene
// files on disk.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dgnsrekt/shadow/practice"
)

// ErrMissingEpisode is returned when a show or episode ID is empty.
var ErrMissingEpisode = errors.New("show and episode are required")

// Source provides the scenes of an episode.
type Source interface {
	Scenes(ctx context.Context, showID, episodeID string) ([]practice.Scene, error)
}

// SourceFunc adapts a function to a Source.
type SourceFunc func(ctx context.Context, showID, episodeID string) ([]practice.Scene, error)

// Scenes calls f.
func (f SourceFunc) Scenes(ctx context.Context, showID, episodeID string) ([]practice.Scene, error) {
	return f(ctx, showID, episodeID)
}

// normalize trims the text of every line, drops empty lines and scenes, and
// fills in missing IDs from prefix and the scene position.
func normalize(prefix string, scenes []practice.Scene) []practice.Scene {
	out := make([]practice.Scene, 0, len(scenes))
	for i, s := range scenes {
		lines := make([]practice.DialogueLine, 0, len(s.Lines))
		for _, l := range s.Lines {
			l.Character = strings.TrimSpace(l.Character)
			l.Text = strings.TrimSpace(l.Text)
			if l.Text == "" {
				continue
			}
			lines = append(lines, l)
		}
		if len(lines) == 0 {
			continue
		}
		s.Lines = lines
		if s.ID == "" {
			s.ID = fmt.Sprintf("%s#%d", prefix, i+1)
		}
		if s.Title == "" {
			s.Title = s.ID
		}
		out = append(out, s)
	}
	return out
}

func checkEpisode(showID, episodeID string) error {
	if strings.TrimSpace(showID) == "" || strings.TrimSpace(episodeID) == "" {
		return ErrMissingEpisode
	}
	return nil
}
