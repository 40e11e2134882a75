// Package utils provides helpers shared by the CLI and the TUI.
package utils

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/mitchellh/go-homedir"

	"github.com/dgnsrekt/shadow/practice"
)

// ExpandPath expands tilde and all environment variables from the given path.
func ExpandPath(path string) string {
	s, err := homedir.Expand(path)
	if err == nil {
		return os.ExpandEnv(s)
	}
	return os.ExpandEnv(path)
}

// GlamourStyle returns a glamour.TermRendererOption based on the given style.
func GlamourStyle(style string) glamour.TermRendererOption {
	if style == "" || style == styles.AutoStyle {
		return glamour.WithAutoStyle()
	}
	return glamour.WithStylePath(style)
}

// FormatTimestamp formats an offset into an episode as m:ss, or h:mm:ss for
// offsets of an hour or more.
func FormatTimestamp(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// SceneMarkdown renders a scene as a markdown script. Lines of character,
// if set, are marked so the learner can spot them.
func SceneMarkdown(scene practice.Scene, character string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", scene.Title)

	for _, l := range scene.Lines {
		if l.StartTime != nil {
			fmt.Fprintf(&b, "`%s` ", FormatTimestamp(*l.StartTime))
		}
		if character != "" && l.Character == character {
			fmt.Fprintf(&b, "**%s (you):** _%s_\n\n", l.Character, l.Text)
			continue
		}
		fmt.Fprintf(&b, "**%s:** %s\n\n", l.Character, l.Text)
	}
	return b.String()
}
