package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	runewidth "github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"

	"github.com/dgnsrekt/shadow/practice"
	"github.com/dgnsrekt/shadow/utils"
)

var (
	scenesPlain     bool
	scenesCharacter string

	scenesCmd = &cobra.Command{
		Use:   "scenes [SHOW EPISODE]",
		Short: "Print the scenes of an episode",
		Long: paragraph(fmt.Sprintf("\n%s the dialogue of every scene in an episode, or of every local scene when scenes.dir is set.",
			keyword("Print"))),
		Example: paragraph("shadow scenes friends s01e01\nshadow scenes friends s01e01 --as Ross\nshadow scenes --scenes-dir ~/scenes --plain"),
		Args:    validateEpisodeArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			showID, episodeID := episodeArgs(args)

			ctx, cancel := context.WithTimeout(cmdContext(cmd), time.Minute)
			defer cancel()

			a := &app{selector: practice.NewSelector(nil)}
			defer a.Close() //nolint:errcheck
			if err := a.openSource(ctx, log.Default(), false); err != nil {
				return err
			}
			scenes, err := a.source.Scenes(ctx, showID, episodeID)
			if err != nil {
				return fmt.Errorf("unable to load scenes: %w", err)
			}

			if scenesPlain {
				return printScenes(os.Stdout, scenes, scenesCharacter, int(width)) //nolint:gosec
			}
			return renderScenes(os.Stdout, scenes, scenesCharacter)
		},
	}
)

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// renderScenes renders scenes as markdown with glamour.
func renderScenes(w io.Writer, scenes []practice.Scene, character string) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithColorProfile(lipgloss.ColorProfile()),
		utils.GlamourStyle(style),
		glamour.WithWordWrap(int(width)), //nolint:gosec
	)
	if err != nil {
		return fmt.Errorf("unable to create renderer: %w", err)
	}

	for _, scene := range scenes {
		out, err := r.Render(utils.SceneMarkdown(scene, character))
		if err != nil {
			return fmt.Errorf("unable to render markdown: %w", err)
		}
		if _, err := fmt.Fprint(w, out); err != nil {
			return fmt.Errorf("unable to write to writer: %w", err)
		}
	}
	return nil
}

// printScenes writes scenes as plain text with the speaker names in a
// column and the dialogue wrapped to width.
func printScenes(w io.Writer, scenes []practice.Scene, character string, width int) error {
	if width <= 0 {
		width = 80
	}

	var b strings.Builder
	for i, scene := range scenes {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s %s\n", heading(scene.Title), faint("("+scene.ID+")"))

		nameWidth := 0
		for _, name := range scene.CharacterNames() {
			nameWidth = max(nameWidth, runewidth.StringWidth(name))
		}
		hasTimes := false
		for _, l := range scene.Lines {
			hasTimes = hasTimes || l.StartTime != nil
		}

		for _, l := range scene.Lines {
			prefix := ""
			if hasTimes {
				stamp := ""
				if l.StartTime != nil {
					stamp = utils.FormatTimestamp(*l.StartTime)
				}
				prefix = runewidth.FillLeft(stamp, 7) + " "
			}
			name := runewidth.FillRight(l.Character, nameWidth)
			if character != "" && l.Character == character {
				name = keyword(name)
			}
			prefix += name + "  "

			pad := lipgloss.Width(prefix)
			text := wordwrap.String(l.Text, max(20, width-pad))
			lines := strings.SplitN(text, "\n", 2)
			b.WriteString(prefix + lines[0] + "\n")
			if len(lines) > 1 {
				b.WriteString(indent.String(lines[1], uint(pad)) + "\n") //nolint:gosec
			}
		}
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("unable to write to writer: %w", err)
	}
	return nil
}

func init() {
	scenesCmd.Flags().BoolVar(&scenesPlain, "plain", false, "print plain text instead of rendered markdown")
	scenesCmd.Flags().StringVar(&scenesCharacter, "as", "", "highlight the lines of a character")
}
