package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"
)

const (
	statusBarHeight      = 1
	statusMessageTimeout = time.Second * 3 // how long to show status messages like "copied!"
	ellipsis             = "…"
)

type statusMessageTimeoutMsg applicationContext

type statusMessage struct {
	message string
	isError bool
}

// statusLine holds the transient message shown in a status bar.
type statusLine struct {
	current *statusMessage
	timer   *time.Timer
}

func (s *statusLine) show(appCtx applicationContext, msg statusMessage) tea.Cmd {
	s.current = &msg
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.NewTimer(statusMessageTimeout)
	return waitForStatusMessageTimeout(appCtx, s.timer)
}

func (s *statusLine) clear() {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.current = nil
}

func waitForStatusMessageTimeout(appCtx applicationContext, t *time.Timer) tea.Cmd {
	return func() tea.Msg {
		<-t.C
		return statusMessageTimeoutMsg(appCtx)
	}
}

// statusBarView renders the logo, a note and a position indicator across
// width cells. A transient message replaces the note.
func statusBarView(b *strings.Builder, width int, note, position string, status *statusMessage) {
	logo := logoView()

	noteStyle := statusBarNoteStyle
	helpStyle := statusBarHelpStyle
	if status != nil {
		note = status.message
		noteStyle = statusBarMessageStyle
		helpStyle = statusBarMessageHelpStyle
		if status.isError {
			noteStyle = statusBarErrorStyle
		}
	}

	if position != "" {
		position = noteStyle(" " + position + " ")
	}
	helpNote := helpStyle(" ? Help ")

	note = truncate.StringWithTail(" "+note+" ", uint(max(0, //nolint:gosec
		width-
			ansi.PrintableRuneWidth(logo)-
			ansi.PrintableRuneWidth(position)-
			ansi.PrintableRuneWidth(helpNote),
	)), ellipsis)
	note = noteStyle(note)

	padding := max(0,
		width-
			ansi.PrintableRuneWidth(logo)-
			ansi.PrintableRuneWidth(note)-
			ansi.PrintableRuneWidth(position)-
			ansi.PrintableRuneWidth(helpNote),
	)
	emptySpace := noteStyle(strings.Repeat(" ", padding))

	fmt.Fprintf(b, "%s%s%s%s%s",
		logo,
		note,
		emptySpace,
		position,
		helpNote,
	)
}
