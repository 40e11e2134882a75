package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/termenv"

	"github.com/dgnsrekt/shadow/practice"
	"github.com/dgnsrekt/shadow/speech"
	"github.com/dgnsrekt/shadow/utils"
)

const progressBarWidth = 24

// practiceEventMsg carries a sequencer event, or practice.EventsClosedMsg,
// together with the queue it came from.
type practiceEventMsg struct {
	queue *practice.EventQueue
	msg   tea.Msg
}

func waitForPracticeEvent(q *practice.EventQueue) tea.Cmd {
	wait := practice.WaitForEvent(q)
	return func() tea.Msg {
		return practiceEventMsg{queue: q, msg: wait()}
	}
}

type practiceModel struct {
	common   *commonModel
	spinner  spinner.Model
	showHelp bool
	status   statusLine

	seq    *practice.Sequencer
	queue  *practice.EventQueue
	snap   practice.Snapshot
	paused bool
	done   *practice.CompletedEvent
}

func newPracticeModel(common *commonModel) practiceModel {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = userLineStyle
	return practiceModel{
		common:  common,
		spinner: sp,
	}
}

// begin starts walking seq. Its events must be pushed to queue.
func (m *practiceModel) begin(seq *practice.Sequencer, queue *practice.EventQueue) tea.Cmd {
	m.end()
	m.seq = seq
	m.queue = queue
	m.snap = seq.Snapshot()
	m.paused = false
	m.done = nil
	m.showHelp = false
	m.status.clear()

	return tea.Batch(
		waitForPracticeEvent(queue),
		practice.ActionCmd("start", seq.Start),
		m.spinner.Tick,
	)
}

// end stops listening for events of the current session.
func (m *practiceModel) end() {
	if m.queue != nil {
		m.queue.Close()
	}
	m.seq = nil
	m.queue = nil
}

func (m practiceModel) action(name string, fn func() error) tea.Cmd {
	return practice.ActionCmd(name, fn)
}

func (m practiceModel) update(msg tea.Msg) (practiceModel, tea.Cmd) {
	if m.seq == nil {
		return m, nil
	}

	switch msg := msg.(type) {
	case practiceEventMsg:
		if msg.queue != m.queue {
			return m, nil
		}
		if _, ok := msg.msg.(practice.EventsClosedMsg); ok {
			return m, nil
		}
		cmd := m.handleEvent(msg.msg)
		return m, tea.Batch(cmd, waitForPracticeEvent(m.queue))

	case practice.ActionDoneMsg:
		if msg.Err == nil || errors.Is(msg.Err, practice.ErrSessionClosed) {
			m.snap = m.seq.Snapshot()
			if msg.Err == nil {
				switch msg.Action {
				case "pause":
					m.paused = true
				case "resume":
					m.paused = false
				}
			}
			return m, nil
		}
		log.Debug("practice action failed", "action", msg.Action, "error", msg.Err)
		return m, m.status.show(practiceContext, statusMessage{actionError(msg), true})

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case statusMessageTimeoutMsg:
		if applicationContext(msg) == practiceContext {
			m.status.clear()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *practiceModel) handleEvent(e tea.Msg) tea.Cmd {
	m.snap = m.seq.Snapshot()

	switch e := e.(type) {
	case practice.ErrorEvent:
		text := e.Err.Error()
		if e.Stuck {
			text += " · t to retry, s to skip"
		}
		return m.status.show(practiceContext, statusMessage{text, true})
	case practice.CompletedEvent:
		m.done = &e
		log.Info("practice completed", "average", e.Progress.AverageScore)
	case practice.StateChangedEvent:
		if e.State == practice.StateAwaitingUserSpeech {
			m.paused = false
		}
	}
	return nil
}

func (m practiceModel) handleKey(msg tea.KeyMsg) (practiceModel, tea.Cmd) {
	seq := m.seq

	switch msg.String() {
	case keyEsc:
		if m.showHelp {
			m.showHelp = false
		}
		return m, nil

	case " ", "r":
		if m.snap.Listening {
			return m, m.action("stop recording", seq.StopRecording)
		}
		return m, m.action("record", seq.StartRecording)

	case "n", "enter":
		if m.snap.Listening {
			return m, m.action("stop recording", seq.StopRecording)
		}
		return m, m.action("next", seq.Next)

	case "a":
		return m, m.action("repeat", seq.Repeat)

	case "t":
		return m, m.action("retry", seq.Retry)

	case "s":
		return m, m.action("skip", seq.Skip)

	case "p":
		if m.paused {
			return m, m.action("resume", seq.Resume)
		}
		return m, m.action("pause", seq.Pause)

	case "+", "=":
		return m, m.setRate(speech.Faster(seq.Rate()))

	case "-", "_":
		return m, m.setRate(speech.Slower(seq.Rate()))

	case "y":
		text := m.lastTranscript()
		if text == "" {
			return m, m.status.show(practiceContext, statusMessage{"Nothing to copy yet", false})
		}
		// Copy using OSC 52
		termenv.Copy(text)
		// Copy using native system clipboard
		_ = clipboard.WriteAll(text)
		return m, m.status.show(practiceContext, statusMessage{"Copied transcript", false})

	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

func (m *practiceModel) setRate(rate float64) tea.Cmd {
	if err := m.seq.SetRate(rate); err != nil {
		return m.status.show(practiceContext, statusMessage{err.Error(), true})
	}
	return m.status.show(practiceContext, statusMessage{"Speed " + speech.RateDisplay(rate), false})
}

// lastTranscript returns the live transcript or else the latest recorded one.
func (m practiceModel) lastTranscript() string {
	if m.snap.Transcript != "" {
		return m.snap.Transcript
	}
	for i := len(m.snap.Results) - 1; i >= 0; i-- {
		if t := m.snap.Results[i].Transcript; t != "" {
			return t
		}
	}
	return ""
}

func actionError(msg practice.ActionDoneMsg) string {
	if errors.Is(msg.Err, practice.ErrInvalidAction) {
		return fmt.Sprintf("Can't %s now", msg.Action)
	}
	return msg.Err.Error()
}

func (m practiceModel) View() string {
	if m.seq == nil {
		return ""
	}

	var b strings.Builder
	body := m.bodyView()
	if m.done != nil {
		body = m.summaryView()
	}

	used := strings.Count(body, "\n")
	helpHeight := 0
	var help string
	if m.showHelp {
		help = m.helpView()
		helpHeight = strings.Count(help, "\n") + 1
	}
	b.WriteString(body)
	b.WriteString(strings.Repeat("\n", max(0, m.common.height-used-statusBarHeight-helpHeight)))

	scene := m.seq.Session().Scene()
	note := fmt.Sprintf("%s · as %s", scene.Title, m.snap.Character)
	if m.snap.Stuck {
		note += " · stuck"
	} else if m.paused {
		note += " · paused"
	}
	statusBarView(&b, m.common.width, note, m.snap.Progress.String(), m.status.current)

	if m.showHelp {
		b.WriteString("\n" + help)
	}
	return b.String()
}

func (m practiceModel) bodyView() string {
	var b strings.Builder
	scene := m.seq.Session().Scene()
	width := max(20, m.common.width-6)

	fmt.Fprintf(&b, "\n%s\n", indent(titleStyle.Render(scene.Title), 2))
	fmt.Fprintf(&b, "  %s %s\n\n",
		subtleStyle.Render(m.snap.Progress.Bar(progressBarWidth)),
		dimStyle.Render(fmt.Sprintf("line %d of %d", min(m.snap.Index+1, m.snap.Total), m.snap.Total)),
	)

	// The lines around the current one, as many as fit.
	room := max(3, m.common.height-16)
	start := max(0, m.snap.Index-room/2)
	end := min(len(scene.Lines), start+room)
	for i := start; i < end; i++ {
		b.WriteString(m.lineView(i, scene.Lines[i], width))
	}

	b.WriteString("\n")
	b.WriteString(indent(m.hintView(), 2))
	return b.String()
}

// result returns the recorded result of line i. The session itself is owned
// by the sequencer, so results are read from the last snapshot.
func (m practiceModel) result(i int) (practice.LineResult, bool) {
	for _, r := range m.snap.Results {
		if r.Index == i {
			return r, true
		}
	}
	return practice.LineResult{}, false
}

func (m practiceModel) lineView(i int, line practice.DialogueLine, width int) string {
	mine := line.Character == m.snap.Character
	current := i == m.snap.Index

	marker := "  "
	if current {
		marker = selectedStyle.Render("▶ ")
	}

	stamp := ""
	if line.StartTime != nil {
		stamp = subtleStyle.Render(utils.FormatTimestamp(*line.StartTime)) + " "
	}

	name := line.Character + ":"
	text := line.Text
	result, scored := m.result(i)

	switch {
	case mine && scored:
		name = userLineStyle.Render(name)
		text = matchedView(line.Text, result.Transcript)
	case mine:
		name = userLineStyle.Render(name)
	case current:
		name = selectedStyle.Render(name)
	case i > m.snap.Index:
		name = dimStyle.Render(name)
		text = dimStyle.Render(text)
	default:
		name = subtleStyle.Render(name)
	}

	row := wordwrap.String(stamp+name+" "+text, width)
	if mine && scored {
		row += " " + scoreStyle(result.Score).Render(fmt.Sprintf("%d", result.Score))
	}
	return indent(marker+strings.ReplaceAll(row, "\n", "\n    "), 2)
}

// matchedView colors the expected words the learner said.
func matchedView(expected, transcript string) string {
	words, hit := practice.Matched(expected, transcript)
	parts := make([]string, len(words))
	for i, w := range words {
		if hit[i] {
			parts[i] = hitStyle.Render(w)
		} else {
			parts[i] = missStyle.Render(w)
		}
	}
	return strings.Join(parts, " ")
}

// hintView tells the learner what to do next.
func (m practiceModel) hintView() string {
	s := m.snap
	switch {
	case s.Stuck:
		return missStyle.Render("This line is stuck.") + " " + subtleStyle.Render("t retry · s skip")
	case s.State == practice.StateAwaitingSystemSpeech:
		return m.spinner.View() + " " + dimStyle.Render("Listen…")
	case s.State == practice.StateAwaitingUserSpeech && s.Listening:
		return m.spinner.View() + " " + userLineStyle.Render("Recording") + "  " + s.Transcript
	case s.State == practice.StateAwaitingUserSpeech:
		hint := "Your turn. Press space to speak."
		if s.Err != nil {
			hint = s.Err.Error() + ". Press space to try again."
		}
		return userLineStyle.Render(hint)
	case s.State == practice.StateScoring:
		return dimStyle.Render("Scoring…")
	case s.State == practice.StateAwaitingAdvance:
		r, _ := m.result(s.Index)
		return fmt.Sprintf("%s %s  %s",
			scoreStyle(r.Score).Render(fmt.Sprintf("%d/100", r.Score)),
			dimStyle.Render("“"+r.Transcript+"”"),
			subtleStyle.Render("enter next · a again"),
		)
	}
	return ""
}

func (m practiceModel) summaryView() string {
	var b strings.Builder
	scene := m.seq.Session().Scene()

	fmt.Fprintf(&b, "\n%s\n", indent(titleStyle.Render("Scene complete!"), 2))
	fmt.Fprintf(&b, "  %s as %s\n\n", scene.Title, m.snap.Character)
	fmt.Fprintf(&b, "  Average score: %s\n\n",
		scoreStyle(m.done.Progress.AverageScore).Render(fmt.Sprintf("%d", m.done.Progress.AverageScore)))

	for _, r := range m.done.Results {
		if scene.Lines[r.Index].Character != m.snap.Character {
			continue
		}
		fmt.Fprintf(&b, "  %s %s\n",
			scoreStyle(r.Score).Render(fmt.Sprintf("%3d", r.Score)),
			matchedView(scene.Lines[r.Index].Text, r.Transcript),
		)
	}
	b.WriteString("\n")
	b.WriteString(indent(subtleStyle.Render("esc back to the script · y copy last transcript"), 2))
	return b.String()
}

func (m practiceModel) helpView() string {
	s := helpColumns(
		[][2]string{
			{"space/r", "record / stop"},
			{"enter/n", "next line"},
			{"a", "try the line again"},
			{"p", "pause / resume"},
		},
		[][2]string{
			{"t", "retry a stuck line"},
			{"s", "skip line"},
			{"+/-", "speech rate"},
			{"y", "copy transcript"},
			{"esc", "back to the script"},
		},
	)
	return helpViewStyle(fillLines(indent(s, 2), m.common.width))
}
