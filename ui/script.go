package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/shadow/practice"
	"github.com/dgnsrekt/shadow/utils"
)

// Height of the character picker below the script.
const pickerHeight = 2

type scriptRenderedMsg struct {
	sceneID string
	content string
}

// scriptModel previews a scene and lets the learner pick a character.
type scriptModel struct {
	common   *commonModel
	viewport viewport.Model
	showHelp bool
	status   statusLine

	scene      practice.Scene
	characters []string
	cursor     int
}

func newScriptModel(common *commonModel) scriptModel {
	vp := viewport.New(0, 0)
	vp.YPosition = 0
	return scriptModel{
		common:   common,
		viewport: vp,
	}
}

func (m *scriptModel) setSize(w, h int) {
	m.viewport.Width = w
	m.viewport.Height = max(0, h-statusBarHeight-pickerHeight)
	if m.showHelp {
		m.viewport.Height = max(0, m.viewport.Height-strings.Count(m.helpView(), "\n")-1)
	}
}

func (m *scriptModel) toggleHelp() {
	m.showHelp = !m.showHelp
	m.setSize(m.common.width, m.common.height)
	if m.viewport.PastBottom() {
		m.viewport.GotoBottom()
	}
}

// setScene shows a new scene. The first character is preselected.
func (m *scriptModel) setScene(scene practice.Scene) tea.Cmd {
	m.scene = scene
	m.characters = scene.CharacterNames()
	m.cursor = 0
	m.status.clear()
	m.viewport.SetContent("")
	m.viewport.GotoTop()
	return m.render()
}

func (m scriptModel) character() string {
	if m.cursor < 0 || m.cursor >= len(m.characters) {
		return ""
	}
	return m.characters[m.cursor]
}

func (m scriptModel) render() tea.Cmd {
	scene, character := m.scene, m.character()
	width := m.viewport.Width
	return func() tea.Msg {
		s, err := glamourRender(m.common.cfg, width, utils.SceneMarkdown(scene, character))
		if err != nil {
			log.Error("error rendering with Glamour", "error", err)
			return errMsg{err}
		}
		return scriptRenderedMsg{sceneID: scene.ID, content: s}
	}
}

func (m scriptModel) update(msg tea.Msg) (scriptModel, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case keyEsc:
			if m.showHelp {
				m.toggleHelp()
			}
			return m, nil
		case "home", "g":
			m.viewport.GotoTop()
		case "end", "G":
			m.viewport.GotoBottom()
		case "left", "h", "shift+tab":
			if len(m.characters) > 0 {
				m.cursor = (m.cursor - 1 + len(m.characters)) % len(m.characters)
				return m, m.render()
			}
		case "right", "l", "tab":
			if len(m.characters) > 0 {
				m.cursor = (m.cursor + 1) % len(m.characters)
				return m, m.render()
			}
		case "enter":
			if c := m.character(); c != "" {
				return m, func() tea.Msg { return practiceRequestedMsg{character: c} }
			}
		case "?":
			m.toggleHelp()
		}

	case scriptRenderedMsg:
		if msg.sceneID == m.scene.ID {
			m.viewport.SetContent(msg.content)
		}

	case statusMessageTimeoutMsg:
		if applicationContext(msg) == scriptContext {
			m.status.clear()
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m scriptModel) View() string {
	var b strings.Builder
	fmt.Fprint(&b, m.viewport.View()+"\n")
	fmt.Fprint(&b, m.pickerView()+"\n")

	note := m.scene.Title
	if c := m.character(); c != "" {
		note = fmt.Sprintf("%s · you are %s (%d lines)", m.scene.Title, c, m.scene.LinesFor(c))
	}
	position := fmt.Sprintf("%3.f%%", m.viewport.ScrollPercent()*100)
	statusBarView(&b, m.common.width, note, position, m.status.current)

	if m.showHelp {
		fmt.Fprint(&b, "\n"+m.helpView())
	}
	return b.String()
}

// pickerView lists the characters with the chosen one highlighted.
func (m scriptModel) pickerView() string {
	var parts []string
	for i, c := range m.characters {
		if i == m.cursor {
			parts = append(parts, selectedStyle.Render("["+c+"]"))
			continue
		}
		parts = append(parts, subtleStyle.Render(" "+c+" "))
	}
	line := dimStyle.Render("Practice as: ") + strings.Join(parts, " ")
	return "\n" + strings.TrimRight(indent(line, 2), "\n")
}

func (m scriptModel) helpView() string {
	s := helpColumns(
		[][2]string{
			{"k/↑", "up"},
			{"j/↓", "down"},
			{"g/home", "go to top"},
			{"G/end", "go to bottom"},
		},
		[][2]string{
			{"←/→ tab", "choose character"},
			{"enter", "start practice"},
			{"esc", "back to scenes"},
			{"q", "quit"},
		},
	)
	return helpViewStyle(fillLines(indent(s, 2), m.common.width))
}

// This is where the magic happens.
func glamourRender(cfg Config, width int, markdown string) (string, error) {
	if !cfg.GlamourEnabled {
		return markdown, nil
	}

	wrap := width
	if cfg.GlamourMaxWidth > 0 {
		wrap = min(int(cfg.GlamourMaxWidth), width) //nolint:gosec
	}
	r, err := glamour.NewTermRenderer(
		utils.GlamourStyle(cfg.GlamourStyle),
		glamour.WithWordWrap(max(0, wrap)),
	)
	if err != nil {
		return "", fmt.Errorf("error creating glamour renderer: %w", err)
	}

	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("error rendering markdown: %w", err)
	}
	return out, nil
}
