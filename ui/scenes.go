package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	runewidth "github.com/mattn/go-runewidth"

	"github.com/dgnsrekt/shadow/practice"
)

const (
	listTopPadding = 2
	listRowHeight  = 1
)

type filterState int

const (
	unfiltered    filterState = iota // no filter set
	filtering                        // user is actively setting a filter
	filterApplied                    // a filter is applied and user is not editing filter
)

type sceneListModel struct {
	common      *commonModel
	selector    *practice.Selector
	spinner     spinner.Model
	filterInput textinput.Model
	filterState filterState
	loading     bool
	showHelp    bool
	status      statusLine

	// Scenes currently shown, after filtering.
	scenes []practice.Scene
	cursor int
	offset int
}

func newSceneListModel(common *commonModel, selector *practice.Selector) sceneListModel {
	sp := spinner.New()
	sp.Spinner = spinner.Line
	sp.Style = dimStyle

	ti := textinput.New()
	ti.Prompt = "Find: "
	ti.PromptStyle = filterPromptStyle
	ti.Cursor.Style = selectedStyle
	ti.CharLimit = 80

	return sceneListModel{
		common:      common,
		selector:    selector,
		spinner:     sp,
		filterInput: ti,
		loading:     true,
	}
}

func (m *sceneListModel) setSize(w, _ int) {
	m.filterInput.Width = max(0, w-len(m.filterInput.Prompt)-4)
	m.clampOffset()
}

// perPage returns how many scene rows fit on screen.
func (m sceneListModel) perPage() int {
	h := m.common.height - listTopPadding - statusBarHeight - 2
	if m.showHelp {
		h -= strings.Count(m.helpView(), "\n") + 1
	}
	return max(1, h/listRowHeight)
}

// refresh re-applies the filter to the selector's scenes.
func (m *sceneListModel) refresh() {
	query := ""
	if m.filterState != unfiltered {
		query = m.filterInput.Value()
	}
	m.scenes = m.selector.Filter(query)
	if m.cursor >= len(m.scenes) {
		m.cursor = max(0, len(m.scenes)-1)
	}
	m.clampOffset()
}

func (m *sceneListModel) clampOffset() {
	per := m.perPage()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+per {
		m.offset = m.cursor - per + 1
	}
	m.offset = max(0, m.offset)
}

func (m *sceneListModel) moveCursor(delta int) {
	if len(m.scenes) == 0 {
		return
	}
	m.cursor = min(max(0, m.cursor+delta), len(m.scenes)-1)
	m.clampOffset()
}

func (m *sceneListModel) resetFilter() {
	m.filterState = unfiltered
	m.filterInput.Reset()
	m.filterInput.Blur()
	m.refresh()
}

func (m sceneListModel) selected() (practice.Scene, bool) {
	if m.cursor < 0 || m.cursor >= len(m.scenes) {
		return practice.Scene{}, false
	}
	return m.scenes[m.cursor], true
}

func (m sceneListModel) update(msg tea.Msg) (sceneListModel, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case statusMessageTimeoutMsg:
		if applicationContext(msg) == listContext {
			m.status.clear()
		}
		return m, nil

	case tea.KeyMsg:
		if m.filterState == filtering {
			return m.handleFiltering(msg)
		}

		switch msg.String() {
		case "k", "up", "ctrl+k":
			m.moveCursor(-1)
		case "j", "down", "ctrl+j":
			m.moveCursor(1)
		case "b", "pgup":
			m.moveCursor(-m.perPage())
		case "f", "pgdown", " ":
			m.moveCursor(m.perPage())
		case "g", "home":
			m.moveCursor(-len(m.scenes))
		case "G", "end":
			m.moveCursor(len(m.scenes))

		case "/":
			m.filterState = filtering
			m.filterInput.CursorEnd()
			return m, m.filterInput.Focus()

		case keyEsc:
			if m.showHelp {
				m.showHelp = false
				m.clampOffset()
			} else if m.filterState == filterApplied {
				m.resetFilter()
			}

		case "enter":
			scene, ok := m.selected()
			if !ok {
				return m, nil
			}
			return m, func() tea.Msg { return sceneChosenMsg{scene} }

		case "?":
			m.showHelp = !m.showHelp
			m.clampOffset()
		}
	}

	return m, tea.Batch(cmds...)
}

func (m sceneListModel) handleFiltering(msg tea.KeyMsg) (sceneListModel, tea.Cmd) {
	switch msg.String() {
	case keyEsc:
		m.resetFilter()
		return m, nil
	case "enter", "tab", "shift+tab", "ctrl+k", "up", "ctrl+j", "down":
		m.filterInput.Blur()
		if strings.TrimSpace(m.filterInput.Value()) == "" {
			m.resetFilter()
			return m, nil
		}
		m.filterState = filterApplied
		m.cursor = 0
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	m.cursor = 0
	m.offset = 0
	m.refresh()
	return m, cmd
}

func (m sceneListModel) View() string {
	var b strings.Builder

	// Header
	header := titleStyle.Render(m.headerText())
	switch {
	case m.filterState == filtering:
		header = m.filterInput.View()
	case m.loading:
		header = m.spinner.View() + " " + dimStyle.Render("Loading scenes…")
	}
	b.WriteString(indent(header, 2))
	b.WriteString("\n")

	per := m.perPage()
	switch {
	case len(m.scenes) == 0 && !m.loading:
		b.WriteString(indent(subtleStyle.Render(m.emptyText()), 2))
		per--
	default:
		end := min(len(m.scenes), m.offset+per)
		for i := m.offset; i < end; i++ {
			b.WriteString(m.rowView(i))
			b.WriteString("\n")
		}
		per -= end - m.offset
	}
	b.WriteString(strings.Repeat("\n", max(0, per)))
	b.WriteString("\n")

	position := ""
	if len(m.scenes) > 0 {
		position = fmt.Sprintf("%d/%d", m.cursor+1, len(m.scenes))
	}
	statusBarView(&b, m.common.width, m.noteText(), position, m.status.current)

	if m.showHelp {
		b.WriteString("\n" + m.helpView())
	}
	return b.String()
}

func (m sceneListModel) headerText() string {
	cfg := m.common.cfg
	if cfg.ShowID != "" {
		return fmt.Sprintf("%s · %s", cfg.ShowID, cfg.EpisodeID)
	}
	return "Scenes"
}

func (m sceneListModel) emptyText() string {
	if m.filterState != unfiltered {
		return "Nothing matched your filter."
	}
	return "No scenes found."
}

func (m sceneListModel) noteText() string {
	if m.filterState == filterApplied {
		return fmt.Sprintf("Filtered by “%s” · esc to clear", m.filterInput.Value())
	}
	return "Pick a scene to practice"
}

// rowView renders a scene as "title  N lines · characters", aligned in
// columns.
func (m sceneListModel) rowView(i int) string {
	s := m.scenes[i]
	width := max(20, m.common.width-4)
	titleWidth := width * 2 / 3

	title := runewidth.Truncate(s.Title, titleWidth-2, ellipsis)
	title = runewidth.FillRight(title, titleWidth)
	details := fmt.Sprintf("%d lines · %s", len(s.Lines), strings.Join(s.CharacterNames(), ", "))
	details = runewidth.Truncate(details, width-titleWidth, ellipsis)

	if i == m.cursor {
		return selectedStyle.Render("│ "+title) + dimStyle.Render(details)
	}
	return "  " + title + subtleStyle.Render(details)
}

func (m sceneListModel) helpView() string {
	s := helpColumns(
		[][2]string{
			{"k/↑", "up"},
			{"j/↓", "down"},
			{"b/pgup", "page up"},
			{"f/pgdn", "page down"},
		},
		[][2]string{
			{"enter", "open scene"},
			{"/", "filter"},
			{"r", "reload scenes"},
			{"q", "quit"},
		},
	)
	return helpViewStyle(fillLines(indent(s, 2), m.common.width))
}
