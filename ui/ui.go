// Package ui provides the main UI for the shadow application.
package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/log"
	te "github.com/muesli/termenv"

	"github.com/dgnsrekt/shadow/practice"
)

const loadTimeout = 30 * time.Second

// NewProgram returns a new Tea program.
func NewProgram(cfg Config, deps Deps) *tea.Program {
	log.Debug(
		"Starting shadow",
		"show", cfg.ShowID,
		"episode", cfg.EpisodeID,
		"glamour", cfg.GlamourEnabled,
	)

	var opts []tea.ProgramOption
	if cfg.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	return tea.NewProgram(newModel(cfg, deps), opts...)
}

type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

type (
	scenesLoadedMsg struct {
		scenes  []practice.Scene
		refresh bool
	}
	scenesChangedMsg     struct{}
	sceneChosenMsg       struct{ scene practice.Scene }
	practiceRequestedMsg struct{ character string }
)

// applicationContext indicates the area of the application something applies
// to. Occasionally used as an argument to commands and messages.
type applicationContext int

const (
	listContext applicationContext = iota
	scriptContext
	practiceContext
)

// state is the top-level application state.
type state int

const (
	stateLoading state = iota
	stateShowScenes
	stateShowScript
	statePractice
)

func (s state) String() string {
	return map[state]string{
		stateLoading:    "loading scenes",
		stateShowScenes: "showing scene list",
		stateShowScript: "showing script",
		statePractice:   "practicing",
	}[s]
}

// Common stuff we'll need to access in all models.
type commonModel struct {
	cfg    Config
	width  int
	height int
}

type model struct {
	common   *commonModel
	deps     Deps
	state    state
	fatalErr error

	// Sub-models
	list     sceneListModel
	script   scriptModel
	practice practiceModel
}

func newModel(cfg Config, deps Deps) model {
	if cfg.GlamourStyle == "" || cfg.GlamourStyle == styles.AutoStyle {
		if te.HasDarkBackground() {
			cfg.GlamourStyle = styles.DarkStyle
		} else {
			cfg.GlamourStyle = styles.LightStyle
		}
	}
	if deps.Selector == nil {
		deps.Selector = practice.NewSelector(nil)
	}

	common := &commonModel{cfg: cfg}
	return model{
		common:   common,
		deps:     deps,
		state:    stateLoading,
		list:     newSceneListModel(common, deps.Selector),
		script:   newScriptModel(common),
		practice: newPracticeModel(common),
	}
}

func (m model) Init() tea.Cmd {
	log.Debug("Init() called", "state", m.state)
	cmds := []tea.Cmd{
		m.list.spinner.Tick,
		loadScenes(m.deps, m.common.cfg, false),
	}
	if m.deps.Changes != nil {
		cmds = append(cmds, waitForChanges(m.deps.Changes))
	}
	return tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// If there's been an error, any key exits
	if m.fatalErr != nil {
		if _, ok := msg.(tea.KeyMsg); ok {
			return m, tea.Quit
		}
	}

	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		// Ctrl+C always quits no matter where in the application you are.
		case "ctrl+c":
			m.leavePractice()
			return m, tea.Quit

		case "ctrl+z":
			return m, tea.Suspend

		case "q":
			if m.state == stateShowScenes && m.list.filterState == filtering {
				break
			}
			m.leavePractice()
			return m, tea.Quit

		case keyEsc:
			switch m.state { //nolint:exhaustive
			case stateShowScript:
				if !m.script.showHelp {
					m.state = stateShowScenes
					return m, nil
				}
			case statePractice:
				if !m.practice.showHelp {
					m.leavePractice()
					m.state = stateShowScript
					return m, m.script.render()
				}
			}

		case "r":
			if m.state == stateShowScenes && m.list.filterState != filtering {
				m.list.loading = true
				return m, tea.Batch(m.list.spinner.Tick, loadScenes(m.deps, m.common.cfg, true))
			}
		}

	// Window size is received when starting up and on every resize
	case tea.WindowSizeMsg:
		m.common.width = msg.Width
		m.common.height = msg.Height
		m.list.setSize(msg.Width, msg.Height)
		m.script.setSize(msg.Width, msg.Height)
		if m.state == stateShowScript {
			cmds = append(cmds, m.script.render())
		}

	case errMsg:
		if m.state == stateLoading {
			m.fatalErr = msg.err
			return m, nil
		}
		m.list.loading = false
		return m, m.list.status.show(listContext, statusMessage{"Could not load scenes: " + msg.Error(), true})

	case scenesLoadedMsg:
		m.deps.Selector.SetScenes(msg.scenes)
		m.list.loading = false
		m.list.refresh()
		if m.state == stateLoading {
			m.state = stateShowScenes
		}
		if msg.refresh {
			return m, m.list.status.show(listContext, statusMessage{fmt.Sprintf("Loaded %d scenes", len(msg.scenes)), false})
		}
		return m, nil

	case scenesChangedMsg:
		log.Debug("scenes changed on disk")
		return m, tea.Batch(
			loadScenes(m.deps, m.common.cfg, false),
			waitForChanges(m.deps.Changes),
		)

	case sceneChosenMsg:
		scene, err := m.deps.Selector.Select(msg.scene.ID)
		if err != nil {
			return m, m.list.status.show(listContext, statusMessage{err.Error(), true})
		}
		m.state = stateShowScript
		return m, m.script.setScene(scene)

	case practiceRequestedMsg:
		cmd, err := m.startPractice(msg.character)
		if err != nil {
			return m, m.script.status.show(scriptContext, statusMessage{err.Error(), true})
		}
		m.state = statePractice
		return m, cmd
	}

	// Process children
	switch m.state { //nolint:exhaustive
	case stateLoading, stateShowScenes:
		newListModel, cmd := m.list.update(msg)
		m.list = newListModel
		cmds = append(cmds, cmd)

	case stateShowScript:
		newScriptModel, cmd := m.script.update(msg)
		m.script = newScriptModel
		cmds = append(cmds, cmd)

	case statePractice:
		newPracticeModel, cmd := m.practice.update(msg)
		m.practice = newPracticeModel
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// startPractice opens a practice session of the current scene as character.
func (m *model) startPractice(character string) (tea.Cmd, error) {
	queue := practice.NewEventQueue()
	opts := []practice.Option{
		practice.WithEventHandler(queue.Push),
		practice.WithLogger(log.Default()),
	}
	if m.common.cfg.TurnPause > 0 {
		opts = append(opts, practice.WithTurnPause(m.common.cfg.TurnPause))
	}

	seq, err := m.deps.Selector.Choose(character, m.deps.Output, m.deps.Input, opts...)
	if err != nil {
		queue.Close()
		return nil, err
	}
	log.Info("practice started", "scene", seq.Session().Scene().ID, "character", character)
	return m.practice.begin(seq, queue), nil
}

// leavePractice stops the active practice session, if any.
func (m *model) leavePractice() {
	m.practice.end()
	m.deps.Selector.Back()
}

func (m model) View() string {
	if m.fatalErr != nil {
		return errorView(m.fatalErr, true)
	}

	switch m.state { //nolint:exhaustive
	case stateShowScript:
		return m.script.View()
	case statePractice:
		return m.practice.View()
	default:
		return m.list.View()
	}
}

func errorView(err error, fatal bool) string {
	exitMsg := "press any key to "
	if fatal {
		exitMsg += "exit"
	} else {
		exitMsg += "return"
	}
	s := fmt.Sprintf("%s\n\n%v\n\n%s",
		errorTitleStyle.Render("ERROR"),
		err,
		subtleStyle.Render(exitMsg),
	)
	return "\n" + indent(s, 3)
}

// COMMANDS

type refresher interface {
	Refresh(ctx context.Context, showID, episodeID string) ([]practice.Scene, error)
}

func loadScenes(deps Deps, cfg Config, refresh bool) tea.Cmd {
	return func() tea.Msg {
		if deps.Source == nil {
			return errMsg{errors.New("no scene source configured")}
		}

		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		var (
			scenes []practice.Scene
			err    error
		)
		if r, ok := deps.Source.(refresher); ok && refresh {
			scenes, err = r.Refresh(ctx, cfg.ShowID, cfg.EpisodeID)
		} else {
			scenes, err = deps.Source.Scenes(ctx, cfg.ShowID, cfg.EpisodeID)
		}
		if err != nil {
			log.Error("error loading scenes", "show", cfg.ShowID, "episode", cfg.EpisodeID, "error", err)
			return errMsg{err}
		}

		log.Debug("loaded scenes", "count", len(scenes))
		return scenesLoadedMsg{scenes: scenes, refresh: refresh}
	}
}

func waitForChanges(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return scenesChangedMsg{}
	}
}
