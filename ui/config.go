package ui

import (
	"time"

	"github.com/dgnsrekt/shadow/internal/catalog"
	"github.com/dgnsrekt/shadow/practice"
	"github.com/dgnsrekt/shadow/speech"
)

// Config contains TUI-specific configuration.
type Config struct {
	ShowID    string
	EpisodeID string

	GlamourMaxWidth uint
	GlamourStyle    string `env:"GLAMOUR_STYLE"`
	EnableMouse     bool
	TurnPause       time.Duration

	// For debugging the UI
	GlamourEnabled bool `env:"SHADOW_ENABLE_GLAMOUR" envDefault:"true"`
	AltScreen      bool `env:"SHADOW_ALT_SCREEN"     envDefault:"true"`
}

// Deps are the collaborators the TUI drives.
type Deps struct {
	Source catalog.Source

	// Changes, when set, signals that the scenes should be reloaded.
	Changes <-chan struct{}

	Selector *practice.Selector
	Output   speech.Output
	Input    speech.Input
}
