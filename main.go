// Package main provides the entry point for the shadow CLI application.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/dgnsrekt/shadow/speech"
	"github.com/dgnsrekt/shadow/ui"
	"github.com/dgnsrekt/shadow/utils"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	style      string
	width      uint
	mouse      bool

	rootCmd = &cobra.Command{
		Use:   "shadow [SHOW EPISODE]",
		Short: "Practice English by shadowing TV show dialogue",
		Long: paragraph(
			fmt.Sprintf("\nPractice English by %s TV show dialogue: listen to a line, then say it yourself.", keyword("shadowing")),
		),
		Example:          paragraph("shadow friends s01e01\nshadow --scenes-dir ~/scenes"),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             validateEpisodeArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

// validateStyle checks if the style is a default style, if not, checks that
// the custom style exists.
func validateStyle(style string) error {
	if style != "auto" && styles.DefaultStyles[style] == nil {
		style = utils.ExpandPath(style)
		if _, err := os.Stat(style); errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("specified style does not exist: %s", style)
		} else if err != nil {
			return fmt.Errorf("unable to stat file: %w", err)
		}
	}
	return nil
}

func validateOptions(cmd *cobra.Command) error {
	// grab config values from Viper
	width = viper.GetUint("width")
	mouse = viper.GetBool("mouse")

	switch engine := viper.GetString("speech.engine"); engine {
	case engineNone, engineMock, enginePiper:
	default:
		return fmt.Errorf("unknown speech engine %q: use %s, %s or %s", engine, enginePiper, engineMock, engineNone)
	}
	if rate := viper.GetFloat64("speech.rate"); !speech.ValidRate(rate) {
		return fmt.Errorf("speech rate must be one of %v, got %v", speech.Rates, rate)
	}
	if r := viper.GetFloat64("api.rate"); r < 0 {
		return fmt.Errorf("api rate must not be negative, got %v", r)
	}
	if viper.GetDuration("practice.turn_pause") < 0 {
		return errors.New("practice turn pause must not be negative")
	}

	// validate the glamour style
	style = viper.GetString("style")
	if err := validateStyle(style); err != nil {
		return err
	}

	isTerminal := term.IsTerminal(int(os.Stdout.Fd()))
	// We want to use a special no-TTY style, when stdout is not a terminal
	// and there was no specific style passed by arg
	if !isTerminal && !cmd.Flags().Changed("style") {
		style = "notty"
	}

	// Detect terminal width
	if !cmd.Flags().Changed("width") { //nolint:nestif
		if isTerminal && width == 0 {
			w, _, err := term.GetSize(int(os.Stdout.Fd()))
			if err == nil {
				width = uint(w) //nolint:gosec
			}

			if width > 120 {
				width = 120
			}
		}
		if width == 0 {
			width = 80
		}
	}
	return nil
}

func validateEpisodeArgs(_ *cobra.Command, args []string) error {
	if len(args) != 0 && len(args) != 2 {
		return fmt.Errorf("accepts a show and an episode, received %d argument(s)", len(args))
	}
	return nil
}

// episodeArgs returns the show and episode from args, falling back to the
// configured ones.
func episodeArgs(args []string) (string, string) {
	if len(args) == 2 {
		return args[0], args[1]
	}
	return viper.GetString("show"), viper.GetString("episode")
}

func execute(cmd *cobra.Command, args []string) error {
	showID, episodeID := episodeArgs(args)
	if showID == "" && viper.GetString("scenes.dir") == "" {
		return errors.New("pick a show and episode, or set scenes.dir to practice local scenes")
	}
	return runTUI(cmd, showID, episodeID)
}

func runTUI(cmd *cobra.Command, showID, episodeID string) error {
	// Read environment to get debugging stuff
	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}

	// use style set in env, or auto if unset
	if err := validateStyle(cfg.GlamourStyle); err != nil {
		cfg.GlamourStyle = style
	}

	cfg.ShowID = showID
	cfg.EpisodeID = episodeID
	cfg.GlamourMaxWidth = width
	cfg.EnableMouse = mouse
	cfg.TurnPause = viper.GetDuration("practice.turn_pause")

	a, err := newApp(cmdContext(cmd), log.Default())
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck

	// Run Bubble Tea program
	if _, err := ui.NewProgram(cfg, a.Deps()).Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}

	return nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	flags.String("api-url", "", "scene API base URL")
	flags.String("api-token", "", "scene API bearer token")
	flags.String("cache-dir", "", "scene cache directory")
	flags.StringP("scenes-dir", "d", "", "read scenes from a local directory instead of the API")
	flags.StringP("engine", "e", enginePiper, "speech engine (piper, mock or none)")
	flags.Float64P("rate", "r", speech.DefaultRate, "speaking rate of the other characters")
	flags.String("recognizer", "", "speech recognition command")

	flags.StringVarP(&style, "style", "s", styles.AutoStyle, "style name or JSON path")
	flags.UintVarP(&width, "width", "w", 0, "word-wrap at width (set to 0 to disable)")
	rootCmd.Flags().BoolVarP(&mouse, "mouse", "m", false, "enable mouse wheel")
	_ = rootCmd.Flags().MarkHidden("mouse")

	// Config bindings
	_ = viper.BindPFlag("api.url", flags.Lookup("api-url"))
	_ = viper.BindPFlag("api.token", flags.Lookup("api-token"))
	_ = viper.BindPFlag("cache.dir", flags.Lookup("cache-dir"))
	_ = viper.BindPFlag("scenes.dir", flags.Lookup("scenes-dir"))
	_ = viper.BindPFlag("speech.engine", flags.Lookup("engine"))
	_ = viper.BindPFlag("speech.rate", flags.Lookup("rate"))
	_ = viper.BindPFlag("recognizer.command", flags.Lookup("recognizer"))
	_ = viper.BindPFlag("style", flags.Lookup("style"))
	_ = viper.BindPFlag("width", flags.Lookup("width"))
	_ = viper.BindPFlag("mouse", rootCmd.Flags().Lookup("mouse"))

	setDefaults()

	rootCmd.AddCommand(configCmd, manCmd, scenesCmd, cacheCmd)
}

func setDefaults() {
	viper.SetDefault("style", styles.AutoStyle)
	viper.SetDefault("width", 0)

	viper.SetDefault("show", "")
	viper.SetDefault("episode", "")
	viper.SetDefault("api.url", "")
	viper.SetDefault("api.rate", 2.0)
	viper.SetDefault("cache.dir", "")
	viper.SetDefault("cache.max_size", 64)
	viper.SetDefault("scenes.dir", "")

	viper.SetDefault("speech.engine", enginePiper)
	viper.SetDefault("speech.rate", speech.DefaultRate)
	viper.SetDefault("speech.piper.binary", "piper")
	viper.SetDefault("speech.piper.models", "")
	viper.SetDefault("speech.piper.timeout", "30s")

	viper.SetDefault("recognizer.command", "")
	viper.SetDefault("recognizer.language", speech.DefaultLanguage)
	viper.SetDefault("recognizer.timeout", "15s")

	viper.SetDefault("practice.turn_pause", "600ms")
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "shadow")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "shadow")}, dirs...)
	}

	if c := os.Getenv("SHADOW_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("shadow")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("shadow")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "shadow.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
