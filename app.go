package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/viper"

	"github.com/dgnsrekt/shadow/internal/audio"
	"github.com/dgnsrekt/shadow/internal/cache"
	"github.com/dgnsrekt/shadow/internal/catalog"
	"github.com/dgnsrekt/shadow/practice"
	"github.com/dgnsrekt/shadow/speech"
	"github.com/dgnsrekt/shadow/speech/engines"
	"github.com/dgnsrekt/shadow/speech/engines/mock"
	"github.com/dgnsrekt/shadow/ui"
	"github.com/dgnsrekt/shadow/utils"
)

const (
	enginePiper = "piper"
	engineMock  = "mock"
	engineNone  = "none"
)

var envKeyReplacer = strings.NewReplacer(".", "_")

// app holds everything a practice run needs, wired from configuration.
type app struct {
	source   catalog.Source
	changes  <-chan struct{}
	selector *practice.Selector
	output   *speech.Speaker
	input    *speech.Listener

	closers []func() error
}

func newApp(ctx context.Context, logger *log.Logger) (*app, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	a := &app{selector: practice.NewSelector(nil)}

	if err := a.openSource(ctx, logger, true); err != nil {
		_ = a.Close()
		return nil, err
	}

	synth, err := a.synthesizer(logger)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.output = speech.NewSpeaker(synth, logger)
	if err := a.output.SetRate(viper.GetFloat64("speech.rate")); err != nil {
		_ = a.Close()
		return nil, err
	}

	a.input = speech.NewListener(a.recognizer(logger), speech.ListenerConfig{
		Language: viper.GetString("recognizer.language"),
		Timeout:  viper.GetDuration("recognizer.timeout"),
	}, logger)

	return a, nil
}

// openSource picks local scenes when scenes.dir is set and the cached API
// otherwise. Local directories are watched for changes when watch is set.
func (a *app) openSource(ctx context.Context, logger *log.Logger, watch bool) error {
	if dir := viper.GetString("scenes.dir"); dir != "" {
		local := catalog.NewLocal(utils.ExpandPath(dir), logger)
		a.source = local
		if !watch {
			return nil
		}

		wctx, cancel := context.WithCancel(ctx)
		a.closers = append(a.closers, func() error { cancel(); return nil })
		changes, err := local.Watch(wctx)
		if err != nil {
			logger.Warn("Not watching scenes directory", "dir", local.Dir(), "err", err)
			return nil
		}
		a.changes = changes
		return nil
	}

	src, err := openCachedSource(logger)
	if err != nil {
		return err
	}
	a.source = src.Cached
	a.closers = append(a.closers, src.manager.Close)
	return nil
}

type cachedSource struct {
	*catalog.Cached
	manager *cache.Manager
}

func openCachedSource(logger *log.Logger) (*cachedSource, error) {
	baseURL := viper.GetString("api.url")
	if baseURL == "" {
		return nil, errors.New("no scene API configured: set api.url or scenes.dir")
	}
	client, err := catalog.NewClient(catalog.ClientConfig{
		BaseURL: baseURL,
		Token:   viper.GetString("api.token"),
		Rate:    viper.GetFloat64("api.rate"),
	}, logger)
	if err != nil {
		return nil, err
	}

	manager, err := openCache(logger)
	if err != nil {
		return nil, err
	}
	return &cachedSource{
		Cached:  catalog.NewCached(client, manager, logger),
		manager: manager,
	}, nil
}

// openCache opens the scene cache in cache.dir, or the user cache directory
// when unset.
func openCache(logger *log.Logger) (*cache.Manager, error) {
	dir := viper.GetString("cache.dir")
	if dir == "" {
		d, err := defaultCacheDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(d, "scenes")
	}

	cfg := cache.DefaultConfig()
	cfg.DiskPath = utils.ExpandPath(dir)
	if mb := viper.GetInt64("cache.max_size"); mb > 0 {
		cfg.DiskCapacity = mb * 1024 * 1024
	}
	return cache.NewManager(cfg, logger)
}

func defaultCacheDir() (string, error) {
	dir, err := gap.NewScope(gap.User, "shadow").CacheDir()
	if err != nil {
		return "", fmt.Errorf("could not find cache directory: %w", err)
	}
	return dir, nil
}

func (a *app) synthesizer(logger *log.Logger) (speech.Synthesizer, error) {
	switch viper.GetString("speech.engine") {
	case engineMock:
		return mock.NewSynthesizer(), nil

	case enginePiper:
		player, err := audio.NewPlayer(audio.DefaultPlayerConfig())
		if err != nil {
			// Other characters' lines become unsupported and skippable.
			logger.Warn("Audio output unavailable", "err", err)
			return engines.NoSynthesizer{}, nil
		}
		a.closers = append(a.closers, player.Close)
		return engines.NewPiper(engines.PiperConfig{
			Binary:   viper.GetString("speech.piper.binary"),
			ModelDir: utils.ExpandPath(viper.GetString("speech.piper.models")),
			Timeout:  viper.GetDuration("speech.piper.timeout"),
		}, player, logger), nil

	case engineNone:
		return engines.NoSynthesizer{}, nil
	}
	return nil, fmt.Errorf("unknown speech engine %q", viper.GetString("speech.engine"))
}

// recognizer returns the configured recognition command. The mock engine
// hears every line exactly as written.
func (a *app) recognizer(logger *log.Logger) speech.Recognizer {
	if command := viper.GetString("recognizer.command"); command != "" {
		return engines.NewCommandRecognizer(command, logger)
	}
	if viper.GetString("speech.engine") == engineMock {
		return mock.NewRecognizer(a.currentLine)
	}
	return engines.NoRecognizer{}
}

func (a *app) currentLine() string {
	seq := a.selector.Active()
	if seq == nil {
		return ""
	}
	return seq.Snapshot().Line.Text
}

func (a *app) Deps() ui.Deps {
	return ui.Deps{
		Source:   a.source,
		Changes:  a.changes,
		Selector: a.selector,
		Output:   a.output,
		Input:    a.input,
	}
}

// Close stops speech and releases everything newApp opened.
func (a *app) Close() error {
	a.selector.Back()
	if a.output != nil {
		a.output.Stop()
	}
	if a.input != nil {
		a.input.Reset()
	}

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
