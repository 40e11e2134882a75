package engines

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/shadow/speech"
)

// PCMPlayer plays raw 16-bit PCM. *audio.Player implements it.
type PCMPlayer interface {
	Play(ctx context.Context, pcm []byte) error
	Pause() error
	Resume() error
}

// PiperConfig configures the piper synthesizer.
type PiperConfig struct {
	Binary   string        // piper executable, "piper" by default
	ModelDir string        // directory holding *.onnx voice models
	Timeout  time.Duration // per-utterance synthesis timeout
}

// Piper synthesizes speech with the piper binary and plays it through a
// PCMPlayer. Every *.onnx model in ModelDir is offered as a voice.
type Piper struct {
	config PiperConfig
	player PCMPlayer
	logger *log.Logger

	once      sync.Once
	binary    string
	binaryErr error
}

// NewPiper creates a piper synthesizer.
func NewPiper(config PiperConfig, player PCMPlayer, logger *log.Logger) *Piper {
	if config.Binary == "" {
		config.Binary = "piper"
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Piper{
		config: config,
		player: player,
		logger: logger.WithPrefix("piper"),
	}
}

func (p *Piper) resolve() (string, error) {
	p.once.Do(func() {
		p.binary, p.binaryErr = lookPath(p.config.Binary)
	})
	return p.binary, p.binaryErr
}

// Available reports whether the binary, a model and an audio player exist.
func (p *Piper) Available() bool {
	if p.player == nil {
		return false
	}
	if _, err := p.resolve(); err != nil {
		return false
	}
	return len(p.Voices()) > 0
}

// Voices lists the models in the model directory.
func (p *Piper) Voices() []speech.Voice {
	matches, err := filepath.Glob(filepath.Join(p.config.ModelDir, "*.onnx"))
	if err != nil {
		return nil
	}
	sort.Strings(matches)

	voices := make([]speech.Voice, 0, len(matches))
	for _, m := range matches {
		voices = append(voices, VoiceFromModel(m))
	}
	return voices
}

// VoiceFromModel describes a piper model from its file name, which follows
// the "<lang>_<REGION>-<name>-<quality>.onnx" convention.
func VoiceFromModel(path string) speech.Voice {
	base := strings.TrimSuffix(filepath.Base(path), ".onnx")
	v := speech.Voice{ID: path, Name: base, Local: true}

	parts := strings.Split(base, "-")
	if len(parts) > 0 {
		v.Language = strings.ReplaceAll(parts[0], "_", "-")
	}
	if len(parts) > 1 {
		v.Name = parts[1]
	}
	if len(parts) > 2 {
		v.Quality = parts[len(parts)-1]
	}
	return v
}

// Utter synthesizes u and plays it.
func (p *Piper) Utter(ctx context.Context, u speech.Utterance) error {
	binary, err := p.resolve()
	if err != nil {
		return err
	}

	model := u.Voice.ID
	if model == "" {
		voices := p.Voices()
		if len(voices) == 0 {
			return fmt.Errorf("no piper models in %s", p.config.ModelDir)
		}
		model = voices[0].ID
	}
	if _, err := os.Stat(model); err != nil {
		return fmt.Errorf("piper model: %w", err)
	}

	args := []string{"--model", model, "--output-raw"}
	if cfg := model + ".json"; fileExists(cfg) {
		args = append(args, "--config", cfg)
	}
	if u.Rate > 0 && u.Rate != 1 {
		// piper's length scale is the inverse of speed
		args = append(args, "--length_scale", fmt.Sprintf("%.2f", 1/u.Rate))
	}

	start := time.Now()
	pcm, err := runWithStdin(ctx, p.config.Timeout, u.Text, binary, args...)
	if err != nil {
		if ctx.Err() != nil {
			return speech.ErrCanceled
		}
		return err
	}
	p.logger.Debug("Synthesized", "bytes", len(pcm), "took", time.Since(start))

	if err := p.player.Play(ctx, pcm); err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return speech.ErrCanceled
		}
		return err
	}
	return nil
}

// Pause pauses playback.
func (p *Piper) Pause() error {
	if p.player == nil {
		return nil
	}
	return p.player.Pause()
}

// Resume resumes playback.
func (p *Piper) Resume() error {
	if p.player == nil {
		return nil
	}
	return p.player.Resume()
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
