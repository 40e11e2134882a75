package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// ErrPlayerClosed is returned by operations on a closed player.
var ErrPlayerClosed = errors.New("player is closed")

// pollInterval is how often Play checks whether the device drained the buffer.
const pollInterval = 25 * time.Millisecond

// PlayerConfig contains configuration for the audio player.
type PlayerConfig struct {
	SampleRate int // Hz, must match the PCM handed to Play
	Channels   int // 1 = mono, 2 = stereo
	BitDepth   int // only 16 is supported
}

// DefaultPlayerConfig matches piper's raw output: 22.05kHz mono 16-bit.
func DefaultPlayerConfig() PlayerConfig {
	return PlayerConfig{
		SampleRate: 22050,
		Channels:   1,
		BitDepth:   16,
	}
}

// Validate checks the configuration.
func (c PlayerConfig) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", c.SampleRate)
	}
	if c.Channels != 1 && c.Channels != 2 {
		return fmt.Errorf("channels must be 1 (mono) or 2 (stereo), got %d", c.Channels)
	}
	if c.BitDepth != 16 {
		return fmt.Errorf("bit depth must be 16, got %d", c.BitDepth)
	}
	return nil
}

// Duration returns how long pcm plays with this configuration.
func (c PlayerConfig) Duration(pcm []byte) time.Duration {
	frame := c.Channels * c.BitDepth / 8
	if frame == 0 || c.SampleRate == 0 {
		return 0
	}
	samples := len(pcm) / frame
	return time.Duration(samples) * time.Second / time.Duration(c.SampleRate)
}

// stream is the part of *oto.Player the Player drives.
type stream interface {
	Play()
	Pause()
	IsPlaying() bool
	Err() error
	Close() error
}

// Player plays one PCM buffer at a time. oto allows a single context per
// process, so a Player should be created once and shared.
//
// A Pause that arrives before Play, while the audio is still being
// synthesized, holds the next buffer until Resume.
type Player struct {
	config PlayerConfig
	open   func(io.Reader) stream

	mu      sync.Mutex
	current stream
	data    []byte // kept alive while oto reads from it
	paused  bool
	pending bool // paused with nothing playing yet
	closed  bool
}

// NewPlayer opens the audio device.
func NewPlayer(config PlayerConfig) (*Player, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	op := &oto.NewContextOptions{
		SampleRate:   config.SampleRate,
		ChannelCount: config.Channels,
		Format:       oto.FormatSignedInt16LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-ready

	return &Player{
		config: config,
		open:   func(r io.Reader) stream { return ctx.NewPlayer(r) },
	}, nil
}

// Config returns the player configuration.
func (p *Player) Config() PlayerConfig {
	return p.config
}

// Play plays pcm and blocks until it has been heard or ctx is canceled. Any
// buffer already playing is stopped first.
func (p *Player) Play(ctx context.Context, pcm []byte) error {
	if len(pcm) == 0 {
		return errors.New("audio data is empty")
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPlayerClosed
	}
	pending := p.pending
	p.stopLocked()

	data := make([]byte, len(pcm))
	copy(data, pcm)
	player := p.open(bytes.NewReader(data))
	p.current = player
	p.data = data
	p.paused = pending
	if !pending {
		player.Play()
	}
	p.mu.Unlock()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.mu.Lock()
			if p.current == player {
				p.stopLocked()
			}
			p.mu.Unlock()
			return ctx.Err()

		case <-ticker.C:
			p.mu.Lock()
			if p.current != player {
				// Replaced by a newer Play or stopped.
				p.mu.Unlock()
				return context.Canceled
			}
			if !p.paused && !player.IsPlaying() {
				err := player.Err()
				p.stopLocked()
				p.mu.Unlock()
				if err != nil {
					return fmt.Errorf("audio playback failed: %w", err)
				}
				return nil
			}
			p.mu.Unlock()
		}
	}
}

// Pause pauses the current buffer.
func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPlayerClosed
	}
	switch {
	case p.current == nil:
		p.pending = true
	case !p.paused:
		p.current.Pause()
		p.paused = true
	}
	return nil
}

// Resume resumes a paused buffer.
func (p *Player) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPlayerClosed
	}
	p.pending = false
	if p.current != nil && p.paused {
		p.current.Play()
		p.paused = false
	}
	return nil
}

// Stop stops the current buffer and drops a pending pause.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

// Close stops playback. The oto context cannot be released in v3 and is
// left to the garbage collector.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	p.closed = true
	p.open = nil
	return nil
}

func (p *Player) stopLocked() {
	p.pending = false
	if p.current == nil {
		return
	}
	p.current.Pause()
	_ = p.current.Close()
	p.current = nil
	p.data = nil
	p.paused = false
}
