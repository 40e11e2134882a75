package engines

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/shadow/speech"
)

// CommandRecognizer runs an external speech-to-text command for each
// recognition session. The command records from the microphone and prints
// one JSON object per line:
//
//	{"text": "hi the", "final": false}
//	{"text": "hi there", "final": true}
//	{"error": "no-speech"}
//
// It must exit when it detects silence. The placeholder {lang} in the
// arguments is replaced by the recognition language.
type CommandRecognizer struct {
	Name   string
	Args   []string
	logger *log.Logger
}

// NewCommandRecognizer parses a command line such as
// "whisper-listen --lang {lang}" into a recognizer.
func NewCommandRecognizer(commandLine string, logger *log.Logger) *CommandRecognizer {
	fields := strings.Fields(commandLine)
	if logger == nil {
		logger = log.Default()
	}
	r := &CommandRecognizer{logger: logger.WithPrefix("recognizer")}
	if len(fields) > 0 {
		r.Name = fields[0]
		r.Args = fields[1:]
	}
	return r
}

// Available reports whether the command exists.
func (r *CommandRecognizer) Available() bool {
	if r.Name == "" {
		return false
	}
	_, err := lookPath(r.Name)
	return err == nil
}

type recognitionLine struct {
	Text  string `json:"text"`
	Final bool   `json:"final"`
	Error string `json:"error"`
}

// Recognize runs the command and forwards its results.
func (r *CommandRecognizer) Recognize(ctx context.Context, opts speech.RecognitionOptions, events chan<- speech.RecognitionEvent) error {
	args := make([]string, len(r.Args))
	for i, a := range r.Args {
		args[i] = strings.ReplaceAll(a, "{lang}", opts.Language)
	}

	stdout, wait, err := startStreaming(ctx, r.Name, args...)
	if err != nil {
		return &speech.RecognitionError{Code: "audio-capture", Cause: err}
	}

	var (
		platformErr error
		segments    []speech.Segment
	)
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var msg recognitionLine
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			r.logger.Debug("Ignoring malformed line", "line", line, "err", err)
			continue
		}
		if msg.Error != "" {
			platformErr = speech.ErrorFromCode(msg.Error)
			continue
		}

		// A final segment is kept; the trailing interim segment is replaced.
		if n := len(segments); n > 0 && !segments[n-1].Final {
			segments = segments[:n-1]
		}
		segments = append(segments, speech.Segment{Text: msg.Text, Final: msg.Final})

		ev := speech.RecognitionEvent{Segments: append([]speech.Segment(nil), segments...)}
		select {
		case events <- ev:
		case <-ctx.Done():
			_ = wait()
			return speech.ErrAborted
		}
	}
	scanErr := scanner.Err()
	waitErr := wait()

	switch {
	case ctx.Err() != nil:
		return speech.ErrAborted
	case platformErr != nil:
		return platformErr
	case waitErr != nil:
		return &speech.RecognitionError{Code: "audio-capture", Cause: waitErr}
	case scanErr != nil && !errors.Is(scanErr, context.Canceled):
		return fmt.Errorf("reading recognizer output: %w", scanErr)
	}
	return nil
}
