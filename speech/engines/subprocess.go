// Package engines provides the platform speech capabilities available to a
// terminal: synthesis through the piper binary, recognition through an
// external command, and stubs for platforms that lack either.
package engines

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"
)

// ErrBinaryNotFound is returned when an engine binary is not on PATH.
var ErrBinaryNotFound = errors.New("binary not found")

// runWithStdin runs name with input on stdin and returns its stdout. When ctx
// has no deadline, timeout bounds the run.
func runWithStdin(ctx context.Context, timeout time.Duration, input string, name string, args ...string) ([]byte, error) {
	if _, ok := ctx.Deadline(); !ok && timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)

	// Stdin is set up before the process starts so it cannot race the child.
	cmd.Stdin = strings.NewReader(input)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("%s timed out after %v", name, timeout)
			}
			return nil, ctx.Err()
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s failed: %w\nstderr: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s failed: %w", name, err)
	}

	return stdout.Bytes(), nil
}

// startStreaming starts name and returns its stdout. wait must be called once
// the output has been consumed.
func startStreaming(ctx context.Context, name string, args ...string) (stdout io.ReadCloser, wait func() error, err error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err = cmd.StdoutPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("failed to start %s: %w", name, err)
	}

	wait = func() error {
		if err := cmd.Wait(); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if msg := strings.TrimSpace(stderr.String()); msg != "" {
				return fmt.Errorf("%s failed: %w\nstderr: %s", name, err, msg)
			}
			return fmt.Errorf("%s failed: %w", name, err)
		}
		return nil
	}
	return stdout, wait, nil
}

// lookPath resolves a binary name.
func lookPath(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrBinaryNotFound, name)
	}
	return path, nil
}
