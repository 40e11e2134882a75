package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

func getLogFilePath() (string, error) {
	if p := os.Getenv("SHADOW_LOG_FILE"); p != "" {
		return p, nil
	}
	dir, err := defaultCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "shadow.log"), nil
}

// setupLog discards log output unless SHADOW_LOG_FILE or SHADOW_DEBUG is
// set, in which case it appends to the log file.
func setupLog() (func() error, error) {
	log.SetOutput(io.Discard)
	if os.Getenv("SHADOW_LOG_FILE") == "" && os.Getenv("SHADOW_DEBUG") == "" {
		return func() error { return nil }, nil
	}

	// Log to file, if set
	logFile, err := getLogFilePath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil { //nolint:gosec
		// log disabled
		return func() error { return nil }, nil //nolint:nilerr
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec
	if err != nil {
		// log disabled
		return func() error { return nil }, nil //nolint:nilerr
	}
	log.SetOutput(f)
	log.SetLevel(log.DebugLevel)
	log.SetReportTimestamp(true)
	return f.Close, nil
}
