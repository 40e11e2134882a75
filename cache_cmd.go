package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	runewidth "github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/dgnsrekt/shadow/internal/cache"
)

var (
	cacheCmd = &cobra.Command{
		Use:     "cache",
		Short:   "Show the scene cache",
		Long:    paragraph(fmt.Sprintf("\n%s the scenes cached from the scene API.", keyword("List"))),
		Example: paragraph("shadow cache\nshadow cache clear"),
		Args:    cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			m, err := openCache(log.Default())
			if err != nil {
				return err
			}
			defer m.Close() //nolint:errcheck
			return printCache(os.Stdout, m.Path(), m.Entries(), m.Stats(), time.Now())
		},
	}

	cacheClearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Empty the scene cache",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			m, err := openCache(log.Default())
			if err != nil {
				return err
			}
			defer m.Close() //nolint:errcheck

			n, size := len(m.Entries()), m.Stats().Disk.Size
			if err := m.Clear(); err != nil {
				return fmt.Errorf("unable to clear cache: %w", err)
			}
			fmt.Printf("Removed %d cached %s (%s) from %s\n",
				n, plural(n, "episode", "episodes"), humanize.IBytes(uint64(size)), m.Path()) //nolint:gosec
			return nil
		},
	}
)

// printCache lists cache entries with their sizes and ages relative to now.
func printCache(w io.Writer, path string, entries []cache.Entry, stats cache.ManagerStats, now time.Time) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n\n", heading("Scene cache"), faint(path))

	if len(entries) == 0 {
		b.WriteString("  Nothing cached yet.\n")
		_, err := io.WriteString(w, b.String())
		return err //nolint:wrapcheck
	}

	keyWidth := 0
	for _, e := range entries {
		keyWidth = max(keyWidth, runewidth.StringWidth(e.Key))
	}
	for _, e := range entries {
		fmt.Fprintf(&b, "  %s  %9s  %s\n",
			runewidth.FillRight(e.Key, keyWidth),
			humanize.IBytes(uint64(e.StoredSize)), //nolint:gosec
			faint("stored "+humanize.RelTime(e.Stored, now, "ago", "from now")),
		)
	}

	fmt.Fprintf(&b, "\n  %s %s, %s on disk of %s\n",
		humanize.Comma(int64(len(entries))),
		plural(len(entries), "episode", "episodes"),
		humanize.IBytes(uint64(stats.Disk.Size)),     //nolint:gosec
		humanize.IBytes(uint64(stats.Disk.Capacity)), //nolint:gosec
	)

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("unable to write to writer: %w", err)
	}
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
}
