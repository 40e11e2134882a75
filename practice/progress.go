package practice

import (
	"fmt"
	"math"
	"strings"
)

// Progress summarizes per-line completion of a session.
type Progress struct {
	Completed    int // lines with a result
	Total        int // lines in the scene
	Percent      int // completed lines as a percentage of Total
	Scored       int // learner lines with a result
	AverageScore int // mean score of learner lines, 0 when none were scored
}

// NewProgress computes the progress of a session.
func NewProgress(s *Session) Progress {
	p := Progress{Total: s.Total()}

	var sum int
	for _, r := range s.results {
		p.Completed++
		if s.IsUserLine(r.Index) {
			p.Scored++
			sum += r.Score
		}
	}

	if p.Total > 0 {
		p.Percent = int(math.Round(100 * float64(p.Completed) / float64(p.Total)))
	}
	if p.Scored > 0 {
		p.AverageScore = int(math.Round(float64(sum) / float64(p.Scored)))
	}
	return p
}

// Bar renders a textual progress bar of the given width.
func (p Progress) Bar(width int) string {
	if width <= 0 {
		return ""
	}
	filled := 0
	if p.Total > 0 {
		filled = width * p.Completed / p.Total
	}
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// String returns a compact "3/10 (30%)" representation.
func (p Progress) String() string {
	return fmt.Sprintf("%d/%d (%d%%)", p.Completed, p.Total, p.Percent)
}
