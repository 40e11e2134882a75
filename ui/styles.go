package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	runewidth "github.com/mattn/go-runewidth"
)

const keyEsc = "esc"

// Colors.
var (
	normalDim  = lipgloss.AdaptiveColor{Light: "#A49FA5", Dark: "#777777"}
	gray       = lipgloss.AdaptiveColor{Light: "#909090", Dark: "#626262"}
	midGray    = lipgloss.AdaptiveColor{Light: "#B2B2B2", Dark: "#4A4A4A"}
	cream      = lipgloss.AdaptiveColor{Light: "#FFFDF5", Dark: "#FFFDF5"}
	fuchsia    = lipgloss.Color("#EE6FF8")
	dimFuchsia = lipgloss.AdaptiveColor{Light: "#F1A8FF", Dark: "#99519E"}
	green      = lipgloss.Color("#04B575")
	yellow     = lipgloss.AdaptiveColor{Light: "#B8860B", Dark: "#ECFD65"}
	red        = lipgloss.AdaptiveColor{Light: "#FF4672", Dark: "#ED567A"}

	mintGreen = lipgloss.AdaptiveColor{Light: "#89F0CB", Dark: "#89F0CB"}
	darkGreen = lipgloss.AdaptiveColor{Light: "#1C8760", Dark: "#1C8760"}

	statusBarNoteFg = lipgloss.AdaptiveColor{Light: "#656565", Dark: "#7D7D7D"}
	statusBarBg     = lipgloss.AdaptiveColor{Light: "#E6E6E6", Dark: "#242424"}
)

// Styles.
var (
	logoStyle = lipgloss.NewStyle().
			Foreground(cream).
			Background(fuchsia).
			Bold(true)

	errorTitleStyle = lipgloss.NewStyle().
			Foreground(cream).
			Background(red).
			Padding(0, 1)

	subtleStyle   = lipgloss.NewStyle().Foreground(gray)
	dimStyle      = lipgloss.NewStyle().Foreground(normalDim)
	selectedStyle = lipgloss.NewStyle().Foreground(fuchsia).Bold(true)
	titleStyle    = lipgloss.NewStyle().Foreground(fuchsia).Bold(true)
	userLineStyle = lipgloss.NewStyle().Foreground(yellow).Bold(true)
	hitStyle      = lipgloss.NewStyle().Foreground(green)
	missStyle     = lipgloss.NewStyle().Foreground(red)
	dividerStyle  = lipgloss.NewStyle().Foreground(midGray)

	filterPromptStyle = lipgloss.NewStyle().Foreground(dimFuchsia)

	statusBarNoteStyle = lipgloss.NewStyle().
				Foreground(statusBarNoteFg).
				Background(statusBarBg).
				Render

	statusBarHelpStyle = lipgloss.NewStyle().
				Foreground(statusBarNoteFg).
				Background(lipgloss.AdaptiveColor{Light: "#DCDCDC", Dark: "#323232"}).
				Render

	statusBarMessageStyle = lipgloss.NewStyle().
				Foreground(mintGreen).
				Background(darkGreen).
				Render

	statusBarErrorStyle = lipgloss.NewStyle().
				Foreground(cream).
				Background(red).
				Render

	statusBarMessageHelpStyle = lipgloss.NewStyle().
					Foreground(lipgloss.Color("#B6FFE4")).
					Background(green).
					Render

	helpViewStyle = lipgloss.NewStyle().
			Foreground(statusBarNoteFg).
			Background(lipgloss.AdaptiveColor{Light: "#f2f2f2", Dark: "#1B1B1B"}).
			Render
)

func logoView() string {
	return logoStyle.Render(" Shadow ")
}

// scoreStyle colors a score by how close the learner got.
func scoreStyle(score int) lipgloss.Style {
	switch {
	case score >= 80:
		return hitStyle
	case score >= 50:
		return lipgloss.NewStyle().Foreground(yellow)
	default:
		return missStyle
	}
}

// Lightweight version of reflow's indent function.
func indent(s string, n int) string {
	if n <= 0 || s == "" {
		return s
	}
	l := strings.Split(s, "\n")
	b := strings.Builder{}
	i := strings.Repeat(" ", n)
	for _, v := range l {
		fmt.Fprintf(&b, "%s%s\n", i, v)
	}
	return b.String()
}

// fillLines pads every line to width so background colors span the
// whole row.
func fillLines(s string, width int) string {
	if width <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i := range lines {
		n := max(width-runewidth.StringWidth(lines[i]), 0)
		lines[i] += strings.Repeat(" ", n)
	}
	return strings.Join(lines, "\n")
}

// helpColumns lays out key/description pairs in two columns.
func helpColumns(left, right [][2]string) string {
	keyWidth := 0
	descWidth := 0
	for _, col := range [][][2]string{left, right} {
		for _, e := range col {
			keyWidth = max(keyWidth, runewidth.StringWidth(e[0]))
		}
	}
	for _, e := range left {
		descWidth = max(descWidth, runewidth.StringWidth(e[1]))
	}

	cell := func(e [2]string, pad bool) string {
		s := runewidth.FillRight(e[0], keyWidth) + "  " + e[1]
		if pad {
			s = runewidth.FillRight(s, keyWidth+2+descWidth)
		}
		return s
	}

	var b strings.Builder
	b.WriteString("\n")
	for i := 0; i < max(len(left), len(right)); i++ {
		var l, r string
		if i < len(left) {
			l = cell(left[i], true)
		} else {
			l = strings.Repeat(" ", keyWidth+2+descWidth)
		}
		if i < len(right) {
			r = cell(right[i], false)
		}
		b.WriteString(strings.TrimRight(l+"    "+r, " "))
		if i < max(len(left), len(right))-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
