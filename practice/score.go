package practice

import (
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Score returns how much of the expected line was spoken, as a percentage in
// [0, 100].
//
// The comparison is a bag overlap: every expected word, counted with
// repetition, matches when it occurs anywhere in the spoken text. Word order
// and the number of times a word was spoken are not considered, so "cat the
// sat" scores 100 against "the cat sat" and "a" scores 100 against "a a a".
func Score(expected, spoken string) int {
	want := Tokens(expected)
	got := Tokens(spoken)
	if len(want) == 0 || len(got) == 0 {
		return 0
	}

	heard := make(map[string]struct{}, len(got))
	for _, w := range got {
		heard[w] = struct{}{}
	}

	var matches int
	for _, w := range want {
		if _, ok := heard[w]; ok {
			matches++
		}
	}
	return int(math.Round(100 * float64(matches) / float64(len(want))))
}

// Tokens normalizes s and splits it into words: lowercased, punctuation and
// symbols removed, whitespace collapsed.
func Tokens(s string) []string {
	// Casers are stateful and cannot be shared between goroutines.
	s = cases.Lower(language.English).String(norm.NFKC.String(s))
	s = strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return -1
		}
		return r
	}, s)
	return strings.Fields(s)
}

// Matched reports, for every expected word, whether it was spoken. The UI uses
// it to highlight missed words.
func Matched(expected, spoken string) (words []string, hit []bool) {
	words = Tokens(expected)
	hit = make([]bool, len(words))

	heard := make(map[string]struct{})
	for _, w := range Tokens(spoken) {
		heard[w] = struct{}{}
	}
	for i, w := range words {
		_, hit[i] = heard[w]
	}
	return words, hit
}
