package practice

import (
	"reflect"
	"testing"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		spoken   string
		want     int
	}{
		{"identical", "the cat sat", "the cat sat", 100},
		{"order insensitive", "the cat sat", "cat the sat", 100},
		{"empty spoken", "the cat sat", "", 0},
		{"empty expected", "", "anything", 0},
		{"repetition insensitive", "a a a", "a", 100},
		{"case and punctuation", "Hi there!", "hi there", 100},
		{"partial", "the cat sat", "the dog sat", 67},
		{"one of four", "I am so sorry", "sorry", 25},
		{"none", "hello", "goodbye", 0},
		{"punctuation only", "...", "hello", 0},
		{"extra words ignored", "good morning", "good morning to you all", 100},
		{"apostrophes removed", "don't go", "dont go", 100},
		{"fullwidth letters", "ＨＥＬＬＯ world", "hello world", 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.expected, tt.spoken); got != tt.want {
				t.Errorf("Score(%q, %q) = %d, want %d", tt.expected, tt.spoken, got, tt.want)
			}
		})
	}
}

func TestTokens(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"Hello, World!", []string{"hello", "world"}},
		{"  spaced\tout \n words ", []string{"spaced", "out", "words"}},
		{"", nil},
		{"$100 + tax", []string{"100", "tax"}},
		{"Ça va?", []string{"ça", "va"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Tokens(tt.in)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokens(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMatched(t *testing.T) {
	words, hit := Matched("The cat sat down.", "a cat sat")

	wantWords := []string{"the", "cat", "sat", "down"}
	wantHit := []bool{false, true, true, false}
	if !reflect.DeepEqual(words, wantWords) {
		t.Errorf("words = %q, want %q", words, wantWords)
	}
	if !reflect.DeepEqual(hit, wantHit) {
		t.Errorf("hit = %v, want %v", hit, wantHit)
	}
}
