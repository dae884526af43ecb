// Package moderation censors forbidden words in outbound message bodies.
// Matching is case-insensitive and ignores separators inside a word, so
// "b a d-word" is caught; only the offending runes are masked, spacing and
// surrounding text stay intact.
package moderation

import (
	_ "embed"
	"strings"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

//go:embed censored.txt
var defaultWords string

type Moderator struct {
	matcher     *goahocorasick.Machine
	replacement rune
}

// DefaultWords returns the embedded word list. Lines starting with '#' are
// comments.
func DefaultWords() []string {
	var words []string
	for _, line := range strings.Split(defaultWords, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	return words
}

// NewModerator builds the Aho-Corasick automaton over the normalized word
// list.
func NewModerator(words []string, replacement rune) (*Moderator, error) {
	patterns := make([][]rune, 0, len(words))
	for _, w := range words {
		if norm, _ := normalize(w); len(norm) > 0 {
			patterns = append(patterns, norm)
		}
	}
	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	return &Moderator{matcher: m, replacement: replacement}, nil
}

// Censor masks every rune of the original text that participates in a
// forbidden word.
func (m *Moderator) Censor(original string) string {
	norm, origIdx := normalize(original)
	if len(norm) == 0 {
		return original
	}
	spans := m.matcher.MultiPatternSearch(norm, false)
	if len(spans) == 0 {
		return original
	}

	runes := []rune(original)
	for _, span := range spans {
		start := span.Pos
		end := start + len(span.Word)
		if start < 0 || end > len(origIdx) {
			continue
		}
		// Mask from the first to the last original rune of the match,
		// separators in between included.
		for i := origIdx[start]; i <= origIdx[end-1]; i++ {
			runes[i] = m.replacement
		}
	}
	return string(runes)
}

// normalize lowercases the text and drops separators, keeping a map from
// each surviving rune back to its original index.
func normalize(input string) ([]rune, []int) {
	runes := []rune(input)
	norm := make([]rune, 0, len(runes))
	origIdx := make([]int, 0, len(runes))
	for i, r := range runes {
		if unicode.IsSpace(r) || unicode.IsPunct(r) {
			continue
		}
		norm = append(norm, unicode.ToLower(r))
		origIdx = append(origIdx, i)
	}
	return norm, origIdx
}
