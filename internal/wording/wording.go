// Package wording holds the vocabulary rules for text shown to users.
package wording

import (
	"strings"
	"unicode"
)

// Directive words that read as judgement to someone having a hard time.
var banned = []string{"should", "must", "wrong", "failure"}

// Banned returns the first directive word found in text, matching whole
// words case-insensitively.
func Banned(text string) (string, bool) {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
	for _, w := range words {
		w = strings.TrimSuffix(w, "n't")
		for _, b := range banned {
			if w == b {
				return b, true
			}
		}
	}
	return "", false
}

// Supportive reports whether every text is free of directive words.
func Supportive(texts ...string) bool {
	for _, t := range texts {
		if _, ok := Banned(t); ok {
			return false
		}
	}
	return true
}
