// Package phonetic canonicalizes Romanized Urdu titles into search keys so that
// differently spelled versions of one title collapse to the same string.
package phonetic

import (
	"regexp"
	"strings"
)

// maxPasses bounds the fixpoint loop in Key. Every rule either shortens the
// string or maps letters onto a fixed sink set, so real input settles in two
// or three passes.
const maxPasses = 8

type rule struct {
	pattern *regexp.Regexp
	repl    string
	// bounded rules consume the neighbouring character, so two matches that
	// share one need another round.
	bounded bool
}

func (r rule) apply(s string) string {
	out := r.pattern.ReplaceAllString(s, r.repl)
	for r.bounded && out != s {
		s, out = out, r.pattern.ReplaceAllString(out, r.repl)
	}
	return out
}

// notWord matches one character that cannot be part of a word. Go's \b only
// knows ASCII, which splits words at accented letters.
const notWord = `[^\p{L}\p{M}\p{N}_]`

// word matches body as a whole word and keeps the characters around it.
func word(body, repl string) rule {
	return rule{
		pattern: regexp.MustCompile(`(^|` + notWord + `)(?:` + body + `)($|` + notWord + `)`),
		repl:    "${1}" + repl + "${2}",
		bounded: true,
	}
}

// wordRules canonicalize whole words. Order matters.
var wordRules = []rule{
	word(`main|mein|mei|mn`, "mai"),
	word(`nahin|nahi|nahee|nai`, "nahi"),
	word(`hain+`, "hain"),
	word(`kya|kia`, "kya"),
	word(`mera+a*h*`, "mera"),
}

// sequenceRules run over the whole string after wordRules, in this order.
// collapseRepeats runs between the terminal-h rule and the vowel merge.
var (
	spacingRules = []rule{
		{pattern: regexp.MustCompile(`[^\p{L}\p{M}\p{N}_\s]`), repl: " "},
		{pattern: regexp.MustCompile(`\s+`), repl: " "},
	}
	letterRules = []rule{
		// digraphs; sh and ch stay as they are
		{pattern: regexp.MustCompile(`kh`), repl: "x"},
		{pattern: regexp.MustCompile(`gh`), repl: "g"},
		{pattern: regexp.MustCompile(`zh`), repl: "z"},
		{pattern: regexp.MustCompile(`ph`), repl: "f"},
		{pattern: regexp.MustCompile(`th`), repl: "t"},
		{pattern: regexp.MustCompile(`dh`), repl: "d"},
		{pattern: regexp.MustCompile(`bh`), repl: "b"},
		{pattern: regexp.MustCompile(`q`), repl: "k"},
		// c is hard before back vowels, soft before front ones
		{pattern: regexp.MustCompile(`c([aou])`), repl: "k${1}"},
		{pattern: regexp.MustCompile(`c([eiy])`), repl: "s${1}"},
		// long vowels
		{pattern: regexp.MustCompile(`a{2,}`), repl: "a"},
		{pattern: regexp.MustCompile(`e{2,}|i{2,}`), repl: "i"},
		{pattern: regexp.MustCompile(`o{2,}`), repl: "u"},
		{pattern: regexp.MustCompile(`ei|ay`), repl: "ai"},
		{
			pattern: regexp.MustCompile(`([aeiou])h($|` + notWord + `)`),
			repl:    "${1}${2}",
			bounded: true,
		},
	}
	mergeRules = []rule{
		{pattern: regexp.MustCompile(`e`), repl: "i"},
		{pattern: regexp.MustCompile(`o`), repl: "u"},
		{pattern: regexp.MustCompile(`\s+`), repl: " "},
	}
)

// Key returns the phonetic search key for text. It is a pure function of its
// input and Key(Key(s)) == Key(s).
func Key(text string) string {
	key := pass(text)
	for i := 1; i < maxPasses; i++ {
		next := pass(key)
		if next == key {
			break
		}
		key = next
	}
	return key
}

func pass(text string) string {
	s := strings.TrimSpace(strings.ToLower(text))
	s = applyAll(wordRules, s)
	s = applyAll(spacingRules, s)
	s = applyAll(letterRules, s)
	s = collapseRepeats(s)
	s = applyAll(mergeRules, s)
	return strings.TrimSpace(s)
}

func applyAll(rules []rule, s string) string {
	for _, r := range rules {
		s = r.apply(s)
	}
	return s
}

// collapseRepeats caps runs of one vowel at two and runs of one ASCII
// consonant at one. Other characters are copied through.
func collapseRepeats(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	runes := []rune(s)
	for i := 0; i < len(runes); {
		r := runes[i]
		j := i
		for j < len(runes) && runes[j] == r {
			j++
		}
		n := j - i
		switch {
		case isVowel(r) && n > 2:
			n = 2
		case isConsonant(r):
			n = 1
		}
		for k := 0; k < n; k++ {
			b.WriteRune(r)
		}
		i = j
	}
	return b.String()
}

func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}

func isConsonant(r rune) bool {
	return r >= 'a' && r <= 'z' && !isVowel(r)
}
