// README: Text normalization and token helpers shared by the extractors.
package extract

import (
	"strings"
	"unicode"
)

// Normalize lowercases s, maps curly quotes and dashes to their plain
// forms, and collapses runs of whitespace to single spaces.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		switch r {
		case '‘', '’':
			r = '\''
		case '“', '”':
			r = '"'
		case '–', '—':
			r = '-'
		}
		if unicode.IsSpace(r) {
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
			continue
		}
		lastSpace = false
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// indexWord finds phrase in text at a word boundary, returning the byte
// offset or -1. Both arguments must already be lowercase.
func indexWord(text, phrase string) int {
	if phrase == "" {
		return -1
	}
	from := 0
	for {
		i := strings.Index(text[from:], phrase)
		if i < 0 {
			return -1
		}
		i += from
		before := i == 0 || !isWordByte(text[i-1])
		afterIdx := i + len(phrase)
		after := afterIdx >= len(text) || !isWordByte(text[afterIdx])
		if before && after {
			return i
		}
		from = i + 1
	}
}

// containsWord reports whether phrase occurs in text at a word boundary.
func containsWord(text, phrase string) bool {
	return indexWord(text, phrase) >= 0
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

// wordNumbers covers the spelled-out counts that show up in trip talk.
var wordNumbers = map[string]int{
	"a": 1, "an": 1, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11,
	"twelve": 12, "thirteen": 13, "fourteen": 14, "fifteen": 15,
	"sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19,
	"twenty": 20, "thirty": 30,
}

// parseCount turns a digit string or spelled-out number into an int.
func parseCount(tok string) (int, bool) {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return 0, false
	}
	if n, ok := wordNumbers[tok]; ok {
		return n, true
	}
	n := 0
	for i := 0; i < len(tok); i++ {
		c := tok[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
		if n > 1_000_000 {
			return 0, false
		}
	}
	return n, true
}

// numberPattern is the regexp alternation matching what parseCount accepts.
const numberPattern = `(\d+|a|an|one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve|thirteen|fourteen|fifteen|sixteen|seventeen|eighteen|nineteen|twenty|thirty)`
