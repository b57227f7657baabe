package relay

import (
	"iter"
	"math"
	"strings"
	"unicode/utf8"
)

// Chunk packs lines, in order, into pieces of at most budget runes. Lines are
// never reordered; a line longer than budget is split across pieces. Empty
// pieces are never yielded. A budget of zero or less disables splitting.
func Chunk(lines iter.Seq[string], budget int) iter.Seq[string] {
	if budget <= 0 {
		budget = math.MaxInt
	}
	return func(yield func(string) bool) {
		var buf strings.Builder
		size := 0
		flush := func() bool {
			if size == 0 {
				return true
			}
			s := buf.String()
			buf.Reset()
			size = 0
			return yield(s)
		}

		for line := range lines {
			n := utf8.RuneCountInString(line)
			if n == 0 {
				continue
			}
			if size+n > budget && !flush() {
				return
			}
			for n > budget {
				cut := runeOffset(line, budget)
				if !yield(line[:cut]) {
					return
				}
				line = line[cut:]
				n -= budget
			}
			buf.WriteString(line)
			size += n
		}
		flush()
	}
}

// runeOffset returns the byte offset of the n-th rune of s.
func runeOffset(s string, n int) int {
	i := 0
	for off := range s {
		if i == n {
			return off
		}
		i++
	}
	return len(s)
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return s[:runeOffset(s, n)]
}
