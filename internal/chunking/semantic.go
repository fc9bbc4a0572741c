package chunking

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// splitSemantic accumulates whole sentences until the next one would push
// the chunk past the size limit, then closes the chunk and seeds the next
// one with trailing sentences that fit the overlap budget.
func (c *Chunker) splitSemantic(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var chunks []string
	var current []string
	curLen := 0

	for _, s := range splitSentences(text) {
		sLen := utf8.RuneCountInString(s)
		if curLen+sLen > c.size && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))

			var seed []string
			seedLen := 0
			for i := len(current) - 1; i >= 0; i-- {
				l := utf8.RuneCountInString(current[i])
				if seedLen+l > c.overlap {
					break
				}
				seed = append([]string{current[i]}, seed...)
				seedLen += l
			}
			current = seed
			curLen = seedLen
		}
		current = append(current, s)
		curLen += sLen
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}

// splitSentences splits at whitespace runs that follow a sentence
// terminator. The terminator stays with the preceding sentence.
func splitSentences(text string) []string {
	var out []string
	runes := []rune(text)
	start := 0

	for i := 0; i < len(runes); i++ {
		if i == start || !unicode.IsSpace(runes[i]) || !isTerminator(runes[i-1]) {
			continue
		}
		out = append(out, string(runes[start:i]))
		for i < len(runes) && unicode.IsSpace(runes[i]) {
			i++
		}
		start = i
		i--
	}

	if start < len(runes) {
		out = append(out, string(runes[start:]))
	}
	return out
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
