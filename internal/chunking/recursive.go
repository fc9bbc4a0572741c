package chunking

import (
	"strings"
	"unicode/utf8"
)

// recursiveSeparators is the cascade tried in order: paragraph breaks, line
// breaks, sentence ends, words, and finally individual runes.
var recursiveSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// splitRecursive splits text on the first separator present, recursing into
// oversized pieces with the remaining separators and greedily merging
// undersized neighbors back up to the chunk size. Separators are kept
// attached to the piece that follows them, so no text is lost.
func (c *Chunker) splitRecursive(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return c.splitWith(text, recursiveSeparators)
}

func (c *Chunker) splitWith(text string, separators []string) []string {
	sep := separators[len(separators)-1]
	var rest []string
	for i, s := range separators {
		if s == "" {
			sep = s
			break
		}
		if strings.Contains(text, s) {
			sep = s
			rest = separators[i+1:]
			break
		}
	}

	splits := splitKeepSeparator(text, sep)

	var final []string
	var good []string
	for _, s := range splits {
		if utf8.RuneCountInString(s) < c.size {
			good = append(good, s)
			continue
		}
		if len(good) > 0 {
			final = append(final, c.mergeSplits(good)...)
			good = nil
		}
		if len(rest) == 0 {
			final = append(final, s)
		} else {
			final = append(final, c.splitWith(s, rest)...)
		}
	}
	if len(good) > 0 {
		final = append(final, c.mergeSplits(good)...)
	}
	return final
}

// splitKeepSeparator splits text on sep, prefixing each piece after the
// first with the separator. An empty separator splits into runes.
func splitKeepSeparator(text, sep string) []string {
	var parts []string
	if sep == "" {
		parts = make([]string, 0, utf8.RuneCountInString(text))
		for _, r := range text {
			parts = append(parts, string(r))
		}
	} else {
		raw := strings.Split(text, sep)
		parts = make([]string, 0, len(raw))
		for i, p := range raw {
			if i > 0 {
				p = sep + p
			}
			parts = append(parts, p)
		}
	}

	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// mergeSplits greedily packs undersized pieces into chunks of at most the
// target size, carrying a trailing window of at most the overlap length into
// the next chunk. Joined chunks are whitespace-trimmed; empty joins are
// dropped.
func (c *Chunker) mergeSplits(splits []string) []string {
	var docs []string
	var current []string
	total := 0

	for _, d := range splits {
		dLen := utf8.RuneCountInString(d)
		if total+dLen > c.size && len(current) > 0 {
			if doc := strings.TrimSpace(strings.Join(current, "")); doc != "" {
				docs = append(docs, doc)
			}
			for total > c.overlap || (total+dLen > c.size && total > 0) {
				total -= utf8.RuneCountInString(current[0])
				current = current[1:]
			}
		}
		current = append(current, d)
		total += dLen
	}

	if doc := strings.TrimSpace(strings.Join(current, "")); doc != "" {
		docs = append(docs, doc)
	}
	return docs
}
