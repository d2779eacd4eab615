// Package chunk splits document text into word-aligned segments for prompt
// assembly.
package chunk

import "strings"

// DefaultSize is the segment size in characters.
const DefaultSize = 1024

// Split breaks text into segments of at most size characters without
// splitting words. A word that would overflow the current segment starts the
// next one; a single word longer than size becomes its own segment. The
// split is deterministic and non-overlapping, and empty input yields no
// segments.
func Split(text string, size int) []string {
	if size <= 0 {
		size = DefaultSize
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var (
		chunks  []string
		current []string
		length  int
	)
	for _, word := range words {
		wordLen := len(word) + 1
		if length+wordLen > size && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))
			current = current[:0]
			length = 0
		}
		current = append(current, word)
		length += wordLen
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}

	return chunks
}
