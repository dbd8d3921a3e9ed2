// Package chunk splits raw text into overlapping passages for embedding.
//
// The splitter works on character counts but prefers to end each window at a
// sentence or paragraph boundary, searching backward from the window end but
// never past the window midpoint. Consecutive chunks overlap by a configurable
// number of characters so context survives chunk edges.
package chunk

import (
	"strings"
	"unicode/utf8"
)

const (
	// DefaultSize is the target chunk length in characters.
	DefaultSize = 1000

	// DefaultOverlap is the character overlap between consecutive chunks.
	DefaultOverlap = 200
)

// delimiters are boundary candidates in priority order. The first delimiter
// found (searching backward from the window end) wins.
var delimiters = []string{". ", ".\n", "! ", "? ", "\n\n", "\n"}

// Split cuts text into ordered passages of roughly size characters with the
// given overlap. Size and overlap are measured in runes, never bytes, so
// multibyte text is cut on character boundaries. Empty or whitespace-only
// input yields no chunks; input at or under size yields a single trimmed
// chunk. Split is pure and deterministic.
//
// Progress is guaranteed even when overlap >= size: the start cursor strictly
// increases on every iteration.
func Split(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultSize
	}
	if overlap < 0 {
		overlap = 0
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	runes := []rune(text)
	if len(runes) <= size {
		return []string{trimmed}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + size
		if end >= len(runes) {
			end = len(runes)
		} else {
			// Prefer a sentence/paragraph boundary, but never cut the
			// window below its midpoint.
			if cut := boundary(string(runes[start:end]), size/2); cut > 0 {
				end = start + cut
			}
		}

		if c := strings.TrimSpace(string(runes[start:end])); c != "" {
			chunks = append(chunks, c)
		}

		if end >= len(runes) {
			break
		}

		next := end - overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}

	return chunks
}

// boundary returns the cut position in runes just after the highest-priority
// delimiter found in window, searching backward but ignoring anything before
// floor (also in runes). Returns 0 if no delimiter qualifies.
func boundary(window string, floor int) int {
	for _, delim := range delimiters {
		idx := strings.LastIndex(window, delim)
		if idx < 0 {
			continue
		}
		cut := utf8.RuneCountInString(window[:idx+len(delim)])
		if cut >= floor {
			return cut
		}
	}
	return 0
}
