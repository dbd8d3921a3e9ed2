package rag

import (
	"fmt"
	"strings"

	"github.com/substrat-dev/ragd/internal/store"
)

// emptyContext is the assembled context when search returned nothing.
const emptyContext = "No relevant documents found."

// chunkSeparator divides passages in the assembled context.
const chunkSeparator = "\n\n---\n\n"

// assembleContext renders search results into the block the answer
// prompt consumes. Each passage is prefixed with a provenance header so
// the model can cite where a statement came from.
func assembleContext(results []store.Result) string {
	if len(results) == 0 {
		return emptyContext
	}

	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, sourceHeader(r.Chunk.Metadata)+"\n"+r.Chunk.Content)
	}
	return strings.Join(parts, chunkSeparator)
}

// sourceHeader formats the provenance line from chunk metadata. Page is
// included only when present.
func sourceHeader(metadata map[string]any) string {
	source := "unknown"
	if v, ok := metadata["source"].(string); ok && v != "" {
		source = v
	}

	if page, ok := pageNumber(metadata["page"]); ok {
		return fmt.Sprintf("[Source: %s, Page %d]", source, page)
	}
	return fmt.Sprintf("[Source: %s]", source)
}

// pageNumber normalizes the page value, which arrives as float64 after
// a JSONB round-trip but as int when set in-process.
func pageNumber(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
