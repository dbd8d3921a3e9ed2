package graph

import (
	"context"
	"fmt"

	"github.com/substrat-dev/ragd/internal/log"
)

const (
	// maxChunks bounds how many chunks of a batch feed extraction.
	maxChunks = 5

	// maxChunkChars truncates each chunk before prompting.
	maxChunkChars = 2000
)

const extractionPrompt = `Extract entities and relations from the following text.
Respond with JSON only, no explanation, in exactly this shape:
{"entities": ["name", ...], "relations": [{"source": "name", "target": "name", "type": "RELATION"}, ...]}

Entities are people, organizations, places, products and concepts.
Relation types are short uppercase verbs such as WORKS_AT, LOCATED_IN, PART_OF.

Text:
%s`

// Generator produces text from a prompt. *gemini.Client satisfies it.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Source is one chunk offered for extraction.
type Source struct {
	ID   string
	Text string
}

// Extractor turns chunk batches into entity and relation sets.
type Extractor struct {
	gen    Generator
	logger log.Logger
}

// NewExtractor creates an extractor backed by the given generator.
func NewExtractor(gen Generator, logger log.Logger) *Extractor {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Extractor{gen: gen, logger: logger}
}

// Extract runs extraction over at most maxChunks chunks and merges the
// per-chunk results. A chunk whose model call fails or whose response
// does not parse contributes nothing. Context cancellation stops the
// remaining chunks and returns what was merged so far with the error.
func (e *Extractor) Extract(ctx context.Context, sources []Source) (Extraction, error) {
	merged := Extraction{Mentions: make(map[string][]string)}
	seenEntity := make(map[string]bool)
	seenRelation := make(map[string]bool)

	if len(sources) > maxChunks {
		sources = sources[:maxChunks]
	}

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return merged, err
		}

		text := src.Text
		if len(text) > maxChunkChars {
			text = text[:maxChunkChars]
		}

		resp, err := e.gen.Generate(ctx, fmt.Sprintf(extractionPrompt, text))
		if err != nil {
			e.logger.Warn("graph extraction call failed",
				"chunk_id", src.ID, "error", err)
			continue
		}

		raw := parseResponse(resp)
		if len(raw.Entities) == 0 && len(raw.Relations) == 0 {
			e.logger.Debug("graph extraction yielded nothing", "chunk_id", src.ID)
			continue
		}

		for _, name := range raw.Entities {
			normalized := normalizeName(name)
			if normalized == "" {
				continue
			}
			if !seenEntity[normalized] {
				seenEntity[normalized] = true
				merged.Entities = append(merged.Entities, normalized)
			}
			merged.Mentions[normalized] = appendUnique(merged.Mentions[normalized], src.ID)
		}

		for _, rel := range raw.Relations {
			rel.Source = normalizeName(rel.Source)
			rel.Target = normalizeName(rel.Target)
			if rel.Source == "" || rel.Target == "" || rel.Type == "" {
				continue
			}
			key := rel.Source + "\x00" + rel.Target + "\x00" + rel.Type
			if seenRelation[key] {
				continue
			}
			seenRelation[key] = true
			merged.Relations = append(merged.Relations, rel)
		}
	}

	return merged, nil
}

func appendUnique(items []string, item string) []string {
	for _, existing := range items {
		if existing == item {
			return items
		}
	}
	return append(items, item)
}
