package graph

import (
	"encoding/json"
	"strings"
)

// maxResponseBytes caps the model output considered for parsing.
// Anything larger is treated as garbage.
const maxResponseBytes = 64 * 1024

type rawExtraction struct {
	Entities  []string   `json:"entities"`
	Relations []Relation `json:"relations"`
}

// parseResponse extracts entities and relations from a model response.
// Models wrap JSON in prose and code fences more often than not, so the
// parser looks for the outermost object rather than demanding a clean
// document. Unparseable input yields an empty result, never an error.
func parseResponse(text string) rawExtraction {
	if len(text) > maxResponseBytes {
		return rawExtraction{}
	}

	candidate := stripCodeFence(text)

	start := strings.Index(candidate, "{")
	end := strings.LastIndex(candidate, "}")
	if start == -1 || end <= start {
		return rawExtraction{}
	}

	var out rawExtraction
	if err := json.Unmarshal([]byte(candidate[start:end+1]), &out); err != nil {
		return rawExtraction{}
	}
	return out
}

// stripCodeFence removes a ```json ... ``` (or bare ```) wrapper.
func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
