package graph

import (
	"strings"
	"testing"
)

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		wantEntities  []string
		wantRelations int
	}{
		{
			name:         "clean json",
			input:        `{"entities": ["Alice", "Acme"], "relations": [{"source": "Alice", "target": "Acme", "type": "WORKS_AT"}]}`,
			wantEntities: []string{"Alice", "Acme"},

			wantRelations: 1,
		},
		{
			name: "fenced json",
			input: "```json\n" +
				`{"entities": ["Paris"], "relations": []}` +
				"\n```",
			wantEntities: []string{"Paris"},
		},
		{
			name: "bare fence",
			input: "```\n" +
				`{"entities": ["Paris"], "relations": []}` +
				"\n```",
			wantEntities: []string{"Paris"},
		},
		{
			name:         "prose around json",
			input:        `Here is the extraction: {"entities": ["Bob"], "relations": []} Hope that helps!`,
			wantEntities: []string{"Bob"},
		},
		{
			name:  "no json at all",
			input: "I cannot extract anything from this text.",
		},
		{
			name:  "truncated json",
			input: `{"entities": ["Alice", "Ac`,
		},
		{
			name:  "wrong types",
			input: `{"entities": "Alice", "relations": 42}`,
		},
		{
			name:  "empty input",
			input: "",
		},
		{
			name:  "oversized response",
			input: "{" + strings.Repeat("x", maxResponseBytes) + "}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseResponse(tt.input)

			if len(got.Entities) != len(tt.wantEntities) {
				t.Fatalf("entities = %v, want %v", got.Entities, tt.wantEntities)
			}
			for i, want := range tt.wantEntities {
				if got.Entities[i] != want {
					t.Errorf("entity[%d] = %q, want %q", i, got.Entities[i], want)
				}
			}
			if len(got.Relations) != tt.wantRelations {
				t.Errorf("relations = %d, want %d", len(got.Relations), tt.wantRelations)
			}
		})
	}
}

func TestStripCodeFence(t *testing.T) {
	got := stripCodeFence("```json\n{\"a\": 1}\n```")
	if got != `{"a": 1}` {
		t.Errorf("stripCodeFence = %q", got)
	}

	// No fence passes through untouched apart from trimming.
	got = stripCodeFence("  {\"a\": 1}  ")
	if got != `{"a": 1}` {
		t.Errorf("stripCodeFence without fence = %q", got)
	}
}
