// Package graph maintains the per-tenant knowledge-graph side-index:
// entities and relations extracted from ingested chunks.
//
// Extraction is best-effort by contract. A failed model call or an
// unparseable response yields an empty result for that chunk and never
// aborts ingestion.
package graph

import "strings"

// Relation connects two entities. The triple is deduplicated within one
// extraction batch but not against previously stored relations.
type Relation struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
}

// Extraction is the merged output of extracting a batch of chunks.
type Extraction struct {
	// Entities in first-seen order, case-normalized.
	Entities []string

	// Relations deduplicated on (source, target, type), first-seen order.
	Relations []Relation

	// Mentions maps each entity to the chunk ids it was extracted from.
	Mentions map[string][]string
}

// Node is a graph vertex as returned by queries.
type Node struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Type     string   `json:"type"`
	Mentions []string `json:"mentions,omitempty"`
}

// Edge is a graph edge as returned by queries.
type Edge struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Relation string `json:"relation"`
}

// Graph is a queryable snapshot of nodes and edges.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// normalizeName lowercases and trims an entity name. Entity identity is
// (tenant, normalized name).
func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
