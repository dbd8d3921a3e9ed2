package graph_test

import (
	"context"
	"testing"

	"github.com/substrat-dev/ragd/internal/graph"
	"github.com/substrat-dev/ragd/internal/testutil"
)

func TestGraphStoreIntegration(t *testing.T) {
	tdb := testutil.SetupTestDB(t)
	ctx := context.Background()
	s := graph.NewStore(tdb.Pool, nil)

	t.Run("save and read back", func(t *testing.T) {
		tdb.TruncateAll(t)

		ex := graph.Extraction{
			Entities:  []string{"alice", "acme corp"},
			Relations: []graph.Relation{{Source: "alice", Target: "acme corp", Type: "WORKS_AT"}},
			Mentions:  map[string][]string{"alice": {"c1"}, "acme corp": {"c1"}},
		}
		if err := s.Save(ctx, "t1", ex); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		g, err := s.Graph(ctx, "t1")
		if err != nil {
			t.Fatalf("Graph() error = %v", err)
		}
		if len(g.Nodes) != 2 {
			t.Fatalf("nodes = %+v, want 2", g.Nodes)
		}
		if len(g.Edges) != 1 || g.Edges[0].Relation != "WORKS_AT" {
			t.Fatalf("edges = %+v", g.Edges)
		}
	})

	t.Run("re-extraction merges mentions instead of duplicating", func(t *testing.T) {
		tdb.TruncateAll(t)

		first := graph.Extraction{
			Entities: []string{"alice"},
			Mentions: map[string][]string{"alice": {"c1", "c2"}},
		}
		second := graph.Extraction{
			Entities: []string{"alice"},
			Mentions: map[string][]string{"alice": {"c2", "c3"}},
		}
		if err := s.Save(ctx, "t1", first); err != nil {
			t.Fatalf("first Save() error = %v", err)
		}
		if err := s.Save(ctx, "t1", second); err != nil {
			t.Fatalf("second Save() error = %v", err)
		}

		g, err := s.Graph(ctx, "t1")
		if err != nil {
			t.Fatalf("Graph() error = %v", err)
		}
		if len(g.Nodes) != 1 {
			t.Fatalf("nodes = %+v, want single merged entity", g.Nodes)
		}

		mentions := map[string]bool{}
		for _, m := range g.Nodes[0].Mentions {
			if mentions[m] {
				t.Errorf("duplicate mention %q", m)
			}
			mentions[m] = true
		}
		for _, want := range []string{"c1", "c2", "c3"} {
			if !mentions[want] {
				t.Errorf("mention %q missing, got %v", want, g.Nodes[0].Mentions)
			}
		}
	})

	t.Run("tenant isolation", func(t *testing.T) {
		tdb.TruncateAll(t)

		if err := s.Save(ctx, "alpha", graph.Extraction{Entities: []string{"secret"}}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		g, err := s.Graph(ctx, "beta")
		if err != nil {
			t.Fatalf("Graph() error = %v", err)
		}
		if len(g.Nodes) != 0 || len(g.Edges) != 0 {
			t.Errorf("beta sees alpha's graph: %+v", g)
		}
	})

	t.Run("subgraph respects depth", func(t *testing.T) {
		tdb.TruncateAll(t)

		// alice -> acme -> paris -> france: a three-hop chain.
		chain := graph.Extraction{
			Entities: []string{"alice", "acme", "paris", "france"},
			Relations: []graph.Relation{
				{Source: "alice", Target: "acme", Type: "WORKS_AT"},
				{Source: "acme", Target: "paris", Type: "LOCATED_IN"},
				{Source: "paris", Target: "france", Type: "PART_OF"},
			},
		}
		if err := s.Save(ctx, "t1", chain); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		depth1, err := s.Subgraph(ctx, "t1", "Alice", 1)
		if err != nil {
			t.Fatalf("Subgraph() error = %v", err)
		}
		if len(depth1.Nodes) != 2 || len(depth1.Edges) != 1 {
			t.Errorf("depth 1 = %d nodes %d edges, want 2/1", len(depth1.Nodes), len(depth1.Edges))
		}

		depth2, err := s.Subgraph(ctx, "t1", "alice", 2)
		if err != nil {
			t.Fatalf("Subgraph() error = %v", err)
		}
		if len(depth2.Nodes) != 3 || len(depth2.Edges) != 2 {
			t.Errorf("depth 2 = %d nodes %d edges, want 3/2", len(depth2.Nodes), len(depth2.Edges))
		}

		// Depth clamps at 3, reaching the whole chain.
		depth9, err := s.Subgraph(ctx, "t1", "alice", 9)
		if err != nil {
			t.Fatalf("Subgraph() error = %v", err)
		}
		if len(depth9.Nodes) != 4 || len(depth9.Edges) != 3 {
			t.Errorf("clamped depth = %d nodes %d edges, want 4/3", len(depth9.Nodes), len(depth9.Edges))
		}
	})

	t.Run("unknown entity yields empty subgraph", func(t *testing.T) {
		tdb.TruncateAll(t)

		g, err := s.Subgraph(ctx, "t1", "nobody", 2)
		if err != nil {
			t.Fatalf("Subgraph() error = %v", err)
		}
		if len(g.Nodes) != 0 || len(g.Edges) != 0 {
			t.Errorf("subgraph = %+v, want empty", g)
		}
	})
}
