package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/substrat-dev/ragd/internal/log"
)

// DB is the database surface the graph store needs. *pgxpool.Pool
// satisfies it.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// MaxDepth bounds subgraph traversal.
const MaxDepth = 3

// Store persists and queries the knowledge graph in Postgres.
type Store struct {
	db     DB
	logger log.Logger
}

// NewStore creates a graph store on the given database.
func NewStore(db DB, logger log.Logger) *Store {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store{db: db, logger: logger}
}

const upsertEntitySQL = `
INSERT INTO entities (id, tenant_id, name, mentions)
VALUES ($1, $2, $3, $4)
ON CONFLICT (tenant_id, name) DO UPDATE SET
	mentions = (
		SELECT coalesce(array_agg(DISTINCT m), '{}')
		FROM unnest(entities.mentions || excluded.mentions) AS m
	),
	updated_at = now()`

const insertRelationSQL = `
INSERT INTO relations (id, tenant_id, source, target, rel_type)
VALUES ($1, $2, $3, $4, $5)`

// Save persists a merged extraction for a tenant. Entity mentions are
// unioned with any existing row; relations are appended as-is since the
// extractor already deduplicated the batch.
func (s *Store) Save(ctx context.Context, tenantID string, ex Extraction) error {
	if strings.TrimSpace(tenantID) == "" {
		return fmt.Errorf("save graph: empty tenant id")
	}

	for _, name := range ex.Entities {
		mentions := ex.Mentions[name]
		if mentions == nil {
			mentions = []string{}
		}
		if _, err := s.db.Exec(ctx, upsertEntitySQL,
			uuid.New(), tenantID, name, mentions); err != nil {
			return fmt.Errorf("upsert entity %q: %w", name, err)
		}
	}

	for _, rel := range ex.Relations {
		if _, err := s.db.Exec(ctx, insertRelationSQL,
			uuid.New(), tenantID, rel.Source, rel.Target, rel.Type); err != nil {
			return fmt.Errorf("insert relation %s-%s: %w", rel.Source, rel.Target, err)
		}
	}

	return nil
}

const selectEntitiesSQL = `
SELECT id, name, mentions FROM entities WHERE tenant_id = $1 ORDER BY name`

const selectRelationsSQL = `
SELECT source, target, rel_type FROM relations WHERE tenant_id = $1 ORDER BY created_at, id`

// Graph returns the tenant's whole graph.
func (s *Store) Graph(ctx context.Context, tenantID string) (Graph, error) {
	nodes, err := s.queryNodes(ctx, tenantID)
	if err != nil {
		return Graph{}, err
	}
	edges, err := s.queryEdges(ctx, tenantID)
	if err != nil {
		return Graph{}, err
	}
	return Graph{Nodes: nodes, Edges: edges}, nil
}

// Subgraph returns the neighborhood of an entity up to depth hops away.
// Depth is clamped to [1, MaxDepth]. An unknown entity yields an empty
// graph, not an error.
func (s *Store) Subgraph(ctx context.Context, tenantID, entity string, depth int) (Graph, error) {
	if depth < 1 {
		depth = 1
	}
	if depth > MaxDepth {
		depth = MaxDepth
	}

	nodes, err := s.queryNodes(ctx, tenantID)
	if err != nil {
		return Graph{}, err
	}
	edges, err := s.queryEdges(ctx, tenantID)
	if err != nil {
		return Graph{}, err
	}

	root := normalizeName(entity)
	byName := make(map[string]Node, len(nodes))
	for _, n := range nodes {
		byName[n.Label] = n
	}
	if _, ok := byName[root]; !ok {
		return Graph{Nodes: []Node{}, Edges: []Edge{}}, nil
	}

	// Breadth-first over undirected adjacency.
	adjacency := make(map[string][]int)
	for i, e := range edges {
		adjacency[e.Source] = append(adjacency[e.Source], i)
		adjacency[e.Target] = append(adjacency[e.Target], i)
	}

	visited := map[string]bool{root: true}
	frontier := []string{root}
	keepEdge := make([]bool, len(edges))

	for hop := 0; hop < depth && len(frontier) > 0; hop++ {
		var next []string
		for _, name := range frontier {
			for _, idx := range adjacency[name] {
				keepEdge[idx] = true
				for _, neighbor := range []string{edges[idx].Source, edges[idx].Target} {
					if !visited[neighbor] {
						visited[neighbor] = true
						next = append(next, neighbor)
					}
				}
			}
		}
		frontier = next
	}

	sub := Graph{Nodes: []Node{}, Edges: []Edge{}}
	for _, n := range nodes {
		if visited[n.Label] {
			sub.Nodes = append(sub.Nodes, n)
		}
	}
	for i, e := range edges {
		if keepEdge[i] {
			sub.Edges = append(sub.Edges, e)
		}
	}
	return sub, nil
}

func (s *Store) queryNodes(ctx context.Context, tenantID string) ([]Node, error) {
	rows, err := s.db.Query(ctx, selectEntitiesSQL, tenantID)
	if err != nil {
		return nil, fmt.Errorf("query entities: %w", err)
	}
	defer rows.Close()

	nodes := []Node{}
	for rows.Next() {
		var (
			id       uuid.UUID
			name     string
			mentions []string
		)
		if err := rows.Scan(&id, &name, &mentions); err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		nodes = append(nodes, Node{ID: id.String(), Label: name, Type: "entity", Mentions: mentions})
	}
	return nodes, rows.Err()
}

func (s *Store) queryEdges(ctx context.Context, tenantID string) ([]Edge, error) {
	rows, err := s.db.Query(ctx, selectRelationsSQL, tenantID)
	if err != nil {
		return nil, fmt.Errorf("query relations: %w", err)
	}
	defer rows.Close()

	edges := []Edge{}
	for rows.Next() {
		var e Edge
		if err := rows.Scan(&e.Source, &e.Target, &e.Relation); err != nil {
			return nil, fmt.Errorf("scan relation: %w", err)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}
