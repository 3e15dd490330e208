// Package agegraph backs the property-graph contract with PostgreSQL and
// the Apache AGE extension. All graphs share one AGE graph namespace;
// nodes carry a common marker label and are scoped by their GraphID
// property, so cross-graph queries stay cheap. Pathfinding loads an
// adjacency snapshot and runs locally rather than pushing the search
// into the database.
package agegraph

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openbroker/resgraph/pkg/logging"
	"github.com/openbroker/resgraph/pkg/metrics"
	"github.com/openbroker/resgraph/pkg/propgraph"
)

// markerLabel tags every node managed by this store.
const markerLabel = "GraphNode"

const (
	defaultGraphName   = "resmodel"
	defaultImportTries = 3
	defaultBackoff     = 2 * time.Second
	defaultBatchSize   = 100
)

// Config carries the store's connection and import tuning.
type Config struct {
	// DatabaseURL is a pgx connection string.
	DatabaseURL string
	// GraphName is the AGE graph namespace, created when missing.
	GraphName string
	// ImportRetries bounds the attempts of a bulk import.
	ImportRetries int
	// ImportBackoff is the fixed delay between import attempts.
	ImportBackoff time.Duration
	// ImportBatchSize bounds the number of nodes created per statement.
	ImportBatchSize int

	Logger  logging.Logger
	Metrics *metrics.Registry
}

func (c *Config) withDefaults() {
	if c.GraphName == "" {
		c.GraphName = defaultGraphName
	}
	if c.ImportRetries <= 0 {
		c.ImportRetries = defaultImportTries
	}
	if c.ImportBackoff <= 0 {
		c.ImportBackoff = defaultBackoff
	}
	if c.ImportBatchSize <= 0 {
		c.ImportBatchSize = defaultBatchSize
	}
	if c.Logger == nil {
		c.Logger = logging.NewNopLogger()
	}
}

// Store implements propgraph.Store on PostgreSQL + Apache AGE.
type Store struct {
	pool *pgxpool.Pool
	cfg  Config
	log  logging.Logger
}

// NewStore connects to the database, verifies connectivity and ensures
// the AGE graph namespace exists.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	cfg.withDefaults()

	pc, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	pc.MaxConns = 25
	pc.MinConns = 5
	pc.MaxConnLifetime = 5 * time.Minute
	pc.MaxConnIdleTime = 1 * time.Minute
	// Every session needs the AGE extension loaded and ag_catalog on the
	// search path before cypher() resolves.
	pc.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		if _, err := conn.Exec(ctx, "LOAD 'age'"); err != nil {
			return err
		}
		_, err := conn.Exec(ctx, `SET search_path = ag_catalog, "$user", public`)
		return err
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	s := &Store{pool: pool, cfg: cfg, log: cfg.Logger}
	if err := s.ensureGraph(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureGraph(ctx context.Context) error {
	var count int
	err := s.pool.QueryRow(ctx,
		"SELECT count(*) FROM ag_catalog.ag_graph WHERE name = $1", s.cfg.GraphName).Scan(&count)
	if err != nil {
		return fmt.Errorf("check graph namespace: %w", err)
	}
	if count > 0 {
		return nil
	}
	if _, err := s.pool.Exec(ctx, "SELECT create_graph($1)", s.cfg.GraphName); err != nil {
		return fmt.Errorf("create graph namespace %s: %w", s.cfg.GraphName, err)
	}
	s.log.Info("created graph namespace", logging.String("namespace", s.cfg.GraphName))
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// exec runs one cypher statement and discards its rows.
func (s *Store) exec(ctx context.Context, query string, columns ...string) error {
	_, err := s.pool.Exec(ctx, cypherQuery(s.cfg.GraphName, query, columns...))
	return err
}

// queryRows runs a cypher query and returns the raw agtype text of
// every row, one string slice per row.
func (s *Store) queryRows(ctx context.Context, query string, columns ...string) ([][]string, error) {
	rows, err := s.pool.Query(ctx, cypherQuery(s.cfg.GraphName, query, columns...))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	width := len(columns)
	if width == 0 {
		width = 1
	}
	var out [][]string
	for rows.Next() {
		raw := make([]string, width)
		dest := make([]any, width)
		for i := range raw {
			dest[i] = &raw[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return out, rows.Err()
}

// queryColumn runs a single-column cypher query and returns the decoded
// scalar of every row.
func (s *Store) queryColumn(ctx context.Context, query string) ([]string, error) {
	rows, err := s.queryRows(ctx, query)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = unquoteScalar(r[0])
	}
	return out, nil
}

// NewGraph returns a handle on an empty graph. Nothing is written until
// the first node is added.
func (s *Store) NewGraph(id string) (propgraph.Graph, error) {
	return &ageGraph{store: s, id: id}, nil
}

// Graph returns a handle on the graph with the given id.
func (s *Store) Graph(id string) propgraph.Graph {
	return &ageGraph{store: s, id: id}
}

// DeleteGraph removes every node of the given graph.
func (s *Store) DeleteGraph(id string) error {
	ctx := context.Background()
	q := fmt.Sprintf("MATCH (n:%s {GraphID: %s}) DETACH DELETE n", markerLabel, quoteString(id))
	if err := s.exec(ctx, q); err != nil {
		return propgraph.OpError("DeleteGraph", id, err)
	}
	s.cfg.Metrics.SetGraphNodes(id, 0)
	return nil
}

// DeleteAll removes every node managed by this store.
func (s *Store) DeleteAll() error {
	ctx := context.Background()
	q := fmt.Sprintf("MATCH (n:%s) DETACH DELETE n", markerLabel)
	if err := s.exec(ctx, q); err != nil {
		return propgraph.OpError("DeleteAll", "", err)
	}
	return nil
}
