package agegraph

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openbroker/resgraph/pkg/graphml"
	"github.com/openbroker/resgraph/pkg/logging"
	"github.com/openbroker/resgraph/pkg/model"
	"github.com/openbroker/resgraph/pkg/propgraph"
)

// ImportGraph bulk-loads a GraphML document under the given GraphID.
// Nodes are created in batches; a failed attempt deletes the partial
// graph and retries after a fixed backoff, up to the configured number
// of attempts.
func (s *Store) ImportGraph(serialized string, f propgraph.Format, id string) (propgraph.Graph, error) {
	start := time.Now()
	g, retries, err := s.importGraph(serialized, f, id)
	s.cfg.Metrics.RecordImport(err, time.Since(start), retries)
	return g, err
}

func (s *Store) importGraph(serialized string, f propgraph.Format, id string) (propgraph.Graph, int, error) {
	if f != propgraph.FormatGraphML {
		return nil, 0, propgraph.OpError("ImportGraph", id,
			fmt.Errorf("%w: format %s", propgraph.ErrUnsupportedOperation, f))
	}
	doc, err := graphml.Decode(serialized)
	if err != nil {
		return nil, 0, propgraph.OpError("ImportGraph", id,
			fmt.Errorf("%w: %v", propgraph.ErrImportFailure, err))
	}

	retries := 0
	err = withRetry(s.cfg.ImportRetries, s.cfg.ImportBackoff,
		func(attempt int) error {
			if attempt > 1 {
				retries++
				s.log.Warn("retrying graph import",
					logging.GraphID(id), logging.Int("attempt", attempt))
			}
			return s.loadDocument(doc, id)
		},
		func() error {
			// Drop whatever the failed attempt managed to create.
			return s.DeleteGraph(id)
		})
	if err != nil {
		return nil, retries, propgraph.OpError("ImportGraph", id,
			fmt.Errorf("%w: %v", propgraph.ErrImportFailure, err))
	}

	s.log.Info("graph imported",
		logging.GraphID(id), logging.NodeCount(len(doc.Nodes)))
	s.cfg.Metrics.SetGraphNodes(id, len(doc.Nodes))
	return s.Graph(id), retries, nil
}

// loadDocument writes one decoded document under the target GraphID.
func (s *Store) loadDocument(doc *graphml.Graph, id string) error {
	ctx := context.Background()
	for _, batch := range batchNodes(doc.Nodes, s.cfg.ImportBatchSize) {
		if err := s.createNodeBatch(ctx, batch, id); err != nil {
			return err
		}
	}
	g := &ageGraph{store: s, id: id}
	for _, e := range doc.Edges {
		kind := model.EdgeKind(e.Kind)
		if err := g.addEdge(e.Source, kind, e.Target, e.Properties); err != nil {
			return err
		}
	}
	return nil
}

// createNodeBatch creates one CREATE statement covering the whole batch,
// stamping every node with the target GraphID and the marker label.
func (s *Store) createNodeBatch(ctx context.Context, batch []graphml.Node, id string) error {
	patterns := make([]string, 0, len(batch))
	for _, n := range batch {
		bag := make(map[string]string, len(n.Properties)+2)
		for k, v := range n.Properties {
			bag[k] = v
		}
		bag[model.PropGraphID] = id
		if bag[model.PropNodeID] == "" {
			bag[model.PropNodeID] = n.ID
		}
		patterns = append(patterns, fmt.Sprintf("(:%s %s)", markerLabel, propertyMap(bag)))
	}
	return s.exec(ctx, "CREATE "+strings.Join(patterns, ", "))
}

// batchNodes splits nodes into chunks of at most size elements.
func batchNodes(nodes []graphml.Node, size int) [][]graphml.Node {
	if size <= 0 {
		size = 1
	}
	var batches [][]graphml.Node
	for start := 0; start < len(nodes); start += size {
		end := start + size
		if end > len(nodes) {
			end = len(nodes)
		}
		batches = append(batches, nodes[start:end])
	}
	return batches
}

// withRetry runs op up to attempts times with a fixed backoff between
// tries, invoking cleanup after each failure. The last error wins.
func withRetry(attempts int, backoff time.Duration, op func(attempt int) error, cleanup func() error) error {
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = op(attempt); err == nil {
			return nil
		}
		if cleanup != nil {
			if cerr := cleanup(); cerr != nil {
				return fmt.Errorf("cleanup after failed attempt %d: %v (original: %w)", attempt, cerr, err)
			}
		}
		if attempt < attempts {
			time.Sleep(backoff)
		}
	}
	return err
}
