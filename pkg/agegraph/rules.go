package agegraph

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openbroker/resgraph/pkg/propgraph"
)

// ErrRuleViolation marks a failed declarative validation rule.
var ErrRuleViolation = errors.New("validation rule violation")

// Rule is one declarative validation check. Query is an openCypher
// query returning one boolean per row, with $graph standing for the
// quoted GraphID; the first false row fails validation with Message.
type Rule struct {
	Query   string
	Message string
}

// DefaultRules checks the structural invariants every stored graph is
// expected to hold.
func DefaultRules() []Rule {
	return []Rule{
		{
			Query:   "MATCH (n:GraphNode {GraphID: $graph}) RETURN n.NodeID IS NOT NULL AND n.NodeID <> ''",
			Message: "every node must carry a NodeID",
		},
		{
			Query:   "MATCH (n:GraphNode {GraphID: $graph}) RETURN n.Class IS NOT NULL AND n.Class <> ''",
			Message: "every node must carry a Class",
		},
		{
			Query:   "MATCH (n:GraphNode {GraphID: $graph}) RETURN n.Name IS NOT NULL AND n.Name <> ''",
			Message: "every node must carry a Name",
		},
		{
			Query:   "MATCH (n:GraphNode {GraphID: $graph})-[r]-(m:GraphNode) RETURN m.GraphID IS NOT NULL",
			Message: "every linked node must carry a GraphID",
		},
	}
}

// runRules evaluates each rule against this graph and fails on the
// first rule any row answers false.
func (g *ageGraph) runRules(rules []Rule) error {
	ctx := context.Background()
	for _, rule := range rules {
		query := strings.ReplaceAll(rule.Query, "$graph", quoteString(g.id))
		rows, err := g.store.queryRows(ctx, query, "ok")
		if err != nil {
			return propgraph.OpError("Validate", g.id, err)
		}
		for _, r := range rows {
			if !isTrue(r[0]) {
				return propgraph.OpError("Validate", g.id,
					fmt.Errorf("%w: %s", ErrRuleViolation, rule.Message))
			}
		}
	}
	return nil
}
