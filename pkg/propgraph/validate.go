package propgraph

import (
	"encoding/json"
	"fmt"

	"github.com/openbroker/resgraph/pkg/model"
)

// ValidateJSONProperties is the shared on-demand validation pass: every
// property defined to hold a JSON sub-document must parse as JSON on
// every node of the graph. Backends delegate their Validate to it.
func ValidateJSONProperties(g Graph) error {
	nodes, err := g.ListNodes()
	if err != nil {
		return err
	}
	for _, nodeID := range nodes {
		_, props, err := g.GetNodeProperties(nodeID)
		if err != nil {
			return err
		}
		for key, value := range props {
			if !model.IsJSONProp(key) || value == "" {
				continue
			}
			if !json.Valid([]byte(value)) {
				return PropError("Validate", g.ID(), nodeID, key,
					fmt.Errorf("%w: %q", ErrMalformedJSON, value))
			}
		}
	}
	return nil
}
