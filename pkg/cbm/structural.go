package cbm

import (
	"encoding/json"
	"fmt"

	"github.com/openbroker/resgraph/pkg/model"
	"github.com/openbroker/resgraph/pkg/propgraph"
)

// admGraphIDsKey is the list inside the StructuralInfo sub-document
// tracking which delegation models contributed a node.
const admGraphIDsKey = "adm_graph_ids"

// admGraphIDs reads the membership list from a node's StructuralInfo.
func admGraphIDs(props map[string]string) ([]string, error) {
	raw := props[model.PropStructuralInfo]
	if raw == "" {
		return nil, nil
	}
	var info map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return nil, fmt.Errorf("%w: %v", propgraph.ErrMalformedJSON, err)
	}
	rawIDs, ok := info[admGraphIDsKey]
	if !ok {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal(rawIDs, &ids); err != nil {
		return nil, fmt.Errorf("%w: %v", propgraph.ErrMalformedJSON, err)
	}
	return ids, nil
}

// setADMGraphIDs writes the membership list back into the node's
// StructuralInfo, preserving unrelated keys of the sub-document.
func setADMGraphIDs(g propgraph.Graph, nodeID string, ids []string) error {
	_, props, err := g.GetNodeProperties(nodeID)
	if err != nil {
		return err
	}
	info := make(map[string]json.RawMessage)
	if raw := props[model.PropStructuralInfo]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &info); err != nil {
			return propgraph.PropError("setADMGraphIDs", g.ID(), nodeID,
				model.PropStructuralInfo, fmt.Errorf("%w: %v", propgraph.ErrMalformedJSON, err))
		}
	}
	encoded, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	info[admGraphIDsKey] = encoded
	out, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return g.UpdateNodeProperty(nodeID, model.PropStructuralInfo, string(out))
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func remove(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
