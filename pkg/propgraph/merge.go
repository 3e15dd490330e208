package propgraph

import "encoding/json"

// ResolveMergedProperties combines the property bags of two nodes being
// contracted into one. A key present on exactly one side always wins;
// keys present on both sides are resolved by policy (default: keep the
// caller's value).
func ResolveMergedProperties(self, other map[string]string, policy MergePolicy) (map[string]string, error) {
	merged := make(map[string]string, len(self)+len(other))
	for k, v := range self {
		merged[k] = v
	}
	for k, otherVal := range other {
		selfVal, onBoth := merged[k]
		if !onBoth {
			merged[k] = otherVal
			continue
		}
		switch policy[k] {
		case MergeOverwrite:
			merged[k] = otherVal
		case MergeCombine:
			combined, err := json.Marshal([]string{selfVal, otherVal})
			if err != nil {
				return nil, err
			}
			merged[k] = string(combined)
		default:
			// MergeDiscard keeps the caller's value.
		}
	}
	return merged, nil
}
