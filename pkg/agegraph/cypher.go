package agegraph

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/openbroker/resgraph/pkg/model"
)

// quoteString renders s as a single-quoted cypher string literal.
func quoteString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(s) + "'"
}

// propertyMap renders a property bag as a cypher map literal with keys
// in sorted order.
func propertyMap(props map[string]string) string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(quoteString(props[k]))
	}
	b.WriteByte('}')
	return b.String()
}

// nodePattern matches one node of the graph by id.
func nodePattern(varName, graphID, nodeID string) string {
	return fmt.Sprintf("(%s:%s {%s: %s, %s: %s})",
		varName, markerLabel,
		model.PropGraphID, quoteString(graphID),
		model.PropNodeID, quoteString(nodeID))
}

// relPattern matches an undirected relationship of the given kind;
// EdgeAny matches every kind.
func relPattern(varName string, kind model.EdgeKind) string {
	if kind == model.EdgeAny {
		return fmt.Sprintf("-[%s]-", varName)
	}
	return fmt.Sprintf("-[%s:%s]-", varName, kind)
}

// relPatternDirected matches an outgoing relationship of the given
// kind; EdgeAny matches every kind.
func relPatternDirected(varName string, kind model.EdgeKind) string {
	if kind == model.EdgeAny {
		return fmt.Sprintf("-[%s]->", varName)
	}
	return fmt.Sprintf("-[%s:%s]->", varName, kind)
}

// cypherQuery wraps an openCypher query in the AGE cypher() SQL call.
// columns declares the agtype result columns.
func cypherQuery(graphName, query string, columns ...string) string {
	if len(columns) == 0 {
		return fmt.Sprintf("SELECT * FROM cypher(%s, $$ %s $$) AS (result agtype)",
			quoteString(graphName), query)
	}
	decls := make([]string, len(columns))
	for i, c := range columns {
		decls[i] = c + " agtype"
	}
	return fmt.Sprintf("SELECT * FROM cypher(%s, $$ %s $$) AS (%s)",
		quoteString(graphName), query, strings.Join(decls, ", "))
}

// unquoteScalar decodes an agtype scalar column. Strings arrive
// JSON-quoted, everything else is returned verbatim.
func unquoteScalar(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal([]byte(raw), &s); err == nil {
			return s
		}
	}
	return raw
}

// parseProperties decodes an agtype properties(...) column into a flat
// string bag. Non-string values keep their JSON rendering.
func parseProperties(raw string) (map[string]string, error) {
	raw = trimAgtypeSuffix(raw)
	var values map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("decode agtype map: %w", err)
	}
	props := make(map[string]string, len(values))
	for k, v := range values {
		props[k] = unquoteScalar(string(v))
	}
	return props, nil
}

// trimAgtypeSuffix drops the ::vertex / ::edge / ::path annotation that
// AGE appends to composite agtype values.
func trimAgtypeSuffix(raw string) string {
	raw = strings.TrimSpace(raw)
	for _, suffix := range []string{"::vertex", "::edge", "::path"} {
		raw = strings.TrimSuffix(raw, suffix)
	}
	return raw
}

// isTrue reports whether an agtype boolean column is true.
func isTrue(raw string) bool {
	return strings.TrimSpace(raw) == "true"
}
