package agegraph

import (
	"strings"
	"testing"

	"github.com/openbroker/resgraph/pkg/model"
)

func TestQuoteString_EscapesQuotesAndBackslashes(t *testing.T) {
	cases := map[string]string{
		"plain":      "'plain'",
		"it's":       `'it\'s'`,
		`back\slash`: `'back\\slash'`,
		"":           "''",
	}
	for in, want := range cases {
		if got := quoteString(in); got != want {
			t.Errorf("quoteString(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestPropertyMap_SortedAndQuoted(t *testing.T) {
	got := propertyMap(map[string]string{
		"Name":    "node-1",
		"Class":   "NetworkNode",
		"GraphID": "g1",
	})
	want := "{Class: 'NetworkNode', GraphID: 'g1', Name: 'node-1'}"
	if got != want {
		t.Errorf("propertyMap = %s, want %s", got, want)
	}
	if propertyMap(nil) != "{}" {
		t.Errorf("empty bag should render as {}, got %s", propertyMap(nil))
	}
}

func TestRelPattern_AnyAndTyped(t *testing.T) {
	if got := relPattern("r", model.EdgeAny); got != "-[r]-" {
		t.Errorf("any pattern = %s", got)
	}
	if got := relPattern("r", model.EdgeConnects); got != "-[r:connects]-" {
		t.Errorf("typed pattern = %s", got)
	}
	if got := relPatternDirected("r", model.EdgeHas); got != "-[r:has]->" {
		t.Errorf("directed pattern = %s", got)
	}
}

func TestCypherQuery_ColumnDeclarations(t *testing.T) {
	q := cypherQuery("resmodel", "MATCH (n) RETURN n.NodeID, n.Class", "id", "class")
	if !strings.Contains(q, "cypher('resmodel',") {
		t.Errorf("graph name not quoted into call: %s", q)
	}
	if !strings.HasSuffix(q, "AS (id agtype, class agtype)") {
		t.Errorf("column declarations wrong: %s", q)
	}
	single := cypherQuery("resmodel", "RETURN 1")
	if !strings.HasSuffix(single, "AS (result agtype)") {
		t.Errorf("default column declaration wrong: %s", single)
	}
}

func TestParseProperties_VertexForm(t *testing.T) {
	raw := `{"Class": "NetworkNode", "GraphID": "g1", "Weight": 3}::vertex`
	props, err := parseProperties(raw)
	if err != nil {
		t.Fatalf("parseProperties: %v", err)
	}
	if props["Class"] != "NetworkNode" || props["GraphID"] != "g1" {
		t.Errorf("string values mangled: %v", props)
	}
	if props["Weight"] != "3" {
		t.Errorf("numeric value should keep its JSON rendering, got %q", props["Weight"])
	}
}

func TestUnquoteScalar(t *testing.T) {
	if got := unquoteScalar(`"node-1"`); got != "node-1" {
		t.Errorf("quoted scalar = %q", got)
	}
	if got := unquoteScalar("42"); got != "42" {
		t.Errorf("bare scalar = %q", got)
	}
	if !isTrue("true") || isTrue("false") || isTrue(`"true"`) {
		t.Error("isTrue misreads agtype booleans")
	}
}
