package memgraph

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/openbroker/resgraph/pkg/model"
	"github.com/openbroker/resgraph/pkg/propgraph"
)

// TestMergeProps_Invariants pins down the merge semantics for arbitrary
// property-set overlaps: a key present on exactly one side always wins,
// and under the default policy a key present on both sides keeps the
// caller's value.
func TestMergeProps_Invariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	genBag := gen.MapOf(gen.Identifier(), gen.AlphaString())

	properties.Property("one-sided keys always survive a merge", prop.ForAll(
		func(selfBag, otherBag map[string]string) bool {
			merged, err := propgraph.ResolveMergedProperties(selfBag, otherBag, nil)
			if err != nil {
				return false
			}
			for k, v := range selfBag {
				if _, shared := otherBag[k]; !shared && merged[k] != v {
					return false
				}
			}
			for k, v := range otherBag {
				if _, shared := selfBag[k]; !shared && merged[k] != v {
					return false
				}
			}
			return true
		},
		genBag,
		genBag,
	))

	properties.Property("default policy keeps caller's value on shared keys", prop.ForAll(
		func(selfBag, otherBag map[string]string) bool {
			merged, err := propgraph.ResolveMergedProperties(selfBag, otherBag, nil)
			if err != nil {
				return false
			}
			for k, v := range selfBag {
				if _, shared := otherBag[k]; shared && merged[k] != v {
					return false
				}
			}
			return true
		},
		genBag,
		genBag,
	))

	properties.Property("merged key set is the union of both sides", prop.ForAll(
		func(selfBag, otherBag map[string]string) bool {
			merged, err := propgraph.ResolveMergedProperties(selfBag, otherBag, propgraph.MergePolicy{})
			if err != nil {
				return false
			}
			for k := range selfBag {
				if _, ok := merged[k]; !ok {
					return false
				}
			}
			for k := range otherBag {
				if _, ok := merged[k]; !ok {
					return false
				}
			}
			return len(merged) <= len(selfBag)+len(otherBag)
		},
		genBag,
		genBag,
	))

	properties.TestingRun(t)
}

// TestNodeHandles_MonotonicAcrossDeletes verifies internal handles are
// never reused within a store's lifetime.
func TestNodeHandles_MonotonicAcrossDeletes(t *testing.T) {
	store := NewSharedStore()
	g := mustGraph(t, store, "g1")

	addNode(t, g, "a", model.ClassNetworkNode, nil)
	firstHandle := store.mg.byGraph["g1"]["a"]
	if err := g.DeleteNode("a"); err != nil {
		t.Fatalf("DeleteNode failed: %v", err)
	}

	addNode(t, g, "a", model.ClassNetworkNode, nil)
	secondHandle := store.mg.byGraph["g1"]["a"]
	if secondHandle <= firstHandle {
		t.Errorf("Handle %d reused after delete (was %d)", secondHandle, firstHandle)
	}
}
