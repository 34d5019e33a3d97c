package planner

import (
	"testing"

	"github.com/xmute-dev/xmute/pkg/graph"
)

func TestPlanCache_GetPutEviction(t *testing.T) {
	c := newPlanCache(2)
	p1 := &graph.Plan{}
	p2 := &graph.Plan{}
	p3 := &graph.Plan{}

	c.put("a", p1)
	c.put("b", p2)
	if _, ok := c.get("a"); !ok {
		t.Fatal("expected 'a' to still be cached")
	}

	// "a" is now most recently used; inserting "c" should evict "b".
	c.put("c", p3)
	if _, ok := c.get("b"); ok {
		t.Error("expected 'b' to be evicted as the least recently used entry")
	}
	if _, ok := c.get("a"); !ok {
		t.Error("expected 'a' to survive eviction")
	}
	if _, ok := c.get("c"); !ok {
		t.Error("expected 'c' to be present")
	}
}

func TestSignatureOf_StableForWitnessablePredicates(t *testing.T) {
	a := graph.PropertyPattern{"format": graph.Exact(graph.String("mp4"))}
	b := graph.PropertyPattern{"format": graph.Exact(graph.String("mp4"))}
	if signatureOf(a) != signatureOf(b) {
		t.Error("expected identical patterns to produce identical signatures")
	}

	c := graph.PropertyPattern{"format": graph.Exact(graph.String("png"))}
	if signatureOf(a) == signatureOf(c) {
		t.Error("expected differing patterns to produce differing signatures")
	}
}

func TestSignatureOf_UnwitnessableFallsBackToPlaceholder(t *testing.T) {
	pt := graph.PropertyPattern{"format": graph.Exists()}
	if signatureOf(pt) != "format=?" {
		t.Errorf("expected 'format=?', got %q", signatureOf(pt))
	}
}
