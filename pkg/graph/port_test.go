package graph

import "testing"

func TestPort_Cardinality(t *testing.T) {
	single := Port{Pattern: PropertyPattern{"format": Exact(String("png"))}}
	if single.Cardinality() != One {
		t.Errorf("expected non-list port to be One, got %v", single.Cardinality())
	}

	list := Port{Pattern: PropertyPattern{"format": Exact(String("png"))}, List: true}
	if list.Cardinality() != Many {
		t.Errorf("expected list port to be Many, got %v", list.Cardinality())
	}
}
