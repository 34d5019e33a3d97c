package graph

import "testing"

func TestPredicate_ExistsTreatsNullAsAbsent(t *testing.T) {
	bag := Properties{"width": Null}
	if Exists().Match(bag, "width") {
		t.Error("expected Exists to treat an explicit Null value as absent")
	}
	bag["width"] = Int(10)
	if !Exists().Match(bag, "width") {
		t.Error("expected Exists to match a present non-null value")
	}
}

func TestPredicate_NegatedAbsentIsVacuouslyTrue(t *testing.T) {
	bag := Properties{}
	pred := Not(Exact(String("png")))
	if !pred.Match(bag, "format") {
		t.Error("expected a negated predicate over an absent key to match")
	}
}

func TestPredicate_InRange(t *testing.T) {
	pred := InRange(Int(10), Int(20))
	bag := Properties{"width": Int(15)}
	if !pred.Match(bag, "width") {
		t.Error("expected 15 to be in [10, 20]")
	}
	bag["width"] = Int(25)
	if pred.Match(bag, "width") {
		t.Error("expected 25 to be outside [10, 20]")
	}
}

func TestPredicate_Witness(t *testing.T) {
	if v, ok := Exact(String("mp4")).Witness(); !ok || v.Equal(String("mp4")) == false {
		t.Errorf("expected Exact witness to be mp4, got %v, %v", v, ok)
	}
	if _, ok := Exists().Witness(); ok {
		t.Error("expected Exists to have no witness")
	}
	if v, ok := InRange(Int(0), Int(1024)).Witness(); !ok || v.Equal(Int(1024)) == false {
		t.Errorf("expected InRange witness to be the upper bound, got %v, %v", v, ok)
	}
	if _, ok := Not(Exact(String("x"))).Witness(); ok {
		t.Error("expected a negated predicate to have no witness")
	}
}

func TestPropertyPattern_Unsatisfied(t *testing.T) {
	pt := PropertyPattern{
		"format": Exact(String("mp4")),
		"width":  Ge(Int(100)),
	}
	bag := Properties{"format": String("png"), "width": Int(200)}

	missing := pt.Unsatisfied(bag)
	if len(missing) != 1 || missing[0] != "format" {
		t.Errorf("expected only 'format' unsatisfied, got %v", missing)
	}
}

func TestPropertyPattern_Match(t *testing.T) {
	pt := PropertyPattern{"format": Exact(String("mp4"))}
	if pt.Match(Properties{"format": String("png")}) {
		t.Error("expected pattern not to match mismatching format")
	}
	if !pt.Match(Properties{"format": String("mp4")}) {
		t.Error("expected pattern to match equal format")
	}
}
