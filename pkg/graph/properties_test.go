package graph

import "testing"

func TestProperties_Apply(t *testing.T) {
	src := Properties{
		"format":   String("png"),
		"width":    Int(800),
		"checksum": String("abc123"),
	}

	next := src.Apply(
		[]string{"width"},
		Properties{"format": String("jpeg")},
		[]string{"checksum"},
	)

	if v, ok := next.Get("format"); !ok {
		t.Error("expected format to be present")
	} else if s, _ := v.AsString(); s != "jpeg" {
		t.Errorf("expected format=jpeg, got %v", v)
	}
	if iv, ok := next.Get("width"); !ok {
		t.Error("expected width to be preserved")
	} else if n, _ := iv.AsInt(); n != 800 {
		t.Errorf("expected width=800, got %v", iv)
	}
	if _, ok := next.Get("checksum"); ok {
		t.Error("expected checksum to be removed")
	}
}

func TestProperties_SignatureIgnoresIrrelevantKeys(t *testing.T) {
	a := Properties{"format": String("png"), "noise": Int(1)}
	b := Properties{"format": String("png"), "noise": Int(2)}

	if a.Signature([]string{"format"}) != b.Signature([]string{"format"}) {
		t.Error("expected signatures restricted to 'format' to match despite differing 'noise'")
	}
	if a.Signature([]string{"format", "noise"}) == b.Signature([]string{"format", "noise"}) {
		t.Error("expected signatures including 'noise' to differ")
	}
}

func TestProperties_Equal(t *testing.T) {
	a := Properties{"x": Int(1)}
	b := Properties{"x": Float(1.0)}
	if !a.Equal(b) {
		t.Error("expected cross-numeric equal properties to compare equal")
	}
	c := Properties{"x": Int(1), "y": Int(2)}
	if a.Equal(c) {
		t.Error("expected differing-length properties to compare unequal")
	}
}
