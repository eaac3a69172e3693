package cliversion

import "testing"

func TestParseAcceptsLeadingV(t *testing.T) {
	a, err := Parse("v1.2.3")
	if err != nil {
		t.Fatalf("Parse(v1.2.3): %v", err)
	}
	b, err := Parse("1.2.3")
	if err != nil {
		t.Fatalf("Parse(1.2.3): %v", err)
	}
	if !a.Equals(b) {
		t.Fatalf("Parse(v1.2.3) = %v, Parse(1.2.3) = %v, want equal", a, b)
	}
}

func TestIsNewer(t *testing.T) {
	old, _ := Parse("1.0.0")
	newer, _ := Parse("1.1.0")
	if !IsNewer(newer, old) {
		t.Fatalf("expected 1.1.0 to be newer than 1.0.0")
	}
	if IsNewer(old, newer) {
		t.Fatalf("expected 1.0.0 to not be newer than 1.1.0")
	}
}
