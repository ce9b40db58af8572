package security

import "testing"

func TestCapabilitiesParseFormatRoundTrip(t *testing.T) {
	c, err := Parse("NET_ADMIN;SYS_ADMIN")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	got := c.Format()
	if got != "NET_ADMIN;SYS_ADMIN" {
		t.Errorf("Format() = %q, want %q", got, "NET_ADMIN;SYS_ADMIN")
	}
}

func TestCapabilitiesParseUnknown(t *testing.T) {
	_, err := Parse("NOT_A_CAP")
	if err == nil {
		t.Error("expected error for unknown capability")
	}
}

func TestCapabilitiesSetOps(t *testing.T) {
	a := MustParse("NET_ADMIN;SYS_ADMIN")
	b := MustParse("SYS_ADMIN;CHOWN")

	and := a.And(b)
	if and.Format() != "SYS_ADMIN" {
		t.Errorf("And() = %q", and.Format())
	}
	if !and.Equal(MustParse("SYS_ADMIN")) {
		t.Errorf("And() = %v, want SYS_ADMIN only", and)
	}

	or := a.Or(b)
	if !MustParse("NET_ADMIN").SubsetOf(or) || !MustParse("CHOWN").SubsetOf(or) {
		t.Error("Or() should contain both inputs")
	}
}

func TestCapabilitiesSubsetOf(t *testing.T) {
	parent := MustParse("NET_ADMIN")
	child := MustParse("NET_ADMIN;SYS_ADMIN")
	if child.SubsetOf(parent) {
		t.Error("child exceeds parent, should not be a subset")
	}
	if !parent.SubsetOf(child) {
		t.Error("parent should be a subset of the larger child mask")
	}
}
