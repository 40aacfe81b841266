package uri

import "testing"

func TestDefaultPorts(t *testing.T) {
	cases := []struct {
		in   string
		port int
	}{
		{"http://h/", 80},
		{"https://h/", 443},
		{"tcp://h:22000", 22000},
	}
	for _, c := range cases {
		u, err := Parse(c.in)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", c.in, err)
		}
		if u.Port != c.port {
			t.Fatalf("Parse(%q).Port = %d, want %d", c.in, u.Port, c.port)
		}
	}
}

func TestSchemeWithoutDefaultPortRequiresExplicitOne(t *testing.T) {
	if _, err := Parse("tcp://h/"); err == nil {
		t.Fatal("expected error for tcp scheme with no explicit port")
	}
}

func TestRejectsUnescapedNonASCII(t *testing.T) {
	if _, err := Parse("relay://relay.example:443/?id=🐾"); err == nil {
		t.Fatal("expected rejection of unescaped non-ASCII URI")
	}
	if _, err := Parse("relay://relay.example:443/?id=paw"); err != nil {
		t.Fatalf("expected ASCII-only equivalent to parse, got %v", err)
	}
}

func TestDedup(t *testing.T) {
	a, _ := Parse("tcp://192.168.1.1:22000")
	b, _ := Parse("tcp://192.168.1.1:22000")
	c, _ := Parse("tcp://192.168.1.2:22000")
	out := Dedup([]URI{a, b, c})
	if len(out) != 2 {
		t.Fatalf("expected 2 unique entries, got %d", len(out))
	}
}

func TestStringRoundTrip(t *testing.T) {
	u, err := Parse("tcp://192.168.100.6:22000")
	if err != nil {
		t.Fatal(err)
	}
	u2, err := Parse(u.String())
	if err != nil {
		t.Fatal(err)
	}
	if !u.Equal(u2) {
		t.Fatalf("round trip mismatch: %v vs %v", u, u2)
	}
}
