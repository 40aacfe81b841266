package luhn32

import "testing"

func TestCalculateFixtures(t *testing.T) {
	cases := []struct {
		in   string
		want byte
	}{
		{"WG2IWWALPC2HZ", 'H'},
		{"KHQNO2S5QSILR", 'K'},
	}
	for _, c := range cases {
		if got := Calculate(c.in); got != c.want {
			t.Errorf("Calculate(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestValidateFixtures(t *testing.T) {
	if !Validate("KHQNO2S5QSILRK") {
		t.Error("expected valid checksum")
	}
	if Validate("KHQNO2S5QSILR") {
		t.Error("expected invalid (too short / bad check char)")
	}
}

func TestValidateRejectsEmptyAndInvalidChars(t *testing.T) {
	if Validate("") {
		t.Error("empty input must be rejected")
	}
	if Validate("KHQNO2S5QSIL0K") {
		t.Error("'0' is not in the alphabet and must be rejected")
	}
}

func TestSelfCheckProperty(t *testing.T) {
	samples := []string{"WG2IWWALPC2HZ", "KHQNO2S5QSILR", "ABCDEFGHIJKLM"}
	for _, s := range samples {
		check := Calculate(s)
		if !Validate(s + string(check)) {
			t.Errorf("self-check failed for %q", s)
		}
	}
}
