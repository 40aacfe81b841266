package base32enc

import (
	"bytes"
	"testing"
)

func TestEncodeFixtures(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"f", "MY"},
		{"fo", "MZXQ"},
		{"foo", "MZXW6"},
		{"foo-", "MZXW6LI"},
		{"foo-b", "MZXW6LLC"},
		{"foo-bar", "MZXW6LLCMFZA"},
		{"lorem ipsum dolor sit amet", "NRXXEZLNEBUXA43VNUQGI33MN5ZCA43JOQQGC3LFOQ"},
	}
	for _, c := range cases {
		got := Encode([]byte(c.in))
		if got != c.want {
			t.Errorf("Encode(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	inputs := [][]byte{
		{},
		{0x00},
		{0xFF},
		[]byte("the quick brown fox jumps over the lazy dog"),
		{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0A},
	}
	for _, in := range inputs {
		enc := Encode(in)
		dec, err := Decode(enc)
		if err != nil {
			t.Fatalf("Decode(%q) error: %v", enc, err)
		}
		if !bytes.Equal(dec, in) {
			t.Fatalf("round trip mismatch: in=%v out=%v", in, dec)
		}
	}
}

func TestDecodeRejectsInvalidCharacters(t *testing.T) {
	for _, bad := range []string{"MY0", "my", "MY=", "MY "} {
		if _, err := Decode(bad); err == nil {
			t.Errorf("Decode(%q) expected error", bad)
		}
	}
}

func TestEncodedLenFormula(t *testing.T) {
	cases := map[int]int{0: 0, 1: 8, 2: 8, 5: 8, 6: 16}
	for n, want := range cases {
		if got := EncodedLen(n); got != want {
			t.Errorf("EncodedLen(%d) = %d, want %d", n, got, want)
		}
	}
}
