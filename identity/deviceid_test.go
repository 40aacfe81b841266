package identity

import (
	"crypto/sha256"
	"testing"
)

func TestFromSHA256ToDisplayAndBack(t *testing.T) {
	var sum [32]byte
	for i := range sum {
		sum[i] = byte(i * 7)
	}
	id := FromSHA256(sum)

	if len(id.String()) != displaySize {
		t.Fatalf("display length = %d, want %d", len(id.String()), displaySize)
	}
	if id.Short() != id.String()[:shortIDLen] {
		t.Fatal("Short() must be the first 7 display characters")
	}

	parsed, err := Parse(id.String())
	if err != nil {
		t.Fatalf("Parse(%q): %v", id.String(), err)
	}
	if !parsed.Equal(id) {
		t.Fatal("parsed identity does not equal the original")
	}
	if parsed.SHA256() != sum {
		t.Fatal("parsed SHA-256 does not match original")
	}
}

func TestFromCertRoundTrip(t *testing.T) {
	cert := []byte("pretend this is a DER certificate")
	id := FromCert(cert)
	sum := sha256.Sum256(cert)

	again := FromSHA256(sum)
	if !id.Equal(again) {
		t.Fatal("FromCert and FromSHA256(sha256.Sum256(cert)) must agree")
	}
}

func TestParseRejectsWrongLength(t *testing.T) {
	if _, err := Parse("TOOSHORT"); err == nil {
		t.Fatal("expected error for wrong-length input")
	}
}

func TestParseRejectsMissingDashes(t *testing.T) {
	var sum [32]byte
	id := FromSHA256(sum)
	mangled := []byte(id.String())
	mangled[7] = 'X'
	if _, err := Parse(string(mangled)); err == nil {
		t.Fatal("expected error for missing dash separator")
	}
}

func TestKnownDeviceIDFixtureParses(t *testing.T) {
	const display = "KHQNO2S-5QSILRK-YX4JZZ4-7L77APM-QNVGZJT-EKU7IFI-PNEPBMY-4MXFMQD"
	id, err := Parse(display)
	if err != nil {
		t.Fatalf("Parse(%q): %v", display, err)
	}
	if id.String() != display {
		t.Fatalf("String() = %q, want %q", id.String(), display)
	}
	if id.Short() != "KHQNO2S" {
		t.Fatalf("Short() = %q, want %q", id.Short(), "KHQNO2S")
	}
	if FromSHA256(id.SHA256()).String() != display {
		t.Fatal("FromSHA256(id.SHA256()) must reproduce the same display string")
	}
}

func TestParseRejectsBadChecksum(t *testing.T) {
	var sum [32]byte
	id := FromSHA256(sum)
	mangled := []byte(id.String())
	// Flip a payload character (not a dash) to break the Luhn check.
	if mangled[0] == 'A' {
		mangled[0] = 'B'
	} else {
		mangled[0] = 'A'
	}
	if _, err := Parse(string(mangled)); err == nil {
		t.Fatal("expected checksum failure for mangled device id")
	}
}
