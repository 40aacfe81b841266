// Package identity builds the 63-character, dash-grouped device
// identifier from a node's self-signed certificate, and parses it back.
package identity

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/basiliscos/syncspirit-go/base32enc"
	"github.com/basiliscos/syncspirit-go/errs"
	"github.com/basiliscos/syncspirit-go/luhn32"
)

const (
	sha256B32Size   = 52 // Base32(32-byte sha256), no padding
	checkDigitLen   = 13
	luhnIterations  = sha256B32Size / checkDigitLen // 4
	luhnizedSize    = sha256B32Size + luhnIterations // 56
	dashGroupLen    = 7
	dashIterations  = luhnizedSize / dashGroupLen // 8
	displaySize     = luhnizedSize + dashIterations - 1 // 63
	shortIDLen      = dashGroupLen
)

// DeviceID is a device identity value: a 32-byte SHA-256 digest of a
// certificate together with its 63-character display form. Equality is
// defined over the SHA-256 bytes; DeviceID is cheap to copy.
type DeviceID struct {
	sha256  [32]byte
	display string
}

// FromCert derives a DeviceID from a certificate's DER bytes.
func FromCert(certDER []byte) DeviceID {
	return FromSHA256(sha256.Sum256(certDER))
}

// FromSHA256 builds a DeviceID from a precomputed 32-byte SHA-256
// digest. This never fails for a 32-byte input.
func FromSHA256(sum [32]byte) DeviceID {
	// Base32 of a 32-byte (256-bit) digest is exactly
	// ceil(256/5) = 52 characters with no padding.
	b32 := base32enc.Encode(sum[:])
	display := buildDisplay(b32)
	return DeviceID{sha256: sum, display: display}
}

func buildDisplay(b32 string) string {
	var luhnized strings.Builder
	luhnized.Grow(luhnizedSize)
	for i := 0; i < luhnIterations; i++ {
		chunk := b32[i*checkDigitLen : (i+1)*checkDigitLen]
		luhnized.WriteString(chunk)
		luhnized.WriteByte(luhn32.Calculate(chunk))
	}
	luhnizedStr := luhnized.String()

	var dashed strings.Builder
	dashed.Grow(displaySize)
	for i := 0; i < dashIterations; i++ {
		if i > 0 {
			dashed.WriteByte('-')
		}
		dashed.WriteString(luhnizedStr[i*dashGroupLen : (i+1)*dashGroupLen])
	}
	return dashed.String()
}

// Parse parses a 63-character dashed device-id string. Any structural
// or checksum failure yields an *errs.Error{Kind: KindInvalidDeviceId}.
func Parse(s string) (DeviceID, error) {
	const op = "identity.Parse"

	if len(s) != displaySize {
		return DeviceID{}, errs.New(op, errs.KindInvalidDeviceId, fmt.Errorf("expected %d characters, got %d", displaySize, len(s)))
	}
	for _, pos := range []int{7, 15, 23, 31, 39, 47, 55} {
		if s[pos] != '-' {
			return DeviceID{}, errs.New(op, errs.KindInvalidDeviceId, fmt.Errorf("expected '-' at position %d", pos))
		}
	}

	var luhnized strings.Builder
	luhnized.Grow(luhnizedSize)
	start := 0
	for i := 0; i < dashIterations; i++ {
		end := start + dashGroupLen
		luhnized.WriteString(s[start:end])
		start = end
		if i < dashIterations-1 {
			start++ // skip the dash
		}
	}
	luhnizedStr := luhnized.String()

	var payload strings.Builder
	payload.Grow(sha256B32Size)
	for i := 0; i < luhnIterations; i++ {
		block := luhnizedStr[i*(checkDigitLen+1) : (i+1)*(checkDigitLen+1)]
		if !luhn32.Validate(block) {
			return DeviceID{}, errs.New(op, errs.KindInvalidDeviceId, fmt.Errorf("luhn check failed for block %d", i))
		}
		payload.WriteString(block[:checkDigitLen])
	}

	raw, err := base32enc.Decode(payload.String())
	if err != nil {
		return DeviceID{}, errs.New(op, errs.KindInvalidDeviceId, err)
	}
	if len(raw) != 32 {
		return DeviceID{}, errs.New(op, errs.KindInvalidDeviceId, fmt.Errorf("decoded payload is %d bytes, want 32", len(raw)))
	}

	var sum [32]byte
	copy(sum[:], raw)
	return DeviceID{sha256: sum, display: s}, nil
}

// SHA256 returns the device identity's raw 32-byte digest.
func (d DeviceID) SHA256() [32]byte { return d.sha256 }

// String returns the 63-character dashed display form.
func (d DeviceID) String() string { return d.display }

// Short returns the first 7 characters of the display form.
func (d DeviceID) Short() string {
	if len(d.display) < shortIDLen {
		return d.display
	}
	return d.display[:shortIDLen]
}

// Equal compares two device identities by their SHA-256 digest.
func (d DeviceID) Equal(other DeviceID) bool {
	return d.sha256 == other.sha256
}

// IsZero reports whether d is the zero value (no identity computed).
func (d DeviceID) IsZero() bool {
	return d.display == ""
}
