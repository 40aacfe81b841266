// Package base32enc implements the fixed RFC 4648 Base32 alphabet
// without padding, as used to render a device identity's SHA-256 digest
// into displayable characters. It intentionally does not reuse
// encoding/base32 from the standard library: this codec is one of the
// four core wire-adjacent primitives named by the specification
// (alongside the Luhn check digit, the device identity, and the frame
// codec) and is built by hand the same way the teacher hand-rolls its
// own tagged binary codecs (cell.Cell, the Ed25519 cert TLV parser in
// link/certs.go) rather than delegating to a library.
package base32enc

import "github.com/basiliscos/syncspirit-go/errs"

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"

// decodeTable maps an input byte to its 5-bit value, or -1 if the byte
// is not part of the alphabet.
var decodeTable = buildDecodeTable()

func buildDecodeTable() [256]int8 {
	var t [256]int8
	for i := range t {
		t[i] = -1
	}
	for i := 0; i < len(alphabet); i++ {
		t[alphabet[i]] = int8(i)
	}
	return t
}

// EncodedLen returns the buffer size Encode needs to hold the worst
// case (fully-padded) encoding of n input bytes: ceil(n/5)*8. Without
// padding the actual encoded length is ceil(n*8/5), which Encode
// returns after trimming the buffer; EncodedLen is only the
// allocation upper bound.
func EncodedLen(n int) int {
	return ((n + 4) / 5) * 8
}

// DecodedLen returns the number of bytes decoded from m input
// characters: floor(m*5/8). The caller is responsible for rejecting
// inputs whose length makes a valid Base32 string impossible; decode
// itself only trims to this many bytes.
func DecodedLen(m int) int {
	return (m * 5) / 8
}

// Encode returns the Base32 (no padding) encoding of input. Encode is
// total: every byte sequence has a defined encoding.
func Encode(input []byte) string {
	out := make([]byte, EncodedLen(len(input)))
	var window uint32
	var bits int
	idx := 0
	pos := 0

	for pos < len(input) || bits > 0 {
		for bits < 5 && pos < len(input) {
			window = (window << 8) | uint32(input[pos])
			bits += 8
			pos++
		}
		if bits < 5 {
			window <<= uint(5 - bits)
			bits = 5
		}
		shift := bits - 5
		idx5 := (window >> uint(shift)) & 0x1F
		out[idx] = alphabet[idx5]
		idx++
		bits -= 5
		window &= (1 << uint(bits)) - 1
	}
	return string(out[:idx])
}

// Decode decodes a Base32 (no padding) string back into bytes. Decode
// rejects any character outside the alphabet and never tolerates
// whitespace or '=' padding.
func Decode(input string) ([]byte, error) {
	const op = "base32enc.Decode"

	out := make([]byte, DecodedLen(len(input)))
	var window uint32
	var bits int
	idx := 0

	for i := 0; i < len(input); i++ {
		v := decodeTable[input[i]]
		if v < 0 {
			return nil, errs.New(op, errs.KindBase32DecodingFailure, nil)
		}
		window = (window << 5) | uint32(v)
		bits += 5
		if bits >= 8 {
			shift := bits - 8
			out[idx] = byte((window >> uint(shift)) & 0xFF)
			idx++
			bits -= 8
			window &= (1 << uint(bits)) - 1
		}
	}
	return out[:idx], nil
}
