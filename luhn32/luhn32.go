// Package luhn32 computes and validates the Luhn-mod-32 check digit
// used inside device identifiers to catch transcription errors.
package luhn32

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"

var codePoint = buildCodePoints()

func buildCodePoints() [256]int8 {
	var t [256]int8
	for i := range t {
		t[i] = -1
	}
	for i := 0; i < len(alphabet); i++ {
		t[alphabet[i]] = int8(i)
	}
	return t
}

// Calculate computes the Luhn-mod-32 check character for in, a string
// of alphabet characters. The caller must ensure in contains only
// alphabet characters; Calculate does not validate its input.
func Calculate(in string) byte {
	const n = 32
	factor := 1
	sum := 0

	for i := 0; i < len(in); i++ {
		cp := int(codePoint[in[i]])
		addend := factor * cp
		if factor == 2 {
			factor = 1
		} else {
			factor = 2
		}
		addend = (addend / n) + (addend % n)
		sum += addend
	}

	remainder := sum % n
	checkIndex := (n - remainder) % n
	return alphabet[checkIndex]
}

// Validate recomputes the check character over in[:len(in)-1] and
// compares it against in's last character. It rejects empty input and
// any input containing a character outside the alphabet.
func Validate(in string) bool {
	if len(in) == 0 {
		return false
	}
	for i := 0; i < len(in); i++ {
		if codePoint[in[i]] < 0 {
			return false
		}
	}
	body := in[:len(in)-1]
	return in[len(in)-1] == Calculate(body)
}
