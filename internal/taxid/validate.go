package taxid

import "strings"

var (
	cnpjFirstWeights  = []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	cnpjSecondWeights = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

// IsValidCPF reports whether value is an 11-digit CPF whose two check digits
// satisfy the modulo-11 algorithm. The canonical punctuation (dots, hyphen)
// is tolerated; any other character, a wrong length, or a sequence of one
// repeated digit yields false.
func IsValidCPF(value string) bool {
	digits, ok := canonicalDigits(value, 11)
	if !ok || repeated(digits) {
		return false
	}
	first := cpfCheckDigit(digits[:9])
	if first != digits[9] {
		return false
	}
	return cpfCheckDigit(digits[:10]) == digits[10]
}

// IsValidCNPJ reports whether value is a 14-digit CNPJ whose two check digits
// satisfy the modulo-11 algorithm. Dots, slash, and hyphen are tolerated.
func IsValidCNPJ(value string) bool {
	digits, ok := canonicalDigits(value, 14)
	if !ok || repeated(digits) {
		return false
	}
	if cnpjCheckDigit(digits[:12], cnpjFirstWeights) != digits[12] {
		return false
	}
	return cnpjCheckDigit(digits[:13], cnpjSecondWeights) == digits[13]
}

// Digits returns only the ASCII digits of value, preserving order and
// leading zeros.
func Digits(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for i := 0; i < len(value); i++ {
		if isDigit(value[i]) {
			b.WriteByte(value[i])
		}
	}
	return b.String()
}

// FormatCPF renders an 11-digit string as 000.000.000-00. Inputs of any other
// length are returned unchanged.
func FormatCPF(digits string) string {
	if len(digits) != 11 {
		return digits
	}
	return digits[0:3] + "." + digits[3:6] + "." + digits[6:9] + "-" + digits[9:11]
}

// FormatCNPJ renders a 14-digit string as 00.000.000/0000-00. Inputs of any
// other length are returned unchanged.
func FormatCNPJ(digits string) string {
	if len(digits) != 14 {
		return digits
	}
	return digits[0:2] + "." + digits[2:5] + "." + digits[5:8] + "/" + digits[8:12] + "-" + digits[12:14]
}

// cpfCheckDigit weights the prefix from len+1 down to 2.
func cpfCheckDigit(prefix []byte) byte {
	sum := 0
	weight := len(prefix) + 1
	for _, d := range prefix {
		sum += int(d-'0') * weight
		weight--
	}
	rest := (sum * 10) % 11
	if rest == 10 {
		rest = 0
	}
	return byte('0' + rest)
}

func cnpjCheckDigit(prefix []byte, weights []int) byte {
	sum := 0
	for i, d := range prefix {
		sum += int(d-'0') * weights[i]
	}
	rest := sum % 11
	if rest < 2 {
		return '0'
	}
	return byte('0' + 11 - rest)
}

// canonicalDigits strips the separators allowed in printed tax IDs and
// returns the remaining digits when exactly want of them are present.
func canonicalDigits(value string, want int) ([]byte, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, false
	}
	out := make([]byte, 0, want)
	for i := 0; i < len(value); i++ {
		c := value[i]
		switch {
		case isDigit(c):
			if len(out) == want {
				return nil, false
			}
			out = append(out, c)
		case c == '.' || c == '-' || c == '/':
		default:
			return nil, false
		}
	}
	if len(out) != want {
		return nil, false
	}
	return out, true
}

func repeated(digits []byte) bool {
	for i := 1; i < len(digits); i++ {
		if digits[i] != digits[0] {
			return false
		}
	}
	return true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
