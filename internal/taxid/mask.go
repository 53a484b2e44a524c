package taxid

import (
	"regexp"
	"strings"
)

// Placeholder replaces every masked CPF/CNPJ. It contains no digits, so a
// second masking pass can never match it.
const Placeholder = "[TAXID]"

// maxMaskPasses bounds the fixpoint loop; each productive pass removes at
// least eleven digits, so real documents settle in two or three passes.
const maxMaskPasses = 16

var (
	// numericToken matches digit groups joined by single separators.
	numericToken = regexp.MustCompile(`\d+(?:[./\-]\d+)*`)
	digitRun     = regexp.MustCompile(`\d+`)

	embeddedCNPJ = regexp.MustCompile(`\d{2}\.\d{3}\.\d{3}/\d{4}-\d{2}`)
	embeddedCPF  = regexp.MustCompile(`\d{3}\.\d{3}\.\d{3}-\d{2}`)
)

// Mask replaces every CPF- or CNPJ-shaped sequence in text with Placeholder.
//
// A numeric token carrying exactly 11 or 14 digits is masked regardless of its
// punctuation. Tokens longer than 14 digits are searched for formatted tax IDs
// and for checksum-valid 14- and 11-digit windows, which are masked in place.
// The operation repeats until the text stops changing, which makes Mask
// idempotent.
func Mask(text string) string {
	if text == "" {
		return text
	}
	for pass := 0; pass < maxMaskPasses; pass++ {
		next := maskOnce(text)
		if next == text {
			return next
		}
		text = next
	}
	return text
}

// ContainsPlaceholder reports whether text carries at least one masked ID.
func ContainsPlaceholder(text string) bool {
	return strings.Contains(text, Placeholder)
}

func maskOnce(text string) string {
	spans := numericToken.FindAllStringIndex(text, -1)
	if len(spans) == 0 {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, span := range spans {
		start, end := span[0], span[1]
		token := text[start:end]
		b.WriteString(text[last:start])
		last = end

		switch n := countDigits(token); {
		case n == 11 || n == 14:
			b.WriteString(Placeholder)
		case n > 14:
			b.WriteString(maskEmbedded(token))
		default:
			b.WriteString(token)
		}
	}
	b.WriteString(text[last:])
	return b.String()
}

// maskEmbedded handles tax IDs glued to other digits, such as OCR output that
// lost the space between a CNPJ and the next field.
func maskEmbedded(token string) string {
	token = embeddedCNPJ.ReplaceAllString(token, Placeholder)
	token = embeddedCPF.ReplaceAllString(token, Placeholder)
	return digitRun.ReplaceAllStringFunc(token, maskValidWindows)
}

func maskValidWindows(run string) string {
	if len(run) < 11 {
		return run
	}
	var b strings.Builder
	b.Grow(len(run))
	for i := 0; i < len(run); {
		if i+14 <= len(run) && IsValidCNPJ(run[i:i+14]) {
			b.WriteString(Placeholder)
			i += 14
			continue
		}
		if i+11 <= len(run) && IsValidCPF(run[i:i+11]) {
			b.WriteString(Placeholder)
			i += 11
			continue
		}
		b.WriteByte(run[i])
		i++
	}
	return b.String()
}

func countDigits(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if isDigit(s[i]) {
			n++
		}
	}
	return n
}
