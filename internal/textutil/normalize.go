package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeKey returns value without diacritics, case folded, with every run
// of non-alphanumeric characters collapsed to one space and the ends trimmed.
// "  Companhia Energética de MINAS-Gerais " becomes
// "companhia energetica de minas gerais".
func NormalizeKey(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	value = StripAccents(value)
	value = cases.Fold().String(value)

	var b strings.Builder
	b.Grow(len(value))
	pendingSpace := false
	for _, r := range value {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
			continue
		}
		pendingSpace = true
	}
	return b.String()
}

// StripAccents decomposes value and drops combining marks, so "Instalação"
// becomes "Instalacao". Invalid input is returned unchanged.
func StripAccents(value string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, value)
	if err != nil {
		return value
	}
	return out
}

// Tokenize splits the normalized form of text on spaces.
func Tokenize(text string) []string {
	key := NormalizeKey(text)
	if key == "" {
		return []string{}
	}
	return strings.Split(key, " ")
}
