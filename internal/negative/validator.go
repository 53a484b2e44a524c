package negative

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"ucextract/internal/rules"
	"ucextract/internal/scanner"
	"ucextract/internal/taxid"
	"ucextract/internal/textutil"
)

// Reason names why a candidate was rejected.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonTaxIDAdjacent   Reason = "taxid_adjacent"
	ReasonTaxIDChecksum   Reason = "taxid_checksum"
	ReasonStaticExclusion Reason = "static_exclusion"
	ReasonRepeatedDigits  Reason = "repeated_digits"
	ReasonDate            Reason = "date"
	ReasonPercentage      Reason = "percentage"
	ReasonCurrency        Reason = "currency"
)

const (
	minYear = 1950
	maxYear = 2100
	// contextReach bounds how far around a token the context checks look.
	contextReach = 16
)

// Validator applies the rejection rules. The zero value is ready to use and
// safe for concurrent use.
type Validator struct{}

// New returns a Validator.
func New() *Validator {
	return &Validator{}
}

// Accept reports whether c survives every rejection rule. text must be the
// same masked text the candidate was scanned from.
func (v *Validator) Accept(text string, c scanner.Candidate, rs *rules.RuleSet) (bool, Reason) {
	digits := c.Value
	before, after := surroundings(text, c)

	switch {
	case adjacentToPlaceholder(before, after):
		return false, ReasonTaxIDAdjacent
	case len(digits) == 11 && taxid.IsValidCPF(digits), len(digits) == 14 && taxid.IsValidCNPJ(digits):
		return false, ReasonTaxIDChecksum
	case rs.IsExcluded(digits):
		return false, ReasonStaticExclusion
	case repeatedDigits(digits):
		return false, ReasonRepeatedDigits
	case looksLikeDate(digits, c.Raw):
		return false, ReasonDate
	case isPercentage(after):
		return false, ReasonPercentage
	case isCurrency(before, after):
		return false, ReasonCurrency
	}
	return true, ReasonNone
}

// Filter returns the accepted candidates in their original order together
// with a count of rejections per reason.
func (v *Validator) Filter(text string, cands []scanner.Candidate, rs *rules.RuleSet) ([]scanner.Candidate, map[Reason]int) {
	kept := make([]scanner.Candidate, 0, len(cands))
	rejected := make(map[Reason]int)
	for _, c := range cands {
		ok, reason := v.Accept(text, c, rs)
		if !ok {
			rejected[reason]++
			continue
		}
		kept = append(kept, c)
	}
	return kept, rejected
}

func surroundings(text string, c scanner.Candidate) (string, string) {
	start, end := c.Position, c.End
	if end <= start {
		end = start + len(c.Raw)
	}
	if start < 0 || end > len(text) || start > end {
		return "", ""
	}
	lo := max(0, start-contextReach-len(taxid.Placeholder))
	hi := min(len(text), end+contextReach+len(taxid.Placeholder))
	return text[lo:start], text[end:hi]
}

// adjacentToPlaceholder catches digits that survived next to a masked tax ID,
// separated at most by spaces or ID punctuation.
func adjacentToPlaceholder(before, after string) bool {
	b := strings.TrimRight(before, " \t.-/")
	a := strings.TrimLeft(after, " \t.-/")
	return strings.HasSuffix(b, taxid.Placeholder) || strings.HasPrefix(a, taxid.Placeholder)
}

func repeatedDigits(digits string) bool {
	if len(digits) < 2 {
		return false
	}
	return strings.Count(digits, digits[:1]) == len(digits)
}

// looksLikeDate matches DDMMYYYY and YYYYMMDD in eight digits, and DDMMYY
// only when the raw token was written with separators.
func looksLikeDate(digits, raw string) bool {
	switch len(digits) {
	case 8:
		return validDate(atoi(digits[0:2]), atoi(digits[2:4]), atoi(digits[4:8])) ||
			validDate(atoi(digits[6:8]), atoi(digits[4:6]), atoi(digits[0:4]))
	case 6:
		if !strings.ContainsAny(raw, ".-") {
			return false
		}
		return validDay(atoi(digits[0:2]), atoi(digits[2:4]))
	}
	return false
}

func validDate(day, month, year int) bool {
	return year >= minYear && year <= maxYear && validDay(day, month)
}

func validDay(day, month int) bool {
	if month < 1 || month > 12 || day < 1 {
		return false
	}
	days := [...]int{31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}
	return day <= days[month-1]
}

func atoi(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		n = n*10 + int(s[i]-'0')
	}
	return n
}

// isPercentage looks for "%" or "por cento" after an optional decimal tail.
func isPercentage(after string) bool {
	rest := skipDecimalTail(after)
	rest = strings.TrimLeft(rest, " \t")
	if strings.HasPrefix(rest, "%") {
		return true
	}
	return strings.HasPrefix(textutil.NormalizeKey(firstWords(rest, 2)), "por cento")
}

// isCurrency catches "R$ 1.234" and amounts with a two-digit decimal tail.
func isCurrency(before, after string) bool {
	b := strings.TrimRight(before, " \t")
	if strings.HasSuffix(strings.ToUpper(b), "R$") {
		return true
	}
	if len(after) >= 3 && after[0] == ',' && isASCIIDigit(after[1]) && isASCIIDigit(after[2]) {
		return len(after) == 3 || !isASCIIDigit(after[3])
	}
	return false
}

func skipDecimalTail(after string) string {
	if len(after) < 2 || (after[0] != ',' && after[0] != '.') || !isASCIIDigit(after[1]) {
		return after
	}
	i := 1
	for i < len(after) && isASCIIDigit(after[i]) {
		i++
	}
	return after[i:]
}

func firstWords(s string, n int) string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == utf8.RuneError
	})
	if len(fields) > n {
		fields = fields[:n]
	}
	return strings.Join(fields, " ")
}

func isASCIIDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
