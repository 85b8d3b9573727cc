package swiftdsv

import (
	"github.com/shopspring/decimal"
)

// Kind is the classified type of a field's text.
type Kind int

const (
	// KindNull marks an empty field.
	KindNull Kind = iota
	// KindString marks a field that is not purely numeric.
	KindString
	// KindInteger marks a field made only of digits and an optional
	// leading minus.
	KindInteger
	// KindFloat marks a field like KindInteger but with exactly one
	// decimal point.
	KindFloat
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	default:
		return "unknown"
	}
}

// less reports whether k sits strictly below other in the lattice
// Null < String < Integer < Float.
func (k Kind) less(other Kind) bool { return k < other }

// Classify inspects text in a single left-to-right pass and reports its
// Kind. When a magnitude is needed (typically for the statistics hook),
// withMagnitude should be true; the returned decimal.Decimal is then the
// parsed numeric value and overflow reports that the text's numeric value
// could not be represented exactly (the analogue of the original engine's
// "huge number" case for long double parsing).
//
// Rules, applied byte by byte:
//   - empty input is Null
//   - at most one leading minus is accepted
//   - digits are accepted
//   - at most one decimal point is accepted; its presence makes the kind Float
//   - runs of spaces are tolerated as leading/trailing padding and between
//     the sign and the first digit; a space after a digit is only tolerated
//     as trailing padding — a further digit after that whitespace makes the
//     whole field a String (e.g. "510 456")
//   - any other byte makes the field a String
func Classify(text string, withMagnitude bool) (kind Kind, magnitude decimal.Decimal, overflow bool) {
	if len(text) == 0 {
		return KindNull, decimal.Zero, false
	}

	wsAllowed := true
	negAllowed := true
	dotAllowed := true
	digitAllowed := true
	hasDigit := false
	probFloat := false

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch c {
		case ' ':
			if !wsAllowed {
				if i > 0 && isDigit(text[i-1]) {
					digitAllowed = false
					wsAllowed = true
				} else {
					return classifyMagnitude(KindString, text, withMagnitude)
				}
			}
		case '-':
			if !negAllowed {
				return classifyMagnitude(KindString, text, withMagnitude)
			}
			negAllowed = false
		case '.':
			if !dotAllowed {
				return classifyMagnitude(KindString, text, withMagnitude)
			}
			dotAllowed = false
			negAllowed = false
			probFloat = true
		default:
			if isDigit(c) {
				if !digitAllowed {
					return classifyMagnitude(KindString, text, withMagnitude)
				}
				if wsAllowed {
					wsAllowed = false
				}
				negAllowed = false
				hasDigit = true
			} else {
				return classifyMagnitude(KindString, text, withMagnitude)
			}
		}
	}

	if !hasDigit {
		return KindNull, decimal.Zero, false
	}
	if probFloat {
		return classifyMagnitude(KindFloat, text, withMagnitude)
	}
	return classifyMagnitude(KindInteger, text, withMagnitude)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func classifyMagnitude(kind Kind, text string, withMagnitude bool) (Kind, decimal.Decimal, bool) {
	if !withMagnitude || kind == KindNull || kind == KindString {
		return kind, decimal.Zero, false
	}

	// Strip the padding Classify tolerated so decimal.NewFromString sees a
	// clean numeral; trimming here (rather than during the scan) keeps the
	// scan itself branch-free with respect to magnitude parsing.
	trimmed := trimNumericPadding(text)
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return KindFloat, decimal.Zero, true
	}
	return kind, d, false
}

func trimNumericPadding(text string) string {
	start, end := 0, len(text)
	for start < end && text[start] == ' ' {
		start++
	}
	for end > start && text[end-1] == ' ' {
		end--
	}
	out := make([]byte, 0, end-start)
	for i := start; i < end; i++ {
		if text[i] == ' ' {
			continue
		}
		out = append(out, text[i])
	}
	return string(out)
}
