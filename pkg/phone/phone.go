package phone

import "strings"

// CountryCode is the dialing code every normalized number carries.
const CountryCode = "94"

// Format normalizes a local or international Sri Lankan number to +94XXXXXXXXX.
// It returns false when the input matches none of the accepted shapes.
func Format(raw string) (string, bool) {
	digits := Digits(raw)

	switch {
	case len(digits) == 11 && strings.HasPrefix(digits, CountryCode):
		return "+" + digits, true
	case len(digits) == 10 && strings.HasPrefix(digits, "0"):
		return "+" + CountryCode + digits[1:], true
	case len(digits) == 9:
		return "+" + CountryCode + digits, true
	}
	return "", false
}

// Digits strips every non-digit character.
func Digits(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
