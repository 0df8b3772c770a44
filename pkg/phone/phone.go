// Package phone normalizes customer phone numbers.
package phone

import "strings"

const (
	MinDigits = 10
	MaxDigits = 13
)

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

// Valid reports whether raw has between MinDigits and MaxDigits digits, ignoring separators.
func Valid(raw string) bool {
	n := len(Digits(raw))
	return n >= MinDigits && n <= MaxDigits
}

// International returns the digits of raw prefixed with countryCode unless they already start with it.
func International(raw, countryCode string) string {
	d := Digits(raw)
	if countryCode == "" || strings.HasPrefix(d, countryCode) {
		return d
	}
	return countryCode + d
}
