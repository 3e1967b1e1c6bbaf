// Package nip validates Polish tax identification numbers (NIP).
//
// A NIP has ten digits. The tenth is a check digit: the weighted sum of the
// first nine digits with weights 6,5,7,2,3,4,5,6,7, modulo 11. A residue of 10
// can never match a single digit, so such numbers are never issued and are
// always invalid.
package nip

import "strings"

var weights = [9]int{6, 5, 7, 2, 3, 4, 5, 6, 7}

// Normalize strips the separators commonly used when writing a NIP
// ("526-025-09-95", "526 025 09 95") and an optional "PL" prefix.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.ToUpper(s), "PL")
	return strings.NewReplacer("-", "", " ", "").Replace(s)
}

// Valid reports whether s, after normalization, is a ten-digit NIP with a
// correct check digit.
func Valid(s string) bool {
	s = Normalize(s)
	if len(s) != 10 {
		return false
	}
	var digits [10]int
	for i := 0; i < 10; i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return false
		}
		digits[i] = int(c - '0')
	}

	sum := 0
	for i, w := range weights {
		sum += digits[i] * w
	}
	return sum%11 == digits[9]
}
