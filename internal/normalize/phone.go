// Package normalize turns raw phone numbers, URLs and business names into
// canonical comparable forms. Every function is total: bad input yields a
// "not ok" result, never a panic.
package normalize

import (
	"regexp"
	"strings"
)

var frenchPhone = regexp.MustCompile(`^0[1-9]\d{8}$`)

// premiumPrefixes are surtaxed number ranges that are never a business's
// direct line.
var premiumPrefixes = []string{"0836", "089"}

// Phone canonicalizes a raw phone string to the national 10-digit form.
// International prefixes +33 and 0033 are rewritten to a leading 0. Premium
// rate prefixes and anything not matching the national pattern are rejected.
func Phone(raw string) (string, bool) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' || r == '+' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch {
	case strings.HasPrefix(digits, "+33"):
		digits = "0" + digits[3:]
	case strings.HasPrefix(digits, "0033"):
		digits = "0" + digits[4:]
	}

	if !frenchPhone.MatchString(digits) {
		return "", false
	}
	for _, p := range premiumPrefixes {
		if strings.HasPrefix(digits, p) {
			return "", false
		}
	}
	return digits, true
}
