package services

import "strings"

const (
	phoneDigits      = 10
	phoneCountryCode = "90"
)

// NormalizePhone reduces a phone number to its 10-digit canonical form:
// formatting is stripped, then a leading country code "90" and one trunk
// "0". Anything that does not end up as exactly 10 digits (not starting with
// 0) yields nil. Canonical input is returned unchanged.
func NormalizePhone(raw string) *string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	if isCanonicalPhone(digits) {
		return &digits
	}
	digits = strings.TrimPrefix(digits, phoneCountryCode)
	digits = strings.TrimPrefix(digits, "0")
	if !isCanonicalPhone(digits) {
		return nil
	}
	return &digits
}

func isCanonicalPhone(digits string) bool {
	return len(digits) == phoneDigits && digits[0] != '0'
}
