package utils

import (
	"regexp"
	"strings"
)

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const MinPasswordLength = 6

// IsValidEmail reports whether the address looks like an email. This is
// checked before any network or database work is attempted.
func IsValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// IsValidPassword enforces the minimum password length
func IsValidPassword(password string) bool {
	return len(password) >= MinPasswordLength
}

// NormalizeOTP strips everything that is not a digit from a one-time
// code. Verification codes are entered digit-by-digit and may carry
// spaces or dashes when pasted.
func NormalizeOTP(code string) string {
	var b strings.Builder
	for _, r := range code {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsValidOTP reports whether the input reduces to exactly six digits
func IsValidOTP(code string) bool {
	return len(NormalizeOTP(code)) == 6
}
