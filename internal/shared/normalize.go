package shared

import (
	"net/mail"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeEmail trims and lower-cases an email address so lookups and the
// unique constraint agree.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeUsername applies NFKC so visually identical names compare equal.
// Comparison after normalization is exact.
func NormalizeUsername(name string) string {
	return strings.TrimSpace(norm.NFKC.String(name))
}

// ValidEmail reports whether email is a bare address. Single-label domains
// such as admin@localhost are accepted.
func ValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndex(email, "@")
	return at > 0 && at < len(email)-1
}
