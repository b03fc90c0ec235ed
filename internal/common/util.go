package common

import "strings"

// WipeByteArray overwrites b with zeros. Used for passwords read from the
// terminal. Nil-safe.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// MaskEmail hides most of the local part of an address for log output,
// e.g. "jane.doe@example.com" becomes "j***e@example.com".
func MaskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok {
		return "***"
	}
	if len(local) <= 2 {
		return "***@" + domain
	}
	return local[:1] + "***" + local[len(local)-1:] + "@" + domain
}
