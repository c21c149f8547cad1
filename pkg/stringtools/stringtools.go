package stringtools

import "strings"

// TrimLowerCase trims surrounding whitespace and lowercases s. Addresses and
// hashes are compared and stored in this form.
func TrimLowerCase(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// EqualFoldTrimmed reports whether a and b are equal after TrimLowerCase.
func EqualFoldTrimmed(a, b string) bool {
	return TrimLowerCase(a) == TrimLowerCase(b)
}
