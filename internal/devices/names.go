package devices

import (
	"regexp"
	"strings"
)

// MaxNameLength is the longest accepted display name.
const MaxNameLength = 100

// UnknownName replaces stored names that are empty.
const UnknownName = "Unknown"

var (
	normalizedMAC   = regexp.MustCompile(`^[A-F0-9]{12}$`)
	validName       = regexp.MustCompile(`^[a-zA-Z0-9 _\-]{1,100}$`)
	invalidNameChar = regexp.MustCompile(`[^a-zA-Z0-9 _\-]`)
)

// NormalizeMAC strips whitespace and colons and uppercases the address.
// The result is not validated; use ValidMAC for that.
func NormalizeMAC(mac string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(mac), ":", ""))
}

// ValidMAC reports whether mac is already normalised.
func ValidMAC(mac string) bool {
	return normalizedMAC.MatchString(mac)
}

// ValidName reports whether name may be used as a display name.
func ValidName(name string) bool {
	return validName.MatchString(name)
}

// Sanitize makes a stored name valid by replacing every disallowed
// character with an underscore. Empty names become UnknownName.
func Sanitize(name string) string {
	out := invalidNameChar.ReplaceAllString(name, "_")
	if len(out) > MaxNameLength {
		out = out[:MaxNameLength]
	}
	if out == "" {
		return UnknownName
	}
	return out
}
