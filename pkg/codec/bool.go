package codec

import "github.com/cuemby/portod/pkg/perr"

// ParseBool parses the case-sensitive "true"/"false" grammar.
func ParseBool(s string) (bool, error) {
	switch s {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, perr.InvalidValuef("bad bool value: %s", s)
	}
}

// FormatBool is the inverse of ParseBool.
func FormatBool(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
