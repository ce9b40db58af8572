package codec

import (
	"strconv"
	"strings"

	"github.com/cuemby/portod/pkg/perr"
)

var sizeUnits = []byte{'B', 'K', 'M', 'G', 'T', 'P', 'E'}

// ParseSize parses a sized integer: <number>[<unit>] where unit is one of
// B,K,M,G,T,P,E (case-insensitive), optionally followed by "B" or "iB".
// A bare number is bytes. Decimal fractions are allowed.
func ParseSize(s string) (uint64, error) {
	value, unit, err := splitValueUnit(s)
	if err != nil {
		return 0, err
	}
	if unit == "" {
		return uint64(value), nil
	}
	lead := unit[0]
	for i, u := range sizeUnits {
		if lead != u && lead != u+('a'-'A') {
			continue
		}
		mult := uint64(1) << uint(10*i)
		switch {
		case len(unit) == 1:
			return uint64(value * float64(mult)), nil
		case i > 0 && len(unit) == 2 && (unit[1] == 'b' || unit[1] == 'B'):
			return uint64(value * float64(mult)), nil
		case i > 0 && len(unit) == 3 && unit[1] == 'i' && unit[2] == 'B':
			return uint64(value * float64(mult)), nil
		}
		break
	}
	return 0, perr.InvalidValuef("bad value unit: %s", unit)
}

// FormatSize formats value using the largest exact unit.
func FormatSize(value uint64) string {
	i := 0
	for i+1 < len(sizeUnits) && value >= uint64(1)<<uint(10*(i+1)) {
		i++
	}
	scaled := float64(value) / float64(uint64(1)<<uint(10*i))
	return strconv.FormatFloat(scaled, 'g', -1, 64) + string(sizeUnits[i])
}

// splitValueUnit parses a leading float and returns the trimmed trailing
// unit text, mirroring StringToValue's strtod-then-trim-blanks behavior.
func splitValueUnit(s string) (float64, string, error) {
	i := 0
	n := len(s)
	if i < n && (s[i] == '+' || s[i] == '-') {
		i++
	}
	start := i
	for i < n && (s[i] >= '0' && s[i] <= '9') {
		i++
	}
	if i < n && s[i] == '.' {
		i++
		for i < n && (s[i] >= '0' && s[i] <= '9') {
			i++
		}
	}
	if i == start {
		return 0, "", perr.InvalidValuef("bad value: %s", s)
	}
	value, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return 0, "", perr.InvalidValuef("bad value: %s", s)
	}
	return value, strings.TrimSpace(s[i:]), nil
}
